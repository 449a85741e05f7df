package database

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("pereval not found")
	ErrGuardRejected    = errors.New("editing is allowed only for records with status 'new'")
	ErrInvalidReference = errors.New("submission references a missing or conflicting record")
)

// StorageError wraps any database failure that is not one of the sentinels.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// classify maps a failure from inside a transaction onto the error taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrGuardRejected) {
		return err
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", op, ErrInvalidReference)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503", "23505":
			return fmt.Errorf("%s: %s: %w", op, pgErr.ConstraintName, ErrInvalidReference)
		}
	}
	return &StorageError{Op: op, Err: err}
}
