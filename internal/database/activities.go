package database

import (
	"context"

	"github.com/petermazzocco/go-pereval-api/models"
)

// ActivityTypes returns the lookup set of activity types ordered by id.
func (s *Store) ActivityTypes(ctx context.Context) ([]models.ActivityType, error) {
	types := []models.ActivityType{}
	if err := s.db.WithContext(ctx).Order("id").Find(&types).Error; err != nil {
		s.log.Error("Failed to list activity types", "error", err)
		return nil, classify("list activity types", err)
	}
	return types, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return Ping(ctx, s.db)
}
