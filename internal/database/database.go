package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/petermazzocco/go-pereval-api/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// DefaultActivities seeds spr_activities_types on an empty database.
var DefaultActivities = []string{
	"on foot",
	"bicycle",
	"car",
	"motorcycle",
	"skis",
	"horseback",
	"rafting",
}

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger: gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormLogger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	}
}

// Open connects to Postgres and sizes the connection pool.
func Open(dsn string, pool PoolConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), GormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	return db, nil
}

// Migrate creates the schema and seeds the activity lookup table.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Coords{},
		&models.Level{},
		&models.Pereval{},
		&models.Image{},
		&models.ActivityType{},
		&models.PerevalActivity{},
	); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.ActivityType{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	seed := make([]models.ActivityType, 0, len(DefaultActivities))
	for _, title := range DefaultActivities {
		seed = append(seed, models.ActivityType{Title: title})
	}
	if err := db.WithContext(ctx).Create(&seed).Error; err != nil {
		return fmt.Errorf("failed to seed activity types: %w", err)
	}
	return nil
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
