package database

import (
	"context"
	"fmt"
	"time"

	"community-match-service/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Initialize connects to postgres, verifies the connection and migrates the schema.
func Initialize(databaseURL string, slowThreshold time.Duration, log logrus.FieldLogger) (*gorm.DB, error) {
	gormLogger := logger.New(log, logger.Config{
		SlowThreshold:             slowThreshold,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})

	db, err := Open(postgres.Open(databaseURL), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, err
	}

	log.Info("Database connected and migrated successfully")
	return db, nil
}

// Open connects through any gorm dialector, pings and migrates. Tests use it
// with the sqlite dialector.
func Open(dialector gorm.Dialector, config *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// Migrate creates the engine tables together with the uniqueness constraints
// the engine relies on: ordered pair for likes and blocks, canonical pair for
// matches, match id for conversations and (conversation, sequence) for messages.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Profile{},
		&models.Like{},
		&models.Match{},
		&models.Conversation{},
		&models.Message{},
		&models.BlockedUser{},
		&models.Report{},
		&models.ViewCount{},
	)
}

// Ping reports whether the underlying connection is usable.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
