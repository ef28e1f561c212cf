// Package testutil builds throwaway stores for package tests.
package testutil

import (
	"fmt"
	"testing"

	"community-match-service/internal/database"
	"community-match-service/internal/models"
	appredis "community-match-service/internal/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory sqlite database private to the test.
// A single connection is used so concurrent callers interleave statement by
// statement against the same database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// NewRedis starts a miniredis server and returns a client wrapper bound to it.
func NewRedis(t *testing.T) (*appredis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := appredis.NewClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

// NewLogger returns a discarding logger plus a hook that records entries.
func NewLogger() (*logrus.Logger, *test.Hook) {
	return test.NewNullLogger()
}

// SeedProfiles inserts active profiles with the given ids.
func SeedProfiles(t *testing.T, db *gorm.DB, ids ...uint) {
	t.Helper()
	for _, id := range ids {
		p := models.Profile{
			ID:        id,
			Name:      fmt.Sprintf("user-%d", id),
			Role:      models.RoleSeeker,
			City:      "Posadas",
			Tags:      []string{"quiet"},
			IsActive:  true,
			IsVisible: true,
		}
		require.NoError(t, db.Create(&p).Error)
	}
}
