// Package testutil opens throwaway sqlite databases for tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/chidiebere-dev/homefolio/internal/database"
)

type options struct {
	migrate bool
	seed    bool
}

// TestDBOption adjusts what MustOpenTestDB prepares.
type TestDBOption func(*options)

// WithAutoMigrate runs schema migration on the fresh database.
func WithAutoMigrate() TestDBOption {
	return func(o *options) { o.migrate = true }
}

// WithSeedData migrates and inserts the default settings rows.
func WithSeedData() TestDBOption {
	return func(o *options) {
		o.migrate = true
		o.seed = true
	}
}

// MustOpenTestDB returns an isolated in-memory database that is closed when
// the test finishes. Each call gets its own uuid-named shared-cache DSN so
// the schema survives pooled connections without leaking between tests.
func MustOpenTestDB(t *testing.T, opts ...TestDBOption) *gorm.DB {
	t.Helper()

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := database.Open(database.Config{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)

	switch {
	case o.seed:
		require.NoError(t, database.AutoMigrateAndSeed(db))
	case o.migrate:
		require.NoError(t, database.AutoMigrate(db))
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}
