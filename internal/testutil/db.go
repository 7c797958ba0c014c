// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SQLiteConfig returns a config pointing at a private in-memory sqlite
// database with foreign keys enforced.
func SQLiteConfig() *config.Config {
	return &config.Config{
		Env:              "test",
		DBDriver:         "sqlite",
		DBPath:           ":memory:",
		DBSchemaMode:     "auto",
		PostsPageSize:    9,
		SearchPageSize:   10,
		CommentsPageSize: 2,
		MaxPageSize:      100,
	}
}

// NewDB opens a fresh in-memory database with every model migrated. Each
// call gets its own database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Open(SQLiteConfig())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
