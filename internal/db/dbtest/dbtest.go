// Package dbtest opens migrated in-memory SQLite databases for tests.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/resto-rate/api/internal/db"
)

const Driver = "sqlite"

// New returns a fresh database with every migration applied.
// Each call gets its own named in-memory database, closed when the test ends.
func New(t testing.TB) *sqlx.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)&_time_format=sqlite"
	database, err := sqlx.Open(Driver, dsn)
	require.NoError(t, err)

	// A single connection keeps the in-memory database alive and avoids shared-cache table locks.
	database.SetMaxOpenConns(1)
	database.SetConnMaxLifetime(0)

	require.NoError(t, database.Ping())
	require.NoError(t, db.RunMigrations(database.DB, Driver))

	t.Cleanup(func() {
		_ = database.Close()
	})
	return database
}
