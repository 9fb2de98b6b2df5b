package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resto-rate/api/internal/db"
	"github.com/resto-rate/api/internal/db/dbtest"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	return sqlx.NewDb(raw, "sqlmock"), mock
}

func TestWithTxCommits(t *testing.T) {
	database, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE restaurants").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := db.WithTx(context.Background(), database, func(tx *sqlx.Tx) error {
		_, err := tx.Exec("UPDATE restaurants SET total_reviews = 1")
		return err
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnError(t *testing.T) {
	database, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := db.WithTx(context.Background(), database, func(tx *sqlx.Tx) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	database, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = db.WithTx(context.Background(), database, func(tx *sqlx.Tx) error {
			panic("kaboom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrationsApplyAndReportVersion(t *testing.T) {
	database := dbtest.New(t)

	version, err := db.Version(database.DB, dbtest.Driver)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	var tables []string
	err = database.Select(&tables, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'goose%' AND name NOT LIKE 'sqlite%' ORDER BY name`)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"categories", "restaurant_categories", "restaurants", "review_helpful_votes",
		"review_photos", "reviews", "sessions", "users",
	}, tables)
}

func TestAuthMethodCheck(t *testing.T) {
	database := dbtest.New(t)

	_, err := database.Exec(`INSERT INTO users (id, email, created_at, updated_at) VALUES ('u1', 'a@example.com', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	assert.Error(t, err, "a user needs a password login or a google id")

	_, err = database.Exec(`INSERT INTO users (id, google_id, created_at, updated_at) VALUES ('u2', 'g-1', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	assert.NoError(t, err)
}
