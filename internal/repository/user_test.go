package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resto-rate/api/internal/model"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	return sqlx.NewDb(raw, "sqlmock"), mock
}

func strPtr(s string) *string { return &s }

func TestUserCreate_MapsUniqueViolations(t *testing.T) {
	tests := []struct {
		name   string
		dbErr  error
		expect error
	}{
		{"sqlite username", errors.New("constraint failed: UNIQUE constraint failed: users.username (2067)"), ErrDuplicateUsername},
		{"postgres username", errors.New(`ERROR: duplicate key value violates unique constraint "users_username_key" (SQLSTATE 23505)`), ErrDuplicateUsername},
		{"sqlite email", errors.New("UNIQUE constraint failed: users.email"), ErrDuplicateEmail},
		{"postgres google", errors.New(`duplicate key value violates unique constraint "users_google_id_key"`), ErrDuplicateGoogleID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			database, mock := newMockDB(t)
			repo := NewUserRepository(database)

			mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users\s+\(id, google_id.*VALUES\s*\(\$1,.*\$10\)$`).
				WillReturnError(tt.dbErr)

			err := repo.Create(context.Background(), &model.User{ID: "u1", Username: strPtr("alice")})
			assert.ErrorIs(t, err, tt.expect)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserCreate_PassesOtherErrorsThrough(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewUserRepository(database)

	mock.ExpectExec(`INSERT\s+INTO\s+users`).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &model.User{ID: "u1"})
	assert.EqualError(t, err, "db down")
}

func TestUserByUsername(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewUserRepository(database)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "google_id", "email", "name", "is_admin", "username", "password_hash", "age", "created_at", "updated_at"}).
		AddRow("u1", nil, nil, nil, false, "alice", "$argon2id$...", 30, now, now)
	mock.ExpectQuery(`^SELECT id, google_id, .* FROM users WHERE username = \$1$`).
		WithArgs("alice").
		WillReturnRows(rows)

	user, err := repo.ByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "alice", *user.Username)
	assert.True(t, user.HasPassword())
	require.NotNil(t, user.Age)
	assert.Equal(t, 30, *user.Age)
}

func TestUserByID_NotFound(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewUserRepository(database)

	mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.ByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserDelete_NoRows(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewUserRepository(database)

	mock.ExpectExec(`^DELETE FROM users WHERE id = \$1$`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSessionUserBySession_FiltersExpiry(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewSessionRepository(database)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`(?s)FROM sessions s\s+JOIN users u ON u.id = s.user_id\s+WHERE s.id = \$1 AND s.expires_at > \$2`).
		WithArgs("hash", now).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.UserBySession(context.Background(), "hash", now)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionDeleteExpired(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewSessionRepository(database)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectExec(`^DELETE FROM sessions WHERE expires_at <= \$1$`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
