package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/resto-rate/api/internal/db"
	"github.com/resto-rate/api/internal/model"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	// UserBySession returns the owner of an unexpired session.
	UserBySession(ctx context.Context, id string, now time.Time) (*model.User, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepository struct {
	db db.Querier
}

func NewSessionRepository(db db.Querier) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	query := `INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query, session.ID, session.UserID, session.ExpiresAt, session.CreatedAt)
	if isForeignKeyViolation(err) {
		return ErrUserNotFound
	}
	return err
}

// UserBySession joins the session to its user in a single query.
// Missing and expired sessions both yield ErrSessionNotFound.
func (r *sessionRepository) UserBySession(ctx context.Context, id string, now time.Time) (*model.User, error) {
	user := &model.User{}
	query := `
		SELECT u.id, u.google_id, u.email, u.name, u.is_admin, u.username, u.password_hash, u.age, u.created_at, u.updated_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = $1 AND s.expires_at > $2
	`

	err := r.db.GetContext(ctx, user, query, id, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Delete is idempotent: deleting an unknown session is not an error.
func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
