package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/resto-rate/api/internal/db"
	"github.com/resto-rate/api/internal/model"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateGoogleID = errors.New("google account already linked")
)

const userColumns = `id, google_id, email, name, is_admin, username, password_hash, age, created_at, updated_at`

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	ByID(ctx context.Context, id string) (*model.User, error)
	ByUsername(ctx context.Context, username string) (*model.User, error)
	ByEmail(ctx context.Context, email string) (*model.User, error)
	ByGoogleID(ctx context.Context, googleID string) (*model.User, error)
	List(ctx context.Context, limit, offset int) ([]*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	db db.Querier
}

func NewUserRepository(db db.Querier) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.GoogleID,
		user.Email,
		user.Name,
		user.IsAdmin,
		user.Username,
		user.PasswordHash,
		user.Age,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return mapUserError(err)
}

func (r *userRepository) ByID(ctx context.Context, id string) (*model.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepository) ByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *userRepository) ByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *userRepository) ByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE google_id = $1`, googleID)
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]*model.User, error) {
	users := []*model.User{}
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`

	err := r.db.SelectContext(ctx, &users, query, limit, offset)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `UPDATE users SET google_id = $1, email = $2, name = $3, username = $4, password_hash = $5, age = $6, updated_at = $7 WHERE id = $8`

	result, err := r.db.ExecContext(ctx, query,
		user.GoogleID,
		user.Email,
		user.Name,
		user.Username,
		user.PasswordHash,
		user.Age,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return mapUserError(err)
	}
	return expectOne(result, ErrUserNotFound)
}

// Delete removes the user; sessions, reviews and votes cascade and owned restaurants lose their owner.
func (r *userRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(result, ErrUserNotFound)
}

func (r *userRepository) one(ctx context.Context, query string, arg any) (*model.User, error) {
	user := &model.User{}
	err := r.db.GetContext(ctx, user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func mapUserError(err error) error {
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err, "username"):
		return ErrDuplicateUsername
	case isUniqueViolation(err, "email"):
		return ErrDuplicateEmail
	case isUniqueViolation(err, "google_id"):
		return ErrDuplicateGoogleID
	}
	return err
}

func expectOne(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
