package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/resto-rate/api/internal/apperr"
	"github.com/resto-rate/api/internal/db"
	"github.com/resto-rate/api/internal/model"
	"github.com/resto-rate/api/internal/repository"
	"github.com/resto-rate/api/internal/validation"
)

var (
	ErrUserNotFound      = apperr.NotFound("user not found")
	ErrCannotUpdateOther = apperr.Forbidden("cannot update other users")
	ErrCannotDeleteOther = apperr.Forbidden("cannot delete other users")
	ErrNoUpdateData      = apperr.Validation("no update data provided")
)

type CreateUserInput struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Age      *int    `json:"age"`
}

type UserService struct {
	db     *sqlx.DB
	users  repository.UserRepository
	hasher *PasswordHasher
	email  *EmailService
	now    func() time.Time
}

func NewUserService(database *sqlx.DB, hasher *PasswordHasher, email *EmailService) *UserService {
	return &UserService{
		db:     database,
		users:  repository.NewUserRepository(database),
		hasher: hasher,
		email:  email,
		now:    time.Now,
	}
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]*model.User, error) {
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	for i, u := range users {
		users[i] = u.Public()
	}
	return users, nil
}

func (s *UserService) ByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.ByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user.Public(), nil
}

// Create adds a password user. The password is always hashed before it is stored.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, invalid(err)
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, invalid(err)
	}

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	name := trimmed(in.Name)
	if name != nil {
		if err := validation.ValidateName("name", *name); err != nil {
			return nil, invalid(err)
		}
	}
	if in.Age != nil {
		if err := validation.ValidateAge(*in.Age); err != nil {
			return nil, invalid(err)
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &model.User{
		ID:           id,
		Username:     &username,
		PasswordHash: &hash,
		Email:        email,
		Name:         name,
		Age:          in.Age,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.users.Create(ctx, user)
	if err != nil {
		return nil, mapUserWriteError(err)
	}

	return user.Public(), nil
}

// Update changes the caller's own account.
func (s *UserService) Update(ctx context.Context, actor *model.User, id string, in model.UserUpdate) (*model.User, error) {
	if actor.ID != id {
		return nil, ErrCannotUpdateOther
	}
	if in.Empty() {
		return nil, ErrNoUpdateData
	}

	user, err := s.users.ByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return nil, invalid(err)
		}
		user.Username = &username
	}
	if in.Password != nil {
		if err := validation.ValidatePassword(*in.Password); err != nil {
			return nil, invalid(err)
		}
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = &hash
	}
	if in.Email != nil {
		email, err := normalizeEmail(in.Email)
		if err != nil {
			return nil, err
		}
		user.Email = email
	}
	if in.Name != nil {
		name := trimmed(in.Name)
		if name != nil {
			if err := validation.ValidateName("name", *name); err != nil {
				return nil, invalid(err)
			}
		}
		user.Name = name
	}
	if in.Age != nil {
		if err := validation.ValidateAge(*in.Age); err != nil {
			return nil, invalid(err)
		}
		user.Age = in.Age
	}

	// A password login needs both halves.
	if (user.Username == nil) != (user.PasswordHash == nil) && user.GoogleID == nil {
		return nil, apperr.Validation("username and password must be set together")
	}

	user.UpdatedAt = s.now().UTC()
	err = s.users.Update(ctx, user)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, mapUserWriteError(err)
	}

	return user.Public(), nil
}

// Delete removes the caller's own account with its sessions, reviews and votes.
// Restaurants the user created are deactivated and lose their owner; the ratings
// and helpful counts the removed rows contributed to are recomputed in the same transaction.
func (s *UserService) Delete(ctx context.Context, actor *model.User, id string) error {
	if actor.ID != id {
		return ErrCannotDeleteOther
	}

	user, err := s.users.ByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	err = db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repos := repository.New(tx)
		now := s.now().UTC()

		reviewed, err := repos.Reviews.RestaurantIDsByUser(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to list reviewed restaurants: %w", err)
		}
		voted, err := repos.Votes.ReviewIDsByVoter(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to list voted reviews: %w", err)
		}
		if err := repos.Restaurants.DeactivateByOwner(ctx, id, now); err != nil {
			return fmt.Errorf("failed to deactivate restaurants: %w", err)
		}

		err = repos.Users.Delete(ctx, id)
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}

		for _, restaurantID := range reviewed {
			if err := repos.Restaurants.RefreshRating(ctx, restaurantID, now); err != nil {
				return fmt.Errorf("failed to refresh rating: %w", err)
			}
		}
		for _, reviewID := range voted {
			if err := repos.Reviews.RefreshHelpfulCount(ctx, reviewID); err != nil {
				return fmt.Errorf("failed to refresh helpful count: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("user deleted", "user_id", id)

	if user.Email != nil {
		name := ""
		if user.Name != nil {
			name = *user.Name
		}
		if err := s.email.SendAccountDeletedEmail(ctx, *user.Email, name); err != nil {
			slog.Warn("account deleted email failed", "error", err, "user_id", id)
		}
	}
	return nil
}

func normalizeEmail(email *string) (*string, error) {
	if email == nil {
		return nil, nil
	}
	e := strings.ToLower(strings.TrimSpace(*email))
	if e == "" {
		return nil, nil
	}
	if err := validation.ValidateEmail(e); err != nil {
		return nil, invalid(err)
	}
	return &e, nil
}

func mapUserWriteError(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateUsername):
		return ErrUsernameTaken
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrEmailTaken
	case errors.Is(err, repository.ErrDuplicateGoogleID):
		return apperr.Conflict("google account already linked")
	}
	return fmt.Errorf("failed to save user: %w", err)
}
