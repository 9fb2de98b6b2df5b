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
	ErrInvalidCredentials = apperr.Unauthenticated("invalid username or password")
	ErrUsernameTaken      = apperr.Conflict("username already exists")
	ErrEmailTaken         = apperr.Conflict("email already exists")
)

const googleAuthFailed = "google authentication failed"

// dummyHash is checked when the username is unknown so that
// unknown users take as long as wrong passwords.
var dummyHash, _ = NewPasswordHasher().Hash("not-a-real-password")

// AuthResult is a signed-in user and the session token handed to the client.
type AuthResult struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Age      *int   `json:"age"`
}

type AuthService struct {
	db       *sqlx.DB
	users    repository.UserRepository
	hasher   *PasswordHasher
	sessions *SessionService
	google   *GoogleClient
	email    *EmailService
	now      func() time.Time
}

func NewAuthService(
	database *sqlx.DB,
	hasher *PasswordHasher,
	sessions *SessionService,
	google *GoogleClient,
	email *EmailService,
) *AuthService {
	return &AuthService{
		db:       database,
		users:    repository.NewUserRepository(database),
		hasher:   hasher,
		sessions: sessions,
		google:   google,
		email:    email,
		now:      time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(in.Username)

	if err := validation.ValidateUsername(username); err != nil {
		return nil, invalid(err)
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, invalid(err)
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
		Age:          in.Age,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.users.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicateUsername) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID)
	return s.startSession(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperr.Validation("username and password are required")
	}

	user, err := s.users.ByUsername(ctx, username)
	if errors.Is(err, repository.ErrUserNotFound) {
		s.hasher.Verify(dummyHash, password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// Google-only accounts have no password to check.
	if !user.HasPassword() || !s.hasher.Verify(*user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return s.startSession(ctx, user)
}

func (s *AuthService) GoogleAuthURL() string {
	return s.google.AuthorizationURL()
}

// GoogleCallback completes the OAuth flow: the code is exchanged, the profile fetched
// and the matching user updated, linked by e-mail or created.
func (s *AuthService) GoogleCallback(ctx context.Context, code string) (*AuthResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, apperr.Validation("authorization code is required")
	}

	tokens, err := s.google.ExchangeCode(ctx, code)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, googleAuthFailed, err)
	}

	info, err := s.google.UserInfo(ctx, tokens.AccessToken)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, googleAuthFailed, err)
	}

	err = s.google.CheckIDToken(tokens.IDToken, info.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, googleAuthFailed, err)
	}

	var (
		user    *model.User
		created bool
	)
	err = db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		user, created, err = upsertGoogleUser(ctx, repository.NewUserRepository(tx), info, s.now().UTC())
		return err
	})
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to upsert google user: %w", err)
	}

	if created {
		slog.Info("user created from google", "user_id", user.ID)
		if info.Email != "" {
			if err := s.email.SendWelcomeEmail(ctx, info.Email, info.Name); err != nil {
				slog.Warn("welcome email failed", "error", err, "user_id", user.ID)
			}
		}
	}

	return s.startSession(ctx, user)
}

// upsertGoogleUser finds or creates the account for a Google identity. An existing
// account is linked by e-mail only when Google reports the address as verified;
// unverified addresses are never stored.
func upsertGoogleUser(ctx context.Context, users repository.UserRepository, info *GoogleUserInfo, now time.Time) (*model.User, bool, error) {
	var email *string
	if info.VerifiedEmail {
		email = trimmed(&info.Email)
	}
	name := trimmed(&info.Name)

	user, err := users.ByGoogleID(ctx, info.ID)
	if err == nil {
		if email != nil {
			user.Email = email
		}
		user.Name = name
		user.UpdatedAt = now
		return user, false, users.Update(ctx, user)
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, false, err
	}

	if email != nil {
		user, err = users.ByEmail(ctx, *email)
		if err == nil {
			user.GoogleID = &info.ID
			user.Name = name
			user.UpdatedAt = now
			return user, false, users.Update(ctx, user)
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, false, err
		}
	}

	id, err := newID()
	if err != nil {
		return nil, false, err
	}
	user = &model.User{
		ID:        id,
		GoogleID:  &info.ID,
		Email:     email,
		Name:      name,
		IsAdmin:   false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return user, true, users.Create(ctx, user)
}

// Logout ends the session. Ending an already ended session succeeds.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Invalidate(ctx, sessionID)
}

// SessionUser looks up the user behind a client token.
func (s *AuthService) SessionUser(ctx context.Context, token string) (*model.Principal, error) {
	principal, err := s.sessions.Verify(ctx, token)
	if errors.Is(err, ErrSessionNotFoundOrExpired) {
		return nil, apperr.NotFound("session not found or expired")
	}
	return principal, err
}

func (s *AuthService) startSession(ctx context.Context, user *model.User) (*AuthResult, error) {
	token, expiresAt, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user.Public(), Token: token, ExpiresAt: expiresAt}, nil
}
