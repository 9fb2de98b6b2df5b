package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/resto-rate/api/internal/apperr"
	"github.com/resto-rate/api/internal/model"
	"github.com/resto-rate/api/internal/repository"
)

const DefaultSessionLifetime = 30 * 24 * time.Hour

// ErrSessionNotFoundOrExpired is returned for unknown and expired sessions alike.
var ErrSessionNotFoundOrExpired = apperr.Unauthenticated("session not found or expired")

type SessionService struct {
	sessions repository.SessionRepository
	lifetime time.Duration
	now      func() time.Time
}

func NewSessionService(db *sqlx.DB, lifetime time.Duration) *SessionService {
	if lifetime <= 0 {
		lifetime = DefaultSessionLifetime
	}
	return &SessionService{
		sessions: repository.NewSessionRepository(db),
		lifetime: lifetime,
		now:      time.Now,
	}
}

// GenerateToken returns 32 random bytes, hex encoded.
func GenerateToken() (string, error) {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// SessionID derives the stored session id from a client token.
func SessionID(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Create starts a session for the user and returns the client token.
// Only the token's hash is persisted.
func (s *SessionService) Create(ctx context.Context, userID string) (string, time.Time, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := s.now().UTC()
	session := &model.Session{
		ID:        SessionID(token),
		UserID:    userID,
		ExpiresAt: now.Add(s.lifetime),
		CreatedAt: now,
	}

	err = s.sessions.Create(ctx, session)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to create session: %w", err)
	}

	return token, session.ExpiresAt, nil
}

// Verify resolves a client token to its principal.
func (s *SessionService) Verify(ctx context.Context, token string) (*model.Principal, error) {
	if token == "" {
		return nil, ErrSessionNotFoundOrExpired
	}

	sessionID := SessionID(token)
	user, err := s.sessions.UserBySession(ctx, sessionID, s.now().UTC())
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, ErrSessionNotFoundOrExpired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to verify session: %w", err)
	}

	return &model.Principal{User: user.Public(), SessionID: sessionID}, nil
}

// Invalidate deletes the session. Unknown ids are not an error.
func (s *SessionService) Invalidate(ctx context.Context, sessionID string) error {
	err := s.sessions.Delete(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	slog.Info("expired sessions purged", "count", n)
	return n, nil
}
