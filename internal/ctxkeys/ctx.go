package ctxkeys

import (
	"context"

	"github.com/resto-rate/api/internal/model"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	PrincipalKey    contextKey = "principal"
	SessionTokenKey contextKey = "session_token"
	RequestIDKey    contextKey = "request_id"
)

// Principal returns the authenticated caller, or nil for anonymous requests.
func Principal(ctx context.Context) *model.Principal {
	principal, _ := ctx.Value(PrincipalKey).(*model.Principal)
	return principal
}

// User returns the authenticated user, or nil for anonymous requests.
func User(ctx context.Context) *model.User {
	if principal := Principal(ctx); principal != nil {
		return principal.User
	}
	return nil
}

// UserID returns the authenticated user's id, or "" for anonymous requests.
func UserID(ctx context.Context) string {
	if user := User(ctx); user != nil {
		return user.ID
	}
	return ""
}

func WithPrincipal(ctx context.Context, principal *model.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, principal)
}

// SessionToken is the raw token the client authenticated with.
func SessionToken(ctx context.Context) string {
	token, _ := ctx.Value(SessionTokenKey).(string)
	return token
}

func WithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, SessionTokenKey, token)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}
