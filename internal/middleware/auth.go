package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/resto-rate/api/internal/ctxkeys"
	"github.com/resto-rate/api/internal/model"
	"github.com/resto-rate/api/internal/wire"
)

// SessionHeader carries the session token for clients that cannot set Authorization.
const SessionHeader = "X-Session-Id"

// SessionVerifier resolves a client session token to the caller.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*model.Principal, error)
}

// Auth resolves session tokens into a principal on the request context.
type Auth struct {
	sessions SessionVerifier
}

func NewAuth(sessions SessionVerifier) *Auth {
	return &Auth{sessions: sessions}
}

// RequireAuth rejects requests without a valid session. The handler is not invoked on failure.
func (a *Auth) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := SessionToken(r)
		if token == "" {
			wire.WriteError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		principal, err := a.sessions.Verify(r.Context(), token)
		if err != nil {
			// Unknown and expired sessions get the same answer
			slog.Debug("session verification failed", "error", err, "path", r.URL.Path)
			wire.WriteError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		next(w, r.WithContext(withPrincipal(r.Context(), principal, token)))
	}
}

// OptionalAuth attaches the caller when a valid session is presented and
// otherwise lets the request through anonymously.
func (a *Auth) OptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := SessionToken(r)
		if token == "" {
			next(w, r)
			return
		}

		principal, err := a.sessions.Verify(r.Context(), token)
		if err != nil {
			slog.Debug("optional session ignored", "error", err, "path", r.URL.Path)
			next(w, r)
			return
		}

		next(w, r.WithContext(withPrincipal(r.Context(), principal, token)))
	}
}

// SessionToken extracts the token from "Authorization: Bearer <t>", then X-Session-Id.
func SessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, token, ok := strings.Cut(auth, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			if token = strings.TrimSpace(token); token != "" {
				return token
			}
		}
	}
	return strings.TrimSpace(r.Header.Get(SessionHeader))
}

func withPrincipal(ctx context.Context, principal *model.Principal, token string) context.Context {
	ctx = ctxkeys.WithPrincipal(ctx, principal)
	return ctxkeys.WithSessionToken(ctx, token)
}
