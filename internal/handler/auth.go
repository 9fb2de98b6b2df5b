package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/resto-rate/api/internal/apperr"
	"github.com/resto-rate/api/internal/ctxkeys"
	"github.com/resto-rate/api/internal/model"
	"github.com/resto-rate/api/internal/service"
	"github.com/resto-rate/api/internal/wire"
)

type authHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *authHandler {
	return &authHandler{authService: authService}
}

// sessionResponse is what every successful sign-in returns. SessionID is the
// client token, sent back as "Authorization: Bearer" or X-Session-Id.
type sessionResponse struct {
	User      *model.User `json:"user"`
	SessionID string      `json:"sessionId"`
	ExpiresAt *time.Time  `json:"expiresAt,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func signedIn(result *service.AuthResult) sessionResponse {
	return sessionResponse{User: result.User, SessionID: result.Token, ExpiresAt: &result.ExpiresAt}
}

func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user logged in", "user_id", result.User.ID)
	wire.Write(w, r, http.StatusOK, signedIn(result))
}

func (h *authHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := decode(r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.authService.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	wire.Write(w, r, http.StatusOK, signedIn(result))
}

func (h *authHandler) GoogleURL(w http.ResponseWriter, r *http.Request) {
	wire.Write(w, r, http.StatusOK, map[string]string{"url": h.authService.GoogleAuthURL()})
}

func (h *authHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		// The user declined consent or Google rejected the request
		slog.Warn("google oauth returned error", "error", errMsg)
		writeError(w, r, apperr.Validation("google authorization was not granted"))
		return
	}

	result, err := h.authService.GoogleCallback(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user logged in via google", "user_id", result.User.ID)
	wire.Write(w, r, http.StatusOK, signedIn(result))
}

// Verify echoes the caller and the token they authenticated with.
func (h *authHandler) Verify(w http.ResponseWriter, r *http.Request) {
	wire.Write(w, r, http.StatusOK, sessionResponse{
		User:      ctxkeys.User(r.Context()),
		SessionID: ctxkeys.SessionToken(r.Context()),
	})
}

// Session looks up the user behind a token given in the path.
func (h *authHandler) Session(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("id")

	principal, err := h.authService.SessionUser(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}

	wire.Write(w, r, http.StatusOK, sessionResponse{User: principal.User, SessionID: token})
}

func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	if err := h.authService.Logout(r.Context(), principal.SessionID); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user logged out", "user_id", principal.User.ID)
	wire.Write(w, r, http.StatusOK, message{Message: "Logged out successfully"})
}
