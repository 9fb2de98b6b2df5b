package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/resto-rate/api/internal/apperr"
	"github.com/resto-rate/api/internal/ctxkeys"
	"github.com/resto-rate/api/internal/wire"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type message struct {
	Message string `json:"message"`
}

type pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// writeError maps err to its status and writes {"error": message}.
// Internal causes are logged, never sent.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.StatusOf(err)
	attrs := []any{
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", ctxkeys.RequestID(r.Context()),
	}
	if userID := ctxkeys.UserID(r.Context()); userID != "" {
		attrs = append(attrs, "user_id", userID)
	}

	switch {
	case status >= http.StatusInternalServerError && status != http.StatusBadGateway:
		slog.Error("request failed", attrs...)
	case status == http.StatusBadGateway:
		slog.Warn("upstream request failed", attrs...)
	default:
		slog.Debug("request rejected", attrs...)
	}

	wire.WriteError(w, status, apperr.PublicMessage(err))
}

// decode reads the body into v. An empty body is rejected when required.
func decode(r *http.Request, v any, required bool) error {
	ok, err := wire.Decode(r, v)
	if err != nil {
		return err
	}
	if !ok && required {
		return apperr.Validation("request body is required")
	}
	return nil
}

// parsePagination reads limit and offset. Limits above the maximum are clamped.
func parsePagination(r *http.Request) (pagination, error) {
	p := pagination{Limit: defaultPageLimit}
	q := r.URL.Query()

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, apperr.Validation("limit must be a positive integer")
		}
		p.Limit = min(n, maxPageLimit)
	}

	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return p, apperr.Validation("offset must be a non-negative integer")
		}
		p.Offset = n
	}

	return p, nil
}

// NotFound answers paths no route matches.
func NotFound(w http.ResponseWriter, r *http.Request) {
	wire.WriteError(w, http.StatusNotFound, "not found")
}

// MethodNotAllowed answers a known path requested with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request, allowed []string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	wire.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
}
