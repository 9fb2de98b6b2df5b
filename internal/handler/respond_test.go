package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resto-rate/api/internal/apperr"
	"github.com/resto-rate/api/internal/service"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query   string
		want    pagination
		wantErr bool
	}{
		{"", pagination{Limit: 20}, false},
		{"limit=5&offset=10", pagination{Limit: 5, Offset: 10}, false},
		{"limit=1000", pagination{Limit: 100}, false},
		{"limit=0", pagination{}, true},
		{"limit=abc", pagination{}, true},
		{"offset=-3", pagination{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := parsePagination(httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil))
			if tt.wantErr {
				assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"validation", apperr.Validation("rating is required"), http.StatusBadRequest, `{"error":"rating is required"}`},
		{"forbidden", service.ErrNotOwnerUpdate, http.StatusForbidden, `{"error":"you can only update restaurants you created"}`},
		{"not found", service.ErrRestaurantNotFound, http.StatusNotFound, `{"error":"restaurant not found"}`},
		{"conflict", service.ErrUsernameTaken, http.StatusConflict, `{"error":"username already exists"}`},
		{"upstream", apperr.Wrap(apperr.KindUpstream, "google authentication failed", errors.New("status 400: invalid_grant")), http.StatusBadGateway, `{"error":"google authentication failed"}`},
		{"untagged", errors.New("pq: connection refused"), http.StatusInternalServerError, `{"error":"internal server error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeError(w, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestDecodeRequired(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	var v map[string]any
	err := decode(r, &v, true)
	assert.Equal(t, "request body is required", apperr.PublicMessage(err))

	r = httptest.NewRequest(http.MethodPost, "/", nil)
	assert.NoError(t, decode(r, &v, false))
}
