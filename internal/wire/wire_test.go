package wire

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/resto-rate/api/internal/apperr"
)

type sample struct {
	ID        string    `json:"id"`
	Rating    int       `json:"rating"`
	Secret    string    `json:"-"`
	MyVote    *bool     `json:"myVote,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func TestMarshalUsesJSONKeys(t *testing.T) {
	created := time.Date(2026, 5, 1, 9, 30, 0, 123000000, time.UTC)
	data, err := Marshal(sample{ID: "r1", Rating: 4, Secret: "hidden", CreatedAt: created})
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, msgpack.Unmarshal(data, &generic))
	assert.Equal(t, "r1", generic["id"])
	assert.NotContains(t, generic, "Secret")
	assert.NotContains(t, generic, "myVote")

	ts, ok := generic["createdAt"].(time.Time)
	require.True(t, ok, "times travel as msgpack timestamps")
	assert.True(t, created.Equal(ts))

	var back sample
	require.NoError(t, Unmarshal(data, &back))
	assert.Equal(t, "r1", back.ID)
	assert.Equal(t, 4, back.Rating)
	assert.Empty(t, back.Secret)
	assert.True(t, created.Equal(back.CreatedAt))
}

func TestDecode(t *testing.T) {
	body, err := Marshal(map[string]any{"id": "from-msgpack", "rating": 5})
	require.NoError(t, err)

	tests := []struct {
		name        string
		contentType string
		body        []byte
		wantOK      bool
		wantID      string
	}{
		{"msgpack", "application/msgpack", body, true, "from-msgpack"},
		{"msgpack with params", "application/msgpack; charset=binary", body, true, "from-msgpack"},
		{"json", "application/json", []byte(`{"id":"from-json","rating":3}`), true, "from-json"},
		{"no content type is json", "", []byte(`{"id":"plain"}`), true, "plain"},
		{"empty", "application/json", nil, false, ""},
		{"whitespace", "application/json", []byte("  \n"), false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(tt.body))
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}
			var got sample
			ok, err := Decode(r, &got)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"id":`))
	r.Header.Set("Content-Type", "application/json")
	_, err := Decode(r, &sample{})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	r = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(make([]byte, MaxBodyBytes+10)))
	r.Header.Set("Content-Type", "application/msgpack")
	_, err = Decode(r, &sample{})
	assert.Equal(t, "request body too large", apperr.PublicMessage(err))
}

func TestWriteNegotiates(t *testing.T) {
	v := sample{ID: "r1", Rating: 2}

	t.Run("msgpack by default", func(t *testing.T) {
		w := httptest.NewRecorder()
		Write(w, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusCreated, v)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, ContentTypeMsgpack, w.Header().Get("Content-Type"))
		var got sample
		require.NoError(t, Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "r1", got.ID)
	})

	t.Run("json when asked", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Accept", "application/json")
		w := httptest.NewRecorder()
		Write(w, r, http.StatusOK, v)

		assert.Equal(t, ContentTypeJSON, w.Header().Get("Content-Type"))
		var got map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "r1", got["id"])
	})

	t.Run("msgpack wins when both are accepted", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Accept", "application/msgpack, application/json;q=0.5")
		w := httptest.NewRecorder()
		Write(w, r, http.StatusOK, v)
		assert.Equal(t, ContentTypeMsgpack, w.Header().Get("Content-Type"))
	})
}

func TestWriteEncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()
	Write(w, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, map[string]any{"ch": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error during response encoding"}`, w.Body.String())
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, http.StatusUnauthorized, `bad "token"`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, ContentTypeJSON, w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"bad \"token\""}`, w.Body.String())
}
