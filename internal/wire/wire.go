// Package wire encodes API bodies. Responses default to MessagePack and fall back to JSON
// when the client asks for it; requests are decoded by their Content-Type.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/resto-rate/api/internal/apperr"
)

const (
	ContentTypeMsgpack = "application/msgpack"
	ContentTypeJSON    = "application/json"

	// MaxBodyBytes bounds non-multipart request bodies.
	MaxBodyBytes = 1 << 20
)

const encodeFailed = "internal server error during response encoding"

// Marshal encodes v as MessagePack using the json struct tags, so both encodings share one key set.
// time.Time values become MessagePack timestamps.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

// Decode reads the request body into v. MessagePack bodies are recognised by
// Content-Type; anything else is parsed as JSON. It reports false when the body is empty.
func Decode(r *http.Request, v any) (bool, error) {
	if r.Body == nil {
		return false, nil
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		return false, apperr.Wrap(apperr.KindValidation, "failed to read request body", err)
	}
	if len(data) > MaxBodyBytes {
		return false, apperr.Validation("request body too large")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}

	if isMsgpack(r.Header.Get("Content-Type")) {
		err = Unmarshal(data, v)
	} else {
		err = json.Unmarshal(data, v)
	}
	if err != nil {
		return true, apperr.Wrap(apperr.KindValidation, "invalid request body", err)
	}
	return true, nil
}

// Write encodes v in the format the client prefers and writes it with status.
func Write(w http.ResponseWriter, r *http.Request, status int, v any) {
	if WantsJSON(r) {
		WriteJSON(w, status, v)
		return
	}

	data, err := Marshal(v)
	if err != nil {
		slog.Error("failed to encode msgpack response", "error", err, "path", r.URL.Path)
		WriteError(w, http.StatusInternalServerError, encodeFailed)
		return
	}

	w.Header().Set("Content-Type", ContentTypeMsgpack)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// WriteJSON always writes JSON. Health checks and errors use it.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode json response", "error", err)
		WriteError(w, http.StatusInternalServerError, encodeFailed)
		return
	}

	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// WriteError writes {"error": message} as JSON.
func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `{"error":%s}`, quote(message))
}

// WantsJSON reports whether the Accept header names JSON and not MessagePack.
func WantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, ContentTypeJSON) && !strings.Contains(accept, ContentTypeMsgpack)
}

func isMsgpack(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == ContentTypeMsgpack || mediaType == "application/x-msgpack"
}

func quote(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}

