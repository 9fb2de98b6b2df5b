package handler

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/resto-rate/api/internal/apperr"
	"github.com/resto-rate/api/internal/ctxkeys"
	"github.com/resto-rate/api/internal/model"
	"github.com/resto-rate/api/internal/service"
	"github.com/resto-rate/api/internal/wire"
)

// multipartOverhead leaves room for the form fields around the file part.
const multipartOverhead = 64 << 10

type reviewHandler struct {
	reviewService  *service.ReviewService
	maxUploadBytes int64
}

func NewReviewHandler(reviewService *service.ReviewService, maxUploadBytes int64) *reviewHandler {
	return &reviewHandler{
		reviewService:  reviewService,
		maxUploadBytes: maxUploadBytes,
	}
}

type reviewResponse struct {
	Review *model.Review `json:"review"`
}

type helpfulRequest struct {
	IsHelpful *bool `json:"isHelpful"`
}

func (h *reviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	review, err := h.reviewService.ByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	wire.Write(w, r, http.StatusOK, reviewResponse{Review: review})
}

func (h *reviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.ReviewInput
	if err := decode(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}

	review, err := h.reviewService.Update(r.Context(), ctxkeys.User(r.Context()), r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	wire.Write(w, r, http.StatusOK, reviewResponse{Review: review})
}

func (h *reviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.reviewService.Delete(r.Context(), ctxkeys.User(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	wire.Write(w, r, http.StatusOK, message{Message: "Review deleted successfully"})
}

func (h *reviewHandler) Helpful(w http.ResponseWriter, r *http.Request) {
	var req helpfulRequest
	if err := decode(r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}
	if req.IsHelpful == nil {
		writeError(w, r, apperr.Validation("isHelpful is required"))
		return
	}

	review, err := h.reviewService.Vote(r.Context(), ctxkeys.User(r.Context()), r.PathValue("id"), *req.IsHelpful)
	if err != nil {
		writeError(w, r, err)
		return
	}

	wire.Write(w, r, http.StatusOK, reviewResponse{Review: review})
}

// UploadPhoto takes a multipart form with a "photo" file and an optional "caption".
func (h *reviewHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, apperr.Validation("photo is too large"))
			return
		}
		writeError(w, r, apperr.Wrap(apperr.KindValidation, "invalid multipart form", err))
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.Warn("failed to remove multipart temp files", "error", err)
		}
	}()

	header := formFile(r.MultipartForm, "photo")
	if header == nil {
		writeError(w, r, apperr.Validation("photo file is required"))
		return
	}

	var caption *string
	if c := strings.TrimSpace(r.FormValue("caption")); c != "" {
		caption = &c
	}

	photo, err := h.reviewService.UploadPhoto(r.Context(), ctxkeys.User(r.Context()), r.PathValue("id"), header, caption, h.maxUploadBytes)
	if err != nil {
		writeError(w, r, err)
		return
	}

	wire.Write(w, r, http.StatusCreated, map[string]any{"photo": photo})
}

// formFile returns the first file uploaded under field without opening it.
func formFile(form *multipart.Form, field string) *multipart.FileHeader {
	if form == nil || len(form.File[field]) == 0 {
		return nil
	}
	return form.File[field][0]
}

func (h *reviewHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	err := h.reviewService.DeletePhoto(r.Context(), ctxkeys.User(r.Context()), r.PathValue("id"), r.PathValue("photoId"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	wire.Write(w, r, http.StatusOK, message{Message: "Photo deleted successfully"})
}
