package handler

import (
	"net/http"

	"github.com/resto-rate/api/internal/ctxkeys"
	"github.com/resto-rate/api/internal/model"
	"github.com/resto-rate/api/internal/service"
	"github.com/resto-rate/api/internal/wire"
)

type categoryHandler struct {
	categoryService *service.CategoryService
}

func NewCategoryHandler(categoryService *service.CategoryService) *categoryHandler {
	return &categoryHandler{categoryService: categoryService}
}

func (h *categoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryService.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	wire.Write(w, r, http.StatusOK, map[string]any{"categories": categories})
}

func (h *categoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	category, err := h.categoryService.BySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	wire.Write(w, r, http.StatusOK, map[string]any{"category": category})
}

// Create is admin only.
func (h *categoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CategoryInput
	if err := decode(r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}

	category, err := h.categoryService.Create(r.Context(), ctxkeys.User(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	wire.Write(w, r, http.StatusCreated, map[string]any{"category": category})
}
