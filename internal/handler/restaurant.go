package handler

import (
	"net/http"
	"strings"

	"github.com/resto-rate/api/internal/apperr"
	"github.com/resto-rate/api/internal/ctxkeys"
	"github.com/resto-rate/api/internal/model"
	"github.com/resto-rate/api/internal/service"
	"github.com/resto-rate/api/internal/wire"
)

type restaurantHandler struct {
	restaurantService *service.RestaurantService
	reviewService     *service.ReviewService
}

func NewRestaurantHandler(restaurantService *service.RestaurantService, reviewService *service.ReviewService) *restaurantHandler {
	return &restaurantHandler{
		restaurantService: restaurantService,
		reviewService:     reviewService,
	}
}

type restaurantResponse struct {
	Restaurant *model.RestaurantDetail `json:"restaurant"`
}

type categoriesRequest struct {
	CategoryIDs *[]string `json:"categoryIds"`
}

// List supports ?category=<slug> and ?createdBy=<user id> filters.
func (h *restaurantHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := parsePagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	restaurants, err := h.restaurantService.List(r.Context(), model.RestaurantFilter{
		CategorySlug: strings.ToLower(strings.TrimSpace(q.Get("category"))),
		CreatedBy:    strings.TrimSpace(q.Get("createdBy")),
		Limit:        page.Limit,
		Offset:       page.Offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	wire.Write(w, r, http.StatusOK, map[string]any{
		"restaurants":   restaurants,
		"pagination":    page,
		"authenticated": ctxkeys.User(r.Context()) != nil,
	})
}

func (h *restaurantHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.restaurantService.Detail(r.Context(), r.PathValue("id"), ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	wire.Write(w, r, http.StatusOK, map[string]any{
		"restaurant":    detail,
		"reviews":       detail.RecentReviews,
		"authenticated": ctxkeys.User(r.Context()) != nil,
	})
}

func (h *restaurantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.RestaurantInput
	if err := decode(r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}

	detail, err := h.restaurantService.Create(r.Context(), ctxkeys.User(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	wire.Write(w, r, http.StatusCreated, restaurantResponse{Restaurant: detail})
}

func (h *restaurantHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.RestaurantInput
	if err := decode(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}

	detail, err := h.restaurantService.Update(r.Context(), ctxkeys.User(r.Context()), r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	wire.Write(w, r, http.StatusOK, restaurantResponse{Restaurant: detail})
}

func (h *restaurantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.restaurantService.Delete(r.Context(), ctxkeys.User(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	wire.Write(w, r, http.StatusOK, message{Message: "Restaurant deleted successfully"})
}

func (h *restaurantHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.restaurantService.Categories(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	wire.Write(w, r, http.StatusOK, map[string]any{"categories": categories})
}

func (h *restaurantHandler) SetCategories(w http.ResponseWriter, r *http.Request) {
	var req categoriesRequest
	if err := decode(r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}
	if req.CategoryIDs == nil {
		writeError(w, r, apperr.Validation("categoryIds is required"))
		return
	}

	categories, err := h.restaurantService.SetCategories(r.Context(), ctxkeys.User(r.Context()), r.PathValue("id"), *req.CategoryIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}

	wire.Write(w, r, http.StatusOK, map[string]any{"categories": categories})
}

func (h *restaurantHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	page, err := parsePagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	reviews, err := h.reviewService.ListForRestaurant(r.Context(), r.PathValue("id"), ctxkeys.UserID(r.Context()), page.Limit, page.Offset)
	if err != nil {
		writeError(w, r, err)
		return
	}

	wire.Write(w, r, http.StatusOK, map[string]any{
		"reviews":       reviews,
		"pagination":    page,
		"authenticated": ctxkeys.User(r.Context()) != nil,
	})
}

func (h *restaurantHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req model.ReviewInput
	if err := decode(r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}

	review, err := h.reviewService.Create(r.Context(), ctxkeys.User(r.Context()), r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	wire.Write(w, r, http.StatusCreated, reviewResponse{Review: review})
}
