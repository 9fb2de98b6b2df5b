package handler

import (
	"net/http"

	"github.com/resto-rate/api/internal/ctxkeys"
	"github.com/resto-rate/api/internal/model"
	"github.com/resto-rate/api/internal/service"
	"github.com/resto-rate/api/internal/wire"
)

type userHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *userHandler {
	return &userHandler{userService: userService}
}

type userResponse struct {
	User any `json:"user"`
}

func (h *userHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := parsePagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	users, err := h.userService.List(r.Context(), page.Limit, page.Offset)
	if err != nil {
		writeError(w, r, err)
		return
	}

	profiles := make([]*model.UserProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}

	wire.Write(w, r, http.StatusOK, map[string]any{
		"users":      profiles,
		"pagination": page,
	})
}

func (h *userHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.ByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Contact details are only shown to the account owner
	if ctxkeys.UserID(r.Context()) == user.ID {
		wire.Write(w, r, http.StatusOK, userResponse{User: user.Public()})
		return
	}
	wire.Write(w, r, http.StatusOK, userResponse{User: user.Profile()})
}

func (h *userHandler) Me(w http.ResponseWriter, r *http.Request) {
	wire.Write(w, r, http.StatusOK, userResponse{User: ctxkeys.User(r.Context())})
}

func (h *userHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateUserInput
	if err := decode(r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.userService.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	wire.Write(w, r, http.StatusCreated, userResponse{User: user.Profile()})
}

func (h *userHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UserUpdate
	if err := decode(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.userService.Update(r.Context(), ctxkeys.User(r.Context()), r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	wire.Write(w, r, http.StatusOK, userResponse{User: user.Public()})
}

func (h *userHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.userService.Delete(r.Context(), ctxkeys.User(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	wire.Write(w, r, http.StatusOK, message{Message: "User deleted successfully"})
}
