package api

import (
	"net/http"

	"github.com/dukerupert/deltamc/internal/domain"
	"github.com/dukerupert/deltamc/internal/handler"
)

// UserHandler serves player accounts, purchase history and ownership.
type UserHandler struct {
	users     domain.UserService
	ownership domain.OwnershipService
}

func NewUserHandler(users domain.UserService, ownership domain.OwnershipService) *UserHandler {
	return &UserHandler{users: users, ownership: ownership}
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=32"`
}

// Login handles POST /api/users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := handler.DecodeJSON(w, r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	user, err := h.users.Login(r.Context(), req.Username)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, user)
}

// Purchases handles GET /api/users/{username}/purchases
func (h *UserHandler) Purchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.users.Purchases(r.Context(), r.PathValue("username"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, purchases)
}

// Owned handles GET /api/users/{username}/owned
func (h *UserHandler) Owned(w http.ResponseWriter, r *http.Request) {
	items, err := h.ownership.OwnedItems(r.Context(), r.PathValue("username"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string][]string{"owned": items})
}
