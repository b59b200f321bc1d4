package api

import (
	"net/http"

	"github.com/dukerupert/deltamc/internal/domain"
	"github.com/dukerupert/deltamc/internal/handler"
)

// CartHandler serves the session cart.
type CartHandler struct {
	carts domain.CartService
}

func NewCartHandler(carts domain.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

type addItemRequest struct {
	ItemID string `json:"item_id" validate:"required"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type giftcardRequest struct {
	Code string `json:"code" validate:"required"`
}

// Get handles GET /api/cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.GetCart(r.Context(), cartSession(w, r))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, cart)
}

// AddItem handles POST /api/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	session := cartSession(w, r)

	var req addItemRequest
	if err := handler.DecodeJSON(w, r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	cart, err := h.carts.AddItem(r.Context(), session, req.ItemID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, cart)
}

// UpdateQuantity handles PUT /api/cart/items/{id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	session := cartSession(w, r)

	var req updateQuantityRequest
	if err := handler.DecodeJSON(w, r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	cart, err := h.carts.UpdateQuantity(r.Context(), session, r.PathValue("id"), *req.Quantity)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, cart)
}

// RemoveItem handles DELETE /api/cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.RemoveItem(r.Context(), cartSession(w, r), r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, cart)
}

// Clear handles DELETE /api/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.ClearCart(r.Context(), cartSession(w, r)); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, domain.NewCart())
}

// ApplyGiftcard handles POST /api/cart/giftcard
//
// Event codes come back with use "reward" and no cart; the client continues
// with reward selection.
func (h *CartHandler) ApplyGiftcard(w http.ResponseWriter, r *http.Request) {
	session := cartSession(w, r)

	var req giftcardRequest
	if err := handler.DecodeJSON(w, r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	result, err := h.carts.ApplyGiftcard(r.Context(), session, req.Code)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, result)
}

// RemoveGiftcard handles DELETE /api/cart/giftcard
func (h *CartHandler) RemoveGiftcard(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.RemoveGiftcard(r.Context(), cartSession(w, r))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, cart)
}
