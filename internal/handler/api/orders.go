package api

import (
	"net/http"

	"github.com/dukerupert/deltamc/internal/domain"
	"github.com/dukerupert/deltamc/internal/handler"
	"github.com/dukerupert/deltamc/internal/telemetry"
	"github.com/google/uuid"
)

// OrderHandler places orders from the session cart.
type OrderHandler struct {
	checkout domain.CheckoutService
}

func NewOrderHandler(checkout domain.CheckoutService) *OrderHandler {
	return &OrderHandler{checkout: checkout}
}

type placeOrderRequest struct {
	IdempotencyKey string `json:"idempotency_key" validate:"required,uuid"`
	Email          string `json:"email" validate:"required,email"`
	Username       string `json:"username" validate:"required"`
	PaymentMethod  string `json:"payment_method" validate:"required"`
}

// Place handles POST /api/orders
//
// A replayed idempotency key answers 200 with the original order number
// instead of 201.
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	session := cartSession(w, r)

	var req placeOrderRequest
	if err := handler.DecodeJSON(w, r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	key, err := uuid.Parse(req.IdempotencyKey)
	if err != nil {
		handler.ErrorResponse(w, r, domain.NewValidationError("orders.place", "idempotency_key", "must be a valid UUID"))
		return
	}

	telemetry.SetPlayer(r.Context(), req.Username)

	conf, err := h.checkout.PlaceOrder(r.Context(), domain.PlaceOrderRequest{
		SessionID:      session,
		IdempotencyKey: key,
		Email:          req.Email,
		Username:       req.Username,
		PaymentMethod:  req.PaymentMethod,
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	status := http.StatusCreated
	if conf.Duplicate {
		status = http.StatusOK
	}
	handler.WriteJSON(w, status, conf)
}
