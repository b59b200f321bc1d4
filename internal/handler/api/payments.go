package api

import (
	"context"
	"net/http"

	"github.com/dukerupert/deltamc/internal/handler"
	"github.com/dukerupert/deltamc/internal/service"
	"github.com/shopspring/decimal"
)

// CheckoutCreator creates hosted payment checkouts.
type CheckoutCreator interface {
	CreateCheckout(ctx context.Context, req service.CreateCheckoutRequest) (*service.CheckoutLink, error)
}

// PaymentHandler starts Tebex payments.
type PaymentHandler struct {
	payments CheckoutCreator
}

func NewPaymentHandler(payments CheckoutCreator) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type createCheckoutRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	ReturnURL string          `json:"returnUrl" validate:"omitempty,url"`
	CancelURL string          `json:"cancelUrl" validate:"omitempty,url"`
	Player    string          `json:"player" validate:"required"`
	OrderID   string          `json:"orderId"`
}

// CreateCheckout handles POST /api/create-checkout
func (h *PaymentHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req createCheckoutRequest
	if err := handler.DecodeJSON(w, r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	link, err := h.payments.CreateCheckout(r.Context(), service.CreateCheckoutRequest{
		Amount:    req.Amount,
		Currency:  req.Currency,
		ReturnURL: req.ReturnURL,
		CancelURL: req.CancelURL,
		Player:    req.Player,
		OrderID:   req.OrderID,
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, link)
}
