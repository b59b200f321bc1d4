package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/deltamc/internal/domain"
	"github.com/dukerupert/deltamc/internal/tebex"
	"github.com/dukerupert/deltamc/internal/telemetry"
	"github.com/shopspring/decimal"
)

// CurrencyEUR is the only currency the webstore sells in.
const CurrencyEUR = "EUR"

// CreateCheckoutRequest asks for a Tebex checkout of a custom amount.
type CreateCheckoutRequest struct {
	Amount    decimal.Decimal
	Currency  string
	ReturnURL string
	CancelURL string
	Player    string
	OrderID   string
}

// CheckoutLink is where the customer completes a Tebex payment.
type CheckoutLink struct {
	Success     bool   `json:"success"`
	CheckoutURL string `json:"checkoutUrl"`
	BasketID    string `json:"basketId"`
}

// PaymentService creates Tebex checkouts and applies Tebex payment webhooks
// to the purchase rows.
type PaymentService struct {
	tebex    TebexClient
	payments PaymentStore
	logger   *slog.Logger
}

func NewPaymentService(client TebexClient, payments PaymentStore, logger *slog.Logger) *PaymentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentService{tebex: client, payments: payments, logger: logger}
}

func (s *PaymentService) CreateCheckout(ctx context.Context, req CreateCheckoutRequest) (*CheckoutLink, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = CurrencyEUR
	}
	if currency != CurrencyEUR {
		return nil, ErrUnsupportedCurrency
	}

	checkout, err := s.tebex.CreateCheckout(ctx, tebex.CheckoutRequest{
		Amount:    req.Amount,
		Currency:  currency,
		ReturnURL: req.ReturnURL,
		CancelURL: req.CancelURL,
		Player:    strings.TrimSpace(req.Player),
		OrderID:   req.OrderID,
	})
	if err != nil {
		s.logger.Error("failed to create tebex checkout", "player", req.Player, "error", err)
		return nil, domain.WrapError(err, domain.EINTERNAL, "payment.create_checkout", ErrCheckoutFailed.Error())
	}

	return &CheckoutLink{Success: true, CheckoutURL: checkout.URL, BasketID: checkout.BasketID}, nil
}

// HandleWebhook applies an authenticated Tebex webhook. A completed payment
// marks the player's pending purchase rows as paid and ready for execution.
func (s *PaymentService) HandleWebhook(ctx context.Context, event *tebex.WebhookEvent) error {
	start := time.Now()
	if telemetry.Business != nil {
		telemetry.Business.WebhookReceived.WithLabelValues(event.Type).Inc()
	}

	var err error
	switch event.Type {
	case tebex.EventPaymentCompleted:
		err = s.paymentCompleted(ctx, event)
	case tebex.EventPaymentDeclined:
		s.logger.Warn("tebex payment declined", "webhook_id", event.ID, "basket_id", event.Subject.ID)
		if telemetry.Business != nil {
			telemetry.Business.PaymentDeclined.WithLabelValues().Inc()
		}
	default:
		s.logger.Debug("ignoring tebex webhook", "type", event.Type, "webhook_id", event.ID)
	}

	if telemetry.Business != nil {
		telemetry.Business.WebhookLatency.WithLabelValues(event.Type).Observe(time.Since(start).Seconds())
		if err == nil {
			telemetry.Business.WebhookProcessed.WithLabelValues(event.Type).Inc()
		}
	}
	return err
}

func (s *PaymentService) paymentCompleted(ctx context.Context, event *tebex.WebhookEvent) error {
	const op = "payment.webhook_completed"

	basketID := string(event.Subject.ID)
	if basketID == "" {
		s.webhookFailed(event.Type, "missing_basket")
		return domain.Invalid(op, "webhook has no basket id")
	}

	basket, err := s.tebex.GetBasket(ctx, basketID)
	if err != nil {
		s.webhookFailed(event.Type, "tebex_api")
		return domain.Internal(err, op, "failed to fetch basket")
	}

	player := strings.TrimSpace(basket.Custom.Player)
	if player == "" {
		s.webhookFailed(event.Type, "missing_player")
		return domain.Invalid(op, "basket has no player")
	}

	purchases, backups, err := s.payments.CompleteTebexPurchases(ctx, player)
	if err != nil {
		s.webhookFailed(event.Type, "store")
		return domain.Internal(err, op, "failed to complete purchases")
	}

	s.logger.Info("tebex payment completed",
		"basket_id", basketID,
		"player", player,
		"order_id", basket.Custom.OrderID,
		"purchases", purchases,
		"backup_purchases", backups,
	)
	if telemetry.Business != nil {
		telemetry.Business.PaymentSucceeded.WithLabelValues().Inc()
	}
	return nil
}

func (s *PaymentService) webhookFailed(eventType, reason string) {
	if telemetry.Business != nil {
		telemetry.Business.WebhookFailed.WithLabelValues(eventType, reason).Inc()
	}
}
