package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/deltamc/internal/domain"
	"github.com/dukerupert/deltamc/internal/email"
	"github.com/dukerupert/deltamc/internal/telemetry"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// PaymentMethodTebex is the checkout label for orders paid through Tebex.
// Their purchase rows wait as tebex_pending until the payment webhook arrives.
const PaymentMethodTebex = "tebex"

// CheckoutService implements domain.CheckoutService.
type CheckoutService struct {
	carts     CartStore
	cleaner   CartCleaner
	orders    OrderStore
	notifier  Notifier
	ownership domain.OwnershipService
	publisher EventPublisher
	serverID  string
	validate  *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

var _ domain.CheckoutService = (*CheckoutService)(nil)

// CheckoutConfig groups the collaborators of a CheckoutService.
type CheckoutConfig struct {
	Carts     CartStore
	Orders    OrderStore
	Notifier  Notifier
	Ownership domain.OwnershipService
	Publisher EventPublisher
	ServerID  string
	Logger    *slog.Logger

	// Cart removes ordered carts under the CartService session locks.
	// Nil falls back to locks private to checkout.
	Cart CartCleaner
}

func NewCheckoutService(cfg CheckoutConfig) *CheckoutService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cleaner := cfg.Cart
	if cleaner == nil {
		cleaner = &storeCleaner{carts: cfg.Carts}
	}
	return &CheckoutService{
		carts:     cfg.Carts,
		cleaner:   cleaner,
		orders:    cfg.Orders,
		notifier:  cfg.Notifier,
		ownership: cfg.Ownership,
		publisher: cfg.Publisher,
		serverID:  cfg.ServerID,
		validate:  validator.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// PlaceOrder records the session cart as an order.
//
// The order rows, the giftcard settlement and the purchase history are
// written in one transaction by the order store. Email, cache invalidation,
// clearing the cart and publishing the order event happen afterwards and only
// log on failure: once the order is recorded the customer gets a confirmation.
// They run on a context detached from the request's cancellation.
//
// A replayed key whose cart was already cleared returns the recorded order.
func (s *CheckoutService) PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (*domain.OrderConfirmation, error) {
	const op = "checkout.place_order"

	method := strings.TrimSpace(req.PaymentMethod)
	username := strings.TrimSpace(req.Username)
	emailAddr := strings.TrimSpace(req.Email)

	switch {
	case req.SessionID == "":
		return nil, s.fail("invalid", ErrSessionRequired)
	case req.IdempotencyKey == uuid.Nil:
		return nil, s.fail("invalid", domain.ErrIdempotencyKeyRequired)
	case s.validate.Var(emailAddr, "required,email") != nil:
		return nil, s.fail("invalid", ErrInvalidEmail)
	case username == "":
		return nil, s.fail("invalid", domain.ErrUsernameRequired)
	case method == "":
		return nil, s.fail("invalid", ErrPaymentMethod)
	}

	cart, err := s.carts.Load(ctx, req.SessionID)
	if err != nil {
		return nil, s.fail("store", domain.Internal(err, op, "failed to load cart"))
	}
	if cart.IsEmpty() {
		return s.replayed(ctx, op, req.IdempotencyKey)
	}

	if telemetry.Business != nil {
		telemetry.Business.CheckoutStarted.WithLabelValues(method).Inc()
		telemetry.Business.CartValue.WithLabelValues().Observe(cart.Subtotal.InexactFloat64())
	}

	lines := domain.LinesFromCart(cart)
	params := domain.RecordOrderParams{
		IdempotencyKey: req.IdempotencyKey,
		OrderNumber:    domain.NewOrderNumber(s.now()),
		ServerID:       s.serverID,
		Username:       username,
		Payment:        s.paymentDescriptor(method, cart.Giftcard),
		ItemType:       domain.ItemTypeShopItem,
		Lines:          lines,
		Subtotal:       cart.Subtotal,
		FinalTotal:     cart.FinalTotal,
	}
	if cart.Giftcard != nil {
		params.Giftcard = &domain.GiftcardCharge{
			Code:             cart.Giftcard.Code,
			RemainingBalance: cart.Giftcard.RemainingBalance,
		}
	}

	result, err := s.orders.RecordOrder(ctx, params)
	if err != nil {
		return nil, s.recordFailed(ctx, op, err)
	}

	confirmation := &domain.OrderConfirmation{
		OrderNumber: result.OrderNumber,
		Total:       cart.FinalTotal,
		Duplicate:   result.Duplicate,
	}

	if result.Duplicate {
		s.logger.Info("duplicate order submission",
			"order_number", result.OrderNumber,
			"idempotency_key", req.IdempotencyKey,
		)
		if telemetry.Business != nil {
			telemetry.Business.DuplicateOrders.WithLabelValues().Inc()
		}
		return confirmation, nil
	}

	ctx = context.WithoutCancel(ctx)

	s.logger.Info("order recorded",
		"order_number", result.OrderNumber,
		"username", username,
		"units", cart.UnitCount(),
		"total", cart.FinalTotal.StringFixed(2),
		"settlement", result.Settlement,
	)

	confirmation.EmailSent = s.sendConfirmation(ctx, email.OrderConfirmation{
		ToEmail:       emailAddr,
		ToName:        username,
		CustomerName:  username,
		OrderNumber:   result.OrderNumber,
		Products:      domain.ProductsText(lines),
		TotalPrice:    cart.FinalTotal.StringFixed(2),
		PaymentMethod: domain.EmailPaymentLabel(method, cart.Giftcard),
	})

	s.ownership.Invalidate(ctx, username)

	if err := s.cleaner.RemoveOrdered(ctx, req.SessionID, cart); err != nil {
		s.logger.Warn("failed to clear cart after order", "order_number", result.OrderNumber, "error", err)
	} else if telemetry.Business != nil {
		telemetry.Business.CartCleared.WithLabelValues("order").Inc()
	}

	s.publish(ctx, domain.OrderEvent{
		OrderNumber: result.OrderNumber,
		Username:    username,
		Items:       itemIDs(lines),
		Payment:     params.Payment,
		Total:       cart.FinalTotal.StringFixed(2),
		Kind:        domain.OrderKindShop,
		RecordedAt:  s.now(),
	})

	if telemetry.Business != nil {
		telemetry.Business.CheckoutCompleted.WithLabelValues(method).Inc()
		telemetry.Business.OrdersCreated.WithLabelValues(domain.OrderKindShop).Inc()
		telemetry.Business.OrderValue.WithLabelValues(domain.OrderKindShop).Observe(cart.FinalTotal.InexactFloat64())
		telemetry.Business.OrderItemCount.WithLabelValues().Observe(float64(cart.UnitCount()))
	}

	return confirmation, nil
}

// replayed answers an empty cart. A key that is already in the ledger was
// ordered before and its cart cleared, so the original order is returned.
func (s *CheckoutService) replayed(ctx context.Context, op string, key uuid.UUID) (*domain.OrderConfirmation, error) {
	recorded, err := s.orders.LookupOrder(ctx, key)
	switch {
	case errors.Is(err, domain.ErrOrderNotRecorded):
		return nil, s.fail("empty_cart", domain.ErrEmptyCart)
	case err != nil:
		return nil, s.fail("store", domain.Internal(err, op, "failed to look up order"))
	}

	s.logger.Info("duplicate order submission",
		"order_number", recorded.OrderNumber,
		"idempotency_key", key,
	)
	if telemetry.Business != nil {
		telemetry.Business.DuplicateOrders.WithLabelValues().Inc()
	}
	return &domain.OrderConfirmation{
		OrderNumber: recorded.OrderNumber,
		Total:       recorded.FinalTotal,
		Duplicate:   true,
	}, nil
}

// paymentDescriptor is the payment text stored on the purchase rows.
func (s *CheckoutService) paymentDescriptor(method string, g *domain.AppliedGiftcard) string {
	if g == nil && strings.EqualFold(method, PaymentMethodTebex) {
		return domain.PaymentTebexPending
	}
	return domain.PaymentDescriptor(method, g)
}

// recordFailed keeps giftcard and cart errors that the customer can act on and
// reports everything else as a failed registration.
func (s *CheckoutService) recordFailed(ctx context.Context, op string, err error) error {
	switch domain.ErrorCode(err) {
	case domain.EINVALID, domain.ENOTFOUND, domain.ECONFLICT:
		return s.fail("giftcard", err)
	}

	s.logger.Error("failed to record order", "error", err)
	telemetry.CaptureErrorFromContext(ctx, err, map[string]interface{}{"op": op})
	return s.fail("store", domain.WrapError(err, domain.EINTERNAL, op, domain.ErrPurchasesNotRegistered.Message))
}

func (s *CheckoutService) sendConfirmation(ctx context.Context, data email.OrderConfirmation) bool {
	if s.notifier == nil {
		return false
	}
	if err := s.notifier.SendOrderConfirmation(ctx, data); err != nil {
		s.logger.Warn("failed to send order confirmation",
			"order_number", data.OrderNumber,
			"error", err,
		)
		return false
	}
	return true
}

func (s *CheckoutService) publish(ctx context.Context, event domain.OrderEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrder(ctx, event); err != nil {
		s.logger.Warn("failed to publish order event", "order_number", event.OrderNumber, "error", err)
	}
}

func (s *CheckoutService) fail(reason string, err error) error {
	if telemetry.Business != nil {
		telemetry.Business.CheckoutFailed.WithLabelValues(reason).Inc()
	}
	return err
}

func itemIDs(lines []domain.OrderLine) []string {
	ids := make([]string, 0, len(lines))
	for _, unit := range domain.Units(lines) {
		ids = append(ids, unit.ItemID)
	}
	return ids
}
