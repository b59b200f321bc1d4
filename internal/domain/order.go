package domain

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// ORDER DOMAIN ERRORS
// =============================================================================

var (
	ErrPurchasesNotRegistered = &Error{Code: EINTERNAL, Message: "Failed to register purchases"}
	ErrIdempotencyKeyRequired = &Error{Code: EINVALID, Message: "Idempotency key is required"}
	ErrOrderNotRecorded       = &Error{Code: ENOTFOUND, Message: "Order not found"}
)

// Item types stored on user purchase history rows.
const (
	ItemTypeShopItem    = "shop_item"
	ItemTypeEventReward = "event_reward"
)

// PaymentTebexPending marks purchase rows waiting for a Tebex payment.
const PaymentTebexPending = "tebex_pending"

// PaymentCompleted marks purchase rows paid through Tebex.
const PaymentCompleted = "completed"

// PlaceOrderRequest is what a customer submits at checkout.
type PlaceOrderRequest struct {
	SessionID      string
	IdempotencyKey uuid.UUID
	Email          string
	Username       string
	PaymentMethod  string
}

// OrderLine is one cart line as recorded in an order.
type OrderLine struct {
	ItemID    string
	ItemName  string
	UnitPrice decimal.Decimal
	Quantity  int
}

// GiftcardCharge describes the giftcard that was applied to an order.
type GiftcardCharge struct {
	Code             string
	RemainingBalance decimal.Decimal
}

// RecordOrderParams is the unit of work written by the order store in one transaction.
type RecordOrderParams struct {
	IdempotencyKey uuid.UUID
	OrderNumber    string
	ServerID       string
	Username       string
	Payment        string
	ItemType       string
	Lines          []OrderLine
	Subtotal       decimal.Decimal
	FinalTotal     decimal.Decimal
	Giftcard       *GiftcardCharge

	// RedeemGiftcard marks the giftcard used with remaining 0 instead of
	// settling it against the subtotal. Set by event reward redemption.
	RedeemGiftcard bool
}

// RecordedOrder is the idempotency ledger entry of a recorded order.
type RecordedOrder struct {
	OrderNumber string
	FinalTotal  decimal.Decimal
}

// RecordOrderResult is returned by the order store.
type RecordOrderResult struct {
	OrderNumber string
	UserID      int64
	Settlement  GiftcardSettlement

	// Duplicate is true when the idempotency key had already been recorded.
	// Nothing was written and OrderNumber is the original one.
	Duplicate bool
}

// OrderConfirmation is returned to the customer after checkout.
type OrderConfirmation struct {
	OrderNumber string          `json:"order_number"`
	Total       decimal.Decimal `json:"total"`
	Duplicate   bool            `json:"duplicate"`
	EmailSent   bool            `json:"email_sent"`
}

// Order event kinds.
const (
	OrderKindShop   = "shop"
	OrderKindReward = "reward"
)

// OrderEvent is published after an order or reward was recorded.
type OrderEvent struct {
	OrderNumber string    `json:"order_number"`
	Username    string    `json:"username"`
	Items       []string  `json:"items"`
	Payment     string    `json:"payment"`
	Total       string    `json:"total"`
	Kind        string    `json:"kind"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// Units expands lines into one entry per purchased unit.
func Units(lines []OrderLine) []OrderLine {
	var units []OrderLine
	for _, line := range lines {
		for i := 0; i < line.Quantity; i++ {
			unit := line
			unit.Quantity = 1
			units = append(units, unit)
		}
	}
	return units
}

// LinesFromCart converts cart items into order lines.
func LinesFromCart(c *Cart) []OrderLine {
	lines := make([]OrderLine, 0, len(c.Items))
	for _, item := range c.Items {
		lines = append(lines, OrderLine{
			ItemID:    item.ID,
			ItemName:  item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	return lines
}

// PaymentDescriptor is the text stored on purchase rows. With a giftcard it
// embeds the code and the balance the card had before the order.
func PaymentDescriptor(method string, g *AppliedGiftcard) string {
	if g == nil {
		return method
	}
	return fmt.Sprintf("giftcard id:%s Remaining:%s", g.Code, g.RemainingBalance.String())
}

// EmailPaymentLabel is the payment method shown in the confirmation email.
func EmailPaymentLabel(method string, g *AppliedGiftcard) string {
	if g == nil {
		return method
	}
	return fmt.Sprintf("Giftcard (%s)", g.Code)
}

// ProductsText renders lines as "Name (xQ) - €T.TT", one per line.
func ProductsText(lines []OrderLine) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		total := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		parts = append(parts, fmt.Sprintf("%s (x%d) - €%s", line.ItemName, line.Quantity, total.StringFixed(2)))
	}
	return strings.Join(parts, "\n")
}

const orderSuffixAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewOrderNumber returns "ORD-<unix millis>-<9 random base36 characters>".
func NewOrderNumber(now time.Time) string {
	suffix := make([]byte, 9)
	_, _ = rand.Read(suffix)
	for i, b := range suffix {
		suffix[i] = orderSuffixAlphabet[int(b)%len(orderSuffixAlphabet)]
	}
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix)
}

// EventOrderNumber is the order number used for event reward redemptions.
func EventOrderNumber(code string) string {
	return "EVENT-" + code
}

// CheckoutService turns a session cart into a recorded order.
type CheckoutService interface {
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*OrderConfirmation, error)
}
