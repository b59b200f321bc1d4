package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// GIFTCARD DOMAIN ERRORS
// =============================================================================

var (
	ErrGiftcardCodeRequired = &Error{Code: EINVALID, Message: "Voer een giftcard code in"}
	ErrGiftcardNotFound     = &Error{Code: ENOTFOUND, Message: "Giftcard niet gevonden of ongeldig"}
	ErrGiftcardUsed         = &Error{Code: ECONFLICT, Message: "Deze giftcard heeft geen tegoed meer of is al gebruikt"}
	ErrGiftcardEventOnly    = &Error{Code: ECONFLICT, Message: "Deze giftcard kan alleen worden gebruikt voor event beloningen"}
	ErrGiftcardNoBalance    = &Error{Code: ECONFLICT, Message: "Deze giftcard heeft geen tegoed meer"}
	ErrGiftcardAlreadyUsed  = &Error{Code: ECONFLICT, Message: "Giftcard niet geldig of al gebruikt"}
	ErrNotAnEventGiftcard   = &Error{Code: EINVALID, Message: "Deze giftcard is geen event giftcard"}
)

// Giftcard is the stored giftcard record.
type Giftcard struct {
	Code               string
	Remaining          decimal.Decimal
	Used               bool
	PercentageDiscount int
	UnlimitedUse       bool
	Event              bool
	UsedAt             *time.Time
	CreatedAt          time.Time
}

// NormalizeGiftcardCode trims and uppercases a code as entered by a customer.
func NormalizeGiftcardCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// hasBalance reports whether the card can still be spent.
func (g *Giftcard) hasBalance() bool {
	return g.UnlimitedUse || g.Remaining.IsPositive()
}

// GiftcardUse says where a validated code should go next.
type GiftcardUse string

const (
	// GiftcardUseCart means the code discounts the cart.
	GiftcardUseCart GiftcardUse = "cart"
	// GiftcardUseReward means the code is exchanged for an event reward.
	GiftcardUseReward GiftcardUse = "reward"
)

// ValidateForCart applies the rules of the ordinary redeem box.
// Event cards with a percentage are rejected; event cards without one are
// routed to reward selection instead of discounting the cart.
func (g *Giftcard) ValidateForCart() (GiftcardUse, error) {
	if g.Used {
		return "", ErrGiftcardUsed
	}
	if g.Event && g.PercentageDiscount > 0 {
		return "", ErrGiftcardEventOnly
	}
	if !g.hasBalance() {
		return "", ErrGiftcardNoBalance
	}
	if g.Event {
		return GiftcardUseReward, nil
	}
	return GiftcardUseCart, nil
}

// ValidateForReward applies the rules of the event reward flow.
func (g *Giftcard) ValidateForReward() error {
	if g.Used || !g.hasBalance() {
		return ErrGiftcardAlreadyUsed
	}
	if !g.Event {
		return ErrNotAnEventGiftcard
	}
	return nil
}

// GiftcardSettlement is the change applied to a giftcard after an order.
type GiftcardSettlement string

const (
	SettlementNone      GiftcardSettlement = "none"
	SettlementDecrement GiftcardSettlement = "decrement"
	SettlementMarkUsed  GiftcardSettlement = "mark_used"
	SettlementDelete    GiftcardSettlement = "delete"
)

// Settle decides what happens to a giftcard once an order with the given
// subtotal was recorded against it. All inputs must come from the stored
// record, read under the same lock that applies the result.
func Settle(remaining, subtotal decimal.Decimal, unlimitedUse, event bool) (GiftcardSettlement, decimal.Decimal) {
	if unlimitedUse {
		return SettlementNone, remaining
	}
	newRemaining := decimal.Max(decimal.Zero, remaining.Sub(subtotal))
	if newRemaining.IsZero() {
		if event {
			return SettlementMarkUsed, decimal.Zero
		}
		return SettlementDelete, decimal.Zero
	}
	return SettlementDecrement, newRemaining
}

// GiftcardApplyResult is returned when a customer enters a code.
type GiftcardApplyResult struct {
	Use     GiftcardUse `json:"use"`
	Code    string      `json:"code"`
	Cart    *Cart       `json:"cart,omitempty"`
	Message string      `json:"message"`
}

// GiftcardReader loads giftcards by code.
type GiftcardReader interface {
	GetGiftcard(ctx context.Context, code string) (*Giftcard, error)
}
