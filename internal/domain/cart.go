package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CART DOMAIN ERRORS
// =============================================================================

var (
	ErrEmptyCart        = &Error{Code: EINVALID, Message: "Cart is empty"}
	ErrCartItemNotFound = &Error{Code: ENOTFOUND, Message: "Cart item not found"}
	ErrInvalidCartItem  = &Error{Code: EINVALID, Message: "Cart item must have an id and a non-negative price"}
)

var hundred = decimal.NewFromInt(100)

// CartItem is one line of the cart. ID is the shop SKU and is unique within a cart.
type CartItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// LineTotal returns unit price times quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// AppliedGiftcard is the snapshot of a giftcard taken when it was applied to the cart.
// It is not reconciled with the stored giftcard afterwards.
type AppliedGiftcard struct {
	Code               string          `json:"code"`
	RemainingBalance   decimal.Decimal `json:"remaining_balance"`
	PercentageDiscount int             `json:"percentage_discount"`
}

// Cart holds the line items of a single session and the derived totals.
//
// Every mutating method recomputes Subtotal and FinalTotal, so callers can
// read the totals directly after any operation.
type Cart struct {
	Items      []CartItem       `json:"items"`
	Subtotal   decimal.Decimal  `json:"subtotal"`
	FinalTotal decimal.Decimal  `json:"final_total"`
	Giftcard   *AppliedGiftcard `json:"giftcard,omitempty"`
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{Items: []CartItem{}}
}

// AddItem increments the quantity of an existing line by one, or appends the
// item with quantity 1.
func (c *Cart) AddItem(item CartItem) {
	for i := range c.Items {
		if c.Items[i].ID == item.ID {
			c.Items[i].Quantity++
			c.recalculate()
			return
		}
	}
	item.Quantity = 1
	c.Items = append(c.Items, item)
	c.recalculate()
}

// RemoveItem drops the whole line. Unknown ids are ignored.
func (c *Cart) RemoveItem(id string) {
	for i := range c.Items {
		if c.Items[i].ID == id {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			break
		}
	}
	c.recalculate()
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or less removes it.
func (c *Cart) UpdateQuantity(id string, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(id)
		return
	}
	for i := range c.Items {
		if c.Items[i].ID == id {
			c.Items[i].Quantity = quantity
			break
		}
	}
	c.recalculate()
}

// Clear resets the cart to its initial empty state.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.Giftcard = nil
	c.Subtotal = decimal.Zero
	c.FinalTotal = decimal.Zero
}

// ApplyGiftcard replaces any applied giftcard with the given snapshot.
func (c *Cart) ApplyGiftcard(code string, remaining decimal.Decimal, percentage int) {
	c.Giftcard = &AppliedGiftcard{
		Code:               code,
		RemainingBalance:   remaining,
		PercentageDiscount: percentage,
	}
	c.recalculate()
}

// RemoveGiftcard clears the applied giftcard.
func (c *Cart) RemoveGiftcard() {
	c.Giftcard = nil
	c.recalculate()
}

// RemoveOrdered takes the lines of an ordered cart out of c. Quantities added
// after the order snapshot stay. The giftcard is dropped when the order used
// the same code.
func (c *Cart) RemoveOrdered(ordered *Cart) {
	for _, o := range ordered.Items {
		for i := range c.Items {
			if c.Items[i].ID == o.ID {
				c.Items[i].Quantity -= o.Quantity
				break
			}
		}
	}
	kept := make([]CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		if item.Quantity > 0 {
			kept = append(kept, item)
		}
	}
	c.Items = kept
	if c.Giftcard != nil && ordered.Giftcard != nil && c.Giftcard.Code == ordered.Giftcard.Code {
		c.Giftcard = nil
	}
	c.recalculate()
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// UnitCount returns the number of purchased units across all lines.
func (c *Cart) UnitCount() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// Discount returns the amount taken off the subtotal by the applied giftcard.
func (c *Cart) Discount() decimal.Decimal {
	return Discount(c.Giftcard, c.Subtotal)
}

func (c *Cart) recalculate() {
	subtotal := decimal.Zero
	for _, item := range c.Items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	c.Subtotal = subtotal
	c.FinalTotal = decimal.Max(decimal.Zero, subtotal.Sub(Discount(c.Giftcard, subtotal)))
}

// Discount computes min(remaining, subtotal) plus subtotal*percentage/100.
// Both parts are taken from the pre-discount subtotal and are added together.
func Discount(g *AppliedGiftcard, subtotal decimal.Decimal) decimal.Decimal {
	if g == nil {
		return decimal.Zero
	}
	balance := decimal.Min(decimal.Max(g.RemainingBalance, decimal.Zero), subtotal)
	percent := subtotal.Mul(decimal.NewFromInt(int64(g.PercentageDiscount))).Div(hundred)
	return balance.Add(percent)
}

// CartService manages one cart per session.
type CartService interface {
	// GetCart returns the cart for a session, creating an empty one when none exists.
	GetCart(ctx context.Context, sessionID string) (*Cart, error)

	// AddItem adds one unit of a shop item, resolving name and price from the catalog.
	AddItem(ctx context.Context, sessionID, itemID string) (*Cart, error)

	// RemoveItem removes a line from the cart.
	RemoveItem(ctx context.Context, sessionID, itemID string) (*Cart, error)

	// UpdateQuantity sets a line quantity; zero or less removes the line.
	UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*Cart, error)

	// ApplyGiftcard validates a code and applies it to the cart.
	ApplyGiftcard(ctx context.Context, sessionID, code string) (*GiftcardApplyResult, error)

	// RemoveGiftcard clears the applied giftcard.
	RemoveGiftcard(ctx context.Context, sessionID string) (*Cart, error)

	// ClearCart empties the cart.
	ClearCart(ctx context.Context, sessionID string) error
}
