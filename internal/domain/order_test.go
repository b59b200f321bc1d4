package domain

import (
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestPaymentDescriptor(t *testing.T) {
	if got := PaymentDescriptor("ideal", nil); got != "ideal" {
		t.Errorf("PaymentDescriptor() = %q, want %q", got, "ideal")
	}

	g := &AppliedGiftcard{Code: "SUMMER", RemainingBalance: decimal.RequireFromString("7.5")}
	if got := PaymentDescriptor("ideal", g); got != "giftcard id:SUMMER Remaining:7.5" {
		t.Errorf("PaymentDescriptor() = %q", got)
	}
	if got := EmailPaymentLabel("ideal", g); got != "Giftcard (SUMMER)" {
		t.Errorf("EmailPaymentLabel() = %q", got)
	}
}

func TestProductsText(t *testing.T) {
	lines := []OrderLine{
		{ItemID: "vip", ItemName: "VIP", UnitPrice: decimal.RequireFromString("4.99"), Quantity: 2},
		{ItemID: "key", ItemName: "Crate Key", UnitPrice: decimal.RequireFromString("0.99"), Quantity: 1},
	}

	want := "VIP (x2) - €9.98\nCrate Key (x1) - €0.99"
	if got := ProductsText(lines); got != want {
		t.Errorf("ProductsText() = %q, want %q", got, want)
	}
}

func TestUnits(t *testing.T) {
	lines := []OrderLine{
		{ItemID: "vip", Quantity: 3},
		{ItemID: "key", Quantity: 1},
	}

	units := Units(lines)
	if len(units) != 4 {
		t.Fatalf("len(Units()) = %d, want 4", len(units))
	}
	for _, u := range units {
		if u.Quantity != 1 {
			t.Errorf("unit quantity = %d, want 1", u.Quantity)
		}
	}
	if units[0].ItemID != "vip" || units[3].ItemID != "key" {
		t.Errorf("units out of order: %+v", units)
	}
}

func TestNewOrderNumber(t *testing.T) {
	now := time.UnixMilli(1718000000123)
	pattern := regexp.MustCompile(`^ORD-1718000000123-[0-9A-Z]{9}$`)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		n := NewOrderNumber(now)
		if !pattern.MatchString(n) {
			t.Fatalf("NewOrderNumber() = %q does not match %s", n, pattern)
		}
		seen[n] = true
	}
	if len(seen) < 45 {
		t.Errorf("expected mostly distinct order numbers, got %d distinct of 50", len(seen))
	}
}

func TestEventOrderNumber(t *testing.T) {
	if got := EventOrderNumber("WIN42"); got != "EVENT-WIN42" {
		t.Errorf("EventOrderNumber() = %q", got)
	}
}
