package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dukerupert/deltamc/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testShopItems = map[string]domain.ShopItem{
	"vip":       {ID: "vip", Name: "VIP", Price: decimal.RequireFromString("4.99")},
	"mvp":       {ID: "mvp", Name: "MVP", Price: decimal.RequireFromString("9.99")},
	"crate_key": {ID: "crate_key", Name: "Crate Key", Price: decimal.RequireFromString("0.99")},
}

func newTestShopStore() *mockShopStore {
	return &mockShopStore{
		GetItemByIDFunc: func(ctx context.Context, id string) (*domain.ShopItem, error) {
			item, ok := testShopItems[id]
			if !ok {
				return nil, domain.ErrShopItemNotFound
			}
			return &item, nil
		},
	}
}

func newTestCartService(giftcards giftcardMap) (*CartService, *MemoryCartStore) {
	store := NewMemoryCartStore(time.Hour)
	return NewCartService(store, newTestShopStore(), giftcards, nil), store
}

func TestCartService_AddItemResolvesCatalogPrice(t *testing.T) {
	svc, _ := newTestCartService(nil)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", "vip")
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, "s1", "vip")
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, "VIP", cart.Items[0].Name)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, "9.98", cart.Subtotal.StringFixed(2))
	assert.Equal(t, "9.98", cart.FinalTotal.StringFixed(2))
}

func TestCartService_AddItemErrors(t *testing.T) {
	svc, _ := newTestCartService(nil)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", "")
	assert.ErrorIs(t, err, domain.ErrInvalidCartItem)

	_, err = svc.AddItem(ctx, "s1", "diamond_sword")
	assert.ErrorIs(t, err, domain.ErrShopItemNotFound)

	_, err = svc.AddItem(ctx, "", "vip")
	assert.ErrorIs(t, err, ErrSessionRequired)
}

func TestCartService_UpdateQuantityAndRemove(t *testing.T) {
	svc, _ := newTestCartService(nil)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", "vip")
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "s1", "crate_key")
	require.NoError(t, err)

	cart, err := svc.UpdateQuantity(ctx, "s1", "crate_key", 5)
	require.NoError(t, err)
	assert.Equal(t, "9.94", cart.Subtotal.StringFixed(2))

	cart, err = svc.UpdateQuantity(ctx, "s1", "crate_key", 0)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	cart, err = svc.RemoveItem(ctx, "s1", "vip")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.FinalTotal.IsZero())
}

func TestCartService_ApplyGiftcard(t *testing.T) {
	giftcards := giftcardMap{
		"SAVE5":   {Code: "SAVE5", Remaining: decimal.NewFromInt(5)},
		"TENOFF":  {Code: "TENOFF", Remaining: decimal.Zero, PercentageDiscount: 10, UnlimitedUse: true},
		"USED":    {Code: "USED", Remaining: decimal.NewFromInt(5), Used: true},
		"EMPTY":   {Code: "EMPTY", Remaining: decimal.Zero},
		"EVENT":   {Code: "EVENT", Remaining: decimal.NewFromInt(1), Event: true},
		"EVENT20": {Code: "EVENT20", Remaining: decimal.NewFromInt(1), Event: true, PercentageDiscount: 20},
	}

	tests := []struct {
		name      string
		code      string
		wantErr   error
		wantUse   domain.GiftcardUse
		wantFinal string
	}{
		{name: "balance card", code: " save5 ", wantUse: domain.GiftcardUseCart, wantFinal: "4.99"},
		{name: "percentage card", code: "tenoff", wantUse: domain.GiftcardUseCart, wantFinal: "8.99"},
		{name: "unknown code", code: "NOPE", wantErr: domain.ErrGiftcardNotFound},
		{name: "used card", code: "USED", wantErr: domain.ErrGiftcardUsed},
		{name: "no balance", code: "EMPTY", wantErr: domain.ErrGiftcardNoBalance},
		{name: "event card routes to rewards", code: "event", wantUse: domain.GiftcardUseReward},
		{name: "event card with percentage", code: "EVENT20", wantErr: domain.ErrGiftcardEventOnly},
		{name: "blank code", code: "  ", wantErr: domain.ErrGiftcardCodeRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestCartService(giftcards)
			ctx := context.Background()

			_, err := svc.AddItem(ctx, "s1", "mvp")
			require.NoError(t, err)

			result, err := svc.ApplyGiftcard(ctx, "s1", tt.code)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUse, result.Use)

			stored, err := store.Load(ctx, "s1")
			require.NoError(t, err)

			if tt.wantUse == domain.GiftcardUseReward {
				assert.Nil(t, result.Cart)
				assert.Nil(t, stored.Giftcard)
				assert.Equal(t, "Event giftcard gevonden! Kies je beloning.", result.Message)
				return
			}

			require.NotNil(t, result.Cart)
			assert.Equal(t, tt.wantFinal, result.Cart.FinalTotal.StringFixed(2))
			require.NotNil(t, stored.Giftcard)
			assert.Equal(t, domain.NormalizeGiftcardCode(tt.code), stored.Giftcard.Code)
		})
	}
}

func TestCartService_RemoveGiftcardRestoresTotal(t *testing.T) {
	svc, _ := newTestCartService(giftcardMap{
		"SAVE5": {Code: "SAVE5", Remaining: decimal.NewFromInt(5)},
	})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", "mvp")
	require.NoError(t, err)
	_, err = svc.ApplyGiftcard(ctx, "s1", "SAVE5")
	require.NoError(t, err)

	cart, err := svc.RemoveGiftcard(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, cart.Giftcard)
	assert.True(t, cart.FinalTotal.Equal(cart.Subtotal))
}

func TestCartService_ClearCart(t *testing.T) {
	svc, store := newTestCartService(nil)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", "vip")
	require.NoError(t, err)
	require.NoError(t, svc.ClearCart(ctx, "s1"))

	cart, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	assert.ErrorIs(t, svc.ClearCart(ctx, ""), ErrSessionRequired)
}

func TestCartService_StoreFailureIsInternal(t *testing.T) {
	svc := NewCartService(failingCartStore{err: errors.New("connection refused")}, newTestShopStore(), giftcardMap{}, nil)

	_, err := svc.GetCart(context.Background(), "s1")
	require.Error(t, err)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))

	_, err = svc.AddItem(context.Background(), "s1", "vip")
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
}

func TestCartService_ConcurrentAddsAreNotLost(t *testing.T) {
	svc, _ := newTestCartService(nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.AddItem(ctx, "s1", "crate_key")
		}()
	}
	wg.Wait()

	cart, err := svc.GetCart(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 50, cart.Items[0].Quantity)
}

func TestCartService_AddDuringCheckoutSurvivesOrder(t *testing.T) {
	cartSvc, store := newTestCartService(nil)
	ctx := context.Background()

	_, err := cartSvc.AddItem(ctx, "s1", "vip")
	require.NoError(t, err)

	var ordered []domain.OrderLine
	orders := &mockOrderStore{
		RecordOrderFunc: func(ctx context.Context, p domain.RecordOrderParams) (*domain.RecordOrderResult, error) {
			ordered = p.Lines
			// Second tab adds an item while the order is being written.
			_, err := cartSvc.AddItem(ctx, "s1", "mvp")
			require.NoError(t, err)
			return &domain.RecordOrderResult{OrderNumber: p.OrderNumber, UserID: 1}, nil
		},
	}
	checkout := NewCheckoutService(CheckoutConfig{
		Carts:     store,
		Orders:    orders,
		Ownership: &mockOwnership{},
		ServerID:  "deltamc_nl",
		Cart:      cartSvc,
	})

	_, err = checkout.PlaceOrder(ctx, validOrderRequest())
	require.NoError(t, err)
	require.Len(t, ordered, 1)
	assert.Equal(t, "vip", ordered[0].ItemID)

	cart, err := cartSvc.GetCart(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "mvp", cart.Items[0].ID)
	assert.Equal(t, 1, cart.Items[0].Quantity)
	assert.Equal(t, "9.99", cart.FinalTotal.StringFixed(2))
}

// =============================================================================
// Cart stores
// =============================================================================

func TestMemoryCartStore_Expiry(t *testing.T) {
	store := NewMemoryCartStore(time.Minute)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	cart := domain.NewCart()
	cart.AddItem(domain.CartItem{ID: "vip", Name: "VIP", UnitPrice: decimal.RequireFromString("4.99")})
	require.NoError(t, store.Save(ctx, "s1", cart))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, loaded.Items, 1)

	now = now.Add(2 * time.Minute)
	loaded, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, loaded.IsEmpty())
}

func TestMemoryCartStore_EvictExpired(t *testing.T) {
	store := NewMemoryCartStore(time.Minute)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "old", domain.NewCart()))
	now = now.Add(50 * time.Second)
	require.NoError(t, store.Save(ctx, "fresh", domain.NewCart()))
	now = now.Add(20 * time.Second)

	removed, err := store.EvictExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Contains(t, store.carts, "fresh")
	assert.NotContains(t, store.carts, "old")
}

func TestMemoryCartStore_LoadReturnsCopy(t *testing.T) {
	store := NewMemoryCartStore(time.Minute)
	ctx := context.Background()

	cart := domain.NewCart()
	cart.AddItem(domain.CartItem{ID: "vip", Name: "VIP", UnitPrice: decimal.RequireFromString("4.99")})
	require.NoError(t, store.Save(ctx, "s1", cart))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	loaded.Items[0].Quantity = 99

	again, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Items[0].Quantity)
}

func TestRedisCartStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := NewRedisCartStore(client, time.Hour)
	ctx := context.Background()

	empty, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	cart := domain.NewCart()
	cart.AddItem(domain.CartItem{ID: "mvp", Name: "MVP", UnitPrice: decimal.RequireFromString("9.99")})
	cart.ApplyGiftcard("SAVE5", decimal.NewFromInt(5), 0)
	require.NoError(t, store.Save(ctx, "s1", cart))
	assert.Equal(t, time.Hour, mr.TTL(cartKeyPrefix+"s1"))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "4.99", loaded.FinalTotal.StringFixed(2))
	require.NotNil(t, loaded.Giftcard)
	assert.Equal(t, "SAVE5", loaded.Giftcard.Code)

	require.NoError(t, store.Delete(ctx, "s1"))
	assert.False(t, mr.Exists(cartKeyPrefix+"s1"))
}
