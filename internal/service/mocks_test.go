package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/dukerupert/deltamc/internal/domain"
	"github.com/dukerupert/deltamc/internal/email"
	"github.com/dukerupert/deltamc/internal/tebex"
	"github.com/google/uuid"
)

// =============================================================================
// Store mocks
// =============================================================================

type mockOrderStore struct {
	RecordOrderFunc func(ctx context.Context, p domain.RecordOrderParams) (*domain.RecordOrderResult, error)
	LookupOrderFunc func(ctx context.Context, key uuid.UUID) (*domain.RecordedOrder, error)

	calls   []domain.RecordOrderParams
	lookups int
}

func (m *mockOrderStore) RecordOrder(ctx context.Context, p domain.RecordOrderParams) (*domain.RecordOrderResult, error) {
	m.calls = append(m.calls, p)
	if m.RecordOrderFunc != nil {
		return m.RecordOrderFunc(ctx, p)
	}
	return &domain.RecordOrderResult{OrderNumber: p.OrderNumber, UserID: 1, Settlement: domain.SettlementNone}, nil
}

func (m *mockOrderStore) LookupOrder(ctx context.Context, key uuid.UUID) (*domain.RecordedOrder, error) {
	m.lookups++
	if m.LookupOrderFunc != nil {
		return m.LookupOrderFunc(ctx, key)
	}
	return nil, domain.ErrOrderNotRecorded
}

// ledgerOrderStore is a mockOrderStore that remembers recorded keys the way
// the order_requests table does.
func ledgerOrderStore() *mockOrderStore {
	var mu sync.Mutex
	ledger := map[uuid.UUID]domain.RecordedOrder{}
	return &mockOrderStore{
		RecordOrderFunc: func(ctx context.Context, p domain.RecordOrderParams) (*domain.RecordOrderResult, error) {
			mu.Lock()
			defer mu.Unlock()
			if prev, ok := ledger[p.IdempotencyKey]; ok {
				return &domain.RecordOrderResult{OrderNumber: prev.OrderNumber, Duplicate: true}, nil
			}
			ledger[p.IdempotencyKey] = domain.RecordedOrder{OrderNumber: p.OrderNumber, FinalTotal: p.FinalTotal}
			return &domain.RecordOrderResult{OrderNumber: p.OrderNumber, UserID: 1}, nil
		},
		LookupOrderFunc: func(ctx context.Context, key uuid.UUID) (*domain.RecordedOrder, error) {
			mu.Lock()
			defer mu.Unlock()
			if prev, ok := ledger[key]; ok {
				return &prev, nil
			}
			return nil, domain.ErrOrderNotRecorded
		},
	}
}

type mockUserStore struct {
	UpsertUserFunc     func(ctx context.Context, username string) (*domain.User, error)
	ListPurchasesFunc  func(ctx context.Context, username string) ([]domain.UserPurchase, error)
	OwnedItemNamesFunc func(ctx context.Context, username string) ([]string, error)

	ownedCalls int
}

func (m *mockUserStore) UpsertUser(ctx context.Context, username string) (*domain.User, error) {
	if m.UpsertUserFunc != nil {
		return m.UpsertUserFunc(ctx, username)
	}
	return &domain.User{ID: 1, MinecraftUsername: username}, nil
}

func (m *mockUserStore) ListPurchases(ctx context.Context, username string) ([]domain.UserPurchase, error) {
	if m.ListPurchasesFunc != nil {
		return m.ListPurchasesFunc(ctx, username)
	}
	return nil, nil
}

func (m *mockUserStore) OwnedItemNames(ctx context.Context, username string) ([]string, error) {
	m.ownedCalls++
	if m.OwnedItemNamesFunc != nil {
		return m.OwnedItemNamesFunc(ctx, username)
	}
	return []string{}, nil
}

type mockShopStore struct {
	ListItemsFunc            func(ctx context.Context) ([]domain.ShopItem, error)
	GetItemByIDFunc          func(ctx context.Context, id string) (*domain.ShopItem, error)
	GetItemByNameFunc        func(ctx context.Context, name string) (*domain.ShopItem, error)
	ListRecentSupportersFunc func(ctx context.Context, limit int) ([]domain.Supporter, error)
	ListOnlinePlayersFunc    func(ctx context.Context) (map[string]int, error)
}

func (m *mockShopStore) ListItems(ctx context.Context) ([]domain.ShopItem, error) {
	if m.ListItemsFunc != nil {
		return m.ListItemsFunc(ctx)
	}
	return nil, nil
}

func (m *mockShopStore) GetItemByID(ctx context.Context, id string) (*domain.ShopItem, error) {
	if m.GetItemByIDFunc != nil {
		return m.GetItemByIDFunc(ctx, id)
	}
	return nil, domain.ErrShopItemNotFound
}

func (m *mockShopStore) GetItemByName(ctx context.Context, name string) (*domain.ShopItem, error) {
	if m.GetItemByNameFunc != nil {
		return m.GetItemByNameFunc(ctx, name)
	}
	return nil, domain.ErrShopItemNotFound
}

func (m *mockShopStore) ListRecentSupporters(ctx context.Context, limit int) ([]domain.Supporter, error) {
	if m.ListRecentSupportersFunc != nil {
		return m.ListRecentSupportersFunc(ctx, limit)
	}
	return nil, nil
}

func (m *mockShopStore) ListOnlinePlayers(ctx context.Context) (map[string]int, error) {
	if m.ListOnlinePlayersFunc != nil {
		return m.ListOnlinePlayersFunc(ctx)
	}
	return map[string]int{}, nil
}

type mockEventStore struct {
	ListEventsFromFunc    func(ctx context.Context, from time.Time) ([]domain.Event, error)
	CountParticipantsFunc func(ctx context.Context, names []string) (map[string]int, error)
	JoinEventFunc         func(ctx context.Context, eventID int64, username string) error
}

func (m *mockEventStore) ListEventsFrom(ctx context.Context, from time.Time) ([]domain.Event, error) {
	if m.ListEventsFromFunc != nil {
		return m.ListEventsFromFunc(ctx, from)
	}
	return nil, nil
}

func (m *mockEventStore) CountParticipants(ctx context.Context, names []string) (map[string]int, error) {
	if m.CountParticipantsFunc != nil {
		return m.CountParticipantsFunc(ctx, names)
	}
	return map[string]int{}, nil
}

func (m *mockEventStore) JoinEvent(ctx context.Context, eventID int64, username string) error {
	if m.JoinEventFunc != nil {
		return m.JoinEventFunc(ctx, eventID, username)
	}
	return nil
}

type mockPaymentStore struct {
	CompleteTebexPurchasesFunc func(ctx context.Context, player string) (int64, int64, error)
}

func (m *mockPaymentStore) CompleteTebexPurchases(ctx context.Context, player string) (int64, int64, error) {
	if m.CompleteTebexPurchasesFunc != nil {
		return m.CompleteTebexPurchasesFunc(ctx, player)
	}
	return 0, 0, nil
}

// giftcardMap is an in-memory domain.GiftcardReader.
type giftcardMap map[string]*domain.Giftcard

func (g giftcardMap) GetGiftcard(ctx context.Context, code string) (*domain.Giftcard, error) {
	card, ok := g[code]
	if !ok {
		return nil, domain.ErrGiftcardNotFound
	}
	copied := *card
	return &copied, nil
}

// failingCartStore fails every call with err.
type failingCartStore struct {
	err error
}

func (f failingCartStore) Load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	return nil, f.err
}

func (f failingCartStore) Save(ctx context.Context, sessionID string, cart *domain.Cart) error {
	return f.err
}

func (f failingCartStore) Delete(ctx context.Context, sessionID string) error {
	return f.err
}

// =============================================================================
// Collaborator mocks
// =============================================================================

type mockNotifier struct {
	SendFunc func(ctx context.Context, data email.OrderConfirmation) error

	sent []email.OrderConfirmation
}

func (m *mockNotifier) SendOrderConfirmation(ctx context.Context, data email.OrderConfirmation) error {
	m.sent = append(m.sent, data)
	if m.SendFunc != nil {
		return m.SendFunc(ctx, data)
	}
	return nil
}

type mockPublisher struct {
	err    error
	events []domain.OrderEvent
}

func (m *mockPublisher) PublishOrder(ctx context.Context, event domain.OrderEvent) error {
	m.events = append(m.events, event)
	return m.err
}

type mockOwnership struct {
	mu          sync.Mutex
	owned       map[string][]string
	err         error
	invalidated []string
}

func (m *mockOwnership) OwnedItems(ctx context.Context, username string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.owned[username], nil
}

func (m *mockOwnership) Owns(ctx context.Context, username, itemName string) (bool, error) {
	items, err := m.OwnedItems(ctx, username)
	if err != nil {
		return false, err
	}
	return slices.Contains(items, itemName), nil
}

func (m *mockOwnership) Invalidate(ctx context.Context, username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, username)
}

type mockCatalog struct {
	rewards []domain.Reward
}

func (m mockCatalog) All() []domain.Reward {
	return m.rewards
}

func (m mockCatalog) Get(id string) (domain.Reward, bool) {
	for _, r := range m.rewards {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Reward{}, false
}

type mockTebex struct {
	CreateCheckoutFunc func(ctx context.Context, req tebex.CheckoutRequest) (*tebex.Checkout, error)
	GetBasketFunc      func(ctx context.Context, basketID string) (*tebex.Basket, error)
}

func (m *mockTebex) CreateCheckout(ctx context.Context, req tebex.CheckoutRequest) (*tebex.Checkout, error) {
	if m.CreateCheckoutFunc != nil {
		return m.CreateCheckoutFunc(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTebex) GetBasket(ctx context.Context, basketID string) (*tebex.Basket, error) {
	if m.GetBasketFunc != nil {
		return m.GetBasketFunc(ctx, basketID)
	}
	return nil, errors.New("not implemented")
}
