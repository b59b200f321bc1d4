package api

import (
	"context"

	"github.com/dukerupert/deltamc/internal/domain"
	"github.com/dukerupert/deltamc/internal/service"
)

type mockCartService struct {
	getCartFunc        func(ctx context.Context, sessionID string) (*domain.Cart, error)
	addItemFunc        func(ctx context.Context, sessionID, itemID string) (*domain.Cart, error)
	applyGiftcardFunc  func(ctx context.Context, sessionID, code string) (*domain.GiftcardApplyResult, error)
	updateQuantityFunc func(ctx context.Context, sessionID, itemID string, quantity int) (*domain.Cart, error)
}

func (m *mockCartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if m.getCartFunc != nil {
		return m.getCartFunc(ctx, sessionID)
	}
	return domain.NewCart(), nil
}

func (m *mockCartService) AddItem(ctx context.Context, sessionID, itemID string) (*domain.Cart, error) {
	if m.addItemFunc != nil {
		return m.addItemFunc(ctx, sessionID, itemID)
	}
	return domain.NewCart(), nil
}

func (m *mockCartService) RemoveItem(ctx context.Context, sessionID, itemID string) (*domain.Cart, error) {
	return domain.NewCart(), nil
}

func (m *mockCartService) UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*domain.Cart, error) {
	if m.updateQuantityFunc != nil {
		return m.updateQuantityFunc(ctx, sessionID, itemID, quantity)
	}
	return domain.NewCart(), nil
}

func (m *mockCartService) ApplyGiftcard(ctx context.Context, sessionID, code string) (*domain.GiftcardApplyResult, error) {
	if m.applyGiftcardFunc != nil {
		return m.applyGiftcardFunc(ctx, sessionID, code)
	}
	return &domain.GiftcardApplyResult{}, nil
}

func (m *mockCartService) RemoveGiftcard(ctx context.Context, sessionID string) (*domain.Cart, error) {
	return domain.NewCart(), nil
}

func (m *mockCartService) ClearCart(ctx context.Context, sessionID string) error {
	return nil
}

type mockCheckoutService struct {
	placeOrderFunc func(ctx context.Context, req domain.PlaceOrderRequest) (*domain.OrderConfirmation, error)
}

func (m *mockCheckoutService) PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (*domain.OrderConfirmation, error) {
	return m.placeOrderFunc(ctx, req)
}

type mockRewardService struct {
	validateCodeFunc func(ctx context.Context, code string) (*domain.Giftcard, error)
	rewardsFunc      func(ctx context.Context, username string) ([]domain.RewardOption, error)
	redeemFunc       func(ctx context.Context, req domain.RedeemRequest) (*domain.RedeemResult, error)
}

func (m *mockRewardService) ValidateCode(ctx context.Context, code string) (*domain.Giftcard, error) {
	return m.validateCodeFunc(ctx, code)
}

func (m *mockRewardService) Rewards(ctx context.Context, username string) ([]domain.RewardOption, error) {
	return m.rewardsFunc(ctx, username)
}

func (m *mockRewardService) Redeem(ctx context.Context, req domain.RedeemRequest) (*domain.RedeemResult, error) {
	return m.redeemFunc(ctx, req)
}

type mockShopService struct {
	supportersErr error
	onlinePlayers map[string]int
}

func (m *mockShopService) Items(ctx context.Context) ([]domain.ShopItem, error) {
	return []domain.ShopItem{}, nil
}

func (m *mockShopService) ItemByName(ctx context.Context, name string) (*domain.ShopItem, error) {
	return nil, domain.ErrShopItemNotFound
}

func (m *mockShopService) RecentSupporters(ctx context.Context) ([]domain.Supporter, error) {
	if m.supportersErr != nil {
		return nil, m.supportersErr
	}
	return []domain.Supporter{{Name: "Steve", Item: "VIP"}}, nil
}

func (m *mockShopService) OnlinePlayers(ctx context.Context) (map[string]int, error) {
	return m.onlinePlayers, nil
}

type mockEventService struct {
	joinFunc func(ctx context.Context, eventID int64, username string) error
}

func (m *mockEventService) Upcoming(ctx context.Context) ([]domain.Event, error) {
	return []domain.Event{}, nil
}

func (m *mockEventService) Join(ctx context.Context, eventID int64, username string) error {
	return m.joinFunc(ctx, eventID, username)
}

type mockCheckoutCreator struct {
	createFunc func(ctx context.Context, req service.CreateCheckoutRequest) (*service.CheckoutLink, error)
}

func (m *mockCheckoutCreator) CreateCheckout(ctx context.Context, req service.CreateCheckoutRequest) (*service.CheckoutLink, error) {
	return m.createFunc(ctx, req)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }
