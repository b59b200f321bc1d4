package service

import (
	"context"
	"errors"

	"github.com/dukerupert/deltamc/internal/domain"
)

// RecentSupportersLimit is the size of the public supporters feed.
const RecentSupportersLimit = 10

// ShopService implements domain.ShopService.
type ShopService struct {
	shop ShopStore
}

var _ domain.ShopService = (*ShopService)(nil)

func NewShopService(shop ShopStore) *ShopService {
	return &ShopService{shop: shop}
}

func (s *ShopService) Items(ctx context.Context) ([]domain.ShopItem, error) {
	items, err := s.shop.ListItems(ctx)
	if err != nil {
		return nil, domain.Internal(err, "shop.items", "failed to list shop items")
	}
	if items == nil {
		items = []domain.ShopItem{}
	}
	return items, nil
}

func (s *ShopService) ItemByName(ctx context.Context, name string) (*domain.ShopItem, error) {
	if name == "" {
		return nil, domain.ErrShopItemNotFound
	}
	item, err := s.shop.GetItemByName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrShopItemNotFound) {
			return nil, err
		}
		return nil, domain.Internal(err, "shop.item_by_name", "failed to get shop item")
	}
	return item, nil
}

func (s *ShopService) RecentSupporters(ctx context.Context) ([]domain.Supporter, error) {
	supporters, err := s.shop.ListRecentSupporters(ctx, RecentSupportersLimit)
	if err != nil {
		return nil, domain.Internal(err, "shop.recent_supporters", "failed to list supporters")
	}
	if supporters == nil {
		supporters = []domain.Supporter{}
	}
	return supporters, nil
}

func (s *ShopService) OnlinePlayers(ctx context.Context) (map[string]int, error) {
	counts, err := s.shop.ListOnlinePlayers(ctx)
	if err != nil {
		return nil, domain.Internal(err, "shop.online_players", "failed to list online players")
	}
	return counts, nil
}
