package service

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/dukerupert/deltamc/internal/domain"
	"github.com/dukerupert/deltamc/internal/telemetry"
)

// CartService implements domain.CartService on a CartStore. Item names and
// prices always come from the shop catalog.
type CartService struct {
	carts     CartStore
	shop      ShopStore
	giftcards domain.GiftcardReader
	locks     sessionLocks
	logger    *slog.Logger
}

var _ domain.CartService = (*CartService)(nil)

// NewCartService creates a new CartService instance
func NewCartService(carts CartStore, shop ShopStore, giftcards domain.GiftcardReader, logger *slog.Logger) *CartService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CartService{
		carts:     carts,
		shop:      shop,
		giftcards: giftcards,
		logger:    logger,
	}
}

func (s *CartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	cart, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return nil, domain.Internal(err, "cart.get", "failed to load cart")
	}
	return cart, nil
}

func (s *CartService) AddItem(ctx context.Context, sessionID, itemID string) (*domain.Cart, error) {
	if itemID == "" {
		return nil, domain.ErrInvalidCartItem
	}

	item, err := s.shop.GetItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, domain.ErrShopItemNotFound) {
			return nil, err
		}
		return nil, domain.Internal(err, "cart.add_item", "failed to get shop item")
	}

	cart, err := s.mutate(ctx, sessionID, "cart.add_item", func(c *domain.Cart) error {
		c.AddItem(domain.CartItem{ID: item.ID, Name: item.Name, UnitPrice: item.Price})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if telemetry.Business != nil {
		telemetry.Business.CartItemsAdd.WithLabelValues(item.ID).Inc()
	}
	return cart, nil
}

func (s *CartService) RemoveItem(ctx context.Context, sessionID, itemID string) (*domain.Cart, error) {
	cart, err := s.mutate(ctx, sessionID, "cart.remove_item", func(c *domain.Cart) error {
		c.RemoveItem(itemID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if telemetry.Business != nil {
		telemetry.Business.CartItemsRemoved.WithLabelValues(itemID).Inc()
	}
	return cart, nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, "cart.update_quantity", func(c *domain.Cart) error {
		c.UpdateQuantity(itemID, quantity)
		return nil
	})
}

// ApplyGiftcard looks up a code and applies it when it discounts the cart.
// Event codes without a percentage leave the cart alone and tell the caller
// to continue with reward selection.
func (s *CartService) ApplyGiftcard(ctx context.Context, sessionID, code string) (*domain.GiftcardApplyResult, error) {
	code = domain.NormalizeGiftcardCode(code)
	if code == "" {
		return nil, domain.ErrGiftcardCodeRequired
	}

	g, err := s.giftcards.GetGiftcard(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrGiftcardNotFound) {
			s.recordRejected("not_found")
			return nil, err
		}
		return nil, domain.Internal(err, "cart.apply_giftcard", "failed to get giftcard")
	}

	use, err := g.ValidateForCart()
	if err != nil {
		s.recordRejected(rejectReason(err))
		return nil, err
	}

	if use == domain.GiftcardUseReward {
		if telemetry.Business != nil {
			telemetry.Business.GiftcardApplied.WithLabelValues(string(use)).Inc()
		}
		return &domain.GiftcardApplyResult{
			Use:     use,
			Code:    code,
			Message: "Event giftcard gevonden! Kies je beloning.",
		}, nil
	}

	cart, err := s.mutate(ctx, sessionID, "cart.apply_giftcard", func(c *domain.Cart) error {
		c.ApplyGiftcard(code, g.Remaining, g.PercentageDiscount)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if telemetry.Business != nil {
		telemetry.Business.GiftcardApplied.WithLabelValues(string(use)).Inc()
	}
	return &domain.GiftcardApplyResult{
		Use:     use,
		Code:    code,
		Cart:    cart,
		Message: "Je korting is toegepast op je winkelwagen. Je kunt verder winkelen.",
	}, nil
}

func (s *CartService) RemoveGiftcard(ctx context.Context, sessionID string) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, "cart.remove_giftcard", func(c *domain.Cart) error {
		c.RemoveGiftcard()
		return nil
	})
}

func (s *CartService) ClearCart(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrSessionRequired
	}

	mu := s.locks.get(sessionID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.carts.Delete(ctx, sessionID); err != nil {
		return domain.Internal(err, "cart.clear", "failed to clear cart")
	}
	return nil
}

// RemoveOrdered takes the lines and giftcard of an ordered cart out of the
// session under the session lock, so items added while the order was being
// recorded stay in the cart.
func (s *CartService) RemoveOrdered(ctx context.Context, sessionID string, ordered *domain.Cart) error {
	return removeOrdered(ctx, s.carts, s.locks.get(sessionID), sessionID, ordered)
}

// mutate loads, changes and saves a cart under the session lock.
func (s *CartService) mutate(ctx context.Context, sessionID, op string, fn func(*domain.Cart) error) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}

	mu := s.locks.get(sessionID)
	mu.Lock()
	defer mu.Unlock()

	cart, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load cart")
	}
	if err := fn(cart); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, sessionID, cart); err != nil {
		return nil, domain.Internal(err, op, "failed to save cart")
	}
	return cart, nil
}

func (s *CartService) recordRejected(reason string) {
	if telemetry.Business != nil {
		telemetry.Business.GiftcardRejected.WithLabelValues(reason).Inc()
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrGiftcardUsed):
		return "used"
	case errors.Is(err, domain.ErrGiftcardEventOnly):
		return "event_only"
	case errors.Is(err, domain.ErrGiftcardNoBalance):
		return "no_balance"
	default:
		return "other"
	}
}

func removeOrdered(ctx context.Context, carts CartStore, mu *sync.Mutex, sessionID string, ordered *domain.Cart) error {
	mu.Lock()
	defer mu.Unlock()

	cart, err := carts.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	cart.RemoveOrdered(ordered)
	if cart.IsEmpty() && cart.Giftcard == nil {
		return carts.Delete(ctx, sessionID)
	}
	return carts.Save(ctx, sessionID, cart)
}

// storeCleaner removes ordered carts when checkout runs without a CartService.
type storeCleaner struct {
	carts CartStore
	locks sessionLocks
}

func (c *storeCleaner) RemoveOrdered(ctx context.Context, sessionID string, ordered *domain.Cart) error {
	return removeOrdered(ctx, c.carts, c.locks.get(sessionID), sessionID, ordered)
}

// sessionLocks serializes cart mutations per session on this instance.
type sessionLocks struct {
	stripes [64]sync.Mutex
}

func (l *sessionLocks) get(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return &l.stripes[h.Sum32()%uint32(len(l.stripes))]
}
