package service

import (
	"context"
	"time"

	"github.com/dukerupert/deltamc/internal/domain"
	"github.com/dukerupert/deltamc/internal/email"
	"github.com/dukerupert/deltamc/internal/tebex"
	"github.com/google/uuid"
)

// The interfaces below are implemented by the postgres, cache, email, broker
// and tebex packages. Services depend on them so tests can swap in fakes.

// OrderStore records orders atomically.
type OrderStore interface {
	RecordOrder(ctx context.Context, p domain.RecordOrderParams) (*domain.RecordOrderResult, error)

	// LookupOrder returns domain.ErrOrderNotRecorded for unknown keys.
	LookupOrder(ctx context.Context, key uuid.UUID) (*domain.RecordedOrder, error)
}

// CartCleaner takes an ordered cart out of its session.
type CartCleaner interface {
	RemoveOrdered(ctx context.Context, sessionID string, ordered *domain.Cart) error
}

// UserStore persists players and their purchase history.
type UserStore interface {
	UpsertUser(ctx context.Context, username string) (*domain.User, error)
	ListPurchases(ctx context.Context, username string) ([]domain.UserPurchase, error)
	OwnedItemNames(ctx context.Context, username string) ([]string, error)
}

// ShopStore reads the catalog and community widgets.
type ShopStore interface {
	ListItems(ctx context.Context) ([]domain.ShopItem, error)
	GetItemByID(ctx context.Context, id string) (*domain.ShopItem, error)
	GetItemByName(ctx context.Context, name string) (*domain.ShopItem, error)
	ListRecentSupporters(ctx context.Context, limit int) ([]domain.Supporter, error)
	ListOnlinePlayers(ctx context.Context) (map[string]int, error)
}

// EventStore reads events and registers participants.
type EventStore interface {
	ListEventsFrom(ctx context.Context, from time.Time) ([]domain.Event, error)
	CountParticipants(ctx context.Context, eventNames []string) (map[string]int, error)
	JoinEvent(ctx context.Context, eventID int64, username string) error
}

// PaymentStore settles Tebex purchase rows.
type PaymentStore interface {
	CompleteTebexPurchases(ctx context.Context, player string) (purchases, backups int64, err error)
}

// Notifier delivers order confirmations.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, data email.OrderConfirmation) error
}

// EventPublisher hands order events to the fulfilment side.
type EventPublisher interface {
	PublishOrder(ctx context.Context, event domain.OrderEvent) error
}

// RewardCatalog is the fixed set of event rewards.
type RewardCatalog interface {
	All() []domain.Reward
	Get(id string) (domain.Reward, bool)
}

// TebexClient is the part of the Tebex API the payment service uses.
type TebexClient interface {
	CreateCheckout(ctx context.Context, req tebex.CheckoutRequest) (*tebex.Checkout, error)
	GetBasket(ctx context.Context, basketID string) (*tebex.Basket, error)
}
