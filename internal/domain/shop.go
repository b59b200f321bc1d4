package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SHOP, EVENT AND COMMUNITY DOMAIN TYPES
// =============================================================================

var (
	ErrShopItemNotFound  = &Error{Code: ENOTFOUND, Message: "Item niet gevonden"}
	ErrEventNotFound     = &Error{Code: ENOTFOUND, Message: "Event niet gevonden"}
	ErrAlreadyRegistered = &Error{Code: ECONFLICT, Message: "Je bent al ingeschreven voor dit event"}
	ErrEventFull         = &Error{Code: ECONFLICT, Message: "Dit event is al vol"}
	ErrEventJoinFailed   = &Error{Code: EINTERNAL, Message: "Kon niet inschrijven voor het event"}
)

// ShopItem is a catalog entry that can be added to the cart.
type ShopItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
}

// Event is a scheduled server event players can register for.
type Event struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	EventDate        time.Time `json:"event_date"`
	MaxParticipants  int       `json:"max_participants"`
	ParticipantCount int       `json:"participant_count"`
}

// Supporter is an entry of the public recent supporters feed.
type Supporter struct {
	Name      string    `json:"name"`
	Item      string    `json:"item"`
	CreatedAt time.Time `json:"created_at"`
}

// ShopService exposes the catalog and community widgets.
type ShopService interface {
	Items(ctx context.Context) ([]ShopItem, error)
	ItemByName(ctx context.Context, name string) (*ShopItem, error)
	RecentSupporters(ctx context.Context) ([]Supporter, error)
	OnlinePlayers(ctx context.Context) (map[string]int, error)
}

// EventService lists events and registers participants.
type EventService interface {
	Upcoming(ctx context.Context) ([]Event, error)
	Join(ctx context.Context, eventID int64, username string) error
}
