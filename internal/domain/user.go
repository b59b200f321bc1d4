package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// USER DOMAIN TYPES
// =============================================================================

var (
	ErrUsernameRequired = &Error{Code: EINVALID, Message: "Voer je Minecraft gebruikersnaam in"}
	ErrUserNotCreated   = &Error{Code: EINTERNAL, Message: "Kon geen gebruikersaccount aanmaken"}
)

// User is a player account keyed by minecraft username.
type User struct {
	ID                int64     `json:"id"`
	MinecraftUsername string    `json:"minecraft_username"`
	CreatedAt         time.Time `json:"created_at"`
}

// UserPurchase is one purchased or redeemed unit in a user's history.
type UserPurchase struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	ItemName  string          `json:"item_name"`
	ItemType  string          `json:"item_type"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

// UserService covers player accounts and their purchase history.
type UserService interface {
	// Login returns the user for a username, creating it on first use.
	Login(ctx context.Context, username string) (*User, error)

	// Purchases returns the purchase history of a user, newest first.
	// An unknown username yields an empty history.
	Purchases(ctx context.Context, username string) ([]UserPurchase, error)
}

// OwnershipService answers which items a player already owns.
type OwnershipService interface {
	// OwnedItems returns the names of all items recorded against the username.
	OwnedItems(ctx context.Context, username string) ([]string, error)

	// Owns reports whether the username has a purchase of itemName.
	Owns(ctx context.Context, username, itemName string) (bool, error)

	// Invalidate drops cached ownership for username, or for everyone when
	// username is empty.
	Invalidate(ctx context.Context, username string)
}
