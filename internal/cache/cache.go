// Package cache holds the owned-items cache used to gate duplicate reward
// redemption and render "already owned" state.
package cache

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is how long a player's owned items stay cached.
const DefaultTTL = 5 * time.Minute

// Cache stores the owned item names per username.
type Cache interface {
	// Get returns ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, username string) ([]string, error)
	Set(ctx context.Context, username string, items []string) error

	// Invalidate drops one username, or every entry when username is empty.
	Invalidate(ctx context.Context, username string) error
}

var ErrCacheMiss = errors.New("cache miss")
