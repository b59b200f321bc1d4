package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/dukerupert/deltamc/internal/cache"
	"github.com/dukerupert/deltamc/internal/domain"
	"github.com/dukerupert/deltamc/internal/telemetry"
)

// OwnershipService answers ownership questions from the purchase history,
// keeping each player's owned item names in a TTL cache. Order flows call
// Invalidate after recording so the next lookup sees the new purchase.
type OwnershipService struct {
	users  UserStore
	cache  cache.Cache
	logger *slog.Logger
}

var _ domain.OwnershipService = (*OwnershipService)(nil)

func NewOwnershipService(users UserStore, c cache.Cache, logger *slog.Logger) *OwnershipService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OwnershipService{users: users, cache: c, logger: logger}
}

func (s *OwnershipService) OwnedItems(ctx context.Context, username string) ([]string, error) {
	if username == "" {
		return []string{}, nil
	}

	items, err := s.cache.Get(ctx, username)
	if err == nil {
		s.record("hit")
		return items, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("owned items cache read failed", "username", username, "error", err)
	}
	s.record("miss")

	items, err = s.users.OwnedItemNames(ctx, username)
	if err != nil {
		return nil, domain.Internal(err, "ownership.owned_items", "failed to load owned items")
	}

	if err := s.cache.Set(ctx, username, items); err != nil {
		s.logger.Warn("owned items cache write failed", "username", username, "error", err)
	}
	return items, nil
}

func (s *OwnershipService) Owns(ctx context.Context, username, itemName string) (bool, error) {
	items, err := s.OwnedItems(ctx, username)
	if err != nil {
		return false, err
	}
	return slices.Contains(items, itemName), nil
}

// Invalidate is best effort; failures are logged.
func (s *OwnershipService) Invalidate(ctx context.Context, username string) {
	if username == "" {
		return
	}
	if err := s.cache.Invalidate(ctx, username); err != nil {
		s.logger.Warn("owned items cache invalidation failed", "username", username, "error", err)
	}
}

// InvalidateAll drops every cached player.
func (s *OwnershipService) InvalidateAll(ctx context.Context) error {
	if err := s.cache.Invalidate(ctx, ""); err != nil {
		return domain.Internal(err, "ownership.InvalidateAll", "Failed to clear owned items cache")
	}
	return nil
}

func (s *OwnershipService) record(result string) {
	if telemetry.Business != nil {
		telemetry.Business.OwnedItemsLookups.WithLabelValues(result).Inc()
	}
}
