package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/deltamc/internal/domain"
)

const getGiftcard = `
SELECT code, remaining::text, used, percentage_discount, unlimited_use, event, used_at, created_at
FROM giftcard
WHERE code = $1`

// GetGiftcard loads a giftcard by its normalized code.
func (s *Store) GetGiftcard(ctx context.Context, code string) (*domain.Giftcard, error) {
	var (
		g         domain.Giftcard
		remaining string
		usedAt    *time.Time
	)
	err := s.pool.QueryRow(ctx, getGiftcard, code).Scan(
		&g.Code,
		&remaining,
		&g.Used,
		&g.PercentageDiscount,
		&g.UnlimitedUse,
		&g.Event,
		&usedAt,
		&g.CreatedAt,
	)
	if isNoRows(err) {
		return nil, domain.ErrGiftcardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get giftcard: %w", err)
	}

	g.Remaining, err = parseDecimal(remaining)
	if err != nil {
		return nil, err
	}
	g.UsedAt = usedAt
	return &g, nil
}
