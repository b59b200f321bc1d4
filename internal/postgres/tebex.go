package postgres

import (
	"context"
	"fmt"

	"github.com/dukerupert/deltamc/internal/domain"
	"golang.org/x/sync/errgroup"
)

const (
	completeTebexPurchases = `
UPDATE purchases SET payment = $2, executed = TRUE
WHERE player = $1 AND payment = $3`

	completeTebexBackupPurchases = `
UPDATE backup_purchases SET payment = $2, executed = TRUE
WHERE player = $1 AND payment = $3`
)

// CompleteTebexPurchases marks a player's pending Tebex purchase rows as paid
// in both purchase tables. The two updates run concurrently on separate
// connections and a failure in one does not stop the other.
func (s *Store) CompleteTebexPurchases(ctx context.Context, player string) (purchases, backups int64, err error) {
	var g errgroup.Group

	g.Go(func() error {
		tag, err := s.pool.Exec(ctx, completeTebexPurchases, player, domain.PaymentCompleted, domain.PaymentTebexPending)
		if err != nil {
			return fmt.Errorf("failed to update purchases: %w", err)
		}
		purchases = tag.RowsAffected()
		return nil
	})

	g.Go(func() error {
		tag, err := s.pool.Exec(ctx, completeTebexBackupPurchases, player, domain.PaymentCompleted, domain.PaymentTebexPending)
		if err != nil {
			return fmt.Errorf("failed to update backup purchases: %w", err)
		}
		backups = tag.RowsAffected()
		return nil
	})

	if err := g.Wait(); err != nil {
		return purchases, backups, err
	}
	return purchases, backups, nil
}
