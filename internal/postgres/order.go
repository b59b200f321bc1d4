package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/deltamc/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	claimOrderRequest = `
INSERT INTO order_requests (idempotency_key, order_number, final_total)
VALUES ($1, $2, $3::numeric)
ON CONFLICT (idempotency_key) DO NOTHING
RETURNING order_number`

	getOrderRequest = `
SELECT order_number FROM order_requests WHERE idempotency_key = $1`

	lookupOrderRequest = `
SELECT order_number, final_total::text FROM order_requests WHERE idempotency_key = $1`

	lockGiftcard = `
SELECT remaining::text, used, unlimited_use, event
FROM giftcard
WHERE code = $1
FOR UPDATE`

	decrementGiftcard = `UPDATE giftcard SET remaining = $2::numeric WHERE code = $1`
	markGiftcardUsed  = `UPDATE giftcard SET used = TRUE, remaining = 0, used_at = NOW() WHERE code = $1`
	deleteGiftcard    = `DELETE FROM giftcard WHERE code = $1`

	upsertUser = `
INSERT INTO users (minecraft_username)
VALUES ($1)
ON CONFLICT (minecraft_username) DO UPDATE SET minecraft_username = EXCLUDED.minecraft_username
RETURNING id, minecraft_username, created_at`

	insertPurchase = `
INSERT INTO purchases (server_id, player, item, executed, payment, order_number)
VALUES ($1, $2, $3, FALSE, $4, $5)`

	insertBackupPurchase = `
INSERT INTO backup_purchases (server_id, player, item, executed, payment, order_number)
VALUES ($1, $2, $3, FALSE, $4, $5)`

	insertUserPurchase = `
INSERT INTO user_purchases (user_id, item_name, item_type, price)
VALUES ($1, $2, $3, $4::numeric)`

	insertSupporter = `
INSERT INTO recent_supporters (name, item)
VALUES ($1, $2)`
)

// LookupOrder returns the ledger entry for an idempotency key, or
// domain.ErrOrderNotRecorded.
func (s *Store) LookupOrder(ctx context.Context, key uuid.UUID) (*domain.RecordedOrder, error) {
	var (
		order domain.RecordedOrder
		total string
	)
	err := s.pool.QueryRow(ctx, lookupOrderRequest, key).Scan(&order.OrderNumber, &total)
	if isNoRows(err) {
		return nil, domain.ErrOrderNotRecorded
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up order request: %w", err)
	}
	if order.FinalTotal, err = parseDecimal(total); err != nil {
		return nil, err
	}
	return &order, nil
}

// RecordOrder writes an order as one transaction: the idempotency ledger row,
// the giftcard settlement, the user upsert, and per unit a purchase row, a
// backup purchase row, a purchase history row and a supporter row.
//
// A key that was already recorded writes nothing and returns the original
// order number with Duplicate set.
func (s *Store) RecordOrder(ctx context.Context, p domain.RecordOrderParams) (*domain.RecordOrderResult, error) {
	result := &domain.RecordOrderResult{
		OrderNumber: p.OrderNumber,
		Settlement:  domain.SettlementNone,
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var orderNumber string
		err := tx.QueryRow(ctx, claimOrderRequest, p.IdempotencyKey, p.OrderNumber, p.FinalTotal.StringFixed(2)).Scan(&orderNumber)
		if isNoRows(err) {
			if err := tx.QueryRow(ctx, getOrderRequest, p.IdempotencyKey).Scan(&result.OrderNumber); err != nil {
				return fmt.Errorf("failed to load recorded order: %w", err)
			}
			result.Duplicate = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to claim idempotency key: %w", err)
		}

		if p.Giftcard != nil {
			settlement, err := settleGiftcard(ctx, tx, p)
			if err != nil {
				return err
			}
			result.Settlement = settlement
		}

		var user domain.User
		if err := tx.QueryRow(ctx, upsertUser, p.Username).Scan(&user.ID, &user.MinecraftUsername, &user.CreatedAt); err != nil {
			return fmt.Errorf("failed to upsert user: %w", err)
		}
		result.UserID = user.ID

		batch := &pgx.Batch{}
		for _, unit := range domain.Units(p.Lines) {
			batch.Queue(insertPurchase, p.ServerID, p.Username, unit.ItemID, p.Payment, p.OrderNumber)
			batch.Queue(insertBackupPurchase, p.ServerID, p.Username, unit.ItemID, p.Payment, p.OrderNumber)
			batch.Queue(insertUserPurchase, user.ID, unit.ItemName, p.ItemType, unit.UnitPrice.StringFixed(2))
			batch.Queue(insertSupporter, p.Username, unit.ItemName)
		}
		if batch.Len() == 0 {
			return domain.ErrEmptyCart
		}

		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("failed to insert order rows: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("failed to insert order rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// settleGiftcard locks the giftcard row and applies the order to it. Flags and
// balance come from the locked row, so concurrent orders on one code are
// serialized and cannot spend the same balance twice.
func settleGiftcard(ctx context.Context, tx pgx.Tx, p domain.RecordOrderParams) (domain.GiftcardSettlement, error) {
	code := p.Giftcard.Code

	var (
		remainingText string
		g             domain.Giftcard
	)
	err := tx.QueryRow(ctx, lockGiftcard, code).Scan(&remainingText, &g.Used, &g.UnlimitedUse, &g.Event)
	if isNoRows(err) {
		return "", domain.ErrGiftcardNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to lock giftcard: %w", err)
	}
	if g.Remaining, err = parseDecimal(remainingText); err != nil {
		return "", err
	}

	if p.RedeemGiftcard {
		if err := g.ValidateForReward(); err != nil {
			return "", err
		}
		if _, err := tx.Exec(ctx, markGiftcardUsed, code); err != nil {
			return "", fmt.Errorf("failed to mark giftcard used: %w", err)
		}
		return domain.SettlementMarkUsed, nil
	}

	if g.Used {
		return "", domain.ErrGiftcardUsed
	}

	settlement, newRemaining := domain.Settle(g.Remaining, p.Subtotal, g.UnlimitedUse, g.Event)
	switch settlement {
	case domain.SettlementDecrement:
		_, err = tx.Exec(ctx, decrementGiftcard, code, newRemaining.StringFixed(2))
	case domain.SettlementMarkUsed:
		_, err = tx.Exec(ctx, markGiftcardUsed, code)
	case domain.SettlementDelete:
		_, err = tx.Exec(ctx, deleteGiftcard, code)
	}
	if err != nil {
		return "", fmt.Errorf("failed to settle giftcard: %w", err)
	}
	return settlement, nil
}

const pruneOrderRequests = `DELETE FROM order_requests WHERE created_at < $1`

// PruneOrderRequests deletes idempotency ledger rows created before cutoff.
// A client retry after that point is treated as a new order.
func (s *Store) PruneOrderRequests(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, pruneOrderRequests, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune order requests: %w", err)
	}
	return tag.RowsAffected(), nil
}
