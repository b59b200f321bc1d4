package postgres

import (
	"context"
	"fmt"

	"github.com/dukerupert/deltamc/internal/domain"
)

const (
	listUserPurchases = `
SELECT up.id, up.user_id, up.item_name, up.item_type, up.price::text, up.created_at
FROM user_purchases up
JOIN users u ON u.id = up.user_id
WHERE u.minecraft_username = $1
ORDER BY up.created_at DESC, up.id DESC`

	listOwnedItemNames = `
SELECT DISTINCT up.item_name
FROM user_purchases up
JOIN users u ON u.id = up.user_id
WHERE u.minecraft_username = $1
ORDER BY up.item_name`
)

// UpsertUser returns the user for username, creating it when missing. The
// unique constraint on minecraft_username makes concurrent first logins safe.
func (s *Store) UpsertUser(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	if err := s.pool.QueryRow(ctx, upsertUser, username).Scan(&u.ID, &u.MinecraftUsername, &u.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return &u, nil
}

// ListPurchases returns a user's purchase history, newest first.
func (s *Store) ListPurchases(ctx context.Context, username string) ([]domain.UserPurchase, error) {
	rows, err := s.pool.Query(ctx, listUserPurchases, username)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	purchases := []domain.UserPurchase{}
	for rows.Next() {
		var (
			p     domain.UserPurchase
			price string
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.ItemName, &p.ItemType, &price, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		if p.Price, err = parseDecimal(price); err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return purchases, nil
}

// OwnedItemNames returns the distinct item names in a user's history.
func (s *Store) OwnedItemNames(ctx context.Context, username string) ([]string, error) {
	rows, err := s.pool.Query(ctx, listOwnedItemNames, username)
	if err != nil {
		return nil, fmt.Errorf("failed to list owned items: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan owned item: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list owned items: %w", err)
	}
	return names, nil
}
