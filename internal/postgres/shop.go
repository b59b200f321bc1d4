package postgres

import (
	"context"
	"fmt"

	"github.com/dukerupert/deltamc/internal/domain"
	"github.com/jackc/pgx/v5"
)

const (
	shopColumns = `id, name, description, price::text, category, image_url`

	listShopItems     = `SELECT ` + shopColumns + ` FROM shop ORDER BY price ASC, name ASC`
	getShopItemByID   = `SELECT ` + shopColumns + ` FROM shop WHERE id = $1`
	getShopItemByName = `SELECT ` + shopColumns + ` FROM shop WHERE name = $1`

	listRecentSupporters = `
SELECT name, item, created_at
FROM recent_supporters
ORDER BY created_at DESC, id DESC
LIMIT $1`

	listOnlinePlayers = `SELECT gamemodes, count FROM online_players`
)

func scanShopItem(row pgx.Row) (*domain.ShopItem, error) {
	var (
		item  domain.ShopItem
		price string
	)
	if err := row.Scan(&item.ID, &item.Name, &item.Description, &price, &item.Category, &item.ImageURL); err != nil {
		return nil, err
	}
	var err error
	if item.Price, err = parseDecimal(price); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItems returns the shop catalog ordered by price.
func (s *Store) ListItems(ctx context.Context) ([]domain.ShopItem, error) {
	rows, err := s.pool.Query(ctx, listShopItems)
	if err != nil {
		return nil, fmt.Errorf("failed to list shop items: %w", err)
	}
	defer rows.Close()

	items := []domain.ShopItem{}
	for rows.Next() {
		item, err := scanShopItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shop item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list shop items: %w", err)
	}
	return items, nil
}

// GetItemByID returns a shop item by id.
func (s *Store) GetItemByID(ctx context.Context, id string) (*domain.ShopItem, error) {
	item, err := scanShopItem(s.pool.QueryRow(ctx, getShopItemByID, id))
	if isNoRows(err) {
		return nil, domain.ErrShopItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop item: %w", err)
	}
	return item, nil
}

// GetItemByName returns a shop item by its display name.
func (s *Store) GetItemByName(ctx context.Context, name string) (*domain.ShopItem, error) {
	item, err := scanShopItem(s.pool.QueryRow(ctx, getShopItemByName, name))
	if isNoRows(err) {
		return nil, domain.ErrShopItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop item: %w", err)
	}
	return item, nil
}

// ListRecentSupporters returns the newest supporter feed entries.
func (s *Store) ListRecentSupporters(ctx context.Context, limit int) ([]domain.Supporter, error) {
	rows, err := s.pool.Query(ctx, listRecentSupporters, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list supporters: %w", err)
	}

	supporters, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Supporter, error) {
		var sup domain.Supporter
		err := row.Scan(&sup.Name, &sup.Item, &sup.CreatedAt)
		return sup, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list supporters: %w", err)
	}
	return supporters, nil
}

// ListOnlinePlayers returns the player count per gamemode.
func (s *Store) ListOnlinePlayers(ctx context.Context) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, listOnlinePlayers)
	if err != nil {
		return nil, fmt.Errorf("failed to list online players: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			gamemode string
			count    int
		)
		if err := rows.Scan(&gamemode, &count); err != nil {
			return nil, fmt.Errorf("failed to scan online players: %w", err)
		}
		counts[gamemode] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list online players: %w", err)
	}
	return counts, nil
}
