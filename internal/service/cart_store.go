package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dukerupert/deltamc/internal/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultCartTTL is how long an untouched cart is kept.
const DefaultCartTTL = 7 * 24 * time.Hour

// CartStore keeps one cart per session id.
type CartStore interface {
	// Load returns the session's cart, or an empty cart when there is none.
	Load(ctx context.Context, sessionID string) (*domain.Cart, error)
	Save(ctx context.Context, sessionID string, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

type memoryCart struct {
	cart      domain.Cart
	expiresAt time.Time
}

// MemoryCartStore keeps carts in process memory. Carts are dropped lazily once
// they have not been saved for ttl.
type MemoryCartStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	carts map[string]memoryCart
}

func NewMemoryCartStore(ttl time.Duration) *MemoryCartStore {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	return &MemoryCartStore{
		ttl:   ttl,
		now:   time.Now,
		carts: make(map[string]memoryCart),
	}
}

func (s *MemoryCartStore) Load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.carts[sessionID]
	if !ok {
		return domain.NewCart(), nil
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.carts, sessionID)
		return domain.NewCart(), nil
	}

	cart := entry.cart
	cart.Items = append([]domain.CartItem{}, entry.cart.Items...)
	if entry.cart.Giftcard != nil {
		g := *entry.cart.Giftcard
		cart.Giftcard = &g
	}
	return &cart, nil
}

func (s *MemoryCartStore) Save(ctx context.Context, sessionID string, cart *domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *cart
	stored.Items = append([]domain.CartItem{}, cart.Items...)
	if cart.Giftcard != nil {
		g := *cart.Giftcard
		stored.Giftcard = &g
	}
	s.carts[sessionID] = memoryCart{cart: stored, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryCartStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	return nil
}

// EvictExpired drops carts that expired without being loaded again.
func (s *MemoryCartStore) EvictExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var removed int64
	for id, entry := range s.carts {
		if !now.Before(entry.expiresAt) {
			delete(s.carts, id)
			removed++
		}
	}
	return removed, nil
}

const cartKeyPrefix = "cart:"

// RedisCartStore keeps carts in redis as JSON so every server instance sees
// the same cart.
type RedisCartStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartStore(client *redis.Client, ttl time.Duration) *RedisCartStore {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	return &RedisCartStore{client: client, ttl: ttl}
}

func (s *RedisCartStore) Load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	data, err := s.client.Get(ctx, cartKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.NewCart(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart failed: %w", err)
	}

	cart := domain.NewCart()
	if err := json.Unmarshal(data, cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return cart, nil
}

func (s *RedisCartStore) Save(ctx context.Context, sessionID string, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := s.client.Set(ctx, cartKeyPrefix+sessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart failed: %w", err)
	}
	return nil
}

func (s *RedisCartStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("redis delete cart failed: %w", err)
	}
	return nil
}
