// Package catalog loads the event reward catalog once at startup.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/dukerupert/deltamc/internal/domain"
	"github.com/spf13/viper"
)

//go:embed rewards.yaml
var defaultRewards []byte

// Rewards is the immutable reward catalog.
type Rewards struct {
	items []domain.Reward
	byID  map[string]domain.Reward
}

// Load reads the catalog from path, or from the built-in catalog when path is empty.
func Load(path string) (*Rewards, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read reward catalog %s: %w", path, err)
		}
	} else if err := v.ReadConfig(bytes.NewReader(defaultRewards)); err != nil {
		return nil, fmt.Errorf("failed to read built-in reward catalog: %w", err)
	}

	var items []domain.Reward
	if err := v.UnmarshalKey("rewards", &items); err != nil {
		return nil, fmt.Errorf("failed to decode reward catalog: %w", err)
	}

	return New(items)
}

// New builds a catalog from rewards. Ids must be unique and names set.
func New(items []domain.Reward) (*Rewards, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("reward catalog is empty")
	}

	byID := make(map[string]domain.Reward, len(items))
	for _, r := range items {
		if r.ID == "" || r.Name == "" {
			return nil, fmt.Errorf("reward catalog entry needs an id and a name: %+v", r)
		}
		if _, dup := byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate reward id %q", r.ID)
		}
		byID[r.ID] = r
	}

	return &Rewards{items: items, byID: byID}, nil
}

// All returns the rewards in catalog order.
func (c *Rewards) All() []domain.Reward {
	out := make([]domain.Reward, len(c.items))
	copy(out, c.items)
	return out
}

// Get returns the reward with the given id.
func (c *Rewards) Get(id string) (domain.Reward, bool) {
	r, ok := c.byID[id]
	return r, ok
}
