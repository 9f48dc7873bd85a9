package service

import (
	"fmt"
	"strings"

	"crypto_tracker/internal/app/port"
	"crypto_tracker/internal/domain/entity"
)

// Catalog is the ordered list of tracked coins, unique by API id.
type Catalog struct {
	coins []entity.CoinDefinition
	store port.CatalogStore
}

// NewCatalog loads the catalog from store, dropping invalid and duplicate entries.
func NewCatalog(store port.CatalogStore) *Catalog {
	return &Catalog{coins: normalizeCoins(store.LoadCatalog()), store: store}
}

func normalizeCoins(in []entity.CoinDefinition) []entity.CoinDefinition {
	seen := make(map[string]struct{}, len(in))
	out := make([]entity.CoinDefinition, 0, len(in))
	for _, c := range in {
		c = normalizeCoin(c)
		if !c.Valid() {
			continue
		}
		if _, dup := seen[c.APIID]; dup {
			continue
		}
		seen[c.APIID] = struct{}{}
		out = append(out, c)
	}
	return out
}

func normalizeCoin(c entity.CoinDefinition) entity.CoinDefinition {
	c.APIID = strings.TrimSpace(c.APIID)
	c.Name = strings.TrimSpace(c.Name)
	c.Ticker = strings.ToUpper(strings.TrimSpace(c.Ticker))
	if c.Name == "" {
		c.Name = c.APIID
	}
	return c
}

// Coins returns a copy of the tracked coins in display order.
func (c *Catalog) Coins() []entity.CoinDefinition {
	return append([]entity.CoinDefinition(nil), c.coins...)
}

// IDs returns the API ids in display order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.coins))
	for i, coin := range c.coins {
		ids[i] = coin.APIID
	}
	return ids
}

// Len returns the number of tracked coins.
func (c *Catalog) Len() int {
	return len(c.coins)
}

// Get looks a coin up by API id.
func (c *Catalog) Get(apiID string) (entity.CoinDefinition, bool) {
	if i := c.index(apiID); i >= 0 {
		return c.coins[i], true
	}
	return entity.CoinDefinition{}, false
}

// Contains reports whether apiID is tracked.
func (c *Catalog) Contains(apiID string) bool {
	return c.index(apiID) >= 0
}

func (c *Catalog) index(apiID string) int {
	for i, coin := range c.coins {
		if coin.APIID == apiID {
			return i
		}
	}
	return -1
}

// Add appends a coin and persists the catalog. The in-memory list only changes
// once the store accepted the new list.
func (c *Catalog) Add(def entity.CoinDefinition) (entity.CoinDefinition, error) {
	def = normalizeCoin(def)
	if !def.Valid() {
		return entity.CoinDefinition{}, entity.ErrInvalidCoin
	}
	if c.Contains(def.APIID) {
		return entity.CoinDefinition{}, fmt.Errorf("%w: %s", entity.ErrCoinExists, def.APIID)
	}

	next := append(c.Coins(), def)
	if err := c.store.SaveCatalog(next); err != nil {
		return entity.CoinDefinition{}, fmt.Errorf("failed to save catalog: %w", err)
	}
	c.coins = next
	return def, nil
}

// without returns the catalog list minus apiID.
func (c *Catalog) without(apiID string) []entity.CoinDefinition {
	out := make([]entity.CoinDefinition, 0, len(c.coins))
	for _, coin := range c.coins {
		if coin.APIID != apiID {
			out = append(out, coin)
		}
	}
	return out
}
