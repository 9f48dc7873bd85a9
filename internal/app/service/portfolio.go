package service

import (
	"fmt"

	"crypto_tracker/internal/app/port"
	"crypto_tracker/internal/domain/entity"
)

// Portfolio ties the catalog and the ledger to one store so that changes
// spanning both are persisted together.
type Portfolio struct {
	Catalog *Catalog
	Ledger  *Ledger
	store   port.Store
	logger  port.Logger
}

// NewPortfolio loads catalog and ledger from store.
func NewPortfolio(store port.Store, logger port.Logger) *Portfolio {
	p := &Portfolio{
		Catalog: NewCatalog(store),
		Ledger:  NewLedger(store),
		store:   store,
		logger:  logger,
	}
	logger.Info("Portfolio loaded", "coins", p.Catalog.Len(), "holdings", len(p.Ledger.entries))
	return p
}

// AddCoin starts tracking def.
func (p *Portfolio) AddCoin(def entity.CoinDefinition) (entity.CoinDefinition, error) {
	added, err := p.Catalog.Add(def)
	if err != nil {
		p.logger.Warn("Failed to add coin", "apiId", def.APIID, "error", err)
		return entity.CoinDefinition{}, err
	}
	p.logger.Info("Coin added to catalog", "apiId", added.APIID, "ticker", added.Ticker)
	return added, nil
}

// RemoveCoin drops apiID from the catalog and its holding from the ledger.
// Both are written in a single SaveAll; on failure neither changes.
func (p *Portfolio) RemoveCoin(apiID string) error {
	if !p.Catalog.Contains(apiID) {
		return fmt.Errorf("%w: %s", entity.ErrCoinNotFound, apiID)
	}

	coins := p.Catalog.without(apiID)
	entries := p.Ledger.without(apiID)
	if err := p.store.SaveAll(coins, entries); err != nil {
		p.logger.Error("Failed to persist coin removal", "apiId", apiID, "error", err)
		return fmt.Errorf("failed to remove %s: %w", apiID, err)
	}
	p.Catalog.coins = coins
	p.Ledger.entries = entries
	p.logger.Info("Coin removed from catalog and ledger", "apiId", apiID)
	return nil
}

// SetHoldings records the holding of a tracked coin. Untracked ids are
// rejected so a stale edit cannot recreate a removed coin's entry.
func (p *Portfolio) SetHoldings(apiID string, amount, buyPrice float64) (entity.PortfolioEntry, error) {
	if !p.Catalog.Contains(apiID) {
		return entity.PortfolioEntry{}, fmt.Errorf("%w: %s", entity.ErrCoinNotFound, apiID)
	}
	entry, err := p.Ledger.SetEntry(apiID, amount, buyPrice)
	if err != nil {
		p.logger.Error("Failed to persist holdings", "apiId", apiID, "error", err)
		return entity.PortfolioEntry{}, err
	}
	p.logger.Debug("Holdings updated", "apiId", apiID, "amount", entry.Amount, "buyPrice", entry.BuyPrice)
	return entry, nil
}

// Summary values the whole portfolio at prices.
func (p *Portfolio) Summary(prices entity.PriceIndex) entity.PortfolioSummary {
	return p.Ledger.ComputeSummary(p.Catalog.Coins(), prices)
}
