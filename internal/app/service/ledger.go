package service

import (
	"fmt"
	"strings"

	"crypto_tracker/internal/app/port"
	"crypto_tracker/internal/domain/entity"
)

// Ledger holds the user's holdings keyed by API id.
type Ledger struct {
	entries map[string]entity.PortfolioEntry
	store   port.LedgerStore
}

// NewLedger loads the ledger from store. Loaded entries are clamped like any other write.
func NewLedger(store port.LedgerStore) *Ledger {
	loaded := store.LoadLedger()
	entries := make(map[string]entity.PortfolioEntry, len(loaded))
	for id, e := range loaded {
		if id = strings.TrimSpace(id); id != "" {
			entries[id] = e.Clamped()
		}
	}
	return &Ledger{entries: entries, store: store}
}

// Entry returns the holding for apiID, or a zero entry. Reading never creates
// an entry, so a removed coin cannot be brought back by a late lookup.
func (l *Ledger) Entry(apiID string) entity.PortfolioEntry {
	return l.entries[apiID]
}

// Entries returns a copy of every stored entry.
func (l *Ledger) Entries() map[string]entity.PortfolioEntry {
	return copyEntries(l.entries)
}

// SetEntry clamps amount and buyPrice to non-negative values and persists the
// ledger immediately. Memory is only updated once the store succeeded.
func (l *Ledger) SetEntry(apiID string, amount, buyPrice float64) (entity.PortfolioEntry, error) {
	apiID = strings.TrimSpace(apiID)
	if apiID == "" {
		return entity.PortfolioEntry{}, entity.ErrInvalidCoin
	}
	entry := entity.PortfolioEntry{Amount: amount, BuyPrice: buyPrice}.Clamped()

	next := copyEntries(l.entries)
	next[apiID] = entry
	if err := l.store.SaveLedger(next); err != nil {
		return entity.PortfolioEntry{}, fmt.Errorf("failed to save ledger: %w", err)
	}
	l.entries = next
	return entry, nil
}

// without returns the entries minus apiID.
func (l *Ledger) without(apiID string) map[string]entity.PortfolioEntry {
	next := copyEntries(l.entries)
	delete(next, apiID)
	return next
}

// ComputeSummary values every catalog coin holding more than dust at the
// given prices. Coins whose value is dust (including unpriced coins) are left
// out of net worth, cost basis and allocation alike.
func (l *Ledger) ComputeSummary(coins []entity.CoinDefinition, prices entity.PriceIndex) entity.PortfolioSummary {
	summary := entity.PortfolioSummary{Allocation: []entity.Allocation{}}
	for _, coin := range coins {
		entry := l.entries[coin.APIID]
		if entry.Amount <= entity.DustThreshold {
			continue
		}
		currentValue := entry.Amount * prices[coin.APIID]
		if currentValue <= entity.DustThreshold {
			continue
		}
		summary.NetWorth += currentValue
		summary.CostBasis += entry.Amount * entry.BuyPrice
		summary.Allocation = append(summary.Allocation, entity.Allocation{
			APIID:  coin.APIID,
			Ticker: coin.Ticker,
			Value:  currentValue,
		})
	}
	return summary
}

// Position values the holding of apiID at price.
func (l *Ledger) Position(apiID string, price float64) entity.CoinPosition {
	return entity.NewCoinPosition(apiID, l.entries[apiID], price)
}

func copyEntries(in map[string]entity.PortfolioEntry) map[string]entity.PortfolioEntry {
	out := make(map[string]entity.PortfolioEntry, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
