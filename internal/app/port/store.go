package port

import "crypto_tracker/internal/domain/entity"

// CatalogStore persists the ordered list of tracked coins. LoadCatalog never
// fails: missing or corrupt storage yields entity.DefaultCoins().
type CatalogStore interface {
	LoadCatalog() []entity.CoinDefinition
	SaveCatalog(coins []entity.CoinDefinition) error
}

// LedgerStore persists holdings keyed by API id. LoadLedger never fails:
// missing or corrupt storage yields an empty ledger.
type LedgerStore interface {
	LoadLedger() map[string]entity.PortfolioEntry
	SaveLedger(ledger map[string]entity.PortfolioEntry) error
}

// Store is the full persistence capability of a session. SaveAll writes the
// catalog and the ledger so that a reader never observes one without the other.
type Store interface {
	CatalogStore
	LedgerStore
	SaveAll(coins []entity.CoinDefinition, ledger map[string]entity.PortfolioEntry) error
}
