package service

import (
	"time"

	"crypto_tracker/internal/app/analysis"
	"crypto_tracker/internal/domain/entity"
)

// ViewKind is the screen the session is showing.
type ViewKind string

const (
	ViewOverview ViewKind = "overview"
	ViewCoin     ViewKind = "coin"
)

// View is an immutable copy of the session state, published after every tick.
// It is safe to read from any goroutine.
type View struct {
	Kind       ViewKind
	SelectedID string
	Status     string
	Editing    bool

	Coins   []entity.CoinDefinition
	Entries map[string]entity.PortfolioEntry
	Prices  entity.PriceIndex
	Summary entity.PortfolioSummary

	// Coin is set while a coin is selected.
	Coin *CoinView

	SearchQuery   string
	SearchResults []entity.CoinDefinition

	Fetches   map[entity.FetchCategory]entity.FetchState
	UpdatedAt time.Time
}

// CoinView is the detail of the selected coin.
type CoinView struct {
	Definition entity.CoinDefinition
	Snapshot   entity.CoinSnapshot
	Position   entity.CoinPosition
	Indicators []analysis.Series
	Loading    bool
}

// Loading reports whether category has a fetch in flight.
func (v *View) Loading(category entity.FetchCategory) bool {
	return v.Fetches[category] == entity.FetchPending
}
