package entity

import "strings"

// CoinDefinition describes a tracked coin. APIID is the stable key used by the
// catalog, the ledger and every fetched payload; Name and Ticker are display only.
type CoinDefinition struct {
	Name   string `json:"name" yaml:"name"`
	Ticker string `json:"ticker" yaml:"ticker"`
	APIID  string `json:"api_id" yaml:"apiId"`
}

// Valid reports whether the definition can be added to a catalog.
func (c CoinDefinition) Valid() bool {
	return strings.TrimSpace(c.APIID) != ""
}

// Label returns the "Name (TICKER)" form used in selection lists.
func (c CoinDefinition) Label() string {
	if c.Ticker == "" {
		return c.Name
	}
	return c.Name + " (" + c.Ticker + ")"
}

// DefaultCoins is the seed list used when no catalog has been persisted yet.
func DefaultCoins() []CoinDefinition {
	return []CoinDefinition{
		{Name: "Bitcoin", Ticker: "BTC", APIID: "bitcoin"},
		{Name: "Ethereum", Ticker: "ETH", APIID: "ethereum"},
		{Name: "Solana", Ticker: "SOL", APIID: "solana"},
		{Name: "Dogecoin", Ticker: "DOGE", APIID: "dogecoin"},
		{Name: "Cardano", Ticker: "ADA", APIID: "cardano"},
		{Name: "Polkadot", Ticker: "DOT", APIID: "polkadot"},
	}
}
