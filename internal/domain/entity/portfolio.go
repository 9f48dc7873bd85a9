package entity

import "math"

// DustThreshold is the amount below which a holding or a valuation is treated as zero.
const DustThreshold = 1e-5

// PortfolioEntry is the user's holding of one coin.
type PortfolioEntry struct {
	Amount   float64 `json:"amount"`
	BuyPrice float64 `json:"buyPrice"`
}

// Clamped returns a copy with negative or NaN fields replaced by zero.
func (e PortfolioEntry) Clamped() PortfolioEntry {
	return PortfolioEntry{Amount: nonNegative(e.Amount), BuyPrice: nonNegative(e.BuyPrice)}
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

// Allocation is one slice of the portfolio pie.
type Allocation struct {
	APIID  string  `json:"apiId"`
	Ticker string  `json:"ticker"`
	Value  float64 `json:"value"`
}

// PortfolioSummary is derived from the catalog, the ledger and a price index.
// NetWorth always equals the sum of Allocation values.
type PortfolioSummary struct {
	NetWorth   float64      `json:"netWorth"`
	CostBasis  float64      `json:"costBasis"`
	Allocation []Allocation `json:"allocation"`
}

// PnL is net worth minus cost basis.
func (s PortfolioSummary) PnL() float64 {
	return s.NetWorth - s.CostBasis
}

// PnLPercent is PnL relative to cost basis, or zero when nothing was paid.
func (s PortfolioSummary) PnLPercent() float64 {
	return percentOf(s.PnL(), s.CostBasis)
}

// CoinPosition is the valuation of a single holding at a given price.
type CoinPosition struct {
	APIID        string  `json:"apiId"`
	Amount       float64 `json:"amount"`
	BuyPrice     float64 `json:"buyPrice"`
	CurrentPrice float64 `json:"currentPrice"`
	Value        float64 `json:"value"`
	Cost         float64 `json:"cost"`
}

// NewCoinPosition values entry at price.
func NewCoinPosition(apiID string, entry PortfolioEntry, price float64) CoinPosition {
	return CoinPosition{
		APIID:        apiID,
		Amount:       entry.Amount,
		BuyPrice:     entry.BuyPrice,
		CurrentPrice: price,
		Value:        entry.Amount * price,
		Cost:         entry.Amount * entry.BuyPrice,
	}
}

// PnL is value minus cost.
func (p CoinPosition) PnL() float64 {
	return p.Value - p.Cost
}

// PnLPercent is PnL relative to cost, or zero when cost is zero.
func (p CoinPosition) PnLPercent() float64 {
	return percentOf(p.PnL(), p.Cost)
}

func percentOf(pnl, base float64) float64 {
	if base > 0 {
		return pnl / base * 100
	}
	return 0
}
