package entity

// OHLC holds candle series in parallel slices. Index i of every slice
// describes the same candle.
type OHLC struct {
	Time  []float64 `json:"time"`
	Open  []float64 `json:"open"`
	High  []float64 `json:"high"`
	Low   []float64 `json:"low"`
	Close []float64 `json:"close"`
}

// Len returns the number of candles.
func (o OHLC) Len() int {
	return len(o.Time)
}

// CoinSnapshot is the latest fetched market data for one coin. It is replaced
// wholesale on every successful fetch and never mutated in place.
type CoinSnapshot struct {
	ID           string    `json:"id"`
	CurrentPrice float64   `json:"currentPrice"`
	PriceHistory []float64 `json:"priceHistory"`
	OHLC         *OHLC     `json:"ohlc,omitempty"`
}

// HasPrice reports whether a price has been fetched. A zero price means "no data yet".
func (s CoinSnapshot) HasPrice() bool {
	return s.CurrentPrice > 0
}

// HasHistory reports whether the snapshot carries a price history to chart.
func (s CoinSnapshot) HasHistory() bool {
	return len(s.PriceHistory) > 0
}

// PriceIndex maps an API id to its current USD price, as returned by a batch fetch.
type PriceIndex map[string]float64
