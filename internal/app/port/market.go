package port

import (
	"context"

	"crypto_tracker/internal/domain/entity"
)

// Response is the raw result of a GET request.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport performs one blocking GET. It is only ever called from a
// background fetch goroutine.
type Transport interface {
	Get(ctx context.Context, url string) (Response, error)
}

// MarketGateway fetches typed market data. Every method reports failure with
// ok == false; network and parse errors never escape as errors or panics.
type MarketGateway interface {
	// CoinPrice fetches the current price of a single coin.
	CoinPrice(ctx context.Context, apiID string) (entity.CoinSnapshot, bool)

	// CoinData fetches the current price and, if that succeeds, the 24h history.
	// A failed history fetch still yields a valid snapshot with empty history.
	CoinData(ctx context.Context, apiID string) (entity.CoinSnapshot, bool)

	// History fetches the 24h price history of a coin.
	History(ctx context.Context, apiID string) ([]float64, bool)

	// Prices fetches current prices for many coins at once.
	Prices(ctx context.Context, apiIDs []string) (entity.PriceIndex, bool)

	// OHLC fetches candles covering the given number of days.
	OHLC(ctx context.Context, apiID string, days int) (entity.OHLC, bool)

	// Search looks up coins matching a free-text query.
	Search(ctx context.Context, query string) ([]entity.CoinDefinition, bool)
}
