package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"crypto_tracker/internal/app/port"
	"crypto_tracker/internal/domain/entity"
	"crypto_tracker/internal/pkg/utils"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxParallelBatches bounds concurrent batch price requests within one fetch.
const maxParallelBatches = 4

var errBatchFailed = errors.New("batch price request failed")

// CoinGeckoClient is the price gateway. It is the only component aware of the
// CoinGecko URL shapes; it turns every failure into ok == false.
type CoinGeckoClient struct {
	transport        port.Transport
	baseURL          string
	maxIDsPerRequest int
	searchCache      *cache.Cache
	logger           *zap.Logger
}

// NewCoinGeckoClient creates a gateway over transport.
func NewCoinGeckoClient(transport port.Transport, baseURL string, maxIDsPerRequest int, searchCacheTTL time.Duration, logger *zap.Logger) *CoinGeckoClient {
	if maxIDsPerRequest <= 0 {
		maxIDsPerRequest = 50
	}
	return &CoinGeckoClient{
		transport:        transport,
		baseURL:          strings.TrimRight(baseURL, "/"),
		maxIDsPerRequest: maxIDsPerRequest,
		searchCache:      cache.New(searchCacheTTL, 2*searchCacheTTL),
		logger:           logger.Named("CoinGeckoClient"),
	}
}

var _ port.MarketGateway = (*CoinGeckoClient)(nil)

func (c *CoinGeckoClient) simplePriceURL(ids []string) string {
	return fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=%s", c.baseURL, url.QueryEscape(strings.Join(ids, ",")), quoteCurrency)
}

func (c *CoinGeckoClient) marketChartURL(apiID string) string {
	return fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=%s&days=1", c.baseURL, url.PathEscape(apiID), quoteCurrency)
}

func (c *CoinGeckoClient) ohlcURL(apiID string, days int) string {
	return fmt.Sprintf("%s/coins/%s/ohlc?vs_currency=%s&days=%d", c.baseURL, url.PathEscape(apiID), quoteCurrency, days)
}

func (c *CoinGeckoClient) searchURL(query string) string {
	return fmt.Sprintf("%s/search?query=%s", c.baseURL, url.QueryEscape(query))
}

// get returns the body of a 2xx response, or ok == false.
func (c *CoinGeckoClient) get(ctx context.Context, requestURL string) ([]byte, bool) {
	resp, err := c.transport.Get(ctx, requestURL)
	if err != nil {
		c.logger.Warn("Price API request failed", zap.String("url", requestURL), zap.Error(err))
		return nil, false
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Price API request returned non-OK status",
			zap.String("url", requestURL), zap.Int("statusCode", resp.StatusCode))
		return nil, false
	}
	return resp.Body, true
}

// CoinPrice implements port.MarketGateway.
func (c *CoinGeckoClient) CoinPrice(ctx context.Context, apiID string) (entity.CoinSnapshot, bool) {
	body, ok := c.get(ctx, c.simplePriceURL([]string{apiID}))
	if !ok {
		return entity.CoinSnapshot{}, false
	}
	snapshot, ok := ParseCoinPrice(body, apiID)
	if !ok {
		c.logger.Warn("Unexpected simple price payload", zap.String("apiID", apiID), zap.ByteString("body", body))
	}
	return snapshot, ok
}

// CoinData implements port.MarketGateway. History is only requested once the
// price is known; a failed history request leaves PriceHistory empty.
func (c *CoinGeckoClient) CoinData(ctx context.Context, apiID string) (entity.CoinSnapshot, bool) {
	snapshot, ok := c.CoinPrice(ctx, apiID)
	if !ok {
		return entity.CoinSnapshot{}, false
	}
	history, ok := c.History(ctx, apiID)
	if !ok {
		c.logger.Debug("History unavailable, returning price only", zap.String("apiID", apiID))
		history = []float64{}
	}
	snapshot.PriceHistory = history
	return snapshot, true
}

// History implements port.MarketGateway.
func (c *CoinGeckoClient) History(ctx context.Context, apiID string) ([]float64, bool) {
	body, ok := c.get(ctx, c.marketChartURL(apiID))
	if !ok {
		return nil, false
	}
	return ParseHistory(body), true
}

// Prices implements port.MarketGateway. Ids are split into batches of
// maxIDsPerRequest. The call fails if any batch fails, since callers replace
// their price index wholesale and a partial one would drop coins.
func (c *CoinGeckoClient) Prices(ctx context.Context, apiIDs []string) (entity.PriceIndex, bool) {
	if len(apiIDs) == 0 {
		return entity.PriceIndex{}, true
	}

	batches := utils.BatchStrings(utils.UniqueStrings(apiIDs), c.maxIDsPerRequest)
	index := entity.PriceIndex{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelBatches)
	for _, batch := range batches {
		batch := batch
		g.Go(func() error {
			body, ok := c.get(gctx, c.simplePriceURL(batch))
			if !ok {
				return errBatchFailed
			}
			prices := ParseMultiPrice(body)
			mu.Lock()
			defer mu.Unlock()
			for id, price := range prices {
				index[id] = price
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Warn("Batch price fetch failed, discarding partial result",
			zap.Int("requested", len(apiIDs)), zap.Int("batches", len(batches)))
		return entity.PriceIndex{}, false
	}
	c.logger.Debug("Fetched batch prices",
		zap.Int("requested", len(apiIDs)), zap.Int("priced", len(index)), zap.Int("batches", len(batches)))
	return index, true
}

// OHLC implements port.MarketGateway.
func (c *CoinGeckoClient) OHLC(ctx context.Context, apiID string, days int) (entity.OHLC, bool) {
	if days <= 0 {
		days = 1
	}
	body, ok := c.get(ctx, c.ohlcURL(apiID, days))
	if !ok {
		return entity.OHLC{}, false
	}
	ohlc, ok := ParseOHLC(body)
	if !ok || ohlc.Len() == 0 {
		return entity.OHLC{}, false
	}
	return ohlc, true
}

// Search implements port.MarketGateway. Successful results are cached per
// normalized query; callers always get their own copy.
func (c *CoinGeckoClient) Search(ctx context.Context, query string) ([]entity.CoinDefinition, bool) {
	key := strings.ToLower(strings.TrimSpace(query))
	if key == "" {
		return []entity.CoinDefinition{}, true
	}
	if cached, found := c.searchCache.Get(key); found {
		c.logger.Debug("Search cache hit", zap.String("query", key))
		return slices.Clone(cached.([]entity.CoinDefinition)), true
	}

	body, ok := c.get(ctx, c.searchURL(key))
	if !ok {
		return nil, false
	}
	coins := ParseSearchResults(body)
	c.searchCache.SetDefault(key, coins)
	return slices.Clone(coins), true
}
