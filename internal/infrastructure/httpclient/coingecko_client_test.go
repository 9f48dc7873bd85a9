package httpclient

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"crypto_tracker/internal/app/port"

	"go.uber.org/zap"
)

type route struct {
	status int
	body   string
	err    error
}

// fakeTransport answers by URL prefix and records every request.
type fakeTransport struct {
	mu       sync.Mutex
	routes   map[string]route
	requests []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{routes: make(map[string]route)}
}

func (f *fakeTransport) on(prefix string, r route) *fakeTransport {
	f.routes[prefix] = r
	return f
}

func (f *fakeTransport) Get(_ context.Context, url string) (port.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, url)

	best := ""
	for prefix := range f.routes {
		if strings.HasPrefix(url, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	r, ok := f.routes[best]
	if !ok {
		return port.Response{StatusCode: 404}, nil
	}
	if r.err != nil {
		return port.Response{}, r.err
	}
	return port.Response{StatusCode: r.status, Body: []byte(r.body)}, nil
}

func (f *fakeTransport) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.requests {
		if strings.HasPrefix(u, prefix) {
			n++
		}
	}
	return n
}

const base = "https://api.test/v3"

func newTestClient(tr port.Transport, maxIDs int) *CoinGeckoClient {
	return NewCoinGeckoClient(tr, base+"/", maxIDs, time.Minute, zap.NewNop())
}

func TestCoinDataFetchesHistoryAfterPrice(t *testing.T) {
	tr := newFakeTransport().
		on(base+"/simple/price?ids=bitcoin", route{status: 200, body: `{"bitcoin":{"usd":20000}}`}).
		on(base+"/coins/bitcoin/market_chart", route{status: 200, body: `{"prices":[[1,19000],[2,20000]]}`})

	got, ok := newTestClient(tr, 50).CoinData(context.Background(), "bitcoin")
	if !ok {
		t.Fatal("CoinData() ok = false")
	}
	if got.CurrentPrice != 20000 || len(got.PriceHistory) != 2 {
		t.Errorf("CoinData() = %+v", got)
	}
	if tr.requests[0] != base+"/simple/price?ids=bitcoin&vs_currencies=usd" {
		t.Errorf("first request = %q", tr.requests[0])
	}
	if tr.requests[1] != base+"/coins/bitcoin/market_chart?vs_currency=usd&days=1" {
		t.Errorf("second request = %q", tr.requests[1])
	}
}

func TestCoinDataPartialSuccess(t *testing.T) {
	tr := newFakeTransport().
		on(base+"/simple/price", route{status: 200, body: `{"bitcoin":{"usd":20000}}`}).
		on(base+"/coins/bitcoin/market_chart", route{status: 500, body: `oops`})

	got, ok := newTestClient(tr, 50).CoinData(context.Background(), "bitcoin")
	if !ok {
		t.Fatal("CoinData() ok = false, want partial success")
	}
	if got.CurrentPrice != 20000 {
		t.Errorf("CurrentPrice = %v", got.CurrentPrice)
	}
	if got.PriceHistory == nil || len(got.PriceHistory) != 0 {
		t.Errorf("PriceHistory = %v, want empty non-nil", got.PriceHistory)
	}
}

func TestCoinDataPriceFailureSkipsHistory(t *testing.T) {
	cases := map[string]route{
		"status":    {status: 429, body: `{}`},
		"transport": {err: errors.New("connection reset")},
		"shape":     {status: 200, body: `{"bitcoin":{}}`},
	}
	for name, r := range cases {
		t.Run(name, func(t *testing.T) {
			tr := newFakeTransport().
				on(base+"/simple/price", r).
				on(base+"/coins/", route{status: 200, body: `{"prices":[[1,2]]}`})

			if _, ok := newTestClient(tr, 50).CoinData(context.Background(), "bitcoin"); ok {
				t.Error("CoinData() ok = true, want failure")
			}
			if n := tr.count(base + "/coins/"); n != 0 {
				t.Errorf("history requested %d times after price failure", n)
			}
		})
	}
}

func TestPricesBatchesAndMerges(t *testing.T) {
	tr := newFakeTransport().
		on(base+"/simple/price?ids=bitcoin%2Cethereum", route{status: 200, body: `{"bitcoin":{"usd":20000},"ethereum":{"usd":1500}}`}).
		on(base+"/simple/price?ids=solana", route{status: 200, body: `{"solana":{"usd":150}}`})

	got, ok := newTestClient(tr, 2).Prices(context.Background(), []string{"bitcoin", "ethereum", "bitcoin", "solana"})
	if !ok {
		t.Fatal("Prices() ok = false")
	}
	if len(got) != 3 || got["bitcoin"] != 20000 || got["ethereum"] != 1500 || got["solana"] != 150 {
		t.Errorf("Prices() = %v", got)
	}
	if n := tr.count(base + "/simple/price"); n != 2 {
		t.Errorf("made %d price requests, want 2", n)
	}
}

func TestPricesFailsWhenAnyBatchFails(t *testing.T) {
	cases := map[string]route{
		"status":    {status: 503},
		"transport": {err: errors.New("connection reset")},
	}
	for name, r := range cases {
		t.Run(name, func(t *testing.T) {
			tr := newFakeTransport().
				on(base+"/simple/price?ids=bitcoin%2Cethereum", route{status: 200, body: `{"bitcoin":{"usd":20000},"ethereum":{"usd":1500}}`}).
				on(base+"/simple/price?ids=solana", r)

			got, ok := newTestClient(tr, 2).Prices(context.Background(), []string{"bitcoin", "ethereum", "solana"})
			if ok {
				t.Fatalf("Prices() ok = true with %v, want failure", got)
			}
			if len(got) != 0 {
				t.Errorf("Prices() = %v, want empty index on failure", got)
			}
		})
	}
}

func TestPricesAllBatchesFail(t *testing.T) {
	tr := newFakeTransport().on(base+"/simple/price", route{err: errors.New("dns")})

	if _, ok := newTestClient(tr, 50).Prices(context.Background(), []string{"bitcoin"}); ok {
		t.Error("Prices() ok = true, want failure")
	}
}

func TestOHLC(t *testing.T) {
	tr := newFakeTransport().
		on(base+"/coins/bitcoin/ohlc?vs_currency=usd&days=7", route{status: 200, body: `[[1,2,3,1,2.5]]`})

	got, ok := newTestClient(tr, 50).OHLC(context.Background(), "bitcoin", 7)
	if !ok || got.Len() != 1 || got.Close[0] != 2.5 {
		t.Errorf("OHLC() = %+v, %v", got, ok)
	}

	if _, ok := newTestClient(tr, 50).OHLC(context.Background(), "ethereum", 7); ok {
		t.Error("OHLC() for unknown coin ok = true")
	}
}

func TestSearchIsCached(t *testing.T) {
	tr := newFakeTransport().
		on(base+"/search?query=btc", route{status: 200, body: `{"coins":[{"id":"bitcoin","name":"Bitcoin","symbol":"btc"}]}`})
	c := newTestClient(tr, 50)

	for i := 0; i < 3; i++ {
		got, ok := c.Search(context.Background(), "  BTC ")
		if !ok || len(got) != 1 || got[0].Ticker != "BTC" {
			t.Fatalf("Search() = %v, %v", got, ok)
		}
	}
	if n := tr.count(base + "/search"); n != 1 {
		t.Errorf("made %d search requests, want 1", n)
	}
}

func TestSearchFailureIsNotCached(t *testing.T) {
	tr := newFakeTransport().on(base+"/search", route{status: 500})
	c := newTestClient(tr, 50)

	for i := 0; i < 2; i++ {
		if _, ok := c.Search(context.Background(), "eth"); ok {
			t.Fatal("Search() ok = true, want failure")
		}
	}
	if n := tr.count(base + "/search"); n != 2 {
		t.Errorf("made %d search requests, want 2", n)
	}
}

func TestSearchReturnsCopyOfCachedResults(t *testing.T) {
	tr := newFakeTransport().
		on(base+"/search?query=btc", route{status: 200, body: `{"coins":[{"id":"bitcoin","name":"Bitcoin","symbol":"btc"}]}`})
	c := newTestClient(tr, 50)

	first, ok := c.Search(context.Background(), "btc")
	if !ok || len(first) != 1 {
		t.Fatalf("Search() = %v, %v", first, ok)
	}
	first[0].APIID = "mutated"

	second, ok := c.Search(context.Background(), "btc")
	if !ok || len(second) != 1 {
		t.Fatalf("Search() = %v, %v", second, ok)
	}
	if second[0].APIID != "bitcoin" {
		t.Errorf("cached result changed through a returned slice: %+v", second[0])
	}
	second[0].Name = "changed again"

	third, _ := c.Search(context.Background(), "btc")
	if third[0].Name != "Bitcoin" {
		t.Errorf("cached result changed through a cache hit: %+v", third[0])
	}
	if n := tr.count(base + "/search"); n != 1 {
		t.Errorf("made %d search requests, want 1", n)
	}
}

func TestGetAcceptsAny2xxStatus(t *testing.T) {
	tests := []struct {
		status int
		wantOK bool
	}{
		{200, true},
		{201, true},
		{203, true},
		{299, true},
		{199, false},
		{301, false},
		{304, false},
		{404, false},
		{429, false},
		{500, false},
	}
	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.status), func(t *testing.T) {
			tr := newFakeTransport().
				on(base+"/simple/price", route{status: tt.status, body: `{"bitcoin":{"usd":20000}}`})

			_, ok := newTestClient(tr, 50).CoinPrice(context.Background(), "bitcoin")
			if ok != tt.wantOK {
				t.Errorf("CoinPrice() with status %d ok = %v, want %v", tt.status, ok, tt.wantOK)
			}
		})
	}
}
