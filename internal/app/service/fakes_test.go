package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"crypto_tracker/internal/domain/entity"
)

var errDiskFull = errors.New("disk full")

// memStore is an in-memory port.Store recording every write.
type memStore struct {
	coins   []entity.CoinDefinition
	ledger  map[string]entity.PortfolioEntry
	fail    bool
	saveAll int
	saves   int
}

func newMemStore(coins []entity.CoinDefinition, ledger map[string]entity.PortfolioEntry) *memStore {
	if ledger == nil {
		ledger = map[string]entity.PortfolioEntry{}
	}
	return &memStore{coins: coins, ledger: ledger}
}

func (m *memStore) LoadCatalog() []entity.CoinDefinition {
	if m.coins == nil {
		return entity.DefaultCoins()
	}
	return append([]entity.CoinDefinition(nil), m.coins...)
}

func (m *memStore) SaveCatalog(coins []entity.CoinDefinition) error {
	if m.fail {
		return errDiskFull
	}
	m.saves++
	m.coins = append([]entity.CoinDefinition(nil), coins...)
	return nil
}

func (m *memStore) LoadLedger() map[string]entity.PortfolioEntry {
	return copyEntries(m.ledger)
}

func (m *memStore) SaveLedger(ledger map[string]entity.PortfolioEntry) error {
	if m.fail {
		return errDiskFull
	}
	m.saves++
	m.ledger = copyEntries(ledger)
	return nil
}

func (m *memStore) SaveAll(coins []entity.CoinDefinition, ledger map[string]entity.PortfolioEntry) error {
	if m.fail {
		return errDiskFull
	}
	m.saveAll++
	m.coins = append([]entity.CoinDefinition(nil), coins...)
	m.ledger = copyEntries(ledger)
	return nil
}

// fakeGateway serves canned data. When gate is non-nil every call blocks
// until it is closed.
type fakeGateway struct {
	mu        sync.Mutex
	gate      chan struct{}
	prices    entity.PriceIndex
	history   []float64
	ohlc      *entity.OHLC
	results   []entity.CoinDefinition
	fail      bool
	panicking bool
	calls     map[string]int
}

func newFakeGateway(prices entity.PriceIndex) *fakeGateway {
	return &fakeGateway{prices: prices, calls: map[string]int{}}
}

func (g *fakeGateway) block() {
	g.mu.Lock()
	g.gate = make(chan struct{})
	g.mu.Unlock()
}

func (g *fakeGateway) release() {
	g.mu.Lock()
	if g.gate != nil {
		close(g.gate)
		g.gate = nil
	}
	g.mu.Unlock()
}

func (g *fakeGateway) setFail(fail bool) {
	g.mu.Lock()
	g.fail = fail
	g.mu.Unlock()
}

func (g *fakeGateway) count(name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[name]
}

// enter records the call and waits on the gate. Reports whether the call should fail.
func (g *fakeGateway) enter(ctx context.Context, name string) bool {
	g.mu.Lock()
	g.calls[name]++
	gate, fail, panicking := g.gate, g.fail, g.panicking
	g.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return true
		}
	}
	if panicking {
		panic("boom")
	}
	return fail
}

func (g *fakeGateway) CoinPrice(ctx context.Context, apiID string) (entity.CoinSnapshot, bool) {
	if g.enter(ctx, "CoinPrice") {
		return entity.CoinSnapshot{}, false
	}
	p, ok := g.prices[apiID]
	return entity.CoinSnapshot{ID: apiID, CurrentPrice: p}, ok
}

func (g *fakeGateway) CoinData(ctx context.Context, apiID string) (entity.CoinSnapshot, bool) {
	if g.enter(ctx, "CoinData") {
		return entity.CoinSnapshot{}, false
	}
	p, ok := g.prices[apiID]
	if !ok {
		return entity.CoinSnapshot{}, false
	}
	return entity.CoinSnapshot{ID: apiID, CurrentPrice: p, PriceHistory: append([]float64{}, g.history...)}, true
}

func (g *fakeGateway) History(ctx context.Context, apiID string) ([]float64, bool) {
	if g.enter(ctx, "History") {
		return nil, false
	}
	return append([]float64{}, g.history...), true
}

func (g *fakeGateway) Prices(ctx context.Context, apiIDs []string) (entity.PriceIndex, bool) {
	if g.enter(ctx, "Prices") {
		return nil, false
	}
	out := entity.PriceIndex{}
	for _, id := range apiIDs {
		if p, ok := g.prices[id]; ok {
			out[id] = p
		}
	}
	return out, true
}

func (g *fakeGateway) OHLC(ctx context.Context, apiID string, days int) (entity.OHLC, bool) {
	g.mu.Lock()
	g.calls["OHLC"]++
	candles := g.ohlc
	g.mu.Unlock()
	if candles == nil {
		return entity.OHLC{}, false
	}
	return *candles, true
}

func (g *fakeGateway) Search(ctx context.Context, query string) ([]entity.CoinDefinition, bool) {
	if g.enter(ctx, "Search") {
		return nil, false
	}
	return append([]entity.CoinDefinition{}, g.results...), true
}

// pollUntilDone polls until the fetch leaves the pending state.
func pollUntilDone(t *testing.T, poll func() PollResult) PollResult {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r := poll(); r != PollPending {
			return r
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("fetch did not complete in time")
	return PollPending
}

// settle ticks the session until no category is pending.
func settle(t *testing.T, s *Session) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.Tick(0)
		if !s.orch.IsPending(entity.CategoryOverview) &&
			!s.orch.IsPending(entity.CategoryCoin) &&
			!s.orch.IsPending(entity.CategorySearch) {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("session did not settle in time")
}
