package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"crypto_tracker/internal/app/port"
	"crypto_tracker/internal/domain/entity"
	"crypto_tracker/internal/pkg/metrics"
)

// PollResult tells the caller what a poll did.
type PollResult int

const (
	PollIdle    PollResult = iota // nothing was started
	PollPending                   // still running
	PollApplied                   // a successful result was handed to apply
	PollFailed                    // the fetch failed; apply saw ok == false
)

// outcome is what a background job puts in its mailbox.
type outcome[T any] struct {
	value T
	ok    bool
}

// fetchSlot is the per category state: a lifecycle state plus a one slot
// mailbox written exactly once by the background job.
type fetchSlot[T any] struct {
	category entity.FetchCategory

	mu        sync.Mutex
	state     entity.FetchState
	mailbox   chan outcome[T]
	key       string
	fetchID   string
	startedAt time.Time
}

func newFetchSlot[T any](category entity.FetchCategory) *fetchSlot[T] {
	return &fetchSlot[T]{category: category}
}

func (s *fetchSlot[T]) State() entity.FetchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Orchestrator runs gateway calls off the foreground loop. Each category has
// at most one fetch in flight; categories run independently.
type Orchestrator struct {
	ctx      context.Context
	cancel   context.CancelFunc
	gateway  port.MarketGateway
	ohlcDays int
	logger   port.Logger
	wg       sync.WaitGroup

	overview *fetchSlot[entity.PriceIndex]
	coin     *fetchSlot[entity.CoinSnapshot]
	search   *fetchSlot[[]entity.CoinDefinition]
}

// NewOrchestrator creates an Orchestrator. ohlcDays <= 0 skips the candle
// request in coin fetches.
func NewOrchestrator(gateway port.MarketGateway, ohlcDays int, logger port.Logger) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		ctx:      ctx,
		cancel:   cancel,
		gateway:  gateway,
		ohlcDays: ohlcDays,
		logger:   logger,
		overview: newFetchSlot[entity.PriceIndex](entity.CategoryOverview),
		coin:     newFetchSlot[entity.CoinSnapshot](entity.CategoryCoin),
		search:   newFetchSlot[[]entity.CoinDefinition](entity.CategorySearch),
	}
}

// StartOverview fetches current prices for ids. Returns false if an overview
// fetch is already pending.
func (o *Orchestrator) StartOverview(ids []string) bool {
	ids = append([]string(nil), ids...)
	return start(o, o.overview, fmt.Sprintf("%d coins", len(ids)), func(ctx context.Context) (entity.PriceIndex, bool) {
		return o.gateway.Prices(ctx, ids)
	})
}

// StartCoin fetches price, history and candles for one coin. Returns false if
// a coin fetch is already pending.
func (o *Orchestrator) StartCoin(apiID string) bool {
	return start(o, o.coin, apiID, func(ctx context.Context) (entity.CoinSnapshot, bool) {
		snap, ok := o.gateway.CoinData(ctx, apiID)
		if !ok {
			return entity.CoinSnapshot{}, false
		}
		if o.ohlcDays > 0 {
			if candles, ok := o.gateway.OHLC(ctx, apiID, o.ohlcDays); ok {
				snap.OHLC = &candles
			}
		}
		return snap, true
	})
}

// StartSearch runs a coin search. Returns false if a search is already pending.
func (o *Orchestrator) StartSearch(query string) bool {
	return start(o, o.search, query, func(ctx context.Context) ([]entity.CoinDefinition, bool) {
		return o.gateway.Search(ctx, query)
	})
}

// PollOverview applies a finished overview fetch, if any.
func (o *Orchestrator) PollOverview(apply func(prices entity.PriceIndex, ok bool)) PollResult {
	return poll(o, o.overview, func(_ string, v entity.PriceIndex, ok bool) { apply(v, ok) })
}

// PollCoin applies a finished coin fetch, if any. apiID is the coin the fetch was started for.
func (o *Orchestrator) PollCoin(apply func(apiID string, snap entity.CoinSnapshot, ok bool)) PollResult {
	return poll(o, o.coin, apply)
}

// PollSearch applies a finished search, if any.
func (o *Orchestrator) PollSearch(apply func(query string, results []entity.CoinDefinition, ok bool)) PollResult {
	return poll(o, o.search, apply)
}

// State returns the lifecycle state of a category.
func (o *Orchestrator) State(category entity.FetchCategory) entity.FetchState {
	switch category {
	case entity.CategoryOverview:
		return o.overview.State()
	case entity.CategoryCoin:
		return o.coin.State()
	case entity.CategorySearch:
		return o.search.State()
	default:
		return entity.FetchIdle
	}
}

// IsPending reports whether a fetch of category is in flight.
func (o *Orchestrator) IsPending(category entity.FetchCategory) bool {
	return o.State(category) == entity.FetchPending
}

// PendingKey returns the parameter of the in-flight fetch of category, or "".
func (o *Orchestrator) PendingKey(category entity.FetchCategory) string {
	var s interface {
		pendingKey() string
	}
	switch category {
	case entity.CategoryOverview:
		s = o.overview
	case entity.CategoryCoin:
		s = o.coin
	case entity.CategorySearch:
		s = o.search
	default:
		return ""
	}
	return s.pendingKey()
}

func (s *fetchSlot[T]) pendingKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != entity.FetchPending {
		return ""
	}
	return s.key
}

// Close cancels in-flight requests and waits for their goroutines to finish.
// Results still in mailboxes are discarded.
func (o *Orchestrator) Close() {
	o.cancel()
	o.wg.Wait()
}

func start[T any](o *Orchestrator, s *fetchSlot[T], key string, job func(context.Context) (T, bool)) bool {
	category := s.category.String()

	s.mu.Lock()
	if s.state != entity.FetchIdle {
		state := s.state
		s.mu.Unlock()
		metrics.FetchesRejected.WithLabelValues(category).Inc()
		o.logger.Debug("Fetch already running", "category", category, "state", state.String(), "key", key)
		return false
	}
	mailbox := make(chan outcome[T], 1)
	fetchID := uuid.NewString()
	s.state = entity.FetchPending
	s.mailbox = mailbox
	s.key = key
	s.fetchID = fetchID
	s.startedAt = time.Now()
	s.mu.Unlock()

	metrics.FetchesDispatched.WithLabelValues(category).Inc()
	o.logger.Debug("Fetch dispatched", "category", category, "key", key, "fetchId", fetchID)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		var out outcome[T]
		defer func() {
			if r := recover(); r != nil {
				o.logger.Error("Fetch job panicked", "category", category, "fetchId", fetchID, "panic", r)
				out = outcome[T]{}
			}
			mailbox <- out
		}()
		v, ok := job(o.ctx)
		out = outcome[T]{value: v, ok: ok}
	}()
	return true
}

func poll[T any](o *Orchestrator, s *fetchSlot[T], apply func(key string, value T, ok bool)) PollResult {
	s.mu.Lock()
	if s.state != entity.FetchPending {
		s.mu.Unlock()
		return PollIdle
	}
	var out outcome[T]
	select {
	case out = <-s.mailbox:
	default:
		s.mu.Unlock()
		return PollPending
	}
	key, fetchID, elapsed := s.key, s.fetchID, time.Since(s.startedAt)
	s.mailbox = nil
	if out.ok {
		s.state = entity.FetchApplying
	} else {
		s.state = entity.FetchFailed
	}
	s.mu.Unlock()

	// Whatever apply does, the slot must return to Idle.
	defer func() {
		s.mu.Lock()
		s.state = entity.FetchIdle
		s.key = ""
		s.mu.Unlock()
	}()

	category := s.category.String()
	if !out.ok {
		metrics.FetchesCompleted.WithLabelValues(category, "failed").Inc()
		o.logger.Warn("Fetch failed", "category", category, "key", key, "fetchId", fetchID, "elapsed", elapsed)
		apply(key, out.value, false)
		return PollFailed
	}

	metrics.FetchesCompleted.WithLabelValues(category, "ok").Inc()
	o.logger.Debug("Fetch completed", "category", category, "key", key, "fetchId", fetchID, "elapsed", elapsed)
	apply(key, out.value, true)
	return PollApplied
}
