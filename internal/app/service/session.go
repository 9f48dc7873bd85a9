package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"crypto_tracker/internal/app/analysis"
	"crypto_tracker/internal/app/port"
	"crypto_tracker/internal/domain/entity"
	"crypto_tracker/internal/pkg/metrics"
)

// ErrSessionClosed is returned by Do once Run has returned.
var ErrSessionClosed = errors.New("session closed")

const (
	StatusReady        = "Ready"
	StatusNetworkError = "Network Error"
)

// SessionConfig holds the tunables of a Session.
type SessionConfig struct {
	RefreshInterval   time.Duration
	SMAPeriods        []int
	PauseWhileEditing bool
}

type command struct {
	fn   func(*Session) error
	done chan error
}

// Session is the foreground state machine. Every method except View and Do
// must be called from the goroutine driving Tick (Run does this).
type Session struct {
	cfg       SessionConfig
	portfolio *Portfolio
	orch      *Orchestrator
	refresh   *RefreshController
	logger    port.Logger

	kind      ViewKind
	selected  string
	snapshots map[string]entity.CoinSnapshot
	overlays  map[string][]analysis.Series
	// coinQueued is set when the selected coin could not be fetched because
	// another coin's fetch was still running.
	coinQueued bool
	prices    entity.PriceIndex
	summary   entity.PortfolioSummary
	status    string
	editing   bool

	searchQuery   string
	searchResults []entity.CoinDefinition

	commands  chan command
	closed    chan struct{}
	published atomic.Pointer[View]
}

// NewSession creates a Session showing the overview. No fetch is started
// until SelectOverview or SelectCoin is called.
func NewSession(cfg SessionConfig, portfolio *Portfolio, orch *Orchestrator, logger port.Logger) *Session {
	s := &Session{
		cfg:       cfg,
		portfolio: portfolio,
		orch:      orch,
		refresh:   NewRefreshController(cfg.RefreshInterval),
		logger:    logger,
		kind:      ViewOverview,
		snapshots: make(map[string]entity.CoinSnapshot),
		overlays:  make(map[string][]analysis.Series),
		prices:    entity.PriceIndex{},
		status:    StatusReady,
		commands:  make(chan command),
		closed:    make(chan struct{}),
	}
	s.summary = portfolio.Summary(s.prices)
	s.publish()
	return s
}

// View returns the last published state.
func (s *Session) View() *View {
	return s.published.Load()
}

// Do runs fn on the foreground loop and waits for its result. It is the only
// way for other goroutines to mutate the session.
func (s *Session) Do(ctx context.Context, fn func(*Session) error) error {
	cmd := command{fn: fn, done: make(chan error, 1)}
	select {
	case s.commands <- cmd:
	case <-s.closed:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drives Tick every tick until ctx is cancelled, executing submitted
// commands in between. In-flight fetches are cancelled on return.
func (s *Session) Run(ctx context.Context, tick time.Duration) error {
	if tick <= 0 {
		tick = 100 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	defer s.orch.Close()
	defer close(s.closed)

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Session loop stopped")
			return nil
		case cmd := <-s.commands:
			cmd.done <- s.runCommand(cmd.fn)
			s.publish()
		case now := <-ticker.C:
			s.Tick(now.Sub(last))
			last = now
		}
	}
}

func (s *Session) runCommand(fn func(*Session) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Session command panicked", "panic", r)
			err = fmt.Errorf("session command panicked: %v", r)
		}
	}()
	return fn(s)
}

// Tick polls every category, applies finished results, advances the refresh
// timer and publishes a new View.
func (s *Session) Tick(dt time.Duration) {
	s.orch.PollOverview(s.applyOverview)
	s.orch.PollCoin(s.applyCoin)
	s.orch.PollSearch(s.applySearch)

	// A coin selected while another coin's fetch was running still needs its own fetch.
	if s.coinQueued && s.kind == ViewCoin && s.startCoin(s.selected) {
		s.refresh.Reset()
	}

	category := s.activeCategory()
	paused := s.cfg.PauseWhileEditing && s.editing
	if !paused {
		s.refresh.Tick(dt, s.orch.IsPending(category), func() bool {
			s.logger.Debug("Auto refresh", "view", string(s.kind), "selected", s.selected)
			return s.startActive()
		})
	}

	s.publish()
}

func (s *Session) activeCategory() entity.FetchCategory {
	if s.kind == ViewCoin {
		return entity.CategoryCoin
	}
	return entity.CategoryOverview
}

func (s *Session) startActive() bool {
	if s.kind == ViewCoin {
		return s.startCoin(s.selected)
	}
	return s.startOverview()
}

func (s *Session) startOverview() bool {
	if !s.orch.StartOverview(s.portfolio.Catalog.IDs()) {
		return false
	}
	s.status = "Fetching prices..."
	return true
}

func (s *Session) startCoin(apiID string) bool {
	if !s.orch.StartCoin(apiID) {
		s.coinQueued = s.orch.PendingKey(entity.CategoryCoin) != apiID
		return false
	}
	s.coinQueued = false
	name := apiID
	if def, ok := s.portfolio.Catalog.Get(apiID); ok {
		name = def.Label()
	}
	s.status = "Fetching " + name + "..."
	return true
}

// SelectOverview switches to the portfolio overview and fetches prices.
func (s *Session) SelectOverview() {
	s.kind = ViewOverview
	s.selected = ""
	s.coinQueued = false
	if s.startOverview() {
		s.refresh.Reset()
	}
}

// SelectCoin switches to the detail view of a tracked coin and fetches it.
func (s *Session) SelectCoin(apiID string) error {
	if !s.portfolio.Catalog.Contains(apiID) {
		return fmt.Errorf("%w: %s", entity.ErrCoinNotFound, apiID)
	}
	s.kind = ViewCoin
	s.selected = apiID
	if s.startCoin(apiID) {
		s.refresh.Reset()
	}
	return nil
}

// Refresh refetches the active view now. Returns false if its fetch is already pending.
func (s *Session) Refresh() bool {
	if !s.startActive() {
		return false
	}
	s.refresh.Reset()
	return true
}

// Search starts a coin search. Returns false if a search is already pending.
func (s *Session) Search(query string) bool {
	query = strings.TrimSpace(query)
	if !s.orch.StartSearch(query) {
		return false
	}
	s.searchQuery = query
	s.status = "Searching..."
	return true
}

// AddCoin adds a coin to the catalog.
func (s *Session) AddCoin(def entity.CoinDefinition) (entity.CoinDefinition, error) {
	added, err := s.portfolio.AddCoin(def)
	if err != nil {
		return entity.CoinDefinition{}, err
	}
	s.status = "Added: " + added.APIID
	return added, nil
}

// RemoveCoin drops a coin and its holdings. If it was selected the session
// falls back to the overview.
func (s *Session) RemoveCoin(apiID string) error {
	if err := s.portfolio.RemoveCoin(apiID); err != nil {
		return err
	}
	delete(s.snapshots, apiID)
	delete(s.overlays, apiID)
	delete(s.prices, apiID)
	s.recomputeSummary()
	s.status = "Removed: " + apiID
	if s.kind == ViewCoin && s.selected == apiID {
		s.kind = ViewOverview
		s.selected = ""
		s.coinQueued = false
	}
	return nil
}

// SetEditing marks whether the user is editing holdings.
func (s *Session) SetEditing(editing bool) {
	s.editing = editing
}

// SetHoldings commits an edited holding and ends the edit.
func (s *Session) SetHoldings(apiID string, amount, buyPrice float64) (entity.PortfolioEntry, error) {
	entry, err := s.portfolio.SetHoldings(apiID, amount, buyPrice)
	if err != nil {
		return entity.PortfolioEntry{}, err
	}
	s.editing = false
	s.recomputeSummary()
	s.status = "Saved: " + apiID
	return entry, nil
}

func (s *Session) applyOverview(prices entity.PriceIndex, ok bool) {
	if !ok {
		s.status = StatusNetworkError
		return
	}
	s.prices = prices
	s.recomputeSummary()
	s.status = "Portfolio updated"
	s.refresh.Reset()
}

func (s *Session) applyCoin(apiID string, snap entity.CoinSnapshot, ok bool) {
	if !ok {
		s.status = StatusNetworkError
		return
	}
	if !s.portfolio.Catalog.Contains(apiID) {
		s.logger.Debug("Dropping result for untracked coin", "apiId", apiID)
		return
	}
	if snap.ID == "" {
		snap.ID = apiID
	}
	s.snapshots[apiID] = snap
	s.overlays[apiID] = analysis.MovingAverages(snap.PriceHistory, s.cfg.SMAPeriods)
	s.status = "Updated: " + apiID
	s.refresh.Reset()
}

func (s *Session) applySearch(query string, results []entity.CoinDefinition, ok bool) {
	if !ok {
		s.status = "Search failed"
		return
	}
	s.searchQuery = query
	s.searchResults = results
	s.status = fmt.Sprintf("Found %d coins", len(results))
}

func (s *Session) recomputeSummary() {
	s.summary = s.portfolio.Summary(s.prices)
	metrics.NetWorthUSD.Set(s.summary.NetWorth)
	metrics.CostBasisUSD.Set(s.summary.CostBasis)
}

// Snapshot returns the last fetched data for apiID.
func (s *Session) Snapshot(apiID string) (entity.CoinSnapshot, bool) {
	snap, ok := s.snapshots[apiID]
	return snap, ok
}

// Summary returns the portfolio valued at the last fetched prices.
func (s *Session) Summary() entity.PortfolioSummary {
	return s.summary
}

// Status returns the current status line.
func (s *Session) Status() string {
	return s.status
}

func (s *Session) publish() {
	v := &View{
		Kind:          s.kind,
		SelectedID:    s.selected,
		Status:        s.status,
		Editing:       s.editing,
		Coins:         s.portfolio.Catalog.Coins(),
		Entries:       s.portfolio.Ledger.Entries(),
		Prices:        make(entity.PriceIndex, len(s.prices)),
		Summary:       s.summary,
		SearchQuery:   s.searchQuery,
		SearchResults: append([]entity.CoinDefinition(nil), s.searchResults...),
		Fetches: map[entity.FetchCategory]entity.FetchState{
			entity.CategoryOverview: s.orch.State(entity.CategoryOverview),
			entity.CategoryCoin:     s.orch.State(entity.CategoryCoin),
			entity.CategorySearch:   s.orch.State(entity.CategorySearch),
		},
		UpdatedAt: time.Now(),
	}
	for id, p := range s.prices {
		v.Prices[id] = p
	}
	v.Summary.Allocation = append([]entity.Allocation(nil), s.summary.Allocation...)

	if s.kind == ViewCoin {
		def, _ := s.portfolio.Catalog.Get(s.selected)
		snap := s.snapshots[s.selected]
		v.Coin = &CoinView{
			Definition: def,
			Snapshot:   snap,
			Position:   s.portfolio.Ledger.Position(s.selected, snap.CurrentPrice),
			Indicators: s.overlays[s.selected],
			Loading:    s.orch.PendingKey(entity.CategoryCoin) == s.selected,
		}
	}
	s.published.Store(v)
}
