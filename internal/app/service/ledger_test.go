package service

import (
	"errors"
	"math"
	"testing"

	"crypto_tracker/internal/domain/entity"
)

func btcEth() []entity.CoinDefinition {
	return []entity.CoinDefinition{
		{Name: "Bitcoin", Ticker: "BTC", APIID: "bitcoin"},
		{Name: "Ethereum", Ticker: "ETH", APIID: "ethereum"},
	}
}

func TestLedger_ComputeSummary(t *testing.T) {
	store := newMemStore(btcEth(), map[string]entity.PortfolioEntry{
		"bitcoin":  {Amount: 0.5, BuyPrice: 30000},
		"ethereum": {Amount: 2, BuyPrice: 2000},
	})
	ledger := NewLedger(store)
	prices := entity.PriceIndex{"bitcoin": 40000, "ethereum": 2500}

	summary := ledger.ComputeSummary(btcEth(), prices)

	if summary.NetWorth != 25000 {
		t.Errorf("NetWorth = %v, want 25000", summary.NetWorth)
	}
	if summary.CostBasis != 19000 {
		t.Errorf("CostBasis = %v, want 19000", summary.CostBasis)
	}
	if summary.PnL() != 6000 {
		t.Errorf("PnL = %v, want 6000", summary.PnL())
	}
	if math.Abs(summary.PnLPercent()-31.578947) > 1e-4 {
		t.Errorf("PnLPercent = %v, want ~31.578947", summary.PnLPercent())
	}
	if len(summary.Allocation) != 2 || summary.Allocation[0].Ticker != "BTC" || summary.Allocation[0].Value != 20000 {
		t.Errorf("Allocation = %+v", summary.Allocation)
	}

	again := ledger.ComputeSummary(btcEth(), prices)
	if again.NetWorth != summary.NetWorth || again.CostBasis != summary.CostBasis || len(again.Allocation) != len(summary.Allocation) {
		t.Errorf("summary not idempotent: %+v vs %+v", again, summary)
	}
}

func TestLedger_ComputeSummaryExclusions(t *testing.T) {
	coins := append(btcEth(), entity.CoinDefinition{Name: "Solana", Ticker: "SOL", APIID: "solana"})

	tests := []struct {
		name          string
		entries       map[string]entity.PortfolioEntry
		prices        entity.PriceIndex
		wantNetWorth  float64
		wantCostBasis float64
		wantAlloc     int
	}{
		{
			name:    "dust amount ignored",
			entries: map[string]entity.PortfolioEntry{"bitcoin": {Amount: 1e-6, BuyPrice: 30000}},
			prices:  entity.PriceIndex{"bitcoin": 40000},
		},
		{
			name:    "unpriced coin adds no cost basis",
			entries: map[string]entity.PortfolioEntry{"bitcoin": {Amount: 1, BuyPrice: 30000}, "solana": {Amount: 10, BuyPrice: 100}},
			prices:  entity.PriceIndex{"bitcoin": 40000},

			wantNetWorth:  40000,
			wantCostBasis: 30000,
			wantAlloc:     1,
		},
		{
			name:    "untracked ledger entry ignored",
			entries: map[string]entity.PortfolioEntry{"dogecoin": {Amount: 100, BuyPrice: 1}},
			prices:  entity.PriceIndex{"dogecoin": 2},
		},
		{
			name:          "zero buy price",
			entries:       map[string]entity.PortfolioEntry{"ethereum": {Amount: 2}},
			prices:        entity.PriceIndex{"ethereum": 2500},
			wantNetWorth:  5000,
			wantCostBasis: 0,
			wantAlloc:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := NewLedger(newMemStore(coins, tt.entries))
			s := ledger.ComputeSummary(coins, tt.prices)
			if s.NetWorth != tt.wantNetWorth || s.CostBasis != tt.wantCostBasis || len(s.Allocation) != tt.wantAlloc {
				t.Errorf("summary = %+v, want netWorth %v costBasis %v alloc %d",
					s, tt.wantNetWorth, tt.wantCostBasis, tt.wantAlloc)
			}
			var sum float64
			for _, a := range s.Allocation {
				sum += a.Value
			}
			if sum != s.NetWorth {
				t.Errorf("allocation sum %v != net worth %v", sum, s.NetWorth)
			}
			if tt.wantCostBasis == 0 && s.PnLPercent() != 0 {
				t.Errorf("PnLPercent = %v with zero cost basis", s.PnLPercent())
			}
		})
	}
}

func TestLedger_SetEntry(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		buyPrice float64
		want     entity.PortfolioEntry
	}{
		{name: "plain", amount: 1.5, buyPrice: 100, want: entity.PortfolioEntry{Amount: 1.5, BuyPrice: 100}},
		{name: "negative clamped", amount: -3, buyPrice: -1, want: entity.PortfolioEntry{}},
		{name: "nan clamped", amount: math.NaN(), buyPrice: 10, want: entity.PortfolioEntry{BuyPrice: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore(btcEth(), nil)
			ledger := NewLedger(store)

			got, err := ledger.SetEntry("bitcoin", tt.amount, tt.buyPrice)
			if err != nil {
				t.Fatalf("SetEntry: %v", err)
			}
			if got != tt.want || ledger.Entry("bitcoin") != tt.want {
				t.Errorf("entry = %+v, want %+v", got, tt.want)
			}
			if store.ledger["bitcoin"] != tt.want {
				t.Errorf("persisted = %+v, want %+v", store.ledger["bitcoin"], tt.want)
			}

			reloaded := NewLedger(store)
			if reloaded.Entry("bitcoin") != tt.want {
				t.Errorf("reloaded = %+v, want %+v", reloaded.Entry("bitcoin"), tt.want)
			}
		})
	}
}

func TestLedger_SetEntryStoreFailure(t *testing.T) {
	store := newMemStore(btcEth(), map[string]entity.PortfolioEntry{"bitcoin": {Amount: 1, BuyPrice: 1}})
	ledger := NewLedger(store)
	store.fail = true

	if _, err := ledger.SetEntry("bitcoin", 5, 5); !errors.Is(err, errDiskFull) {
		t.Fatalf("err = %v, want disk full", err)
	}
	if got := ledger.Entry("bitcoin"); got != (entity.PortfolioEntry{Amount: 1, BuyPrice: 1}) {
		t.Errorf("entry changed after failed save: %+v", got)
	}
}

func TestLedger_EntryDoesNotCreate(t *testing.T) {
	ledger := NewLedger(newMemStore(btcEth(), nil))

	if got := ledger.Entry("solana"); got != (entity.PortfolioEntry{}) {
		t.Errorf("Entry = %+v, want zero", got)
	}
	if n := len(ledger.Entries()); n != 0 {
		t.Errorf("ledger has %d entries after a read", n)
	}
}

func TestLedger_LoadClampsStoredValues(t *testing.T) {
	ledger := NewLedger(newMemStore(btcEth(), map[string]entity.PortfolioEntry{
		"bitcoin": {Amount: -1, BuyPrice: math.NaN()},
		" ":       {Amount: 1},
	}))

	if got := ledger.Entry("bitcoin"); got != (entity.PortfolioEntry{}) {
		t.Errorf("Entry = %+v, want zero", got)
	}
	if n := len(ledger.Entries()); n != 1 {
		t.Errorf("entries = %d, want 1", n)
	}
}

func TestLedger_Position(t *testing.T) {
	ledger := NewLedger(newMemStore(btcEth(), map[string]entity.PortfolioEntry{"bitcoin": {Amount: 2, BuyPrice: 100}}))

	pos := ledger.Position("bitcoin", 150)
	if pos.Value != 300 || pos.Cost != 200 || pos.PnL() != 100 || pos.PnLPercent() != 50 {
		t.Errorf("position = %+v pnl %v pct %v", pos, pos.PnL(), pos.PnLPercent())
	}
}
