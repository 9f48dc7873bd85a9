package analysis_test

import (
	"math"
	"testing"

	"crypto_tracker/internal/app/analysis"
)

func TestSimpleMovingAverage(t *testing.T) {
	got := analysis.SimpleMovingAverage([]float64{1, 2, 3, 4, 5}, 3)
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	for i := 0; i < 2; i++ {
		if !math.IsNaN(got[i]) {
			t.Errorf("sma[%d] = %v, want NaN", i, got[i])
		}
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if math.Abs(got[i+2]-w) > 1e-12 {
			t.Errorf("sma[%d] = %v, want %v", i+2, got[i+2], w)
		}
	}
}

func TestSimpleMovingAverageShortSeries(t *testing.T) {
	if got := analysis.SimpleMovingAverage([]float64{1, 2}, 3); len(got) != 0 {
		t.Errorf("SimpleMovingAverage(len 2, period 3) = %v, want empty", got)
	}
	if got := analysis.SimpleMovingAverage(nil, 1); len(got) != 0 {
		t.Errorf("SimpleMovingAverage(nil) = %v, want empty", got)
	}
	if got := analysis.SimpleMovingAverage([]float64{1, 2}, 0); len(got) != 0 {
		t.Errorf("SimpleMovingAverage(period 0) = %v, want empty", got)
	}
}

func TestSimpleMovingAveragePeriodOneIsIdentity(t *testing.T) {
	prices := []float64{3.5, 1, 8}
	got := analysis.SimpleMovingAverage(prices, 1)
	for i := range prices {
		if got[i] != prices[i] {
			t.Errorf("sma[%d] = %v, want %v", i, got[i], prices[i])
		}
	}
}

func TestMovingAveragesSkipsLongPeriods(t *testing.T) {
	got := analysis.MovingAverages([]float64{1, 2, 3, 4}, []int{2, 10})
	if len(got) != 1 || got[0].Period != 2 {
		t.Fatalf("MovingAverages() = %+v, want only period 2", got)
	}
	if got[0].Values[3] != 3.5 {
		t.Errorf("last value = %v, want 3.5", got[0].Values[3])
	}
}
