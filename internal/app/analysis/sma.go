// Package analysis derives technical indicators from fetched price series.
package analysis

import "math"

// SimpleMovingAverage returns a series aligned with prices where element i is
// the mean of the period values ending at i. The first period-1 elements are
// NaN. When fewer than period prices exist the result is empty.
func SimpleMovingAverage(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}

	sma := make([]float64, len(prices))
	var sum float64
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i < period-1 {
			sma[i] = math.NaN()
			continue
		}
		sma[i] = sum / float64(period)
	}
	return sma
}

// Series is a named indicator line.
type Series struct {
	Period int       `json:"period"`
	Values []float64 `json:"values"`
}

// MovingAverages computes one SMA per period, skipping periods the history is too short for.
func MovingAverages(prices []float64, periods []int) []Series {
	out := make([]Series, 0, len(periods))
	for _, period := range periods {
		values := SimpleMovingAverage(prices, period)
		if len(values) == 0 {
			continue
		}
		out = append(out, Series{Period: period, Values: values})
	}
	return out
}
