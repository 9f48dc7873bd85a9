package service

import "time"

// DefaultRefreshInterval is used when the controller is built with a non-positive interval.
const DefaultRefreshInterval = 60 * time.Second

// RefreshController decides when the active view is refetched. It keeps a
// single elapsed time counter advanced by the foreground loop.
type RefreshController struct {
	interval time.Duration
	elapsed  time.Duration
}

// NewRefreshController creates a controller firing every interval.
func NewRefreshController(interval time.Duration) *RefreshController {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &RefreshController{interval: interval}
}

// Reset restarts the countdown. Called on every successful fetch completion
// and every fetch start.
func (r *RefreshController) Reset() {
	r.elapsed = 0
}

// Elapsed returns the time since the last reset.
func (r *RefreshController) Elapsed() time.Duration {
	return r.elapsed
}

// Interval returns the configured refresh interval.
func (r *RefreshController) Interval() time.Duration {
	return r.interval
}

// Tick advances the counter by dt. Once the counter exceeds the interval and
// the active category is not pending, trigger is called; the counter resets
// when trigger actually started a fetch. Reports whether a fetch was started.
func (r *RefreshController) Tick(dt time.Duration, pending bool, trigger func() bool) bool {
	if dt > 0 {
		r.elapsed += dt
	}
	if pending || r.elapsed <= r.interval {
		return false
	}
	if !trigger() {
		return false
	}
	r.Reset()
	return true
}
