// Package metrics folds metrics and counter messages into current-value snapshots.
package metrics

import (
	"sync"

	"github.com/rxtech-lab/axon-client/internal/types"
)

// Aggregator holds the latest session metrics and the order counters.
type Aggregator struct {
	mu       sync.RWMutex
	metrics  types.MetricsSnapshot
	counters types.CounterSnapshot
}

// NewAggregator creates an Aggregator with zeroed snapshots.
func NewAggregator() *Aggregator {
	return &Aggregator{
		mu:       sync.RWMutex{},
		metrics:  types.MetricsSnapshot{},  //nolint:exhaustruct
		counters: types.CounterSnapshot{}, //nolint:exhaustruct
	}
}

// OnMetrics replaces the whole metrics snapshot. Absent fields become zero,
// which is what Unwrap yields for None.
func (a *Aggregator) OnMetrics(msg types.MetricsMessage) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.metrics = types.MetricsSnapshot{
		PnL:        msg.PnL.Unwrap(),
		Trades:     msg.Trades.Unwrap(),
		Wins:       msg.Wins.Unwrap(),
		LossStreak: msg.LossStreak.Unwrap(),
	}
}

// OnCounter updates only the counters present in msg.
func (a *Aggregator) OnCounter(msg types.CounterMessage) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if msg.RejectCount.IsSome() {
		a.counters.RejectCount = msg.RejectCount.Unwrap()
	}

	if msg.RetryCount.IsSome() {
		a.counters.RetryCount = msg.RetryCount.Unwrap()
	}
}

// Handle routes a stream message to OnMetrics or OnCounter and ignores the rest.
func (a *Aggregator) Handle(msg types.Message) {
	switch m := msg.(type) {
	case types.MetricsMessage:
		a.OnMetrics(m)
	case types.CounterMessage:
		a.OnCounter(m)
	}
}

// Snapshot returns the latest metrics.
func (a *Aggregator) Snapshot() types.MetricsSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.metrics
}

// Counters returns the latest order counters.
func (a *Aggregator) Counters() types.CounterSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.counters
}

// Reset zeroes both snapshots.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.metrics = types.MetricsSnapshot{}  //nolint:exhaustruct
	a.counters = types.CounterSnapshot{} //nolint:exhaustruct
}
