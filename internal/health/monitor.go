// Package health tracks the broker heartbeat reported over the stream.
package health

import (
	"sync"

	"github.com/rxtech-lab/axon-client/internal/types"
)

// Monitor folds heartbeat and heartbeat_warning messages into a snapshot.
// It only reports. It never halts a session or reconnects.
type Monitor struct {
	mu       sync.RWMutex
	snapshot types.HealthSnapshot
}

// NewMonitor creates a Monitor with a zeroed snapshot.
func NewMonitor() *Monitor {
	return &Monitor{
		mu:       sync.RWMutex{},
		snapshot: types.HealthSnapshot{}, //nolint:exhaustruct
	}
}

// OnHeartbeat records the heartbeat latency, zero when absent.
func (m *Monitor) OnHeartbeat(msg types.HeartbeatMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshot.HeartbeatLatencySeconds = msg.Latency.Unwrap()
}

// OnHeartbeatWarning records the missed heartbeat count, zero when absent.
func (m *Monitor) OnHeartbeatWarning(msg types.HeartbeatWarningMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshot.MissedHeartbeats = msg.Missed.Unwrap()
}

// Handle routes heartbeat messages and ignores the rest.
func (m *Monitor) Handle(msg types.Message) {
	switch hb := msg.(type) {
	case types.HeartbeatMessage:
		m.OnHeartbeat(hb)
	case types.HeartbeatWarningMessage:
		m.OnHeartbeatWarning(hb)
	}
}

// Snapshot returns the heartbeat fields. Reject and retry counters are owned
// by the metrics aggregator and are zero here.
func (m *Monitor) Snapshot() types.HealthSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.snapshot
}

// Degraded reports whether any heartbeat has been missed.
func (m *Monitor) Degraded() bool {
	return m.Snapshot().MissedHeartbeats > 0
}
