package types

// MetricsSnapshot is the latest session metrics reported by the server.
type MetricsSnapshot struct {
	PnL        float64 `json:"pnl"`
	Trades     int     `json:"trades"`
	Wins       int     `json:"wins"`
	LossStreak int     `json:"loss_streak"`
}

// CounterSnapshot holds the order reject and retry counters.
type CounterSnapshot struct {
	RejectCount int `json:"reject_count"`
	RetryCount  int `json:"retry_count"`
}

// HealthSnapshot describes the health of the broker link.
type HealthSnapshot struct {
	HeartbeatLatencySeconds float64 `json:"heartbeat_latency_seconds"`
	MissedHeartbeats        int     `json:"missed_heartbeats"`
	RejectCount             int     `json:"reject_count"`
	RetryCount              int     `json:"retry_count"`
}

// WithCounters returns a copy of h with the reject and retry counters taken from c.
func (h HealthSnapshot) WithCounters(c CounterSnapshot) HealthSnapshot {
	h.RejectCount = c.RejectCount
	h.RetryCount = c.RetryCount

	return h
}
