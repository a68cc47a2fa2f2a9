package stream

import (
	"time"

	"github.com/jpillora/backoff"
)

const (
	// DefaultReconnectMin is the base delay doubled on every attempt.
	DefaultReconnectMin = 500 * time.Millisecond
	// DefaultReconnectMax caps the reconnect delay.
	DefaultReconnectMax = 5 * time.Second
)

// ReconnectPolicy computes the delay before reconnect attempt n as
// min(Max, Min * 2^n), without jitter.
type ReconnectPolicy struct {
	Min time.Duration `json:"min" yaml:"min"`
	Max time.Duration `json:"max" yaml:"max"`
}

// DefaultReconnectPolicy returns the 500ms/5s policy, giving delays of
// 1s, 2s, 4s, 5s, 5s... for attempts 1, 2, 3, 4, 5...
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		Min: DefaultReconnectMin,
		Max: DefaultReconnectMax,
	}
}

// Delay returns the delay before the given attempt.
func (p ReconnectPolicy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	b := &backoff.Backoff{
		Factor: 2,
		Jitter: false,
		Min:    p.withDefaults().Min,
		Max:    p.withDefaults().Max,
	}

	return b.ForAttempt(float64(attempt))
}

func (p ReconnectPolicy) withDefaults() ReconnectPolicy {
	if p.Min <= 0 {
		p.Min = DefaultReconnectMin
	}

	if p.Max <= 0 {
		p.Max = DefaultReconnectMax
	}

	return p
}
