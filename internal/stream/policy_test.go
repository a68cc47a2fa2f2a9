package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultReconnectPolicyDelays(t *testing.T) {
	policy := DefaultReconnectPolicy()

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{attempt: 1, expected: 1000 * time.Millisecond},
		{attempt: 2, expected: 2000 * time.Millisecond},
		{attempt: 3, expected: 4000 * time.Millisecond},
		{attempt: 4, expected: 5000 * time.Millisecond},
		{attempt: 5, expected: 5000 * time.Millisecond},
		{attempt: 12, expected: 5000 * time.Millisecond},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, policy.Delay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestReconnectPolicyZeroValueUsesDefaults(t *testing.T) {
	var policy ReconnectPolicy

	assert.Equal(t, 1000*time.Millisecond, policy.Delay(1))
	assert.Equal(t, 500*time.Millisecond, policy.Delay(0))
	assert.Equal(t, 500*time.Millisecond, policy.Delay(-3))
}

func TestReconnectPolicyCustomBounds(t *testing.T) {
	policy := ReconnectPolicy{Min: 10 * time.Millisecond, Max: 30 * time.Millisecond}

	assert.Equal(t, 20*time.Millisecond, policy.Delay(1))
	assert.Equal(t, 30*time.Millisecond, policy.Delay(2))
}
