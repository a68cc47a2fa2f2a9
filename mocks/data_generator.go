package mocks

import (
	"encoding/json"
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/axon-client/internal/types"
)

// TrafficGenerator generates realistic stream traffic for a trading session.
type TrafficGenerator struct {
	rng *rand.Rand
}

// NewTrafficGenerator creates a new TrafficGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewTrafficGenerator(seed int64) *TrafficGenerator {
	return &TrafficGenerator{
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec
	}
}

// TrafficConfig configures how session traffic is generated.
type TrafficConfig struct {
	// SessionID is stamped on metrics frames
	SessionID string
	// Pairs are the instruments signals are drawn from
	Pairs []string
	// StartTime is the timestamp of the first log line
	StartTime time.Time
	// Interval is the duration between trades
	Interval time.Duration
	// Trades is the number of trades to simulate
	Trades int
	// TradeAmount is the stake of every trade
	TradeAmount float64
	// Payout is the profit ratio of a winning trade (0.8 = 80%)
	Payout float64
	// WinRate is the probability of a winning trade (0.0 to 1.0)
	WinRate float64
}

// DefaultTrafficConfig returns a sensible default configuration.
func DefaultTrafficConfig() TrafficConfig {
	return TrafficConfig{
		SessionID:   "session-test",
		Pairs:       []string{"EUR/USD", "GBP/USD", "USD/JPY"},
		StartTime:   time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC),
		Interval:    5 * time.Minute,
		Trades:      20,
		TradeAmount: types.DefaultTradeAmount,
		Payout:      0.8,
		WinRate:     0.55,
	}
}

// Traffic is a generated frame sequence and the state it should produce.
type Traffic struct {
	// Frames are the raw JSON frames in send order
	Frames []string
	// Final is the metrics snapshot after the last frame
	Final types.MetricsSnapshot
	// Signals is the number of signal frames
	Signals int
	// Logs is the number of log frames
	Logs int
	// LastLatency is the latency of the last heartbeat frame
	LastLatency float64
}

// Generate creates the traffic of one session. Every trade produces a signal,
// a log line, a metrics update and a heartbeat, in that order.
func (g *TrafficGenerator) Generate(config TrafficConfig) Traffic {
	traffic := Traffic{
		Frames:      make([]string, 0, config.Trades*4),
		Final:       types.MetricsSnapshot{}, //nolint:exhaustruct
		Signals:     0,
		Logs:        0,
		LastLatency: 0,
	}

	currentTime := config.StartTime
	pnl := 0.0
	wins := 0
	lossStreak := 0

	for i := 0; i < config.Trades; i++ {
		pair := config.Pairs[g.rng.Intn(len(config.Pairs))]

		direction := "CALL"
		if g.rng.Float64() < 0.5 {
			direction = "PUT"
		}

		traffic.Frames = append(traffic.Frames, frame(map[string]any{
			"type":       types.MessageTypeSignal,
			"pair":       pair,
			"direction":  direction,
			"confidence": roundToDecimals(50+g.rng.Float64()*45, 2),
			"timeframe":  types.DefaultTimeframe,
		}))
		traffic.Signals++

		traffic.Frames = append(traffic.Frames, frame(map[string]any{
			"type":      types.MessageTypeLog,
			"timestamp": currentTime.Unix(),
			"message":   "placed " + direction + " on " + pair,
		}))
		traffic.Logs++

		if g.rng.Float64() < config.WinRate {
			pnl += config.TradeAmount * config.Payout
			wins++
			lossStreak = 0
		} else {
			pnl -= config.TradeAmount
			lossStreak++
		}

		pnl = roundToDecimals(pnl, 2)

		traffic.Frames = append(traffic.Frames, frame(map[string]any{
			"type":        types.MessageTypeMetrics,
			"session_id":  config.SessionID,
			"pnl":         pnl,
			"trades":      i + 1,
			"wins":        wins,
			"loss_streak": lossStreak,
		}))

		latency := roundToDecimals(0.05+g.rng.Float64()*0.45, 3)
		traffic.Frames = append(traffic.Frames, frame(map[string]any{
			"type":    types.MessageTypeHeartbeat,
			"latency": latency,
		}))
		traffic.LastLatency = latency

		currentTime = currentTime.Add(config.Interval)
	}

	traffic.Final = types.MetricsSnapshot{
		PnL:        pnl,
		Trades:     config.Trades,
		Wins:       wins,
		LossStreak: lossStreak,
	}

	return traffic
}

func frame(v map[string]any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}

	return string(data)
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
