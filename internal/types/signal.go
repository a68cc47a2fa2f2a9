package types

import (
	"strings"
	"time"

	"github.com/moznion/go-optional"
)

// SignalEvent is a received trade signal kept in the signal feed.
type SignalEvent struct {
	// Pair is the instrument, e.g. EUR/USD-OTC
	Pair string
	// Direction is the suggested direction, e.g. CALL or PUT
	Direction string
	// Confidence is the strategy confidence in percent
	Confidence float64
	// Timeframe is the candle timeframe of the signal when the server sent one
	Timeframe optional.Option[string]
	// Timestamp is the time the client received the signal
	Timestamp time.Time
}

// IsBullish reports whether the signal points up (CALL or BUY).
func (s SignalEvent) IsBullish() bool {
	d := strings.ToUpper(s.Direction)

	return d == "CALL" || d == "BUY"
}

// LogEntry is a line of the session system log.
type LogEntry struct {
	Timestamp time.Time
	Message   string
}
