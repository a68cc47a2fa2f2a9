package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// MessageType is the discriminant carried by every stream frame.
type MessageType string

const (
	// MessageTypeMetrics carries the session P&L and trade counters.
	MessageTypeMetrics MessageType = "metrics"
	// MessageTypeSignal carries a trade signal produced by the server strategy.
	MessageTypeSignal MessageType = "signal"
	// MessageTypeHalt reports a server-initiated halt of the running session.
	MessageTypeHalt MessageType = "halt"
	// MessageTypeError reports a service error.
	MessageTypeError MessageType = "error"
	// MessageTypeHeartbeat reports the broker heartbeat latency.
	MessageTypeHeartbeat MessageType = "heartbeat"
	// MessageTypeHeartbeatWarning reports missed broker heartbeats.
	MessageTypeHeartbeatWarning MessageType = "heartbeat_warning"
	// MessageTypeCounter carries order reject and retry counters.
	MessageTypeCounter MessageType = "counter"
	// MessageTypeLog carries a line for the session system log.
	MessageTypeLog MessageType = "log"
	// MessageTypeSessionHalted reports that the signal session was halted.
	MessageTypeSessionHalted MessageType = "session_halted"
)

// Message is a decoded stream frame. The set of implementations is closed:
// only the types in this file satisfy it.
type Message interface {
	// Type returns the discriminant of the message.
	Type() MessageType

	isMessage()
}

// MetricsMessage replaces the metrics snapshot. Absent fields count as zero.
type MetricsMessage struct {
	SessionID  optional.Option[string]
	PnL        optional.Option[float64]
	Trades     optional.Option[int]
	Wins       optional.Option[int]
	LossStreak optional.Option[int]
}

// SignalMessage is a trade signal.
type SignalMessage struct {
	Pair       string
	Direction  string
	Confidence float64
	Timeframe  optional.Option[string]
}

// HaltMessage reports that the server halted the running session.
type HaltMessage struct {
	Reason    optional.Option[string]
	SessionID optional.Option[string]
}

// ErrorMessage reports a service error on the stream.
type ErrorMessage struct {
	ErrorCode string
	Message   string
}

// HeartbeatMessage reports the broker heartbeat latency in seconds.
type HeartbeatMessage struct {
	Latency optional.Option[float64]
}

// HeartbeatWarningMessage reports the number of missed broker heartbeats.
type HeartbeatWarningMessage struct {
	Missed optional.Option[int]
}

// CounterMessage carries counters that update independently of each other.
type CounterMessage struct {
	RejectCount optional.Option[int]
	RetryCount  optional.Option[int]
}

// LogMessage is a line for the session system log.
type LogMessage struct {
	Timestamp time.Time
	Message   string
}

// SessionHaltedMessage reports that the server halted the signal session.
type SessionHaltedMessage struct {
	Reason optional.Option[string]
}

// IgnoredMessage is a well-formed frame with a type the client does not know.
// It is delivered like any other message so that newer servers stay compatible.
type IgnoredMessage struct {
	RawType MessageType
}

func (MetricsMessage) Type() MessageType          { return MessageTypeMetrics }
func (SignalMessage) Type() MessageType           { return MessageTypeSignal }
func (HaltMessage) Type() MessageType             { return MessageTypeHalt }
func (ErrorMessage) Type() MessageType            { return MessageTypeError }
func (HeartbeatMessage) Type() MessageType        { return MessageTypeHeartbeat }
func (HeartbeatWarningMessage) Type() MessageType { return MessageTypeHeartbeatWarning }
func (CounterMessage) Type() MessageType          { return MessageTypeCounter }
func (LogMessage) Type() MessageType              { return MessageTypeLog }
func (SessionHaltedMessage) Type() MessageType    { return MessageTypeSessionHalted }
func (m IgnoredMessage) Type() MessageType        { return m.RawType }

func (MetricsMessage) isMessage()          {}
func (SignalMessage) isMessage()           {}
func (HaltMessage) isMessage()             {}
func (ErrorMessage) isMessage()            {}
func (HeartbeatMessage) isMessage()        {}
func (HeartbeatWarningMessage) isMessage() {}
func (CounterMessage) isMessage()          {}
func (LogMessage) isMessage()              {}
func (SessionHaltedMessage) isMessage()    {}
func (IgnoredMessage) isMessage()          {}
