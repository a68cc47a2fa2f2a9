package client

import (
	"github.com/rxtech-lab/axon-client/internal/types"
	"github.com/rxtech-lab/axon-client/pkg/errors"
)

// OnConnectionEventCallback is called on every stream connection state transition.
type OnConnectionEventCallback func(event types.ConnectionEvent)

// OnMessageCallback is called with every decoded stream message.
type OnMessageCallback func(msg types.Message)

// OnMetricsCallback is called with the metrics snapshot after every metrics message.
type OnMetricsCallback func(snapshot types.MetricsSnapshot)

// OnHealthCallback is called with the health snapshot after every heartbeat,
// heartbeat_warning or counter message.
type OnHealthCallback func(snapshot types.HealthSnapshot)

// OnSignalCallback is called for every received signal.
type OnSignalCallback func(signal types.SignalEvent)

// OnLogCallback is called for every system log line.
type OnLogCallback func(entry types.LogEntry)

// OnSessionChangeCallback is called after every session state change.
type OnSessionChangeCallback func(session types.Session)

// OnServiceErrorCallback is called for error messages on the stream and for
// control calls the service rejected.
type OnServiceErrorCallback func(err *errors.ServiceError)

// OnBrokerStatusCallback is called when the broker link status changes.
type OnBrokerStatusCallback func(status types.BrokerStatus)

// TradingCallbacks holds the optional handlers of a TradingClient.
// All fields are pointers - nil means no callback will be invoked.
// Stream driven handlers run one at a time on the delivery goroutine and must
// not call Close. OnSessionChange, OnServiceError and OnBrokerStatus also run
// on the goroutine of the client method that caused them.
type TradingCallbacks struct {
	// OnConnectionEvent is called on every stream connection state transition.
	OnConnectionEvent *OnConnectionEventCallback

	// OnMessage is called with every decoded stream message, including ignored ones.
	OnMessage *OnMessageCallback

	// OnMetrics is called after every metrics message.
	OnMetrics *OnMetricsCallback

	// OnHealth is called after every heartbeat, heartbeat_warning or counter message.
	OnHealth *OnHealthCallback

	// OnSignal is called for every received signal.
	OnSignal *OnSignalCallback

	// OnLog is called for every system log line.
	OnLog *OnLogCallback

	// OnSessionChange is called after every session state change.
	OnSessionChange *OnSessionChangeCallback

	// OnServiceError is called for stream error messages and rejected control calls.
	OnServiceError *OnServiceErrorCallback

	// OnBrokerStatus is called when the broker link status changes.
	OnBrokerStatus *OnBrokerStatusCallback
}
