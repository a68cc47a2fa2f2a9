package types

// ConnectionState is the state of the streaming connection.
type ConnectionState string

const (
	ConnectionStateDisconnected ConnectionState = "disconnected"
	ConnectionStateConnecting   ConnectionState = "connecting"
	ConnectionStateConnected    ConnectionState = "connected"
)

// ConnectionEvent is emitted on every connection state transition.
type ConnectionEvent struct {
	// State is the new connection state.
	State ConnectionState
	// Attempt is the reconnect attempt counter after the transition.
	Attempt int
	// Err is the transport error that caused a disconnect, if any.
	Err error
}
