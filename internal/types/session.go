package types

import (
	"github.com/moznion/go-optional"
)

// SessionMode is the kind of trading activity a session performs.
type SessionMode string

const (
	// SessionModeSignal only streams signals, no orders are placed.
	SessionModeSignal SessionMode = "signal"
	// SessionModeAuto places orders automatically.
	SessionModeAuto SessionMode = "auto"
)

// SessionStatus is the local lifecycle state of a session.
type SessionStatus string

const (
	SessionStatusIdle     SessionStatus = "idle"
	SessionStatusStarting SessionStatus = "starting"
	SessionStatusRunning  SessionStatus = "running"
	SessionStatusHalted   SessionStatus = "halted"
	SessionStatusStopping SessionStatus = "stopping"
)

// Valid reports whether m is a known session mode.
func (m SessionMode) Valid() bool {
	return m == SessionModeSignal || m == SessionModeAuto
}

// IsActive reports whether a session in status s blocks a new start.
func (s SessionStatus) IsActive() bool {
	return s == SessionStatusStarting || s == SessionStatusRunning
}

// Session is the locally held view of the current session.
type Session struct {
	// ID is the server-assigned session id, empty while idle or starting.
	ID string `json:"id" yaml:"id"`
	// Mode is the session mode.
	Mode SessionMode `json:"mode" yaml:"mode"`
	// Status is the local lifecycle state.
	Status SessionStatus `json:"status" yaml:"status"`
	// Trades is the number of trades reported for the session.
	Trades int `json:"trades" yaml:"trades"`
	// Profit is the profit reported for the session.
	Profit float64 `json:"profit" yaml:"profit"`
	// HaltReason is set when the server halted the session and supplied a reason.
	HaltReason optional.Option[string] `json:"-" yaml:"-"`
}

// SessionRecord is a session as returned by the recent sessions endpoint.
type SessionRecord struct {
	ID     string      `json:"id"`
	Mode   SessionMode `json:"mode"`
	Status string      `json:"status"`
	Trades int         `json:"trades"`
	Profit float64     `json:"profit"`
}

// IsRunning reports whether the server considers the session running.
func (r SessionRecord) IsRunning() bool {
	return r.Status == string(SessionStatusRunning)
}
