package stream

import (
	"encoding/json"
	"math"
	"sync/atomic"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/axon-client/internal/types"
	"github.com/rxtech-lab/axon-client/pkg/errors"
)

// Decoder turns raw stream frames into typed messages and counts the frames it rejects.
type Decoder struct {
	failures atomic.Int64
	now      func() time.Time
}

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{
		failures: atomic.Int64{},
		now:      time.Now,
	}
}

// Decode decodes a single frame. A frame that is not JSON, has no type or has a
// payload of the wrong shape returns a *errors.DecodeError and bumps Failures.
// A well-formed frame with an unknown type decodes to types.IgnoredMessage.
func (d *Decoder) Decode(raw []byte) (types.Message, error) {
	msg, err := decodeFrame(raw, d.now)
	if err != nil {
		d.failures.Add(1)

		return nil, err
	}

	return msg, nil
}

// Failures returns the number of frames rejected so far.
func (d *Decoder) Failures() int64 {
	return d.failures.Load()
}

type envelope struct {
	Type *string `json:"type"`
}

type metricsFrame struct {
	SessionID         *string  `json:"session_id"`
	PnL               *float64 `json:"pnl"`
	Trades            *float64 `json:"trades"`
	Wins              *float64 `json:"wins"`
	LossStreak        *float64 `json:"loss_streak"`
	ConsecutiveLosses *float64 `json:"consecutive_losses"`
}

type signalFrame struct {
	Pair       string   `json:"pair"`
	Direction  string   `json:"direction"`
	Confidence *float64 `json:"confidence"`
	Timeframe  *string  `json:"timeframe"`
}

type haltFrame struct {
	Reason    *string `json:"reason"`
	SessionID *string `json:"session_id"`
}

type errorFrame struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

type heartbeatFrame struct {
	Latency *float64 `json:"latency"`
}

type heartbeatWarningFrame struct {
	Missed *float64 `json:"missed"`
}

type counterFrame struct {
	RejectCount *float64 `json:"reject_count"`
	RetryCount  *float64 `json:"retry_count"`
}

type logFrame struct {
	Timestamp *float64 `json:"timestamp"`
	Message   string   `json:"message"`
}

func decodeFrame(raw []byte, now func() time.Time) (types.Message, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.NewDecodeError(errors.ErrCodeMalformedFrame, raw, err)
	}

	if env.Type == nil || *env.Type == "" {
		return nil, errors.NewDecodeError(errors.ErrCodeMissingType, raw, nil)
	}

	msgType := types.MessageType(*env.Type)

	switch msgType {
	case types.MessageTypeMetrics:
		var f metricsFrame
		if err := unmarshalPayload(raw, &f); err != nil {
			return nil, err
		}

		lossStreak := f.LossStreak
		if lossStreak == nil {
			lossStreak = f.ConsecutiveLosses
		}

		return types.MetricsMessage{
			SessionID:  fromPtr(f.SessionID),
			PnL:        fromPtr(f.PnL),
			Trades:     intFromPtr(f.Trades),
			Wins:       intFromPtr(f.Wins),
			LossStreak: intFromPtr(lossStreak),
		}, nil

	case types.MessageTypeSignal:
		var f signalFrame
		if err := unmarshalPayload(raw, &f); err != nil {
			return nil, err
		}

		confidence := 0.0
		if f.Confidence != nil {
			confidence = *f.Confidence
		}

		return types.SignalMessage{
			Pair:       f.Pair,
			Direction:  f.Direction,
			Confidence: confidence,
			Timeframe:  nonEmpty(f.Timeframe),
		}, nil

	case types.MessageTypeHalt:
		var f haltFrame
		if err := unmarshalPayload(raw, &f); err != nil {
			return nil, err
		}

		return types.HaltMessage{
			Reason:    nonEmpty(f.Reason),
			SessionID: nonEmpty(f.SessionID),
		}, nil

	case types.MessageTypeError:
		var f errorFrame
		if err := unmarshalPayload(raw, &f); err != nil {
			return nil, err
		}

		return types.ErrorMessage{
			ErrorCode: f.ErrorCode,
			Message:   f.Message,
		}, nil

	case types.MessageTypeHeartbeat:
		var f heartbeatFrame
		if err := unmarshalPayload(raw, &f); err != nil {
			return nil, err
		}

		return types.HeartbeatMessage{Latency: fromPtr(f.Latency)}, nil

	case types.MessageTypeHeartbeatWarning:
		var f heartbeatWarningFrame
		if err := unmarshalPayload(raw, &f); err != nil {
			return nil, err
		}

		return types.HeartbeatWarningMessage{Missed: intFromPtr(f.Missed)}, nil

	case types.MessageTypeCounter:
		var f counterFrame
		if err := unmarshalPayload(raw, &f); err != nil {
			return nil, err
		}

		return types.CounterMessage{
			RejectCount: intFromPtr(f.RejectCount),
			RetryCount:  intFromPtr(f.RetryCount),
		}, nil

	case types.MessageTypeLog:
		var f logFrame
		if err := unmarshalPayload(raw, &f); err != nil {
			return nil, err
		}

		ts := now()
		if f.Timestamp != nil {
			sec, frac := math.Modf(*f.Timestamp)
			ts = time.Unix(int64(sec), int64(frac*float64(time.Second)))
		}

		return types.LogMessage{
			Timestamp: ts,
			Message:   f.Message,
		}, nil

	case types.MessageTypeSessionHalted:
		var f haltFrame
		if err := unmarshalPayload(raw, &f); err != nil {
			return nil, err
		}

		return types.SessionHaltedMessage{Reason: nonEmpty(f.Reason)}, nil

	default:
		return types.IgnoredMessage{RawType: msgType}, nil
	}
}

func unmarshalPayload(raw []byte, target any) error {
	if err := json.Unmarshal(raw, target); err != nil {
		return errors.NewDecodeError(errors.ErrCodeMalformedPayload, raw, err)
	}

	return nil
}

func fromPtr[T any](v *T) optional.Option[T] {
	if v == nil {
		return optional.None[T]()
	}

	return optional.Some(*v)
}

// intFromPtr accepts JSON numbers such as 3 or 3.0 for integer counters.
func intFromPtr(v *float64) optional.Option[int] {
	if v == nil {
		return optional.None[int]()
	}

	return optional.Some(int(*v))
}

func nonEmpty(v *string) optional.Option[string] {
	if v == nil || *v == "" {
		return optional.None[string]()
	}

	return optional.Some(*v)
}
