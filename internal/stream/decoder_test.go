package stream

import (
	"testing"
	"time"

	"github.com/rxtech-lab/axon-client/internal/types"
	"github.com/rxtech-lab/axon-client/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type DecoderTestSuite struct {
	suite.Suite
	decoder *Decoder
}

func TestDecoderSuite(t *testing.T) {
	suite.Run(t, new(DecoderTestSuite))
}

func (suite *DecoderTestSuite) SetupTest() {
	suite.decoder = NewDecoder()
	suite.decoder.now = func() time.Time { return time.Unix(1700000000, 0) }
}

func (suite *DecoderTestSuite) TestMalformedFrames() {
	tests := []struct {
		name string
		raw  string
		code errors.ErrorCode
	}{
		{name: "not json", raw: "not-json", code: errors.ErrCodeMalformedFrame},
		{name: "truncated json", raw: `{"type":"metrics"`, code: errors.ErrCodeMalformedFrame},
		{name: "missing type", raw: `{"pnl":1}`, code: errors.ErrCodeMissingType},
		{name: "empty type", raw: `{"type":""}`, code: errors.ErrCodeMissingType},
		{name: "type not a string", raw: `{"type":5}`, code: errors.ErrCodeMalformedFrame},
		{name: "payload of wrong shape", raw: `{"type":"metrics","pnl":"lots"}`, code: errors.ErrCodeMalformedPayload},
	}

	for i, tc := range tests {
		suite.Run(tc.name, func() {
			msg, err := suite.decoder.Decode([]byte(tc.raw))
			suite.Nil(msg)
			suite.Require().Error(err)
			suite.True(errors.IsDecodeError(err))
			suite.True(errors.HasCode(err, tc.code), "got %v", err)
			suite.Equal(int64(i+1), suite.decoder.Failures())
		})
	}
}

func (suite *DecoderTestSuite) TestMetricsPartial() {
	msg, err := suite.decoder.Decode([]byte(`{"type":"metrics","pnl":12.5,"trades":3}`))
	suite.Require().NoError(err)

	metrics, ok := msg.(types.MetricsMessage)
	suite.Require().True(ok)
	suite.Equal(12.5, metrics.PnL.Unwrap())
	suite.Equal(3, metrics.Trades.Unwrap())
	suite.True(metrics.Wins.IsNone())
	suite.True(metrics.LossStreak.IsNone())
	suite.True(metrics.SessionID.IsNone())
	suite.Equal(int64(0), suite.decoder.Failures())
}

func (suite *DecoderTestSuite) TestMetricsConsecutiveLossesAlias() {
	msg, err := suite.decoder.Decode([]byte(`{"type":"metrics","session_id":"s1","consecutive_losses":2}`))
	suite.Require().NoError(err)

	metrics := msg.(types.MetricsMessage)
	suite.Equal(2, metrics.LossStreak.Unwrap())
	suite.Equal("s1", metrics.SessionID.Unwrap())

	msg, err = suite.decoder.Decode([]byte(`{"type":"metrics","loss_streak":1,"consecutive_losses":4}`))
	suite.Require().NoError(err)
	suite.Equal(1, msg.(types.MetricsMessage).LossStreak.Unwrap())
}

func (suite *DecoderTestSuite) TestSignal() {
	msg, err := suite.decoder.Decode([]byte(`{"type":"signal","pair":"EUR/USD","direction":"CALL","confidence":0.82,"timeframe":"1m"}`))
	suite.Require().NoError(err)

	signal := msg.(types.SignalMessage)
	suite.Equal("EUR/USD", signal.Pair)
	suite.Equal("CALL", signal.Direction)
	suite.InDelta(0.82, signal.Confidence, 1e-9)
	suite.Equal("1m", signal.Timeframe.Unwrap())
}

func (suite *DecoderTestSuite) TestHaltAndSessionHalted() {
	msg, err := suite.decoder.Decode([]byte(`{"type":"halt","reason":"stop_loss","session_id":"abc"}`))
	suite.Require().NoError(err)

	halt := msg.(types.HaltMessage)
	suite.Equal("stop_loss", halt.Reason.Unwrap())
	suite.Equal("abc", halt.SessionID.Unwrap())
	suite.Equal(types.MessageTypeHalt, msg.Type())

	msg, err = suite.decoder.Decode([]byte(`{"type":"session_halted"}`))
	suite.Require().NoError(err)
	suite.True(msg.(types.SessionHaltedMessage).Reason.IsNone())
}

func (suite *DecoderTestSuite) TestErrorHeartbeatAndCounter() {
	msg, err := suite.decoder.Decode([]byte(`{"type":"error","error_code":"RATE_LIMIT_EXCEEDED","message":"slow down"}`))
	suite.Require().NoError(err)
	suite.Equal(types.ErrorMessage{ErrorCode: "RATE_LIMIT_EXCEEDED", Message: "slow down"}, msg)

	msg, err = suite.decoder.Decode([]byte(`{"type":"heartbeat","latency":0.25}`))
	suite.Require().NoError(err)
	suite.InDelta(0.25, msg.(types.HeartbeatMessage).Latency.Unwrap(), 1e-9)

	msg, err = suite.decoder.Decode([]byte(`{"type":"heartbeat_warning","missed":3}`))
	suite.Require().NoError(err)
	suite.Equal(3, msg.(types.HeartbeatWarningMessage).Missed.Unwrap())

	msg, err = suite.decoder.Decode([]byte(`{"type":"counter","retry_count":5}`))
	suite.Require().NoError(err)

	counter := msg.(types.CounterMessage)
	suite.True(counter.RejectCount.IsNone())
	suite.Equal(5, counter.RetryCount.Unwrap())
}

func (suite *DecoderTestSuite) TestLogTimestamp() {
	msg, err := suite.decoder.Decode([]byte(`{"type":"log","timestamp":1700000123.5,"message":"opened"}`))
	suite.Require().NoError(err)

	entry := msg.(types.LogMessage)
	suite.Equal("opened", entry.Message)
	suite.Equal(time.Unix(1700000123, 500*int64(time.Millisecond)), entry.Timestamp)

	msg, err = suite.decoder.Decode([]byte(`{"type":"log","message":"no time"}`))
	suite.Require().NoError(err)
	suite.Equal(time.Unix(1700000000, 0), msg.(types.LogMessage).Timestamp)
}

func (suite *DecoderTestSuite) TestUnknownTypeIsIgnored() {
	msg, err := suite.decoder.Decode([]byte(`{"type":"position_update","size":1}`))
	suite.Require().NoError(err)
	suite.Equal(types.IgnoredMessage{RawType: "position_update"}, msg)
	suite.Equal(types.MessageType("position_update"), msg.Type())
	suite.Equal(int64(0), suite.decoder.Failures())
}
