package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rxtech-lab/axon-client/e2e/mockserver"
	"github.com/rxtech-lab/axon-client/internal/config"
	"github.com/rxtech-lab/axon-client/internal/types"
	"github.com/rxtech-lab/axon-client/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type AxonCmdTestSuite struct {
	suite.Suite
	server *mockserver.MockAxonServer
}

func TestAxonCmdSuite(t *testing.T) {
	suite.Run(t, new(AxonCmdTestSuite))
}

func (suite *AxonCmdTestSuite) SetupTest() {
	suite.T().Setenv(config.EnvBaseURL, "")
	suite.T().Setenv(config.EnvStreamURL, "")
	suite.T().Setenv(config.EnvToken, "")

	suite.server = mockserver.NewMockAxonServer(mockserver.ServerConfig{
		Tokens:  map[string]string{"token-1": "user-1"},
		Balance: 1250.5,
	})
	suite.Require().NoError(suite.server.Start(""))
}

func (suite *AxonCmdTestSuite) TearDownTest() {
	_ = suite.server.Stop()
}

// run executes the CLI against the mock server and returns what it printed.
func (suite *AxonCmdTestSuite) run(args ...string) (string, error) {
	var out bytes.Buffer

	argv := append([]string{
		"axon",
		"--base-url", suite.server.BaseURL(),
		"--stream-url", suite.server.StreamURL(),
		"--token", "token-1",
		"--log-level", "error",
	}, args...)

	err := newApp(&out).Run(context.Background(), argv)

	return out.String(), err
}

func (suite *AxonCmdTestSuite) TestPairs() {
	out, err := suite.run("pairs")
	suite.Require().NoError(err)

	var pairs []string
	suite.Require().NoError(json.Unmarshal([]byte(out), &pairs))
	suite.Equal([]string{"EUR/USD", "GBP/USD", "EUR/USD-OTC"}, pairs)
}

func (suite *AxonCmdTestSuite) TestStatus() {
	out, err := suite.run("status")
	suite.Require().NoError(err)

	var report statusReport
	suite.Require().NoError(json.Unmarshal([]byte(out), &report))
	suite.Equal("ok", report.Health)
	suite.Equal("user-1", report.UserID)
	suite.False(report.Broker.Connected)
}

func (suite *AxonCmdTestSuite) TestConnectThenBalance() {
	_, err := suite.run("balance")
	suite.Require().Error(err)
	suite.Contains(err.Error(), "UPSTREAM_BALANCE_FAILED")

	_, err = suite.run("connect", "--username", "trader", "--password", "secret", "--account-type", "practice")
	suite.Require().NoError(err)
	suite.True(suite.server.BrokerConnected())

	out, err := suite.run("balance")
	suite.Require().NoError(err)

	var balance types.Balance
	suite.Require().NoError(json.Unmarshal([]byte(out), &balance))
	suite.True(decimal.NewFromFloat(1250.5).Equal(balance.Balance))

	_, err = suite.run("disconnect")
	suite.Require().NoError(err)
	suite.False(suite.server.BrokerConnected())
}

func (suite *AxonCmdTestSuite) TestSessionStartStatusStop() {
	out, err := suite.run("session", "start", "--pairs", "GBP/USD, USD/JPY", "--amount", "25")
	suite.Require().NoError(err)

	var started types.Session
	suite.Require().NoError(json.Unmarshal([]byte(out), &started))
	suite.Equal(types.SessionStatusRunning, started.Status)
	suite.Equal(types.SessionModeAuto, started.Mode)
	suite.NotEmpty(started.ID)

	requests := suite.server.Requests("/session/start")
	suite.Require().Len(requests, 1)

	var body types.StartParams
	suite.Require().NoError(json.Unmarshal(requests[0].Body, &body))
	suite.Equal([]string{"GBP/USD", "USD/JPY"}, body.Pairs)
	suite.InDelta(25.0, body.TradeAmount, 1e-9)
	suite.Equal(types.DefaultStrategyID, body.StrategyID)

	out, err = suite.run("session", "status")
	suite.Require().NoError(err)

	var reconciled types.Session
	suite.Require().NoError(json.Unmarshal([]byte(out), &reconciled))
	suite.Equal(started.ID, reconciled.ID)
	suite.Equal(types.SessionStatusRunning, reconciled.Status)

	out, err = suite.run("session", "stop", "--id", started.ID)
	suite.Require().NoError(err)

	var stopped types.Session
	suite.Require().NoError(json.Unmarshal([]byte(out), &stopped))
	suite.Equal(types.SessionStatusIdle, stopped.Status)
	suite.Equal("stopped", suite.server.Sessions()[0].Status)
}

func (suite *AxonCmdTestSuite) TestSignalSessionStart() {
	_, err := suite.run("--mode", "signal", "session", "start", "--strategy", "rsi")
	suite.Require().NoError(err)

	suite.Len(suite.server.Requests("/signal/start"), 1)
	suite.Empty(suite.server.Requests("/session/start"))
}

func (suite *AxonCmdTestSuite) TestSessionsAndTrades() {
	suite.server.AddSession(types.SessionRecord{ID: "old", Mode: types.SessionModeAuto, Status: "stopped", Trades: 4, Profit: 2})
	suite.server.AddSession(types.SessionRecord{ID: "new", Mode: types.SessionModeAuto, Status: "stopped", Trades: 1, Profit: -1})
	suite.server.AddTrade(types.TradeRecord{ID: 1, SessionID: "old", Pair: "EUR/USD", Direction: "CALL",
		Amount: decimal.NewFromInt(10), Result: "win", PnL: decimal.RequireFromString("8.5")})
	suite.server.AddTrade(types.TradeRecord{ID: 2, SessionID: "old", Pair: "EUR/USD", Direction: "PUT",
		Amount: decimal.NewFromInt(10), Result: "loss", PnL: decimal.NewFromInt(-10)})

	out, err := suite.run("sessions", "--limit", "1")
	suite.Require().NoError(err)

	var sessions []types.SessionRecord
	suite.Require().NoError(json.Unmarshal([]byte(out), &sessions))
	suite.Require().Len(sessions, 1)
	suite.Equal("new", sessions[0].ID)

	out, err = suite.run("trades")
	suite.Require().NoError(err)

	var report tradesReport
	suite.Require().NoError(json.Unmarshal([]byte(out), &report))
	suite.Len(report.Trades, 2)
	suite.Equal(1, report.Wins)
	suite.Equal("-1.50", report.PnL)
}

func (suite *AxonCmdTestSuite) TestMissingToken() {
	var out bytes.Buffer

	err := newApp(&out).Run(context.Background(), []string{
		"axon", "--base-url", suite.server.BaseURL(), "--log-level", "error", "balance",
	})
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMissingToken))
	suite.Empty(suite.server.Requests("/iq/balance"))
}

func (suite *AxonCmdTestSuite) TestInvalidMode() {
	_, err := suite.run("--mode", "manual", "pairs")
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *AxonCmdTestSuite) TestStream() {
	type result struct {
		out string
		err error
	}

	done := make(chan result, 1)

	go func() {
		out, err := suite.run("stream", "--duration", "700ms")
		done <- result{out: out, err: err}
	}()

	_, ok := suite.server.WaitForConnection(3 * time.Second)
	suite.Require().True(ok)

	suite.server.Broadcast(`{"type":"metrics","pnl":4.5,"trades":2,"wins":1}`)
	suite.server.Broadcast(`{"type":"signal","pair":"EUR/USD","direction":"CALL","confidence":71}`)

	var res result
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		suite.FailNow("stream command did not exit")
	}

	suite.Require().NoError(res.err)
	suite.Contains(res.out, `connection {"state":"connected","attempt":0}`)
	suite.Contains(res.out, `metrics {"pnl":4.5,"trades":2,"wins":1,"loss_streak":0}`)
	suite.Contains(res.out, "signal ")

	summaryStart := strings.Index(res.out, "{\n")
	suite.Require().GreaterOrEqual(summaryStart, 0)

	var summary streamSummary
	suite.Require().NoError(json.Unmarshal([]byte(res.out[summaryStart:]), &summary))
	suite.InDelta(4.5, summary.Metrics.PnL, 1e-9)
	suite.Equal(int64(0), summary.DecodeFailures)
	suite.False(summary.Degraded)
	suite.Require().NotNil(summary.LatestSignal)
	suite.Equal("EUR/USD", summary.LatestSignal.Pair)
}

func (suite *AxonCmdTestSuite) TestConfigSchema() {
	out, err := suite.run("config-schema")
	suite.Require().NoError(err)
	suite.Contains(out, "base_url")
	suite.Contains(out, "reconnect")
}
