package client

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rxtech-lab/axon-client/e2e/mockserver"
	"github.com/rxtech-lab/axon-client/internal/control"
	"github.com/rxtech-lab/axon-client/internal/identity"
	"github.com/rxtech-lab/axon-client/internal/logger"
	"github.com/rxtech-lab/axon-client/internal/stream"
	"github.com/rxtech-lab/axon-client/internal/types"
	"github.com/rxtech-lab/axon-client/mocks"
	"github.com/rxtech-lab/axon-client/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

const (
	waitTimeout = 3 * time.Second
	tick        = 10 * time.Millisecond
)

type recorder struct {
	mu            sync.Mutex
	serviceErrors []*errors.ServiceError
	sessions      []types.Session
	brokers       []types.BrokerStatus
	events        []types.ConnectionEvent
	messages      int
}

func (r *recorder) callbacks() TradingCallbacks {
	onServiceError := OnServiceErrorCallback(func(err *errors.ServiceError) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.serviceErrors = append(r.serviceErrors, err)
	})
	onSessionChange := OnSessionChangeCallback(func(session types.Session) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.sessions = append(r.sessions, session)
	})
	onBrokerStatus := OnBrokerStatusCallback(func(status types.BrokerStatus) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.brokers = append(r.brokers, status)
	})
	onConnectionEvent := OnConnectionEventCallback(func(event types.ConnectionEvent) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, event)
	})
	onMessage := OnMessageCallback(func(_ types.Message) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.messages++
	})

	return TradingCallbacks{
		OnConnectionEvent: &onConnectionEvent,
		OnMessage:         &onMessage,
		OnMetrics:         nil,
		OnHealth:          nil,
		OnSignal:          nil,
		OnLog:             nil,
		OnSessionChange:   &onSessionChange,
		OnServiceError:    &onServiceError,
		OnBrokerStatus:    &onBrokerStatus,
	}
}

func (r *recorder) serviceErrs() []*errors.ServiceError {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]*errors.ServiceError(nil), r.serviceErrors...)
}

func (r *recorder) messageCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.messages
}

type TradingClientTestSuite struct {
	suite.Suite
	server   *mockserver.MockAxonServer
	tokens   *identity.StaticToken
	recorder *recorder
	client   *TradingClient
	ctx      context.Context
}

func TestTradingClientSuite(t *testing.T) {
	suite.Run(t, new(TradingClientTestSuite))
}

func (suite *TradingClientTestSuite) SetupTest() {
	suite.server = mockserver.NewMockAxonServer(mockserver.ServerConfig{
		Tokens:  map[string]string{"token-1": "user-1", "token-2": "user-1"},
		Balance: 250,
	})
	suite.Require().NoError(suite.server.Start(""))

	suite.tokens = identity.NewStaticToken("token-1")
	suite.recorder = &recorder{} //nolint:exhaustruct
	suite.ctx = context.Background()
	suite.client = suite.newClient(types.SessionModeAuto, suite.tokens)
}

func (suite *TradingClientTestSuite) TearDownTest() {
	if suite.client != nil {
		suite.client.Close()
	}

	_ = suite.server.Stop()
}

func (suite *TradingClientTestSuite) newClient(mode types.SessionMode, tokens identity.TokenProvider) *TradingClient {
	ctl, err := control.NewHTTPClient(control.Config{BaseURL: suite.server.BaseURL(), RequestTimeout: 5 * time.Second}, tokens, logger.NewNopLogger())
	suite.Require().NoError(err)

	client, err := NewTradingClient(Config{
		Mode: mode,
		Stream: stream.Config{
			StreamURL:   suite.server.StreamURL(),
			Policy:      stream.ReconnectPolicy{Min: 10 * time.Millisecond, Max: 50 * time.Millisecond},
			DialTimeout: time.Second,
			ReadLimit:   0,
		},
		FeedCapacity: 0,
	}, ctl, tokens, nil, suite.recorder.callbacks(), logger.NewNopLogger())
	suite.Require().NoError(err)

	return client
}

func (suite *TradingClientTestSuite) start() {
	suite.Require().NoError(suite.client.Start(suite.ctx))

	_, ok := suite.server.WaitForConnection(waitTimeout)
	suite.Require().True(ok)
	suite.Eventually(func() bool {
		return suite.client.ConnectionState() == types.ConnectionStateConnected
	}, waitTimeout, tick)
}

func (suite *TradingClientTestSuite) TestNewTradingClientValidatesConfig() {
	_, err := NewTradingClient(Config{Mode: "manual"}, nil, suite.tokens, nil, TradingCallbacks{}, nil) //nolint:exhaustruct
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *TradingClientTestSuite) TestStreamFoldsIntoSnapshots() {
	suite.start()

	traffic := mocks.NewTrafficGenerator(7).Generate(mocks.DefaultTrafficConfig())
	for _, frame := range traffic.Frames {
		suite.server.Broadcast(frame)
	}

	suite.server.Broadcast(`{"type":"counter","reject_count":2}`)
	suite.server.Broadcast(`{"type":"counter","retry_count":5}`)
	suite.server.Broadcast(`{"type":"heartbeat_warning","missed":1}`)
	suite.server.Broadcast(`garbage`)
	// Delivery is sequential: once the marker arrives every earlier frame is folded in.
	suite.server.Broadcast(`{"type":"marker"}`)

	expected := len(traffic.Frames) + 4
	suite.Eventually(func() bool {
		return suite.recorder.messageCount() == expected
	}, waitTimeout, tick)

	suite.Equal(traffic.Final, suite.client.Metrics())
	suite.Equal(types.HealthSnapshot{
		HeartbeatLatencySeconds: traffic.LastLatency,
		MissedHeartbeats:        1,
		RejectCount:             2,
		RetryCount:              5,
	}, suite.client.Health())
	suite.Len(suite.client.Signals(), traffic.Signals)
	suite.Len(suite.client.Logs(), traffic.Logs)
	suite.Equal(int64(1), suite.client.DecodeFailures())
	suite.True(suite.client.Degraded())

	latest, ok := suite.client.LatestSignal()
	suite.Require().True(ok)
	suite.Equal(suite.client.Signals()[0], latest)
}

func (suite *TradingClientTestSuite) TestStartSessionClearsPreviousSessionState() {
	suite.start()

	suite.server.Broadcast(`{"type":"metrics","pnl":-3,"trades":2,"wins":0,"loss_streak":2}`)
	suite.server.Broadcast(`{"type":"counter","reject_count":1}`)
	suite.server.Broadcast(`{"type":"signal","pair":"EUR/USD","direction":"PUT","confidence":60}`)
	suite.server.Broadcast(`{"type":"log","timestamp":1700000000,"message":"previous session"}`)

	suite.Eventually(func() bool {
		return suite.recorder.messageCount() == 4
	}, waitTimeout, tick)
	suite.Equal(2, suite.client.Metrics().Trades)

	session, err := suite.client.StartSession(suite.ctx, types.StartParams{}) //nolint:exhaustruct
	suite.Require().NoError(err)
	suite.Equal(types.SessionStatusRunning, session.Status)

	suite.Equal(types.MetricsSnapshot{}, suite.client.Metrics()) //nolint:exhaustruct
	suite.Equal(0, suite.client.Health().RejectCount)
	suite.Empty(suite.client.Signals())
	suite.Empty(suite.client.Logs())

	_, ok := suite.client.LatestSignal()
	suite.False(ok)
}

func (suite *TradingClientTestSuite) TestErrorMessageReachesCallbackWithAdvice() {
	suite.start()

	suite.server.Broadcast(`{"type":"error","error_code":"RATE_LIMIT_EXCEEDED","message":"slow down"}`)

	suite.Eventually(func() bool {
		return len(suite.recorder.serviceErrs()) == 1
	}, waitTimeout, tick)

	serviceErr := suite.recorder.serviceErrs()[0]
	suite.Equal(0, serviceErr.StatusCode)
	suite.Equal("RATE_LIMIT_EXCEEDED", serviceErr.ErrorCode)
	suite.Equal("slow down", serviceErr.Message)
	suite.NotEmpty(serviceErr.Advice)
}

func (suite *TradingClientTestSuite) TestStartReconcilesRunningSession() {
	suite.server.AddSession(types.SessionRecord{
		ID:     "S1",
		Mode:   types.SessionModeAuto,
		Status: "running",
		Trades: 3,
		Profit: 4.5,
	})
	suite.server.SetBrokerConnected(true)

	suite.start()

	session := suite.client.Session()
	suite.Equal("S1", session.ID)
	suite.Equal(types.SessionStatusRunning, session.Status)
	suite.True(suite.client.BrokerStatus().Connected)
	suite.Empty(suite.server.Requests("/session/start"))

	// Start while running is a no-op.
	current, err := suite.client.StartSession(suite.ctx, types.StartParams{}) //nolint:exhaustruct
	suite.Require().NoError(err)
	suite.Equal("S1", current.ID)
	suite.Empty(suite.server.Requests("/session/start"))
}

func (suite *TradingClientTestSuite) TestReconcileAfterReconnect() {
	suite.start()
	suite.Equal(types.SessionStatusIdle, suite.client.Session().Status)

	// The session is started from another device while the stream is down.
	suite.server.AddSession(types.SessionRecord{ID: "S2", Mode: types.SessionModeAuto, Status: "running", Trades: 0, Profit: 0})
	suite.server.DropConnections()

	_, ok := suite.server.WaitForConnection(waitTimeout)
	suite.Require().True(ok)

	suite.Eventually(func() bool {
		return suite.client.Session().Status == types.SessionStatusRunning
	}, waitTimeout, tick)
	suite.Equal("S2", suite.client.Session().ID)
}

func (suite *TradingClientTestSuite) TestSessionLifecycleWithHalt() {
	suite.start()

	suite.Require().NoError(suite.client.Connect(suite.ctx, types.BrokerCredentials{Username: "me", Password: "pw", AccountType: types.AccountTypePractice}))
	suite.True(suite.client.BrokerStatus().Connected)

	balance, err := suite.client.Balance(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal("250", balance.Balance.String())

	session, err := suite.client.StartSession(suite.ctx, types.StartParams{TradeAmount: 5}) //nolint:exhaustruct
	suite.Require().NoError(err)
	suite.Equal(types.SessionStatusRunning, session.Status)

	suite.server.Broadcast(`{"type":"halt","reason":"stop_loss","session_id":"` + session.ID + `"}`)

	suite.Eventually(func() bool {
		return suite.client.Session().Status == types.SessionStatusHalted
	}, waitTimeout, tick)
	suite.Equal("stop_loss", suite.client.Session().HaltReason.Unwrap())
	suite.Eventually(func() bool {
		return !suite.client.BrokerStatus().Connected
	}, waitTimeout, tick)

	suite.Require().NoError(suite.client.StopSession(suite.ctx))
	suite.Equal(types.SessionStatusIdle, suite.client.Session().Status)
	suite.Equal("stopped", suite.server.Sessions()[0].Status)
}

func (suite *TradingClientTestSuite) TestStartFailureReportsServiceError() {
	suite.start()

	suite.server.FailNext(http.MethodPost, "/session/start", mockserver.Failure{
		Status: http.StatusConflict,
		Body:   `{"error_code":"INSTRUMENT_CLOSED","message":"instrument closed"}`,
	})

	session, err := suite.client.StartSession(suite.ctx, types.StartParams{}) //nolint:exhaustruct
	suite.Require().Error(err)
	suite.Equal(types.SessionStatusIdle, session.Status)

	reported := suite.recorder.serviceErrs()
	suite.Require().Len(reported, 1)
	suite.Equal("INSTRUMENT_CLOSED", reported[0].ErrorCode)
	suite.NotEmpty(reported[0].Advice)
}

func (suite *TradingClientTestSuite) TestConnectFailureCarriesRetryMinutes() {
	suite.server.FailNext(http.MethodPost, "/iq/connect", mockserver.Failure{
		Status: http.StatusBadRequest,
		Body:   `{"detail":"{\"message\":\"Too many attempts\",\"ttl\":125}"}`,
	})

	err := suite.client.Connect(suite.ctx, types.BrokerCredentials{Username: "me", Password: "pw", AccountType: ""})
	suite.Require().Error(err)
	suite.False(suite.client.BrokerStatus().Connected)

	reported := suite.recorder.serviceErrs()
	suite.Require().Len(reported, 1)
	suite.Equal("Too many attempts", reported[0].Message)
	suite.Equal(3, reported[0].RetryMinutes.Unwrap())
}

func (suite *TradingClientTestSuite) TestSignalModeUsesRotatedToken() {
	suite.client.Close()

	ctrl := gomock.NewController(suite.T())

	tokens := mocks.NewMockTokenProvider(ctrl)
	gomock.InOrder(
		tokens.EXPECT().Token(gomock.Any()).Return("token-1", nil).Times(3),
		tokens.EXPECT().Token(gomock.Any()).Return("token-2", nil).AnyTimes(),
	)

	suite.client = suite.newClient(types.SessionModeSignal, tokens)

	// Status, reconcile and the first dial use the first token.
	suite.start()
	suite.server.DropConnections()

	token, ok := suite.server.WaitForConnection(waitTimeout)
	suite.Require().True(ok)
	suite.Equal("token-2", token)
}

func (suite *TradingClientTestSuite) TestCloseStopsStream() {
	suite.start()

	suite.client.Close()
	suite.Equal(types.ConnectionStateDisconnected, suite.client.ConnectionState())

	suite.Eventually(func() bool {
		return suite.server.StreamConnections() == 0
	}, waitTimeout, tick)

	err := suite.client.Start(suite.ctx)
	suite.True(errors.HasCode(err, errors.ErrCodeSupervisorClosed))
}
