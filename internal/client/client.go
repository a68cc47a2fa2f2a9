// Package client wires the stream supervisor, the snapshot owners and the
// session controller into a single trading client.
package client

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/axon-client/internal/advisory"
	"github.com/rxtech-lab/axon-client/internal/control"
	"github.com/rxtech-lab/axon-client/internal/feed"
	"github.com/rxtech-lab/axon-client/internal/health"
	"github.com/rxtech-lab/axon-client/internal/identity"
	"github.com/rxtech-lab/axon-client/internal/logger"
	"github.com/rxtech-lab/axon-client/internal/metrics"
	"github.com/rxtech-lab/axon-client/internal/session"
	"github.com/rxtech-lab/axon-client/internal/stream"
	"github.com/rxtech-lab/axon-client/internal/types"
	"github.com/rxtech-lab/axon-client/pkg/errors"
	"go.uber.org/zap"
)

// Config configures a TradingClient.
type Config struct {
	// Mode selects the signal or auto session endpoints.
	Mode types.SessionMode `validate:"oneof=signal auto"`
	// Stream configures the streaming connection.
	Stream stream.Config
	// FeedCapacity bounds the signal and log feeds. Zero means feed.DefaultCapacity.
	FeedCapacity int `validate:"gte=0"`
}

// TradingClient is the client of one identity. It keeps one streaming
// connection open, folds the stream into snapshots and drives the session
// of its mode. After a reconnect it reconciles the session with the server.
type TradingClient struct {
	config    Config
	control   control.ControlClient
	tokens    identity.TokenProvider
	logger    *logger.Logger
	callbacks TradingCallbacks

	supervisor *stream.Supervisor
	aggregator *metrics.Aggregator
	monitor    *health.Monitor
	feed       *feed.Feed
	session    *session.Controller

	brokerMu sync.RWMutex
	broker   types.BrokerStatus

	connectedOnce atomic.Bool
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// NewTradingClient creates a TradingClient. Nothing is connected until Start.
// A nil dialer uses the default websocket dialer.
func NewTradingClient(
	config Config,
	ctl control.ControlClient,
	tokens identity.TokenProvider,
	dialer stream.Dialer,
	callbacks TradingCallbacks,
	log *logger.Logger,
) (*TradingClient, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid trading client configuration", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	supervisor, err := stream.NewSupervisor(config.Stream, dialer, log)
	if err != nil {
		return nil, err
	}

	controller, err := session.NewController(config.Mode, ctl, log)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &TradingClient{
		config:        config,
		control:       ctl,
		tokens:        tokens,
		logger:        log.Named("client"),
		callbacks:     callbacks,
		supervisor:    supervisor,
		aggregator:    metrics.NewAggregator(),
		monitor:       health.NewMonitor(),
		feed:          feed.NewFeed(config.FeedCapacity),
		session:       controller,
		brokerMu:      sync.RWMutex{},
		broker:        types.BrokerStatus{Connected: false},
		connectedOnce: atomic.Bool{},
		ctx:           ctx,
		cancel:        cancel,
		wg:            sync.WaitGroup{},
	}

	c.wire()

	return c, nil
}

func (c *TradingClient) wire() {
	c.supervisor.OnConnectionEvent(c.handleConnectionEvent)

	c.supervisor.Subscribe(c.handleMetrics, types.MessageTypeMetrics, types.MessageTypeCounter)
	c.supervisor.Subscribe(c.handleHeartbeat, types.MessageTypeHeartbeat, types.MessageTypeHeartbeatWarning)
	c.supervisor.Subscribe(c.handleFeed, types.MessageTypeSignal, types.MessageTypeLog)
	c.supervisor.Subscribe(c.session.HandleMessage,
		types.MessageTypeHalt, types.MessageTypeSessionHalted, types.MessageTypeMetrics)
	c.supervisor.Subscribe(c.handleHalt, types.MessageTypeHalt)
	c.supervisor.Subscribe(c.handleError, types.MessageTypeError)

	if c.callbacks.OnMessage != nil {
		c.supervisor.Subscribe(stream.MessageHandler(*c.callbacks.OnMessage))
	}

	if c.callbacks.OnSessionChange != nil {
		c.session.OnChange(session.ChangeHandler(*c.callbacks.OnSessionChange))
	}
}

// Start fetches the broker status, reconciles the session with the server
// and opens the stream. Only a failure to open the stream is returned;
// status and reconcile failures are logged and reported as service errors.
func (c *TradingClient) Start(ctx context.Context) error {
	if _, err := c.RefreshBrokerStatus(ctx); err != nil {
		c.logger.Warn("Failed to fetch broker status", zap.Error(err))
	}

	if err := c.session.Reconcile(ctx); err != nil {
		c.report(err)
	}

	return c.supervisor.Open(ctx, c.tokens)
}

// Close shuts the stream down and waits for background work. It must not be
// called from a callback.
func (c *TradingClient) Close() {
	c.supervisor.Shutdown()
	c.cancel()
	c.wg.Wait()
}

// StartSession starts a session of the client mode. Unless a session is
// already active, the metrics, counters and feeds of the previous session are
// cleared first.
func (c *TradingClient) StartSession(ctx context.Context, params types.StartParams) (types.Session, error) {
	if !c.session.Session().Status.IsActive() {
		c.aggregator.Reset()
		c.feed.Clear()
	}

	current, err := c.session.Start(ctx, params)
	if err != nil {
		c.report(err)
	}

	return current, err
}

// StopSession stops the current session. It is a no-op without one.
func (c *TradingClient) StopSession(ctx context.Context) error {
	err := c.session.StopCurrent(ctx)
	if err != nil {
		c.report(err)
	}

	return err
}

// Session returns the current session.
func (c *TradingClient) Session() types.Session {
	return c.session.Session()
}

// Metrics returns the latest session metrics.
func (c *TradingClient) Metrics() types.MetricsSnapshot {
	return c.aggregator.Snapshot()
}

// Health returns the heartbeat state merged with the order counters.
func (c *TradingClient) Health() types.HealthSnapshot {
	return c.monitor.Snapshot().WithCounters(c.aggregator.Counters())
}

// Degraded reports whether the broker has missed heartbeats.
func (c *TradingClient) Degraded() bool {
	return c.monitor.Degraded()
}

// LatestSignal returns the newest received signal.
func (c *TradingClient) LatestSignal() (types.SignalEvent, bool) {
	return c.feed.LatestSignal()
}

// Signals returns the received signals, newest first.
func (c *TradingClient) Signals() []types.SignalEvent {
	return c.feed.Signals()
}

// Logs returns the system log lines, newest first.
func (c *TradingClient) Logs() []types.LogEntry {
	return c.feed.Logs()
}

// ConnectionState returns the stream connection state.
func (c *TradingClient) ConnectionState() types.ConnectionState {
	return c.supervisor.State()
}

// DecodeFailures returns the number of dropped stream frames.
func (c *TradingClient) DecodeFailures() int64 {
	return c.supervisor.DecodeFailures()
}

// BrokerStatus returns the last known broker link status.
func (c *TradingClient) BrokerStatus() types.BrokerStatus {
	c.brokerMu.RLock()
	defer c.brokerMu.RUnlock()

	return c.broker
}

// RefreshBrokerStatus fetches the broker link status from the service.
func (c *TradingClient) RefreshBrokerStatus(ctx context.Context) (types.BrokerStatus, error) {
	status, err := c.control.Status(ctx)
	if err != nil {
		c.report(err)

		return c.BrokerStatus(), err
	}

	c.setBroker(status.Connected)

	return status, nil
}

// Connect logs the service into the broker.
func (c *TradingClient) Connect(ctx context.Context, creds types.BrokerCredentials) error {
	if err := c.control.Connect(ctx, creds); err != nil {
		c.report(err)

		return err
	}

	c.setBroker(true)

	return nil
}

// Disconnect drops the broker link.
func (c *TradingClient) Disconnect(ctx context.Context) error {
	if err := c.control.Disconnect(ctx); err != nil {
		c.report(err)

		return err
	}

	c.setBroker(false)

	return nil
}

// Balance returns the broker account balance.
func (c *TradingClient) Balance(ctx context.Context) (types.Balance, error) {
	balance, err := c.control.Balance(ctx)
	if err != nil {
		c.report(err)
	}

	return balance, err
}

// RecentTrades returns the recent trades of the user.
func (c *TradingClient) RecentTrades(ctx context.Context) ([]types.TradeRecord, error) {
	return c.control.RecentTrades(ctx)
}

func (c *TradingClient) handleConnectionEvent(event types.ConnectionEvent) {
	if event.State == types.ConnectionStateConnected && c.connectedOnce.Swap(true) {
		// Reconnected: an idle client adopts a session the server kept running.
		c.wg.Add(1)

		go func() {
			defer c.wg.Done()

			if err := c.session.Reconcile(c.ctx); err != nil {
				c.report(err)
			}
		}()
	}

	if c.callbacks.OnConnectionEvent != nil {
		(*c.callbacks.OnConnectionEvent)(event)
	}
}

func (c *TradingClient) handleMetrics(msg types.Message) {
	c.aggregator.Handle(msg)

	switch msg.(type) {
	case types.MetricsMessage:
		if c.callbacks.OnMetrics != nil {
			(*c.callbacks.OnMetrics)(c.aggregator.Snapshot())
		}
	case types.CounterMessage:
		if c.callbacks.OnHealth != nil {
			(*c.callbacks.OnHealth)(c.Health())
		}
	}
}

func (c *TradingClient) handleHeartbeat(msg types.Message) {
	c.monitor.Handle(msg)

	if warning, ok := msg.(types.HeartbeatWarningMessage); ok {
		c.logger.Warn("Broker heartbeats missed", zap.Int("missed", warning.Missed.Unwrap()))
	}

	if c.callbacks.OnHealth != nil {
		(*c.callbacks.OnHealth)(c.Health())
	}
}

func (c *TradingClient) handleFeed(msg types.Message) {
	switch m := msg.(type) {
	case types.SignalMessage:
		event := c.feed.OnSignal(m)
		if c.callbacks.OnSignal != nil {
			(*c.callbacks.OnSignal)(event)
		}
	case types.LogMessage:
		entry := c.feed.OnLog(m)
		if c.callbacks.OnLog != nil {
			(*c.callbacks.OnLog)(entry)
		}
	}
}

// handleHalt marks the broker link as down. A new session needs a fresh connect.
func (c *TradingClient) handleHalt(_ types.Message) {
	c.setBroker(false)
}

func (c *TradingClient) handleError(msg types.Message) {
	m, ok := msg.(types.ErrorMessage)
	if !ok {
		return
	}

	serviceErr := errors.NewServiceError(0, m.ErrorCode, m.Message)
	serviceErr.Advice = advisory.Advice(m.ErrorCode)

	c.logger.Warn("Service error on stream",
		zap.String("error_code", m.ErrorCode),
		zap.String("message", m.Message),
	)
	c.report(serviceErr)
}

func (c *TradingClient) setBroker(connected bool) {
	c.brokerMu.Lock()
	changed := c.broker.Connected != connected
	c.broker = types.BrokerStatus{Connected: connected}
	c.brokerMu.Unlock()

	if changed && c.callbacks.OnBrokerStatus != nil {
		(*c.callbacks.OnBrokerStatus)(types.BrokerStatus{Connected: connected})
	}
}

// report hands service errors to the OnServiceError callback.
func (c *TradingClient) report(err error) {
	serviceErr, ok := errors.AsServiceError(err)
	if !ok {
		c.logger.Debug("Error not reported to callbacks", zap.Error(err))

		return
	}

	if c.callbacks.OnServiceError != nil {
		(*c.callbacks.OnServiceError)(serviceErr)
	}
}
