// Package session drives the trading session state machine against the
// control surface and reacts to halts pushed over the stream.
package session

import (
	"context"
	"sync"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/axon-client/internal/control"
	"github.com/rxtech-lab/axon-client/internal/logger"
	"github.com/rxtech-lab/axon-client/internal/types"
	"github.com/rxtech-lab/axon-client/pkg/errors"
	"go.uber.org/zap"
)

// ChangeHandler is called with the session after every state change.
type ChangeHandler func(session types.Session)

// Controller holds the session of one mode and moves it through
// Idle -> Starting -> Running -> Halted and Running -> Stopping -> Idle.
// At most one session runs at a time: Start is a no-op while one is
// starting or running. A halt from the server always wins over local state.
type Controller struct {
	mu       sync.Mutex
	mode     types.SessionMode
	control  control.ControlClient
	logger   *logger.Logger
	session  types.Session
	onChange ChangeHandler
}

// NewController creates an idle Controller. Call Reconcile to pick up a
// session that is already running on the server.
func NewController(mode types.SessionMode, client control.ControlClient, log *logger.Logger) (*Controller, error) {
	if !mode.Valid() {
		return nil, errors.Newf(errors.ErrCodeInvalidSessionMode, "unknown session mode %q", mode)
	}

	if client == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "control client is required")
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Controller{
		mu:       sync.Mutex{},
		mode:     mode,
		control:  client,
		logger:   log.Named("session").With(zap.String("mode", string(mode))),
		session:  idleSession(mode),
		onChange: nil,
	}, nil
}

// OnChange registers the handler called after every state change.
func (c *Controller) OnChange(handler ChangeHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onChange = handler
}

// Mode returns the controller mode.
func (c *Controller) Mode() types.SessionMode {
	return c.mode
}

// Session returns a copy of the current session.
func (c *Controller) Session() types.Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.session
}

// Reconcile fetches the most recent server session. When it is running in
// this controller's mode an idle controller becomes Running with that session,
// without issuing a start. Any other local state is left alone.
func (c *Controller) Reconcile(ctx context.Context) error {
	records, err := c.control.RecentSessions(ctx, 1)
	if err != nil {
		c.logger.Warn("Failed to reconcile session", zap.Error(err))

		return wrap(errors.ErrCodeReconcileFailed, "failed to fetch the last session", err)
	}

	if len(records) == 0 {
		return nil
	}

	last := records[0]
	if !last.IsRunning() || last.Mode != c.mode {
		return nil
	}

	c.mu.Lock()
	if c.session.Status != types.SessionStatusIdle {
		c.mu.Unlock()

		return nil
	}

	c.session = types.Session{
		ID:         last.ID,
		Mode:       c.mode,
		Status:     types.SessionStatusRunning,
		Trades:     last.Trades,
		Profit:     last.Profit,
		HaltReason: optional.None[string](),
	}
	c.mu.Unlock()

	c.logger.Info("Resumed running session", zap.String("session_id", last.ID))
	c.notify()

	return nil
}

// Start starts a session with params, filling in defaults. It is a no-op
// returning the current session while a session is starting or running,
// whatever the params. Otherwise invalid params fail before any request.
// On failure the controller returns to Idle and the error is returned, as a
// *errors.ServiceError when the service rejected the start.
func (c *Controller) Start(ctx context.Context, params types.StartParams) (types.Session, error) {
	params = params.WithDefaults()

	c.mu.Lock()
	if c.session.Status.IsActive() {
		current := c.session
		c.mu.Unlock()

		c.logger.Debug("Start ignored, session already active", zap.String("status", string(current.Status)))

		return current, nil
	}

	if err := params.Validate(); err != nil {
		current := c.session
		c.mu.Unlock()

		return current, err
	}

	c.session = idleSession(c.mode)
	c.session.Status = types.SessionStatusStarting
	c.mu.Unlock()
	c.notify()

	id, err := c.start(ctx, params)

	c.mu.Lock()
	if err != nil {
		if c.session.Status == types.SessionStatusStarting {
			c.session = idleSession(c.mode)
		}

		current := c.session
		c.mu.Unlock()

		c.logger.Warn("Failed to start session", zap.Error(err))
		c.notify()

		return current, wrap(errors.ErrCodeSessionStartFailed, "failed to start session", err)
	}

	c.session.ID = id
	// A halt that arrived while starting is kept.
	if c.session.Status == types.SessionStatusStarting {
		c.session.Status = types.SessionStatusRunning
	}

	current := c.session
	c.mu.Unlock()

	c.logger.Info("Session started", zap.String("session_id", id))
	c.notify()

	return current, nil
}

// Stop stops the session with sessionID. An empty id is a no-op. The
// controller moves through Stopping to Idle whatever the outcome, unless a
// halt arrived while stopping, in which case it stays Halted. A failed stop
// is logged and returned; the next Reconcile repairs the local state.
func (c *Controller) Stop(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	c.mu.Lock()
	c.session.Status = types.SessionStatusStopping
	c.mu.Unlock()
	c.notify()

	err := c.stop(ctx, sessionID)

	c.mu.Lock()
	if c.session.Status == types.SessionStatusStopping {
		c.session = idleSession(c.mode)
	}
	c.mu.Unlock()
	c.notify()

	if err != nil {
		c.logger.Warn("Failed to stop session", zap.String("session_id", sessionID), zap.Error(err))

		return wrap(errors.ErrCodeSessionStopFailed, "failed to stop session", err)
	}

	c.logger.Info("Session stopped", zap.String("session_id", sessionID))

	return nil
}

// StopCurrent stops the current session, if it has an id.
func (c *Controller) StopCurrent(ctx context.Context) error {
	return c.Stop(ctx, c.Session().ID)
}

// HandleMessage applies stream messages: halts move the session to Halted
// and metrics refresh the trade count and profit of a running session.
func (c *Controller) HandleMessage(msg types.Message) {
	switch m := msg.(type) {
	case types.HaltMessage:
		c.halt(m.Reason)
	case types.SessionHaltedMessage:
		c.halt(m.Reason)
	case types.MetricsMessage:
		c.applyMetrics(m)
	}
}

func (c *Controller) halt(reason optional.Option[string]) {
	c.mu.Lock()
	c.session.Status = types.SessionStatusHalted
	c.session.HaltReason = reason
	id := c.session.ID
	c.mu.Unlock()

	c.logger.Info("Session halted by server",
		zap.String("session_id", id),
		zap.String("reason", reason.Unwrap()),
	)
	c.notify()
}

func (c *Controller) applyMetrics(msg types.MetricsMessage) {
	c.mu.Lock()
	if c.session.Status != types.SessionStatusRunning {
		c.mu.Unlock()

		return
	}

	if msg.SessionID.IsSome() && msg.SessionID.Unwrap() != c.session.ID {
		c.mu.Unlock()

		return
	}

	c.session.Trades = msg.Trades.Unwrap()
	c.session.Profit = msg.PnL.Unwrap()
	c.mu.Unlock()

	c.notify()
}

func (c *Controller) start(ctx context.Context, params types.StartParams) (string, error) {
	if c.mode == types.SessionModeSignal {
		return c.control.StartSignalSession(ctx, params.SignalParams())
	}

	return c.control.StartAutoSession(ctx, params)
}

func (c *Controller) stop(ctx context.Context, sessionID string) error {
	if c.mode == types.SessionModeSignal {
		return c.control.StopSignalSession(ctx, sessionID)
	}

	return c.control.StopAutoSession(ctx, sessionID)
}

func (c *Controller) notify() {
	c.mu.Lock()
	handler := c.onChange
	current := c.session
	c.mu.Unlock()

	if handler != nil {
		handler(current)
	}
}

func idleSession(mode types.SessionMode) types.Session {
	return types.Session{
		ID:         "",
		Mode:       mode,
		Status:     types.SessionStatusIdle,
		Trades:     0,
		Profit:     0,
		HaltReason: optional.None[string](),
	}
}

// wrap keeps service and validation errors as they are and wraps the rest.
func wrap(code errors.ErrorCode, message string, err error) error {
	if errors.IsServiceError(err) || errors.GetCode(err) == errors.ErrCodeMissingToken {
		return err
	}

	if errors.GetCode(err) == errors.ErrCodeInvalidStartParams {
		return err
	}

	return errors.Wrap(code, message, err)
}
