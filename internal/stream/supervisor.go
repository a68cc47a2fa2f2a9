package stream

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rxtech-lab/axon-client/internal/identity"
	"github.com/rxtech-lab/axon-client/internal/logger"
	"github.com/rxtech-lab/axon-client/internal/types"
	"github.com/rxtech-lab/axon-client/internal/version"
	"github.com/rxtech-lab/axon-client/pkg/errors"
	"go.uber.org/zap"
)

const (
	// DefaultDialTimeout bounds a single stream dial.
	DefaultDialTimeout = 10 * time.Second
	// DefaultReadLimit is the largest frame accepted from the server.
	DefaultReadLimit = 1024 * 1024
	closeWait        = time.Second
)

// MessageHandler receives decoded stream messages.
type MessageHandler func(msg types.Message)

// ConnectionHandler receives connection state transitions.
type ConnectionHandler func(event types.ConnectionEvent)

// Dialer opens websocket connections. *websocket.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// Config configures a Supervisor.
type Config struct {
	// StreamURL is the stream endpoint, e.g. ws://localhost:8000/ws/stream.
	// The identity token is added as the "token" query parameter.
	StreamURL string
	// Policy is the reconnect backoff policy.
	Policy ReconnectPolicy
	// DialTimeout bounds a single dial. Zero means DefaultDialTimeout.
	DialTimeout time.Duration
	// ReadLimit is the largest accepted frame in bytes. Zero means DefaultReadLimit.
	ReadLimit int64
}

type messageSubscription struct {
	handler MessageHandler
	types   map[types.MessageType]struct{}
}

func (s messageSubscription) wants(t types.MessageType) bool {
	if len(s.types) == 0 {
		return true
	}

	_, ok := s.types[t]

	return ok
}

// Supervisor owns the single streaming connection of one identity. It
// reconnects with exponential backoff after every close or error and delivers
// decoded messages and state transitions to subscribers, one at a time.
//
// Shutdown stops the supervisor for good: no reconnect, state transition or
// message is delivered after it returns. Shutdown waits for an in-flight
// delivery to finish, so it must not be called synchronously from a handler.
type Supervisor struct {
	config  Config
	dialer  Dialer
	decoder *Decoder
	logger  *logger.Logger

	// ctx is cancelled by Shutdown and aborts in-flight dials.
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool

	mu         sync.Mutex
	tokens     identity.TokenProvider
	conn       *websocket.Conn
	state      types.ConnectionState
	attempt    int
	timer      *time.Timer
	generation uint64

	subsMu      sync.RWMutex
	messageSubs map[uuid.UUID]messageSubscription
	stateSubs   map[uuid.UUID]ConnectionHandler

	// deliverMu serializes delivery to subscribers.
	deliverMu sync.Mutex
	wg        sync.WaitGroup
}

// NewSupervisor creates a Supervisor. A nil dialer uses websocket.DefaultDialer.
func NewSupervisor(config Config, dialer Dialer, log *logger.Logger) (*Supervisor, error) {
	if _, err := url.Parse(config.StreamURL); err != nil || config.StreamURL == "" {
		return nil, errors.Wrapf(errors.ErrCodeInvalidEndpointURL, err, "invalid stream url %q", config.StreamURL)
	}

	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	if config.DialTimeout <= 0 {
		config.DialTimeout = DefaultDialTimeout
	}

	if config.ReadLimit <= 0 {
		config.ReadLimit = DefaultReadLimit
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Supervisor{
		config:      config,
		dialer:      dialer,
		decoder:     NewDecoder(),
		logger:      log.Named("stream"),
		ctx:         ctx,
		cancel:      cancel,
		closed:      atomic.Bool{},
		mu:          sync.Mutex{},
		tokens:      nil,
		conn:        nil,
		state:       types.ConnectionStateDisconnected,
		attempt:     0,
		timer:       nil,
		generation:  0,
		subsMu:      sync.RWMutex{},
		messageSubs: make(map[uuid.UUID]messageSubscription),
		stateSubs:   make(map[uuid.UUID]ConnectionHandler),
		deliverMu:   sync.Mutex{},
		wg:          sync.WaitGroup{},
	}, nil
}

// Subscribe registers handler for the given message types, or for every
// message when no type is given. It returns the subscription id.
func (s *Supervisor) Subscribe(handler MessageHandler, messageTypes ...types.MessageType) uuid.UUID {
	filter := make(map[types.MessageType]struct{}, len(messageTypes))
	for _, t := range messageTypes {
		filter[t] = struct{}{}
	}

	id := uuid.New()

	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	s.messageSubs[id] = messageSubscription{handler: handler, types: filter}

	return id
}

// OnConnectionEvent registers handler for connection state transitions.
func (s *Supervisor) OnConnectionEvent(handler ConnectionHandler) uuid.UUID {
	id := uuid.New()

	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	s.stateSubs[id] = handler

	return id
}

// Unsubscribe removes a message or connection subscription.
func (s *Supervisor) Unsubscribe(id uuid.UUID) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	delete(s.messageSubs, id)
	delete(s.stateSubs, id)
}

// Open makes one connection attempt using the token currently returned by
// tokens. If the attempt fails a reconnect is scheduled. Open is a no-op while
// a connection is live or being established. It fails without any network
// I/O when the token is missing or the supervisor has been shut down.
func (s *Supervisor) Open(ctx context.Context, tokens identity.TokenProvider) error {
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()

		return errors.New(errors.ErrCodeSupervisorClosed, "stream supervisor is shut down")
	}

	if s.conn != nil || s.state == types.ConnectionStateConnecting {
		s.mu.Unlock()

		return nil
	}

	s.tokens = tokens
	// An explicit open replaces a pending reconnect. A reconnect that already
	// fired will pick up the new token itself.
	if s.timer != nil {
		if !s.timer.Stop() {
			s.mu.Unlock()

			return nil
		}

		s.timer = nil
		s.wg.Done()
	}
	s.mu.Unlock()

	return s.connect(ctx)
}

// Shutdown closes the live connection best-effort and cancels any pending
// reconnect. It is idempotent.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	if s.closed.Swap(true) {
		s.mu.Unlock()

		return
	}

	s.cancel()

	if s.timer != nil {
		if s.timer.Stop() {
			s.wg.Done()
		}

		s.timer = nil
	}

	conn := s.conn
	s.conn = nil
	s.state = types.ConnectionStateDisconnected
	s.generation++
	s.mu.Unlock()

	if conn != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWait))
		_ = conn.Close()
	}

	// Wait for an in-flight delivery, then for the reader and reconnect goroutines.
	s.deliverMu.Lock()
	s.deliverMu.Unlock() //nolint:staticcheck // barrier

	s.wg.Wait()

	s.logger.Info("Stream supervisor shut down")
}

// State returns the current connection state.
func (s *Supervisor) State() types.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Attempt returns the current reconnect attempt counter.
func (s *Supervisor) Attempt() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.attempt
}

// DecodeFailures returns the number of dropped frames.
func (s *Supervisor) DecodeFailures() int64 {
	return s.decoder.Failures()
}

// IsClosed reports whether Shutdown has been called.
func (s *Supervisor) IsClosed() bool {
	return s.closed.Load()
}

// connect performs one dial with the current token.
func (s *Supervisor) connect(ctx context.Context) error {
	token, err := identity.Require(ctx, s.tokens)
	if err != nil {
		return err
	}

	streamURL, err := s.streamURL(token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()

		return errors.New(errors.ErrCodeSupervisorClosed, "stream supervisor is shut down")
	}

	s.generation++
	gen := s.generation
	s.state = types.ConnectionStateConnecting
	attempt := s.attempt
	s.mu.Unlock()

	s.emitState(types.ConnectionEvent{State: types.ConnectionStateConnecting, Attempt: attempt, Err: nil})

	dialCtx, cancel := context.WithTimeout(ctx, s.config.DialTimeout)
	defer cancel()

	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	header := http.Header{}
	header.Set("User-Agent", version.UserAgent())

	conn, resp, err := s.dialer.DialContext(dialCtx, streamURL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	if err != nil {
		s.logger.Warn("Stream dial failed", zap.Int("attempt", attempt), zap.Error(err))
		s.handleDrop(gen, nil, errors.Wrap(errors.ErrCodeDialFailed, "failed to dial stream", err))

		return nil
	}

	s.mu.Lock()
	if s.closed.Load() || gen != s.generation {
		s.mu.Unlock()
		_ = conn.Close()

		return nil
	}

	conn.SetReadLimit(s.config.ReadLimit)
	s.conn = conn
	s.state = types.ConnectionStateConnected
	s.attempt = 0
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Info("Stream connected")
	s.emitState(types.ConnectionEvent{State: types.ConnectionStateConnected, Attempt: 0, Err: nil})

	go s.readLoop(gen, conn)

	return nil
}

func (s *Supervisor) readLoop(gen uint64, conn *websocket.Conn) {
	defer s.wg.Done()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}

			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("Stream connection lost", zap.Error(err))
			}

			s.handleDrop(gen, conn, errors.Wrap(errors.ErrCodeConnectionLost, "stream connection lost", err))

			return
		}

		msg, err := s.decoder.Decode(data)
		if err != nil {
			s.logger.Debug("Dropped malformed frame", zap.Error(err), zap.Int64("failures", s.decoder.Failures()))

			continue
		}

		s.dispatch(msg)
	}
}

// handleDrop records a close or dial failure and schedules a single reconnect.
func (s *Supervisor) handleDrop(gen uint64, conn *websocket.Conn, cause error) {
	s.mu.Lock()
	if s.closed.Load() || gen != s.generation {
		s.mu.Unlock()

		return
	}

	if conn != nil && s.conn == conn {
		s.conn = nil
		_ = conn.Close()
	}

	s.state = types.ConnectionStateDisconnected
	s.attempt++
	attempt := s.attempt
	delay := s.config.Policy.Delay(attempt)

	if s.timer == nil {
		s.wg.Add(1)
		s.timer = time.AfterFunc(delay, s.reconnect)
	}
	s.mu.Unlock()

	s.logger.Info("Stream reconnect scheduled", zap.Int("attempt", attempt), zap.Duration("delay", delay))
	s.emitState(types.ConnectionEvent{State: types.ConnectionStateDisconnected, Attempt: attempt, Err: cause})
}

func (s *Supervisor) reconnect() {
	defer s.wg.Done()

	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()

		return
	}

	s.timer = nil
	s.mu.Unlock()

	if err := s.connect(s.ctx); err != nil {
		// Without a token there is nothing to retry; wait for the next Open.
		s.logger.Warn("Stream reconnect aborted", zap.Error(err))
		s.emitState(types.ConnectionEvent{State: types.ConnectionStateDisconnected, Attempt: s.Attempt(), Err: err})
	}
}

func (s *Supervisor) streamURL(token string) (string, error) {
	u, err := url.Parse(s.config.StreamURL)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidEndpointURL, "invalid stream url", err)
	}

	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func (s *Supervisor) dispatch(msg types.Message) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	if s.closed.Load() {
		return
	}

	s.subsMu.RLock()
	handlers := make([]MessageHandler, 0, len(s.messageSubs))
	for _, sub := range s.messageSubs {
		if sub.wants(msg.Type()) {
			handlers = append(handlers, sub.handler)
		}
	}
	s.subsMu.RUnlock()

	for _, handler := range handlers {
		handler(msg)
	}
}

func (s *Supervisor) emitState(event types.ConnectionEvent) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	if s.closed.Load() {
		return
	}

	s.subsMu.RLock()
	handlers := make([]ConnectionHandler, 0, len(s.stateSubs))
	for _, handler := range s.stateSubs {
		handlers = append(handlers, handler)
	}
	s.subsMu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}
