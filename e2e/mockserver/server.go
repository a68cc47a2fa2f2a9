// Package mockserver provides a mock trading service for testing.
// It implements the REST control surface and the streaming WebSocket endpoint.
package mockserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rxtech-lab/axon-client/internal/types"
)

// Failure is a canned error response returned instead of the normal handler.
type Failure struct {
	Status int
	Body   string
}

// Request is a request recorded by the server.
type Request struct {
	Method    string
	Path      string
	Query     string
	Body      []byte
	Token     string
	RequestID string
}

// ServerConfig holds configuration for the mock server.
type ServerConfig struct {
	// Tokens maps accepted identity tokens to user ids
	Tokens map[string]string
	// Pairs is returned by the pairs endpoint
	Pairs []string
	// Strategies is returned by the strategies endpoint
	Strategies []string
	// Balance is returned by the balance endpoint once the broker is connected
	Balance float64
}

// MockAxonServer provides a mock trading service for testing.
type MockAxonServer struct {
	mu sync.RWMutex

	httpServer *http.Server
	listener   net.Listener
	upgrader   websocket.Upgrader

	tokens          map[string]string
	pairs           []string
	strategies      []string
	balance         float64
	brokerConnected bool
	sessions        []types.SessionRecord
	trades          []types.TradeRecord
	failures        map[string][]Failure
	requests        []Request

	wsConnections map[*websocket.Conn]string
	wsMu          sync.Mutex
	streamTokens  []string
	connected     chan string
}

// NewMockAxonServer creates a new mock trading service.
func NewMockAxonServer(config ServerConfig) *MockAxonServer {
	server := &MockAxonServer{
		mu: sync.RWMutex{},
		upgrader: websocket.Upgrader{ //nolint:exhaustruct
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		tokens:          make(map[string]string),
		pairs:           config.Pairs,
		strategies:      config.Strategies,
		balance:         config.Balance,
		brokerConnected: false,
		sessions:        make([]types.SessionRecord, 0),
		trades:          make([]types.TradeRecord, 0),
		failures:        make(map[string][]Failure),
		requests:        make([]Request, 0),
		wsConnections:   make(map[*websocket.Conn]string),
		wsMu:            sync.Mutex{},
		streamTokens:    make([]string, 0),
		connected:       make(chan string, 64),
		httpServer:      nil,
		listener:        nil,
	}

	for token, uid := range config.Tokens {
		server.tokens[token] = uid
	}

	if len(server.pairs) == 0 {
		server.pairs = []string{"EUR/USD", "GBP/USD", "EUR/USD-OTC"}
	}

	if len(server.strategies) == 0 {
		server.strategies = []string{"ema", "rsi", "bollinger"}
	}

	return server
}

// Start starts the mock server on the given address.
// If address is empty or ":0", a random available port is used.
func (s *MockAxonServer) Start(address string) error {
	if address == "" {
		address = "127.0.0.1:0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	router := mux.NewRouter()
	router.Use(s.recordRequest)

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/pairs", s.handlePairs).Methods(http.MethodGet)
	router.HandleFunc("/strategies", s.handleStrategies).Methods(http.MethodGet)
	router.HandleFunc("/auth/verify-token", s.authenticated(s.handleVerifyToken)).Methods(http.MethodPost)
	router.HandleFunc("/iq/status", s.authenticated(s.handleStatus)).Methods(http.MethodGet)
	router.HandleFunc("/iq/connect", s.authenticated(s.handleConnect)).Methods(http.MethodPost)
	router.HandleFunc("/iq/disconnect", s.authenticated(s.handleDisconnect)).Methods(http.MethodDelete)
	router.HandleFunc("/iq/balance", s.authenticated(s.handleBalance)).Methods(http.MethodGet)
	router.HandleFunc("/session/start", s.authenticated(s.handleStartSession(types.SessionModeAuto))).Methods(http.MethodPost)
	router.HandleFunc("/session/stop", s.authenticated(s.handleStopSession)).Methods(http.MethodPost)
	router.HandleFunc("/signal/start", s.authenticated(s.handleStartSession(types.SessionModeSignal))).Methods(http.MethodPost)
	router.HandleFunc("/signal/stop", s.authenticated(s.handleStopSession)).Methods(http.MethodPost)
	router.HandleFunc("/me/sessions", s.authenticated(s.handleSessions)).Methods(http.MethodGet)
	router.HandleFunc("/me/trades", s.authenticated(s.handleTrades)).Methods(http.MethodGet)

	router.HandleFunc("/ws/stream", s.handleWebSocket)

	s.httpServer = &http.Server{ //nolint:exhaustruct
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			fmt.Printf("HTTP server error: %v\n", err)
		}
	}()

	return nil
}

// Stop closes every stream connection and stops the server.
func (s *MockAxonServer) Stop() error {
	s.DropConnections()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// Address returns the address the server is listening on.
func (s *MockAxonServer) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// BaseURL returns the base URL of the control surface.
func (s *MockAxonServer) BaseURL() string {
	return "http://" + s.Address()
}

// StreamURL returns the streaming endpoint URL.
func (s *MockAxonServer) StreamURL() string {
	return "ws://" + s.Address() + "/ws/stream"
}

// AddToken accepts token as an identity of uid.
func (s *MockAxonServer) AddToken(token, uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[token] = uid
}

// SetBrokerConnected sets the broker link status.
func (s *MockAxonServer) SetBrokerConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.brokerConnected = connected
}

// BrokerConnected returns the broker link status.
func (s *MockAxonServer) BrokerConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.brokerConnected
}

// AddSession records a session as the most recent one.
func (s *MockAxonServer) AddSession(record types.SessionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = append([]types.SessionRecord{record}, s.sessions...)
}

// Sessions returns the recorded sessions, most recent first.
func (s *MockAxonServer) Sessions() []types.SessionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]types.SessionRecord(nil), s.sessions...)
}

// AddTrade records an executed trade.
func (s *MockAxonServer) AddTrade(trade types.TradeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trades = append(s.trades, trade)
}

// FailNext makes the next request to method and path return failure.
func (s *MockAxonServer) FailNext(method, path string, failure Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := method + " " + path
	s.failures[key] = append(s.failures[key], failure)
}

// Requests returns the recorded requests to path, or every request when path is empty.
func (s *MockAxonServer) Requests(path string) []Request {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Request, 0, len(s.requests))
	for _, r := range s.requests {
		if path == "" || r.Path == path {
			result = append(result, r)
		}
	}

	return result
}

// Broadcast writes a text frame to every open stream connection.
func (s *MockAxonServer) Broadcast(frame string) {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()

	for conn := range s.wsConnections {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(frame))
	}
}

// BroadcastJSON marshals v and broadcasts it.
func (s *MockAxonServer) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.Broadcast(string(data))

	return nil
}

// DropConnections closes every stream connection without a close handshake.
func (s *MockAxonServer) DropConnections() {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()

	for conn := range s.wsConnections {
		_ = conn.Close()
	}

	s.wsConnections = make(map[*websocket.Conn]string)
}

// StreamConnections returns the number of open stream connections.
func (s *MockAxonServer) StreamConnections() int {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()

	return len(s.wsConnections)
}

// StreamTokens returns the tokens of every accepted stream connection, in order.
func (s *MockAxonServer) StreamTokens() []string {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()

	return append([]string(nil), s.streamTokens...)
}

// WaitForConnection waits for the next accepted stream connection and returns its token.
func (s *MockAxonServer) WaitForConnection(timeout time.Duration) (string, bool) {
	select {
	case token := <-s.connected:
		return token, true
	case <-time.After(timeout):
		return "", false
	}
}

// Middleware

func (s *MockAxonServer) recordRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     r.URL.RawQuery,
			Body:      body,
			Token:     bearerToken(r),
			RequestID: r.Header.Get("X-Request-ID"),
		})

		key := r.Method + " " + r.URL.Path
		queue := s.failures[key]

		var failure *Failure
		if len(queue) > 0 {
			failure = &queue[0]
			s.failures[key] = queue[1:]
		}
		s.mu.Unlock()

		if failure != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(failure.Status)
			_, _ = w.Write([]byte(failure.Body))

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *MockAxonServer) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "invalid authorization header"})

			return
		}

		if _, ok := s.uid(token); !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "invalid token"})

			return
		}

		next(w, r)
	}
}

func (s *MockAxonServer) uid(token string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uid, ok := s.tokens[token]

	return uid, ok
}

// REST Handlers

func (s *MockAxonServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *MockAxonServer) handlePairs(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string][]string{"pairs": s.pairs})
}

func (s *MockAxonServer) handleStrategies(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string][]string{"strategies": s.strategies})
}

func (s *MockAxonServer) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	uid, _ := s.uid(bearerToken(r))
	writeJSON(w, http.StatusOK, map[string]string{"uid": uid})
}

func (s *MockAxonServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, types.BrokerStatus{Connected: s.BrokerConnected()})
}

func (s *MockAxonServer) handleConnect(w http.ResponseWriter, r *http.Request) {
	var creds types.BrokerCredentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Username == "" || creds.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "username and password are required"})

		return
	}

	s.SetBrokerConnected(true)
	writeJSON(w, http.StatusOK, map[string]string{"status": "connected"})
}

func (s *MockAxonServer) handleDisconnect(w http.ResponseWriter, _ *http.Request) {
	s.SetBrokerConnected(false)
	writeJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}

func (s *MockAxonServer) handleBalance(w http.ResponseWriter, _ *http.Request) {
	if !s.BrokerConnected() {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error_code": "UPSTREAM_BALANCE_FAILED",
			"message":    "broker not connected",
		})

		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]float64{"balance": s.balance})
}

func (s *MockAxonServer) handleStartSession(mode types.SessionMode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params map[string]any
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "invalid body"})

			return
		}

		record := types.SessionRecord{
			ID:     uuid.NewString(),
			Mode:   mode,
			Status: string(types.SessionStatusRunning),
			Trades: 0,
			Profit: 0,
		}
		s.AddSession(record)

		writeJSON(w, http.StatusOK, map[string]string{"session_id": record.ID})
	}
}

func (s *MockAxonServer) handleStopSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.SessionID == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "session_id is required"})

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sessions {
		if s.sessions[i].ID == body.SessionID {
			s.sessions[i].Status = "stopped"
			writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})

			return
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "session not found"})
}

func (s *MockAxonServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.Sessions()

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "invalid limit"})

			return
		}

		if limit < len(sessions) {
			sessions = sessions[:limit]
		}
	}

	writeJSON(w, http.StatusOK, sessions)
}

func (s *MockAxonServer) handleTrades(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	writeJSON(w, http.StatusOK, s.trades)
}

// WebSocket Handler

func (s *MockAxonServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if _, ok := s.uid(token); !ok {
		http.Error(w, "invalid token", http.StatusUnauthorized)

		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.wsMu.Lock()
	s.wsConnections[conn] = token
	s.streamTokens = append(s.streamTokens, token)
	s.wsMu.Unlock()

	select {
	case s.connected <- token:
	default:
	}

	defer func() {
		s.wsMu.Lock()
		delete(s.wsConnections, conn)
		s.wsMu.Unlock()
		conn.Close()
	}()

	// The client never sends data frames; reading processes control frames.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
