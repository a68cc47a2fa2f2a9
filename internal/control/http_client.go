package control

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rxtech-lab/axon-client/internal/identity"
	"github.com/rxtech-lab/axon-client/internal/logger"
	"github.com/rxtech-lab/axon-client/internal/types"
	"github.com/rxtech-lab/axon-client/internal/version"
	"github.com/rxtech-lab/axon-client/pkg/errors"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// Config configures the HTTP control client.
type Config struct {
	// BaseURL is the root of the control surface, e.g. http://localhost:8000.
	BaseURL string `validate:"required,url"`
	// RequestTimeout bounds a single call. Zero means no timeout.
	RequestTimeout time.Duration `validate:"gte=0"`
}

// HTTPClient implements ControlClient over HTTP.
type HTTPClient struct {
	client *resty.Client
	tokens identity.TokenProvider
	logger *logger.Logger
}

var _ ControlClient = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient. Calls that need an identity fetch the
// token from tokens at call time.
func NewHTTPClient(config Config, tokens identity.TokenProvider, log *logger.Logger) (*HTTPClient, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidEndpointURL, "invalid control client configuration", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	named := log.Named("control")

	client := resty.New().
		SetBaseURL(config.BaseURL).
		SetHeader("User-Agent", version.UserAgent()).
		SetHeader("Accept", "application/json").
		SetRetryCount(0).
		SetLogger(named.Sugar())

	if config.RequestTimeout > 0 {
		client.SetTimeout(config.RequestTimeout)
	}

	return &HTTPClient{
		client: client,
		tokens: tokens,
		logger: named,
	}, nil
}

// Health implements ControlClient.
func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var out struct {
		Status string `json:"status"`
	}

	if err := c.call(ctx, http.MethodGet, "/health", false, nil, &out); err != nil {
		return "", err
	}

	return out.Status, nil
}

// VerifyToken implements ControlClient.
func (c *HTTPClient) VerifyToken(ctx context.Context) (string, error) {
	var out struct {
		UID string `json:"uid"`
	}

	if err := c.call(ctx, http.MethodPost, "/auth/verify-token", true, nil, &out); err != nil {
		return "", err
	}

	return out.UID, nil
}

// Status implements ControlClient.
func (c *HTTPClient) Status(ctx context.Context) (types.BrokerStatus, error) {
	var out types.BrokerStatus
	if err := c.call(ctx, http.MethodGet, "/iq/status", true, nil, &out); err != nil {
		return types.BrokerStatus{}, err //nolint:exhaustruct
	}

	return out, nil
}

// Connect implements ControlClient. A missing account type defaults to PRACTICE.
func (c *HTTPClient) Connect(ctx context.Context, creds types.BrokerCredentials) error {
	if creds.AccountType == "" {
		creds.AccountType = types.AccountTypePractice
	}

	validate := validator.New()
	if err := validate.Struct(creds); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid broker credentials", err)
	}

	req, err := c.request(ctx, true)
	if err != nil {
		return err
	}

	resp, err := c.execute(req.SetBody(creds), http.MethodPost, "/iq/connect")
	if err != nil {
		return err
	}

	if !resp.IsSuccess() {
		return c.logServiceError(connectError(resp.StatusCode(), resp.Body()), "/iq/connect")
	}

	return embeddedError(resp)
}

// Disconnect implements ControlClient.
func (c *HTTPClient) Disconnect(ctx context.Context) error {
	return c.call(ctx, http.MethodDelete, "/iq/disconnect", true, nil, nil)
}

// Balance implements ControlClient.
func (c *HTTPClient) Balance(ctx context.Context) (types.Balance, error) {
	var out types.Balance
	if err := c.call(ctx, http.MethodGet, "/iq/balance", true, nil, &out); err != nil {
		return types.Balance{}, err //nolint:exhaustruct
	}

	return out, nil
}

// ListPairs implements ControlClient.
func (c *HTTPClient) ListPairs(ctx context.Context) ([]string, error) {
	var out struct {
		Pairs []string `json:"pairs"`
	}

	if err := c.call(ctx, http.MethodGet, "/pairs", false, nil, &out); err != nil {
		return nil, err
	}

	return out.Pairs, nil
}

// ListStrategies implements ControlClient.
func (c *HTTPClient) ListStrategies(ctx context.Context) ([]string, error) {
	var out struct {
		Strategies []string `json:"strategies"`
	}

	if err := c.call(ctx, http.MethodGet, "/strategies", false, nil, &out); err != nil {
		return nil, err
	}

	return out.Strategies, nil
}

// StartAutoSession implements ControlClient. Missing parameters get their
// defaults and the result is validated before any request is made.
func (c *HTTPClient) StartAutoSession(ctx context.Context, params types.StartParams) (string, error) {
	params = params.WithDefaults()
	if err := params.Validate(); err != nil {
		return "", err
	}

	return c.startSession(ctx, "/session/start", params)
}

// StopAutoSession implements ControlClient.
func (c *HTTPClient) StopAutoSession(ctx context.Context, sessionID string) error {
	return c.stopSession(ctx, "/session/stop", sessionID)
}

// StartSignalSession implements ControlClient.
func (c *HTTPClient) StartSignalSession(ctx context.Context, params types.SignalParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	return c.startSession(ctx, "/signal/start", params)
}

// StopSignalSession implements ControlClient.
func (c *HTTPClient) StopSignalSession(ctx context.Context, sessionID string) error {
	return c.stopSession(ctx, "/signal/stop", sessionID)
}

// RecentSessions implements ControlClient. A limit below one returns every session.
func (c *HTTPClient) RecentSessions(ctx context.Context, limit int) ([]types.SessionRecord, error) {
	req, err := c.request(ctx, true)
	if err != nil {
		return nil, err
	}

	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}

	var out []types.SessionRecord
	if err := c.send(req, http.MethodGet, "/me/sessions", &out); err != nil {
		return nil, err
	}

	return out, nil
}

// RecentTrades implements ControlClient.
func (c *HTTPClient) RecentTrades(ctx context.Context) ([]types.TradeRecord, error) {
	var out []types.TradeRecord
	if err := c.call(ctx, http.MethodGet, "/me/trades", true, nil, &out); err != nil {
		return nil, err
	}

	return out, nil
}

type sessionBody struct {
	SessionID string `json:"session_id"`
}

func (c *HTTPClient) startSession(ctx context.Context, path string, body any) (string, error) {
	var out sessionBody
	if err := c.call(ctx, http.MethodPost, path, true, body, &out); err != nil {
		return "", err
	}

	if out.SessionID == "" {
		return "", errors.Newf(errors.ErrCodeMalformedBody, "%s returned no session_id", path)
	}

	return out.SessionID, nil
}

func (c *HTTPClient) stopSession(ctx context.Context, path, sessionID string) error {
	if sessionID == "" {
		return errors.New(errors.ErrCodeMissingParameter, "session id is required")
	}

	return c.call(ctx, http.MethodPost, path, true, sessionBody{SessionID: sessionID}, nil)
}

// call issues a request with an optional JSON body and decodes the response into out.
func (c *HTTPClient) call(ctx context.Context, method, path string, authenticated bool, body, out any) error {
	req, err := c.request(ctx, authenticated)
	if err != nil {
		return err
	}

	if body != nil {
		req.SetBody(body)
	}

	return c.send(req, method, path, out)
}

// request prepares a request. Authenticated requests fail before any network
// I/O when the identity token is missing.
func (c *HTTPClient) request(ctx context.Context, authenticated bool) (*resty.Request, error) {
	req := c.client.R().
		SetContext(ctx).
		SetHeader(requestIDHeader, uuid.NewString())

	if authenticated {
		token, err := identity.Require(ctx, c.tokens)
		if err != nil {
			return nil, err
		}

		req.SetAuthToken(token)
	}

	return req, nil
}

func (c *HTTPClient) send(req *resty.Request, method, path string, out any) error {
	resp, err := c.execute(req, method, path)
	if err != nil {
		return err
	}

	if !resp.IsSuccess() {
		return c.logServiceError(parseServiceError(resp.StatusCode(), resp.Body()), path)
	}

	if err := embeddedError(resp); err != nil {
		return c.logServiceError(err, path)
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return errors.Wrapf(errors.ErrCodeMalformedBody, err, "failed to decode %s response", path)
	}

	return nil
}

func (c *HTTPClient) execute(req *resty.Request, method, path string) (*resty.Response, error) {
	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Warn("Control request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", req.Header.Get(requestIDHeader)),
			zap.Error(err),
		)

		return nil, errors.Wrapf(errors.ErrCodeRequestFailed, err, "%s %s failed", method, path)
	}

	c.logger.Debug("Control request",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", req.Header.Get(requestIDHeader)),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("duration", resp.Time()),
	)

	return resp, nil
}

func (c *HTTPClient) logServiceError(err error, path string) error {
	if serviceErr, ok := errors.AsServiceError(err); ok {
		c.logger.Warn("Control request rejected",
			zap.String("path", path),
			zap.Int("status", serviceErr.StatusCode),
			zap.String("error_code", serviceErr.ErrorCode),
			zap.String("message", serviceErr.Message),
		)
	}

	return err
}

// embeddedError reports a failure the broker gateway returned with a 2xx
// status as {"error_code": ..., "message": ...}.
func embeddedError(resp *resty.Response) error {
	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 || body[0] != '{' {
		return nil
	}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.ErrorCode == "" {
		return nil
	}

	return parseServiceError(resp.StatusCode(), body)
}
