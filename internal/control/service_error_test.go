package control

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseServiceError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		code    string
		message string
		advised bool
	}{
		{
			name:    "detail string",
			status:  http.StatusUnauthorized,
			body:    `{"detail":"invalid token"}`,
			code:    "UNAUTHORIZED",
			message: "invalid token",
		},
		{
			name:    "gateway error",
			status:  http.StatusLocked,
			body:    `{"error_code":"MARKET_CLOSED","message":"order failed"}`,
			code:    "MARKET_CLOSED",
			message: "order failed",
			advised: true,
		},
		{
			name:    "detail object",
			status:  http.StatusConflict,
			body:    `{"detail":{"error_code":"INSTRUMENT_CLOSED","message":"closed"}}`,
			code:    "INSTRUMENT_CLOSED",
			message: "closed",
			advised: true,
		},
		{
			name:    "rate limited without body",
			status:  http.StatusTooManyRequests,
			body:    ``,
			code:    "RATE_LIMIT",
			message: "Too Many Requests",
			advised: true,
		},
		{
			name:    "plain text",
			status:  http.StatusBadGateway,
			body:    `upstream unavailable`,
			code:    "HTTP_502",
			message: "upstream unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseServiceError(tt.status, []byte(tt.body))
			assert.Equal(t, tt.status, err.StatusCode)
			assert.Equal(t, tt.code, err.ErrorCode)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.advised, err.Advice != "")
			assert.True(t, err.RetryMinutes.IsNone())
		})
	}
}

func TestConnectErrorDefaultsToLoginAdvice(t *testing.T) {
	err := connectError(http.StatusBadRequest, []byte(`{"detail":"invalid credentials"}`))
	assert.Equal(t, "invalid credentials", err.Message)
	assert.NotEmpty(t, err.Advice)
	assert.True(t, err.RetryMinutes.IsNone())
}
