// Package advisory maps service error codes to guidance for the user.
package advisory

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/moznion/go-optional"
)

type rule struct {
	patterns []string
	advice   string
}

// rules are matched in order against the upper-cased error code.
var rules = []rule{
	{
		patterns: []string{"RATE_LIMIT"},
		advice:   "Too many requests to the broker. Wait a minute before trying again.",
	},
	{
		patterns: []string{"INSTRUMENT_CLOSED"},
		advice:   "This instrument is closed right now. Pick another pair or wait for it to reopen.",
	},
	{
		patterns: []string{"MARKET_CLOSED"},
		advice:   "The market is closed. Try again during trading hours or use an OTC pair.",
	},
	{
		patterns: []string{"INSUFFICIENT_FUNDS"},
		advice:   "Insufficient balance. Lower the trade amount or fund the account.",
	},
	{
		patterns: []string{"TRADE_EXPIRED"},
		advice:   "The trade expired before it was placed. Try a longer timeframe.",
	},
	{
		patterns: []string{"LOGIN_FAILED", "AUTH_FAILED"},
		advice:   "Broker login failed. Check your credentials and connect again.",
	},
}

// Advice returns guidance text for a service error code, or "" when the
// code is not recognized. Matching is a case-insensitive substring match,
// so "UPSTREAM_LOGIN_FAILED" matches the login rule.
func Advice(code string) string {
	upper := strings.ToUpper(code)
	if upper == "" {
		return ""
	}

	for _, r := range rules {
		for _, pattern := range r.patterns {
			if strings.Contains(upper, pattern) {
				return r.advice
			}
		}
	}

	return ""
}

// ConnectError is the parsed body of a failed broker connect.
type ConnectError struct {
	Message      string
	RetryMinutes optional.Option[int]
}

// String renders the error for display.
func (c ConnectError) String() string {
	if c.RetryMinutes.IsNone() {
		return c.Message
	}

	minutes := c.RetryMinutes.Unwrap()
	unit := "minutes"
	if minutes == 1 {
		unit = "minute"
	}

	return c.Message + ". Try again in " + strconv.Itoa(minutes) + " " + unit + "."
}

type connectBody struct {
	Detail json.RawMessage `json:"detail"`
}

type upstreamBody struct {
	Message string   `json:"message"`
	TTL     *float64 `json:"ttl"`
}

// ParseConnectError extracts a message and an optional retry delay from a
// connect failure body. The body is usually {"detail": "..."} where the detail
// text may embed the upstream JSON error, e.g.
// {"message":"Too many attempts","ttl":125}. A positive ttl in seconds becomes
// RetryMinutes, rounded up.
func ParseConnectError(body []byte) ConnectError {
	detail := detailText(body)

	start := strings.Index(detail, "{")
	end := strings.LastIndex(detail, "}")

	if start >= 0 && end > start {
		var upstream upstreamBody
		if err := json.Unmarshal([]byte(detail[start:end+1]), &upstream); err == nil &&
			upstream.TTL != nil && *upstream.TTL > 0 {
			message := upstream.Message
			if message == "" {
				message = detail
			}

			return ConnectError{
				Message:      message,
				RetryMinutes: optional.Some(int(math.Ceil(*upstream.TTL / 60))),
			}
		}
	}

	return ConnectError{
		Message:      detail,
		RetryMinutes: optional.None[int](),
	}
}

func detailText(body []byte) string {
	raw := strings.TrimSpace(string(body))

	var outer connectBody
	if err := json.Unmarshal(body, &outer); err != nil || len(outer.Detail) == 0 {
		return raw
	}

	var text string
	if err := json.Unmarshal(outer.Detail, &text); err == nil {
		if text == "" {
			return raw
		}

		return text
	}

	return string(outer.Detail)
}
