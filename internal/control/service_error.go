package control

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/rxtech-lab/axon-client/internal/advisory"
	"github.com/rxtech-lab/axon-client/pkg/errors"
)

type errorBody struct {
	ErrorCode string          `json:"error_code"`
	Message   string          `json:"message"`
	Detail    json.RawMessage `json:"detail"`
}

// parseServiceError builds a ServiceError from a non-2xx response body. The
// service answers either {"detail": ...} or {"error_code": ..., "message": ...}.
func parseServiceError(status int, body []byte) *errors.ServiceError {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		parsed = errorBody{} //nolint:exhaustruct
	}

	if len(parsed.Detail) > 0 {
		var nested errorBody
		if err := json.Unmarshal(parsed.Detail, &nested); err == nil {
			if parsed.ErrorCode == "" {
				parsed.ErrorCode = nested.ErrorCode
			}

			if parsed.Message == "" {
				parsed.Message = nested.Message
			}
		}
	}

	message := parsed.Message
	if message == "" {
		message = detailString(parsed.Detail)
	}

	if message == "" {
		message = strings.TrimSpace(string(body))
	}

	if message == "" {
		message = http.StatusText(status)
	}

	code := parsed.ErrorCode
	if code == "" {
		code = codeForStatus(status)
	}

	serviceErr := errors.NewServiceError(status, code, message)
	serviceErr.Advice = advisory.Advice(code)

	return serviceErr
}

// connectError parses a failed broker connect. The detail may carry the
// upstream error with a retry delay.
func connectError(status int, body []byte) *errors.ServiceError {
	serviceErr := parseServiceError(status, body)

	parsed := advisory.ParseConnectError(body)
	if parsed.RetryMinutes.IsSome() {
		serviceErr.Message = parsed.Message
		serviceErr.RetryMinutes = parsed.RetryMinutes
	}

	if serviceErr.Advice == "" {
		serviceErr.Advice = advisory.Advice("LOGIN_FAILED")
	}

	return serviceErr
}

func detailString(detail json.RawMessage) string {
	if len(detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(detail, &text); err == nil {
		return text
	}

	return ""
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusTooManyRequests:
		return "RATE_LIMIT"
	default:
		return "HTTP_" + strconv.Itoa(status)
	}
}
