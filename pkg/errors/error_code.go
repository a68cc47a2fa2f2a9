package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeMissingToken         ErrorCode = 102
	ErrCodeMissingParameter     ErrorCode = 103
	ErrCodeInvalidStartParams   ErrorCode = 104
	ErrCodeInvalidSessionMode   ErrorCode = 105

	// Transport errors (200-299)
	ErrCodeDialFailed         ErrorCode = 200
	ErrCodeConnectionLost     ErrorCode = 201
	ErrCodeSupervisorClosed   ErrorCode = 202
	ErrCodeRequestFailed      ErrorCode = 203
	ErrCodeInvalidEndpointURL ErrorCode = 204

	// Decode errors (300-399)
	ErrCodeMalformedFrame   ErrorCode = 300
	ErrCodeMissingType      ErrorCode = 301
	ErrCodeMalformedPayload ErrorCode = 302
	ErrCodeMalformedBody    ErrorCode = 303

	// Service errors (400-499)
	ErrCodeServiceError ErrorCode = 400

	// Session errors (500-599)
	ErrCodeSessionStartFailed ErrorCode = 500
	ErrCodeSessionStopFailed  ErrorCode = 501
	ErrCodeReconcileFailed    ErrorCode = 502
)
