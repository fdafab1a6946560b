package handlers

// Error codes carried in ErrorResponse.Code. Lowercase snake_case, stable.
const (
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Slack payloads
	ErrCodeMalformedCommand = "malformed_command"
	ErrCodeMalformedPayload = "malformed_payload"
	ErrCodeUnknownCallback  = "unknown_callback"
)
