package domain

import "fmt"

// GatewayError is a failure reported by (or on the way to) the chat platform.
//
// Code carries the platform's machine-readable error (e.g. "channel_not_found",
// "time_too_far", "ratelimited"); Message carries any extra detail such as the
// underlying transport error.
type GatewayError struct {
	Op      string // API method, e.g. "chat.scheduleMessage"
	Code    string
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("%s: %s (%s)", e.Op, e.Code, e.Message)
	case e.Code != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
}

// Unwrap exposes the underlying client error.
func (e *GatewayError) Unwrap() error { return e.Err }

// Detail is the short text shown to users and operators: the platform code
// when there is one, otherwise the full message.
func (e *GatewayError) Detail() string {
	if e.Code != "" {
		return e.Code
	}
	return e.Message
}
