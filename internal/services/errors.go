// Package services defines the reminder bot's business logic: form default
// rounding, lead-time parsing, submission validation, the reminder text
// codec, scheduled-list formatting, and the scheduling flows that talk to the
// chat platform through the Gateway port.
//
// This file centralizes service-level error values so that they can be
// consistently returned by service methods and checked by callers.
package services

import "errors"

var (
	// ErrInvalidOffsetToken is returned by ParseOffset for any token that is
	// not "0" or a signed integer followed by m, h or d.
	ErrInvalidOffsetToken = errors.New("invalid offset token")

	// ErrScheduleFailed wraps gateway failures in the scheduling flows. The
	// user/channel and fallback destination have already been notified when
	// it is returned.
	ErrScheduleFailed = errors.New("schedule failed")

	// ErrListFailed wraps gateway failures while listing scheduled messages.
	ErrListFailed = errors.New("list scheduled messages failed")
)
