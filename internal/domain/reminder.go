// Package domain defines the value types that flow through the reminder bot:
// validated requests, scheduled-message summaries read back from Slack, form
// default boundaries, and the error type used for platform failures.
//
// None of these types outlive a single request/response cycle except the
// delivery ledger record (see idempotency.go), which only exists to
// deduplicate redelivered submissions.
package domain

import (
	"fmt"
	"time"
)

// WallClockLayout is the layout used when a fire time is shown back to users
// in confirmations and reminder bodies.
const WallClockLayout = "2006-01-02 15:04"

// Boundary is a wall-clock time aligned to the form's minute interval. It is
// recomputed every time a form is opened and used as the form default.
type Boundary struct {
	Time   time.Time
	Date   string // YYYY-MM-DD
	Hour   int    // 0..23
	Minute int    // aligned to the configured interval
}

// NewBoundary derives the date/hour/minute triple from t in t's location.
func NewBoundary(t time.Time) Boundary {
	return Boundary{
		Time:   t,
		Date:   t.Format("2006-01-02"),
		Hour:   t.Hour(),
		Minute: t.Minute(),
	}
}

// HourValue returns the two-digit hour used as a select option value.
func (b Boundary) HourValue() string { return fmt.Sprintf("%02d", b.Hour) }

// MinuteValue returns the two-digit minute used as a select option value.
func (b Boundary) MinuteValue() string { return fmt.Sprintf("%02d", b.Minute) }

// LeadTimeNone is the selector token for "notify only at event time".
const LeadTimeNone = "0"

// LeadTimes is the fixed set of lead-time tokens offered by the schedule form,
// in display order.
var LeadTimes = []string{LeadTimeNone, "-15m", "-30m", "-1h", "-3h", "-1d", "-3d"}

// ReminderRequest is a validated simple reminder, ready to be scheduled.
type ReminderRequest struct {
	OriginChannelID string
	SetterUserID    string
	Body            string
	FireAt          time.Time // UTC
	WallClock       string    // FireAt rendered in the bot's location
	MentionUserID   string    // optional
}

// ScheduleRequest is a validated titled event with an optional early reminder.
//
// Invariant at validation time: FireAt is after now, and when RemindAt is set
// it is after now as well.
type ScheduleRequest struct {
	OriginChannelID     string
	SetterUserID        string
	Title               string
	Body                string // optional details
	FireAt              time.Time
	WallClock           string
	LeadTimeOffsetToken string
	RemindAt            *time.Time // nil when LeadTimeOffsetToken resolves to zero
}

// HasEarlyReminder reports whether a second, lead-time reminder is requested.
func (r ScheduleRequest) HasEarlyReminder() bool { return r.RemindAt != nil }

// ScheduledMessageSummary mirrors one entry of Slack's scheduled message list.
// Slack owns the record; the bot only reads it transiently.
type ScheduledMessageSummary struct {
	ID      string
	Channel string
	PostAt  int64 // UTC epoch seconds
	RawText string
}

// PostAtTime returns PostAt as a UTC time.
func (s ScheduledMessageSummary) PostAtTime() time.Time {
	return time.Unix(s.PostAt, 0).UTC()
}
