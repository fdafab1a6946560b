package services

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-reminder-bot/internal/config"
	"github.com/tbourn/go-reminder-bot/internal/domain"
)

// Field identifies a form input independently of its Block Kit block ID.
type Field string

const (
	FieldBody    Field = "body"
	FieldTitle   Field = "title"
	FieldDetails Field = "details"
	FieldDate    Field = "date"
	FieldHour    Field = "hour"
	FieldMinute  Field = "minute"
	FieldMention Field = "mention"
	FieldOffset  Field = "offset"
)

// FieldErrors is a recoverable validation failure: one message per offending
// field. It is rendered inline on the still-open form.
type FieldErrors map[Field]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for f := range fe {
		keys = append(keys, string(f))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[Field(k)])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether f carries an error.
func (fe FieldErrors) Has(f Field) bool {
	_, ok := fe[f]
	return ok
}

// ReminderSubmission is the typed content of a submitted simple-reminder form.
type ReminderSubmission struct {
	ChannelID     string
	UserID        string
	Body          string
	Date          string // YYYY-MM-DD
	Hour          string // "00".."23"
	Minute        string // "00".."55"
	MentionUserID string
}

// EventSubmission is the typed content of a submitted schedule form.
type EventSubmission struct {
	ChannelID string
	UserID    string
	Title     string
	Details   string
	Date      string
	Hour      string
	Minute    string
	Offset    string // lead-time token, "" treated as "0"
}

// Validator turns submissions into validated requests.
//
// Wall-clock input is interpreted in the configured location and converted
// once to UTC; every comparison against now happens on instants.
type Validator struct {
	loc  *time.Location
	msgs config.Messages
}

// NewValidator builds a Validator from the immutable configuration.
func NewValidator(cfg *config.Config) *Validator {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Validator{loc: loc, msgs: cfg.Messages}
}

// ValidateReminder checks a simple reminder. It returns FieldErrors when the
// body is blank, the date/time is unparseable, or the fire time is not
// strictly after now.
func (v *Validator) ValidateReminder(sub ReminderSubmission, now time.Time) (*domain.ReminderRequest, error) {
	fe := FieldErrors{}
	body := strings.TrimSpace(sub.Body)
	if body == "" {
		fe[FieldBody] = v.msgs.RequiredError
	}
	fireAt, ok := v.wallClock(sub.Date, sub.Hour, sub.Minute, fe)
	if ok && !fireAt.After(now) {
		fe[FieldDate] = v.msgs.PastDateError
	}
	if len(fe) > 0 {
		return nil, fe
	}
	return &domain.ReminderRequest{
		OriginChannelID: sub.ChannelID,
		SetterUserID:    sub.UserID,
		Body:            sub.Body,
		FireAt:          fireAt.UTC(),
		WallClock:       fireAt.Format(domain.WallClockLayout),
		MentionUserID:   strings.TrimSpace(sub.MentionUserID),
	}, nil
}

// ValidateEvent checks a titled event. A past event time is reported on the
// date field regardless of the lead time; a lead-time reminder that would
// fire at or before now is reported on the offset field even though the event
// time itself is valid.
func (v *Validator) ValidateEvent(sub EventSubmission, now time.Time) (*domain.ScheduleRequest, error) {
	fe := FieldErrors{}
	title := strings.TrimSpace(sub.Title)
	if title == "" {
		fe[FieldTitle] = v.msgs.RequiredError
	}
	fireAt, ok := v.wallClock(sub.Date, sub.Hour, sub.Minute, fe)
	if ok && !fireAt.After(now) {
		fe[FieldDate] = v.msgs.PastDateError
		return nil, fe
	}

	token := sub.Offset
	if token == "" {
		token = domain.LeadTimeNone
	}
	offset, err := ParseOffset(token)
	if err != nil {
		fe[FieldOffset] = v.msgs.InvalidOffsetError
	}

	var remindAt *time.Time
	if ok && err == nil && offset != 0 {
		early := fireAt.Add(offset)
		if !early.After(now) {
			fe[FieldOffset] = v.msgs.PastOffsetError
		} else {
			u := early.UTC()
			remindAt = &u
		}
	}
	if len(fe) > 0 {
		return nil, fe
	}
	return &domain.ScheduleRequest{
		OriginChannelID:     sub.ChannelID,
		SetterUserID:        sub.UserID,
		Title:               title,
		Body:                sub.Details,
		FireAt:              fireAt.UTC(),
		WallClock:           fireAt.Format(domain.WallClockLayout),
		LeadTimeOffsetToken: token,
		RemindAt:            remindAt,
	}, nil
}

// wallClock combines date, hour and minute into a time in v.loc, recording
// field errors for any unparseable part.
func (v *Validator) wallClock(date, hour, minute string, fe FieldErrors) (time.Time, bool) {
	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), v.loc)
	if err != nil {
		fe[FieldDate] = v.msgs.InvalidDateError
	}
	h, herr := strconv.Atoi(strings.TrimSpace(hour))
	if herr != nil || h < 0 || h > 23 {
		fe[FieldHour] = v.msgs.InvalidHourError
	}
	m, merr := strconv.Atoi(strings.TrimSpace(minute))
	if merr != nil || m < 0 || m > 59 {
		fe[FieldMinute] = v.msgs.InvalidMinuteError
	}
	if fe.Has(FieldDate) || fe.Has(FieldHour) || fe.Has(FieldMinute) {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, v.loc), true
}
