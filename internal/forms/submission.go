package forms

import (
	"errors"

	"github.com/slack-go/slack"

	"github.com/tbourn/go-reminder-bot/internal/services"
)

// ErrMissingState is returned when a view submission carries no state values.
var ErrMissingState = errors.New("view submission has no state")

type stateValues map[string]map[string]slack.BlockAction

func (s stateValues) get(block, action string) slack.BlockAction {
	return s[block][action]
}

func values(cb *slack.InteractionCallback) (stateValues, error) {
	if cb == nil || cb.View.State == nil || cb.View.State.Values == nil {
		return nil, ErrMissingState
	}
	return stateValues(cb.View.State.Values), nil
}

// ParseReminderSubmission extracts the simple-reminder form. The origin
// channel comes from private_metadata and the setter from the callback user.
func ParseReminderSubmission(cb *slack.InteractionCallback) (services.ReminderSubmission, error) {
	v, err := values(cb)
	if err != nil {
		return services.ReminderSubmission{}, err
	}
	return services.ReminderSubmission{
		ChannelID:     cb.View.PrivateMetadata,
		UserID:        cb.User.ID,
		Body:          v.get(ReminderBodyBlock, ReminderBodyAction).Value,
		Date:          v.get(ReminderDateBlock, ReminderDateAction).SelectedDate,
		Hour:          v.get(ReminderHourBlock, ReminderHourAction).SelectedOption.Value,
		Minute:        v.get(ReminderMinuteBlock, ReminderMinuteAction).SelectedOption.Value,
		MentionUserID: v.get(ReminderMentionBlock, ReminderMentionAction).SelectedUser,
	}, nil
}

// ParseEventSubmission extracts the schedule form.
func ParseEventSubmission(cb *slack.InteractionCallback) (services.EventSubmission, error) {
	v, err := values(cb)
	if err != nil {
		return services.EventSubmission{}, err
	}
	return services.EventSubmission{
		ChannelID: cb.View.PrivateMetadata,
		UserID:    cb.User.ID,
		Title:     v.get(ScheduleTitleBlock, ScheduleTitleAction).Value,
		Details:   v.get(ScheduleDetailsBlock, ScheduleDetailsAction).Value,
		Date:      v.get(ScheduleDateBlock, ScheduleDateAction).SelectedDate,
		Hour:      v.get(ScheduleHourBlock, ScheduleHourAction).SelectedOption.Value,
		Minute:    v.get(ScheduleMinuteBlock, ScheduleMinuteAction).SelectedOption.Value,
		Offset:    v.get(ScheduleOffsetBlock, ScheduleOffsetAction).SelectedOption.Value,
	}, nil
}

var reminderBlocks = map[services.Field]string{
	services.FieldBody:    ReminderBodyBlock,
	services.FieldDate:    ReminderDateBlock,
	services.FieldHour:    ReminderHourBlock,
	services.FieldMinute:  ReminderMinuteBlock,
	services.FieldMention: ReminderMentionBlock,
}

var scheduleBlocks = map[services.Field]string{
	services.FieldTitle:   ScheduleTitleBlock,
	services.FieldDetails: ScheduleDetailsBlock,
	services.FieldDate:    ScheduleDateBlock,
	services.FieldHour:    ScheduleHourBlock,
	services.FieldMinute:  ScheduleMinuteBlock,
	services.FieldOffset:  ScheduleOffsetBlock,
}

// ReminderErrors maps field errors onto reminder modal block IDs for a
// response_action=errors reply.
func ReminderErrors(fe services.FieldErrors) map[string]string {
	return blockErrors(fe, reminderBlocks)
}

// ScheduleErrors maps field errors onto schedule modal block IDs.
func ScheduleErrors(fe services.FieldErrors) map[string]string {
	return blockErrors(fe, scheduleBlocks)
}

// blockErrors translates fe through ids. A date error also marks the hour and
// minute blocks with a blank message so the whole time row is highlighted.
func blockErrors(fe services.FieldErrors, ids map[services.Field]string) map[string]string {
	out := make(map[string]string, len(fe)+2)
	for f, msg := range fe {
		if id, ok := ids[f]; ok {
			out[id] = msg
		}
	}
	if fe.Has(services.FieldDate) {
		for _, f := range []services.Field{services.FieldHour, services.FieldMinute} {
			if id := ids[f]; out[id] == "" {
				out[id] = " "
			}
		}
	}
	return out
}
