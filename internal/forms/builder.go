// Package forms builds the Block Kit modals the bot opens and maps submitted
// modal state back into typed submissions.
//
// Block and action IDs are part of the round trip: the builder emits them and
// the parser reads them back, so both live in this package.
package forms

import (
	"fmt"

	"github.com/slack-go/slack"

	"github.com/tbourn/go-reminder-bot/internal/config"
	"github.com/tbourn/go-reminder-bot/internal/domain"
	"github.com/tbourn/go-reminder-bot/internal/services"
)

// Callback IDs.
const (
	CallbackReminder = "reminder_submission"
	CallbackSchedule = "schedule_submission"
	CallbackList     = "reminder_list_modal"
)

// Reminder modal block/action IDs.
const (
	ReminderBodyBlock     = "message_block"
	ReminderBodyAction    = "message_input"
	ReminderDateBlock     = "date_block"
	ReminderDateAction    = "date_input"
	ReminderHourBlock     = "hour_block"
	ReminderHourAction    = "hour_select"
	ReminderMinuteBlock   = "minute_block"
	ReminderMinuteAction  = "minute_select"
	ReminderMentionBlock  = "user_block"
	ReminderMentionAction = "user_select_input"
)

// Schedule modal block/action IDs.
const (
	ScheduleTitleBlock    = "title_block"
	ScheduleTitleAction   = "title_input"
	ScheduleDateBlock     = "start_date_block"
	ScheduleDateAction    = "start_date_input"
	ScheduleHourBlock     = "start_hour_block"
	ScheduleHourAction    = "start_hour_select"
	ScheduleMinuteBlock   = "start_minute_block"
	ScheduleMinuteAction  = "start_minute_select"
	ScheduleDetailsBlock  = "message_block"
	ScheduleDetailsAction = "message_input"
	ScheduleOffsetBlock   = "offset_block"
	ScheduleOffsetAction  = "offset_select"
)

// maxListEntries keeps the list modal under Slack's 100-block limit: every
// entry costs a section and a divider, plus one trailing section.
const maxListEntries = 49

// Builder renders modal descriptions from the immutable configuration.
type Builder struct {
	msgs     config.Messages
	interval int
}

// NewBuilder returns a Builder whose minute selector follows
// cfg.MinuteInterval.
func NewBuilder(cfg *config.Config) *Builder {
	interval := cfg.MinuteInterval
	if interval <= 0 || 60%interval != 0 {
		interval = 5
	}
	return &Builder{msgs: cfg.Messages, interval: interval}
}

// ReminderModal is the simple-reminder form. def supplies the initial date,
// hour and minute; channelID rides along in private_metadata.
func (b *Builder) ReminderModal(channelID string, def domain.Boundary) slack.ModalViewRequest {
	body := slack.NewPlainTextInputBlockElement(b.plain(b.msgs.BodyLabel), ReminderBodyAction)
	body.Multiline = true

	mention := slack.NewOptionsSelectBlockElement(slack.OptTypeUser, b.plain(b.msgs.MentionPlaceholder), ReminderMentionAction)
	mentionBlock := slack.NewInputBlock(ReminderMentionBlock, b.plain(b.msgs.MentionLabel), nil, mention)
	mentionBlock.Optional = true

	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      CallbackReminder,
		PrivateMetadata: channelID,
		Title:           b.plain(b.msgs.ReminderModalTitle),
		Submit:          b.plain(b.msgs.ReminderSubmit),
		Close:           b.plain(b.msgs.Close),
		Blocks: slack.Blocks{BlockSet: []slack.Block{
			slack.NewInputBlock(ReminderBodyBlock, b.plain(b.msgs.BodyLabel), nil, body),
			slack.NewInputBlock(ReminderDateBlock, b.plain(b.msgs.DateLabel), nil, b.datePicker(ReminderDateAction, def)),
			slack.NewInputBlock(ReminderHourBlock, b.plain(b.msgs.HourLabel), nil, b.hourSelect(ReminderHourAction, def)),
			slack.NewInputBlock(ReminderMinuteBlock, b.plain(b.msgs.MinuteLabel), nil, b.minuteSelect(ReminderMinuteAction, def)),
			mentionBlock,
		}},
	}
}

// ScheduleModal is the titled-event form with a lead-time selector that
// starts at "notify only at event time".
func (b *Builder) ScheduleModal(channelID string, def domain.Boundary) slack.ModalViewRequest {
	details := slack.NewPlainTextInputBlockElement(nil, ScheduleDetailsAction)
	details.Multiline = true
	detailsBlock := slack.NewInputBlock(ScheduleDetailsBlock, b.plain(b.msgs.DetailsLabel), nil, details)
	detailsBlock.Optional = true

	leadTimes := b.LeadTimeOptions()
	offset := slack.NewOptionsSelectBlockElement(slack.OptTypeStatic, b.plain(b.msgs.OffsetPlaceholder), ScheduleOffsetAction, leadTimes...)
	offset.InitialOption = leadTimes[0]

	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      CallbackSchedule,
		PrivateMetadata: channelID,
		Title:           b.plain(b.msgs.ScheduleModalTitle),
		Submit:          b.plain(b.msgs.ScheduleSubmit),
		Close:           b.plain(b.msgs.Close),
		Blocks: slack.Blocks{BlockSet: []slack.Block{
			slack.NewInputBlock(ScheduleTitleBlock, b.plain(b.msgs.TitleLabel), nil,
				slack.NewPlainTextInputBlockElement(nil, ScheduleTitleAction)),
			slack.NewInputBlock(ScheduleDateBlock, b.plain(b.msgs.DateLabel), nil, b.datePicker(ScheduleDateAction, def)),
			slack.NewInputBlock(ScheduleHourBlock, b.plain(b.msgs.HourLabel), nil, b.hourSelect(ScheduleHourAction, def)),
			slack.NewInputBlock(ScheduleMinuteBlock, b.plain(b.msgs.MinuteLabel), nil, b.minuteSelect(ScheduleMinuteAction, def)),
			detailsBlock,
			slack.NewInputBlock(ScheduleOffsetBlock, b.plain(b.msgs.OffsetLabel), nil, offset),
		}},
	}
}

// ListModal shows formatted entries separated by dividers. There is no submit
// button; the modal is read-only.
func (b *Builder) ListModal(channelID string, entries []services.ListEntry) slack.ModalViewRequest {
	shown := entries
	if len(shown) > maxListEntries {
		shown = shown[:maxListEntries]
	}
	blocks := make([]slack.Block, 0, 2*len(shown)+1)
	for i, e := range shown {
		if i > 0 {
			blocks = append(blocks, slack.NewDividerBlock())
		}
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, e.Text, false, false), nil, nil))
	}
	if hidden := len(entries) - len(shown); hidden > 0 {
		blocks = append(blocks, slack.NewDividerBlock(),
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.PlainTextType, fmt.Sprintf(b.msgs.ListMoreFormat, hidden), false, false), nil, nil))
	}

	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      CallbackList,
		PrivateMetadata: channelID,
		Title:           b.plain(b.msgs.ListModalTitle),
		Close:           b.plain(b.msgs.Close),
		Blocks:          slack.Blocks{BlockSet: blocks},
	}
}

// HourOptions returns "00".."23".
func (b *Builder) HourOptions() []*slack.OptionBlockObject {
	opts := make([]*slack.OptionBlockObject, 0, 24)
	for h := 0; h < 24; h++ {
		v := fmt.Sprintf("%02d", h)
		opts = append(opts, slack.NewOptionBlockObject(v, b.plain(fmt.Sprintf(b.msgs.HourOptionFormat, v)), nil))
	}
	return opts
}

// MinuteOptions returns the interval-aligned minutes, "00" first.
func (b *Builder) MinuteOptions() []*slack.OptionBlockObject {
	opts := make([]*slack.OptionBlockObject, 0, 60/b.interval)
	for m := 0; m < 60; m += b.interval {
		v := fmt.Sprintf("%02d", m)
		opts = append(opts, slack.NewOptionBlockObject(v, b.plain(fmt.Sprintf(b.msgs.MinuteOptionFormat, v)), nil))
	}
	return opts
}

// LeadTimeOptions returns one option per domain.LeadTimes token.
func (b *Builder) LeadTimeOptions() []*slack.OptionBlockObject {
	opts := make([]*slack.OptionBlockObject, 0, len(domain.LeadTimes))
	for _, token := range domain.LeadTimes {
		opts = append(opts, slack.NewOptionBlockObject(token, b.plain(b.msgs.LeadTimeLabel(token)), nil))
	}
	return opts
}

func (b *Builder) datePicker(actionID string, def domain.Boundary) *slack.DatePickerBlockElement {
	dp := slack.NewDatePickerBlockElement(actionID)
	dp.Placeholder = b.plain(b.msgs.DatePlaceholder)
	dp.InitialDate = def.Date
	return dp
}

func (b *Builder) hourSelect(actionID string, def domain.Boundary) *slack.SelectBlockElement {
	opts := b.HourOptions()
	sel := slack.NewOptionsSelectBlockElement(slack.OptTypeStatic, nil, actionID, opts...)
	sel.InitialOption = pick(opts, def.HourValue())
	return sel
}

func (b *Builder) minuteSelect(actionID string, def domain.Boundary) *slack.SelectBlockElement {
	opts := b.MinuteOptions()
	sel := slack.NewOptionsSelectBlockElement(slack.OptTypeStatic, nil, actionID, opts...)
	sel.InitialOption = pick(opts, def.MinuteValue())
	return sel
}

func (b *Builder) plain(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, text, true, false)
}

// pick returns the option with value v, or nil so Slack shows no default.
func pick(opts []*slack.OptionBlockObject, v string) *slack.OptionBlockObject {
	for _, o := range opts {
		if o.Value == v {
			return o
		}
	}
	return nil
}
