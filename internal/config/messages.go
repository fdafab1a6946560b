package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Messages is the catalogue of every user-visible string: modal labels,
// reminder headers, confirmations, validation and failure notices.
//
// Entries ending in "Format" are fmt templates; their verbs are documented on
// the field. A YAML file (MESSAGES_FILE) may override any subset of fields;
// missing keys keep their defaults.
type Messages struct {
	// Modal chrome
	ReminderModalTitle string `yaml:"reminder_modal_title"`
	ReminderSubmit     string `yaml:"reminder_submit"`
	ScheduleModalTitle string `yaml:"schedule_modal_title"`
	ScheduleSubmit     string `yaml:"schedule_submit"`
	ListModalTitle     string `yaml:"list_modal_title"`
	Close              string `yaml:"close"`

	// Field labels
	BodyLabel          string `yaml:"body_label"`
	TitleLabel         string `yaml:"title_label"`
	DetailsLabel       string `yaml:"details_label"`
	DateLabel          string `yaml:"date_label"`
	DatePlaceholder    string `yaml:"date_placeholder"`
	HourLabel          string `yaml:"hour_label"`
	MinuteLabel        string `yaml:"minute_label"`
	MentionLabel       string `yaml:"mention_label"`
	MentionPlaceholder string `yaml:"mention_placeholder"`
	OffsetLabel        string `yaml:"offset_label"`
	OffsetPlaceholder  string `yaml:"offset_placeholder"`

	HourOptionFormat   string `yaml:"hour_option_format"`   // %s = two-digit hour
	MinuteOptionFormat string `yaml:"minute_option_format"` // %s = two-digit minute

	// LeadTimeLabels maps a lead-time token to its selector label.
	LeadTimeLabels map[string]string `yaml:"lead_time_labels"`

	// Scheduled message text
	ReminderHeader  string `yaml:"reminder_header"`
	EventHeader     string `yaml:"event_header"`
	EventLineFormat string `yaml:"event_line_format"` // %[1]s = wall clock, %[2]s = title
	DetailsHeader   string `yaml:"details_header"`

	// Instant confirmations
	ReminderConfirmationFormat string `yaml:"reminder_confirmation_format"` // setter mention, wall clock, body
	EventAnnouncementHeader    string `yaml:"event_announcement_header"`
	EventAnnouncementFormat    string `yaml:"event_announcement_format"` // setter mention

	// Inline validation errors
	PastDateError      string `yaml:"past_date_error"`
	PastOffsetError    string `yaml:"past_offset_error"`
	InvalidDateError   string `yaml:"invalid_date_error"`
	InvalidHourError   string `yaml:"invalid_hour_error"`
	InvalidMinuteError string `yaml:"invalid_minute_error"`
	InvalidOffsetError string `yaml:"invalid_offset_error"`
	RequiredError      string `yaml:"required_error"`

	// Scheduled list
	ListEmpty         string `yaml:"list_empty"`
	ListMentionPrefix string `yaml:"list_mention_prefix"`
	ListTimePrefix    string `yaml:"list_time_prefix"`
	ListBodyPrefix    string `yaml:"list_body_prefix"`
	ContentUnknown    string `yaml:"content_unknown"`
	ListMoreFormat    string `yaml:"list_more_format"` // number of hidden entries

	// Failure notices; every Format takes the detail as its last verb.
	UserGatewayErrorFormat        string `yaml:"user_gateway_error_format"`        // detail
	UserUnexpectedErrorFormat     string `yaml:"user_unexpected_error_format"`     // detail
	ChannelGatewayErrorFormat     string `yaml:"channel_gateway_error_format"`     // detail
	ChannelUnexpectedErrorFormat  string `yaml:"channel_unexpected_error_format"`  // detail
	FallbackGatewayErrorFormat    string `yaml:"fallback_gateway_error_format"`    // setter mention, detail
	FallbackUnexpectedErrorFormat string `yaml:"fallback_unexpected_error_format"` // setter mention, detail
	ListErrorFormat               string `yaml:"list_error_format"`                // detail
	UnknownCommand                string `yaml:"unknown_command"`
}

// DefaultMessages returns the built-in English catalogue.
func DefaultMessages() Messages {
	return Messages{
		ReminderModalTitle: "🗓️ Set a reminder",
		ReminderSubmit:     "Set",
		ScheduleModalTitle: "🗓️ Add a schedule",
		ScheduleSubmit:     "Register",
		ListModalTitle:     "📝 Scheduled reminders",
		Close:              "Close",

		BodyLabel:          "Reminder text",
		TitleLabel:         "Title",
		DetailsLabel:       "Details",
		DateLabel:          "Date",
		DatePlaceholder:    "Pick a date",
		HourLabel:          "Hour",
		MinuteLabel:        "Minute",
		MentionLabel:       "Mention (optional)",
		MentionPlaceholder: "Pick a user to mention",
		OffsetLabel:        "Reminder notification",
		OffsetPlaceholder:  "Pick when to notify",

		HourOptionFormat:   "%s h",
		MinuteOptionFormat: "%s min",

		LeadTimeLabels: map[string]string{
			"0":    "Only at the event time",
			"-15m": "Also 15 minutes before",
			"-30m": "Also 30 minutes before",
			"-1h":  "Also 1 hour before",
			"-3h":  "Also 3 hours before",
			"-1d":  "Also 1 day before",
			"-3d":  "Also 3 days before",
		},

		ReminderHeader:  "【📣 Reminder】",
		EventHeader:     "【 🔔 Reminder 】",
		EventLineFormat: "%[2]s from %[1]s",
		DetailsHeader:   "【Details】",

		ReminderConfirmationFormat: "%s scheduled a reminder for %s.\n【Content】\n%s\n",
		EventAnnouncementHeader:    "【 🗓️ New schedule 】",
		EventAnnouncementFormat:    "%s registered a schedule.",

		PastDateError:      "⚠ You cannot pick a past date or time. Choose a future one.",
		PastOffsetError:    "The reminder notification would be in the past. Pick another option.",
		InvalidDateError:   "Pick a valid date.",
		InvalidHourError:   "Pick a valid hour.",
		InvalidMinuteError: "Pick a valid minute.",
		InvalidOffsetError: "Pick a valid notification option.",
		RequiredError:      "This field is required.",

		ListEmpty:         "There are no reminders scheduled in this channel.",
		ListMentionPrefix: "【Mention】",
		ListTimePrefix:    "【Scheduled for】",
		ListBodyPrefix:    "【Content】",
		ContentUnknown:    "(content unknown)",
		ListMoreFormat:    "…and %d more.",

		UserGatewayErrorFormat:        "A Slack API error occurred while setting your reminder.\nDetail: `%s`",
		UserUnexpectedErrorFormat:     "An unexpected error occurred while setting your reminder.\nDetail: `%s`",
		ChannelGatewayErrorFormat:     "A Slack API error occurred while registering the schedule.\nDetail: `%s`",
		ChannelUnexpectedErrorFormat:  "An unexpected error occurred while registering the schedule.\nDetail: `%s`",
		FallbackGatewayErrorFormat:    "A Slack API error occurred while %s was setting a reminder.\nDetail: `%s`",
		FallbackUnexpectedErrorFormat: "An unexpected error occurred while %s was setting a reminder.\nDetail: `%s`",
		ListErrorFormat:               "An error occurred while fetching the reminder list.\nDetail: `%s`",
		UnknownCommand:                "Sorry, I don't know that command.",
	}
}

// LoadMessages returns the default catalogue overlaid with the YAML file at
// path. An empty path returns the defaults unchanged.
func LoadMessages(path string) (Messages, error) {
	msgs := DefaultMessages()
	if path == "" {
		return msgs, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return msgs, err
	}
	if err := yaml.Unmarshal(raw, &msgs); err != nil {
		return msgs, fmt.Errorf("parse %s: %w", path, err)
	}
	return msgs, nil
}

// LeadTimeLabel returns the selector label for token, falling back to the
// token itself.
func (m Messages) LeadTimeLabel(token string) string {
	if l, ok := m.LeadTimeLabels[token]; ok && l != "" {
		return l
	}
	return token
}
