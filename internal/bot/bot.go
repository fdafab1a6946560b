// Package bot routes inbound slash commands and view submissions to the form
// builder, the validator and the scheduling service. It is transport-neutral:
// the HTTP handlers and the Socket Mode runner both call into a *Bot.
//
// Every event is handled on its own; the only state carried between a command
// and the resulting submission is the origin channel in private_metadata.
package bot

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"

	"github.com/tbourn/go-reminder-bot/internal/config"
	"github.com/tbourn/go-reminder-bot/internal/domain"
	"github.com/tbourn/go-reminder-bot/internal/forms"
	"github.com/tbourn/go-reminder-bot/internal/observability"
	"github.com/tbourn/go-reminder-bot/internal/services"
)

var (
	// ErrUnknownCommand is returned for slash commands the bot does not serve.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUnknownCallback is returned for view submissions from other modals.
	ErrUnknownCallback = errors.New("unknown view callback")
)

// ViewOpener opens modals.
type ViewOpener interface {
	OpenView(ctx context.Context, triggerID string, view slack.ModalViewRequest) error
}

// Scheduler is the scheduling service as seen by the bot.
type Scheduler interface {
	ScheduleReminder(ctx context.Context, req *domain.ReminderRequest) error
	ScheduleEvent(ctx context.Context, req *domain.ScheduleRequest) error
	ListScheduled(ctx context.Context, channelID string) ([]domain.ScheduledMessageSummary, error)
	ReportListFailure(ctx context.Context, channelID, setterUserID string, err error)
}

// DeliveryLedger deduplicates redelivered submissions.
type DeliveryLedger interface {
	Claim(ctx context.Context, key, kind string, now time.Time) (bool, error)
}

// Command is a slash command invocation.
type Command struct {
	Name      string
	ChannelID string
	UserID    string
	TriggerID string
}

// CommandFromSlash converts a parsed slash command.
func CommandFromSlash(sc slack.SlashCommand) Command {
	return Command{Name: sc.Command, ChannelID: sc.ChannelID, UserID: sc.UserID, TriggerID: sc.TriggerID}
}

// Submission is the outcome of a view submission. Response is sent as the
// acknowledgement (nil closes the modal). Run, when set, does the scheduling
// and must be called after the acknowledgement has been sent.
type Submission struct {
	Response *slack.ViewSubmissionResponse
	Run      func(context.Context) error
}

// Bot wires forms, validation and scheduling together.
type Bot struct {
	cfg       *config.Config
	views     ViewOpener
	sched     Scheduler
	ledger    DeliveryLedger
	forms     *forms.Builder
	validator *services.Validator
	lister    *services.ListFormatter
	now       func() time.Time
}

// New builds a Bot. ledger may be nil to disable deduplication.
func New(cfg *config.Config, views ViewOpener, sched Scheduler, ledger DeliveryLedger) *Bot {
	return &Bot{
		cfg:       cfg,
		views:     views,
		sched:     sched,
		ledger:    ledger,
		forms:     forms.NewBuilder(cfg),
		validator: services.NewValidator(cfg),
		lister:    services.NewListFormatter(cfg),
		now:       time.Now,
	}
}

// Messages returns the user-visible catalogue.
func (b *Bot) Messages() config.Messages { return b.cfg.Messages }

// Recognizes reports whether name is one of the configured slash commands.
func (b *Bot) Recognizes(name string) bool {
	switch name {
	case b.cfg.Commands.Reminder, b.cfg.Commands.Schedule, b.cfg.Commands.List:
		return true
	}
	return false
}

// HandleCommand opens the modal for cmd. Failures to open a modal are logged
// and swallowed; the interaction silently ends. A failed list lookup is
// reported to the channel and the fallback destination.
func (b *Bot) HandleCommand(ctx context.Context, cmd Command) error {
	l := log.Ctx(ctx).With().Str("command", cmd.Name).Str("channel", cmd.ChannelID).Str("user", cmd.UserID).Logger()

	var view slack.ModalViewRequest
	switch cmd.Name {
	case b.cfg.Commands.Reminder:
		view = b.forms.ReminderModal(cmd.ChannelID, b.defaultTime())
	case b.cfg.Commands.Schedule:
		view = b.forms.ScheduleModal(cmd.ChannelID, b.defaultTime())
	case b.cfg.Commands.List:
		items, err := b.sched.ListScheduled(ctx, cmd.ChannelID)
		if err != nil {
			b.sched.ReportListFailure(ctx, cmd.ChannelID, cmd.UserID, err)
			return nil
		}
		view = b.forms.ListModal(cmd.ChannelID, b.lister.Format(items))
	default:
		return ErrUnknownCommand
	}

	if err := b.views.OpenView(ctx, cmd.TriggerID, view); err != nil {
		l.Error().Err(err).Str("callback_id", view.CallbackID).Msg("open modal failed")
	}
	return nil
}

// HandleViewSubmission validates a submitted modal. Invalid input yields an
// errors response so Slack keeps the modal open with inline messages. Valid
// input is claimed in the delivery ledger and returned as a Run step; a
// redelivered submission yields neither errors nor Run.
func (b *Bot) HandleViewSubmission(ctx context.Context, cb *slack.InteractionCallback) (Submission, error) {
	now := b.now()
	switch cb.View.CallbackID {
	case forms.CallbackReminder:
		sub, err := forms.ParseReminderSubmission(cb)
		if err != nil {
			return Submission{}, err
		}
		req, err := b.validator.ValidateReminder(sub, now)
		if err != nil {
			return b.rejected(ctx, "reminder", err, forms.ReminderErrors)
		}
		if !b.claim(ctx, cb, now) {
			return Submission{}, nil
		}
		return Submission{Run: func(ctx context.Context) error { return b.sched.ScheduleReminder(ctx, req) }}, nil

	case forms.CallbackSchedule:
		sub, err := forms.ParseEventSubmission(cb)
		if err != nil {
			return Submission{}, err
		}
		req, err := b.validator.ValidateEvent(sub, now)
		if err != nil {
			return b.rejected(ctx, "schedule", err, forms.ScheduleErrors)
		}
		if !b.claim(ctx, cb, now) {
			return Submission{}, nil
		}
		return Submission{Run: func(ctx context.Context) error { return b.sched.ScheduleEvent(ctx, req) }}, nil
	}
	return Submission{}, ErrUnknownCallback
}

func (b *Bot) rejected(ctx context.Context, form string, err error, toBlocks func(services.FieldErrors) map[string]string) (Submission, error) {
	var fe services.FieldErrors
	if !errors.As(err, &fe) {
		return Submission{}, err
	}
	for f := range fe {
		observability.ValidationRejections.WithLabelValues(form, string(f)).Inc()
	}
	log.Ctx(ctx).Info().Str("form", form).Err(fe).Msg("submission rejected")
	return Submission{Response: slack.NewErrorsViewSubmissionResponse(toBlocks(fe))}, nil
}

// claim reports whether this submission should be acted on. Ledger errors
// fail open so a storage problem never blocks a reminder.
func (b *Bot) claim(ctx context.Context, cb *slack.InteractionCallback, now time.Time) bool {
	if b.ledger == nil || cb.View.ID == "" {
		return true
	}
	key := "view:" + cb.View.ID + ":" + cb.View.Hash
	ok, err := b.ledger.Claim(ctx, key, string(cb.Type), now)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("delivery ledger unavailable")
		return true
	}
	if !ok {
		observability.DuplicateDeliveries.Inc()
		log.Ctx(ctx).Info().Str("key", key).Msg("duplicate submission ignored")
	}
	return ok
}

func (b *Bot) defaultTime() domain.Boundary {
	loc := b.cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return services.NextBoundary(b.now().In(loc), b.cfg.MinuteInterval)
}
