// Package services – SchedulingService
//
// This file implements the two scheduling flows and the list lookup on top of
// the Gateway port. Each flow issues at most one call per scheduled message;
// nothing is retried and nothing is rolled back. When a call fails the flow
// reports it twice: once to the fallback (operator) destination with the raw
// error detail, and once to the user (reminder flow) or the origin channel
// (event flow).
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-reminder-bot/internal/config"
	"github.com/tbourn/go-reminder-bot/internal/domain"
	"github.com/tbourn/go-reminder-bot/internal/observability"
)

// Gateway is the subset of the chat platform the scheduling flows depend on.
// Implementations return *domain.GatewayError for platform failures.
//
// Deleting or editing scheduled messages is not part of the flows; a
// DeleteScheduledMessage method would be added here.
type Gateway interface {
	// ScheduleMessage asks the platform to post text to channelID at postAt
	// and returns the platform's scheduled message ID.
	ScheduleMessage(ctx context.Context, channelID string, postAt time.Time, text string) (string, error)

	// PostMessage posts text immediately. A user ID as channelID opens a DM.
	PostMessage(ctx context.Context, channelID, text string) error

	// ListScheduledMessages returns every pending scheduled message for
	// channelID, following pagination.
	ListScheduledMessages(ctx context.Context, channelID string) ([]domain.ScheduledMessageSummary, error)
}

// SchedulingService runs the reminder and event flows.
type SchedulingService struct {
	Gateway  Gateway
	Msgs     config.Messages
	Fallback string // operator destination; empty disables it
}

// NewSchedulingService wires a SchedulingService from the configuration.
func NewSchedulingService(gw Gateway, cfg *config.Config) *SchedulingService {
	return &SchedulingService{
		Gateway:  gw,
		Msgs:     cfg.Messages,
		Fallback: cfg.Slack.DeveloperChannelID,
	}
}

// ReminderText builds the scheduled text for a simple reminder.
func (s *SchedulingService) ReminderText(req *domain.ReminderRequest) string {
	return EncodeText(MentionOf(req.MentionUserID), s.Msgs.ReminderHeader, req.Body)
}

// EventText builds the scheduled text for an event. The mention line is
// empty; the body starts with "<when> from <title>" followed by the details
// block when there are details.
func (s *SchedulingService) EventText(req *domain.ScheduleRequest) string {
	body := fmt.Sprintf(s.Msgs.EventLineFormat, req.WallClock, req.Title)
	if req.Body != "" {
		body += "\n" + s.Msgs.DetailsHeader + "\n" + req.Body
	}
	return EncodeText("", s.Msgs.EventHeader, body)
}

// ScheduleReminder schedules a simple reminder and confirms it in the origin
// channel. On failure the fallback destination and the setter (by DM) are
// notified and an error wrapping ErrScheduleFailed is returned.
func (s *SchedulingService) ScheduleReminder(ctx context.Context, req *domain.ReminderRequest) error {
	l := log.Ctx(ctx).With().
		Str("flow", "reminder").
		Str("channel", req.OriginChannelID).
		Str("user", req.SetterUserID).
		Time("fire_at", req.FireAt).
		Logger()

	id, err := s.Gateway.ScheduleMessage(ctx, req.OriginChannelID, req.FireAt, s.ReminderText(req))
	if err != nil {
		l.Error().Err(err).Msg("schedule reminder failed")
		s.notifyFallback(ctx, &l, req.SetterUserID, err)
		s.notify(ctx, &l, req.SetterUserID, s.userFailure(err))
		return fmt.Errorf("%w: %w", ErrScheduleFailed, err)
	}
	observability.RemindersScheduled.WithLabelValues("reminder").Inc()
	l.Info().Str("scheduled_id", id).Msg("reminder scheduled")

	confirm := fmt.Sprintf(s.Msgs.ReminderConfirmationFormat,
		MentionOf(req.SetterUserID), req.WallClock, req.Body)
	s.notify(ctx, &l, req.OriginChannelID, confirm)
	return nil
}

// ScheduleEvent schedules the event message and, when requested, the early
// reminder, then announces the event in the origin channel. The two schedule
// calls are independent: if the early reminder fails the main message stays
// scheduled. Failures notify the fallback destination and the origin channel.
func (s *SchedulingService) ScheduleEvent(ctx context.Context, req *domain.ScheduleRequest) error {
	l := log.Ctx(ctx).With().
		Str("flow", "event").
		Str("channel", req.OriginChannelID).
		Str("user", req.SetterUserID).
		Time("fire_at", req.FireAt).
		Str("lead_time", req.LeadTimeOffsetToken).
		Logger()

	text := s.EventText(req)
	fail := func(err error) error {
		s.notifyFallback(ctx, &l, req.SetterUserID, err)
		s.notify(ctx, &l, req.OriginChannelID, s.channelFailure(err))
		return fmt.Errorf("%w: %w", ErrScheduleFailed, err)
	}

	id, err := s.Gateway.ScheduleMessage(ctx, req.OriginChannelID, req.FireAt, text)
	if err != nil {
		l.Error().Err(err).Msg("schedule event failed")
		return fail(err)
	}
	observability.RemindersScheduled.WithLabelValues("event").Inc()
	l.Info().Str("scheduled_id", id).Msg("event scheduled")

	if req.HasEarlyReminder() {
		earlyID, err := s.Gateway.ScheduleMessage(ctx, req.OriginChannelID, *req.RemindAt, text)
		if err != nil {
			l.Error().Err(err).Str("scheduled_id", id).Msg("early reminder failed; event stays scheduled")
			return fail(err)
		}
		observability.RemindersScheduled.WithLabelValues("event_early").Inc()
		l.Info().Str("scheduled_id", earlyID).Time("remind_at", *req.RemindAt).Msg("early reminder scheduled")
	}

	announce := s.Msgs.EventAnnouncementHeader + "\n" +
		fmt.Sprintf(s.Msgs.EventAnnouncementFormat, MentionOf(req.SetterUserID)) + "\n" + text
	s.notify(ctx, &l, req.OriginChannelID, announce)
	return nil
}

// ListScheduled returns the channel's pending scheduled messages sorted
// ascending by fire time.
func (s *SchedulingService) ListScheduled(ctx context.Context, channelID string) ([]domain.ScheduledMessageSummary, error) {
	items, err := s.Gateway.ListScheduledMessages(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListFailed, err)
	}
	return SortByPostAt(items), nil
}

// ReportListFailure tells the origin channel and the fallback destination that
// listing failed.
func (s *SchedulingService) ReportListFailure(ctx context.Context, channelID, setterUserID string, err error) {
	l := log.Ctx(ctx).With().Str("flow", "list").Str("channel", channelID).Logger()
	l.Error().Err(err).Msg("list scheduled messages failed")
	s.notifyFallback(ctx, &l, setterUserID, err)
	s.notify(ctx, &l, channelID, fmt.Sprintf(s.Msgs.ListErrorFormat, errorDetail(err)))
}

func (s *SchedulingService) userFailure(err error) string {
	if gatewayErr(err) != nil {
		return fmt.Sprintf(s.Msgs.UserGatewayErrorFormat, errorDetail(err))
	}
	return fmt.Sprintf(s.Msgs.UserUnexpectedErrorFormat, errorDetail(err))
}

func (s *SchedulingService) channelFailure(err error) string {
	if gatewayErr(err) != nil {
		return fmt.Sprintf(s.Msgs.ChannelGatewayErrorFormat, errorDetail(err))
	}
	return fmt.Sprintf(s.Msgs.ChannelUnexpectedErrorFormat, errorDetail(err))
}

func (s *SchedulingService) notifyFallback(ctx context.Context, l *zerolog.Logger, setterUserID string, err error) {
	if s.Fallback == "" {
		return
	}
	format := s.Msgs.FallbackUnexpectedErrorFormat
	if gatewayErr(err) != nil {
		format = s.Msgs.FallbackGatewayErrorFormat
	}
	s.notify(ctx, l, s.Fallback, fmt.Sprintf(format, MentionOf(setterUserID), errorDetail(err)))
}

// notify posts best-effort; a failure here is logged and otherwise ignored.
func (s *SchedulingService) notify(ctx context.Context, l *zerolog.Logger, channelID, text string) {
	if channelID == "" {
		return
	}
	if err := s.Gateway.PostMessage(ctx, channelID, text); err != nil {
		l.Warn().Err(err).Str("target", channelID).Msg("notification not delivered")
	}
}

func gatewayErr(err error) *domain.GatewayError {
	var ge *domain.GatewayError
	if errors.As(err, &ge) {
		return ge
	}
	return nil
}

// errorDetail is the verbatim detail shown in failure notices.
func errorDetail(err error) string {
	if ge := gatewayErr(err); ge != nil {
		return ge.Detail()
	}
	return err.Error()
}
