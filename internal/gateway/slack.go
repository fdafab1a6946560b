// Package gateway adapts the Slack Web API (slack-go) to the ports used by the
// services and the bot: scheduling, posting, listing scheduled messages and
// opening modals.
//
// Every call runs inside an OpenTelemetry client span named after the Slack
// API method, and every failure is translated into *domain.GatewayError so
// callers never depend on slack-go error types.
package gateway

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/slack-go/slack"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-reminder-bot/internal/config"
	"github.com/tbourn/go-reminder-bot/internal/domain"
	"github.com/tbourn/go-reminder-bot/internal/observability"
)

// Slack API method names, used as span names, metric labels and
// GatewayError.Op.
const (
	OpScheduleMessage       = "chat.scheduleMessage"
	OpPostMessage           = "chat.postMessage"
	OpListScheduledMessages = "chat.scheduledMessages.list"
	OpDeleteScheduled       = "chat.deleteScheduledMessage"
	OpOpenView              = "views.open"
)

// listPageLimit is the page size requested from chat.scheduledMessages.list.
const listPageLimit = 100

// Client is the Slack gateway.
type Client struct {
	api *slack.Client
}

// New builds a Client from the Slack configuration. The app-level token is
// attached so the same API client can back a Socket Mode connection.
func New(cfg config.SlackConfig) *Client {
	opts := []slack.Option{slack.OptionDebug(cfg.Debug)}
	if cfg.AppToken != "" {
		opts = append(opts, slack.OptionAppLevelToken(cfg.AppToken))
	}
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}
	return NewFromAPI(slack.New(cfg.BotToken, opts...))
}

// NewFromAPI wraps an existing slack-go client.
func NewFromAPI(api *slack.Client) *Client {
	return &Client{api: api}
}

// API exposes the underlying client (Socket Mode needs it).
func (c *Client) API() *slack.Client { return c.api }

// ScheduleMessage schedules text for channelID at postAt.
//
// slack-go does not surface scheduled_message_id from chat.scheduleMessage,
// so the returned reference is "<channel>/<post_at>".
func (c *Client) ScheduleMessage(ctx context.Context, channelID string, postAt time.Time, text string) (string, error) {
	ctx, span := observability.StartSpan(ctx, OpScheduleMessage,
		attribute.String("slack.channel", channelID),
		attribute.Int64("slack.post_at", postAt.Unix()),
	)
	unix := strconv.FormatInt(postAt.Unix(), 10)
	ch, _, err := c.api.ScheduleMessageContext(ctx, channelID, unix, slack.MsgOptionText(text, false))
	err = translate(OpScheduleMessage, err)
	observability.EndSpan(span, err)
	if err != nil {
		return "", err
	}
	if ch == "" {
		ch = channelID
	}
	return ch + "/" + unix, nil
}

// PostMessage posts text to channelID now. Passing a user ID opens a DM.
func (c *Client) PostMessage(ctx context.Context, channelID, text string) error {
	ctx, span := observability.StartSpan(ctx, OpPostMessage, attribute.String("slack.channel", channelID))
	_, _, err := c.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
	err = translate(OpPostMessage, err)
	observability.EndSpan(span, err)
	return err
}

// ListScheduledMessages returns every pending scheduled message in channelID,
// following next_cursor until it is empty.
func (c *Client) ListScheduledMessages(ctx context.Context, channelID string) ([]domain.ScheduledMessageSummary, error) {
	ctx, span := observability.StartSpan(ctx, OpListScheduledMessages, attribute.String("slack.channel", channelID))

	var out []domain.ScheduledMessageSummary
	params := &slack.GetScheduledMessagesParameters{Channel: channelID, Limit: listPageLimit}
	pages := 0
	for {
		msgs, next, err := c.api.GetScheduledMessagesContext(ctx, params)
		if err != nil {
			err = translate(OpListScheduledMessages, err)
			observability.EndSpan(span, err)
			return nil, err
		}
		pages++
		for _, m := range msgs {
			out = append(out, domain.ScheduledMessageSummary{
				ID:      m.ID,
				Channel: m.Channel,
				PostAt:  int64(m.PostAt),
				RawText: m.Text,
			})
		}
		if next == "" {
			break
		}
		params.Cursor = next
	}

	span.SetAttributes(attribute.Int("slack.pages", pages), attribute.Int("slack.count", len(out)))
	observability.EndSpan(span, nil)
	return out, nil
}

// DeleteScheduledMessage removes a pending scheduled message. No flow calls it
// yet; it completes the platform contract for operator tooling.
func (c *Client) DeleteScheduledMessage(ctx context.Context, channelID, scheduledID string) error {
	ctx, span := observability.StartSpan(ctx, OpDeleteScheduled,
		attribute.String("slack.channel", channelID),
		attribute.String("slack.scheduled_message_id", scheduledID),
	)
	_, err := c.api.DeleteScheduledMessageContext(ctx, &slack.DeleteScheduledMessageParameters{
		Channel:            channelID,
		ScheduledMessageID: scheduledID,
	})
	err = translate(OpDeleteScheduled, err)
	observability.EndSpan(span, err)
	return err
}

// OpenView opens a modal in response to triggerID.
func (c *Client) OpenView(ctx context.Context, triggerID string, view slack.ModalViewRequest) error {
	ctx, span := observability.StartSpan(ctx, OpOpenView, attribute.String("slack.callback_id", view.CallbackID))
	_, err := c.api.OpenViewContext(ctx, triggerID, view)
	err = translate(OpOpenView, err)
	observability.EndSpan(span, err)
	return err
}

// translate maps slack-go errors onto *domain.GatewayError and counts them.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	ge := &domain.GatewayError{Op: op, Err: err}

	var apiErr slack.SlackErrorResponse
	var rateErr *slack.RateLimitedError
	switch {
	case errors.As(err, &apiErr):
		ge.Code = apiErr.Err
		if msgs := apiErr.ResponseMetadata.Messages; len(msgs) > 0 {
			ge.Message = msgs[0]
		}
	case errors.As(err, &rateErr):
		ge.Code = "ratelimited"
		ge.Message = "retry after " + rateErr.RetryAfter.String()
	default:
		ge.Message = err.Error()
	}

	code := ge.Code
	if code == "" {
		code = "transport"
	}
	observability.GatewayFailures.WithLabelValues(op, code).Inc()
	return ge
}
