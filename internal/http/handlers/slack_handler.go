// Slack HTTP handlers.
//
// This file exposes the two endpoints a Slack app in HTTP mode calls:
//   - POST /slack/commands      (slash commands)
//   - POST /slack/interactions  (view submissions and other interactivity)
//
// Slack wants an acknowledgement within three seconds. Both handlers write and
// flush the acknowledgement first and only then run the slower follow-up
// (opening a modal, scheduling messages) on a context detached from the
// request's cancellation.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"

	"github.com/tbourn/go-reminder-bot/internal/bot"
	"github.com/tbourn/go-reminder-bot/internal/config"
	"github.com/tbourn/go-reminder-bot/internal/http/middleware"
)

// defaultWorkTimeout bounds the follow-up work after an acknowledgement.
const defaultWorkTimeout = 30 * time.Second

// Bot is the transport-neutral dispatcher the handlers feed.
type Bot interface {
	Recognizes(name string) bool
	Messages() config.Messages
	HandleCommand(ctx context.Context, cmd bot.Command) error
	HandleViewSubmission(ctx context.Context, cb *slack.InteractionCallback) (bot.Submission, error)
}

// Handlers groups the Slack endpoints.
type Handlers struct {
	bot         Bot
	workTimeout time.Duration
}

// New constructs Handlers bound to b.
func New(b Bot) *Handlers {
	return &Handlers{bot: b, workTimeout: defaultWorkTimeout}
}

// SlashCommand handles POST /slack/commands.
//
// Unknown commands get an ephemeral reply in the acknowledgement itself.
// Known commands are acknowledged with an empty 200 and then dispatched.
func (h *Handlers) SlashCommand(c *gin.Context) {
	sc, err := slack.SlashCommandParse(c.Request)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeMalformedCommand, "malformed slash command")
		return
	}
	cmd := bot.CommandFromSlash(sc)

	if !h.bot.Recognizes(cmd.Name) {
		middleware.LoggerFrom(c).Info().Str("command", cmd.Name).Msg("unknown command")
		ackJSON(c, gin.H{"response_type": slack.ResponseTypeEphemeral, "text": h.bot.Messages().UnknownCommand})
		return
	}

	ack(c)

	ctx, cancel := h.workContext(c)
	defer cancel()
	if err := h.bot.HandleCommand(ctx, cmd); err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Str("command", cmd.Name).Msg("command failed")
	}
}

// Interaction handles POST /slack/interactions. Only view_submission payloads
// carry work; everything else is acknowledged and ignored.
func (h *Handlers) Interaction(c *gin.Context) {
	raw := c.PostForm("payload")
	if raw == "" {
		fail(c, http.StatusBadRequest, ErrCodeMalformedPayload, "missing payload")
		return
	}
	var cb slack.InteractionCallback
	if err := json.Unmarshal([]byte(raw), &cb); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeMalformedPayload, "malformed payload")
		return
	}

	l := middleware.LoggerFrom(c).With().
		Str("interaction", string(cb.Type)).
		Str("callback_id", cb.View.CallbackID).
		Str("user", cb.User.ID).
		Logger()

	if cb.Type != slack.InteractionTypeViewSubmission {
		l.Debug().Msg("interaction ignored")
		ack(c)
		return
	}

	sub, err := h.bot.HandleViewSubmission(c.Request.Context(), &cb)
	if err != nil {
		if errors.Is(err, bot.ErrUnknownCallback) {
			fail(c, http.StatusBadRequest, ErrCodeUnknownCallback, "unknown view callback")
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeMalformedPayload, err.Error())
		return
	}

	if sub.Response != nil {
		ackJSON(c, sub.Response)
	} else {
		ack(c)
	}
	if sub.Run == nil {
		return
	}

	ctx, cancel := h.workContext(c)
	defer cancel()
	if err := sub.Run(ctx); err != nil {
		// Users were already notified by the scheduling service.
		l.Warn().Err(err).Msg("submission not scheduled")
	}
}

// workContext keeps the request's values (logger, trace span) but not its
// cancellation, which fires once Slack hangs up after the acknowledgement.
func (h *Handlers) workContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.workTimeout)
}
