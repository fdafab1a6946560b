// Package socket receives Slack traffic over Socket Mode: a websocket the bot
// opens to Slack with the app-level token, so no public HTTP endpoint or
// signing secret is needed.
//
// Each envelope is acknowledged before any follow-up work runs, mirroring the
// HTTP handlers.
package socket

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"

	"github.com/tbourn/go-reminder-bot/internal/bot"
	"github.com/tbourn/go-reminder-bot/internal/config"
)

const defaultWorkTimeout = 30 * time.Second

// Dispatcher is the transport-neutral bot.
type Dispatcher interface {
	Recognizes(name string) bool
	Messages() config.Messages
	HandleCommand(ctx context.Context, cmd bot.Command) error
	HandleViewSubmission(ctx context.Context, cb *slack.InteractionCallback) (bot.Submission, error)
}

type acker interface {
	Ack(req socketmode.Request, payload ...interface{})
}

// Runner pumps Socket Mode events into a Dispatcher.
type Runner struct {
	client      *socketmode.Client
	bot         Dispatcher
	workTimeout time.Duration
	wg          sync.WaitGroup
}

// New builds a Runner on api, which must carry the app-level token.
func New(api *slack.Client, b Dispatcher, debug bool) *Runner {
	return &Runner{
		client:      socketmode.New(api, socketmode.OptionDebug(debug)),
		bot:         b,
		workTimeout: defaultWorkTimeout,
	}
}

// Run connects and serves until ctx is cancelled or the connection fails.
// Once the connection ends the event pump is stopped and in-flight events are
// allowed to finish before Run returns.
func (r *Runner) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pumped := make(chan struct{})
	go func() {
		defer close(pumped)
		r.pump(ctx, r.client.Events, r.client)
	}()

	err := r.client.RunContext(ctx)
	cancel()
	<-pumped
	r.wg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("socket mode: %w", err)
	}
	return nil
}

// pump hands each event to its own goroutine until ctx ends or events closes.
// All wg.Add calls happen here, so joining pump before wg.Wait is enough.
func (r *Runner) pump(ctx context.Context, events <-chan socketmode.Event, a acker) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			r.wg.Add(1)
			go func() {
				defer r.wg.Done()
				r.handle(ctx, evt, a)
			}()
		}
	}
}

func (r *Runner) handle(ctx context.Context, evt socketmode.Event, a acker) {
	l := log.Ctx(ctx).With().Str("event", string(evt.Type)).Logger()

	switch evt.Type {
	case socketmode.EventTypeConnecting:
		l.Info().Msg("connecting to slack")
	case socketmode.EventTypeConnected:
		l.Info().Msg("connected to slack")
	case socketmode.EventTypeConnectionError:
		l.Warn().Interface("data", evt.Data).Msg("slack connection error; retrying")
	case socketmode.EventTypeInvalidAuth:
		l.Error().Msg("slack rejected the app-level token")

	case socketmode.EventTypeSlashCommand:
		sc, ok := evt.Data.(slack.SlashCommand)
		if !ok || evt.Request == nil {
			l.Warn().Msg("unexpected slash command payload")
			return
		}
		ctx, l := withEnvelope(ctx, l, evt.Request)
		r.command(ctx, l, bot.CommandFromSlash(sc), *evt.Request, a)

	case socketmode.EventTypeInteractive:
		cb, ok := evt.Data.(slack.InteractionCallback)
		if !ok || evt.Request == nil {
			l.Warn().Msg("unexpected interaction payload")
			return
		}
		ctx, l := withEnvelope(ctx, l, evt.Request)
		r.interaction(ctx, l, &cb, *evt.Request, a)

	default:
		if evt.Request != nil && evt.Request.EnvelopeID != "" {
			a.Ack(*evt.Request)
		}
		l.Debug().Msg("event ignored")
	}
}

func (r *Runner) command(ctx context.Context, l zerolog.Logger, cmd bot.Command, req socketmode.Request, a acker) {
	if !r.bot.Recognizes(cmd.Name) {
		l.Info().Str("command", cmd.Name).Msg("unknown command")
		a.Ack(req, map[string]string{
			"response_type": slack.ResponseTypeEphemeral,
			"text":          r.bot.Messages().UnknownCommand,
		})
		return
	}
	a.Ack(req)

	ctx, cancel := r.workContext(ctx)
	defer cancel()
	if err := r.bot.HandleCommand(ctx, cmd); err != nil {
		l.Error().Err(err).Str("command", cmd.Name).Msg("command failed")
	}
}

func (r *Runner) interaction(ctx context.Context, l zerolog.Logger, cb *slack.InteractionCallback, req socketmode.Request, a acker) {
	if cb.Type != slack.InteractionTypeViewSubmission {
		a.Ack(req)
		return
	}

	sub, err := r.bot.HandleViewSubmission(ctx, cb)
	if err != nil {
		l.Warn().Err(err).Str("callback_id", cb.View.CallbackID).Msg("view submission not handled")
		a.Ack(req)
		return
	}
	if sub.Response != nil {
		a.Ack(req, sub.Response)
	} else {
		a.Ack(req)
	}
	if sub.Run == nil {
		return
	}

	ctx, cancel := r.workContext(ctx)
	defer cancel()
	if err := sub.Run(ctx); err != nil {
		l.Warn().Err(err).Msg("submission not scheduled")
	}
}

// workContext bounds post-ack work by workTimeout only. Shutdown cancels the
// runner's context, but an acked event still finishes its gateway calls and
// failure notices while Run drains.
func (r *Runner) workContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), r.workTimeout)
}

// withEnvelope scopes the logger to one envelope and attaches it to ctx.
func withEnvelope(ctx context.Context, l zerolog.Logger, req *socketmode.Request) (context.Context, zerolog.Logger) {
	el := l.With().Str("envelope_id", req.EnvelopeID).Logger()
	if req.RetryAttempt > 0 {
		el = el.With().Int("slack_retry_num", req.RetryAttempt).Str("slack_retry_reason", req.RetryReason).Logger()
	}
	return el.WithContext(ctx), el
}
