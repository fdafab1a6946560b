// Package httpapi wires the HTTP transport (Gin) to the Slack handlers and the
// middleware stack: tracing, correlation IDs, redacting access logs, panic
// recovery, metrics, Slack request signing, redelivery marking and rate
// limiting.
//
// HTTP mode is one of two ways to receive Slack traffic; the other is Socket
// Mode (internal/socket), which needs none of this.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-reminder-bot/internal/config"
	"github.com/tbourn/go-reminder-bot/internal/http/handlers"
	"github.com/tbourn/go-reminder-bot/internal/http/middleware"
)

// maxBodyBytes caps inbound bodies. Slack payloads are a few KiB.
const maxBodyBytes = 1 << 20

// RegisterRoutes attaches middleware and endpoints to r.
//
// Global middleware order:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs, request-scoped logger
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//
// The /slack group then adds, in order: signature verification (needs the raw
// body), redelivery marking, and the per-user rate limiter (bypassed for
// redeliveries).
func RegisterRoutes(r *gin.Engine, bot handlers.Bot, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))
	r.Use(middleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	h := handlers.New(bot)
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyBySlackUserOrIP())

	slackGroup := r.Group("/slack",
		middleware.SlackSignature(cfg.Slack.SigningSecret),
		middleware.SlackRetry(),
		rl.Handler(),
	)
	{
		slackGroup.POST("/commands", h.SlashCommand)
		slackGroup.POST("/interactions", h.Interaction)
	}
}

// limitBody caps the request body at maxBytes using http.MaxBytesReader.
// Reads past the cap fail; SlackSignature turns that into 413.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
