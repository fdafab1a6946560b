// Package handlers provides the HTTP endpoints Slack calls: slash commands and
// interactivity payloads.
//
// This file defines the error envelope used for every non-Slack response
// (malformed requests, routing fallbacks). Responses that Slack consumes, such
// as the modal errors object, are written by the Slack handlers directly.
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "bad_request",
//	  "message": "malformed slash command"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-reminder-bot/internal/http/middleware"
)

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code"`
	// Human-readable message
	Message string `json:"message"`
}

// fail aborts the request with a structured error. 5xx are logged with the
// request-scoped logger, 4xx at warn.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}

	lg := middleware.LoggerFrom(c)
	ev := lg.Warn()
	if status >= http.StatusInternalServerError {
		ev = lg.Error()
	}
	ev.Int("status", status).Str("code", code).Str("message", msg).Msg("api error")

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ack writes an empty 200 and flushes it, so Slack sees the acknowledgement
// before any follow-up work runs in the same handler.
func ack(c *gin.Context) {
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()
}

// ackJSON writes body with 200 and flushes it.
func ackJSON(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
	c.Writer.Flush()
}
