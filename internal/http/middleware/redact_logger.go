// Package middleware contains the Gin middleware in front of the Slack
// endpoints.
//
// This file implements RedactingLogger, the structured access logger. Slack
// requests carry a signature header and form bodies with user and channel
// identifiers; bodies are never logged and secrets in headers or query strings
// are scrubbed before anything is emitted.
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures additional scrub behavior for RedactingLogger.
//
// MaskHeaders lists extra header names whose values are replaced with
// "[REDACTED]". Matching is case-insensitive and merged with the built-in set
// (Authorization, Cookie, Set-Cookie, X-Slack-Signature).
type RedactOptions struct {
	MaskHeaders []string
}

var (
	// Slack tokens: xoxb-, xoxp-, xapp- and friends.
	slackTokenRE = regexp.MustCompile(`\bx(?:ox[abprs]|app)-[0-9A-Za-z-]+`)
	emailRE      = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE      = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// redact scrubs tokens first, then emails, then phone numbers (the loosest).
func redact(s string) string {
	if s == "" {
		return s
	}
	s = slackTokenRE.ReplaceAllString(s, "[REDACTED:token]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// RedactingLogger attaches a request-scoped logger (request_id, method, path)
// to the Gin and request contexts, then logs one line per request with the
// status, size, latency and scrubbed headers. 5xx log at error, 4xx at warn.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	maskHeaders := map[string]struct{}{
		"authorization":     {},
		"cookie":            {},
		"set-cookie":        {},
		"x-slack-signature": {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			maskHeaders[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		l := log.With().
			Str("request_id", RequestIDFrom(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		attachLogger(c, &l)

		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = redact(strings.Join(vv, ", "))
		}
		query := redact(truncate(c.Request.URL.RawQuery, maxQueryLogLength))

		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case len(c.Errors) > 0 || status >= 500:
			ev = l.Error()
			if len(c.Errors) > 0 {
				ev = ev.Str("errors", c.Errors.String())
			}
		case status >= 400:
			ev = l.Warn()
		}

		if IsSlackRetry(c) {
			ev = ev.Int("slack_retry_num", SlackRetryNum(c))
		}
		ev.
			Str("query", query).
			Str("remote_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Bool("slack_retry", IsSlackRetry(c)).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}
