package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
)

// SlackSignature verifies the X-Slack-Signature / X-Slack-Request-Timestamp
// pair against signingSecret (HMAC-SHA256 over "v0:<ts>:<body>", five minute
// skew window) and rejects anything else with 401. The body is buffered and
// restored so later handlers can parse the form.
func SlackSignature(signingSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sv, err := slack.NewSecretsVerifier(c.Request.Header, signingSecret)
		if err != nil {
			rejectSignature(c, err)
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
					"request_id": RequestIDFrom(c),
					"code":       "payload_too_large",
					"message":    "request body too large",
				})
				return
			}
			rejectSignature(c, err)
			return
		}
		_ = c.Request.Body.Close()
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if _, err := sv.Write(body); err != nil {
			rejectSignature(c, err)
			return
		}
		if err := sv.Ensure(); err != nil {
			rejectSignature(c, err)
			return
		}
		c.Next()
	}
}

func rejectSignature(c *gin.Context, err error) {
	LoggerFrom(c).Warn().Err(err).Msg("slack signature rejected")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": RequestIDFrom(c),
		"code":       "invalid_signature",
		"message":    "request signature could not be verified",
	})
}
