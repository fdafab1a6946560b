package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Slack redelivery headers. Slack retries a request up to three times when it
// did not see an acknowledgement within three seconds.
const (
	HeaderSlackRetryNum    = "X-Slack-Retry-Num"
	HeaderSlackRetryReason = "X-Slack-Retry-Reason"
)

const (
	ctxKeyRateBypass  = "rate.bypass"
	ctxKeyRetryNum    = "slack.retry_num"
	ctxKeyRetryReason = "slack.retry_reason"
)

// SlackRetry marks redelivered requests. The attempt number and reason are
// stored in the Gin context and added to the request-scoped logger, and the
// request is flagged to bypass the rate limiter. The delivery ledger, not this
// middleware, decides whether a redelivered submission is acted on.
func SlackRetry() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderSlackRetryNum)
		if raw == "" {
			c.Next()
			return
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.Next()
			return
		}
		reason := c.GetHeader(HeaderSlackRetryReason)

		c.Set(ctxKeyRetryNum, n)
		c.Set(ctxKeyRetryReason, reason)
		c.Set(ctxKeyRateBypass, true)

		l := LoggerFrom(c).With().Int("slack_retry_num", n).Str("slack_retry_reason", reason).Logger()
		attachLogger(c, &l)
		c.Next()
	}
}

// IsSlackRetry reports whether SlackRetry saw a redelivery header.
func IsSlackRetry(c *gin.Context) bool {
	_, ok := c.Get(ctxKeyRetryNum)
	return ok
}

// SlackRetryNum returns the redelivery attempt, or 0 for a first delivery.
func SlackRetryNum(c *gin.Context) int {
	return c.GetInt(ctxKeyRetryNum)
}
