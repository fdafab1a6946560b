package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

const testSigningSecret = "8f742231b10e8888abcd99yyyzzz85a5"

func sign(secret, ts, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + ts + ":" + body))
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func signatureRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	captureLogger(t)
	r := gin.New()
	r.Use(RequestID(), SlackSignature(testSigningSecret))
	r.POST("/slack/commands", func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(body))
	})
	return r
}

func signedRequest(body, ts, sig string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/slack/commands", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if ts != "" {
		req.Header.Set("X-Slack-Request-Timestamp", ts)
	}
	if sig != "" {
		req.Header.Set("X-Slack-Signature", sig)
	}
	return req
}

func TestSlackSignature_ValidRestoresBody(t *testing.T) {
	r := signatureRouter(t)
	body := "command=%2Fremind&user_id=U1"
	ts := strconv.FormatInt(time.Now().Unix(), 10)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, signedRequest(body, ts, sign(testSigningSecret, ts, body)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body %s", w.Code, w.Body.String())
	}
	if w.Body.String() != body {
		t.Fatalf("handler saw body %q; want %q", w.Body.String(), body)
	}
}

func TestSlackSignature_Rejects(t *testing.T) {
	body := "command=%2Fremind"
	now := strconv.FormatInt(time.Now().Unix(), 10)
	stale := strconv.FormatInt(time.Now().Add(-10*time.Minute).Unix(), 10)

	tests := []struct {
		name    string
		ts, sig string
	}{
		{"missing headers", "", ""},
		{"wrong secret", now, sign("other", now, body)},
		{"tampered body", now, sign(testSigningSecret, now, body+"&x=1")},
		{"stale timestamp", stale, sign(testSigningSecret, stale, body)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := signatureRouter(t)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, signedRequest(body, tt.ts, tt.sig))

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d; want 401", w.Code)
			}
			var got map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if got["code"] != "invalid_signature" {
				t.Fatalf("unexpected body %v", got)
			}
		})
	}
}
