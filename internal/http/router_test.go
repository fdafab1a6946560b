package httpapi

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"

	"github.com/tbourn/go-reminder-bot/internal/bot"
	"github.com/tbourn/go-reminder-bot/internal/config"
)

const secret = "test-signing-secret"

type stubBot struct {
	mu       sync.Mutex
	commands []string
}

func (b *stubBot) Recognizes(name string) bool { return name == "/set-reminder" }
func (b *stubBot) Messages() config.Messages   { return config.DefaultMessages() }
func (b *stubBot) HandleCommand(_ context.Context, cmd bot.Command) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commands = append(b.commands, cmd.Name)
	return nil
}
func (b *stubBot) HandleViewSubmission(context.Context, *slack.InteractionCallback) (bot.Submission, error) {
	return bot.Submission{}, nil
}

func testConfig() config.Config {
	return config.Config{
		RateRPS:   100,
		RateBurst: 10,
		Slack:     config.SlackConfig{SigningSecret: secret},
		OTEL:      config.OTELConfig{ServiceName: "test-svc"},
	}
}

func newRouter(t *testing.T, b *stubBot) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, b, testConfig())
	return r
}

func signedPost(path, body string) *http.Request {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + ts + ":" + body))

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
	return req
}

func TestRegisterRoutes_Health_Metrics_Fallbacks(t *testing.T) {
	r := newRouter(t, &stubBot{})

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/nope", http.StatusNotFound},
		{http.MethodGet, "/slack/commands", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
		if w.Code != tt.want {
			t.Fatalf("%s %s = %d; want %d", tt.method, tt.path, w.Code, tt.want)
		}
		if w.Header().Get("X-Request-ID") == "" {
			t.Fatalf("%s %s: expected X-Request-ID header", tt.method, tt.path)
		}
	}
}

func TestRegisterRoutes_SignedCommandReachesBot(t *testing.T) {
	b := &stubBot{}
	r := newRouter(t, b)

	body := url.Values{"command": {"/set-reminder"}, "user_id": {"U1"}, "channel_id": {"C1"}}.Encode()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, signedPost("/slack/commands", body))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body %s", w.Code, w.Body.String())
	}
	if len(b.commands) != 1 || b.commands[0] != "/set-reminder" {
		t.Fatalf("commands = %v", b.commands)
	}
}

func TestRegisterRoutes_UnsignedRejected(t *testing.T) {
	b := &stubBot{}
	r := newRouter(t, b)

	req := httptest.NewRequest(http.MethodPost, "/slack/commands",
		strings.NewReader(url.Values{"command": {"/set-reminder"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d; want 401", w.Code)
	}
	if len(b.commands) != 0 {
		t.Fatalf("unsigned request reached the bot")
	}
}

func TestRegisterRoutes_RateLimitPerUser(t *testing.T) {
	b := &stubBot{}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	cfg := testConfig()
	cfg.RateRPS, cfg.RateBurst = 0.001, 1
	RegisterRoutes(r, b, cfg)

	body := url.Values{"command": {"/set-reminder"}, "user_id": {"U1"}}.Encode()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, signedPost("/slack/commands", body))
	if w.Code != http.StatusOK {
		t.Fatalf("first = %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, signedPost("/slack/commands", body))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second = %d; want 429", w.Code)
	}

	retry := signedPost("/slack/commands", body)
	retry.Header.Set("X-Slack-Retry-Num", "1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, retry)
	if w.Code != http.StatusOK {
		t.Fatalf("retry = %d; want 200", w.Code)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func TestRegisterRoutes_OversizedBody(t *testing.T) {
	r := newRouter(t, &stubBot{})
	body := "payload=" + strings.Repeat("a", maxBodyBytes)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, signedPost("/slack/interactions", body))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d; want 413", w.Code)
	}
}
