package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setRequired provides the minimum valid Socket Mode environment.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("SLACK_APP_TOKEN", "xapp-1-test")
}

// --- Load success + normalization + parsing ---

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.Slack.SocketMode || cfg.Port != "3000" || cfg.GinMode != "release" {
		t.Fatalf("transport defaults unexpected: %+v", cfg)
	}
	if cfg.Commands != (CommandsConfig{Reminder: "/set-reminder", Schedule: "/set-schedule", List: "/show-reminder-list"}) {
		t.Fatalf("command defaults unexpected: %+v", cfg.Commands)
	}
	if cfg.MinuteInterval != 5 || cfg.Location == nil || cfg.Timezone != "Local" {
		t.Fatalf("scheduling defaults unexpected: %+v", cfg)
	}
	if cfg.DBPath != "" || cfg.DeliveryTTL != 15*time.Minute {
		t.Fatalf("ledger defaults unexpected: %+v", cfg)
	}
	if cfg.Slack.DeveloperChannelID != "" {
		t.Fatalf("fallback destination should default to disabled")
	}
	if cfg.Messages.UnknownCommand != DefaultMessages().UnknownCommand {
		t.Fatalf("messages should default to the built-in catalogue")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("GIN_MODE", "weird")
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("SLACK_DEBUG", "on")
	t.Setenv("DEVELOPER_SLACK_ID", " UDEV ")
	t.Setenv("CMD_SET_REMINDER", "remind")
	t.Setenv("CMD_SET_SCHEDULE", "//event")
	t.Setenv("BOT_TIMEZONE", "Asia/Tokyo")
	t.Setenv("MINUTE_INTERVAL", "15")
	t.Setenv("DB_PATH", "ledger.db")
	t.Setenv("DELIVERY_TTL", "1h")
	t.Setenv("RATE_RPS", "x")
	t.Setenv("RATE_BURST", "nope")
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8088" || cfg.ReadTimeout != 2*time.Second || cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.Slack.Debug {
		t.Fatalf("logging fields unexpected: %+v", cfg)
	}
	if cfg.Slack.DeveloperChannelID != "UDEV" {
		t.Fatalf("developer id = %q", cfg.Slack.DeveloperChannelID)
	}
	if cfg.Commands.Reminder != "/remind" || cfg.Commands.Schedule != "/event" {
		t.Fatalf("commands not normalized: %+v", cfg.Commands)
	}
	if cfg.Location.String() != "Asia/Tokyo" || cfg.MinuteInterval != 15 {
		t.Fatalf("scheduling unexpected: %v %d", cfg.Location, cfg.MinuteInterval)
	}
	if cfg.DBPath != "ledger.db" || cfg.DeliveryTTL != time.Hour {
		t.Fatalf("ledger unexpected: %+v", cfg)
	}
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate limiting unexpected: %+v", cfg)
	}
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

func TestLoad_HTTPMode(t *testing.T) {
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("SOCKET_MODE", "false")
	t.Setenv("SLACK_SIGNING_SECRET", "shh")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Slack.SocketMode || cfg.Slack.SigningSecret != "shh" {
		t.Fatalf("http mode unexpected: %+v", cfg.Slack)
	}
}

// --- Load validations (each case triggers exactly one validation error) ---

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"invalid LOG_LEVEL", map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		{"missing bot token", map[string]string{"SLACK_BOT_TOKEN": " "}, "SLACK_BOT_TOKEN"},
		{"bot token as app token", map[string]string{"SLACK_APP_TOKEN": "xoxb-nope"}, "SLACK_APP_TOKEN"},
		{"http mode without secret", map[string]string{"SOCKET_MODE": "off"}, "SLACK_SIGNING_SECRET"},
		{"http mode empty port", map[string]string{"SOCKET_MODE": "off", "SLACK_SIGNING_SECRET": "s", "PORT": "   "}, "PORT must not be empty"},
		{"non-positive timeouts", map[string]string{"READ_TIMEOUT": "0s"}, "timeouts must be positive"},
		{"max header bytes", map[string]string{"MAX_HEADER_BYTES": "0"}, "MAX_HEADER_BYTES"},
		{"interval not dividing 60", map[string]string{"MINUTE_INTERVAL": "7"}, "MINUTE_INTERVAL"},
		{"interval zero", map[string]string{"MINUTE_INTERVAL": "0"}, "MINUTE_INTERVAL"},
		{"unknown timezone", map[string]string{"BOT_TIMEZONE": "Mars/Olympus"}, "BOT_TIMEZONE"},
		{"delivery ttl", map[string]string{"DELIVERY_TTL": "0s"}, "DELIVERY_TTL"},
		{"rate rps negative", map[string]string{"RATE_RPS": "-1"}, "RATE_RPS"},
		{"rate burst < 1", map[string]string{"RATE_BURST": "0"}, "RATE_BURST"},
		{"otel sample ratio", map[string]string{"OTEL_TRACES_SAMPLER_ARG": "1.5"}, "OTEL_TRACES_SAMPLER_ARG"},
		{"messages file missing", map[string]string{"MESSAGES_FILE": "/nonexistent/messages.yaml"}, "MESSAGES_FILE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil || !containsErr(err, tt.want) {
				t.Fatalf("expected %s validation error, got: %v", tt.want, err)
			}
		})
	}
}

func TestLoad_MessagesOverlay(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), "messages.yaml")
	if err := os.WriteFile(path, []byte("unknown_command: \"Nope.\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MESSAGES_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Messages.UnknownCommand != "Nope." {
		t.Fatalf("overlay not applied: %q", cfg.Messages.UnknownCommand)
	}
	if cfg.Messages.ReminderHeader != DefaultMessages().ReminderHeader {
		t.Fatalf("overlay must keep unspecified defaults")
	}
}

// --- helpers ---

func TestHelpers_getenv(t *testing.T) {
	t.Setenv("X_EMPTY", "")
	if getenv("X_EMPTY", "d") != "d" {
		t.Fatalf("getenv should fall back to default on empty var")
	}
	t.Setenv("X_SET", "val")
	if getenv("X_SET", "d") != "val" {
		t.Fatalf("getenv should read set value")
	}
}

func TestHelpers_getfloat_getint_getdur(t *testing.T) {
	t.Setenv("F_VALID", "3.14")
	if getfloat("F_VALID", 0) != 3.14 {
		t.Fatalf("getfloat parse failed")
	}
	t.Setenv("F_BAD", "nope")
	if getfloat("F_BAD", 1.23) != 1.23 {
		t.Fatalf("getfloat default on bad parse failed")
	}
	t.Setenv("I_VALID", "42")
	if getint("I_VALID", 0) != 42 {
		t.Fatalf("getint parse failed")
	}
	t.Setenv("I_BAD", "x")
	if getint("I_BAD", 7) != 7 {
		t.Fatalf("getint default on bad parse failed")
	}
	t.Setenv("D_VALID", "150ms")
	if getdur("D_VALID", time.Second) != 150*time.Millisecond {
		t.Fatalf("getdur parse failed")
	}
	t.Setenv("D_BAD", "zzz")
	if getdur("D_BAD", 2*time.Second) != 2*time.Second {
		t.Fatalf("getdur default on bad parse failed")
	}
}

func TestHelpers_getbool(t *testing.T) {
	for i, v := range []string{"1", "true", "TRUE", " yes ", "Y", "on", "On"} {
		k := "B_T_" + string(rune('a'+i))
		t.Setenv(k, v)
		if !getbool(k, false) {
			t.Fatalf("getbool(%q) = false; want true", v)
		}
	}
	for i, v := range []string{"0", "false", "FALSE", " no ", "N", "off", "Off"} {
		k := "B_F_" + string(rune('a'+i))
		t.Setenv(k, v)
		if getbool(k, true) {
			t.Fatalf("getbool(%q) = true; want false", v)
		}
	}
	t.Setenv("B_EMPTY", "")
	if !getbool("B_EMPTY", true) || getbool("B_EMPTY", false) {
		t.Fatalf("getbool default behavior unexpected")
	}
}

func TestHelpers_normalizeCommand(t *testing.T) {
	for in, want := range map[string]string{
		"":           "",
		"  ":         "",
		"remind":     "/remind",
		"/remind":    "/remind",
		"///remind ": "/remind",
	} {
		if got := normalizeCommand(in); got != want {
			t.Fatalf("normalizeCommand(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestMessages_LeadTimeLabelFallback(t *testing.T) {
	m := DefaultMessages()
	if got := m.LeadTimeLabel("no-such-token"); got != "no-such-token" {
		t.Fatalf("LeadTimeLabel fallback = %q", got)
	}
	if got := m.LeadTimeLabel("-30m"); got == "" || got == "-30m" {
		t.Fatalf("LeadTimeLabel(-30m) should come from the catalogue, got %q", got)
	}
}

func TestLoadMessages_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("unknown_command: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMessages(path); err == nil || !containsErr(err, "parse") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

// Ensure tests don't leak env to others.
func TestMain(m *testing.M) {
	for _, k := range []string{"PORT", "SLACK_BOT_TOKEN", "SLACK_APP_TOKEN", "SOCKET_MODE", "SLACK_SIGNING_SECRET", "MESSAGES_FILE", "BOT_TIMEZONE"} {
		os.Unsetenv(k)
	}
	os.Exit(m.Run())
}

// containsErr reports whether err's message contains the given substring.
func containsErr(err error, want string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), want)
}
