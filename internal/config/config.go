// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes Slack credentials,
// transport mode, the scheduling timezone and interval, server timeouts,
// logging, rate limiting, the delivery ledger and observability.
//
// The resulting Config is built once at process start and treated as
// read-only afterwards; components receive it (or a sub-struct) through their
// constructors.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// SlackConfig holds platform credentials and the operator fallback target.
type SlackConfig struct {
	BotToken      string // SLACK_BOT_TOKEN (xoxb-…)
	SigningSecret string // SLACK_SIGNING_SECRET (HTTP mode)
	AppToken      string // SLACK_APP_TOKEN (xapp-…, Socket Mode)
	SocketMode    bool   // SOCKET_MODE
	Debug         bool   // SLACK_DEBUG
	APIURL        string // SLACK_API_URL, override for tests/proxies

	// DeveloperChannelID receives a copy of every gateway failure with the
	// raw error detail (DEVELOPER_SLACK_ID). Empty disables it.
	DeveloperChannelID string
}

// CommandsConfig names the slash commands the bot answers to.
type CommandsConfig struct {
	Reminder string // CMD_SET_REMINDER
	Schedule string // CMD_SET_SCHEDULE
	List     string // CMD_SHOW_REMINDER_LIST
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server (HTTP mode)
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool

	// Slack
	Slack    SlackConfig
	Commands CommandsConfig

	// Scheduling
	Timezone       string         // BOT_TIMEZONE, IANA name or "Local"
	Location       *time.Location // resolved from Timezone
	MinuteInterval int            // MINUTE_INTERVAL, must divide 60

	// User-visible strings
	MessagesFile string // MESSAGES_FILE, optional YAML overlay
	Messages     Messages

	// Delivery ledger
	DBPath      string        // DB_PATH, empty = in-memory
	DeliveryTTL time.Duration // DELIVERY_TTL

	// Rate limiting
	RateRPS   float64
	RateBurst int

	// Observability
	OTEL OTELConfig
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Port:              getenv("PORT", "3000"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		Slack: SlackConfig{
			BotToken:           strings.TrimSpace(getenv("SLACK_BOT_TOKEN", "")),
			SigningSecret:      strings.TrimSpace(getenv("SLACK_SIGNING_SECRET", "")),
			AppToken:           strings.TrimSpace(getenv("SLACK_APP_TOKEN", "")),
			SocketMode:         getbool("SOCKET_MODE", true),
			Debug:              getbool("SLACK_DEBUG", false),
			APIURL:             getenv("SLACK_API_URL", ""),
			DeveloperChannelID: strings.TrimSpace(getenv("DEVELOPER_SLACK_ID", "")),
		},
		Commands: CommandsConfig{
			Reminder: normalizeCommand(getenv("CMD_SET_REMINDER", "/set-reminder")),
			Schedule: normalizeCommand(getenv("CMD_SET_SCHEDULE", "/set-schedule")),
			List:     normalizeCommand(getenv("CMD_SHOW_REMINDER_LIST", "/show-reminder-list")),
		},

		Timezone:       getenv("BOT_TIMEZONE", "Local"),
		MinuteInterval: getint("MINUTE_INTERVAL", 5),

		MessagesFile: getenv("MESSAGES_FILE", ""),

		DBPath:      getenv("DB_PATH", ""),
		DeliveryTTL: getdur("DELIVERY_TTL", 15*time.Minute),

		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "reminder-bot"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if cfg.Slack.BotToken == "" {
		return cfg, errors.New("SLACK_BOT_TOKEN must not be empty")
	}
	if cfg.Slack.SocketMode {
		if !strings.HasPrefix(cfg.Slack.AppToken, "xapp-") {
			return cfg, errors.New("SLACK_APP_TOKEN must be an app-level token (xapp-…) when SOCKET_MODE is on")
		}
	} else {
		if cfg.Slack.SigningSecret == "" {
			return cfg, errors.New("SLACK_SIGNING_SECRET must not be empty when SOCKET_MODE is off")
		}
		if strings.TrimSpace(cfg.Port) == "" {
			return cfg, errors.New("PORT must not be empty")
		}
	}
	if cfg.Commands.Reminder == "" || cfg.Commands.Schedule == "" || cfg.Commands.List == "" {
		return cfg, errors.New("slash command names must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.MinuteInterval <= 0 || cfg.MinuteInterval > 60 || 60%cfg.MinuteInterval != 0 {
		return cfg, errors.New("MINUTE_INTERVAL must be a positive divisor of 60")
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return cfg, fmt.Errorf("BOT_TIMEZONE: %w", err)
	}
	cfg.Location = loc
	if cfg.DeliveryTTL <= 0 {
		return cfg, errors.New("DELIVERY_TTL must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	msgs, err := LoadMessages(cfg.MessagesFile)
	if err != nil {
		return cfg, fmt.Errorf("MESSAGES_FILE: %w", err)
	}
	cfg.Messages = msgs

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// normalizeCommand ensures a single leading '/' on a slash command name.
func normalizeCommand(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return "/" + strings.TrimLeft(s, "/")
}
