package services

import (
	"time"

	"github.com/tbourn/go-reminder-bot/internal/config"
)

// testConfig returns a minimal immutable Config for service tests.
func testConfig(loc *time.Location) *config.Config {
	return &config.Config{
		Location:       loc,
		MinuteInterval: 5,
		Messages:       config.DefaultMessages(),
		Slack:          config.SlackConfig{DeveloperChannelID: "UDEV"},
	}
}
