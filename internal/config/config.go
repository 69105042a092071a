// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the bot.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// SlackSigningSecret verifies that inbound requests come from Slack.
	// Required to serve, see ValidateServer.
	SlackSigningSecret string

	// SlackBotToken is used for teams without a stored installation, which
	// covers single-workspace deployments that never run the OAuth flow.
	SlackBotToken string

	// SlackTeamID is the workspace SlackBotToken belongs to. When set, it is
	// reminded even if it has no stored installation.
	SlackTeamID string

	// SlackChannelName is the channel public announcements go to. Defaults
	// to "general".
	SlackChannelName string

	// SlackClientID and SlackClientSecret enable the install flow, which
	// then also needs SlackRedirectURL.
	SlackClientID     string
	SlackClientSecret string
	SlackRedirectURL  string

	// PlacesAPIKey enables place search. Optional.
	PlacesAPIKey string

	// Timezone decides what "today" is. Defaults to UTC.
	Timezone *time.Location

	// DefaultEventTime is used when an event is created without a time,
	// normalized to HH:MM ("9:30" becomes "09:30"). Defaults to "17:30".
	DefaultEventTime string

	// RemindToken protects the reminder endpoint. The endpoint is disabled
	// when empty.
	RemindToken string

	// OAuthStateTTL is how long an install link stays valid. Defaults to 10m.
	OAuthStateTTL time.Duration

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// RequestTimeout bounds each request. Defaults to 10s.
	RequestTimeout time.Duration
}

// ValidateServer checks the settings only the HTTP server needs, so one-shot
// commands such as migrate run without them.
func (c Config) ValidateServer() error {
	if c.SlackSigningSecret == "" {
		return errors.New("required environment variables not set: SLACK_SIGNING_SECRET")
	}
	if c.InstallEnabled() && c.SlackRedirectURL == "" {
		return errors.New("required environment variables not set: SLACK_REDIRECT_URL (needed by the install flow)")
	}
	return nil
}

// InstallEnabled reports whether the OAuth install flow is configured.
func (c Config) InstallEnabled() bool {
	return c.SlackClientID != "" && c.SlackClientSecret != ""
}

// Load reads configuration from environment variables and returns a Config.
// Outside production a .env file in the working directory is read first;
// variables already set in the environment win over it.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		// A missing .env is normal.
		_ = godotenv.Load()
	}

	cfg := Config{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		SlackSigningSecret: os.Getenv("SLACK_SIGNING_SECRET"),
		SlackBotToken:      os.Getenv("SLACK_BOT_TOKEN"),
		SlackTeamID:        os.Getenv("SLACK_TEAM_ID"),
		SlackChannelName:   strings.TrimPrefix(getEnv("SLACK_CHANNEL_NAME", "general"), "#"),
		SlackClientID:      os.Getenv("SLACK_CLIENT_ID"),
		SlackClientSecret:  os.Getenv("SLACK_CLIENT_SECRET"),
		SlackRedirectURL:   os.Getenv("SLACK_REDIRECT_URL"),
		PlacesAPIKey:       os.Getenv("GOOGLE_PLACES_API_KEY"),
		DefaultEventTime:   getEnv("DEFAULT_EVENT_TIME", "17:30"),
		RemindToken:        os.Getenv("REMIND_TOKEN"),
	}

	var (
		missing []string
		invalid []error
	)

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if (cfg.SlackClientID == "") != (cfg.SlackClientSecret == "") {
		missing = append(missing, "SLACK_CLIENT_ID and SLACK_CLIENT_SECRET (set both or neither)")
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "UTC"))
	if err != nil {
		invalid = append(invalid, fmt.Errorf("TIMEZONE: %w", err))
	}
	cfg.Timezone = loc

	if t, err := time.Parse("15:04", cfg.DefaultEventTime); err != nil {
		invalid = append(invalid, fmt.Errorf("DEFAULT_EVENT_TIME: %q is not HH:MM", cfg.DefaultEventTime))
	} else {
		// Stored times are zero padded; they sort as text.
		cfg.DefaultEventTime = t.Format("15:04")
	}

	if cfg.OAuthStateTTL, err = getDuration("OAUTH_STATE_TTL", 10*time.Minute); err != nil {
		invalid = append(invalid, err)
	}
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 10*time.Second); err != nil {
		invalid = append(invalid, err)
	}
	if cfg.MaxBodyBytes, err = getInt64("MAX_BODY_BYTES", 1<<20); err != nil {
		invalid = append(invalid, err)
	}

	if len(missing) > 0 {
		invalid = append([]error{
			fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", ")),
		}, invalid...)
	}
	if len(invalid) > 0 {
		return Config{}, errors.Join(invalid...)
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: %q is not a positive duration", key, v)
	}
	return d, nil
}

func getInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: %q is not a positive integer", key, v)
	}
	return n, nil
}
