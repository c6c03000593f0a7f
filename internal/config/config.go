package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the console and dev server.
type Config struct {
	Desk      DeskConfig
	Console   ConsoleConfig
	DevServer DevServerConfig
	Logger    LoggerConfig
}

// DeskConfig points the client at the support-desk server.
type DeskConfig struct {
	BaseURL               string
	RequestTimeoutSeconds int
}

// ConsoleConfig carries the per-session identity the page would normally
// embed: which ticket is open and who the authenticated viewer is.
type ConsoleConfig struct {
	TicketID        int64
	CurrentUserID   string
	CurrentUserName string
	// Layout selects the rendering variant: "detailed" or "compact".
	Layout string
	// StatusEndpoint selects the transition endpoint variant: "form" or "json".
	StatusEndpoint string
}

// DevServerConfig controls the in-memory contract stub.
type DevServerConfig struct {
	Host string
	Port string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// Load reads configuration from environment variables, applying defaults
// where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	ticketID, err := strconv.ParseInt(getEnv("DESK_TICKET_ID", "1"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DESK_TICKET_ID: %w", err)
	}

	cfg := &Config{
		Desk: DeskConfig{
			BaseURL:               getEnv("DESK_BASE_URL", "http://127.0.0.1:5000"),
			RequestTimeoutSeconds: getEnvAsInt("DESK_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Console: ConsoleConfig{
			TicketID:        ticketID,
			CurrentUserID:   getEnv("DESK_USER_ID", "1"),
			CurrentUserName: getEnv("DESK_USER_NAME", "Support Staff"),
			Layout:          getEnv("DESK_LAYOUT", "detailed"),
			StatusEndpoint:  getEnv("DESK_STATUS_ENDPOINT", "form"),
		},
		DevServer: DevServerConfig{
			Host: getEnv("DEVSERVER_HOST", "127.0.0.1"),
			Port: getEnv("DEVSERVER_PORT", "5000"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// Addr returns the dev server bind address.
func (d DevServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", d.Host, d.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (d DeskConfig) RequestTimeout() time.Duration {
	if d.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(d.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
