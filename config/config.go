// Package config loads badge settings from the environment
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golobby/config/v3"
	"github.com/golobby/config/v3/pkg/feeder"
	"github.com/joho/godotenv"
)

type Config struct {
	Badge     BadgeConfig
	Power     PowerConfig
	Display   DisplayConfig
	WebServer WebServerConfig
}

type BadgeConfig struct {
	RootPath       string `env:"BADGE_ROOT_PATH"`
	LogLevel       string `env:"BADGE_LOG_LEVEL"`
	StartupDelayMs int    `env:"BADGE_STARTUP_DELAY_MS"`
}

type PowerConfig struct {
	IdleTimeoutMs       int  `env:"BADGE_IDLE_TIMEOUT_MS"`
	KeepAliveEnabled    bool `env:"BADGE_KEEPALIVE_ENABLED"`
	KeepAliveIntervalMs int  `env:"BADGE_KEEPALIVE_INTERVAL_MS"`
	KeepAliveDurationMs int  `env:"BADGE_KEEPALIVE_DURATION_MS"`
}

type DisplayConfig struct {
	Brightness int    `env:"BADGE_BRIGHTNESS"`
	MirrorPath string `env:"BADGE_MIRROR_PATH"`
	// WlrOutput names a wayland output to power with wlr-randr, empty for headless
	WlrOutput string `env:"BADGE_WLR_OUTPUT"`
}

type WebServerConfig struct {
	ListenAddr  string `env:"BADGE_LISTEN_ADDR"`
	CorsOrigins string `env:"BADGE_CORS_ORIGINS"`
}

// Default is the configuration used for anything the environment leaves unset
func Default() Config {
	return Config{
		Badge: BadgeConfig{
			RootPath:       "./data",
			LogLevel:       "info",
			StartupDelayMs: 60000,
		},
		Power: PowerConfig{
			IdleTimeoutMs:       300000,
			KeepAliveEnabled:    true,
			KeepAliveIntervalMs: 10000,
			KeepAliveDurationMs: 200,
		},
		Display: DisplayConfig{
			Brightness: 128,
		},
		WebServer: WebServerConfig{
			ListenAddr:  "0.0.0.0:8080",
			CorsOrigins: "*",
		},
	}
}

// Load reads an optional .env file and then the process environment on top of Default
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	c := Default()
	if err := config.New().AddFeeder(feeder.Env{}).AddStruct(&c).Feed(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.Badge.RootPath == "" {
		return fmt.Errorf("BADGE_ROOT_PATH must not be empty")
	}
	if c.Badge.StartupDelayMs < 0 {
		return fmt.Errorf("BADGE_STARTUP_DELAY_MS must not be negative, got %d", c.Badge.StartupDelayMs)
	}
	if c.Display.Brightness < 0 || c.Display.Brightness > 255 {
		return fmt.Errorf("BADGE_BRIGHTNESS must be within 0-255, got %d", c.Display.Brightness)
	}
	return nil
}

func (c *Config) StartupDelay() time.Duration {
	return time.Duration(c.Badge.StartupDelayMs) * time.Millisecond
}

func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Power.IdleTimeoutMs) * time.Millisecond
}

func (c *Config) KeepAliveInterval() time.Duration {
	return time.Duration(c.Power.KeepAliveIntervalMs) * time.Millisecond
}

func (c *Config) KeepAliveDuration() time.Duration {
	return time.Duration(c.Power.KeepAliveDurationMs) * time.Millisecond
}

// Origins splits BADGE_CORS_ORIGINS on commas
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.WebServer.CorsOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c *Config) GetLogLevel() slog.Leveler {
	logLevel := strings.ToLower(c.Badge.LogLevel)
	if logLevel == "error" {
		return slog.LevelError
	}
	if logLevel == "warning" {
		return slog.LevelWarn
	}
	if logLevel == "info" {
		return slog.LevelInfo
	}
	if logLevel == "debug" {
		return slog.LevelDebug
	}
	// default to info if unknown
	slog.With(slog.String("log_level", logLevel)).Info("Received invalid log level. Defaulting to INFO.")
	return slog.LevelInfo
}
