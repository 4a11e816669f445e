package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken  string
	DatabaseURL    string
	ReportInterval time.Duration
	Rollover       RolloverConfig
	Location       *time.Location
	RedisURL       string
	ThemeAccent    string
	Logger         LogConfig
}

// RolloverConfig controls the daily stale task transition.
type RolloverConfig struct {
	// At is the HH:MM wall-clock time of the daily run in Location.
	At             string
	AssignDateless bool
	// Session names the rollover session. Empty means a fresh id per process.
	Session        string
}

type LogConfig struct {
	Level    string
	Encoding string
}

// Load reads configuration from environment variables (optionally .env) with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Config{
		TelegramToken:  strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:    getString("DATABASE_URL", "wellness_planner.db"),
		ReportInterval: parseInterval(strings.TrimSpace(os.Getenv("REPORT_INTERVAL_HOURS"))),
		Rollover: RolloverConfig{
			At:             getString("ROLLOVER_AT", "00:00"),
			AssignDateless: getBool("ROLLOVER_ASSIGN_DATELESS", false),
			Session:        getString("ROLLOVER_SESSION", ""),
		},
		RedisURL:    getString("REDIS_URL", ""),
		ThemeAccent: getString("THEME_ACCENT", "#7c3aed"),
		Logger: LogConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
	}

	if cfg.ReportInterval == 0 {
		cfg.ReportInterval = 5 * time.Hour
	}

	loc, err := parseLocation(getString("TIMEZONE", ""))
	if err != nil {
		return cfg, err
	}
	cfg.Location = loc

	if _, _, err := ParseClock(cfg.Rollover.At); err != nil {
		return cfg, fmt.Errorf("ROLLOVER_AT: %w", err)
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

// ParseClock parses an HH:MM wall-clock time.
func ParseClock(raw string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", raw)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return hour, minute, nil
}

func parseLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	return loc, nil
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}

func getString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}
