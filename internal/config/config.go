package config

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/seantiz/anvil"
)

const (
	defaultListenAddr = ":8080"
	defaultDBPath     = "anvil.db"

	envListenAddr = "ANVIL_LISTEN_ADDR"
	envDBPath     = "ANVIL_DB_PATH"
	envLogLevel   = "ANVIL_LOG_LEVEL"
	envSimulate   = "ANVIL_SIMULATE"
)

// Config holds daemon configuration loaded from environment variables.
type Config struct {
	ListenAddr string
	DBPath     string
	LogLevel   slog.Level

	// Overrides is the raw per-arena concurrency override string, format
	// "name:count,name:count".
	Overrides string

	// Simulate enables the built-in load simulator so the inspection API
	// has dispatch data to show.
	Simulate bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	cfg := Config{
		ListenAddr: defaultListenAddr,
		DBPath:     defaultDBPath,
		LogLevel:   slog.LevelInfo,
		Overrides:  os.Getenv(anvil.OverridesEnv),
	}

	if v := os.Getenv(envListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(envDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
	if v := os.Getenv(envSimulate); v != "" {
		cfg.Simulate = parseBool(v)
	}

	return cfg
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// NewLogger creates a structured JSON logger writing to w at the configured level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
