// Package log provides JSON-lines structured logging for consult.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// EnvDebug enables debug logging when set to "1".
const EnvDebug = "CONSULT_DEBUG"

// Config configures the structured logger.
type Config struct {
	// Output is the writer for log output (default: os.Stderr)
	Output io.Writer

	// Level is the minimum log level (default: LevelInfo)
	Level slog.Level

	// Debug enables debug level logging (overrides Level)
	Debug bool
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: os.Stderr,
		Level:  slog.LevelInfo,
	}
}

// New creates a JSON-lines logger:
//
//	{"ts":"2024-01-15T10:30:00Z","level":"INFO","msg":"project registered","name":"app"}
//
// Levels:
//   - debug: session lifecycle, rg commands, stale results (CONSULT_DEBUG=1)
//   - info: cache loads, pruned entries, registered projects
//   - warn: failed autosave or reload, callback failures
//   - error: messages shown to the user as errors
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	level := cfg.Level
	if cfg.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				a.Key = "ts"
			}
			return a
		},
	}
	return slog.New(slog.NewJSONHandler(output, opts))
}

// NewFromEnv creates a logger writing to stderr.
// CONSULT_DEBUG=1 enables debug logging.
func NewFromEnv() *slog.Logger {
	cfg := DefaultConfig()
	cfg.Debug = os.Getenv(EnvDebug) == "1"
	return New(cfg)
}

// ParseLevel maps a level name to a slog level. An empty name is info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// OpenFile opens path for appending, creating its directory. The caller
// closes the file.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}
