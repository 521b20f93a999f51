// Package logging configures the structured logger shared by every command.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// EnvLogLevel overrides the default log level when --log-level is not set.
const EnvLogLevel = "HUBKIT_LOG_LEVEL"

// Config describes the logger output.
type Config struct {
	Level  string
	JSON   bool
	Output io.Writer
}

// New builds a logger from cfg. Unknown levels fall back to info.
func New(cfg Config) *log.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		level = log.InfoLevel
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           level,
	})
	if cfg.JSON {
		logger.SetFormatter(log.JSONFormatter)
	}
	return logger
}

// Setup builds a logger and installs it as the package default so that
// components created without an explicit logger share it.
func Setup(cfg Config) *log.Logger {
	if cfg.Level == "" {
		cfg.Level = os.Getenv(EnvLogLevel)
	}
	logger := New(cfg)
	log.SetDefault(logger)
	return logger
}
