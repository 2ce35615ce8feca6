// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging configures the zerolog logger used across the CLI.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger settings.
type Config struct {
	// Verbose lowers the level to debug.
	Verbose bool
	// Format is "console" (default) or "json".
	Format string
	// Output defaults to stderr.
	Output io.Writer
}

// New builds a logger from cfg. Every event carries a timestamp and the
// process id.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	level := zerolog.InfoLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}

	var zl zerolog.Logger
	if strings.EqualFold(cfg.Format, "json") {
		zl = zerolog.New(out)
	} else {
		zl = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.DateTime,
		})
	}

	return zl.Level(level).With().
		Timestamp().
		Int("pid", os.Getpid()).
		Logger()
}

// ValidFormat reports whether format names a supported output format.
func ValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case "", "console", "json":
		return true
	default:
		return false
	}
}
