// Package logger configures the application's structured logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Options controls logger construction.
type Options struct {
	AddSource bool
	Level     string
	// Dir, when set, adds a JSON log file handler under Dir with a dated
	// filename next to the stderr handler.
	Dir string
}

// New builds a slog.Logger and installs it as the default. When Options.Dir
// is set, records are written both to stderr and to a dated log file. The
// returned logger is always usable; a non-nil error reports a degraded setup
// (bad level or unwritable log dir) that fell back to defaults.
func New(opt *Options) (*slog.Logger, error) {
	if opt == nil {
		opt = &Options{}
	}

	level, err := ParseLevel(opt.Level)
	if err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		AddSource: opt.AddSource,
		Level:     level,
	}

	out := io.Writer(os.Stderr)

	if opt.Dir != "" {
		file, fileErr := openLogFile(opt.Dir)
		if fileErr != nil {
			err = fileErr
		} else {
			out = io.MultiWriter(os.Stderr, file)
		}
	}

	log := slog.New(slog.NewJSONHandler(out, opts))
	slog.SetDefault(log)

	return log, err
}

func openLogFile(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	name := filepath.Join(dir, fmt.Sprintf("app_%s.log", time.Now().Format("20060102")))

	file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return file, nil
}

// ParseLevel converts a string level to slog.Level
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %q", level)
	}
}
