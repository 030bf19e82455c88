// Package logging builds the process logger. The dashboard owns the terminal,
// so interactive sessions log to a rotated file instead of stderr.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	File       string
	Level      string
	Debug      bool
	MaxSizeMB  int
	MaxBackups int
	// Stderr sends output to the terminal instead of File.
	Stderr bool
}

// New returns a configured logger and a closer for the underlying file.
// An unknown level falls back to info.
func New(opts Options) (*log.Logger, io.Closer) {
	logger := log.New()
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true, DisableColors: !opts.Stderr})
	logger.SetLevel(parseLevel(opts.Level, opts.Debug))

	if opts.Stderr || strings.TrimSpace(opts.File) == "" {
		logger.SetOutput(os.Stderr)
		return logger, nopCloser{}
	}
	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		logger.SetOutput(os.Stderr)
		logger.WithError(err).Warn("error creating log dir, logging to stderr")
		return logger, nopCloser{}
	}
	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
	}
	logger.SetOutput(rotator)
	return logger, rotator
}

func parseLevel(raw string, debug bool) log.Level {
	if debug {
		return log.DebugLevel
	}
	level, err := log.ParseLevel(strings.TrimSpace(raw))
	if err != nil {
		return log.InfoLevel
	}
	return level
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
