// Package logging builds the root zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"newtab/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns the root logger for cfg. When the terminal belongs to the
// TUI, output goes to a rotating log file instead of stderr. The returned
// closer flushes the file.
func New(cfg config.Log, tui bool) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		l, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("log level: %w", err)
		}
		level = l
	}

	if !tui {
		w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
		return zerolog.New(w).Level(level).With().Timestamp().Logger(), nopCloser{}, nil
	}

	path := cfg.File
	if path == "" {
		dir, err := config.Dir()
		if err != nil {
			return zerolog.Nop(), nopCloser{}, nil
		}
		path = filepath.Join(dir, "newtab.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("creating log directory: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    5, // megabytes
		MaxBackups: 2,
		MaxAge:     14, // days
	}
	return zerolog.New(file).Level(level).With().Timestamp().Logger(), file, nil
}
