// Package logging builds the zerolog logger. The TUI owns the terminal, so
// records go to a file; CLI commands also echo warnings to stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/al-bashkir/conn-tui/internal/config"
)

const TimeFormat = "2006-01-02T15:04:05.000"

type Options struct {
	File    string // empty uses the state dir
	Level   string // zerolog level name; empty means info
	Debug   bool   // forces debug level
	Console io.Writer
}

// DefaultFile is the log file path under the XDG state directory.
func DefaultFile() (string, error) {
	dir, err := config.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "conn-tui.log"), nil
}

// New opens the log file and returns a logger plus a func that closes it.
func New(opts Options) (zerolog.Logger, func() error, error) {
	level, err := parseLevel(opts.Level, opts.Debug)
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	path := opts.File
	if path == "" {
		p, err := DefaultFile()
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		path = p
	}
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("log dir: %w", err)
	}
	// #nosec G304 -- path comes from flags or env.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}

	var w io.Writer = f
	if opts.Console != nil {
		console := zerolog.ConsoleWriter{Out: opts.Console, TimeFormat: TimeFormat}
		w = zerolog.MultiLevelWriter(f, &minLevelWriter{w: console, min: zerolog.WarnLevel})
	}

	log := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return log, f.Close, nil
}

func parseLevel(s string, debug bool) (zerolog.Level, error) {
	if debug {
		return zerolog.DebugLevel, nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	l, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("log level %q: %w", s, err)
	}
	return l, nil
}

// minLevelWriter drops records below min.
type minLevelWriter struct {
	w   io.Writer
	min zerolog.Level
}

func (m *minLevelWriter) Write(p []byte) (int, error) {
	return m.w.Write(p)
}

func (m *minLevelWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < m.min {
		return len(p), nil
	}
	return m.w.Write(p)
}
