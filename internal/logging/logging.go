// Package logging installs the process-wide slog logger.
//
// Deploy runs additionally mirror every record into an append-only log
// file so each run leaves a timestamped trail that survives the terminal.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Configure installs a process-wide slog default logger writing to stderr.
//
// Supported levels: debug, info, warn, error.
func Configure(level string) error {
	parsed, err := parseLevel(level)
	if err != nil {
		return err
	}

	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parsed})
	slog.SetDefault(slog.New(h))
	return nil
}

// ConfigureWithFile is Configure plus an append-only file sink. The file and
// its directory are created on first use. The returned closer flushes the
// file; callers defer it for the lifetime of the run.
func ConfigureWithFile(level, path string) (io.Closer, error) {
	parsed, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	// The file always records at info or finer so soft warnings survive even
	// when the terminal is quiet.
	fileLevel := parsed
	if fileLevel > slog.LevelInfo {
		fileLevel = slog.LevelInfo
	}
	h := tee{
		terminal: slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parsed}),
		file:     slog.NewTextHandler(f, &slog.HandlerOptions{Level: fileLevel}),
	}
	slog.SetDefault(slog.New(h))
	return f, nil
}

// DefaultLogPath returns the run-log location under the XDG state directory,
// falling back to ~/.local/state/skiff/skiff.log.
func DefaultLogPath() string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".local", "state", "skiff", "skiff.log")
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "skiff", "skiff.log")
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", LevelInfo:
		return slog.LevelInfo, nil
	case LevelDebug:
		return slog.LevelDebug, nil
	case LevelWarn:
		return slog.LevelWarn, nil
	case LevelError:
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", level)
	}
}

// tee fans records out to the terminal and file handlers.
type tee struct {
	terminal slog.Handler
	file     slog.Handler
}

func (t tee) Enabled(ctx context.Context, level slog.Level) bool {
	return t.terminal.Enabled(ctx, level) || t.file.Enabled(ctx, level)
}

func (t tee) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	if t.terminal.Enabled(ctx, r.Level) {
		firstErr = t.terminal.Handle(ctx, r.Clone())
	}
	if t.file.Enabled(ctx, r.Level) {
		if err := t.file.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	return tee{terminal: t.terminal.WithAttrs(attrs), file: t.file.WithAttrs(attrs)}
}

func (t tee) WithGroup(name string) slog.Handler {
	return tee{terminal: t.terminal.WithGroup(name), file: t.file.WithGroup(name)}
}
