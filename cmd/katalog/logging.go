package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// newLogger builds the level-routed logger. When file is non-nil every
// level is copied to it as well.
func newLogger(stdout, stderr io.Writer, file io.Writer) *slog.Logger {
	if file != nil {
		stdout = io.MultiWriter(stdout, file)
		stderr = io.MultiWriter(stderr, file)
	}
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	return slog.New(&levelRouter{
		stdout: slog.NewTextHandler(stdout, opts),
		stderr: slog.NewTextHandler(stderr, opts),
	})
}

// setupLogger installs the default logger. It returns a function closing
// the log file, or nil when logPath is empty.
func setupLogger(logPath string) (func(), error) {
	if logPath == "" {
		slog.SetDefault(newLogger(os.Stdout, os.Stderr, nil))
		return nil, nil
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	slog.SetDefault(newLogger(os.Stdout, os.Stderr, f))
	return func() { f.Close() }, nil
}
