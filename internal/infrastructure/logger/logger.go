package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// Setup installs the process-wide slog logger: text on stderr, plus JSON in
// logFile when one is given. The returned func closes the file.
func Setup(logFile string, level slog.Level) (*slog.Logger, func() error) {
	stderrHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	if logFile == "" {
		l := slog.New(stderrHandler)
		slog.SetDefault(l)
		return l, func() error { return nil }
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		l := slog.New(stderrHandler)
		slog.SetDefault(l)
		l.Error("logger.file.open_failed", "file", logFile, "error", err)
		return l, func() error { return nil }
	}

	l := slog.New(slogmulti.Fanout(
		stderrHandler,
		slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}),
	))
	slog.SetDefault(l)
	return l, file.Close
}

// NewWithWriters builds the same fan-out over arbitrary writers, for tests.
func NewWithWriters(text, json io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slogmulti.Fanout(
		slog.NewTextHandler(text, &slog.HandlerOptions{Level: level}),
		slog.NewJSONHandler(json, &slog.HandlerOptions{Level: level}),
	))
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
