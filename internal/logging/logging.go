package logging

import (
	"io"
	"log/slog"
	"os"
)

// New creates a *slog.Logger writing JSON to stderr and optionally to logFile.
// It also sets the logger as the slog default so package-level slog calls work.
// The returned cleanup func closes the log file if one was opened; callers must
// defer it.
func New(level, logFile string) (*slog.Logger, func(), error) {
	w, cleanup, err := output(os.Stderr, logFile)
	if err != nil {
		return nil, nil, err
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	logger := slog.New(handler).With("service", "homeinspect")
	slog.SetDefault(logger)
	return logger, cleanup, nil
}

// NewText is the human-readable variant used by inspectctl. Output goes to w
// only; the CLI never writes log files.
func NewText(w io.Writer, level string) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
	slog.SetDefault(logger)
	return logger
}

func output(base io.Writer, logFile string) (io.Writer, func(), error) {
	if logFile == "" {
		return base, func() {}, nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, nil, err
	}
	return io.MultiWriter(base, f), func() { _ = f.Close() }, nil
}

func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
