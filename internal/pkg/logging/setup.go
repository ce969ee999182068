package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup configures the default slog logger for one job invocation. The
// request ID (when running on a function platform) travels on every line.
func Setup(level, service, requestID string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})

	logger := slog.New(handler).With("service", service)
	if requestID != "" {
		logger = logger.With("request_id", requestID)
	}
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
