package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupLogger creates a logger writing to logFile, or to stderr when no file
// is given or it cannot be opened. Nothing is ever logged to stdout, which
// carries documents and the MCP stdio stream.
func setupLogger(level string, logFile string, stderr io.Writer) (*slog.Logger, func()) {
	logLevel := parseLevel(level)

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: logLevel})
			return slog.New(handler), func() { f.Close() }
		}
		fmt.Fprintf(stderr, "Warning: cannot open log file %s: %v, falling back to stderr\n", logFile, err)
	}

	handler := log.NewWithOptions(stderr, log.Options{
		Prefix:          "contexter",
		ReportTimestamp: true,
		Level:           log.Level(logLevel),
	})
	return slog.New(handler), func() {}
}
