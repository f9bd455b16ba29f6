// Package applog initialises the global slog logger for the application.
// Call Init once at startup; all other packages use log/slog directly.
package applog

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// Init sets up the global slog logger backed by a charmbracelet logger.
// It writes to stderr and appends to a log file in the temp directory.
// If debug is true, the minimum log level is Debug; otherwise Info.
func Init(debug bool) {
	writers := []io.Writer{os.Stderr}
	if f, err := os.OpenFile(TempLogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
		writers = append(writers, f)
	}
	InitWriter(io.MultiWriter(writers...), debug)
}

// InitWriter is Init with an explicit destination.
func InitWriter(w io.Writer, debug bool) {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           level,
	})
	slog.SetDefault(slog.New(logger))
}

func TempLogPath() string {
	return filepath.Join(os.TempDir(), "hh-replayer.log")
}
