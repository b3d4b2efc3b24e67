package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults for the optional log file.
const (
	DefaultMaxSizeMB  = 50
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 30
)

// ParseLevel maps a LOG_LEVEL value to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// New builds a logger writing to w. Production logs are JSON, development logs
// are the text format.
func New(w io.Writer, level string, production bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if production {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Setup installs the default logger. When filePath is set, records are also
// written to a size-rotated file. The returned closer releases that file.
func Setup(level string, production bool, filePath string) io.Closer {
	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}

	if filePath != "" {
		if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
			slog.Error("failed to prepare log directory; logging to stdout only", "path", filePath, "error", err)
		} else {
			file := &lumberjack.Logger{
				Filename:   filePath,
				MaxSize:    DefaultMaxSizeMB,
				MaxBackups: DefaultMaxBackups,
				MaxAge:     DefaultMaxAgeDays,
				Compress:   true,
			}
			out = io.MultiWriter(os.Stdout, file)
			closer = file
		}
	}

	slog.SetDefault(New(out, level, production))
	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
