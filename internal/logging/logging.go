package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"crmguard/internal/config"
)

// New builds the process logger. Output always goes to stdout; when a log
// file is configured it is also written to a size-rotated file.
func New(cfg *config.LogConfig) *slog.Logger {
	return slog.New(slog.NewJSONHandler(writer(cfg), &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
	}))
}

func writer(cfg *config.LogConfig) io.Writer {
	if cfg.File == "" {
		return os.Stdout
	}
	return io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	})
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
