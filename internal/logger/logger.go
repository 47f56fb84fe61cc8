package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/varoOP/whist/internal/domain"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger creates a new zerolog logger with console output
func NewLogger() zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return log.Output(output).With().Timestamp().Logger()
}

// New creates the application logger from config. Console output is always
// on; when log_file is set, entries are also written to a rotating file.
func New(cfg *domain.Config) zerolog.Logger {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg *domain.Config, console io.Writer) zerolog.Logger {
	var output io.Writer = zerolog.ConsoleWriter{Out: console, TimeFormat: "15:04:05"}

	if cfg.LogFile != "" {
		path := cfg.LogFile
		if !filepath.IsAbs(path) && cfg.DataDir != "" {
			path = filepath.Join(cfg.DataDir, path)
		}
		output = zerolog.MultiLevelWriter(output, &lumberjack.Logger{
			Filename:   path,
			MaxSize:    cfg.LogMaxSize,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAge,
		})
	}

	return zerolog.New(output).With().Timestamp().Logger().Level(ParseLevel(cfg.LogLevel))
}

// ParseLevel falls back to info for empty or unknown levels.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
