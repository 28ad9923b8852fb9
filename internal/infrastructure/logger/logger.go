package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger. Output always goes to stderr:
// stdout carries MCP frames when the stdio transport is selected.
func Init(level, format string) {
	InitWithWriter(os.Stderr, level, format)
}

// InitWithWriter is Init with an explicit destination.
func InitWithWriter(w io.Writer, level, format string) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(parseLevel(level))

	out := w
	if strings.EqualFold(strings.TrimSpace(format), "console") {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		}
	}

	log.Logger = zerolog.New(out).
		With().
		Timestamp().
		Str("service", "image-mcp").
		Logger()
}

func parseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
