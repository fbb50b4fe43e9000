// Package logging configures the process logger. Output always goes to
// stderr: stdout carries MCP framing and must stay clean.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// New builds the root logger: pretty console output when stderr is a
// terminal, JSON lines otherwise.
func New(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var w = zerolog.New(os.Stderr)
	if isatty.IsTerminal(os.Stderr.Fd()) {
		w = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
		})
	}
	return w.Level(lvl).With().Timestamp().Logger()
}
