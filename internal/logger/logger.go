package logger

import (
	"io"
	"os"
	"shop-api/internal/config"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger from the LOG_* settings. Unknown levels fall back to info.
func New(cfg config.Log, env config.Environment) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "shop-api").
		Str("env", env.Name).
		Logger()
}
