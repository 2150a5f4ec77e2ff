package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"stegosuite/pkg/config"
)

// Setup configures the global zerolog logger writing to out.
// Uses console writer for human-readable logs unless JSON is requested.
func Setup(out io.Writer, cfg config.Log) {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	w := out
	if !strings.EqualFold(cfg.Format, "json") {
		w = zerolog.NewConsoleWriter(func(cw *zerolog.ConsoleWriter) {
			cw.Out = out
			cw.TimeFormat = time.RFC3339
		})
	}

	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	// log.Ctx falls back to the global logger outside of requests
	zerolog.DefaultContextLogger = &log.Logger
}
