package logger

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

// Setup parses lvl ("debug", "info", ...) and applies it globally.
// Unknown levels are ignored and the default stays in effect.
func Setup(lvl string) {
	if parsed, err := zerolog.ParseLevel(lvl); err == nil {
		zerolog.SetGlobalLevel(parsed)
	}
}

func Debug(msg string, v ...interface{}) {
	log.Debug().Msg(fmt.Sprintf(msg, v...))
}

func Info(msg string, v ...interface{}) {
	log.Info().Msg(fmt.Sprintf(msg, v...))
}

func Warn(msg string, v ...interface{}) {
	log.Warn().Msg(fmt.Sprintf(msg, v...))
}

func Error(msg string, v ...interface{}) {
	log.Error().Msg(fmt.Sprintf(msg, v...))
}
