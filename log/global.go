package log

import (
	"github.com/rs/zerolog"
)

var (
	L *Logger
)

// SetGlobalLogger replaces L; nil is ignored.
func SetGlobalLogger(logger *Logger) {
	if logger != nil {
		L = logger
	}
}

func Debug() *zerolog.Event {
	return L.Debug()
}

func Info() *zerolog.Event {
	return L.Info()
}

func Warn() *zerolog.Event {
	return L.Warn()
}

func Error() *zerolog.Event {
	return L.Error().Stack()
}

func Infof(format string, args ...any) {
	L.Info().Msgf(format, args...)
}

func Errorf(format string, args ...any) {
	L.Error().Stack().Msgf(format, args...)
}
