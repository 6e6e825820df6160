package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

type Level int

const (
	Error Level = iota
	Warn
	Info
	Debug
)

// LevelIds maps levels to their command line spellings.
var LevelIds = map[Level][]string{
	Error: {"error"},
	Warn:  {"warn", "warning"},
	Info:  {"info"},
	Debug: {"debug"},
}

func (l Level) String() string {
	if ids, ok := LevelIds[l]; ok {
		return ids[0]
	}
	return fmt.Sprintf("level(%d)", int(l))
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case Error:
		return zerolog.ErrorLevel
	case Warn:
		return zerolog.WarnLevel
	case Debug:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

type Config struct {
	Level  Level
	Format Format
	Output io.Writer // defaults to os.Stderr
}

type Logger struct {
	log zerolog.Logger
}

func NewLogger(config Config) *Logger {
	w := config.Output
	if w == nil {
		w = os.Stderr
	}

	var log zerolog.Logger
	switch config.Format {
	case FormatJSON:
		log = zerolog.New(w).With().Timestamp().Logger()
	default:
		log = zerolog.New(zerolog.ConsoleWriter{
			Out:          w,
			NoColor:      true,
			PartsExclude: []string{zerolog.TimestampFieldName},
		})
	}

	return &Logger{log: log.Level(config.Level.zerolog())}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{log: zerolog.Nop()}
}

// With returns a child logger that annotates every event with key=value.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{log: l.log.With().Str(key, value).Logger()}
}

func (l *Logger) Debugf(f string, a ...any) {
	l.log.Debug().Msgf(f, a...)
}

func (l *Logger) Infof(f string, a ...any) {
	l.log.Info().Msgf(f, a...)
}

func (l *Logger) Warnf(f string, a ...any) {
	l.log.Warn().Msgf(f, a...)
}

func (l *Logger) Errorf(f string, a ...any) {
	l.log.Error().Msgf(f, a...)
}
