// Package logger provides structured logging for taskpdf
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with page cache specific helpers
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Pretty     bool   // human readable console output
	Output     io.Writer
	WithCaller bool
}

// New creates a structured logger. Unlike a server process the library
// never touches zerolog's global level; the level is set per logger.
func New(cfg Config) *Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	zlog := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("service", "taskpdf").
		Logger()

	if cfg.WithCaller {
		zlog = zlog.With().Caller().Logger()
	}

	return &Logger{zlog: zlog}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// FromZerolog wraps an existing zerolog logger.
func FromZerolog(z zerolog.Logger) *Logger {
	return &Logger{zlog: z}
}

// Zerolog returns the underlying zerolog logger
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zlog
}

// Component returns a logger tagged with a component name
func (l *Logger) Component(name string) *Logger {
	return &Logger{zlog: l.zlog.With().Str("component", name).Logger()}
}

// With returns a logger carrying an extra string field
func (l *Logger) With(key, value string) *Logger {
	return &Logger{zlog: l.zlog.With().Str(key, value).Logger()}
}

// Debug starts a debug level event
func (l *Logger) Debug() *zerolog.Event {
	return l.zlog.Debug()
}

// Info starts an info level event
func (l *Logger) Info() *zerolog.Event {
	return l.zlog.Info()
}

// Warn starts a warn level event
func (l *Logger) Warn() *zerolog.Event {
	return l.zlog.Warn()
}

// Error starts an error level event
func (l *Logger) Error() *zerolog.Event {
	return l.zlog.Error()
}

// LogMaterialize logs the creation of a page file from the source document
func (l *Logger) LogMaterialize(kind string, indices []int, path string, duration time.Duration, err error) {
	if err != nil {
		l.zlog.Error().
			Str("kind", kind).
			Ints("pages", indices).
			Dur("duration_ms", duration).
			Err(err).
			Msg("page materialization failed")
		return
	}

	l.zlog.Debug().
		Str("kind", kind).
		Ints("pages", indices).
		Str("path", path).
		Dur("duration_ms", duration).
		Msg("pages materialized")
}

// LogExtraction logs one layout extractor run
func (l *Logger) LogExtraction(path string, pageCount int, duration time.Duration, err error) {
	if err != nil {
		l.zlog.Error().
			Str("path", path).
			Dur("duration_ms", duration).
			Err(err).
			Msg("layout extraction failed")
		return
	}

	l.zlog.Debug().
		Str("path", path).
		Int("page_count", pageCount).
		Dur("duration_ms", duration).
		Msg("layout extraction completed")
}

// LogCache logs the hit/miss split of a layout lookup
func (l *Logger) LogCache(operation string, hits, misses int) {
	l.zlog.Debug().
		Str("operation", operation).
		Int("hits", hits).
		Int("misses", misses).
		Msg("layout cache lookup")
}
