package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"doc-analyzer/internal/domain"

	"github.com/rs/zerolog"
)

// Options controls how log lines are written.
type Options struct {
	Level   string
	Format  string // json or console
	Output  io.Writer
	Service string
}

// AppLogger implements the domain.Logger interface on top of zerolog.
type AppLogger struct {
	zl zerolog.Logger
}

// NewLogger creates a JSON logger on stdout at the given level.
func NewLogger(levelStr string) domain.Logger {
	return New(Options{Level: levelStr})
}

// New creates a logger from options.
func New(opts Options) *AppLogger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	service := opts.Service
	if service == "" {
		service = "doc-analyzer"
	}

	zl := zerolog.New(out).
		Level(parseLogLevel(opts.Level)).
		With().
		Timestamp().
		Str("service", service).
		Logger()

	return &AppLogger{zl: zl}
}

// Info logs an info message
func (l *AppLogger) Info(msg string, fields ...interface{}) {
	withFields(l.zl.Info(), fields).Msg(msg)
}

// Error logs an error message
func (l *AppLogger) Error(msg string, err error, fields ...interface{}) {
	withFields(l.zl.Error().Err(err), fields).Msg(msg)
}

// Debug logs a debug message
func (l *AppLogger) Debug(msg string, fields ...interface{}) {
	withFields(l.zl.Debug(), fields).Msg(msg)
}

// Warn logs a warning message
func (l *AppLogger) Warn(msg string, fields ...interface{}) {
	withFields(l.zl.Warn(), fields).Msg(msg)
}

// withFields attaches key/value pairs; a trailing key without a value is dropped.
func withFields(evt *zerolog.Event, fields []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		switch v := fields[i+1].(type) {
		case error:
			evt = evt.AnErr(key, v)
		case string:
			evt = evt.Str(key, v)
		case fmt.Stringer:
			evt = evt.Stringer(key, v)
		default:
			evt = evt.Interface(key, v)
		}
	}
	return evt
}

// parseLogLevel converts string log level to a zerolog level
func parseLogLevel(levelStr string) zerolog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
