// Package logger provides component-tagged structured logging on zerolog.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the logging surface used by the deconvolution packages.
type Logger interface {
	Debug(component, message string, fields map[string]interface{})
	Info(component, message string, fields map[string]interface{})
	Warning(component, message string, fields map[string]interface{})
	Error(component string, err error, fields map[string]interface{})
}

// ZerologAdapter implements Logger on a zerolog.Logger.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// New writes JSON lines to writer at the given level.
func New(writer io.Writer, level zerolog.Level) *ZerologAdapter {
	logger := zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger()

	return &ZerologAdapter{logger: logger}
}

// NewConsole writes human-readable lines to stderr.
func NewConsole(level zerolog.Level) *ZerologAdapter {
	return New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}, level)
}

// Nop discards everything.
func Nop() *ZerologAdapter {
	return &ZerologAdapter{logger: zerolog.Nop()}
}

// ParseLevel accepts zerolog level names plus "warning".
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

func (z *ZerologAdapter) Info(component, message string, fields map[string]interface{}) {
	z.emit(z.logger.Info(), component, fields).Msg(message)
}

func (z *ZerologAdapter) Warning(component, message string, fields map[string]interface{}) {
	z.emit(z.logger.Warn(), component, fields).Msg(message)
}

func (z *ZerologAdapter) Debug(component, message string, fields map[string]interface{}) {
	z.emit(z.logger.Debug(), component, fields).Msg(message)
}

func (z *ZerologAdapter) Error(component string, err error, fields map[string]interface{}) {
	z.emit(z.logger.Error().Err(err), component, fields).Msg("operation failed")
}

func (z *ZerologAdapter) emit(event *zerolog.Event, component string, fields map[string]interface{}) *zerolog.Event {
	event = event.Str("component", component)
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	return event
}
