// Package klog provides the kernel's structured logger.
//
// It wraps zerolog the same way the teacher's pkg/reporting.Logger wrapped
// it, generalized with per-domain and per-call fields (domain id via
// WithDomain, call id via WithCall) instead of per-test fields.
package klog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level mirrors the teacher's reporting.LogLevel.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format mirrors the teacher's reporting.LogFormat.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config configures a Logger.
type Config struct {
	Level  Level
	Format Format
	Output io.Writer
}

// Logger is the kernel-wide structured logger.
type Logger struct {
	z zerolog.Logger
}

// New creates a new structured logger.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	var output io.Writer = cfg.Output
	if cfg.Format == FormatText {
		output = zerolog.ConsoleWriter{
			Out:        cfg.Output,
			TimeFormat: time.RFC3339,
			NoColor:    false,
		}
	}

	z := zerolog.New(output).With().Timestamp().Logger()

	switch cfg.Level {
	case LevelDebug:
		z = z.Level(zerolog.DebugLevel)
	case LevelWarn:
		z = z.Level(zerolog.WarnLevel)
	case LevelError:
		z = z.Level(zerolog.ErrorLevel)
	default:
		z = z.Level(zerolog.InfoLevel)
	}

	return &Logger{z: z}
}

// Nop returns a logger that discards everything, for tests.
func Nop() *Logger {
	return &Logger{z: zerolog.Nop()}
}

// WithDomain returns a child logger tagged with a domain id.
func (l *Logger) WithDomain(domainID uint64) *Logger {
	return &Logger{z: l.z.With().Uint64("domain_id", domainID).Logger()}
}

// WithCall returns a child logger tagged with a cross-domain call id.
func (l *Logger) WithCall(callID string) *Logger {
	return &Logger{z: l.z.With().Str("call_id", callID).Logger()}
}

func (l *Logger) Debug(msg string, fields map[string]any) { l.event(l.z.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields map[string]any)  { l.event(l.z.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields map[string]any)  { l.event(l.z.Warn(), msg, fields) }
func (l *Logger) Error(msg string, err error, fields map[string]any) {
	e := l.z.Error()
	if err != nil {
		e = e.Err(err)
	}
	l.event(e, msg, fields)
}

func (l *Logger) event(e *zerolog.Event, msg string, fields map[string]any) {
	if len(fields) > 0 {
		e = e.Fields(fields)
	}
	e.Msg(msg)
}
