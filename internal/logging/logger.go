package logging

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the structured logger.
type Options struct {
	Component string
	Level     zerolog.Level
	Format    string
	Output    io.Writer
}

// Logger wraps zerolog with context-carried fields.
type Logger struct {
	base *zerolog.Logger
}

type ctxKey struct{}

// New builds a Logger writing to opts.Output (stderr when nil).
func New(opts Options) *Logger {
	if opts.Level == zerolog.NoLevel {
		opts.Level = zerolog.InfoLevel
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}
	if opts.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "15:04:05",
			NoColor:    true,
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	logger := zerolog.
		New(output).
		With().
		Timestamp().
		Str("component", opts.Component).
		Logger().
		Level(opts.Level)

	return &Logger{base: &logger}
}

// NewFile opens (appending) the log file at path and returns a Logger
// writing to it, plus the file so the caller can close it on shutdown.
// The TUI owns the terminal, so logs never go to stdout.
func NewFile(path string, opts Options) (*Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file %s: %w", path, err)
	}
	opts.Output = f
	return New(opts), f, nil
}

// Nop returns a Logger that discards everything. Handy in tests.
func Nop() *Logger {
	logger := zerolog.Nop()
	return &Logger{base: &logger}
}

// ParseLevel converts a level name, defaulting to info.
func ParseLevel(value string) zerolog.Level {
	levelString := strings.ToLower(strings.TrimSpace(value))
	if levelString == "" {
		return zerolog.InfoLevel
	}
	if lvl, err := zerolog.ParseLevel(levelString); err == nil && lvl != zerolog.NoLevel {
		return lvl
	}
	return zerolog.InfoLevel
}

// field is one context-carried key/value pair. Context fields are kept
// apart from any logger so each component emits them under its own base.
type field struct {
	key   string
	value any
}

func fieldsFrom(ctx context.Context) []field {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(ctxKey{}).([]field)
	return fields
}

func withFields(ctx context.Context, extra ...field) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	prev := fieldsFrom(ctx)
	fields := make([]field, 0, len(prev)+len(extra))
	fields = append(fields, prev...)
	fields = append(fields, extra...)
	return context.WithValue(ctx, ctxKey{}, fields)
}

// fromContext layers the ctx fields onto the receiver's own logger.
func (l *Logger) fromContext(ctx context.Context) *zerolog.Logger {
	fields := fieldsFrom(ctx)
	if len(fields) == 0 {
		return l.base
	}
	builder := l.base.With()
	for _, f := range fields {
		builder = builder.Interface(f.key, f.value)
	}
	entry := builder.Logger()
	return &entry
}

// With returns a child Logger with an extra static field.
func (l *Logger) With(key string, value any) *Logger {
	child := l.base.With().Interface(key, value).Logger()
	return &Logger{base: &child}
}

// WithField returns ctx carrying one more field.
func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return withFields(ctx, field{key: key, value: value})
}

// WithFields returns ctx carrying extra fields, added in key order.
func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	keys := slices.Sorted(maps.Keys(fields))
	extra := make([]field, 0, len(keys))
	for _, k := range keys {
		extra = append(extra, field{key: k, value: fields[k]})
	}
	return withFields(ctx, extra...)
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	l.fromContext(ctx).Debug().Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	l.fromContext(ctx).Info().Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string, err error) {
	event := l.fromContext(ctx).Warn()
	if err != nil {
		event = event.Err(err)
	}
	event.Msg(msg)
}

func (l *Logger) Error(ctx context.Context, msg string, err error) {
	event := l.fromContext(ctx).Error()
	if err != nil {
		event = event.Err(err)
	}
	event.Msg(msg)
}
