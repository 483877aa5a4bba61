package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	LevelCritical = slog.Level(12)

	serviceName = "ballot-app"
)

type Logger interface {
	Debug(message string, args ...any)
	Info(message string, args ...any)
	Warn(message string, args ...any)
	Error(message string, args ...any)
	Critical(message string, args ...any)
	// BusinessError logs a rejected request (duplicate vote, closed ballot) at WARN.
	BusinessError(message string, err error, args ...any)
	// InternalError logs a failure the caller could not cause at ERROR.
	InternalError(message string, err error, args ...any)
	With(args ...any) Logger
}

// Options is the LOG_* part of the process configuration.
type Options struct {
	Level  string `env:"LOG_LEVEL"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type slogLogger struct {
	base *slog.Logger
}

// NewFromEnv reads Options straight from the process environment. Used until
// the full configuration is loaded.
func NewFromEnv() Logger {
	var opts Options
	if err := env.Parse(&opts); err != nil {
		opts = Options{Format: "json"}
	}
	return NewWithOptions(os.Stdout, os.Getenv("ENV"), opts)
}

// NewWithOptions builds the service logger. An empty level defaults to debug
// in development and info elsewhere.
func NewWithOptions(output io.Writer, environment string, opts Options) Logger {
	level := parseLevel(opts.Level, normalizeValue(environment))
	return New(output, level, parseFormat(opts.Format)).With("service", serviceName)
}

func New(output io.Writer, level slog.Level, format string) Logger {
	options := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	}

	var handler slog.Handler
	switch normalizeValue(format) {
	case "json":
		handler = slog.NewJSONHandler(output, options)
	default:
		handler = slog.NewTextHandler(output, options)
	}

	return &slogLogger{base: slog.New(handler)}
}

// Discard drops everything.
func Discard() Logger {
	return New(io.Discard, LevelCritical+1, "text")
}

func (l *slogLogger) Debug(message string, args ...any) {
	l.base.Debug(message, args...)
}

func (l *slogLogger) Info(message string, args ...any) {
	l.base.Info(message, args...)
}

func (l *slogLogger) Warn(message string, args ...any) {
	l.base.Warn(message, args...)
}

func (l *slogLogger) Error(message string, args ...any) {
	l.base.Error(message, args...)
}

func (l *slogLogger) Critical(message string, args ...any) {
	l.base.Log(context.Background(), LevelCritical, message, args...)
}

func (l *slogLogger) BusinessError(message string, err error, args ...any) {
	if err == nil {
		return
	}
	l.base.Warn(message, errorAttrs(err, args)...)
}

func (l *slogLogger) InternalError(message string, err error, args ...any) {
	if err == nil {
		return
	}
	l.base.Error(message, errorAttrs(err, args)...)
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{base: l.base.With(args...)}
}

// coded is implemented by classified domain errors.
type coded interface {
	ErrorCode() string
}

// errorAttrs puts err first and, for classified errors, its code second so
// rejected votes can be counted by code in log queries.
func errorAttrs(err error, args []any) []any {
	attrs := make([]any, 0, len(args)+4)
	attrs = append(attrs, "err", err)
	var c coded
	if errors.As(err, &c) {
		attrs = append(attrs, "code", c.ErrorCode())
	}
	return append(attrs, args...)
}

func parseLevel(value string, environment string) slog.Level {
	switch normalizeValue(value) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "critical", "fatal":
		return LevelCritical
	case "info":
		return slog.LevelInfo
	default:
		if environment == "development" {
			return slog.LevelDebug
		}
		return slog.LevelInfo
	}
}

func parseFormat(value string) string {
	switch normalizeValue(value) {
	case "json", "text":
		return normalizeValue(value)
	default:
		return "json"
	}
}

func normalizeValue(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func replaceAttr(_ []string, attr slog.Attr) slog.Attr {
	if attr.Key != slog.LevelKey {
		return attr
	}

	level, ok := attr.Value.Any().(slog.Level)
	if !ok {
		return attr
	}

	if level == LevelCritical {
		attr.Value = slog.StringValue("CRITICAL")
	}
	return attr
}
