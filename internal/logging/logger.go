// Package logging provides structured logging with trace IDs, backed by
// log/slog.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Logger is the structured logging interface used across the pipeline.
// Fields are alternating key/value pairs.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})

	DebugContext(ctx context.Context, msg string, fields ...interface{})
	InfoContext(ctx context.Context, msg string, fields ...interface{})
	WarnContext(ctx context.Context, msg string, fields ...interface{})
	ErrorContext(ctx context.Context, msg string, fields ...interface{})

	WithTraceID(traceID string) Logger
	WithComponent(component string) Logger
}

// LogLevel represents logging levels.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// ParseLogLevel maps a level name to a LogLevel, defaulting to INFO.
func ParseLogLevel(level string) LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

func (l LogLevel) slog() slog.Level {
	switch l {
	case DEBUG:
		return slog.LevelDebug
	case WARN:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type contextKey string

// TraceIDKey is the context key carrying the request trace id.
const TraceIDKey contextKey = "trace_id"

// StructuredLogger implements Logger on top of slog.
type StructuredLogger struct {
	base *slog.Logger
}

// NewLogger creates a structured logger at the given level. Output is JSON
// unless LOG_FORMAT=text.
func NewLogger(level LogLevel) Logger {
	return NewLoggerWithFormat(level, os.Getenv("LOG_FORMAT"))
}

// NewLoggerWithFormat creates a structured logger with an explicit output
// format, "json" or "text".
func NewLoggerWithFormat(level LogLevel, format string) Logger {
	opts := &slog.HandlerOptions{Level: level.slog()}
	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return &StructuredLogger{base: slog.New(handler)}
}

// WithTraceID returns a copy of the logger bound to a trace id.
func (l *StructuredLogger) WithTraceID(traceID string) Logger {
	return &StructuredLogger{base: l.base.With("trace_id", traceID)}
}

// WithComponent returns a copy of the logger bound to a component name.
func (l *StructuredLogger) WithComponent(component string) Logger {
	return &StructuredLogger{base: l.base.With("component", component)}
}

func (l *StructuredLogger) Debug(msg string, fields ...interface{}) {
	l.base.Debug(msg, fields...)
}

func (l *StructuredLogger) Info(msg string, fields ...interface{}) {
	l.base.Info(msg, fields...)
}

func (l *StructuredLogger) Warn(msg string, fields ...interface{}) {
	l.base.Warn(msg, fields...)
}

func (l *StructuredLogger) Error(msg string, fields ...interface{}) {
	l.base.Error(msg, fields...)
}

func (l *StructuredLogger) DebugContext(ctx context.Context, msg string, fields ...interface{}) {
	l.forContext(ctx).DebugContext(ctx, msg, fields...)
}

func (l *StructuredLogger) InfoContext(ctx context.Context, msg string, fields ...interface{}) {
	l.forContext(ctx).InfoContext(ctx, msg, fields...)
}

func (l *StructuredLogger) WarnContext(ctx context.Context, msg string, fields ...interface{}) {
	l.forContext(ctx).WarnContext(ctx, msg, fields...)
}

func (l *StructuredLogger) ErrorContext(ctx context.Context, msg string, fields ...interface{}) {
	l.forContext(ctx).ErrorContext(ctx, msg, fields...)
}

// forContext attaches the context's trace id, if any.
func (l *StructuredLogger) forContext(ctx context.Context) *slog.Logger {
	if traceID := GetTraceID(ctx); traceID != "" {
		return l.base.With("trace_id", traceID)
	}
	return l.base
}

var defaultLogger = NewLogger(INFO)

// SetDefaultLogger replaces the package-level default logger.
func SetDefaultLogger(logger Logger) {
	defaultLogger = logger
}

// Package-level convenience functions.

func Debug(msg string, fields ...interface{}) { defaultLogger.Debug(msg, fields...) }
func Info(msg string, fields ...interface{})  { defaultLogger.Info(msg, fields...) }
func Warn(msg string, fields ...interface{})  { defaultLogger.Warn(msg, fields...) }
func Error(msg string, fields ...interface{}) { defaultLogger.Error(msg, fields...) }

// WithComponent returns a child of the default logger bound to a component.
func WithComponent(component string) Logger {
	return defaultLogger.WithComponent(component)
}

// GenerateTraceID returns a fresh trace id.
func GenerateTraceID() string {
	return uuid.New().String()
}

// WithTraceID stores a trace id in the context, minting one if empty.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		traceID = GenerateTraceID()
	}
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID extracts the trace id from the context, if any.
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}
