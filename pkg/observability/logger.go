package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) String() string {
	return []string{"DEBUG", "INFO", "WARN", "ERROR"}[l]
}

func (l LogLevel) toSlogLevel() slog.Level {
	switch l {
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLogLevel parses a textual level ("debug", "info", "warn", "error"),
// defaulting to InfoLevel for unknown values.
func ParseLogLevel(s string) LogLevel {
	switch s {
	case "debug", "DEBUG":
		return DebugLevel
	case "warn", "WARN", "warning":
		return WarnLevel
	case "error", "ERROR":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Logger provides structured JSON logging for the content store.
type Logger struct {
	logger *slog.Logger
	level  LogLevel
}

// NewLogger creates a new structured logger writing JSON to output.
func NewLogger(level LogLevel, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}
	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: level.toSlogLevel(),
	})
	return &Logger{logger: slog.New(handler), level: level}
}

// WithField returns a logger with an additional field attached to every message.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{logger: l.logger.With(key, value), level: l.level}
}

// WithFields returns a logger with multiple additional fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{logger: l.logger.With(args...), level: l.level}
}

// WithError attaches an error field. A nil error returns the logger unchanged.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

func (l *Logger) Debug(msg string)               { l.logger.Debug(msg) }
func (l *Logger) Info(msg string)                { l.logger.Info(msg) }
func (l *Logger) Warn(msg string)                { l.logger.Warn(msg) }
func (l *Logger) Error(msg string)               { l.logger.Error(msg) }
func (l *Logger) Debugf(format string, a ...any) { l.logger.Debug(fmt.Sprintf(format, a...)) }
func (l *Logger) Infof(format string, a ...any)  { l.logger.Info(fmt.Sprintf(format, a...)) }
func (l *Logger) Warnf(format string, a ...any)  { l.logger.Warn(fmt.Sprintf(format, a...)) }
func (l *Logger) Errorf(format string, a ...any) { l.logger.Error(fmt.Sprintf(format, a...)) }

type contextKey string

const (
	// RequestIDKey is the context key carrying the request correlation id.
	RequestIDKey contextKey = "request_id"
	// LoggerKey is the context key carrying the request-scoped logger.
	LoggerKey contextKey = "logger"
)

// WithRequestID stores a request correlation id on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request correlation id, or "" if absent.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithLogger stores a logger on the context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext returns the context's logger annotated with the request id,
// falling back to a default stdout logger.
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(LoggerKey).(*Logger)
	if !ok {
		logger = NewLogger(InfoLevel, os.Stdout)
	}
	if id := GetRequestID(ctx); id != "" {
		logger = logger.WithField("req_id", id)
	}
	return logger
}
