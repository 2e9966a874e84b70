package logger

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds configuration for the logger
type Config struct {
	Environment string
	LogLevel    string
	ServiceName string
}

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	// correlationIDKey is the context key for the per-invocation correlation id
	correlationIDKey = contextKey("correlation_id")
)

// New creates a new logger with the given configuration
func New(cfg Config) *zap.Logger {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.EpochNanosTimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	config := zap.Config{
		Level:            getLogLevel(cfg.LogLevel),
		Development:      cfg.Environment == "development",
		Encoding:         "json",
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	log, err := config.Build(
		zap.AddCallerSkip(1),
	)
	if err != nil {
		panic(err)
	}

	return log.With(
		zap.String("service", cfg.ServiceName),
		zap.String("environment", cfg.Environment),
	)
}

// FromContext creates a logger carrying the correlation id from context, if any.
func FromContext(ctx context.Context, baseLogger *zap.Logger) *zap.Logger {
	if id, ok := ctx.Value(correlationIDKey).(string); ok && id != "" {
		return baseLogger.With(zap.String("correlation_id", id))
	}
	return baseLogger
}

// WithCorrelationID adds a correlation id to the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationID returns the correlation id stored in the context, or "".
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// getLogLevel converts a string log level to zap.AtomicLevel
func getLogLevel(level string) zap.AtomicLevel {
	switch level {
	case "debug":
		return zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "info":
		return zap.NewAtomicLevelAt(zapcore.InfoLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
}
