// Package logger provides structured logging for seaschema.
//
// Components never reach for a global: they receive a *zap.Logger at
// construction. The process-wide logger built here is what cmd/seaschema
// hands to them.
package logger

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger *zap.Logger
	mu           sync.Mutex
)

// contextKey is the type for context keys
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// ConnectorKey is the context key for connector name
	ConnectorKey contextKey = "connector"
)

// Config represents logger configuration
type Config struct {
	Level       string
	Development bool
	Encoding    string // json or console
	OutputPaths []string
}

// DefaultConfig returns info level json logging to stderr.
func DefaultConfig() Config {
	return Config{
		Level:       "info",
		Encoding:    "json",
		OutputPaths: []string{"stderr"},
	}
}

// New creates a zap logger from the configuration
func New(cfg Config) (*zap.Logger, error) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if cfg.Development {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	encoding := cfg.Encoding
	if encoding == "" {
		encoding = "json"
	}

	outputPaths := cfg.OutputPaths
	if len(outputPaths) == 0 {
		outputPaths = []string{"stderr"}
	}

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Development,
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	if cfg.Development {
		logger = logger.WithOptions(zap.AddStacktrace(zapcore.ErrorLevel))
	}

	return logger, nil
}

// Init builds the process logger and installs it as the default.
func Init(cfg Config) error {
	logger, err := New(cfg)
	if err != nil {
		return err
	}
	mu.Lock()
	globalLogger = logger
	mu.Unlock()
	return nil
}

// Get returns the process logger, building a default one on first use.
func Get() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger == nil {
		logger, err := New(DefaultConfig())
		if err != nil {
			logger = zap.NewNop()
		}
		globalLogger = logger
	}
	return globalLogger
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// WithConnector stores the connector name on the context for FromContext.
func WithConnector(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ConnectorKey, name)
}

// FromContext decorates l with the values carried by ctx
func FromContext(ctx context.Context, l *zap.Logger) *zap.Logger {
	l = OrNop(l)

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		l = l.With(zap.String("request_id", requestID))
	}

	if connector, ok := ctx.Value(ConnectorKey).(string); ok {
		l = l.With(zap.String("connector", connector))
	}

	return l
}

// Sync flushes any buffered log entries
func Sync() error {
	mu.Lock()
	defer mu.Unlock()
	if globalLogger != nil {
		return globalLogger.Sync()
	}
	return nil
}
