package vkit

import (
	"github.com/vhttp/vhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a zap logger configured from the environment. Uses JSON
// encoding; VH_LOG_LEVEL controls the level (debug, info, warn, error).
func NewLogger(env Environment) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(env.logLevel())
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

type zapLogger struct{ *zap.Logger }

func (l zapLogger) LogUnhandledDispatchError(err error) {
	l.Logger.Error("unhandled dispatch error", zap.Error(err))
}

func (l zapLogger) LogFlushError(err error) {
	l.Logger.Error("error while flushing", zap.Error(err))
}

func newZapCoreLogger(l *zap.Logger) vhttp.Logger {
	return zapLogger{l.Named("vhttp").Named("vkit")}
}
