// Package ccdlog builds named zap.SugaredLoggers for the CCD components: a
// console encoder, ISO8601 timestamps, and a short caller.
package ccdlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a *zap.SugaredLogger named for the given component
// ("broadphase", "toi", "newton", ...), logging to stderr at Info level.
func New(component string) *zap.SugaredLogger {
	logger, err := zap.Config{
		Level:    zap.NewAtomicLevelAt(zap.InfoLevel),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}.Build()
	if err != nil {
		// Building the console encoder from a literal config cannot fail in
		// practice; fall back to zap's own default rather than propagate a
		// constructor error through every CCD component.
		fallback := zap.NewExample()
		return fallback.Sugar().Named(component)
	}
	return logger.Sugar().Named(component)
}

// NewNop returns a logger that discards everything, for tests that only want
// to satisfy the *zap.SugaredLogger dependency.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
