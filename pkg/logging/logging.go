// Package logging builds the service logger: structured entries flow through
// ectologger and land in a zap core for encoding and level handling.
package logging

import (
	"github.com/Gobusters/ectologger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates the service logger. pretty switches to the console encoder for
// local development.
func New(appName, level string, pretty bool) (ectologger.Logger, *zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if pretty {
		zcfg = zap.NewDevelopmentConfig()
	}
	if parsed, err := zapcore.ParseLevel(level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(parsed)
	}

	zlog, err := zcfg.Build(zap.Fields(zap.String("app", appName)))
	if err != nil {
		return nil, nil, err
	}

	logger := ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		zlog.Info("log", zap.Any("entry", msg))
	})

	return logger, zlog, nil
}

// NewNop creates a logger that discards everything, for tests
func NewNop() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}
