package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bundlehub/internal/config"
)

// New builds the process-wide sugared logger from the Log config block.
func New(cfg config.Log, envName string) (*zap.SugaredLogger, error) {
	if envName == "development" || cfg.Format == "console" {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		return l.Sugar(), nil
	}

	zc := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(cfg.Level); err == nil {
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	l, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
