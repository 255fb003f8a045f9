package app

import (
	"fmt"

	"github.com/conceptrag/conceptrag/internal/config"
	"github.com/conceptrag/conceptrag/internal/logging"
	"go.uber.org/zap/zapcore"
)

// loggingConfig translates the observability section of the top-level
// config into internal/logging's own Config shape.
func loggingConfig(cfg *config.ObservabilityConfig) *logging.Config {
	lc := logging.NewDefaultConfig()

	if cfg.ServiceName != "" {
		lc.Fields["service"] = cfg.ServiceName
	}
	if cfg.LogFormat != "" {
		lc.Format = cfg.LogFormat
	}

	if cfg.LogLevel != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(cfg.LogLevel)); err == nil {
			lc.Level = level
		}
	}

	return lc
}

func newLogger(cfg *config.ObservabilityConfig) (*logging.Logger, error) {
	logger, err := logging.NewLogger(loggingConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("constructing logger: %w", err)
	}
	return logger, nil
}
