// Package monitoring provides the production logger and the Prometheus
// metrics surface.
package monitoring

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/config"
	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/logger"
)

// zapLogger adapts zap to the logger.Logger interface.
type zapLogger struct {
	z *zap.Logger
}

// NewLogger builds the production logger from configuration. Format "console"
// gives human-readable output for local development; anything else is JSON.
func NewLogger(cfg *config.LogConfig) (logger.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	z, err := zapCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &zapLogger{z: z}, nil
}

func (l *zapLogger) Debug(ctx context.Context, msg string, fields ...logger.Fields) {
	l.z.Debug(msg, flatten(fields)...)
}

func (l *zapLogger) Info(ctx context.Context, msg string, fields ...logger.Fields) {
	l.z.Info(msg, flatten(fields)...)
}

func (l *zapLogger) Warn(ctx context.Context, msg string, fields ...logger.Fields) {
	l.z.Warn(msg, flatten(fields)...)
}

func (l *zapLogger) Error(ctx context.Context, msg string, err error, fields ...logger.Fields) {
	l.z.Error(msg, append(flatten(fields), zap.Error(err))...)
}

func (l *zapLogger) Fatal(ctx context.Context, msg string, err error, fields ...logger.Fields) {
	l.z.Fatal(msg, append(flatten(fields), zap.Error(err))...)
}

func (l *zapLogger) WithFields(fields logger.Fields) logger.Logger {
	return &zapLogger{z: l.z.With(flatten([]logger.Fields{fields})...)}
}

func (l *zapLogger) WithComponent(component string) logger.Logger {
	return &zapLogger{z: l.z.With(zap.String("component", component))}
}

func flatten(fields []logger.Fields) []zap.Field {
	var out []zap.Field
	for _, bag := range fields {
		for k, v := range bag {
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}
