package main

import (
	"context"

	"go.uber.org/zap"

	config "github.com/NordCoder/Credgate/internal/config/api-gateway"
	"github.com/NordCoder/Credgate/internal/obs"
)

func initOTel(ctx context.Context, cfg *config.Config, logger *zap.Logger) (obs.ShutdownFunc, error) {
	shutdown, err := obs.SetupOTel(ctx, cfg.OTELConfig())
	if err != nil {
		return nil, err
	}
	if cfg.OTEL.Enable {
		logger.Info("tracing enabled",
			zap.String("endpoint", cfg.OTEL.OTLPEndpoint),
			zap.Float64("sample_ratio", cfg.OTEL.SampleRatio),
		)
	}
	return shutdown, nil
}

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := obs.NewLogger(cfg.LogConfig())
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}
