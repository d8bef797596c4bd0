package tracing

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/shopbooks/shopbooks/internal/config"
)

var Module = fx.Module("tracing",
	fx.Invoke(func(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) error {
		_, err := NewProvider(lc, Config{
			Enabled:          cfg.Tracing.Enabled,
			ServiceName:      "shopbooks",
			ServiceVersion:   "dev",
			Environment:      cfg.Environment,
			ExporterEndpoint: cfg.Tracing.ExporterEndpoint,
			ExporterProtocol: cfg.Tracing.ExporterProtocol,
			SamplingRatio:    cfg.Tracing.SamplingRatio,
		}, log)
		return err
	}),
)
