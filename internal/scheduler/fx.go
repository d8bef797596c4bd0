package scheduler

import (
	"context"

	"go.uber.org/fx"

	"github.com/shopbooks/shopbooks/internal/config"
)

var Module = fx.Module("scheduler",
	fx.Provide(provideConfig),
	fx.Provide(NewWorker),
	fx.Invoke(runWorker),
)

func provideConfig(cfg config.Config) Config {
	return Config{
		PollInterval: cfg.Scheduler.PollInterval,
		BatchSize:    cfg.Scheduler.BatchSize,
	}
}

func runWorker(lc fx.Lifecycle, cfg config.Config, worker *Worker) {
	if !cfg.Scheduler.Enabled {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go worker.RunForever(ctx)
			return nil
		},
	})
}
