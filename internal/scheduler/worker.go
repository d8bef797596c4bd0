package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/shopbooks/shopbooks/internal/clock"
	"github.com/shopbooks/shopbooks/internal/observability/metrics"
	recurringdomain "github.com/shopbooks/shopbooks/internal/recurring/domain"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Clock     clock.Clock
	Recurring recurringdomain.Service
	Config    Config `optional:"true"`
}

// Worker periodically materializes due recurring transactions. The worker
// itself holds no state; the execution table's unique index makes concurrent
// workers safe.
type Worker struct {
	log       *zap.Logger
	clock     clock.Clock
	recurring recurringdomain.Service
	cfg       Config
	metrics   *metrics.SchedulerMetrics
}

func NewWorker(p Params) *Worker {
	return &Worker{
		log:       p.Log.Named("scheduler"),
		clock:     p.Clock,
		recurring: p.Recurring,
		cfg:       p.Config.withDefaults(),
		metrics:   metrics.Scheduler(),
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) RunOnce(ctx context.Context) error {
	if w.recurring == nil {
		return errors.New("scheduler_unavailable")
	}

	start := time.Now()
	report, err := w.recurring.RunDue(ctx, w.clock.Now(), w.cfg.BatchSize)
	if err != nil {
		return err
	}
	w.metrics.ObserveRun(time.Since(start), report.Executed, report.Failed, report.AlreadyDone)
	if report.Executed > 0 || report.Failed > 0 {
		w.log.Info("scheduler pass complete",
			zap.Int("templates", report.TemplatesSeen),
			zap.Int("executed", report.Executed),
			zap.Int("failed", report.Failed),
			zap.Int("already_done", report.AlreadyDone),
		)
	}
	return nil
}
