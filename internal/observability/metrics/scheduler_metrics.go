package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SchedulerMetrics tracks recurring-transaction worker passes.
type SchedulerMetrics struct {
	runsTotal       prometheus.Counter
	runDuration     prometheus.Histogram
	executionsTotal *prometheus.CounterVec
}

var (
	schedulerMetricsOnce sync.Once
	schedulerMetrics     *SchedulerMetrics
)

func Scheduler() *SchedulerMetrics {
	return SchedulerWithConfig(Config{})
}

func SchedulerWithConfig(cfg Config) *SchedulerMetrics {
	schedulerMetricsOnce.Do(func() {
		schedulerMetrics = newSchedulerMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return schedulerMetrics
}

func ResetSchedulerMetricsForTest() {
	schedulerMetricsOnce = sync.Once{}
	schedulerMetrics = nil
}

func newSchedulerMetrics(registerer prometheus.Registerer, cfg Config) *SchedulerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := cfg.constLabels()

	runsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "recurring_scheduler_runs_total",
		Help:        "Completed scheduler passes.",
		ConstLabels: constLabels,
	})
	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "recurring_scheduler_run_duration_ms",
		Help:        "Scheduler pass duration in milliseconds.",
		Buckets:     []float64{10, 50, 100, 500, 1000, 5000, 15000, 60000},
		ConstLabels: constLabels,
	})
	executionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "recurring_executions_total",
			Help:        "Recurring transaction executions by outcome.",
			ConstLabels: constLabels,
		},
		[]string{"outcome"},
	)
	registerer.MustRegister(runsTotal, runDuration, executionsTotal)

	return &SchedulerMetrics{
		runsTotal:       runsTotal,
		runDuration:     runDuration,
		executionsTotal: executionsTotal,
	}
}

// ObserveRun records one scheduler pass and its per-outcome execution counts.
func (m *SchedulerMetrics) ObserveRun(duration time.Duration, executed, failed, alreadyDone int) {
	if m == nil {
		return
	}
	m.runsTotal.Inc()
	m.runDuration.Observe(float64(duration.Milliseconds()))
	m.executionsTotal.WithLabelValues("executed").Add(float64(executed))
	m.executionsTotal.WithLabelValues("failed").Add(float64(failed))
	m.executionsTotal.WithLabelValues("already_done").Add(float64(alreadyDone))
}
