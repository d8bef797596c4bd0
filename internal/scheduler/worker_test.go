package scheduler

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/shopbooks/shopbooks/internal/clock"
	recurringdomain "github.com/shopbooks/shopbooks/internal/recurring/domain"
)

type stubRecurring struct {
	recurringdomain.Service

	calls   []time.Time
	batches []int
	report  recurringdomain.RunReport
}

func (s *stubRecurring) RunDue(ctx context.Context, now time.Time, batchSize int) (recurringdomain.RunReport, error) {
	s.calls = append(s.calls, now)
	s.batches = append(s.batches, batchSize)
	return s.report, nil
}

func TestRunOncePassesClockTimeAndBatchSize(t *testing.T) {
	at := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	stub := &stubRecurring{report: recurringdomain.RunReport{TemplatesSeen: 3, Executed: 2}}

	worker := NewWorker(Params{
		Log:       zap.NewNop(),
		Clock:     clock.Fixed(at),
		Recurring: stub,
		Config:    Config{PollInterval: time.Minute, BatchSize: 25},
	})
	if err := worker.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	if len(stub.calls) != 1 {
		t.Fatalf("RunDue calls = %d, want 1", len(stub.calls))
	}
	if !stub.calls[0].Equal(at) {
		t.Fatalf("RunDue now = %s, want %s", stub.calls[0], at)
	}
	if stub.batches[0] != 25 {
		t.Fatalf("RunDue batch size = %d, want 25", stub.batches[0])
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.PollInterval != time.Minute {
		t.Fatalf("poll interval = %s, want 1m", cfg.PollInterval)
	}
	if cfg.BatchSize != 100 {
		t.Fatalf("batch size = %d, want 100", cfg.BatchSize)
	}

	cfg = Config{PollInterval: time.Second, BatchSize: 5}.withDefaults()
	if cfg.PollInterval != time.Second || cfg.BatchSize != 5 {
		t.Fatalf("explicit config overridden: %+v", cfg)
	}
}
