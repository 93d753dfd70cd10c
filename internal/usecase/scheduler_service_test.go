package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Diego23-co/GoPredict/internal/platform/logging"
)

func TestScheduler_RunExclusiveSkipsOverlap(t *testing.T) {
	t.Parallel()

	s := NewSchedulerService(nil, nil, SchedulerConfig{}, logging.NewNop())

	var runs atomic.Int64
	release := make(chan struct{})
	started := make(chan struct{})

	var inFlight atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.runExclusive(context.Background(), "slow-job", &inFlight, func(context.Context) {
			runs.Add(1)
			close(started)
			<-release
		})
	}()

	<-started
	// Second invocation while the first is still running must be dropped.
	s.runExclusive(context.Background(), "slow-job", &inFlight, func(context.Context) {
		runs.Add(1)
	})
	close(release)
	wg.Wait()

	if got := runs.Load(); got != 1 {
		t.Fatalf("expected the overlapping run to be skipped, got %d runs", got)
	}

	// Once the first run finished, the guard is released.
	s.runExclusive(context.Background(), "slow-job", &inFlight, func(context.Context) {
		runs.Add(1)
	})
	if got := runs.Load(); got != 2 {
		t.Fatalf("expected a fresh run after release, got %d runs", got)
	}
}

func TestScheduler_RunExclusiveRecoversPanics(t *testing.T) {
	t.Parallel()

	s := NewSchedulerService(nil, nil, SchedulerConfig{}, logging.NewNop())
	var inFlight atomic.Bool

	s.runExclusive(context.Background(), "panicky-job", &inFlight, func(context.Context) {
		panic("boom")
	})

	if inFlight.Load() {
		t.Fatal("in-flight guard not released after panic")
	}
}

func TestScheduler_RejectsMalformedResetCron(t *testing.T) {
	t.Parallel()

	s := NewSchedulerService(nil, nil, SchedulerConfig{ResetCron: "not a cron"}, logging.NewNop())
	if err := s.Start(context.Background()); err == nil {
		s.Stop()
		t.Fatal("expected error for malformed cron expression")
	}
}

func TestScheduler_DefaultsAreApplied(t *testing.T) {
	t.Parallel()

	s := NewSchedulerService(nil, nil, SchedulerConfig{}, logging.NewNop())
	if s.cfg.ScoreInterval != 5*time.Minute {
		t.Fatalf("score interval default: %s", s.cfg.ScoreInterval)
	}
	if s.cfg.FixtureInterval != 10*time.Minute {
		t.Fatalf("fixture interval default: %s", s.cfg.FixtureInterval)
	}
	if s.cfg.ResetCron != "0 0 * * 1" {
		t.Fatalf("reset cron default: %s", s.cfg.ResetCron)
	}
}
