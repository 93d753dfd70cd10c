package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sourcegraph/conc"

	"github.com/Diego23-co/GoPredict/internal/platform/logging"
)

type SchedulerConfig struct {
	ScoreInterval   time.Duration
	FixtureInterval time.Duration
	ResetCron       string
	Location        *time.Location
}

// SchedulerService drives the two reconciliation jobs on independent
// tickers and the weekly ledger reset on a cron trigger. Jobs never
// block each other, and overlapping runs of the same job are skipped:
// at most one invocation of each job is in flight at any time.
type SchedulerService struct {
	feed        *FeedSyncService
	predictions *PredictionService
	cfg         SchedulerConfig
	logger      *logging.Logger

	cron   *cron.Cron
	wg     conc.WaitGroup
	cancel context.CancelFunc

	scoreInFlight   atomic.Bool
	fixtureInFlight atomic.Bool
	resetInFlight   atomic.Bool
}

func NewSchedulerService(
	feed *FeedSyncService,
	predictions *PredictionService,
	cfg SchedulerConfig,
	logger *logging.Logger,
) *SchedulerService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.ScoreInterval <= 0 {
		cfg.ScoreInterval = 5 * time.Minute
	}
	if cfg.FixtureInterval <= 0 {
		cfg.FixtureInterval = 10 * time.Minute
	}
	if cfg.ResetCron == "" {
		// Start of the first day of the week, local time.
		cfg.ResetCron = "0 0 * * 1"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	return &SchedulerService{
		feed:        feed,
		predictions: predictions,
		cfg:         cfg,
		logger:      logger,
	}
}

// Start launches the background jobs. It returns an error only for a
// malformed cron expression; job failures afterwards are logged and
// absorbed, the next tick being the retry.
func (s *SchedulerService) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	s.cron = cron.New(cron.WithLocation(s.cfg.Location))
	_, err := s.cron.AddFunc(s.cfg.ResetCron, func() {
		s.runExclusive(ctx, "weekly-reset", &s.resetInFlight, func(jobCtx context.Context) {
			if resetErr := s.predictions.ResetAll(jobCtx); resetErr != nil {
				s.logger.ErrorContext(jobCtx, "weekly prediction reset failed", "error", resetErr)
			}
		})
	})
	if err != nil {
		return fmt.Errorf("register reset cron %q: %w", s.cfg.ResetCron, err)
	}
	s.cron.Start()

	s.wg.Go(func() {
		s.runTicker(ctx, "score-reconcile", s.cfg.ScoreInterval, &s.scoreInFlight, s.feed.ReconcileScores)
	})
	s.wg.Go(func() {
		s.runTicker(ctx, "fixture-fetch", s.cfg.FixtureInterval, &s.fixtureInFlight, s.feed.FetchNewFixtures)
	})

	s.logger.InfoContext(ctx, "scheduler started",
		"score_interval", s.cfg.ScoreInterval.String(),
		"fixture_interval", s.cfg.FixtureInterval.String(),
		"reset_cron", s.cfg.ResetCron,
	)
	return nil
}

// Stop cancels the tickers and waits for in-flight runs to finish.
func (s *SchedulerService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.wg.Wait()
}

func (s *SchedulerService) runTicker(
	ctx context.Context,
	name string,
	interval time.Duration,
	inFlight *atomic.Bool,
	job func(context.Context),
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Tick in a fresh goroutine so a slow run never delays
			// this loop; the in-flight guard drops the overlap.
			s.wg.Go(func() {
				s.runExclusive(ctx, name, inFlight, job)
			})
		}
	}
}

func (s *SchedulerService) runExclusive(ctx context.Context, name string, inFlight *atomic.Bool, job func(context.Context)) {
	if !inFlight.CompareAndSwap(false, true) {
		s.logger.WarnContext(ctx, "skip job: previous run still in flight", "job", name)
		return
	}
	defer inFlight.Store(false)

	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "job panicked", "job", name, "panic", fmt.Sprint(r))
		}
	}()

	start := time.Now()
	job(ctx)
	s.logger.DebugContext(ctx, "job finished", "job", name, "duration_ms", time.Since(start).Milliseconds())
}
