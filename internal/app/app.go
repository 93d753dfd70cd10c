package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/Diego23-co/GoPredict/external/footballdata"
	"github.com/Diego23-co/GoPredict/internal/config"
	"github.com/Diego23-co/GoPredict/internal/domain/account"
	"github.com/Diego23-co/GoPredict/internal/domain/match"
	"github.com/Diego23-co/GoPredict/internal/domain/prediction"
	"github.com/Diego23-co/GoPredict/internal/infrastructure/repository/memory"
	"github.com/Diego23-co/GoPredict/internal/infrastructure/repository/postgres"
	"github.com/Diego23-co/GoPredict/internal/interfaces/httpapi"
	"github.com/Diego23-co/GoPredict/internal/observability"
	"github.com/Diego23-co/GoPredict/internal/platform/cache"
	"github.com/Diego23-co/GoPredict/internal/platform/logging"
	"github.com/Diego23-co/GoPredict/internal/platform/resilience"
	"github.com/Diego23-co/GoPredict/internal/usecase"
)

// App owns every long-lived component: the HTTP server, the job
// scheduler, the storage handle, and the profiling sidecars.
type App struct {
	Server    *http.Server
	Scheduler *usecase.SchedulerService

	db           *sqlx.DB
	pprofServer  *http.Server
	stopProfiler func() error
	logger       *slog.Logger
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	zl := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(zl)

	stores, db, err := buildStorage(cfg)
	if err != nil {
		return nil, err
	}

	competitions := make([]usecase.Competition, 0, len(cfg.Competitions))
	for _, c := range cfg.Competitions {
		competitions = append(competitions, usecase.Competition{ID: c.ID, Name: c.Name})
	}

	var provider usecase.FeedProvider
	if cfg.FeedEnabled {
		provider = footballdata.NewClient(footballdata.ClientConfig{
			BaseURL:    cfg.FeedBaseURL,
			Token:      cfg.FeedToken,
			Timeout:    cfg.FeedTimeout,
			MaxRetries: cfg.FeedMaxRetries,
			Logger:     zl,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.FeedCircuitEnabled,
				FailureThreshold: cfg.FeedCircuitFailures,
				OpenTimeout:      cfg.FeedCircuitOpenTimeout,
				HalfOpenProbes:   cfg.FeedCircuitProbes,
			},
		})
	}

	matchSvc := usecase.NewMatchService(stores.matches, competitions, cfg.Location, zl)
	feedSvc := usecase.NewFeedSyncService(provider, stores.matches, usecase.FeedSyncConfig{
		Enabled:      cfg.FeedEnabled,
		Competitions: competitions,
		Workers:      cfg.FeedWorkers,
	}, cfg.Location, zl)
	predictionSvc := usecase.NewPredictionService(stores.matches, stores.predictions, usecase.PredictionConfig{
		DailyLimit: cfg.DailyPredictionLimit,
	}, cfg.Location, zl)
	scoringSvc := usecase.NewScoringService(stores.matches, stores.predictions, stores.accounts, zl)
	accountSvc := usecase.NewAccountService(
		stores.accounts,
		cache.NewStore(cfg.SessionTTL),
		cache.NewStore(cfg.OTPTTL),
		nil,
		zl,
	)
	scheduler := usecase.NewSchedulerService(feedSvc, predictionSvc, usecase.SchedulerConfig{
		ScoreInterval:   cfg.ScoreSyncInterval,
		FixtureInterval: cfg.FixtureSyncInterval,
		ResetCron:       cfg.PredictionResetCron,
		Location:        cfg.Location,
	}, zl)

	handler := httpapi.NewHandler(matchSvc, predictionSvc, scoringSvc, accountSvc, feedSvc, logger)
	router := httpapi.NewRouter(handler, accountSvc, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	pprofServer, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("start pprof server: %w", err)
	}

	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init pyroscope: %w", err)
	}

	return &App{
		Server: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		Scheduler:    scheduler,
		db:           db,
		pprofServer:  pprofServer,
		stopProfiler: stopProfiler,
		logger:       logger,
	}, nil
}

type storageSet struct {
	matches     match.Store
	predictions prediction.Ledger
	accounts    account.Repository
}

// buildStorage returns the configured driver's repositories. The sqlx
// handle is nil for the memory driver.
func buildStorage(cfg config.Config) (storageSet, *sqlx.DB, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		return storageSet{
			matches:     memory.NewMatchStore(),
			predictions: memory.NewPredictionLedger(),
			accounts:    memory.NewAccountRepository(),
		}, nil, nil
	case config.StoragePostgres:
		db, err := sqlx.Connect("postgres", normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary))
		if err != nil {
			return storageSet{}, nil, fmt.Errorf("connect postgres db=%s: %w", dbNameFromURL(cfg.DBURL), err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)

		return storageSet{
			matches:     postgres.NewMatchStore(db),
			predictions: postgres.NewPredictionLedger(db),
			accounts:    postgres.NewAccountRepository(db),
		}, db, nil
	default:
		return storageSet{}, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// Start launches the background jobs. The HTTP server itself is
// started by the caller so it can own the listen error.
func (a *App) Start(ctx context.Context) error {
	return a.Scheduler.Start(ctx)
}

// Shutdown stops the scheduler, drains the HTTP server, and releases
// storage and profiling resources.
func (a *App) Shutdown(ctx context.Context) error {
	a.Scheduler.Stop()

	var firstErr error
	if err := a.Server.Shutdown(ctx); err != nil {
		firstErr = fmt.Errorf("shutdown http server: %w", err)
	}

	if err := observability.StopPprofServer(a.pprofServer, a.logger, 5*time.Second); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("stop pprof server: %w", err)
	}

	if a.stopProfiler != nil {
		if err := a.stopProfiler(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("stop profiler: %w", err)
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close db: %w", err)
		}
	}

	return firstErr
}
