package usecase

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/Diego23-co/GoPredict/internal/domain/match"
	"github.com/Diego23-co/GoPredict/internal/domain/prediction"
	"github.com/Diego23-co/GoPredict/internal/platform/logging"
)

const submitStripes = 64

type PredictionConfig struct {
	DailyLimit int
}

// PredictionService enforces the submission invariants. The whole
// check-then-insert sequence for one user runs under a striped mutex,
// so two concurrent submissions by the same user cannot both pass the
// duplicate or quota checks.
type PredictionService struct {
	matches  match.Store
	ledger   prediction.Ledger
	cfg      PredictionConfig
	location *time.Location
	logger   *logging.Logger
	now      func() time.Time

	stripes [submitStripes]sync.Mutex
}

func NewPredictionService(
	matches match.Store,
	ledger prediction.Ledger,
	cfg PredictionConfig,
	location *time.Location,
	logger *logging.Logger,
) *PredictionService {
	if logger == nil {
		logger = logging.Default()
	}
	if location == nil {
		location = time.UTC
	}
	if cfg.DailyLimit < 1 {
		cfg.DailyLimit = 10
	}

	return &PredictionService{
		matches:  matches,
		ledger:   ledger,
		cfg:      cfg,
		location: location,
		logger:   logger,
		now:      time.Now,
	}
}

// Submit records one prediction, or rejects it with ErrNotFound,
// ErrMatchLocked, ErrAlreadySubmitted, or ErrDailyQuotaExceeded.
func (s *PredictionService) Submit(ctx context.Context, username string, fixtureOrdinal, predictedHome, predictedAway int) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.Submit")
	defer span.End()

	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if predictedHome < 0 || predictedAway < 0 {
		return fmt.Errorf("%w: predicted scores must be non-negative", ErrInvalidInput)
	}

	stripe := &s.stripes[stripeFor(username)]
	stripe.Lock()
	defer stripe.Unlock()

	f, err := s.matches.Get(ctx, fixtureOrdinal)
	if err != nil {
		if errors.Is(err, match.ErrNotFound) {
			return fmt.Errorf("%w: fixture ordinal=%d", ErrNotFound, fixtureOrdinal)
		}
		return fmt.Errorf("get fixture for submission ordinal=%d: %w", fixtureOrdinal, err)
	}

	if match.IsLockedStatus(f.Status) {
		return fmt.Errorf("%w: fixture ordinal=%d status=%s", ErrMatchLocked, fixtureOrdinal, f.Status)
	}

	if _, err := s.ledger.Get(ctx, username, fixtureOrdinal); err == nil {
		return fmt.Errorf("%w: fixture ordinal=%d", ErrAlreadySubmitted, fixtureOrdinal)
	} else if !errors.Is(err, prediction.ErrNotFound) {
		return fmt.Errorf("check existing prediction: %w", err)
	}

	today := civilDate(s.now(), s.location)
	count, err := s.countForDate(ctx, username, today)
	if err != nil {
		return err
	}
	if count >= s.cfg.DailyLimit {
		return fmt.Errorf("%w: limit=%d", ErrDailyQuotaExceeded, s.cfg.DailyLimit)
	}

	err = s.ledger.Insert(ctx, prediction.Prediction{
		Username:       username,
		FixtureOrdinal: fixtureOrdinal,
		PredictedHome:  predictedHome,
		PredictedAway:  predictedAway,
		SubmittedOn:    today,
	})
	if err != nil {
		if errors.Is(err, prediction.ErrDuplicate) {
			return fmt.Errorf("%w: fixture ordinal=%d", ErrAlreadySubmitted, fixtureOrdinal)
		}
		return fmt.Errorf("insert prediction: %w", err)
	}

	return nil
}

// countForDate counts the user's predictions submitted on the given
// local date. Legacy entries written before the date column existed
// re-derive their date from the bound fixture's kickoff.
func (s *PredictionService) countForDate(ctx context.Context, username string, date time.Time) (int, error) {
	mine, err := s.ledger.ListByUser(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("list predictions for quota: %w", err)
	}

	count := 0
	for _, p := range mine {
		submitted := p.SubmittedOn
		if !p.HasSubmissionDate() {
			f, getErr := s.matches.Get(ctx, p.FixtureOrdinal)
			if getErr != nil {
				// A dangling legacy entry cannot consume quota.
				continue
			}
			submitted = civilDate(f.KickoffUTC, s.location)
		}
		if submitted.Equal(date) {
			count++
		}
	}
	return count, nil
}

func (s *PredictionService) ListByUser(ctx context.Context, username string) ([]prediction.Prediction, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.ListByUser")
	defer span.End()

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	return s.ledger.ListByUser(ctx, username)
}

// CountByFixture reports how many users have predicted each fixture.
func (s *PredictionService) CountByFixture(ctx context.Context) (map[int]int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.CountByFixture")
	defer span.End()

	all, err := s.ledger.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}

	counts := make(map[int]int, len(all))
	for _, p := range all {
		counts[p.FixtureOrdinal]++
	}
	return counts, nil
}

// ResetAll irreversibly clears the ledger for every user. Invoked by
// the weekly scheduled reset and the internal admin route.
func (s *PredictionService) ResetAll(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.ResetAll")
	defer span.End()

	if err := s.ledger.DeleteAll(ctx); err != nil {
		return fmt.Errorf("reset prediction ledger: %w", err)
	}
	s.logger.InfoContext(ctx, "prediction ledger reset")
	return nil
}

func stripeFor(username string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(username))
	return h.Sum32() % submitStripes
}

// civilDate truncates an instant to midnight of its local calendar
// day, yielding a comparable date value.
func civilDate(t time.Time, location *time.Location) time.Time {
	local := t.In(location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}
