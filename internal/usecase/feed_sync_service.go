package usecase

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/Diego23-co/GoPredict/internal/domain/match"
	"github.com/Diego23-co/GoPredict/internal/platform/logging"
)

// FeedProvider is the external fixture/score source. Implementations
// must bound every request with a timeout; a timeout is reported as an
// ordinary error and treated like any other non-success response.
type FeedProvider interface {
	FetchScheduledMatches(ctx context.Context, competitionID int64) ([]ExternalMatch, error)
	FetchFinishedMatches(ctx context.Context, competitionID int64) ([]ExternalMatch, error)
	FetchLiveMatches(ctx context.Context, competitionID int64) ([]ExternalMatch, error)
	FetchCurrentMatches(ctx context.Context) ([]ExternalMatch, error)
}

// ExternalMatch is one provider record with scores keyed by phase.
type ExternalMatch struct {
	Competition string
	HomeTeam    string
	AwayTeam    string
	HomeCrest   string
	AwayCrest   string
	KickoffUTC  time.Time
	Status      string

	FullTimeHome *int
	FullTimeAway *int
	RegularHome  *int
	RegularAway  *int
	LiveHome     *int
	LiveAway     *int
}

type FeedSyncConfig struct {
	Enabled      bool
	Competitions []Competition
	Workers      int
}

// FeedSyncService bridges the provider's per-competition endpoints
// into match store mutations. Both entry points absorb provider
// failures: a failed pull is logged and the next scheduled poll is the
// retry.
type FeedSyncService struct {
	provider FeedProvider
	store    match.Store
	cfg      FeedSyncConfig
	location *time.Location
	logger   *logging.Logger
	now      func() time.Time
}

func NewFeedSyncService(
	provider FeedProvider,
	store match.Store,
	cfg FeedSyncConfig,
	location *time.Location,
	logger *logging.Logger,
) *FeedSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if location == nil {
		location = time.UTC
	}
	if cfg.Workers < 1 {
		cfg.Workers = 4
	}

	return &FeedSyncService{
		provider: provider,
		store:    store,
		cfg:      cfg,
		location: location,
		logger:   logger,
		now:      time.Now,
	}
}

// FetchNewFixtures pulls scheduled matches for every configured
// competition, keeps those kicking off on the current local date, and
// upserts them. Competitions fan out on a worker pool; one failing
// competition never aborts its siblings.
func (s *FeedSyncService) FetchNewFixtures(ctx context.Context) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FeedSyncService.FetchNewFixtures")
	defer span.End()

	if !s.cfg.Enabled || s.provider == nil {
		s.logger.WarnContext(ctx, "skip fixture fetch: feed is disabled or unconfigured")
		return
	}

	today := s.now().In(s.location)

	pool, err := ants.NewPool(s.cfg.Workers)
	if err != nil {
		s.logger.ErrorContext(ctx, "create feed worker pool", "error", err)
		return
	}
	defer pool.Release()

	var created, merged, skipped atomic.Int64
	var workers sync.WaitGroup
	for _, comp := range s.cfg.Competitions {
		comp := comp
		workers.Add(1)
		submitErr := pool.Submit(func() {
			defer workers.Done()
			s.fetchCompetitionFixtures(ctx, comp, today, &created, &merged, &skipped)
		})
		if submitErr != nil {
			workers.Done()
			s.logger.WarnContext(ctx, "submit fixture fetch task", "competition", comp.Name, "error", submitErr)
		}
	}
	workers.Wait()

	s.logger.InfoContext(ctx, "fixture fetch complete",
		"created", created.Load(),
		"merged", merged.Load(),
		"skipped_competitions", skipped.Load(),
	)
}

func (s *FeedSyncService) fetchCompetitionFixtures(
	ctx context.Context,
	comp Competition,
	today time.Time,
	created, merged, skipped *atomic.Int64,
) {
	records, err := s.provider.FetchScheduledMatches(ctx, comp.ID)
	if err != nil {
		// Partial-failure isolation: log and let the other
		// competitions proceed.
		s.logger.WarnContext(ctx, "skip competition: scheduled matches fetch failed",
			"competition", comp.Name,
			"competition_id", comp.ID,
			"error", err,
		)
		skipped.Add(1)
		return
	}

	for _, record := range records {
		if !sameLocalDate(record.KickoffUTC, today, s.location) {
			continue
		}

		outcome, upsertErr := s.store.UpsertFromFeed(ctx, match.Candidate{
			Competition: comp.Name,
			HomeTeam:    record.HomeTeam,
			AwayTeam:    record.AwayTeam,
			HomeCrest:   record.HomeCrest,
			AwayCrest:   record.AwayCrest,
			KickoffUTC:  record.KickoffUTC,
		})
		if upsertErr != nil {
			s.logger.WarnContext(ctx, "upsert fixture from feed",
				"competition", comp.Name,
				"home", record.HomeTeam,
				"away", record.AwayTeam,
				"error", upsertErr,
			)
			continue
		}
		switch outcome {
		case match.UpsertCreated:
			created.Add(1)
		case match.UpsertMerged:
			merged.Add(1)
		}
	}
}

// ReconcileScores pulls the provider's global current-match list once,
// falling back to per-competition live and finished pulls when that
// endpoint is down, and walks every stored fixture looking for its
// provider counterpart.
//
// Matching is a documented heuristic: normalized team names plus the
// kickoff calendar date, not the exact timestamp, because providers
// nudge kickoff times after initial scheduling. Two fixtures between
// the same teams on the same local date are therefore ambiguous and
// can be misassigned; no disambiguation is attempted.
func (s *FeedSyncService) ReconcileScores(ctx context.Context) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FeedSyncService.ReconcileScores")
	defer span.End()

	if !s.cfg.Enabled || s.provider == nil {
		s.logger.WarnContext(ctx, "skip score reconciliation: feed is disabled or unconfigured")
		return
	}

	records, err := s.provider.FetchCurrentMatches(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "current matches fetch failed, trying per-competition pulls", "error", err)
		records = s.fetchScoresByCompetition(ctx)
		if len(records) == 0 {
			s.logger.WarnContext(ctx, "skip score reconciliation: no provider records available")
			return
		}
	}

	fixtures, err := s.store.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "list fixtures for score reconciliation", "error", err)
		return
	}

	index := s.indexFeedRecords(records)
	updated := 0
	for _, f := range fixtures {
		record, ok := s.findFeedMatch(f, index, records)
		if !ok {
			// Not yet in play, or a feed gap. Best effort only.
			continue
		}

		home, away := scoresForStatus(record)
		if err := s.store.UpdateStatusAndScore(ctx, f.Ordinal, record.Status, home, away); err != nil {
			s.logger.WarnContext(ctx, "update fixture score",
				"ordinal", f.Ordinal,
				"status", record.Status,
				"error", err,
			)
			continue
		}
		updated++
	}

	s.logger.InfoContext(ctx, "score reconciliation complete",
		"provider_records", len(records),
		"fixtures", len(fixtures),
		"updated", updated,
	)
}

// fetchScoresByCompetition is the degraded path when the global
// current-matches endpoint is unavailable: it collects the live and
// finished lists per covered competition, skipping competitions that
// fail, and reconciles with whatever came back.
func (s *FeedSyncService) fetchScoresByCompetition(ctx context.Context) []ExternalMatch {
	var out []ExternalMatch
	for _, comp := range s.cfg.Competitions {
		live, err := s.provider.FetchLiveMatches(ctx, comp.ID)
		if err != nil {
			s.logger.WarnContext(ctx, "live matches fetch failed",
				"competition", comp.Name,
				"error", err,
			)
		} else {
			out = append(out, live...)
		}

		finished, err := s.provider.FetchFinishedMatches(ctx, comp.ID)
		if err != nil {
			s.logger.WarnContext(ctx, "finished matches fetch failed",
				"competition", comp.Name,
				"error", err,
			)
		} else {
			out = append(out, finished...)
		}
	}
	return out
}

// scoresForStatus derives score fields by phase: in-play statuses read
// the live phase, FINISHED reads full time, anything else clears the
// scores to null.
func scoresForStatus(record ExternalMatch) (*int, *int) {
	switch {
	case match.IsLiveStatus(record.Status) || match.IsPausedStatus(record.Status):
		return record.LiveHome, record.LiveAway
	case match.IsFinishedStatus(record.Status):
		return record.FullTimeHome, record.FullTimeAway
	default:
		return nil, nil
	}
}

type feedMatchKey struct {
	home string
	away string
	date string
}

func (s *FeedSyncService) indexFeedRecords(records []ExternalMatch) map[feedMatchKey]int {
	index := make(map[feedMatchKey]int, len(records))
	for i, record := range records {
		key := feedMatchKey{
			home: match.NormalizeTeamName(record.HomeTeam),
			away: match.NormalizeTeamName(record.AwayTeam),
			date: record.KickoffUTC.In(s.location).Format("2006-01-02"),
		}
		if _, exists := index[key]; !exists {
			index[key] = i
		}
	}
	return index
}

func (s *FeedSyncService) findFeedMatch(f match.Fixture, index map[feedMatchKey]int, records []ExternalMatch) (ExternalMatch, bool) {
	home := match.NormalizeTeamName(f.HomeTeam)
	away := match.NormalizeTeamName(f.AwayTeam)
	date := f.KickoffUTC.In(s.location).Format("2006-01-02")

	if i, ok := index[feedMatchKey{home: home, away: away, date: date}]; ok {
		return records[i], true
	}

	// Contains fallback for renamed or abbreviated sides, still bound
	// to the same calendar date.
	for _, record := range records {
		if record.KickoffUTC.In(s.location).Format("2006-01-02") != date {
			continue
		}
		rh := match.NormalizeTeamName(record.HomeTeam)
		ra := match.NormalizeTeamName(record.AwayTeam)
		if teamNamesOverlap(home, rh) && teamNamesOverlap(away, ra) {
			return record, true
		}
	}

	return ExternalMatch{}, false
}

func teamNamesOverlap(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}
