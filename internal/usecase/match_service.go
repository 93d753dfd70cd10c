package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Diego23-co/GoPredict/internal/domain/match"
	"github.com/Diego23-co/GoPredict/internal/platform/logging"
)

// Competition is one entry of the fixed coverage list. Slice order
// defines display precedence.
type Competition struct {
	ID   int64
	Name string
}

type MatchService struct {
	store    match.Store
	ordering map[string]int
	location *time.Location
	logger   *logging.Logger
	now      func() time.Time
}

func NewMatchService(store match.Store, competitions []Competition, location *time.Location, logger *logging.Logger) *MatchService {
	if logger == nil {
		logger = logging.Default()
	}
	if location == nil {
		location = time.UTC
	}

	ordering := make(map[string]int, len(competitions))
	for i, c := range competitions {
		ordering[c.Name] = i
	}

	return &MatchService{
		store:    store,
		ordering: ordering,
		location: location,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *MatchService) GetFixture(ctx context.Context, ordinal int) (match.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.GetFixture")
	defer span.End()

	if ordinal <= 0 {
		return match.Fixture{}, fmt.Errorf("%w: fixture ordinal must be positive", ErrInvalidInput)
	}

	f, err := s.store.Get(ctx, ordinal)
	if err != nil {
		if errors.Is(err, match.ErrNotFound) {
			return match.Fixture{}, fmt.Errorf("%w: fixture ordinal=%d", ErrNotFound, ordinal)
		}
		return match.Fixture{}, fmt.Errorf("get fixture ordinal=%d: %w", ordinal, err)
	}
	return f, nil
}

// ListToday returns the fixtures visible for the current local
// calendar date.
func (s *MatchService) ListToday(ctx context.Context) ([]match.Fixture, error) {
	return s.ListForDate(ctx, s.now().In(s.location))
}

// ListForDate applies the visibility rule: a fixture shows when its
// kickoff falls on the given local date, or when it is currently in
// play regardless of date. A FINISHED fixture from an earlier date
// never reappears.
func (s *MatchService) ListForDate(ctx context.Context, date time.Time) ([]match.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ListForDate")
	defer span.End()

	fixtures, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list fixtures: %w", err)
	}

	out := make([]match.Fixture, 0, len(fixtures))
	for _, f := range fixtures {
		sameDay := sameLocalDate(f.KickoffUTC, date, s.location)
		inPlay := match.IsLockedStatus(f.Status)
		if !sameDay && !inPlay {
			continue
		}
		if match.IsFinishedStatus(f.Status) && !sameDay {
			continue
		}
		out = append(out, f)
	}

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := s.competitionRank(out[i].Competition), s.competitionRank(out[j].Competition)
		if pi != pj {
			return pi < pj
		}
		if !out[i].KickoffUTC.Equal(out[j].KickoffUTC) {
			return out[i].KickoffUTC.Before(out[j].KickoffUTC)
		}
		return out[i].Ordinal < out[j].Ordinal
	})

	return out, nil
}

func (s *MatchService) competitionRank(name string) int {
	if rank, ok := s.ordering[name]; ok {
		return rank
	}
	// Competitions outside the configured list sort last.
	return len(s.ordering)
}

func sameLocalDate(instant, date time.Time, location *time.Location) bool {
	a := instant.In(location)
	b := date.In(location)
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
