package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Diego23-co/GoPredict/internal/domain/match"
)

// MatchStore holds fixtures in memory behind a single store-wide lock.
// It is the default storage driver and the one the test suites run on.
type MatchStore struct {
	mu          sync.RWMutex
	byOrdinal   map[int]match.Fixture
	dedupIndex  map[string]int
	nextOrdinal int
	now         func() time.Time
}

func NewMatchStore() *MatchStore {
	return &MatchStore{
		byOrdinal:   make(map[int]match.Fixture),
		dedupIndex:  make(map[string]int),
		nextOrdinal: 1,
		now:         time.Now,
	}
}

func (s *MatchStore) UpsertFromFeed(_ context.Context, candidate match.Candidate) (match.UpsertOutcome, error) {
	if candidate.HomeTeam == "" || candidate.AwayTeam == "" {
		return "", fmt.Errorf("candidate is missing team names")
	}

	key := candidate.DedupKey()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.dedupIndex[key]; exists {
		return match.UpsertMerged, nil
	}

	ordinal := s.nextOrdinal
	s.nextOrdinal++

	s.byOrdinal[ordinal] = match.Fixture{
		Ordinal:     ordinal,
		Competition: candidate.Competition,
		HomeTeam:    candidate.HomeTeam,
		AwayTeam:    candidate.AwayTeam,
		HomeCrest:   candidate.HomeCrest,
		AwayCrest:   candidate.AwayCrest,
		KickoffUTC:  candidate.KickoffUTC.UTC(),
		Status:      match.StatusUpcoming,
		UpdatedAt:   s.now().UTC(),
	}
	s.dedupIndex[key] = ordinal

	return match.UpsertCreated, nil
}

func (s *MatchStore) Get(_ context.Context, ordinal int) (match.Fixture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.byOrdinal[ordinal]
	if !ok {
		return match.Fixture{}, match.ErrNotFound
	}
	return f, nil
}

func (s *MatchStore) List(_ context.Context) ([]match.Fixture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]match.Fixture, 0, len(s.byOrdinal))
	for _, f := range s.byOrdinal {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out, nil
}

func (s *MatchStore) UpdateStatusAndScore(_ context.Context, ordinal int, status string, homeScore, awayScore *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.byOrdinal[ordinal]
	if !ok {
		return match.ErrNotFound
	}

	f.Status = match.NormalizeStatus(status)
	f.HomeScore = copyScore(homeScore)
	f.AwayScore = copyScore(awayScore)
	f.UpdatedAt = s.now().UTC()
	s.byOrdinal[ordinal] = f
	return nil
}

func copyScore(v *int) *int {
	if v == nil {
		return nil
	}
	score := *v
	return &score
}
