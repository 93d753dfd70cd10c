package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Diego23-co/GoPredict/internal/domain/match"
	"github.com/Diego23-co/GoPredict/internal/infrastructure/repository/memory"
	"github.com/Diego23-co/GoPredict/internal/platform/logging"
)

// stubFeedProvider serves canned per-competition responses. A
// competition listed in failing errors out, like a provider returning
// a non-success status; failCurrent downs only the global endpoint,
// failAll downs everything.
type stubFeedProvider struct {
	scheduled   map[int64][]ExternalMatch
	current     []ExternalMatch
	failing     map[int64]bool
	failCurrent bool
	failAll     bool
}

func (p *stubFeedProvider) FetchScheduledMatches(_ context.Context, competitionID int64) ([]ExternalMatch, error) {
	if p.failAll || p.failing[competitionID] {
		return nil, errors.New("upstream returned 503")
	}
	return p.scheduled[competitionID], nil
}

func (p *stubFeedProvider) FetchFinishedMatches(_ context.Context, competitionID int64) ([]ExternalMatch, error) {
	return p.FetchScheduledMatches(context.Background(), competitionID)
}

func (p *stubFeedProvider) FetchLiveMatches(_ context.Context, competitionID int64) ([]ExternalMatch, error) {
	return p.FetchScheduledMatches(context.Background(), competitionID)
}

func (p *stubFeedProvider) FetchCurrentMatches(_ context.Context) ([]ExternalMatch, error) {
	if p.failAll || p.failCurrent {
		return nil, errors.New("upstream returned 503")
	}
	return p.current, nil
}

func newFeedSyncFixture(t *testing.T, provider FeedProvider) (*FeedSyncService, *memory.MatchStore) {
	t.Helper()
	store := memory.NewMatchStore()
	svc := NewFeedSyncService(provider, store, FeedSyncConfig{
		Enabled:      true,
		Competitions: testCompetitions,
		Workers:      2,
	}, time.UTC, logging.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC) }
	return svc, store
}

func TestFeedSync_OneFailingCompetitionDoesNotAbortOthers(t *testing.T) {
	t.Parallel()

	today := time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)
	provider := &stubFeedProvider{
		scheduled: map[int64][]ExternalMatch{
			2021: {{Competition: "Premier League", HomeTeam: "Arsenal", AwayTeam: "Chelsea", KickoffUTC: today}},
			2019: {{Competition: "Serie A", HomeTeam: "Inter", AwayTeam: "Milan", KickoffUTC: today}},
		},
		failing: map[int64]bool{2014: true},
	}
	svc, store := newFeedSyncFixture(t, provider)

	svc.FetchNewFixtures(context.Background())

	fixtures, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(fixtures) != 2 {
		t.Fatalf("expected fixtures from the two healthy competitions, got %d", len(fixtures))
	}
}

func TestFeedSync_KeepsOnlyTodaysFixtures(t *testing.T) {
	t.Parallel()

	provider := &stubFeedProvider{
		scheduled: map[int64][]ExternalMatch{
			2021: {
				{HomeTeam: "Arsenal", AwayTeam: "Chelsea", KickoffUTC: time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)},
				{HomeTeam: "Everton", AwayTeam: "Fulham", KickoffUTC: time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC)},
				{HomeTeam: "Brentford", AwayTeam: "Wolves", KickoffUTC: time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC)},
			},
		},
	}
	svc, store := newFeedSyncFixture(t, provider)

	svc.FetchNewFixtures(context.Background())

	fixtures, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(fixtures) != 1 || fixtures[0].HomeTeam != "Arsenal" {
		t.Fatalf("expected only today's fixture, got %+v", fixtures)
	}
}

func TestFeedSync_RerunDoesNotDuplicate(t *testing.T) {
	t.Parallel()

	today := time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)
	provider := &stubFeedProvider{
		scheduled: map[int64][]ExternalMatch{
			2021: {{HomeTeam: "Arsenal", AwayTeam: "Chelsea", KickoffUTC: today}},
		},
	}
	svc, store := newFeedSyncFixture(t, provider)

	svc.FetchNewFixtures(context.Background())
	// Provider responses drift in spelling between polls.
	provider.scheduled[2021][0].HomeTeam = "Arsenal FC"
	svc.FetchNewFixtures(context.Background())

	fixtures, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(fixtures) != 1 {
		t.Fatalf("expected a single fixture after rerun, got %d", len(fixtures))
	}
}

func TestFeedSync_ReconcileMatchesDespiteKickoffDrift(t *testing.T) {
	t.Parallel()

	stored := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	provider := &stubFeedProvider{
		current: []ExternalMatch{{
			HomeTeam:   "Arsenal FC",
			AwayTeam:   "Chelsea FC",
			KickoffUTC: stored.Add(15 * time.Minute),
			Status:     match.StatusLive,
			LiveHome:   intPtr(1),
			LiveAway:   intPtr(0),
		}},
	}
	svc, store := newFeedSyncFixture(t, provider)
	if _, err := store.UpsertFromFeed(context.Background(), match.Candidate{
		HomeTeam: "Arsenal", AwayTeam: "Chelsea", KickoffUTC: stored,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc.ReconcileScores(context.Background())

	f, err := store.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if f.Status != match.StatusLive {
		t.Fatalf("expected LIVE status, got %s", f.Status)
	}
	if f.HomeScore == nil || *f.HomeScore != 1 || f.AwayScore == nil || *f.AwayScore != 0 {
		t.Fatalf("expected live score 1-0, got %+v", f)
	}
}

func TestFeedSync_FinishedUsesFullTimeScore(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	provider := &stubFeedProvider{
		current: []ExternalMatch{{
			HomeTeam:     "Inter",
			AwayTeam:     "Milan",
			KickoffUTC:   kickoff,
			Status:       match.StatusFinished,
			FullTimeHome: intPtr(2),
			FullTimeAway: intPtr(2),
			LiveHome:     intPtr(1),
			LiveAway:     intPtr(1),
		}},
	}
	svc, store := newFeedSyncFixture(t, provider)
	if _, err := store.UpsertFromFeed(context.Background(), match.Candidate{
		HomeTeam: "Inter", AwayTeam: "Milan", KickoffUTC: kickoff,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc.ReconcileScores(context.Background())

	f, err := store.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if f.Status != match.StatusFinished || f.HomeScore == nil || *f.HomeScore != 2 || *f.AwayScore != 2 {
		t.Fatalf("expected finished 2-2 from the full-time phase, got %+v", f)
	}
}

func TestFeedSync_UnmatchedFixtureIsLeftAlone(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	provider := &stubFeedProvider{
		current: []ExternalMatch{{
			HomeTeam:   "Bayern",
			AwayTeam:   "Dortmund",
			KickoffUTC: kickoff,
			Status:     match.StatusLive,
			LiveHome:   intPtr(3),
			LiveAway:   intPtr(0),
		}},
	}
	svc, store := newFeedSyncFixture(t, provider)
	if _, err := store.UpsertFromFeed(context.Background(), match.Candidate{
		HomeTeam: "Arsenal", AwayTeam: "Chelsea", KickoffUTC: kickoff,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc.ReconcileScores(context.Background())

	f, err := store.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if f.Status != match.StatusUpcoming || f.HomeScore != nil {
		t.Fatalf("expected untouched fixture, got %+v", f)
	}
}

func TestFeedSync_FallsBackToPerCompetitionScorePulls(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	provider := &stubFeedProvider{
		failCurrent: true,
		scheduled: map[int64][]ExternalMatch{
			2021: {{
				HomeTeam:   "Arsenal",
				AwayTeam:   "Chelsea",
				KickoffUTC: kickoff,
				Status:     match.StatusLive,
				LiveHome:   intPtr(1),
				LiveAway:   intPtr(0),
			}},
		},
	}
	svc, store := newFeedSyncFixture(t, provider)
	if _, err := store.UpsertFromFeed(context.Background(), match.Candidate{
		HomeTeam: "Arsenal", AwayTeam: "Chelsea", KickoffUTC: kickoff,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc.ReconcileScores(context.Background())

	f, err := store.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if f.Status != match.StatusLive {
		t.Fatalf("expected live status from per-competition pull, got %q", f.Status)
	}
	if f.HomeScore == nil || f.AwayScore == nil || *f.HomeScore != 1 || *f.AwayScore != 0 {
		t.Fatalf("expected live score 1-0, got %+v", f)
	}
}

func TestFeedSync_ProviderOutageLeavesStoreUntouched(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	provider := &stubFeedProvider{failAll: true}
	svc, store := newFeedSyncFixture(t, provider)
	if _, err := store.UpsertFromFeed(context.Background(), match.Candidate{
		HomeTeam: "Arsenal", AwayTeam: "Chelsea", KickoffUTC: kickoff,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Must not panic or propagate; the next poll is the retry.
	svc.ReconcileScores(context.Background())

	f, err := store.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if f.Status != match.StatusUpcoming {
		t.Fatalf("expected fixture unchanged after outage, got %+v", f)
	}
}

func intPtr(v int) *int { return &v }
