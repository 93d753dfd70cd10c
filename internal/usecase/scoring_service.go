package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Diego23-co/GoPredict/internal/domain/account"
	"github.com/Diego23-co/GoPredict/internal/domain/match"
	"github.com/Diego23-co/GoPredict/internal/domain/prediction"
	"github.com/Diego23-co/GoPredict/internal/platform/logging"
)

const (
	pointsExactScore = 5
	badgeThreshold   = 1000
	championBadge    = "\U0001F3C6"
)

// Outcome classifies one prediction against its fixture's current state.
const (
	OutcomeWin      = "WIN"
	OutcomeLose     = "LOSE"
	OutcomeLive     = "LIVE"
	OutcomeUpcoming = "UPCOMING"
)

type LeaderboardEntry struct {
	Username string
	Points   int
	Badge    string
}

type ProfileEntry struct {
	Fixture       match.Fixture
	PredictedHome int
	PredictedAway int
	Outcome       string
	Points        int
}

type UserProfile struct {
	Username        string
	TotalPoints     int
	ExactCount      int
	PredictionCount int
	Badge           string
	Entries         []ProfileEntry
}

// ScoringService derives point totals from snapshots of the match
// store and prediction ledger. It holds no state of its own; every
// call recomputes from scratch.
type ScoringService struct {
	matches  match.Store
	ledger   prediction.Ledger
	accounts account.Repository
	logger   *logging.Logger
}

func NewScoringService(
	matches match.Store,
	ledger prediction.Ledger,
	accounts account.Repository,
	logger *logging.Logger,
) *ScoringService {
	if logger == nil {
		logger = logging.Default()
	}

	return &ScoringService{
		matches:  matches,
		ledger:   ledger,
		accounts: accounts,
		logger:   logger,
	}
}

// ComputeLeaderboard ranks every registered user by points, descending.
// The points contract does not order ties; entries are pre-sorted by
// username so the result is deterministic and independent of ledger
// iteration order.
func (s *ScoringService) ComputeLeaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.ComputeLeaderboard")
	defer span.End()

	fixtures, all, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	points := make(map[string]int)
	for _, p := range all {
		f, ok := fixtures[p.FixtureOrdinal]
		if !ok {
			continue
		}
		points[p.Username] += scorePrediction(p, f)
	}

	users, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts for leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	seen := make(map[string]struct{}, len(users))
	for _, u := range users {
		seen[u.Username] = struct{}{}
		entries = append(entries, leaderboardEntry(u.Username, points[u.Username]))
	}
	// Ledger entries can outlive their account (imports, removed
	// users); keep their points visible rather than dropping them.
	for username, total := range points {
		if _, ok := seen[username]; !ok {
			entries = append(entries, leaderboardEntry(username, total))
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Username < entries[j].Username })
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Points > entries[j].Points })

	return entries, nil
}

// ComputeUserProfile lists every prediction the user holds, ordered by
// fixture ordinal, with per-entry outcome and points.
func (s *ScoringService) ComputeUserProfile(ctx context.Context, username string) (UserProfile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.ComputeUserProfile")
	defer span.End()

	username = strings.TrimSpace(username)
	if username == "" {
		return UserProfile{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	mine, err := s.ledger.ListByUser(ctx, username)
	if err != nil {
		return UserProfile{}, fmt.Errorf("list predictions for profile: %w", err)
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].FixtureOrdinal < mine[j].FixtureOrdinal })

	profile := UserProfile{Username: username}
	for _, p := range mine {
		f, getErr := s.matches.Get(ctx, p.FixtureOrdinal)
		if getErr != nil {
			continue
		}

		entry := ProfileEntry{
			Fixture:       f,
			PredictedHome: p.PredictedHome,
			PredictedAway: p.PredictedAway,
			Outcome:       classifyOutcome(p, f),
			Points:        scorePrediction(p, f),
		}
		profile.Entries = append(profile.Entries, entry)
		profile.TotalPoints += entry.Points
		if entry.Points > 0 {
			profile.ExactCount++
		}
	}
	profile.PredictionCount = len(profile.Entries)
	if profile.TotalPoints >= badgeThreshold {
		profile.Badge = championBadge
	}

	return profile, nil
}

func (s *ScoringService) snapshot(ctx context.Context) (map[int]match.Fixture, []prediction.Prediction, error) {
	fixtures, err := s.matches.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list fixtures for scoring: %w", err)
	}
	byOrdinal := make(map[int]match.Fixture, len(fixtures))
	for _, f := range fixtures {
		byOrdinal[f.Ordinal] = f
	}

	all, err := s.ledger.ListAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list predictions for scoring: %w", err)
	}

	return byOrdinal, all, nil
}

// scorePrediction awards points only for an exact score: both actual
// scores present and equal to the prediction. No partial credit.
func scorePrediction(p prediction.Prediction, f match.Fixture) int {
	if f.HomeScore == nil || f.AwayScore == nil {
		return 0
	}
	if *f.HomeScore == p.PredictedHome && *f.AwayScore == p.PredictedAway {
		return pointsExactScore
	}
	return 0
}

func classifyOutcome(p prediction.Prediction, f match.Fixture) string {
	switch {
	case match.IsLockedStatus(f.Status):
		return OutcomeLive
	case match.IsFinishedStatus(f.Status):
		if scorePrediction(p, f) > 0 {
			return OutcomeWin
		}
		return OutcomeLose
	default:
		return OutcomeUpcoming
	}
}

func leaderboardEntry(username string, points int) LeaderboardEntry {
	entry := LeaderboardEntry{Username: username, Points: points}
	if points >= badgeThreshold {
		entry.Badge = championBadge
	}
	return entry
}
