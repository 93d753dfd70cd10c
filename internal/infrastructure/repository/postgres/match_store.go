package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Diego23-co/GoPredict/internal/domain/match"
	qb "github.com/Diego23-co/GoPredict/internal/platform/querybuilder"
)

// MatchStore persists fixtures in the fixtures table. The ordinal is a
// bigserial primary key, so it is monotonic and never reused; the
// dedup_key unique index enforces the participants-plus-kickoff
// identity at the database level, which keeps UpsertFromFeed atomic
// across concurrently running reconciler instances.
type MatchStore struct {
	db *sqlx.DB
}

func NewMatchStore(db *sqlx.DB) *MatchStore {
	return &MatchStore{db: db}
}

func (s *MatchStore) UpsertFromFeed(ctx context.Context, candidate match.Candidate) (match.UpsertOutcome, error) {
	if candidate.HomeTeam == "" || candidate.AwayTeam == "" {
		return "", fmt.Errorf("candidate is missing team names")
	}

	insertModel := fixtureInsertModel{
		DedupKey:    candidate.DedupKey(),
		Competition: candidate.Competition,
		HomeTeam:    candidate.HomeTeam,
		AwayTeam:    candidate.AwayTeam,
		HomeCrest:   candidate.HomeCrest,
		AwayCrest:   candidate.AwayCrest,
		KickoffUTC:  candidate.KickoffUTC.UTC(),
		Status:      match.StatusUpcoming,
	}

	query, args, err := qb.InsertModel("fixtures", insertModel, "ON CONFLICT (dedup_key) DO NOTHING")
	if err != nil {
		return "", fmt.Errorf("build insert fixture query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return "", fmt.Errorf("insert fixture: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("insert fixture rows affected: %w", err)
	}
	if inserted == 0 {
		return match.UpsertMerged, nil
	}
	return match.UpsertCreated, nil
}

func (s *MatchStore) Get(ctx context.Context, ordinal int) (match.Fixture, error) {
	query, args, err := qb.Select("*").From("fixtures").
		Where(qb.Eq("ordinal", int64(ordinal))).
		ToSQL()
	if err != nil {
		return match.Fixture{}, fmt.Errorf("build select fixture query: %w", err)
	}

	var row fixtureTableModel
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Fixture{}, match.ErrNotFound
		}
		return match.Fixture{}, fmt.Errorf("select fixture: %w", err)
	}

	return row.toDomain(), nil
}

func (s *MatchStore) List(ctx context.Context) ([]match.Fixture, error) {
	query, args, err := qb.Select("*").From("fixtures").
		OrderBy("ordinal").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select fixtures query: %w", err)
	}

	var rows []fixtureTableModel
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select fixtures: %w", err)
	}

	out := make([]match.Fixture, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (s *MatchStore) UpdateStatusAndScore(ctx context.Context, ordinal int, status string, homeScore, awayScore *int) error {
	query, args, err := qb.Update("fixtures").
		Set("status", status).
		Set("home_score", intPtrToNullInt64(homeScore)).
		Set("away_score", intPtrToNullInt64(awayScore)).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("ordinal", int64(ordinal))).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update fixture query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update fixture: %w", err)
	}

	updated, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update fixture rows affected: %w", err)
	}
	if updated == 0 {
		return match.ErrNotFound
	}
	return nil
}
