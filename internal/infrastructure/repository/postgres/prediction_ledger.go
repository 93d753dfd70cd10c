package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Diego23-co/GoPredict/internal/domain/prediction"
	qb "github.com/Diego23-co/GoPredict/internal/platform/querybuilder"
)

type predictionTableModel struct {
	ID             int64        `db:"id"`
	Username       string       `db:"username"`
	FixtureOrdinal int64        `db:"fixture_ordinal"`
	PredictedHome  int          `db:"predicted_home"`
	PredictedAway  int          `db:"predicted_away"`
	SubmittedOn    sql.NullTime `db:"submitted_on"`
	CreatedAt      time.Time    `db:"created_at"`
}

type predictionInsertModel struct {
	Username       string       `db:"username"`
	FixtureOrdinal int64        `db:"fixture_ordinal"`
	PredictedHome  int          `db:"predicted_home"`
	PredictedAway  int          `db:"predicted_away"`
	SubmittedOn    sql.NullTime `db:"submitted_on"`
}

func (m predictionTableModel) toDomain() prediction.Prediction {
	p := prediction.Prediction{
		Username:       m.Username,
		FixtureOrdinal: int(m.FixtureOrdinal),
		PredictedHome:  m.PredictedHome,
		PredictedAway:  m.PredictedAway,
	}
	if m.SubmittedOn.Valid {
		p.SubmittedOn = m.SubmittedOn.Time
	}
	return p
}

// PredictionLedger persists predictions keyed by the unique
// (username, fixture_ordinal) pair. A NULL submitted_on marks rows
// written before the quota column existed; the quota accounting
// re-derives their date from the bound fixture.
type PredictionLedger struct {
	db *sqlx.DB
}

func NewPredictionLedger(db *sqlx.DB) *PredictionLedger {
	return &PredictionLedger{db: db}
}

func (r *PredictionLedger) Insert(ctx context.Context, p prediction.Prediction) error {
	insertModel := predictionInsertModel{
		Username:       p.Username,
		FixtureOrdinal: int64(p.FixtureOrdinal),
		PredictedHome:  p.PredictedHome,
		PredictedAway:  p.PredictedAway,
	}
	if p.HasSubmissionDate() {
		insertModel.SubmittedOn = sql.NullTime{Time: p.SubmittedOn, Valid: true}
	}

	query, args, err := qb.InsertModel("predictions", insertModel, "ON CONFLICT (username, fixture_ordinal) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build insert prediction query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert prediction rows affected: %w", err)
	}
	if inserted == 0 {
		return prediction.ErrDuplicate
	}
	return nil
}

func (r *PredictionLedger) Get(ctx context.Context, username string, fixtureOrdinal int) (prediction.Prediction, error) {
	query, args, err := qb.Select("*").From("predictions").
		Where(
			qb.Eq("username", username),
			qb.Eq("fixture_ordinal", int64(fixtureOrdinal)),
		).
		ToSQL()
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("build select prediction query: %w", err)
	}

	var row predictionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return prediction.Prediction{}, prediction.ErrNotFound
		}
		return prediction.Prediction{}, fmt.Errorf("select prediction: %w", err)
	}

	return row.toDomain(), nil
}

func (r *PredictionLedger) ListByUser(ctx context.Context, username string) ([]prediction.Prediction, error) {
	query, args, err := qb.Select("*").From("predictions").
		Where(qb.Eq("username", username)).
		OrderBy("fixture_ordinal").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select predictions by user query: %w", err)
	}

	return r.selectPredictions(ctx, query, args)
}

func (r *PredictionLedger) ListAll(ctx context.Context) ([]prediction.Prediction, error) {
	query, args, err := qb.Select("*").From("predictions").
		OrderBy("username", "fixture_ordinal").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select predictions query: %w", err)
	}

	return r.selectPredictions(ctx, query, args)
}

func (r *PredictionLedger) DeleteAll(ctx context.Context) error {
	query, args, err := qb.DeleteFrom("predictions").ToSQL()
	if err != nil {
		return fmt.Errorf("build delete predictions query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete predictions: %w", err)
	}
	return nil
}

func (r *PredictionLedger) selectPredictions(ctx context.Context, query string, args []any) ([]prediction.Prediction, error) {
	var rows []predictionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select predictions: %w", err)
	}

	out := make([]prediction.Prediction, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
