package postgres

import (
	"database/sql"
	"time"

	"github.com/Diego23-co/GoPredict/internal/domain/match"
)

type fixtureTableModel struct {
	Ordinal     int64         `db:"ordinal"`
	DedupKey    string        `db:"dedup_key"`
	Competition string        `db:"competition"`
	HomeTeam    string        `db:"home_team"`
	AwayTeam    string        `db:"away_team"`
	HomeCrest   string        `db:"home_crest"`
	AwayCrest   string        `db:"away_crest"`
	KickoffUTC  time.Time     `db:"kickoff_utc"`
	Status      string        `db:"status"`
	HomeScore   sql.NullInt64 `db:"home_score"`
	AwayScore   sql.NullInt64 `db:"away_score"`
	CreatedAt   time.Time     `db:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at"`
}

type fixtureInsertModel struct {
	DedupKey    string    `db:"dedup_key"`
	Competition string    `db:"competition"`
	HomeTeam    string    `db:"home_team"`
	AwayTeam    string    `db:"away_team"`
	HomeCrest   string    `db:"home_crest"`
	AwayCrest   string    `db:"away_crest"`
	KickoffUTC  time.Time `db:"kickoff_utc"`
	Status      string    `db:"status"`
}

func (m fixtureTableModel) toDomain() match.Fixture {
	return match.Fixture{
		Ordinal:     int(m.Ordinal),
		Competition: m.Competition,
		HomeTeam:    m.HomeTeam,
		AwayTeam:    m.AwayTeam,
		HomeCrest:   m.HomeCrest,
		AwayCrest:   m.AwayCrest,
		KickoffUTC:  m.KickoffUTC.UTC(),
		Status:      m.Status,
		HomeScore:   nullInt64ToIntPtr(m.HomeScore),
		AwayScore:   nullInt64ToIntPtr(m.AwayScore),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}
