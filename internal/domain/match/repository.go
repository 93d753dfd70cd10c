package match

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("fixture not found")

type UpsertOutcome string

const (
	UpsertCreated UpsertOutcome = "created"
	UpsertMerged  UpsertOutcome = "merged"
)

// Store is the durable fixture collection. Implementations must make
// every read-modify-write atomic with respect to concurrent callers:
// the reconciler jobs and request handlers share one store.
type Store interface {
	// UpsertFromFeed inserts the candidate if its dedup key is new,
	// assigning the next ordinal with status UPCOMING and null scores.
	// A known key is a creation no-op: the existing record stays
	// authoritative and UpsertMerged is returned.
	UpsertFromFeed(ctx context.Context, candidate Candidate) (UpsertOutcome, error)

	// Get returns ErrNotFound when no fixture has the ordinal.
	Get(ctx context.Context, ordinal int) (Fixture, error)

	// List returns a snapshot of every fixture in ordinal order.
	List(ctx context.Context) ([]Fixture, error)

	// UpdateStatusAndScore stores the supplied status verbatim along
	// with the phase-derived scores, stamping UpdatedAt.
	UpdateStatusAndScore(ctx context.Context, ordinal int, status string, homeScore, awayScore *int) error
}
