package prediction

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("prediction not found")
	ErrDuplicate = errors.New("prediction already exists")
)

// Ledger is the durable (username, fixture ordinal) -> prediction map.
// The submission service serializes check-then-insert per user; the
// ledger itself only has to keep individual operations atomic.
type Ledger interface {
	// Insert stores a new entry, returning ErrDuplicate when the
	// (username, fixture ordinal) pair already exists.
	Insert(ctx context.Context, p Prediction) error

	// Get returns ErrNotFound when the user has no entry for the fixture.
	Get(ctx context.Context, username string, fixtureOrdinal int) (Prediction, error)

	ListByUser(ctx context.Context, username string) ([]Prediction, error)

	// ListAll returns a snapshot of the whole ledger.
	ListAll(ctx context.Context) ([]Prediction, error)

	// DeleteAll irreversibly clears every entry for every user.
	DeleteAll(ctx context.Context) error
}
