package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Diego23-co/GoPredict/internal/domain/prediction"
)

func TestPredictionLedger_InsertRejectsDuplicate(t *testing.T) {
	t.Parallel()

	ledger := NewPredictionLedger()
	ctx := context.Background()
	p := prediction.Prediction{
		Username:       "alice",
		FixtureOrdinal: 1,
		PredictedHome:  2,
		PredictedAway:  1,
		SubmittedOn:    time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
	}

	if err := ledger.Insert(ctx, p); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := ledger.Insert(ctx, p); !errors.Is(err, prediction.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// A different fixture for the same user is fine.
	p.FixtureOrdinal = 2
	if err := ledger.Insert(ctx, p); err != nil {
		t.Fatalf("insert second fixture: %v", err)
	}
}

func TestPredictionLedger_DeleteAllClearsEveryUser(t *testing.T) {
	t.Parallel()

	ledger := NewPredictionLedger()
	ctx := context.Background()
	for i, user := range []string{"alice", "bob", "carol"} {
		err := ledger.Insert(ctx, prediction.Prediction{Username: user, FixtureOrdinal: i + 1})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	if err := ledger.DeleteAll(ctx); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	all, err := ledger.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty ledger, got %d entries", len(all))
	}
}

func TestPredictionLedger_ListByUser(t *testing.T) {
	t.Parallel()

	ledger := NewPredictionLedger()
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		if err := ledger.Insert(ctx, prediction.Prediction{Username: "alice", FixtureOrdinal: i}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if err := ledger.Insert(ctx, prediction.Prediction{Username: "bob", FixtureOrdinal: 1}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	mine, err := ledger.ListByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(mine) != 3 {
		t.Fatalf("expected 3 entries for alice, got %d", len(mine))
	}
}
