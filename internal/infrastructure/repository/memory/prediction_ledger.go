package memory

import (
	"context"
	"sync"

	"github.com/Diego23-co/GoPredict/internal/domain/prediction"
)

type ledgerKey struct {
	username string
	ordinal  int
}

type PredictionLedger struct {
	mu      sync.RWMutex
	entries map[ledgerKey]prediction.Prediction
}

func NewPredictionLedger() *PredictionLedger {
	return &PredictionLedger{entries: make(map[ledgerKey]prediction.Prediction)}
}

func (l *PredictionLedger) Insert(_ context.Context, p prediction.Prediction) error {
	key := ledgerKey{username: p.Username, ordinal: p.FixtureOrdinal}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.entries[key]; exists {
		return prediction.ErrDuplicate
	}
	l.entries[key] = p
	return nil
}

func (l *PredictionLedger) Get(_ context.Context, username string, fixtureOrdinal int) (prediction.Prediction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.entries[ledgerKey{username: username, ordinal: fixtureOrdinal}]
	if !ok {
		return prediction.Prediction{}, prediction.ErrNotFound
	}
	return p, nil
}

func (l *PredictionLedger) ListByUser(_ context.Context, username string) ([]prediction.Prediction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]prediction.Prediction, 0)
	for key, p := range l.entries {
		if key.username == username {
			out = append(out, p)
		}
	}
	return out, nil
}

func (l *PredictionLedger) ListAll(_ context.Context) ([]prediction.Prediction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]prediction.Prediction, 0, len(l.entries))
	for _, p := range l.entries {
		out = append(out, p)
	}
	return out, nil
}

func (l *PredictionLedger) DeleteAll(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = make(map[ledgerKey]prediction.Prediction)
	return nil
}
