package core

import (
	"context"
	"time"
)

// HistoryStore is the queryable source of historical labeled emails used by
// the retrain orchestrator.
//
// Labels served by ListExamples are whatever the serving layer stored, which
// may include verdicts produced by an earlier model rather than human ground
// truth. A reviewed-label source can replace an implementation of this port
// without changing the orchestrator.
type HistoryStore interface {
	// Count returns the total number of stored examples.
	Count(ctx context.Context) (int, error)

	// CountSince returns the number of examples uploaded after t.
	CountSince(ctx context.Context, t time.Time) (int, error)

	// ListExamples returns all stored examples.
	ListExamples(ctx context.Context) ([]TrainingExample, error)

	// Insert stores a new labeled example.
	Insert(ctx context.Context, example TrainingExample) error

	// Close releases any underlying resources.
	Close() error
}
