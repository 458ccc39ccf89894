package history

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/phishguard/phishing-filter/internal/core"
)

// MemoryHistory is an in-memory implementation of core.HistoryStore, used in
// tests and single-process deployments without a database.
type MemoryHistory struct {
	mu       sync.RWMutex
	examples []core.TrainingExample
	logger   *zap.Logger
}

// NewMemoryHistory creates an empty in-memory history store.
func NewMemoryHistory(logger *zap.Logger) *MemoryHistory {
	return &MemoryHistory{logger: logger}
}

// Insert stores a labeled example.
func (h *MemoryHistory) Insert(ctx context.Context, example core.TrainingExample) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if example.UploadedAt.IsZero() {
		example.UploadedAt = time.Now()
	}
	h.examples = append(h.examples, example)
	return nil
}

// Count returns the total number of stored examples.
func (h *MemoryHistory) Count(ctx context.Context) (int, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.examples), nil
}

// CountSince returns the number of examples uploaded after t.
func (h *MemoryHistory) CountSince(ctx context.Context, t time.Time) (int, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	count := 0
	for _, ex := range h.examples {
		if ex.UploadedAt.After(t) {
			count++
		}
	}
	return count, nil
}

// ListExamples returns a copy of all stored examples.
func (h *MemoryHistory) ListExamples(ctx context.Context) ([]core.TrainingExample, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	examples := make([]core.TrainingExample, len(h.examples))
	copy(examples, h.examples)
	return examples, nil
}

// Close is a no-op for the in-memory store.
func (h *MemoryHistory) Close() error {
	return nil
}
