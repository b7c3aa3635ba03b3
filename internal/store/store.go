// Package store keeps the scored patients. Every backend is append-only and
// returns results in insertion order.
package store

import (
	"context"
	"sync"

	"github.com/Skufu/hearttriage/internal/triage"
)

// Store is the patient record store.
type Store interface {
	// Append adds a result at the end of the sequence.
	Append(ctx context.Context, result triage.PredictionResult) error

	// All returns a snapshot of every result in insertion order.
	All(ctx context.Context) ([]triage.PredictionResult, error)

	// Close releases the backend.
	Close() error
}

// HealthChecker is implemented by backends that can report connectivity.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// MemoryStore is a volatile, mutex-guarded store. Its contents are lost on
// restart.
type MemoryStore struct {
	mu      sync.RWMutex
	results []triage.PredictionResult
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Append(ctx context.Context, result triage.PredictionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, result.Clone())
	return nil
}

func (m *MemoryStore) All(ctx context.Context) ([]triage.PredictionResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]triage.PredictionResult, len(m.results))
	for i, r := range m.results {
		out[i] = r.Clone()
	}
	return out, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
