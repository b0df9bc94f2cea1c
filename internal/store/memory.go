package store

import (
	"context"
	"sync"
)

// MemoryBackend keeps rows in process memory. Used for dry runs and tests.
type MemoryBackend struct {
	mu   sync.Mutex
	rows []Row
}

func NewMemoryBackend(rows ...Row) *MemoryBackend {
	return &MemoryBackend{rows: append([]Row(nil), rows...)}
}

func (m *MemoryBackend) Name() string                   { return "memory" }
func (m *MemoryBackend) Ensure(_ context.Context) error { return nil }
func (m *MemoryBackend) Close() error                   { return nil }

func (m *MemoryBackend) ReadAll(_ context.Context) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Row(nil), m.rows...), nil
}

func (m *MemoryBackend) ReplaceAll(_ context.Context, rows []Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append([]Row(nil), rows...)
	return nil
}
