package store

import (
	"context"
	"sort"
	"sync"

	"github.com/C-Tharun/vitalsync/internal/models"
)

// Memory stores sample records in memory. Data is lost on restart; meant for
// tests and development.
type Memory struct {
	mu   sync.RWMutex
	recs map[memKey]models.SampleRecord
}

type memKey struct {
	userID string
	ts     int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{recs: make(map[memKey]models.SampleRecord)}
}

// Upsert inserts or replaces the record at its key.
func (m *Memory) Upsert(_ context.Context, rec models.SampleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[memKey{rec.UserID, rec.Timestamp}] = rec
	return nil
}

// GetByTimestamp returns the record at the exact key, or nil.
func (m *Memory) GetByTimestamp(_ context.Context, userID string, ts int64) (*models.SampleRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.recs[memKey{userID, ts}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// GetRange returns records in [start, end), ascending by timestamp.
func (m *Memory) GetRange(_ context.Context, userID string, start, end int64) ([]models.SampleRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.SampleRecord
	for key, rec := range m.recs {
		if key.userID != userID || key.ts < start || key.ts >= end {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Timestamp < out[b].Timestamp })
	return out, nil
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() error { return nil }
