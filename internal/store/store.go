// Package store defines the durable sample store contract and its backends.
// Records are keyed by (user, timestamp); the store performs plain keyed
// replacement — field-level merging happens in the sync layer before Upsert,
// so every backend stays a simple keyed table.
package store

import (
	"context"

	"github.com/C-Tharun/vitalsync/internal/models"
)

// Store is a keyed table of sample records.
type Store interface {
	// Upsert inserts or replaces the record at (record.UserID, record.Timestamp).
	Upsert(ctx context.Context, rec models.SampleRecord) error

	// GetByTimestamp returns the record at the exact key, or nil when absent.
	GetByTimestamp(ctx context.Context, userID string, ts int64) (*models.SampleRecord, error)

	// GetRange returns records with start <= Timestamp < end, ascending by
	// timestamp.
	GetRange(ctx context.Context, userID string, start, end int64) ([]models.SampleRecord, error)

	Close() error
}
