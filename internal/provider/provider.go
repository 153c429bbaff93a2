// Package provider abstracts the upstream fitness platform the sync engine
// pulls from. The engine only ever reads: queries are expressed as metric
// kind plus a millisecond window, and results come back as point samples,
// window totals, fixed-width buckets, or labelled segments.
package provider

import (
	"context"
	"errors"
	"time"

	"github.com/C-Tharun/vitalsync/internal/models"
)

// ErrNotAuthenticated is returned when the upstream account has no valid
// credentials. Sync treats it as a quiet skip rather than a failure.
var ErrNotAuthenticated = errors.New("provider: not authenticated")

// Sample is a single point reading from the platform.
type Sample struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// Bucket is an aggregate over a fixed window [Start, End).
type Bucket struct {
	Start int64   `json:"start"`
	End   int64   `json:"end"`
	Value float64 `json:"value"`
}

// Segment is a labelled span, used for sleep stages and activity sessions.
type Segment struct {
	Start int64  `json:"start"`
	End   int64  `json:"end"`
	Label string `json:"label"`
	Stage int    `json:"stage,omitempty"`
}

// Duration returns the segment length.
func (s Segment) Duration() time.Duration {
	return time.Duration(s.End-s.Start) * time.Millisecond
}

// Provider is the read-side contract against the upstream platform.
type Provider interface {
	// FetchSamples returns raw point readings for kind in [start, end).
	FetchSamples(ctx context.Context, kind models.MetricKind, start, end int64) ([]Sample, error)

	// FetchAggregate returns the single total for kind over [start, end).
	FetchAggregate(ctx context.Context, kind models.MetricKind, start, end int64) (float64, error)

	// FetchBucketed returns totals for kind in [start, end) split into
	// windows of the given width.
	FetchBucketed(ctx context.Context, kind models.MetricKind, start, end int64, bucket time.Duration) ([]Bucket, error)

	// FetchSegments returns labelled spans for kind in [start, end).
	// Only sleep and activity kinds have segments.
	FetchSegments(ctx context.Context, kind models.MetricKind, start, end int64) ([]Segment, error)
}
