package provider

import (
	"context"
	"sync"
	"time"

	"github.com/C-Tharun/vitalsync/internal/models"
)

// Static serves canned data keyed by metric kind. It backs tests and the
// offline demo mode; every fetch filters the canned set to the requested
// window.
type Static struct {
	mu       sync.Mutex
	samples  map[models.MetricKind][]Sample
	segments map[models.MetricKind][]Segment

	// Err, when set, is returned by every fetch.
	Err error

	calls int
}

// NewStatic creates an empty static provider.
func NewStatic() *Static {
	return &Static{
		samples:  make(map[models.MetricKind][]Sample),
		segments: make(map[models.MetricKind][]Segment),
	}
}

// AddSamples appends canned point readings for kind.
func (s *Static) AddSamples(kind models.MetricKind, samples ...Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples[kind] = append(s.samples[kind], samples...)
}

// AddSegments appends canned labelled spans for kind.
func (s *Static) AddSegments(kind models.MetricKind, segs ...Segment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segments[kind] = append(s.segments[kind], segs...)
}

// Calls reports how many fetches have been served.
func (s *Static) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// sampleWindow counts one served fetch and returns the canned samples in
// [start, end). Each exported method goes through it exactly once so Calls
// tracks logical fetches.
func (s *Static) sampleWindow(kind models.MetricKind, start, end int64) ([]Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.Err != nil {
		return nil, s.Err
	}

	var out []Sample
	for _, smp := range s.samples[kind] {
		if smp.Timestamp >= start && smp.Timestamp < end {
			out = append(out, smp)
		}
	}
	return out, nil
}

func (s *Static) FetchSamples(ctx context.Context, kind models.MetricKind, start, end int64) ([]Sample, error) {
	return s.sampleWindow(kind, start, end)
}

func (s *Static) FetchAggregate(ctx context.Context, kind models.MetricKind, start, end int64) (float64, error) {
	samples, err := s.sampleWindow(kind, start, end)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, smp := range samples {
		total += smp.Value
	}
	return total, nil
}

func (s *Static) FetchBucketed(ctx context.Context, kind models.MetricKind, start, end int64, bucket time.Duration) ([]Bucket, error) {
	samples, err := s.sampleWindow(kind, start, end)
	if err != nil {
		return nil, err
	}

	width := bucket.Milliseconds()
	totals := make(map[int64]float64)
	for _, smp := range samples {
		slot := start + ((smp.Timestamp-start)/width)*width
		totals[slot] += smp.Value
	}

	var out []Bucket
	for slot := start; slot < end; slot += width {
		v, ok := totals[slot]
		if !ok {
			continue
		}
		out = append(out, Bucket{Start: slot, End: slot + width, Value: v})
	}
	return out, nil
}

func (s *Static) FetchSegments(ctx context.Context, kind models.MetricKind, start, end int64) ([]Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.Err != nil {
		return nil, s.Err
	}

	var out []Segment
	for _, seg := range s.segments[kind] {
		if seg.End > start && seg.Start < end {
			out = append(out, seg)
		}
	}
	return out, nil
}
