// Package syncer pulls metric data from the upstream provider and merges it
// into the local store. Fetches are read-only against the provider; every
// write goes through a field-level merge so a sync for one metric never
// erases values another metric already stored at the same timestamp.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/C-Tharun/vitalsync/internal/aggregate"
	"github.com/C-Tharun/vitalsync/internal/models"
	"github.com/C-Tharun/vitalsync/internal/provider"
	"github.com/C-Tharun/vitalsync/internal/store"
)

const (
	// Sleep sessions start the evening before, so sleep queries always
	// look back 36 hours from the requested end.
	sleepLookback = 36 * time.Hour

	// Heart rate ranges longer than a day are fetched as per-minute
	// aggregates instead of raw samples.
	rawHeartRateLimit = 24 * time.Hour

	keyStripes = 64
)

// Syncer orchestrates provider pulls and merge-upserts.
type Syncer struct {
	store    store.Store
	provider provider.Provider
	notifier *store.Notifier
	logger   *slog.Logger
	loc      *time.Location

	now func() time.Time

	// stripes serialize read-merge-upsert per (user, timestamp) key so
	// concurrent metric syncs cannot clobber each other's fields.
	stripes [keyStripes]sync.Mutex
}

// New creates a syncer. The notifier may be nil when no one observes changes.
func New(st store.Store, p provider.Provider, n *store.Notifier, logger *slog.Logger, loc *time.Location) *Syncer {
	return &Syncer{
		store:    st,
		provider: p,
		notifier: n,
		logger:   logger,
		loc:      loc,
		now:      time.Now,
	}
}

func (s *Syncer) stripe(userID string, ts int64) *sync.Mutex {
	h := fnv.New64a()
	h.Write([]byte(userID))
	h.Write([]byte(strconv.FormatInt(ts, 10)))
	return &s.stripes[h.Sum64()%keyStripes]
}

// SyncMetric fetches kind for [start, end) and merges the results into the
// store. Provider failures are logged and swallowed; the local data is left
// exactly as it was. Store failures are returned.
func (s *Syncer) SyncMetric(ctx context.Context, userID string, kind models.MetricKind, start, end int64) error {
	jobID := uuid.NewString()
	log := s.logger.With("job_id", jobID, "metric", string(kind), "user", userID)
	syncsTotal.WithLabelValues(string(kind)).Inc()

	recs, err := s.fetch(ctx, userID, kind, start, end)
	if err != nil {
		syncFailures.WithLabelValues(string(kind)).Inc()
		if errors.Is(err, provider.ErrNotAuthenticated) {
			log.Info("provider not authenticated, skipping sync")
		} else {
			log.Warn("provider fetch failed", "error", err)
		}
		return nil
	}
	if len(recs) == 0 {
		log.Debug("no samples in window", "start", start, "end", end)
		return nil
	}

	if err := s.mergeBatch(ctx, kind, recs); err != nil {
		return err
	}
	log.Info("sync complete", "samples", len(recs))
	return nil
}

// fetch queries the provider with the access pattern each kind needs and
// normalizes the response into sample records.
func (s *Syncer) fetch(ctx context.Context, userID string, kind models.MetricKind, start, end int64) ([]models.SampleRecord, error) {
	switch kind {
	case models.MetricSleep:
		segs, err := s.provider.FetchSegments(ctx, kind, end-sleepLookback.Milliseconds(), end)
		if err != nil {
			return nil, err
		}
		return sleepRecords(userID, segs, kind), nil

	case models.MetricActivity:
		segs, err := s.provider.FetchSegments(ctx, kind, start, end)
		if err != nil {
			return nil, err
		}
		return activityRecords(userID, segs, kind), nil

	case models.MetricHeartRate:
		if end-start > rawHeartRateLimit.Milliseconds() {
			buckets, err := s.provider.FetchBucketed(ctx, kind, start, end, time.Minute)
			if err != nil {
				return nil, err
			}
			return bucketRecords(userID, kind, buckets), nil
		}
		samples, err := s.provider.FetchSamples(ctx, kind, start, end)
		if err != nil {
			return nil, err
		}
		recs := make([]models.SampleRecord, 0, len(samples))
		for _, smp := range samples {
			v := smp.Value
			recs = append(recs, models.SampleRecord{
				UserID: userID, Timestamp: smp.Timestamp, HeartRateBPM: &v,
			})
		}
		return recs, nil

	case models.MetricSteps, models.MetricCalories, models.MetricDistance, models.MetricHeartPoints:
		width := 30 * time.Minute
		if end-start > 24*time.Hour.Milliseconds() {
			width = 24 * time.Hour
		}
		buckets, err := s.provider.FetchBucketed(ctx, kind, start, end, width)
		if err != nil {
			return nil, err
		}
		return bucketRecords(userID, kind, buckets), nil

	default:
		return nil, fmt.Errorf("unknown metric kind %q", kind)
	}
}

// sleepRecords turns stage segments into records keyed by segment start,
// with the duration in minutes and the stage label. Zero-length segments
// are dropped.
func sleepRecords(userID string, segs []provider.Segment, kind models.MetricKind) []models.SampleRecord {
	recs := make([]models.SampleRecord, 0, len(segs))
	for _, seg := range segs {
		minutes := (seg.End - seg.Start) / 60_000
		if minutes <= 0 {
			samplesDropped.WithLabelValues(string(kind)).Inc()
			continue
		}
		label := seg.Label
		if label == "" {
			label = models.SleepStage(seg.Stage).Label()
		}
		m, l := minutes, label
		recs = append(recs, models.SampleRecord{
			UserID: userID, Timestamp: seg.Start, SleepMinutes: &m, ActivityLabel: &l,
		})
	}
	return recs
}

func activityRecords(userID string, segs []provider.Segment, kind models.MetricKind) []models.SampleRecord {
	recs := make([]models.SampleRecord, 0, len(segs))
	for _, seg := range segs {
		if seg.Label == "" {
			samplesDropped.WithLabelValues(string(kind)).Inc()
			continue
		}
		l := seg.Label
		recs = append(recs, models.SampleRecord{
			UserID: userID, Timestamp: seg.Start, ActivityLabel: &l,
		})
	}
	return recs
}

func bucketRecords(userID string, kind models.MetricKind, buckets []provider.Bucket) []models.SampleRecord {
	recs := make([]models.SampleRecord, 0, len(buckets))
	for _, b := range buckets {
		rec := models.SampleRecord{UserID: userID, Timestamp: b.Start}
		switch kind {
		case models.MetricHeartRate:
			v := b.Value
			rec.HeartRateBPM = &v
		case models.MetricSteps:
			v := int(b.Value)
			rec.Steps = &v
		case models.MetricCalories:
			v := b.Value
			rec.Calories = &v
		case models.MetricDistance:
			v := b.Value
			rec.DistanceKm = &v
		case models.MetricHeartPoints:
			v := int(b.Value)
			rec.HeartPoints = &v
		default:
			samplesDropped.WithLabelValues(string(kind)).Inc()
			continue
		}
		recs = append(recs, rec)
	}
	return recs
}

// mergeBatch merge-upserts every record then publishes one change event
// covering the batch's timestamp span.
func (s *Syncer) mergeBatch(ctx context.Context, kind models.MetricKind, recs []models.SampleRecord) error {
	minTs, maxTs := recs[0].Timestamp, recs[0].Timestamp
	for _, rec := range recs {
		if err := s.mergeUpsert(ctx, rec); err != nil {
			return fmt.Errorf("merging sample at %d: %w", rec.Timestamp, err)
		}
		samplesMerged.WithLabelValues(string(kind)).Inc()
		if rec.Timestamp < minTs {
			minTs = rec.Timestamp
		}
		if rec.Timestamp > maxTs {
			maxTs = rec.Timestamp
		}
	}

	if s.notifier != nil {
		s.notifier.Publish(store.ChangeEvent{
			UserID: recs[0].UserID, Start: minTs, End: maxTs + 1,
		})
	}
	return nil
}

// mergeUpsert performs the read-merge-write for one record under its key's
// stripe lock.
func (s *Syncer) mergeUpsert(ctx context.Context, rec models.SampleRecord) error {
	mu := s.stripe(rec.UserID, rec.Timestamp)
	mu.Lock()
	defer mu.Unlock()

	existing, err := s.store.GetByTimestamp(ctx, rec.UserID, rec.Timestamp)
	if err != nil {
		return err
	}
	return s.store.Upsert(ctx, models.Merge(existing, rec))
}

// SyncHistory syncs kind over [start, end), then backfills activity
// sessions for the same window so history views can label their samples.
// Sleep and activity skip the backfill.
func (s *Syncer) SyncHistory(ctx context.Context, userID string, kind models.MetricKind, start, end int64) error {
	if err := s.SyncMetric(ctx, userID, kind, start, end); err != nil {
		return err
	}
	if kind == models.MetricActivity || kind == models.MetricSleep {
		return nil
	}
	return s.SyncMetric(ctx, userID, models.MetricActivity, start, end)
}

// SyncAllMetricsForToday syncs every kind concurrently over
// [local midnight, now).
func (s *Syncer) SyncAllMetricsForToday(ctx context.Context, userID string) error {
	now := s.now().UnixMilli()
	dayStart := aggregate.DayStart(now, s.loc)

	var wg sync.WaitGroup
	errs := make([]error, len(models.AllMetricKinds()))
	for i, kind := range models.AllMetricKinds() {
		wg.Add(1)
		go func(i int, kind models.MetricKind) {
			defer wg.Done()
			errs[i] = s.SyncMetric(ctx, userID, kind, dayStart, now)
		}(i, kind)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// SyncLastWeek syncs the trailing seven days for every kind except heart
// points, which only matter for the current day.
func (s *Syncer) SyncLastWeek(ctx context.Context, userID string) error {
	now := s.now().UnixMilli()
	start := aggregate.AddDays(aggregate.DayStart(now, s.loc), -6, s.loc)

	var wg sync.WaitGroup
	kinds := models.AllMetricKinds()
	errs := make([]error, len(kinds))
	for i, kind := range kinds {
		if kind == models.MetricHeartPoints {
			continue
		}
		wg.Add(1)
		go func(i int, kind models.MetricKind) {
			defer wg.Done()
			errs[i] = s.SyncMetric(ctx, userID, kind, start, now)
		}(i, kind)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// SyncTodaySummary builds a single snapshot record at ts=now: the latest
// heart rate today, daily totals, the most recent night's sleep, and the
// last activity session's label. Each field is fetched independently and a
// failed fetch just leaves that field empty.
func (s *Syncer) SyncTodaySummary(ctx context.Context, userID string) error {
	now := s.now().UnixMilli()
	dayStart := aggregate.DayStart(now, s.loc)
	jobID := uuid.NewString()
	log := s.logger.With("job_id", jobID, "user", userID)

	rec := models.SampleRecord{UserID: userID, Timestamp: now}

	if samples, err := s.provider.FetchSamples(ctx, models.MetricHeartRate, dayStart, now); err != nil {
		log.Warn("summary heart rate fetch failed", "error", err)
	} else if len(samples) > 0 {
		latest := samples[0]
		for _, smp := range samples[1:] {
			if smp.Timestamp > latest.Timestamp {
				latest = smp
			}
		}
		rec.HeartRateBPM = &latest.Value
	}

	if v, err := s.provider.FetchAggregate(ctx, models.MetricSteps, dayStart, now); err != nil {
		log.Warn("summary steps fetch failed", "error", err)
	} else {
		steps := int(v)
		rec.Steps = &steps
	}
	if v, err := s.provider.FetchAggregate(ctx, models.MetricCalories, dayStart, now); err != nil {
		log.Warn("summary calories fetch failed", "error", err)
	} else {
		rec.Calories = &v
	}
	if v, err := s.provider.FetchAggregate(ctx, models.MetricDistance, dayStart, now); err != nil {
		log.Warn("summary distance fetch failed", "error", err)
	} else {
		rec.DistanceKm = &v
	}

	if segs, err := s.provider.FetchSegments(ctx, models.MetricSleep, now-sleepLookback.Milliseconds(), now); err != nil {
		log.Warn("summary sleep fetch failed", "error", err)
	} else {
		sleepRecs := sleepRecords(userID, segs, models.MetricSleep)
		if minutes, ok := aggregate.MostRecentNightSleep(sleepRecs, now, s.loc); ok {
			rec.SleepMinutes = &minutes
		}
	}

	if segs, err := s.provider.FetchSegments(ctx, models.MetricActivity, dayStart, now); err != nil {
		log.Warn("summary activity fetch failed", "error", err)
	} else if len(segs) > 0 {
		last := segs[0]
		for _, seg := range segs[1:] {
			if seg.End > last.End {
				last = seg
			}
		}
		if last.Label != "" {
			rec.ActivityLabel = &last.Label
		}
	}

	if err := s.mergeUpsert(ctx, rec); err != nil {
		return fmt.Errorf("storing today summary: %w", err)
	}
	if s.notifier != nil {
		s.notifier.Publish(store.ChangeEvent{UserID: userID, Start: now, End: now + 1})
	}
	log.Info("today summary synced")
	return nil
}
