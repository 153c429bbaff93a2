package view

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/C-Tharun/vitalsync/internal/models"
	"github.com/C-Tharun/vitalsync/internal/provider"
	"github.com/C-Tharun/vitalsync/internal/store"
	"github.com/C-Tharun/vitalsync/internal/syncer"
)

func f64(v float64) *float64 { return &v }
func ip(v int) *int          { return &v }
func i64(v int64) *int64     { return &v }
func sp(v string) *string    { return &v }

// testNow is midday so the full morning is in the day window.
var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *store.Memory, *store.Notifier) {
	t.Helper()
	st := store.NewMemory()
	n := store.NewNotifier()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sy := syncer.New(st, provider.NewStatic(), n, logger, time.UTC)

	e := NewEngine(st, sy, n, logger, time.UTC)
	e.now = func() time.Time { return testNow }
	t.Cleanup(e.Close)
	return e, st, n
}

func seed(t *testing.T, st store.Store, recs ...models.SampleRecord) {
	t.Helper()
	for _, r := range recs {
		require.NoError(t, st.Upsert(context.Background(), r))
	}
}

func TestSetUserBuildsDashboardFromLocalData(t *testing.T) {
	e, st, _ := newTestEngine(t)
	dayStart := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC).UnixMilli()
	seed(t, st,
		models.SampleRecord{UserID: "alice", Timestamp: dayStart + 1000, Steps: ip(4200)},
		models.SampleRecord{UserID: "alice", Timestamp: dayStart + 2000, HeartRateBPM: f64(71)},
		models.SampleRecord{UserID: "alice", Timestamp: dayStart + 3000, HeartRateBPM: f64(84)},
	)

	e.SetUser("alice", "Alice")

	dash := e.Dashboard()
	assert.Equal(t, "alice", dash.UserID)
	assert.Equal(t, "Alice", dash.DisplayName)
	require.NotNil(t, dash.Summary.Steps)
	assert.Equal(t, 4200.0, *dash.Summary.Steps)
	require.NotNil(t, dash.Summary.HeartRateBPM)
	assert.Equal(t, 84.0, *dash.Summary.HeartRateBPM)
	assert.Len(t, dash.StepsWeek.Points, 7)
}

func TestNoDataStaysNil(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.SetUser("alice", "Alice")

	dash := e.Dashboard()
	assert.Nil(t, dash.Summary.Steps)
	assert.Nil(t, dash.Summary.HeartRateBPM)
	assert.Nil(t, dash.Summary.SleepMinutes)
	assert.Len(t, dash.StepsWeek.Points, 7)
	for _, p := range dash.StepsWeek.Points {
		assert.Zero(t, p.Value)
	}
}

func TestSetUserResetsPreviousData(t *testing.T) {
	e, st, _ := newTestEngine(t)
	dayStart := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC).UnixMilli()
	seed(t, st, models.SampleRecord{UserID: "alice", Timestamp: dayStart + 1000, Steps: ip(4200)})

	e.SetUser("alice", "Alice")
	require.NotNil(t, e.Dashboard().Summary.Steps)

	e.SetUser("bob", "Bob")
	dash := e.Dashboard()
	assert.Equal(t, "bob", dash.UserID)
	assert.Nil(t, dash.Summary.Steps, "previous user's data must not leak")
}

func TestSelectBuildsHistoryImmediately(t *testing.T) {
	e, st, _ := newTestEngine(t)
	dayStart := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC).UnixMilli()
	halfHour := int64(30 * 60 * 1000)
	seed(t, st,
		models.SampleRecord{UserID: "alice", Timestamp: dayStart + 16*halfHour, Steps: ip(500)},
		models.SampleRecord{UserID: "alice", Timestamp: dayStart + 18*halfHour, Steps: ip(100)},
	)
	e.SetUser("alice", "Alice")

	e.Select(models.MetricSteps, dayStart+5000)

	hist := e.History()
	assert.Equal(t, models.MetricSteps, hist.Metric)
	assert.Equal(t, dayStart, hist.Date)
	require.NotNil(t, hist.Total)
	assert.Equal(t, 600.0, *hist.Total)
	require.NotNil(t, hist.Steps)
	// testNow is 12:00, so slots run through the noon half hour only.
	assert.Len(t, hist.Steps.Slots, 25)
	assert.Equal(t, 500, hist.Steps.Slots[16].Steps)
}

func TestSelectHeartRateIsDayBounded(t *testing.T) {
	e, st, _ := newTestEngine(t)
	dayStart := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC).UnixMilli()
	yesterdayEvening := time.Date(2025, 3, 9, 20, 0, 0, 0, time.UTC).UnixMilli()
	morning := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC).UnixMilli()
	seed(t, st,
		models.SampleRecord{UserID: "alice", Timestamp: yesterdayEvening, HeartRateBPM: f64(120)},
		models.SampleRecord{UserID: "alice", Timestamp: morning, HeartRateBPM: f64(70)},
	)
	e.SetUser("alice", "Alice")

	e.Select(models.MetricHeartRate, dayStart)

	hist := e.History()
	require.NotNil(t, hist.Bands)
	require.Len(t, hist.Bands.Bands, 1, "prior-day hours must not appear")
	assert.GreaterOrEqual(t, hist.Bands.Bands[0].HourStart, dayStart)
	require.NotNil(t, hist.Bands.MaxBPM)
	assert.Equal(t, 70.0, *hist.Bands.MaxBPM)
	require.Len(t, hist.Samples, 1)
	assert.Equal(t, morning, hist.Samples[0].Timestamp)
}

func TestSelectSleepUsesNightBuckets(t *testing.T) {
	e, st, _ := newTestEngine(t)
	// 23:30 the prior night into 00:30 today.
	lateNight := time.Date(2025, 3, 9, 23, 30, 0, 0, time.UTC).UnixMilli()
	afterMidnight := time.Date(2025, 3, 10, 0, 30, 0, 0, time.UTC).UnixMilli()
	seed(t, st,
		models.SampleRecord{UserID: "alice", Timestamp: lateNight, SleepMinutes: i64(60), ActivityLabel: sp("Light sleep")},
		models.SampleRecord{UserID: "alice", Timestamp: afterMidnight, SleepMinutes: i64(90), ActivityLabel: sp("Deep sleep")},
	)
	e.SetUser("alice", "Alice")

	dayStart := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC).UnixMilli()
	e.Select(models.MetricSleep, dayStart)

	hist := e.History()
	require.NotNil(t, hist.Sleep)
	require.Len(t, hist.Sleep.Nights, 1)
	night := hist.Sleep.Nights[0]
	assert.Equal(t, time.Date(2025, 3, 9, 18, 0, 0, 0, time.UTC).UnixMilli(), night.NightStart)
	assert.Equal(t, int64(150), night.Minutes)
}

func TestChangeEventTriggersRecompute(t *testing.T) {
	e, st, n := newTestEngine(t)
	e.SetUser("alice", "Alice")
	assert.Nil(t, e.Dashboard().Summary.Steps)

	// Drain any pending signal from SetUser before writing.
	select {
	case <-e.Updates():
	default:
	}

	dayStart := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC).UnixMilli()
	seed(t, st, models.SampleRecord{UserID: "alice", Timestamp: dayStart + 1000, Steps: ip(250)})
	n.Publish(store.ChangeEvent{UserID: "alice", Start: dayStart + 1000, End: dayStart + 1001})

	deadline := time.After(2 * time.Second)
	for {
		if s := e.Dashboard().Summary.Steps; s != nil {
			assert.Equal(t, 250.0, *s)
			return
		}
		select {
		case <-deadline:
			t.Fatal("dashboard never picked up the change event")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestChangeEventForOtherUserIgnored(t *testing.T) {
	e, st, n := newTestEngine(t)
	e.SetUser("alice", "Alice")

	dayStart := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC).UnixMilli()
	seed(t, st, models.SampleRecord{UserID: "bob", Timestamp: dayStart + 1000, Steps: ip(999)})
	n.Publish(store.ChangeEvent{UserID: "bob", Start: dayStart + 1000, End: dayStart + 1001})

	time.Sleep(50 * time.Millisecond)
	assert.Nil(t, e.Dashboard().Summary.Steps)
}

func TestStaleRecomputeDiscarded(t *testing.T) {
	e, st, _ := newTestEngine(t)
	dayStart := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC).UnixMilli()
	seed(t, st, models.SampleRecord{UserID: "alice", Timestamp: dayStart + 1000, Steps: ip(4200)})

	e.SetUser("alice", "Alice")

	e.mu.Lock()
	staleGen := e.generation
	e.mu.Unlock()

	// A newer selection supersedes the captured generation.
	e.Select(models.MetricSteps, dayStart)
	before := e.History()

	e.recompute(context.Background(), staleGen)
	assert.Equal(t, before, e.History(), "stale generation must not install views")
}
