// Package view maintains derived read models over the local store. Views
// are immutable snapshots rebuilt from store queries; they never reach out
// to the provider themselves.
package view

import (
	"context"
	"time"

	"github.com/C-Tharun/vitalsync/internal/aggregate"
	"github.com/C-Tharun/vitalsync/internal/models"
	"github.com/C-Tharun/vitalsync/internal/store"
)

// DailySummaryView is the dashboard headline for one day. Pointer fields
// distinguish "no data yet" from a real zero.
type DailySummaryView struct {
	Date          int64    `json:"date"`
	HeartRateBPM  *float64 `json:"heart_rate_bpm,omitempty"`
	Steps         *float64 `json:"steps,omitempty"`
	Calories      *float64 `json:"calories,omitempty"`
	DistanceKm    *float64 `json:"distance_km,omitempty"`
	SleepMinutes  *int64   `json:"sleep_minutes,omitempty"`
	ActivityLabel *string  `json:"activity_label,omitempty"`
	ActivityAt    *int64   `json:"activity_at,omitempty"`
	HeartPoints   *float64 `json:"heart_points,omitempty"`
	WeightKg      *float64 `json:"weight_kg,omitempty"`
	FloorsClimbed *float64 `json:"floors_climbed,omitempty"`
	MoveMinutes   *float64 `json:"move_minutes,omitempty"`
}

// WeeklySeriesView is a fixed seven-day series, oldest first.
type WeeklySeriesView struct {
	Metric models.MetricKind       `json:"metric"`
	Points []aggregate.SeriesPoint `json:"points"`
}

// NightlySleepView lists per-night sleep totals, oldest first.
type NightlySleepView struct {
	Nights []aggregate.NightTotal `json:"nights"`
}

// HourlyHeartRateBandView holds sparse per-hour min/max heart rate bands
// plus the overall range across the loaded window.
type HourlyHeartRateBandView struct {
	Bands  []aggregate.Band `json:"bands"`
	MinBPM *float64         `json:"min_bpm,omitempty"`
	MaxBPM *float64         `json:"max_bpm,omitempty"`
}

// StepRollupView holds the half-hour step chart for one day. Future slots
// are omitted when the day is today.
type StepRollupView struct {
	Date  int64                `json:"date"`
	Slots []aggregate.StepSlot `json:"slots"`
}

// HistoryView is the per-metric drill-down for a selected day.
type HistoryView struct {
	Metric  models.MetricKind     `json:"metric"`
	Date    int64                 `json:"date"`
	Total   *float64              `json:"total,omitempty"`
	Samples []models.SampleRecord `json:"samples"`

	Steps  *StepRollupView          `json:"steps,omitempty"`
	Bands  *HourlyHeartRateBandView `json:"heart_rate_bands,omitempty"`
	Sleep  *NightlySleepView        `json:"sleep,omitempty"`
	Hourly []aggregate.TimedValue   `json:"hourly,omitempty"`
}

// DashboardView bundles everything the dashboard shows at once.
type DashboardView struct {
	UserID      string           `json:"user_id"`
	DisplayName string           `json:"display_name,omitempty"`
	Summary     DailySummaryView `json:"summary"`
	StepsWeek   WeeklySeriesView `json:"steps_week"`
	CalWeek     WeeklySeriesView `json:"calories_week"`
	GeneratedAt int64            `json:"generated_at"`
}

// BuildDailySummary computes the day headline from records in
// [dayStart-36h, now] so the sleep lookback is covered.
func BuildDailySummary(recs []models.SampleRecord, now int64, loc *time.Location) DailySummaryView {
	dayStart := aggregate.DayStart(now, loc)
	out := DailySummaryView{Date: dayStart}

	if latest := aggregate.LatestForDay(recs, models.MetricHeartRate, dayStart, now+1); latest != nil {
		out.HeartRateBPM = latest.HeartRateBPM
	}
	if v, ok := aggregate.TotalForDay(recs, models.MetricSteps, dayStart, loc); ok {
		out.Steps = &v
	}
	if v, ok := aggregate.TotalForDay(recs, models.MetricCalories, dayStart, loc); ok {
		out.Calories = &v
	}
	if v, ok := aggregate.TotalForDay(recs, models.MetricDistance, dayStart, loc); ok {
		out.DistanceKm = &v
	}
	if v, ok := aggregate.TotalForDay(recs, models.MetricHeartPoints, dayStart, loc); ok {
		out.HeartPoints = &v
	}
	if minutes, ok := aggregate.MostRecentNightSleep(recs, now, loc); ok {
		out.SleepMinutes = &minutes
	}
	if latest := aggregate.LatestForDay(recs, models.MetricActivity, dayStart, now+1); latest != nil {
		out.ActivityLabel = latest.ActivityLabel
		ts := latest.Timestamp
		out.ActivityAt = &ts
	}

	// Body measurements are latest-value, not summed.
	for i := len(recs) - 1; i >= 0; i-- {
		r := recs[i]
		if r.Timestamp < dayStart || r.Timestamp > now {
			continue
		}
		if out.WeightKg == nil && r.WeightKg != nil {
			out.WeightKg = r.WeightKg
		}
		if out.FloorsClimbed == nil && r.FloorsClimbed != nil {
			out.FloorsClimbed = r.FloorsClimbed
		}
		if out.MoveMinutes == nil && r.MoveMinutes != nil {
			v := float64(*r.MoveMinutes)
			out.MoveMinutes = &v
		}
	}
	return out
}

// BuildHistory computes the drill-down view for a metric on a day, using
// whatever the local store already holds. The view is day-bounded for every
// kind but sleep, whose night starts the prior evening.
func BuildHistory(recs []models.SampleRecord, kind models.MetricKind, dayStart, now int64, loc *time.Location) HistoryView {
	if kind != models.MetricSleep {
		recs = filterDay(recs, dayStart, loc)
	}
	out := HistoryView{Metric: kind, Date: dayStart, Samples: filterByKind(recs, kind)}

	switch kind {
	case models.MetricSteps:
		if v, ok := aggregate.TotalForDay(recs, kind, dayStart, loc); ok {
			out.Total = &v
		}
		out.Steps = &StepRollupView{Date: dayStart, Slots: aggregate.HalfHourSteps(recs, dayStart, now)}

	case models.MetricHeartRate:
		bands := &HourlyHeartRateBandView{Bands: aggregate.HourlyBands(recs)}
		if lo, hi, ok := aggregate.HeartRateRange(recs); ok {
			bands.MinBPM, bands.MaxBPM = &lo, &hi
		}
		out.Bands = bands

	case models.MetricSleep:
		total := aggregate.TotalSleepForDay(recs, dayStart, loc)
		v := float64(total)
		out.Total = &v
		out.Sleep = &NightlySleepView{Nights: aggregate.NightlySleep(recs, loc)}

	case models.MetricCalories, models.MetricDistance, models.MetricHeartPoints:
		if v, ok := aggregate.TotalForDay(recs, kind, dayStart, loc); ok {
			out.Total = &v
		}
		out.Hourly = aggregate.HourlyTotals(recs, kind)
	}
	return out
}

func filterByKind(recs []models.SampleRecord, kind models.MetricKind) []models.SampleRecord {
	out := make([]models.SampleRecord, 0, len(recs))
	for _, r := range recs {
		if kind.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

func filterDay(recs []models.SampleRecord, dayStart int64, loc *time.Location) []models.SampleRecord {
	dayEnd := aggregate.AddDays(dayStart, 1, loc)
	out := make([]models.SampleRecord, 0, len(recs))
	for _, r := range recs {
		if r.Timestamp >= dayStart && r.Timestamp < dayEnd {
			out = append(out, r)
		}
	}
	return out
}

// queryWindow loads the record window a dashboard rebuild needs: the
// trailing week plus the sleep lookback before it.
func queryWindow(ctx context.Context, st store.Store, userID string, now int64, loc *time.Location) ([]models.SampleRecord, error) {
	start := aggregate.AddDays(aggregate.DayStart(now, loc), -7, loc)
	return st.GetRange(ctx, userID, start, now+1)
}
