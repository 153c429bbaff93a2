package aggregate

import (
	"testing"
	"time"

	"github.com/C-Tharun/vitalsync/internal/models"
)

func f64(v float64) *float64 { return &v }
func ip(v int) *int          { return &v }
func i64(v int64) *int64     { return &v }

func at(t time.Time) int64 { return t.UnixMilli() }

func sleepRec(ts int64, minutes int64, stage models.SleepStage) models.SampleRecord {
	label := stage.Label()
	return models.SampleRecord{
		UserID:        "u1",
		Timestamp:     ts,
		SleepMinutes:  i64(minutes),
		ActivityLabel: &label,
	}
}

// TestTotalForDayDistinguishesNoData verifies that a day with no contributing
// samples reports no data, while a day summing to zero reports a true zero.
func TestTotalForDayDistinguishesNoData(t *testing.T) {
	loc := time.UTC
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)

	recs := []models.SampleRecord{
		{UserID: "u1", Timestamp: at(day.Add(9 * time.Hour)), Steps: ip(0)},
		{UserID: "u1", Timestamp: at(day.Add(26 * time.Hour)), Steps: ip(900)}, // next day
	}

	sum, ok := TotalForDay(recs, models.MetricSteps, at(day), loc)
	if !ok || sum != 0 {
		t.Errorf("day with one zero sample: got (%v, %v), want (0, true)", sum, ok)
	}

	if _, ok := TotalForDay(recs, models.MetricCalories, at(day), loc); ok {
		t.Error("day with no calorie samples should report no data")
	}
}

// TestTotalForDayWindow verifies the [dayStart, dayStart+24h) boundary.
func TestTotalForDayWindow(t *testing.T) {
	loc := time.UTC
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)

	recs := []models.SampleRecord{
		{UserID: "u1", Timestamp: at(day), Steps: ip(100)},                             // inclusive start
		{UserID: "u1", Timestamp: at(day.Add(24*time.Hour)) - 1, Steps: ip(200)},       // last milli
		{UserID: "u1", Timestamp: at(day.Add(24 * time.Hour)), Steps: ip(400)},         // next day
		{UserID: "u1", Timestamp: at(day.Add(-time.Millisecond)), Steps: ip(800)},      // prior day
	}

	sum, ok := TotalForDay(recs, models.MetricSteps, at(day), loc)
	if !ok || sum != 300 {
		t.Errorf("TotalForDay = (%v, %v), want (300, true)", sum, ok)
	}
}

// TestLatestForDay verifies latest-value selection skips records missing the
// field and returns nil when no record carries it.
func TestLatestForDay(t *testing.T) {
	loc := time.UTC
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)
	end := at(day.Add(24 * time.Hour))

	recs := []models.SampleRecord{
		{UserID: "u1", Timestamp: at(day.Add(8 * time.Hour)), HeartRateBPM: f64(70)},
		{UserID: "u1", Timestamp: at(day.Add(10 * time.Hour)), Steps: ip(500)}, // later, but no HR
		{UserID: "u1", Timestamp: at(day.Add(9 * time.Hour)), HeartRateBPM: f64(74)},
	}

	got := LatestForDay(recs, models.MetricHeartRate, at(day), end)
	if got == nil || *got.HeartRateBPM != 74 {
		t.Fatalf("LatestForDay heart rate = %+v, want record with 74", got)
	}

	if got := LatestForDay(recs, models.MetricActivity, at(day), end); got != nil {
		t.Errorf("LatestForDay activity = %+v, want nil", got)
	}
}

// TestWeeklySeriesCompleteness verifies the series always has exactly 7
// entries, oldest to newest, with missing days valued 0.
func TestWeeklySeriesCompleteness(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, loc) // a Monday

	recs := []models.SampleRecord{
		{UserID: "u1", Timestamp: at(now.Add(-2 * time.Hour)), Steps: ip(1000)},                      // today
		{UserID: "u1", Timestamp: at(time.Date(2025, 3, 8, 9, 0, 0, 0, loc)), Steps: ip(700)},        // Saturday
		{UserID: "u1", Timestamp: at(time.Date(2025, 3, 8, 20, 0, 0, 0, loc)), Steps: ip(300)},       // Saturday
		{UserID: "u1", Timestamp: at(time.Date(2025, 2, 20, 9, 0, 0, 0, loc)), Steps: ip(9999)},      // outside window
	}

	series := WeeklySeries(recs, models.MetricSteps, at(now), loc)
	if len(series) != 7 {
		t.Fatalf("len(series) = %d, want 7", len(series))
	}
	if series[0].Label != "Tue" || series[6].Label != "Mon" {
		t.Errorf("labels = %q..%q, want Tue..Mon", series[0].Label, series[6].Label)
	}
	if series[6].Value != 1000 {
		t.Errorf("today = %v, want 1000", series[6].Value)
	}
	if series[4].Value != 1000 { // Saturday, two samples
		t.Errorf("saturday = %v, want 1000", series[4].Value)
	}
	for _, idx := range []int{0, 1, 2, 3, 5} {
		if series[idx].Value != 0 {
			t.Errorf("day %d (%s) = %v, want 0", idx, series[idx].Label, series[idx].Value)
		}
	}
}

// TestNightKeyBoundary verifies the 18:00 boundary: 17:59 belongs to the
// previous day's night, 18:00 starts a new night.
func TestNightKeyBoundary(t *testing.T) {
	loc := time.UTC
	d := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)

	prevNight := time.Date(2025, 3, 9, 18, 0, 0, 0, loc).UnixMilli()
	sameNight := time.Date(2025, 3, 10, 18, 0, 0, 0, loc).UnixMilli()

	if got := NightKeyFor(at(d.Add(17*time.Hour+59*time.Minute)), loc); got != prevNight {
		t.Errorf("17:59 night key = %d, want previous day 18:00 (%d)", got, prevNight)
	}
	if got := NightKeyFor(at(d.Add(18*time.Hour)), loc); got != sameNight {
		t.Errorf("18:00 night key = %d, want same day 18:00 (%d)", got, sameNight)
	}
}

// TestNightlySleepCrossesMidnight verifies that a 23:30 segment and a 00:30
// segment the next day share a night key and sum to 150 minutes.
func TestNightlySleepCrossesMidnight(t *testing.T) {
	loc := time.UTC
	recs := []models.SampleRecord{
		sleepRec(at(time.Date(2025, 3, 9, 23, 30, 0, 0, loc)), 60, models.StageLight),
		sleepRec(at(time.Date(2025, 3, 10, 0, 30, 0, 0, loc)), 90, models.StageDeep),
	}

	nights := NightlySleep(recs, loc)
	if len(nights) != 1 {
		t.Fatalf("len(nights) = %d, want 1", len(nights))
	}
	wantKey := time.Date(2025, 3, 9, 18, 0, 0, 0, loc).UnixMilli()
	if nights[0].NightStart != wantKey {
		t.Errorf("night key = %d, want %d", nights[0].NightStart, wantKey)
	}
	if nights[0].Minutes != 150 {
		t.Errorf("minutes = %d, want 150", nights[0].Minutes)
	}
}

// TestNightlySleepExcludesNonSleepStages verifies Awake and Out-of-bed
// segments contribute nothing even with positive duration.
func TestNightlySleepExcludesNonSleepStages(t *testing.T) {
	loc := time.UTC
	night := time.Date(2025, 3, 9, 23, 0, 0, 0, loc)
	recs := []models.SampleRecord{
		sleepRec(at(night), 30, models.StageAwake),
		sleepRec(at(night.Add(30*time.Minute)), 45, models.StageOutOfBed),
		sleepRec(at(night.Add(75*time.Minute)), 120, models.StageSleep),
	}

	nights := NightlySleep(recs, loc)
	if len(nights) != 1 || nights[0].Minutes != 120 {
		t.Errorf("nights = %+v, want one night of 120 minutes", nights)
	}

	// Only excluded stages → no nights at all.
	nights = NightlySleep(recs[:2], loc)
	if len(nights) != 0 {
		t.Errorf("awake/out-of-bed only: nights = %+v, want none", nights)
	}
}

// TestMostRecentNightSleep verifies the 36-hour lookback picks the latest
// night and ignores older ones.
func TestMostRecentNightSleep(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, loc)

	recs := []models.SampleRecord{
		// Two nights ago (outside 36h lookback).
		sleepRec(at(time.Date(2025, 3, 7, 23, 0, 0, 0, loc)), 400, models.StageSleep),
		// Last night.
		sleepRec(at(time.Date(2025, 3, 9, 23, 0, 0, 0, loc)), 60, models.StageLight),
		sleepRec(at(time.Date(2025, 3, 10, 1, 0, 0, 0, loc)), 200, models.StageDeep),
	}

	mins, ok := MostRecentNightSleep(recs, at(now), loc)
	if !ok || mins != 260 {
		t.Errorf("MostRecentNightSleep = (%d, %v), want (260, true)", mins, ok)
	}

	if _, ok := MostRecentNightSleep(nil, at(now), loc); ok {
		t.Error("no records should report no data")
	}
}

// TestSleepOverlapMinutes verifies a session crossing midnight contributes
// only its overlap with the day.
func TestSleepOverlapMinutes(t *testing.T) {
	loc := time.UTC
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)
	dayStart := at(day)
	dayEnd := at(day.Add(24 * time.Hour))

	// 23:00 the night before, 180 minutes: 60 before midnight, 120 after.
	rec := sleepRec(at(day.Add(-time.Hour)), 180, models.StageSleep)
	if got := SleepOverlapMinutes(rec, dayStart, dayEnd); got != 120 {
		t.Errorf("overlap = %d, want 120", got)
	}

	// Entirely within the day.
	rec = sleepRec(at(day.Add(2*time.Hour)), 90, models.StageSleep)
	if got := SleepOverlapMinutes(rec, dayStart, dayEnd); got != 90 {
		t.Errorf("overlap = %d, want 90", got)
	}

	// Entirely before the day.
	rec = sleepRec(at(day.Add(-10*time.Hour)), 60, models.StageSleep)
	if got := SleepOverlapMinutes(rec, dayStart, dayEnd); got != 0 {
		t.Errorf("overlap = %d, want 0", got)
	}
}

// TestHourlyBandsSparse verifies per-hour min/max grouping with empty hours
// omitted and output ordered by hour.
func TestHourlyBandsSparse(t *testing.T) {
	loc := time.UTC
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)

	recs := []models.SampleRecord{
		{UserID: "u1", Timestamp: at(day.Add(9*time.Hour + 5*time.Minute)), HeartRateBPM: f64(80)},
		{UserID: "u1", Timestamp: at(day.Add(9*time.Hour + 40*time.Minute)), HeartRateBPM: f64(95)},
		{UserID: "u1", Timestamp: at(day.Add(9*time.Hour + 50*time.Minute)), HeartRateBPM: f64(72)},
		{UserID: "u1", Timestamp: at(day.Add(14 * time.Hour)), HeartRateBPM: f64(66)},
		{UserID: "u1", Timestamp: at(day.Add(15 * time.Hour)), Steps: ip(500)}, // not HR
	}

	bands := HourlyBands(recs)
	if len(bands) != 2 {
		t.Fatalf("len(bands) = %d, want 2", len(bands))
	}
	if bands[0].HourStart != at(day.Add(9*time.Hour)) || bands[0].MinBPM != 72 || bands[0].MaxBPM != 95 {
		t.Errorf("bands[0] = %+v, want 09:00 min=72 max=95", bands[0])
	}
	if bands[1].HourStart != at(day.Add(14*time.Hour)) || bands[1].MinBPM != 66 || bands[1].MaxBPM != 66 {
		t.Errorf("bands[1] = %+v, want 14:00 min=max=66", bands[1])
	}
}

// TestHalfHourStepsToday verifies the intraday rollup at 09:15 returns 19
// slots (00:00 through 09:00) and omits slots that have not started.
func TestHalfHourStepsToday(t *testing.T) {
	loc := time.UTC
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)
	now := at(day.Add(9*time.Hour + 15*time.Minute))

	recs := []models.SampleRecord{
		{UserID: "u1", Timestamp: at(day.Add(8*time.Hour + 10*time.Minute)), Steps: ip(300)},
		{UserID: "u1", Timestamp: at(day.Add(8*time.Hour + 20*time.Minute)), Steps: ip(200)},
		{UserID: "u1", Timestamp: at(day.Add(9*time.Hour + 5*time.Minute)), Steps: ip(100)},
	}

	slots := HalfHourSteps(recs, at(day), now)
	if len(slots) != 19 {
		t.Fatalf("len(slots) = %d, want 19", len(slots))
	}
	if slots[16].Steps != 500 { // 08:00–08:30
		t.Errorf("08:00 slot = %d, want 500", slots[16].Steps)
	}
	if slots[18].SlotStart != at(day.Add(9*time.Hour)) || slots[18].Steps != 100 {
		t.Errorf("09:00 slot = %+v, want start 09:00 steps 100", slots[18])
	}
}

// TestHalfHourStepsPastDay verifies a fully elapsed day yields all 48 slots.
func TestHalfHourStepsPastDay(t *testing.T) {
	loc := time.UTC
	day := time.Date(2025, 3, 9, 0, 0, 0, 0, loc)
	now := at(day.Add(48 * time.Hour)) // next day

	slots := HalfHourSteps(nil, at(day), now)
	if len(slots) != 48 {
		t.Fatalf("len(slots) = %d, want 48", len(slots))
	}
	for _, s := range slots {
		if s.Steps != 0 {
			t.Errorf("slot %d steps = %d, want 0", s.SlotStart, s.Steps)
		}
	}
}

// TestHourlyTotals verifies per-hour sums for delta metrics.
func TestHourlyTotals(t *testing.T) {
	loc := time.UTC
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)

	recs := []models.SampleRecord{
		{UserID: "u1", Timestamp: at(day.Add(7*time.Hour + 10*time.Minute)), Calories: f64(40)},
		{UserID: "u1", Timestamp: at(day.Add(7*time.Hour + 50*time.Minute)), Calories: f64(60)},
		{UserID: "u1", Timestamp: at(day.Add(12 * time.Hour)), Calories: f64(200)},
	}

	points := HourlyTotals(recs, models.MetricCalories)
	if len(points) != 2 {
		t.Fatalf("len(points) = %d, want 2", len(points))
	}
	if points[0].Timestamp != at(day.Add(7*time.Hour)) || points[0].Value != 100 {
		t.Errorf("points[0] = %+v, want 07:00 → 100", points[0])
	}
}

// TestDayStartAndAddDays verifies the calendar helpers in a non-UTC zone.
func TestDayStartAndAddDays(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	ts := time.Date(2025, 3, 10, 1, 30, 0, 0, loc).UnixMilli()

	dayStart := DayStart(ts, loc)
	want := time.Date(2025, 3, 10, 0, 0, 0, 0, loc).UnixMilli()
	if dayStart != want {
		t.Errorf("DayStart = %d, want %d", dayStart, want)
	}

	next := AddDays(dayStart, 1, loc)
	if next-dayStart != 24*3600*1000 {
		t.Errorf("AddDays span = %d ms, want 24h", next-dayStart)
	}
}
