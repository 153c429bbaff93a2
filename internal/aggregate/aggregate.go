// Package aggregate derives presentation views from an in-memory set of
// sample records. All functions are pure: they take records, a reference
// time, and an explicit timezone, and return new values. Sums accumulate in
// float64 before any display rounding, and an aggregate with zero
// contributing samples reports "no data" rather than zero.
package aggregate

import (
	"sort"
	"time"

	"github.com/C-Tharun/vitalsync/internal/models"
)

// SeriesPoint is one labeled value in a day-by-day series.
type SeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// NightTotal is the summed asleep minutes for one night, keyed by the night's
// 18:00-local start.
type NightTotal struct {
	NightStart int64 `json:"night_start"`
	Minutes    int64 `json:"minutes"`
}

// Band is the heart-rate range observed within one hour.
type Band struct {
	HourStart int64   `json:"hour_start"`
	MinBPM    float64 `json:"min_bpm"`
	MaxBPM    float64 `json:"max_bpm"`
}

// StepSlot is the step total for one half-hour slot of a day.
type StepSlot struct {
	SlotStart int64 `json:"slot_start"`
	Steps     int   `json:"steps"`
}

// TotalForDay sums kind's field over records whose timestamp falls in the
// calendar day starting at dayStart. ok is false when no record contributed,
// which is distinct from a true zero total.
func TotalForDay(recs []models.SampleRecord, kind models.MetricKind, dayStart int64, loc *time.Location) (float64, bool) {
	dayEnd := AddDays(dayStart, 1, loc)
	var sum float64
	n := 0
	for _, r := range recs {
		if r.Timestamp < dayStart || r.Timestamp >= dayEnd {
			continue
		}
		if v, present := kind.Value(r); present {
			sum += v
			n++
		}
	}
	return sum, n > 0
}

// LatestForDay returns the record with the greatest timestamp in
// [dayStart, end) that carries kind's field, or nil when none does. Used for
// latest-value metrics (heart rate, last activity, weight).
func LatestForDay(recs []models.SampleRecord, kind models.MetricKind, dayStart, end int64) *models.SampleRecord {
	var latest *models.SampleRecord
	for idx := range recs {
		r := &recs[idx]
		if r.Timestamp < dayStart || r.Timestamp >= end {
			continue
		}
		if !kind.Has(*r) {
			continue
		}
		if latest == nil || r.Timestamp > latest.Timestamp {
			latest = r
		}
	}
	if latest == nil {
		return nil
	}
	out := *latest
	return &out
}

// WeeklySeries sums kind's field per calendar day over the trailing 7-day
// window ending on now's day. Always returns exactly 7 points, oldest first,
// with missing days valued 0 and labeled by weekday abbreviation.
func WeeklySeries(recs []models.SampleRecord, kind models.MetricKind, now int64, loc *time.Location) []SeriesPoint {
	today := DayStart(now, loc)

	totals := make(map[int64]float64, 7)
	for _, r := range recs {
		if v, present := kind.Value(r); present {
			totals[DayStart(r.Timestamp, loc)] += v
		}
	}

	points := make([]SeriesPoint, 0, 7)
	for i := -6; i <= 0; i++ {
		day := AddDays(today, i, loc)
		points = append(points, SeriesPoint{
			Label: WeekdayLabel(day, loc),
			Value: totals[day],
		})
	}
	return points
}

// NightlySleep buckets sleep records into nights and sums the asleep minutes
// of each. A record counts only when its stage label is an actual asleep
// stage; Awake and Out-of-bed segments contribute nothing. Nights are
// returned oldest first.
func NightlySleep(recs []models.SampleRecord, loc *time.Location) []NightTotal {
	totals := make(map[int64]int64)
	for _, r := range recs {
		if r.SleepMinutes == nil || *r.SleepMinutes <= 0 {
			continue
		}
		if !models.SleepStageOf(r).Asleep() {
			continue
		}
		totals[NightKeyFor(r.Timestamp, loc)] += *r.SleepMinutes
	}

	nights := make([]NightTotal, 0, len(totals))
	for key, mins := range totals {
		nights = append(nights, NightTotal{NightStart: key, Minutes: mins})
	}
	sort.Slice(nights, func(a, b int) bool { return nights[a].NightStart < nights[b].NightStart })
	return nights
}

// MostRecentNightSleep returns the summed minutes of the latest night found
// within the 36 hours before now. The lookback deliberately ignores any
// requested range: the most recent completed night may have started on the
// previous calendar day.
func MostRecentNightSleep(recs []models.SampleRecord, now int64, loc *time.Location) (int64, bool) {
	lookbackStart := now - 36*hourMillis

	var window []models.SampleRecord
	for _, r := range recs {
		if r.Timestamp >= lookbackStart && r.Timestamp <= now {
			window = append(window, r)
		}
	}

	nights := NightlySleep(window, loc)
	if len(nights) == 0 {
		return 0, false
	}
	return nights[len(nights)-1].Minutes, true
}

// SleepOverlapMinutes returns how many of a sleep record's minutes fall
// inside [dayStart, dayEnd). A session crossing midnight contributes only its
// overlap with the day.
func SleepOverlapMinutes(r models.SampleRecord, dayStart, dayEnd int64) int64 {
	if r.SleepMinutes == nil {
		return 0
	}
	sleepStart := r.Timestamp
	sleepEnd := r.Timestamp + *r.SleepMinutes*int64(time.Minute/time.Millisecond)
	overlapStart := max(sleepStart, dayStart)
	overlapEnd := min(sleepEnd, dayEnd)
	if overlapEnd <= overlapStart {
		return 0
	}
	return (overlapEnd - overlapStart) / int64(time.Minute/time.Millisecond)
}

// TotalSleepForDay sums the asleep-stage overlap of every sleep record with
// the calendar day starting at dayStart.
func TotalSleepForDay(recs []models.SampleRecord, dayStart int64, loc *time.Location) int64 {
	dayEnd := AddDays(dayStart, 1, loc)
	var total int64
	for _, r := range recs {
		if r.SleepMinutes == nil {
			continue
		}
		if !models.SleepStageOf(r).Asleep() {
			continue
		}
		total += SleepOverlapMinutes(r, dayStart, dayEnd)
	}
	return total
}

// HourlyBands groups heart-rate samples by hour and reports the min/max BPM
// per hour. Hours without samples are omitted; the result is ordered by hour.
func HourlyBands(recs []models.SampleRecord) []Band {
	byHour := make(map[int64]*Band)
	for _, r := range recs {
		if r.HeartRateBPM == nil {
			continue
		}
		hour := HourStart(r.Timestamp)
		b, ok := byHour[hour]
		if !ok {
			byHour[hour] = &Band{HourStart: hour, MinBPM: *r.HeartRateBPM, MaxBPM: *r.HeartRateBPM}
			continue
		}
		if *r.HeartRateBPM < b.MinBPM {
			b.MinBPM = *r.HeartRateBPM
		}
		if *r.HeartRateBPM > b.MaxBPM {
			b.MaxBPM = *r.HeartRateBPM
		}
	}

	bands := make([]Band, 0, len(byHour))
	for _, b := range byHour {
		bands = append(bands, *b)
	}
	sort.Slice(bands, func(a, b int) bool { return bands[a].HourStart < bands[b].HourStart })
	return bands
}

// HeartRateRange returns the min and max BPM over all heart-rate samples.
// ok is false when there are none.
func HeartRateRange(recs []models.SampleRecord) (minBPM, maxBPM float64, ok bool) {
	for _, r := range recs {
		if r.HeartRateBPM == nil {
			continue
		}
		if !ok {
			minBPM, maxBPM, ok = *r.HeartRateBPM, *r.HeartRateBPM, true
			continue
		}
		if *r.HeartRateBPM < minBPM {
			minBPM = *r.HeartRateBPM
		}
		if *r.HeartRateBPM > maxBPM {
			maxBPM = *r.HeartRateBPM
		}
	}
	return minBPM, maxBPM, ok
}

// HalfHourSteps partitions the day starting at dayStart into 48 half-hour
// slots and sums steps per slot. Slots starting after now are omitted, which
// only trims anything when the selected day is today.
func HalfHourSteps(recs []models.SampleRecord, dayStart, now int64) []StepSlot {
	slots := make([]StepSlot, 0, 48)
	for i := 0; i < 48; i++ {
		slotStart := dayStart + int64(i)*halfHourMillis
		if slotStart > now {
			break
		}
		slotEnd := slotStart + halfHourMillis

		steps := 0
		for _, r := range recs {
			if r.Steps == nil || r.Timestamp < slotStart || r.Timestamp >= slotEnd {
				continue
			}
			steps += *r.Steps
		}
		slots = append(slots, StepSlot{SlotStart: slotStart, Steps: steps})
	}
	return slots
}

// TimedValue is one aggregated value at a bucket start.
type TimedValue struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// HourlyTotals sums kind's field per hour, omitting empty hours. Used for the
// calories and distance history rollups.
func HourlyTotals(recs []models.SampleRecord, kind models.MetricKind) []TimedValue {
	byHour := make(map[int64]float64)
	for _, r := range recs {
		if v, present := kind.Value(r); present {
			byHour[HourStart(r.Timestamp)] += v
		}
	}

	points := make([]TimedValue, 0, len(byHour))
	for h, v := range byHour {
		points = append(points, TimedValue{Timestamp: h, Value: v})
	}
	sort.Slice(points, func(a, b int) bool { return points[a].Timestamp < points[b].Timestamp })
	return points
}
