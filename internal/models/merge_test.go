package models

import (
	"reflect"
	"testing"
)

func f64(v float64) *float64 { return &v }
func i(v int) *int           { return &v }
func i64(v int64) *int64     { return &v }
func str(v string) *string   { return &v }

// TestMergeAbsentExisting verifies that merging into an absent record returns
// the incoming sample unchanged.
func TestMergeAbsentExisting(t *testing.T) {
	incoming := SampleRecord{UserID: "u1", Timestamp: 1000, Steps: i(500)}
	got := Merge(nil, incoming)
	if !reflect.DeepEqual(got, incoming) {
		t.Errorf("Merge(nil, incoming) = %+v, want %+v", got, incoming)
	}
}

// TestMergeIncomingWins verifies that a non-nil incoming field replaces the
// existing value.
func TestMergeIncomingWins(t *testing.T) {
	existing := SampleRecord{UserID: "u1", Timestamp: 1000, HeartRateBPM: f64(70)}
	incoming := SampleRecord{UserID: "u1", Timestamp: 1000, HeartRateBPM: f64(75)}

	got := Merge(&existing, incoming)
	if got.HeartRateBPM == nil || *got.HeartRateBPM != 75 {
		t.Errorf("HeartRateBPM = %v, want 75", got.HeartRateBPM)
	}
}

// TestMergeNilNeverNarrows verifies that an incoming nil field retains the
// existing value for every field, including the activity label.
func TestMergeNilNeverNarrows(t *testing.T) {
	existing := SampleRecord{
		UserID:        "u1",
		Timestamp:     1000,
		HeartRateBPM:  f64(72),
		Steps:         i(500),
		Calories:      f64(120.5),
		DistanceKm:    f64(1.2),
		SleepMinutes:  i64(400),
		ActivityLabel: str("Walking"),
		HeartPoints:   i(10),
		WeightKg:      f64(70.5),
		FloorsClimbed: f64(3),
		MoveMinutes:   i(45),
	}
	incoming := SampleRecord{UserID: "u1", Timestamp: 1000}

	got := Merge(&existing, incoming)
	if !reflect.DeepEqual(got, existing) {
		t.Errorf("merge with all-nil incoming changed the record:\n got %+v\nwant %+v", got, existing)
	}
}

// TestMergeIdempotent verifies merge(merge(E, I), I) == merge(E, I).
func TestMergeIdempotent(t *testing.T) {
	existing := SampleRecord{UserID: "u1", Timestamp: 1000, Steps: i(500), Calories: f64(90)}
	incoming := SampleRecord{UserID: "u1", Timestamp: 1000, HeartRateBPM: f64(72), Calories: f64(95)}

	once := Merge(&existing, incoming)
	twice := Merge(&once, incoming)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("merge not idempotent:\n once %+v\ntwice %+v", once, twice)
	}
}

// TestMergeTwoSyncPasses verifies that a steps sync and a heart-rate sync
// landing on the same timestamp converge to one record carrying both fields,
// in either order.
func TestMergeTwoSyncPasses(t *testing.T) {
	stepsSample := SampleRecord{UserID: "u1", Timestamp: 8 * 3600 * 1000, Steps: i(500)}
	hrSample := SampleRecord{UserID: "u1", Timestamp: 8 * 3600 * 1000, HeartRateBPM: f64(72)}

	a := Merge(nil, stepsSample)
	a = Merge(&a, hrSample)

	b := Merge(nil, hrSample)
	b = Merge(&b, stepsSample)

	for name, got := range map[string]SampleRecord{"steps-first": a, "hr-first": b} {
		if got.Steps == nil || *got.Steps != 500 {
			t.Errorf("%s: Steps = %v, want 500", name, got.Steps)
		}
		if got.HeartRateBPM == nil || *got.HeartRateBPM != 72 {
			t.Errorf("%s: HeartRateBPM = %v, want 72", name, got.HeartRateBPM)
		}
	}
}
