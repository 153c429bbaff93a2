package models

import "time"

// SampleRecord is one timestamped health observation for a user. Identity is
// (UserID, Timestamp); all metric fields are optional and independently
// absent. A record accumulates fields over time through Merge — a sync pass
// for one metric never erases what another pass stored at the same timestamp.
type SampleRecord struct {
	UserID    string `json:"user_id"`
	Timestamp int64  `json:"timestamp"` // epoch millis

	HeartRateBPM  *float64 `json:"heart_rate_bpm,omitempty"`
	Steps         *int     `json:"steps,omitempty"`
	Calories      *float64 `json:"calories,omitempty"`
	DistanceKm    *float64 `json:"distance_km,omitempty"`
	SleepMinutes  *int64   `json:"sleep_minutes,omitempty"`
	ActivityLabel *string  `json:"activity_label,omitempty"`
	HeartPoints   *int     `json:"heart_points,omitempty"`
	WeightKg      *float64 `json:"weight_kg,omitempty"`
	FloorsClimbed *float64 `json:"floors_climbed,omitempty"`
	MoveMinutes   *int     `json:"move_minutes,omitempty"`
}

// Time returns the record timestamp as a time.Time.
func (r SampleRecord) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// MetricKind identifies one syncable health metric. Each kind maps to exactly
// one SampleRecord field and selects the sync-window and bucketing policy for
// that metric.
type MetricKind string

const (
	MetricHeartRate   MetricKind = "HEART_RATE"
	MetricSteps       MetricKind = "STEPS"
	MetricCalories    MetricKind = "CALORIES"
	MetricDistance    MetricKind = "DISTANCE"
	MetricSleep       MetricKind = "SLEEP"
	MetricActivity    MetricKind = "ACTIVITY"
	MetricHeartPoints MetricKind = "HEART_POINTS"
)

// AllMetricKinds lists every kind in a stable order.
func AllMetricKinds() []MetricKind {
	return []MetricKind{
		MetricHeartRate, MetricSteps, MetricCalories, MetricDistance,
		MetricSleep, MetricActivity, MetricHeartPoints,
	}
}

// Valid reports whether k is a known metric kind.
func (k MetricKind) Valid() bool {
	switch k {
	case MetricHeartRate, MetricSteps, MetricCalories, MetricDistance,
		MetricSleep, MetricActivity, MetricHeartPoints:
		return true
	}
	return false
}

// Value returns the numeric value of this kind's field on r, and whether the
// field is present. ACTIVITY has no numeric representation and always
// reports false.
func (k MetricKind) Value(r SampleRecord) (float64, bool) {
	switch k {
	case MetricHeartRate:
		if r.HeartRateBPM != nil {
			return *r.HeartRateBPM, true
		}
	case MetricSteps:
		if r.Steps != nil {
			return float64(*r.Steps), true
		}
	case MetricCalories:
		if r.Calories != nil {
			return *r.Calories, true
		}
	case MetricDistance:
		if r.DistanceKm != nil {
			return *r.DistanceKm, true
		}
	case MetricSleep:
		if r.SleepMinutes != nil {
			return float64(*r.SleepMinutes), true
		}
	case MetricHeartPoints:
		if r.HeartPoints != nil {
			return float64(*r.HeartPoints), true
		}
	}
	return 0, false
}

// Has reports whether this kind's field is present on r. Unlike Value it also
// covers ACTIVITY (label presence).
func (k MetricKind) Has(r SampleRecord) bool {
	if k == MetricActivity {
		return r.ActivityLabel != nil
	}
	_, ok := k.Value(r)
	return ok
}
