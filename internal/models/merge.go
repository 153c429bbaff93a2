package models

// Merge reconciles an incoming sample against the record already stored at
// the same (user, timestamp). It is a right-biased field-level union: an
// incoming non-nil field replaces the existing value, an incoming nil field
// never erases one. With a nil existing record the incoming sample is taken
// as-is. Merge is deterministic and idempotent; callers must guarantee the
// identity fields match before invoking.
func Merge(existing *SampleRecord, incoming SampleRecord) SampleRecord {
	if existing == nil {
		return incoming
	}

	out := *existing
	if incoming.HeartRateBPM != nil {
		out.HeartRateBPM = incoming.HeartRateBPM
	}
	if incoming.Steps != nil {
		out.Steps = incoming.Steps
	}
	if incoming.Calories != nil {
		out.Calories = incoming.Calories
	}
	if incoming.DistanceKm != nil {
		out.DistanceKm = incoming.DistanceKm
	}
	if incoming.SleepMinutes != nil {
		out.SleepMinutes = incoming.SleepMinutes
	}
	if incoming.ActivityLabel != nil {
		out.ActivityLabel = incoming.ActivityLabel
	}
	if incoming.HeartPoints != nil {
		out.HeartPoints = incoming.HeartPoints
	}
	if incoming.WeightKg != nil {
		out.WeightKg = incoming.WeightKg
	}
	if incoming.FloorsClimbed != nil {
		out.FloorsClimbed = incoming.FloorsClimbed
	}
	if incoming.MoveMinutes != nil {
		out.MoveMinutes = incoming.MoveMinutes
	}
	return out
}
