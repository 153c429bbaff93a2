package models

import "strings"

// SleepStage is the provider's sleep-segment stage code.
type SleepStage int

// Stage codes as delivered by the provider's sleep sessions.
const (
	StageUnknown  SleepStage = 0
	StageAwake    SleepStage = 1
	StageSleep    SleepStage = 2
	StageOutOfBed SleepStage = 3
	StageLight    SleepStage = 4
	StageDeep     SleepStage = 5
	StageREM      SleepStage = 6
)

// Asleep reports whether the stage counts toward a night's sleep total.
// Awake (1) and Out-of-bed (3) never accumulate.
func (s SleepStage) Asleep() bool {
	return s == StageSleep || s == StageLight || s == StageDeep || s == StageREM
}

// Label returns the human-readable stage name stored on sleep records.
func (s SleepStage) Label() string {
	switch s {
	case StageAwake:
		return "Awake"
	case StageSleep:
		return "Sleep"
	case StageOutOfBed:
		return "Out-of-bed"
	case StageLight:
		return "Light sleep"
	case StageDeep:
		return "Deep sleep"
	case StageREM:
		return "REM sleep"
	}
	return "Unknown stage"
}

// sleepStageLabels maps lowercased stage labels back to their codes. Covers
// the canonical labels plus the short forms older records used.
var sleepStageLabels = map[string]SleepStage{
	"awake":       StageAwake,
	"sleep":       StageSleep,
	"out-of-bed":  StageOutOfBed,
	"out of bed":  StageOutOfBed,
	"light sleep": StageLight,
	"light":       StageLight,
	"deep sleep":  StageDeep,
	"deep":        StageDeep,
	"rem sleep":   StageREM,
	"rem":         StageREM,
}

// SleepStageFromLabel resolves a stage label to its code. Returns
// StageUnknown and false for unrecognized labels.
func SleepStageFromLabel(label string) (SleepStage, bool) {
	s, ok := sleepStageLabels[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return StageUnknown, false
	}
	return s, true
}

// SleepStageOf reads the stage of a sleep record, which stores its stage as
// the activity label. Records without a recognizable label report
// StageUnknown.
func SleepStageOf(r SampleRecord) SleepStage {
	if r.ActivityLabel == nil {
		return StageUnknown
	}
	s, _ := SleepStageFromLabel(*r.ActivityLabel)
	return s
}
