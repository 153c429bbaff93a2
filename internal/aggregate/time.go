package aggregate

import "time"

// Calendar arithmetic for bucketing. Every function takes the timezone
// explicitly and returns a new value; nothing here holds shared state.

const (
	hourMillis     = int64(time.Hour / time.Millisecond)
	halfHourMillis = hourMillis / 2
)

// DayStart returns local midnight of the calendar day containing ts.
func DayStart(ts int64, loc *time.Location) int64 {
	t := time.UnixMilli(ts).In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc).UnixMilli()
}

// AddDays shifts a local-midnight timestamp by n calendar days, staying on
// midnight across DST transitions.
func AddDays(dayStart int64, n int, loc *time.Location) int64 {
	t := time.UnixMilli(dayStart).In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, loc).UnixMilli()
}

// HourStart floors ts to its hour boundary.
func HourStart(ts int64) int64 {
	return ts - ts%hourMillis
}

// NightKeyFor returns the canonical night key for a sample timestamp: 18:00
// local time of the day the night started. A timestamp before 18:00 belongs
// to the previous calendar day's night.
func NightKeyFor(ts int64, loc *time.Location) int64 {
	t := time.UnixMilli(ts).In(loc)
	y, m, d := t.Date()
	if t.Hour() < 18 {
		d--
	}
	return time.Date(y, m, d, 18, 0, 0, 0, loc).UnixMilli()
}

// WeekdayLabel returns the weekday abbreviation of a local-midnight
// timestamp, used as the weekly series label.
func WeekdayLabel(dayStart int64, loc *time.Location) string {
	return time.UnixMilli(dayStart).In(loc).Format("Mon")
}
