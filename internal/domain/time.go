package domain

import "time"

// timeNow is replaced in tests to pin "today".
var timeNow = time.Now

// DateLayout is the calendar-day key format used for entries and weeks.
const DateLayout = "2006-01-02"

// DateKey returns the calendar-day key of t in t's location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// TodayKey returns the calendar-day key for the current local date.
func TodayKey() string {
	return DateKey(timeNow())
}

// WeekMonday returns the Monday on or before t, at midnight in t's location.
// Sunday belongs to the week that started six days earlier.
func WeekMonday(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// WeekKey returns the week key (ISO date of the week's Monday) for t.
func WeekKey(t time.Time) string {
	return DateKey(WeekMonday(t))
}

// CurrentWeekKey returns the week key for the current local date.
func CurrentWeekKey() string {
	return WeekKey(timeNow())
}
