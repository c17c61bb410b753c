package utils

import "time"

// WeekStart returns Monday 00:00 of t's ISO week, in t's location.
func WeekStart(t time.Time) time.Time {
	// time.Weekday has Sunday == 0; shift so Monday == 0
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// WeekKey identifies an ISO week by its Monday's calendar date
func WeekKey(t time.Time) string {
	return WeekStart(t).Format(time.DateOnly)
}
