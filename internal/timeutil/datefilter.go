package timeutil

import "time"

// StartOfDay returns midnight (00:00:00) of the given day in the same timezone
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last millisecond of the given day (23:59:59.999)
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// StartOfWeek returns Monday 00:00:00 of the week containing the given time (ISO standard)
// Handles the Sunday edge case where Go's Weekday() returns 0
func StartOfWeek(t time.Time) time.Time {
	daysFromMonday := (int(t.Weekday()) + 6) % 7
	return StartOfDay(t).AddDate(0, 0, -daysFromMonday)
}

// EndOfWeek returns Sunday 23:59:59.999 of the week containing the given time
func EndOfWeek(t time.Time) time.Time {
	return EndOfDay(StartOfWeek(t).AddDate(0, 0, 6))
}

// StartOfMonth returns the first day of the month at 00:00:00 in the same timezone
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// EndOfMonth returns the last millisecond of the last day of the month.
// Day 0 of the following month normalizes to the last day of this one,
// which handles 28, 29, 30 and 31 day months.
func EndOfMonth(t time.Time) time.Time {
	last := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location())
	return EndOfDay(last)
}

// EachDay calls fn with midnight of every calendar day in [start, end],
// both ends inclusive. Days are stepped with AddDate so DST transitions
// never skip or repeat a day.
func EachDay(start, end time.Time, fn func(day time.Time)) {
	last := StartOfDay(end.In(start.Location()))
	for day := StartOfDay(start); !day.After(last); day = day.AddDate(0, 0, 1) {
		fn(day)
	}
}
