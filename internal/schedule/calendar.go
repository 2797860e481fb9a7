package schedule

import (
	"time"

	"github.com/xolan/evertrack/internal/timeutil"
)

// WorkHoursForDay returns the length of the day's work window in hours.
// Disabled days count zero and the result is never negative.
func WorkHoursForDay(day DaySchedule) float64 {
	if !day.Enabled {
		return 0
	}
	hours := day.End.Hours() - day.Start.Hours()
	if hours < 0 {
		return 0
	}
	return hours
}

// TotalWorkHours sums the scheduled work hours of every calendar day in
// [start, end], both ends inclusive.
func TotalWorkHours(start, end time.Time, s WorkSchedule) float64 {
	total := 0.0
	timeutil.EachDay(start, end, func(day time.Time) {
		total += WorkHoursForDay(s.For(day))
	})
	return total
}

// ElapsedOnDay returns how many of day's scheduled hours lie before now.
// Days before now's date count in full, days after it count zero, and on
// now's own date the work window is cut at now.
func ElapsedOnDay(day, now time.Time, s WorkSchedule) float64 {
	ds := s.For(day)
	if !ds.Enabled {
		return 0
	}

	today := timeutil.StartOfDay(now)
	date := timeutil.StartOfDay(day.In(now.Location()))
	switch {
	case date.Before(today):
		return WorkHoursForDay(ds)
	case date.After(today):
		return 0
	}

	// Wall-clock hours, matching WorkHoursForDay on days with a DST change.
	clock := clockHours(now)
	switch {
	case clock <= ds.Start.Hours():
		return 0
	case clock >= ds.End.Hours():
		return WorkHoursForDay(ds)
	default:
		return clock - ds.Start.Hours()
	}
}

// clockHours is the time shown on the wall clock at t, in fractional hours.
func clockHours(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60 +
		float64(t.Second())/3600 + float64(t.Nanosecond())/float64(time.Hour)
}

// ElapsedWorkHours sums the work hours that should have been completed
// between periodStart and now: full days before now's date plus the
// partial contribution of now's own date.
func ElapsedWorkHours(periodStart, now time.Time, s WorkSchedule) float64 {
	if now.Before(periodStart) {
		return 0
	}
	elapsed := 0.0
	timeutil.EachDay(periodStart, now, func(day time.Time) {
		elapsed += ElapsedOnDay(day, now, s)
	})
	return elapsed
}
