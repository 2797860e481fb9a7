package period

import (
	"fmt"
	"time"

	"github.com/xolan/evertrack/internal/timeutil"
)

// Bounds is the inclusive [Start, End] range of a tracking period.
type Bounds struct {
	Start time.Time
	End   time.Time
}

// Targets holds the configured target hours per mode.
type Targets struct {
	Daily   float64
	Weekly  float64
	Monthly float64
}

// BoundsFor returns the period of mode that contains now.
// Weeks start on Monday and months on the first calendar day.
func BoundsFor(mode Mode, now time.Time) (Bounds, error) {
	switch mode {
	case Daily:
		return Bounds{Start: timeutil.StartOfDay(now), End: timeutil.EndOfDay(now)}, nil
	case Weekly:
		return Bounds{Start: timeutil.StartOfWeek(now), End: timeutil.EndOfWeek(now)}, nil
	case Monthly:
		return Bounds{Start: timeutil.StartOfMonth(now), End: timeutil.EndOfMonth(now)}, nil
	}
	return Bounds{}, fmt.Errorf("%w %q", ErrInvalidMode, mode)
}

// QueryRange returns the range of time entries that count toward the period
// at now: from the period start to the end of now's day.
func QueryRange(mode Mode, now time.Time) (Bounds, error) {
	b, err := BoundsFor(mode, now)
	if err != nil {
		return Bounds{}, err
	}
	return Bounds{Start: b.Start, End: timeutil.EndOfDay(now)}, nil
}

// Label returns a human description of the period containing now, such as
// "Wednesday, Jan 17", "Jan 15 - Jan 21" or "January 2024".
func Label(mode Mode, now time.Time) (string, error) {
	switch mode {
	case Daily:
		return now.Format("Monday, Jan 2"), nil
	case Weekly:
		start := timeutil.StartOfWeek(now)
		end := start.AddDate(0, 0, 6)
		return fmt.Sprintf("%s - %s", start.Format("Jan 2"), end.Format("Jan 2")), nil
	case Monthly:
		return now.Format("January 2006"), nil
	}
	return "", fmt.Errorf("%w %q", ErrInvalidMode, mode)
}

// TargetHoursFor selects the target of mode. Unknown modes fall back to the
// weekly target.
func TargetHoursFor(mode Mode, t Targets) float64 {
	switch mode {
	case Daily:
		return t.Daily
	case Monthly:
		return t.Monthly
	default:
		return t.Weekly
	}
}
