// Package schedule models a weekly work schedule and answers how many work
// hours fall into a day, a date range, or the part of a range that has
// already elapsed.
package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTimeOfDay is returned for time strings that are not "HH:MM".
var ErrInvalidTimeOfDay = errors.New("invalid time of day")

var timeOfDayRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// TimeOfDay is a clock time without a date component.
type TimeOfDay struct {
	Hour   int // 0-23
	Minute int // 0-59
}

// ParseTimeOfDay parses "HH:MM" (24h clock).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	m := timeOfDayRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return TimeOfDay{}, fmt.Errorf("%w %q (use HH:MM, e.g. 09:00)", ErrInvalidTimeOfDay, s)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%w %q (hour must be 0-23, minute 0-59)", ErrInvalidTimeOfDay, s)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// MustTimeOfDay is ParseTimeOfDay for literals known to be valid.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns TimeOfDay in "HH:MM" format.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Hours returns the time as fractional hours since midnight.
func (t TimeOfDay) Hours() float64 {
	return float64(t.Hour) + float64(t.Minute)/60
}

// MarshalText implements encoding.TextMarshaler.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, so malformed times are
// rejected while the settings file is decoded.
func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// DaySchedule is the work window of one weekday.
type DaySchedule struct {
	Enabled bool      `toml:"enabled" json:"enabled" yaml:"enabled"`
	Start   TimeOfDay `toml:"start" json:"start" yaml:"start"`
	End     TimeOfDay `toml:"end" json:"end" yaml:"end"`
}

// Weekdays lists weekday names in the Monday-first order used for display.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// WeekdayName returns the lowercase schedule key for d.
func WeekdayName(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// WorkSchedule maps lowercase weekday names to their DaySchedule.
// A weekday without an entry is treated as disabled.
type WorkSchedule map[string]DaySchedule

// For returns the DaySchedule that applies to the calendar day of t.
func (s WorkSchedule) For(t time.Time) DaySchedule {
	return s[WeekdayName(t.Weekday())]
}

// DefaultWorkSchedule returns Monday to Friday, 09:00 to 17:00.
func DefaultWorkSchedule() WorkSchedule {
	nineToFive := func(enabled bool) DaySchedule {
		return DaySchedule{Enabled: enabled, Start: TimeOfDay{Hour: 9}, End: TimeOfDay{Hour: 17}}
	}
	return WorkSchedule{
		"monday":    nineToFive(true),
		"tuesday":   nineToFive(true),
		"wednesday": nineToFive(true),
		"thursday":  nineToFive(true),
		"friday":    nineToFive(true),
		"saturday":  nineToFive(false),
		"sunday":    nineToFive(false),
	}
}

// Validate rejects unknown weekday keys and enabled days whose end is not
// after their start. Overnight windows are not supported.
func (s WorkSchedule) Validate() error {
	known := make(map[string]bool, len(Weekdays))
	for _, d := range Weekdays {
		known[d] = true
	}
	for name, day := range s {
		if !known[name] {
			return fmt.Errorf("unknown weekday %q in work_schedule (valid: %s)", name, strings.Join(Weekdays, ", "))
		}
		if day.Enabled && day.End.Hours() <= day.Start.Hours() {
			return fmt.Errorf("work_schedule.%s: end %s must be after start %s (overnight schedules are not supported)",
				name, day.End, day.Start)
		}
	}
	return nil
}
