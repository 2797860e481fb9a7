package timeutil

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ParseDate parses a date string in YYYY-MM-DD or DD/MM/YYYY format.
// Returns the parsed date at midnight (start of day) in loc.
// For ambiguous dates (like 05/06/2024), ISO format (YYYY-MM-DD) is preferred.
//
// Valid inputs:
//   - "2024-01-15" (ISO format)
//   - "15/01/2024" (European format)
//
// Invalid inputs return an error with suggested formats.
func ParseDate(input string, loc *time.Location) (time.Time, error) {
	if input == "" {
		return time.Time{}, fmt.Errorf("date cannot be empty (use format YYYY-MM-DD or DD/MM/YYYY, e.g., 2024-01-15 or 15/01/2024)")
	}

	t, err := time.ParseInLocation("2006-01-02", input, loc)
	if err == nil {
		return StartOfDay(t), nil
	}

	t, err = time.ParseInLocation("02/01/2006", input, loc)
	if err == nil {
		return StartOfDay(t), nil
	}

	return time.Time{}, buildDateParseError(input)
}

// buildDateParseError creates a helpful error message based on the input pattern
func buildDateParseError(input string) error {
	isoPartialRe := regexp.MustCompile(`^\d{4}-\d{1,2}$`)
	yearOnlyRe := regexp.MustCompile(`^\d{4}$`)
	isoPartialDayRe := regexp.MustCompile(`^\d{1,2}-\d{1,2}$`)
	euroPartialRe := regexp.MustCompile(`^\d{1,2}/\d{1,2}$`)

	switch {
	case yearOnlyRe.MatchString(input):
		return fmt.Errorf("incomplete date '%s': missing month and day (use format YYYY-MM-DD, e.g., %s-01-15)", input, input)
	case isoPartialRe.MatchString(input):
		return fmt.Errorf("incomplete date '%s': missing day (use format YYYY-MM-DD, e.g., %s-15)", input, input)
	case isoPartialDayRe.MatchString(input):
		return fmt.Errorf("incomplete date '%s': missing year (use format YYYY-MM-DD or DD/MM/YYYY, e.g., 2024-%s)", input, input)
	case euroPartialRe.MatchString(input):
		return fmt.Errorf("incomplete date '%s': missing year (use format DD/MM/YYYY, e.g., %s/2024)", input, input)
	default:
		return fmt.Errorf("invalid date format '%s' (use YYYY-MM-DD or DD/MM/YYYY, e.g., 2024-01-15 or 15/01/2024)", input)
	}
}

var instantLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseInstant parses the value of an --at style flag into an instant in loc.
//
// Valid inputs:
//   - "2024-01-17 13:00" or "2024-01-17T13:00" (date and clock time)
//   - "2024-01-17" (start of that day)
//   - "13:00" (that clock time on the day of ref)
//
// An empty input returns ref unchanged.
func ParseInstant(input string, ref time.Time, loc *time.Location) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return ref, nil
	}

	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, input, loc); err == nil {
			return t, nil
		}
	}

	if t, err := time.ParseInLocation("15:04", input, loc); err == nil {
		day := ref.In(loc)
		return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
	}

	if t, err := ParseDate(input, loc); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("invalid instant '%s' (use 'YYYY-MM-DD HH:MM', 'YYYY-MM-DD' or 'HH:MM')", input)
}
