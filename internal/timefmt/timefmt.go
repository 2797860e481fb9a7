// Package timefmt renders fractional hours for display.
package timefmt

import (
	"fmt"
	"math"
	"strconv"
)

// OnTargetTolerance is the deviation, in hours, still considered on target.
const OnTargetTolerance = 0.1

// FormatHours renders hours as "7h 30m" when showMinutes is set, otherwise
// as decimal hours rounded to a tenth ("7.5h"). Negative values get a single
// leading "-". Anything that rounds to zero renders as "0h".
func FormatHours(hours float64, showMinutes bool) string {
	if showMinutes {
		return formatHoursMinutes(hours)
	}
	return formatDecimal(hours)
}

func formatDecimal(hours float64) string {
	tenths := math.Round(math.Abs(hours) * 10)
	if tenths == 0 {
		return "0h"
	}
	sign := ""
	if hours < 0 {
		sign = "-"
	}
	return sign + strconv.FormatFloat(tenths/10, 'f', -1, 64) + "h"
}

func formatHoursMinutes(hours float64) string {
	totalMinutes := int64(math.Round(math.Abs(hours) * 60))
	if totalMinutes == 0 {
		return "0h"
	}

	whole := totalMinutes / 60
	minutes := totalMinutes % 60

	result := ""
	if hours < 0 {
		result = "-"
	}
	switch {
	case whole > 0 && minutes > 0:
		result += fmt.Sprintf("%dh %dm", whole, minutes)
	case whole > 0:
		result += fmt.Sprintf("%dh", whole)
	default:
		result += fmt.Sprintf("%dm", minutes)
	}
	return result
}

// Status describes a deviation from target in words.
func Status(difference, targetHours float64) string {
	switch {
	case targetHours == 0:
		return "No target set"
	case math.Abs(difference) < OnTargetTolerance:
		return "Right on target"
	case difference > 0:
		return FormatHours(difference, true) + " over target"
	default:
		return FormatHours(math.Abs(difference), true) + " behind target"
	}
}
