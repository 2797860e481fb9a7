// Package progress computes how many hours should have been worked by now
// under a weekly schedule and compares that with the hours actually logged.
package progress

import (
	"fmt"
	"math"
	"time"

	"github.com/xolan/evertrack/internal/entry"
	"github.com/xolan/evertrack/internal/period"
	"github.com/xolan/evertrack/internal/schedule"
	"github.com/xolan/evertrack/internal/timefmt"
)

const (
	// FullScaleHours is the deviation at which the indicator is completely filled.
	FullScaleHours = 20.0
	// SlightlyBehindPercent is the largest shortfall, relative to the expected
	// hours, that still counts as slightly behind.
	SlightlyBehindPercent = 15.0
)

// Input is everything a computation reads.
type Input struct {
	Mode     period.Mode
	Targets  period.Targets
	Schedule schedule.WorkSchedule
}

// SumWorkedHours converts the logged seconds of entries into hours.
// A nil or empty list is zero hours.
func SumWorkedHours(entries []entry.TimeEntry) float64 {
	return float64(entry.TotalSeconds(entries)) / 3600
}

// Expected holds the pro-rated target and the schedule totals behind it.
type Expected struct {
	Hours   float64
	Elapsed float64
	Total   float64
}

// ExpectedHours pro-rates targetHours by the share of the period's scheduled
// work hours that has elapsed at now. A period without scheduled hours
// expects nothing.
func ExpectedHours(mode period.Mode, s schedule.WorkSchedule, targetHours float64, now time.Time) (Expected, error) {
	b, err := period.BoundsFor(mode, now)
	if err != nil {
		return Expected{}, err
	}

	total := schedule.TotalWorkHours(b.Start, b.End, s)
	elapsed := schedule.ElapsedWorkHours(b.Start, now, s)
	if total == 0 {
		return Expected{}, nil
	}
	return Expected{
		Hours:   targetHours * (elapsed / total),
		Elapsed: elapsed,
		Total:   total,
	}, nil
}

// Classify buckets difference relative to expectedHours.
func Classify(difference, expectedHours float64) Classification {
	switch {
	case math.Abs(difference) < timefmt.OnTargetTolerance:
		return OnTrack
	case difference > 0:
		return Ahead
	case expectedHours <= 0:
		return SignificantlyBehind
	}

	shortfall := math.Abs(difference) / expectedHours * 100
	if shortfall <= SlightlyBehindPercent {
		return SlightlyBehind
	}
	return SignificantlyBehind
}

// FillRatio scales the magnitude of difference against FullScaleHours,
// capped at 1.
func FillRatio(difference float64) float64 {
	return math.Min(math.Abs(difference)/FullScaleHours, 1)
}

// Compute builds the full Result for workedHours at now.
func Compute(workedHours float64, in Input, now time.Time) (Result, error) {
	if !in.Mode.Valid() {
		return Result{}, fmt.Errorf("%w %q", period.ErrInvalidMode, in.Mode)
	}

	target := period.TargetHoursFor(in.Mode, in.Targets)
	expected, err := ExpectedHours(in.Mode, in.Schedule, target, now)
	if err != nil {
		return Result{}, err
	}
	label, err := period.Label(in.Mode, now)
	if err != nil {
		return Result{}, err
	}

	r := fromExpected(workedHours, expected.Hours, target)
	r.PeriodLabel = label
	r.ElapsedWorkHours = expected.Elapsed
	r.TotalWorkHours = expected.Total
	return r, nil
}

// fromExpected derives the comparison fields from the three hour figures.
func fromExpected(workedHours, expectedHours, targetHours float64) Result {
	difference := workedHours - expectedHours

	percentage := 0.0
	if expectedHours > 0 {
		percentage = workedHours / expectedHours * 100
	}

	class := Classify(difference, expectedHours)
	return Result{
		WorkedHours:        workedHours,
		ExpectedHours:      expectedHours,
		FullTargetHours:    targetHours,
		DifferenceHours:    difference,
		ProgressPercentage: percentage,
		FillRatio:          FillRatio(difference),
		IsOverTarget:       difference >= 0,
		Classification:     class,
		Color:              class.Color(),
		StatusText:         timefmt.Status(difference, targetHours),
	}
}
