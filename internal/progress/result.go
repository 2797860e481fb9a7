package progress

// Classification buckets a deviation from the pro-rated target.
type Classification string

const (
	OnTrack             Classification = "on-track"
	Ahead               Classification = "ahead"
	SlightlyBehind      Classification = "behind"
	SignificantlyBehind Classification = "significantly-behind"
)

// Display colors per classification.
const (
	ColorGreen = "#34C759"
	ColorAmber = "#FF9500"
	ColorRed   = "#FF3B30"
)

// Color returns the display color of c.
func (c Classification) Color() string {
	switch c {
	case SlightlyBehind:
		return ColorAmber
	case SignificantlyBehind:
		return ColorRed
	default:
		return ColorGreen
	}
}

// Behind reports whether c is one of the behind buckets.
func (c Classification) Behind() bool {
	return c == SlightlyBehind || c == SignificantlyBehind
}

// Result is the outcome of one progress computation. It is a plain value:
// each computation builds a new one.
type Result struct {
	WorkedHours        float64        `json:"worked_hours" yaml:"worked_hours"`
	ExpectedHours      float64        `json:"expected_hours" yaml:"expected_hours"`
	FullTargetHours    float64        `json:"full_target_hours" yaml:"full_target_hours"`
	DifferenceHours    float64        `json:"difference_hours" yaml:"difference_hours"`
	ProgressPercentage float64        `json:"progress_percentage" yaml:"progress_percentage"`
	FillRatio          float64        `json:"fill_ratio" yaml:"fill_ratio"`
	IsOverTarget       bool           `json:"is_over_target" yaml:"is_over_target"`
	Classification     Classification `json:"classification" yaml:"classification"`
	Color              string         `json:"color" yaml:"color"`
	StatusText         string         `json:"status_text" yaml:"status_text"`
	PeriodLabel        string         `json:"period_label" yaml:"period_label"`

	// Schedule totals behind ExpectedHours.
	ElapsedWorkHours float64 `json:"elapsed_work_hours" yaml:"elapsed_work_hours"`
	TotalWorkHours   float64 `json:"total_work_hours" yaml:"total_work_hours"`
}
