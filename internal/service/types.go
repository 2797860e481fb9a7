// Package service is the orchestration layer shared by the CLI, the
// dashboard and the HTTP endpoint. It loads time entries, falls back to the
// snapshot cache and runs the progress engine.
package service

import (
	"time"

	"github.com/xolan/evertrack/internal/period"
	"github.com/xolan/evertrack/internal/progress"
)

// Source tells where a report's entries came from.
type Source string

const (
	SourceAPI   Source = "api"
	SourceCache Source = "cache"
)

// Report is one progress computation together with the data behind it.
type Report struct {
	Result     progress.Result `json:"result" yaml:"result"`
	Mode       period.Mode     `json:"mode" yaml:"mode"`
	Start      time.Time       `json:"start" yaml:"start"`
	End        time.Time       `json:"end" yaml:"end"`
	At         time.Time       `json:"at" yaml:"at"`
	FetchedAt  time.Time       `json:"fetched_at" yaml:"fetched_at"`
	EntryCount int             `json:"entry_count" yaml:"entry_count"`
	Source     Source          `json:"source" yaml:"source"`
	// Stale is set when the API failed and cached entries were used.
	Stale bool `json:"stale" yaml:"stale"`
	// Warning carries the fetch error behind a stale report.
	Warning string `json:"warning,omitempty" yaml:"warning,omitempty"`
}

// DayHours is one weekday of the work schedule.
type DayHours struct {
	Day     string  `json:"day" yaml:"day"`
	Enabled bool    `json:"enabled" yaml:"enabled"`
	Start   string  `json:"start" yaml:"start"`
	End     string  `json:"end" yaml:"end"`
	Hours   float64 `json:"hours" yaml:"hours"`
}

// ScheduleReport describes the work schedule and how it plays out over the
// period containing At.
type ScheduleReport struct {
	Days          []DayHours  `json:"days" yaml:"days"`
	WeeklyHours   float64     `json:"weekly_hours" yaml:"weekly_hours"`
	Mode          period.Mode `json:"mode" yaml:"mode"`
	PeriodLabel   string      `json:"period_label" yaml:"period_label"`
	PeriodStart   time.Time   `json:"period_start" yaml:"period_start"`
	PeriodEnd     time.Time   `json:"period_end" yaml:"period_end"`
	At            time.Time   `json:"at" yaml:"at"`
	TotalHours    float64     `json:"total_work_hours" yaml:"total_work_hours"`
	ElapsedHours  float64     `json:"elapsed_work_hours" yaml:"elapsed_work_hours"`
	TargetHours   float64     `json:"target_hours" yaml:"target_hours"`
	ExpectedHours float64     `json:"expected_hours" yaml:"expected_hours"`
}
