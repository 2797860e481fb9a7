package handlers

import (
	"context"
	"time"

	"github.com/xolan/evertrack/internal/cli"
	"github.com/xolan/evertrack/internal/period"
)

// StatusOptions selects what Status reports. Zero values use the
// configured mode, the current instant and text output.
type StatusOptions struct {
	Mode   period.Mode
	At     time.Time
	Format string
}

// Status fetches the entries of the period and prints the progress report.
func Status(ctx context.Context, d *cli.Deps, opts StatusOptions) {
	svc := d.Services.Progress

	mode := opts.Mode
	if mode == "" {
		mode = svc.Config().TrackingMode
	}
	at := opts.At
	if at.IsZero() {
		at = svc.Now()
	}

	report, err := svc.RefreshAt(ctx, at, mode)
	if err != nil {
		failRefresh(d, err)
		return
	}

	if opts.Format == "" || opts.Format == FormatText {
		cli.RenderReport(d.Stdout, report, d.Render)
		return
	}
	if err := writeStructured(d.Stdout, opts.Format, report); err != nil {
		d.Fail("Failed to write report", err, "")
	}
}

// Schedule prints the work schedule and its totals for the period.
func Schedule(d *cli.Deps, opts StatusOptions) {
	svc := d.Services.Progress

	mode := opts.Mode
	if mode == "" {
		mode = svc.Config().TrackingMode
	}
	at := opts.At
	if at.IsZero() {
		at = svc.Now()
	}

	report, err := svc.Schedule(at, mode)
	if err != nil {
		failRefresh(d, err)
		return
	}

	if opts.Format == "" || opts.Format == FormatText {
		cli.FormatScheduleTable(d.Stdout, report, d.Render)
		return
	}
	if err := writeStructured(d.Stdout, opts.Format, report); err != nil {
		d.Fail("Failed to write schedule", err, "")
	}
}
