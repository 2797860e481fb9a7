// Package cli provides the CLI presentation layer for evertrack.
// It handles command-line output formatting and user interaction.
package cli

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/xolan/evertrack/internal/service"
	"github.com/xolan/evertrack/internal/storage"
	"github.com/xolan/evertrack/internal/timefmt"
)

// DefaultBarWidth is the width of the deviation bar without its brackets.
const DefaultBarWidth = 40

// RenderOptions controls text output.
type RenderOptions struct {
	ShowMinutes bool
	// Color enables ANSI styling; set only when writing to a terminal.
	Color    bool
	BarWidth int
}

func (o RenderOptions) hours(h float64) string {
	return timefmt.FormatHours(h, o.ShowMinutes)
}

func (o RenderOptions) paint(text, color string) string {
	if !o.Color || color == "" {
		return text
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(text)
}

// RenderReport prints a progress report: period, hours, status, the
// deviation bar and, for cached data, a staleness notice.
func RenderReport(w io.Writer, r service.Report, opts RenderOptions) {
	res := r.Result

	_, _ = fmt.Fprintf(w, "%s (%s)\n", res.PeriodLabel, r.Mode)
	_, _ = fmt.Fprintln(w, strings.Repeat("=", 50))
	_, _ = fmt.Fprintf(w, "Worked:    %s\n", opts.hours(res.WorkedHours))
	_, _ = fmt.Fprintf(w, "Expected:  %s by now (%s target)\n", opts.hours(res.ExpectedHours), opts.hours(res.FullTargetHours))
	_, _ = fmt.Fprintf(w, "Progress:  %.0f%%\n", res.ProgressPercentage)
	_, _ = fmt.Fprintf(w, "Status:    %s\n", opts.paint(res.StatusText, res.Color))
	_, _ = fmt.Fprintln(w, opts.paint(DeviationBar(res.FillRatio, res.DifferenceHours < 0, opts.BarWidth), res.Color))

	if r.Stale {
		_, _ = fmt.Fprintf(w, "Showing cached data from %s (%d %s)\n",
			FormatFetchedAt(r.FetchedAt, r.At), r.EntryCount, Pluralize("entry", r.EntryCount))
		if r.Warning != "" {
			_, _ = fmt.Fprintf(w, "API error: %s\n", r.Warning)
		}
		return
	}
	_, _ = fmt.Fprintf(w, "Updated %s from %d %s\n",
		FormatFetchedAt(r.FetchedAt, r.At), r.EntryCount, Pluralize("entry", r.EntryCount))
}

// DeviationBar draws a centred bar of width cells. The filled part grows
// from the centre marker to the left when behind and to the right otherwise.
func DeviationBar(fillRatio float64, behind bool, width int) string {
	if width <= 0 {
		width = DefaultBarWidth
	}
	half := width / 2
	fill := int(math.Round(math.Max(0, math.Min(fillRatio, 1)) * float64(half)))

	left := strings.Repeat(" ", half)
	right := strings.Repeat(" ", half)
	if behind {
		left = strings.Repeat(" ", half-fill) + strings.Repeat("#", fill)
	} else {
		right = strings.Repeat("#", fill) + strings.Repeat(" ", half-fill)
	}
	return "[" + left + "|" + right + "]"
}

// FormatFetchedAt shows the clock time, adding the date when it differs
// from the day of ref.
func FormatFetchedAt(fetchedAt, ref time.Time) string {
	if fetchedAt.IsZero() {
		return "never"
	}
	if !ref.IsZero() {
		fetchedAt = fetchedAt.In(ref.Location())
		if fetchedAt.Format("2006-01-02") == ref.Format("2006-01-02") {
			return fetchedAt.Format("15:04")
		}
	}
	return fetchedAt.Format("Mon Jan 2 15:04")
}

// FormatScheduleTable prints the weekly schedule and how much of it falls
// into the current period.
func FormatScheduleTable(w io.Writer, s service.ScheduleReport, opts RenderOptions) {
	_, _ = fmt.Fprintln(w, "Work schedule:")
	_, _ = fmt.Fprintln(w, strings.Repeat("=", 50))
	for _, d := range s.Days {
		name := strings.ToUpper(d.Day[:1]) + d.Day[1:]
		if !d.Enabled {
			_, _ = fmt.Fprintf(w, "  %-10s  off\n", name)
			continue
		}
		_, _ = fmt.Fprintf(w, "  %-10s  %s - %s  %s\n", name, d.Start, d.End, opts.hours(d.Hours))
	}
	_, _ = fmt.Fprintln(w, strings.Repeat("-", 50))
	_, _ = fmt.Fprintf(w, "Weekly total: %s\n", opts.hours(s.WeeklyHours))
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "%s (%s):\n", s.PeriodLabel, s.Mode)
	_, _ = fmt.Fprintf(w, "  Scheduled:  %s, %s elapsed\n", opts.hours(s.TotalHours), opts.hours(s.ElapsedHours))
	_, _ = fmt.Fprintf(w, "  Target:     %s, %s expected by now\n", opts.hours(s.TargetHours), opts.hours(s.ExpectedHours))
}

// FormatCorruptionWarning formats a ParseWarning into a human-readable string
func FormatCorruptionWarning(warning storage.ParseWarning) string {
	content := warning.Content
	if len(content) > 50 {
		content = content[:47] + "..."
	}
	return fmt.Sprintf("  Line %d: %s (error: %s)", warning.LineNumber, content, warning.Error)
}

// Pluralize returns the singular or plural form of a word based on count
func Pluralize(word string, count int) string {
	if count == 1 {
		return word
	}
	if n := len(word); n > 1 && word[n-1] == 'y' && !strings.ContainsRune("aeiou", rune(word[n-2])) {
		return strings.TrimSuffix(word, "y") + "ies"
	}
	return word + "s"
}
