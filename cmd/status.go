package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/xolan/evertrack/internal/cli"
	"github.com/xolan/evertrack/internal/cli/handlers"
	"github.com/xolan/evertrack/internal/period"
	"github.com/xolan/evertrack/internal/timeutil"
)

// statusFlags are shared by the root, status and schedule commands.
type statusFlags struct {
	mode    string
	at      string
	format  string
	decimal bool
}

var statusCmdFlags = &statusFlags{}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show progress against the pro-rated target",
	Long: `Fetch this period's time entries from Everhour and compare the hours worked
with the hours expected by now according to the work schedule.

Examples:
  evertrack status                       Configured mode, now
  evertrack status --mode monthly        This month
  evertrack status --at "2024-01-17 13:00"
  evertrack status --at 13:00            Today at 13:00
  evertrack status --format json         Machine readable output

When Everhour cannot be reached the last cached entries are used and the
output says so.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runStatus(cmd.Context(), statusCmdFlags)
	},
}

var scheduleCmdFlags = &statusFlags{}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Show the work schedule and the scheduled hours of the period",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runSchedule(scheduleCmdFlags)
	},
}

func init() {
	addStatusFlags(statusCmd, statusCmdFlags)

	addStatusFlags(scheduleCmd, scheduleCmdFlags)

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(scheduleCmd)

	modes := cobra.FixedCompletions([]string{"daily", "weekly", "monthly"}, cobra.ShellCompDirectiveNoFileComp)
	formats := cobra.FixedCompletions([]string{"text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp)
	for _, c := range []*cobra.Command{rootCmd, statusCmd, scheduleCmd} {
		_ = c.RegisterFlagCompletionFunc("mode", modes)
		_ = c.RegisterFlagCompletionFunc("format", formats)
	}
}

func addStatusFlags(cmd *cobra.Command, f *statusFlags) {
	cmd.Flags().StringVarP(&f.mode, "mode", "m", "", "Tracking mode: daily, weekly or monthly (default from config)")
	cmd.Flags().StringVar(&f.at, "at", "", `Evaluate at this instant ("YYYY-MM-DD HH:MM", "YYYY-MM-DD" or "HH:MM")`)
	cmd.Flags().StringVarP(&f.format, "format", "f", "text", "Output format: text, json or yaml")
	cmd.Flags().BoolVar(&f.decimal, "decimal", false, "Show hours as decimals instead of hours and minutes")
}

func runStatus(ctx context.Context, f *statusFlags) {
	d, done, ok := setup()
	if !ok {
		return
	}
	defer done()

	opts, ok := parseStatusFlags(d, f)
	if !ok {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	handlers.Status(ctx, d, opts)
}

func runSchedule(f *statusFlags) {
	d, done, ok := setup()
	if !ok {
		return
	}
	defer done()

	opts, ok := parseStatusFlags(d, f)
	if !ok {
		return
	}
	handlers.Schedule(d, opts)
}

// parseStatusFlags validates the flags and applies --decimal to d.
func parseStatusFlags(d *cli.Deps, f *statusFlags) (handlers.StatusOptions, bool) {
	var opts handlers.StatusOptions

	if f.mode != "" {
		mode, err := period.ParseMode(f.mode)
		if err != nil {
			d.Fail("Invalid --mode", err, "Use daily, weekly or monthly")
			return opts, false
		}
		opts.Mode = mode
	}

	if f.at != "" {
		now := d.Services.Progress.Now()
		at, err := timeutil.ParseInstant(f.at, now, now.Location())
		if err != nil {
			d.Fail("Invalid --at", err, `Examples: --at "2024-01-17 13:00", --at 2024-01-17, --at 13:00`)
			return opts, false
		}
		opts.At = at
	}

	format, err := handlers.ParseFormat(f.format)
	if err != nil {
		d.Fail("Invalid --format", err, "")
		return opts, false
	}
	opts.Format = format

	if f.decimal {
		d.Render.ShowMinutes = false
	}
	return opts, true
}
