package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xolan/evertrack/internal/tui"
)

// tuiCmd represents the tui command
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the live progress dashboard",
	Long: `Launch the live terminal dashboard.

The dashboard refreshes every refresh_interval (default 2m) and shows the
deviation bar, hours worked, hours expected by now and the status.

Keyboard shortcuts:
  r    Refresh now
  m    Cycle daily / weekly / monthly
  t    Cycle the color theme (saved to the config file)
  ?    Toggle help
  q    Quit`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runTUI()
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)

	// Add --tui flag to root command for quick access
	rootCmd.PersistentFlags().Bool("tui", false, "Launch the live dashboard")
}

// runTUI wires the progress service into the dashboard and runs it
func runTUI() {
	d, done, ok := setup()
	if !ok {
		return
	}
	defer done()

	progress := d.Services.Progress
	cfg := progress.Config()
	opts := tui.Options{
		Mode:            cfg.TrackingMode,
		RefreshInterval: cfg.RefreshInterval.Duration,
		ShowMinutes:     cfg.ShowMinutes,
		Theme:           cfg.Theme,
		SaveTheme: func(name string) error {
			return d.Services.Config.Set("theme", name)
		},
		Logger: d.Logger,
	}

	if err := deps.RunTUI(progress, opts); err != nil {
		d.Fail("Dashboard stopped unexpectedly", err, "")
	}
}

// CheckTUIFlag checks if the --tui flag is set and runs the TUI if so.
// Returns true if the TUI was launched, false otherwise.
func CheckTUIFlag(cmd *cobra.Command) bool {
	tuiFlag, _ := cmd.Root().PersistentFlags().GetBool("tui")
	if tuiFlag {
		runTUI()
		return true
	}
	return false
}
