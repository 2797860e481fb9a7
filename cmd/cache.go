package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xolan/evertrack/internal/cli/handlers"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the offline snapshot cache",
	Long: `Every successful fetch is appended to a snapshot file, and the newest
snapshot for the period is shown when Everhour cannot be reached. Only the
newest cache_keep snapshots are kept.`,
}

var cacheValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the snapshot file for corrupted lines",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		d, done, ok := setup()
		if !ok {
			return
		}
		defer done()
		handlers.ValidateCache(d)
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all cached snapshots",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		d, done, ok := setup()
		if !ok {
			return
		}
		defer done()
		handlers.ClearCache(d)
	},
}

func init() {
	cacheCmd.AddCommand(cacheValidateCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
