package cli

import (
	"github.com/spf13/cobra"

	"utility-rate-sync/internal/app"
)

var (
	syncStates        []string
	syncFilters       []string
	syncSkipSchedules bool
	syncSkipDetails   bool
	syncFailFast      bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch rate data from the provider and upsert it into the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.SyncOptions{
			States:         syncStates,
			UtilityFilters: syncFilters,
			SkipSchedules:  syncSkipSchedules,
			SkipDetails:    syncSkipDetails,
			FailFast:       syncFailFast,
		}

		return getApp().Sync(cmd.Context(), opts)
	},
}

func init() {
	syncCmd.Flags().StringSliceVar(&syncStates, "state", nil, "State abbreviations to sync (defaults to config)")
	syncCmd.Flags().StringSliceVar(&syncFilters, "utility", nil, "Utility name filters (defaults to config)")
	syncCmd.Flags().BoolVar(&syncSkipSchedules, "skip-schedules", false, "Sync utilities only")
	syncCmd.Flags().BoolVar(&syncSkipDetails, "skip-details", false, "Sync utilities and schedules without detail sections")
	syncCmd.Flags().BoolVar(&syncFailFast, "fail-fast", false, "Abort on the first row failure")
}
