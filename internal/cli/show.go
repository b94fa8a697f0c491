package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"utility-rate-sync/internal/app"
)

var (
	showState     string
	showUtilityID int64
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display stored rate data",
}

var showUtilitiesCmd = &cobra.Command{
	Use:   "utilities",
	Short: "List stored utilities",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ShowUtilitiesOptions{
			State: showState,
		}

		return getApp().ShowUtilities(cmd.Context(), cmd.OutOrStdout(), opts)
	},
}

var showSchedulesCmd = &cobra.Command{
	Use:   "schedules",
	Short: "List stored rate schedules for one utility",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showUtilityID <= 0 {
			return fmt.Errorf("--utility-id must be greater than zero")
		}

		opts := app.ShowSchedulesOptions{
			UtilityID: showUtilityID,
		}

		return getApp().ShowSchedules(cmd.Context(), cmd.OutOrStdout(), opts)
	},
}

func init() {
	showUtilitiesCmd.Flags().StringVar(&showState, "state", "", "Filter by state abbreviation")
	showSchedulesCmd.Flags().Int64Var(&showUtilityID, "utility-id", 0, "Utility to list schedules for")

	showCmd.AddCommand(showUtilitiesCmd)
	showCmd.AddCommand(showSchedulesCmd)
}
