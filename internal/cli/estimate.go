package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"utility-rate-sync/internal/app"
)

var (
	estimateScheduleID int64
	estimateEnergyKWh  float64
	estimateDemandKW   float64
	estimateMonth      string
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate a monthly bill for one stored schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		if estimateScheduleID <= 0 {
			return fmt.Errorf("--schedule-id must be greater than zero")
		}
		if estimateEnergyKWh < 0 || estimateDemandKW < 0 {
			return fmt.Errorf("usage values must not be negative")
		}

		opts := app.EstimateOptions{
			ScheduleID: estimateScheduleID,
			EnergyKWh:  estimateEnergyKWh,
			DemandKW:   estimateDemandKW,
			Month:      estimateMonth,
		}

		return getApp().Estimate(cmd.Context(), cmd.OutOrStdout(), opts)
	},
}

func init() {
	estimateCmd.Flags().Int64Var(&estimateScheduleID, "schedule-id", 0, "Schedule to price against")
	estimateCmd.Flags().Float64Var(&estimateEnergyKWh, "kwh", 0, "Monthly energy usage in kWh")
	estimateCmd.Flags().Float64Var(&estimateDemandKW, "kw", 0, "Billed demand in kW")
	estimateCmd.Flags().StringVar(&estimateMonth, "month", "", "Billing month for seasonal rates (name or number)")
}
