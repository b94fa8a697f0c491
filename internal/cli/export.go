package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"utility-rate-sync/internal/app"
)

var (
	exportUtilityID    int64
	exportEnergyKWh    float64
	exportDemandKW     float64
	exportMonth        string
	exportCSVPath      string
	exportPNGPath      string
	exportMaxSchedules int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a rate comparison across one utility's schedules as CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportUtilityID <= 0 {
			return fmt.Errorf("--utility-id must be greater than zero")
		}

		opts := app.ExportOptions{
			UtilityID:    exportUtilityID,
			EnergyKWh:    exportEnergyKWh,
			DemandKW:     exportDemandKW,
			Month:        exportMonth,
			CSVPath:      exportCSVPath,
			PNGPath:      exportPNGPath,
			MaxSchedules: exportMaxSchedules,
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().Int64Var(&exportUtilityID, "utility-id", 0, "Utility whose schedules to compare")
	exportCmd.Flags().Float64Var(&exportEnergyKWh, "kwh", 500, "Monthly energy usage in kWh")
	exportCmd.Flags().Float64Var(&exportDemandKW, "kw", 0, "Billed demand in kW")
	exportCmd.Flags().StringVar(&exportMonth, "month", "", "Billing month for seasonal rates (name or number)")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
	exportCmd.Flags().IntVar(&exportMaxSchedules, "max-schedules", 0, "Maximum schedules to price (defaults to config)")
}
