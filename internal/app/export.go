package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"utility-rate-sync/internal/billing"
	"utility-rate-sync/internal/rates"
)

// scheduleEstimate pairs one schedule with its priced breakdown.
type scheduleEstimate struct {
	ScheduleID int64
	Name       string
	Breakdown  billing.Breakdown
}

// Export prices a usage profile against every stored schedule of one utility
// and writes the comparison as CSV and/or a PNG bar chart.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	month, err := parseMonth(opts.Month)
	if err != nil {
		return err
	}

	maxSchedules := opts.MaxSchedules
	if maxSchedules <= 0 {
		maxSchedules = a.Config.Export.MaxSchedules
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	schedules, err := store.ListSchedules(ctx, opts.UtilityID)
	if err != nil {
		return err
	}
	if len(schedules) == 0 {
		a.Logger.Info().Int64("utility_id", opts.UtilityID).Msg("no schedules found for export")
		return nil
	}
	if len(schedules) > maxSchedules {
		schedules = schedules[:maxSchedules]
	}

	usage := billing.Usage{
		EnergyKWh: decimal.NewFromFloat(opts.EnergyKWh),
		DemandKW:  decimal.NewFromFloat(opts.DemandKW),
		Month:     month,
	}

	calc := billing.NewCalculator(store, a.Logger)
	estimates := make([]scheduleEstimate, 0, len(schedules))
	for _, rec := range schedules {
		id, ok := rec.Int64(rates.FieldScheduleID)
		if !ok {
			continue
		}

		breakdown, err := calc.Estimate(ctx, id, usage)
		if err != nil {
			a.Logger.Warn().Err(err).Int64("schedule_id", id).Msg("skipping schedule in export")
			continue
		}

		name := rec.String("ScheduleName")
		if name == "" {
			name = fmt.Sprintf("schedule %d", id)
		}
		estimates = append(estimates, scheduleEstimate{ScheduleID: id, Name: name, Breakdown: breakdown})
	}
	if len(estimates) == 0 {
		return errors.New("no schedules could be priced")
	}

	sort.Slice(estimates, func(i, j int) bool {
		return estimates[i].Breakdown.Total.LessThan(estimates[j].Breakdown.Total)
	})

	a.Logger.Info().Int("schedules", len(estimates)).Msg("exporting rate comparison")

	if opts.CSVPath != "" {
		if err := writeEstimatesCSV(opts.CSVPath, estimates); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeEstimatesPNG(opts.PNGPath, estimates); err != nil {
			return err
		}
	}

	return nil
}

func writeEstimatesCSV(path string, estimates []scheduleEstimate) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"schedule_id", "schedule_name", "service_charge", "energy_charge", "demand_charge", "other_charges", "adjustments", "tax", "total"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, est := range estimates {
		b := est.Breakdown
		record := []string{
			fmt.Sprintf("%d", est.ScheduleID),
			est.Name,
			b.ServiceCharge.StringFixed(2),
			b.EnergyCharge.StringFixed(2),
			b.DemandCharge.StringFixed(2),
			b.OtherCharges.StringFixed(2),
			b.Adjustments.StringFixed(2),
			b.TaxAmount.StringFixed(2),
			b.Total.StringFixed(2),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeEstimatesPNG(path string, estimates []scheduleEstimate) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	bars := make([]chart.Value, 0, len(estimates))
	for _, est := range estimates {
		label := est.Name
		if len(label) > 24 {
			label = label[:24]
		}
		bars = append(bars, chart.Value{
			Label: label,
			Value: est.Breakdown.Total.InexactFloat64(),
		})
	}

	graph := chart.BarChart{
		Title:    "Estimated monthly bill by schedule",
		Width:    1280,
		Height:   720,
		BarWidth: 40,
		YAxis: chart.YAxis{
			Name: "Total ($)",
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
		},
		Bars: bars,
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
