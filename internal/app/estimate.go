package app

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"utility-rate-sync/internal/billing"
)

// Estimate prices a usage profile against one stored schedule and prints the
// resulting breakdown.
func (a *App) Estimate(ctx context.Context, w io.Writer, opts EstimateOptions) error {
	month, err := parseMonth(opts.Month)
	if err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	usage := billing.Usage{
		EnergyKWh: decimal.NewFromFloat(opts.EnergyKWh),
		DemandKW:  decimal.NewFromFloat(opts.DemandKW),
		Month:     month,
	}

	calc := billing.NewCalculator(store, a.Logger)
	breakdown, err := calc.Estimate(ctx, opts.ScheduleID, usage)
	if err != nil {
		return err
	}

	return printBreakdown(w, opts.ScheduleID, breakdown)
}

func printBreakdown(w io.Writer, scheduleID int64, b billing.Breakdown) error {
	fmt.Fprintf(w, "Estimated bill for schedule %d\n\n", scheduleID)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Service charge\t$%s\n", b.ServiceCharge.StringFixed(2))
	fmt.Fprintf(tw, "Energy charge\t$%s\n", b.EnergyCharge.StringFixed(2))
	fmt.Fprintf(tw, "Demand charge\t$%s\n", b.DemandCharge.StringFixed(2))
	fmt.Fprintf(tw, "Other charges\t$%s\n", b.OtherCharges.StringFixed(2))
	fmt.Fprintf(tw, "Adjustments\t$%s\n", b.Adjustments.StringFixed(2))
	fmt.Fprintf(tw, "Subtotal\t$%s\n", b.Subtotal.StringFixed(2))
	fmt.Fprintf(tw, "Tax\t$%s\n", b.TaxAmount.StringFixed(2))
	fmt.Fprintf(tw, "Total\t$%s\n", b.Total.StringFixed(2))
	if err := tw.Flush(); err != nil {
		return err
	}

	if b.NoTaxData {
		fmt.Fprintln(w, "\nnote: schedule has no tax data; total excludes tax")
	}
	return nil
}
