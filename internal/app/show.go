package app

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"utility-rate-sync/internal/rates"
)

// ShowUtilities prints the utilities stored in the backend, optionally
// filtered by state.
func (a *App) ShowUtilities(ctx context.Context, w io.Writer, opts ShowUtilitiesOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	utilities, err := store.ListUtilities(ctx, opts.State)
	if err != nil {
		return err
	}

	if len(utilities) == 0 {
		fmt.Fprintln(w, "no utilities found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATE")
	for _, u := range utilities {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", u.ID, u.Name, u.State)
	}
	return tw.Flush()
}

// ShowSchedules prints the stored rate schedules for one utility.
func (a *App) ShowSchedules(ctx context.Context, w io.Writer, opts ShowSchedulesOptions) error {
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
		fmt.Fprintf(w, "no schedules found for utility %d\n", opts.UtilityID)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
	for _, rec := range schedules {
		id, _ := rec.Int64(rates.FieldScheduleID)
		fmt.Fprintf(tw, "%d\t%s\t%s\n", id, rec.String("ScheduleName"), rec.String("ScheduleDescription"))
	}
	return tw.Flush()
}
