package app

import (
	"context"

	"utility-rate-sync/internal/alerting"
	"utility-rate-sync/internal/service"
)

// Sync executes one sync run: fetch from the provider, sanitize, upsert into
// the backend. Credentials are validated before any client is constructed.
func (a *App) Sync(ctx context.Context, opts SyncOptions) error {
	if err := a.Config.ValidateSync(); err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	svcOpts := a.syncOptions(opts)
	svc := service.New(svcOpts, a.newFetcher(), store, a.Logger)

	a.Logger.Info().
		Strs("states", svcOpts.States).
		Bool("schedules", svcOpts.IncludeSchedules).
		Bool("details", svcOpts.IncludeDetails).
		Msg("starting sync run")

	summary, runErr := svc.Run(ctx)
	a.notifyRun(ctx, summary, runErr)

	if runErr != nil {
		a.Logger.Error().Err(runErr).Msg("sync run aborted")
		return runErr
	}
	if summary.Failed() {
		return summary.Err()
	}
	return nil
}

func (a *App) syncOptions(opts SyncOptions) service.Options {
	out := service.Options{
		States:           a.Config.Sync.States,
		UtilityFilters:   a.Config.Sync.UtilityFilters,
		IncludeSchedules: a.Config.Sync.IncludeSchedules,
		IncludeDetails:   a.Config.Sync.IncludeDetails,
		FailFast:         a.Config.Sync.FailFast || opts.FailFast,
		LockKey:          a.Config.Sync.AdvisoryLockKey,
	}

	if len(opts.States) > 0 {
		out.States = opts.States
	}
	if len(opts.UtilityFilters) > 0 {
		out.UtilityFilters = opts.UtilityFilters
	}
	if opts.SkipSchedules {
		out.IncludeSchedules = false
		out.IncludeDetails = false
	}
	if opts.SkipDetails {
		out.IncludeDetails = false
	}
	return out
}

func (a *App) notifyRun(ctx context.Context, summary *service.Summary, runErr error) {
	notifier := a.newNotifier()
	if notifier == nil || summary == nil {
		return
	}

	status := "success"
	switch {
	case runErr != nil:
		status = "failed"
	case summary.Failed():
		status = "partial"
	}

	note := alerting.Notification{
		StartedAt:     summary.StartedAt,
		Duration:      summary.Duration,
		Status:        status,
		Utilities:     summary.Utilities,
		Schedules:     summary.Schedules,
		DetailRecords: summary.DetailRecords,
		Failures:      len(summary.Failures),
	}
	if runErr != nil {
		note.AdditionalMsg = runErr.Error()
	}

	if err := notifier.Notify(ctx, note); err != nil {
		a.Logger.Error().Err(err).Msg("failed to deliver run summary")
	}
}
