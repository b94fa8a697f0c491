package fetcher

import (
	"context"

	"utility-rate-sync/internal/rates"
)

// RateFetcher retrieves rate data from the provider.
type RateFetcher interface {
	FetchUtilities(ctx context.Context, state string) ([]rates.Utility, error)
	FetchSchedules(ctx context.Context, utilityID int64) ([]rates.Record, error)
	FetchScheduleDetail(ctx context.Context, scheduleID int64) (rates.Detail, error)
}
