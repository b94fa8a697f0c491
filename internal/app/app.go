package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"utility-rate-sync/internal/alerting"
	"utility-rate-sync/internal/config"
	"utility-rate-sync/internal/fetcher"
	"utility-rate-sync/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFetcher() *fetcher.Client {
	return fetcher.NewClient(fetcher.ClientOptions{
		BaseURL:   a.Config.RateAcuity.BaseURL,
		Username:  a.Config.RateAcuity.Username,
		Password:  a.Config.RateAcuity.Password,
		Timeout:   a.Config.RateAcuity.RequestTimeout,
		UserAgent: a.Config.RateAcuity.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Notify.Telegram.Enabled {
		cfg := a.Config.Notify.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (storage.Store, func(), error) {
	store, err := storage.Open(ctx, a.Config, a.Logger)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

// SyncOptions hold CLI overrides for one sync run. Zero values fall back to
// the configuration.
type SyncOptions struct {
	States         []string
	UtilityFilters []string
	SkipSchedules  bool
	SkipDetails    bool
	FailFast       bool
}

// ShowUtilitiesOptions configure `show utilities`.
type ShowUtilitiesOptions struct {
	State string
}

// ShowSchedulesOptions configure `show schedules`.
type ShowSchedulesOptions struct {
	UtilityID int64
}

// EstimateOptions configure the estimate command.
type EstimateOptions struct {
	ScheduleID int64
	EnergyKWh  float64
	DemandKW   float64
	Month      string
}

// ExportOptions hold parameters for the rate comparison export.
type ExportOptions struct {
	UtilityID    int64
	EnergyKWh    float64
	DemandKW     float64
	Month        string
	CSVPath      string
	PNGPath      string
	MaxSchedules int
}

// parseMonth maps a month name ("July") or number ("7") to a time.Month.
// Empty input means no seasonal filtering.
func parseMonth(s string) (time.Month, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	if t, err := time.Parse("January", s); err == nil {
		return t.Month(), nil
	}
	if t, err := time.Parse("Jan", s); err == nil {
		return t.Month(), nil
	}
	if t, err := time.Parse("1", s); err == nil {
		return t.Month(), nil
	}
	return 0, fmt.Errorf("unrecognised month %q", s)
}
