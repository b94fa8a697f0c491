package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"utility-rate-sync/internal/config"
	"utility-rate-sync/internal/rates"
)

var (
	// ErrNotConfigured indicates no backend connection was initialised.
	ErrNotConfigured = errors.New("storage: backend not configured")
)

// Store is the backend surface the sync job writes to and the read commands
// query. Utilities and schedules are upserted row by row; detail sections are
// written one section at a time.
type Store interface {
	UpsertUtility(ctx context.Context, u rates.Utility) error
	UpsertSchedule(ctx context.Context, rec rates.Record) error
	UpsertDetailSection(ctx context.Context, scheduleID int64, section string, recs []rates.Record) error

	ListUtilities(ctx context.Context, state string) ([]rates.Utility, error)
	ListSchedules(ctx context.Context, utilityID int64) ([]rates.Record, error)
	ListDetailSection(ctx context.Context, scheduleID int64, section string) ([]rates.Record, error)

	Close()
}

// AdvisoryLocker exposes advisory lock helpers. Only the direct Postgres
// store implements it; the REST store relies on upsert idempotence alone.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// WriteError wraps a write the backend rejected.
type WriteError struct {
	Table string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("backend write to %s: %v", e.Table, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Open selects the backend store: direct Postgres when database.dsn is
// configured, otherwise the Supabase REST API.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (Store, error) {
	if cfg.Database.DSN != "" {
		pool, err := NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		store := NewPostgresStore(pool, logger)
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	}

	if cfg.Supabase.URL == "" || cfg.Supabase.Key == "" {
		return nil, ErrNotConfigured
	}

	return NewPostgrestStore(PostgrestOptions{
		URL:     cfg.Supabase.URL,
		Key:     cfg.Supabase.Key,
		Timeout: cfg.Supabase.RequestTimeout,
	}, logger), nil
}

// NewPool configures a PostgreSQL connection pool from runtime settings.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	return pool, nil
}
