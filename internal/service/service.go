package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"utility-rate-sync/internal/fetcher"
	"utility-rate-sync/internal/rates"
	"utility-rate-sync/internal/storage"
	"utility-rate-sync/internal/transform"
)

// Options tune one sync pass.
type Options struct {
	// States limits the pull to these two-letter state codes; empty means all.
	States []string
	// UtilityFilters keeps only utilities whose name contains one of these
	// substrings; empty keeps everything.
	UtilityFilters []string
	// IncludeSchedules pulls each utility's rate schedules.
	IncludeSchedules bool
	// IncludeDetails pulls each schedule's detail sections. Implies schedules.
	IncludeDetails bool
	// FailFast aborts the pass on the first row failure instead of
	// accumulating.
	FailFast bool
	// LockKey guards overlapping manual runs when the store supports
	// advisory locks. Zero disables locking.
	LockKey int64
}

// Service runs the sync job: fetch, sanitize, upsert, one linear pass.
type Service struct {
	fetcher fetcher.RateFetcher
	store   storage.Store
	logger  zerolog.Logger
	opts    Options
	locker  storage.AdvisoryLocker
}

// New constructs the sync service.
func New(opts Options, f fetcher.RateFetcher, store storage.Store, logger zerolog.Logger) *Service {
	var locker storage.AdvisoryLocker
	if l, ok := store.(storage.AdvisoryLocker); ok {
		locker = l
	}

	return &Service{
		fetcher: f,
		store:   store,
		logger:  logger.With().Str("component", "sync_service").Logger(),
		opts:    opts,
		locker:  locker,
	}
}

// Run executes one full pass. Row failures accumulate in the summary (unless
// FailFast); provider authentication rejection or a top-level fetch failure
// aborts immediately. The returned summary is valid even when err != nil.
func (s *Service) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{StartedAt: time.Now().UTC()}
	defer func() {
		summary.Duration = time.Since(summary.StartedAt)
	}()

	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return summary, err
	}
	if !proceed {
		return summary, fmt.Errorf("another sync run holds the advisory lock")
	}
	if unlock != nil {
		defer unlock()
	}

	states := s.opts.States
	if len(states) == 0 {
		states = []string{""}
	}

	for _, state := range states {
		if err := s.syncState(ctx, state, summary); err != nil {
			return summary, err
		}
	}

	s.logger.Info().
		Int("utilities", summary.Utilities).
		Int("schedules", summary.Schedules).
		Int("detail_records", summary.DetailRecords).
		Int("failures", len(summary.Failures)).
		Dur("duration", time.Since(summary.StartedAt)).
		Msg("sync pass complete")

	return summary, nil
}

func (s *Service) syncState(ctx context.Context, state string, summary *Summary) error {
	utilities, err := s.fetcher.FetchUtilities(ctx, state)
	if err != nil {
		return err
	}

	kept := utilities[:0:0]
	for _, u := range utilities {
		if s.keepUtility(u) {
			kept = append(kept, u)
		}
	}
	s.logger.Info().Str("state", state).Int("fetched", len(utilities)).Int("kept", len(kept)).Msg("utilities fetched")

	for _, u := range kept {
		if err := s.store.UpsertUtility(ctx, u); err != nil {
			if aborted := s.fail(summary, "utility", fmt.Sprintf("%s=%d", rates.FieldUtilityID, u.ID), err); aborted != nil {
				return aborted
			}
			continue
		}
		summary.Utilities++

		if !s.opts.IncludeSchedules && !s.opts.IncludeDetails {
			continue
		}
		if err := s.syncSchedules(ctx, u, summary); err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) syncSchedules(ctx context.Context, u rates.Utility, summary *Summary) error {
	schedules, err := s.fetcher.FetchSchedules(ctx, u.ID)
	if err != nil {
		if aborted := s.fail(summary, "schedule", fmt.Sprintf("%s=%d", rates.FieldUtilityID, u.ID), err); aborted != nil {
			return aborted
		}
		return nil
	}

	for _, raw := range schedules {
		rec := transform.CleanSchedule(raw, u.ID)
		scheduleID, ok := rec.Int64(rates.FieldScheduleID)
		if !ok {
			if aborted := s.fail(summary, "schedule", fmt.Sprintf("%s=%d", rates.FieldUtilityID, u.ID), fmt.Errorf("record has no %s", rates.FieldScheduleID)); aborted != nil {
				return aborted
			}
			continue
		}

		if err := s.store.UpsertSchedule(ctx, rec); err != nil {
			if aborted := s.fail(summary, "schedule", fmt.Sprintf("%s=%d", rates.FieldScheduleID, scheduleID), err); aborted != nil {
				return aborted
			}
			continue
		}
		summary.Schedules++

		if !s.opts.IncludeDetails {
			continue
		}
		if err := s.syncDetail(ctx, scheduleID, summary); err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) syncDetail(ctx context.Context, scheduleID int64, summary *Summary) error {
	detail, err := s.fetcher.FetchScheduleDetail(ctx, scheduleID)
	if err != nil {
		if aborted := s.fail(summary, "detail", fmt.Sprintf("%s=%d", rates.FieldScheduleID, scheduleID), err); aborted != nil {
			return aborted
		}
		return nil
	}

	// Deterministic section order; unknown sections are skipped, not failed.
	for _, section := range rates.Sections {
		raw, ok := detail[section]
		if !ok || len(raw) == 0 {
			continue
		}

		recs := make([]rates.Record, 0, len(raw))
		for _, r := range raw {
			recs = append(recs, transform.CleanDetailRecord(r, scheduleID))
		}

		if err := s.store.UpsertDetailSection(ctx, scheduleID, section, recs); err != nil {
			if aborted := s.fail(summary, "detail", fmt.Sprintf("%s/%s=%d", section, rates.FieldScheduleID, scheduleID), err); aborted != nil {
				return aborted
			}
			continue
		}
		summary.DetailRecords += len(recs)
	}

	for section := range detail {
		if !rates.KnownSection(section) {
			summary.SectionsSkipped++
			s.logger.Info().Str("section", section).Int64("schedule_id", scheduleID).Msg("skipping unknown section")
		}
	}

	return nil
}

// fail records a row failure. It returns a non-nil error when the pass must
// abort: on FailFast, or when the provider rejected the credentials (every
// later call would fail the same way).
func (s *Service) fail(summary *Summary, level, key string, err error) error {
	summary.Failures = append(summary.Failures, Failure{Level: level, Key: key, Err: err})
	s.logger.Error().Err(err).Str("level", level).Str("key", key).Msg("row failed")

	if fetcher.IsAuthRejected(err) {
		return fmt.Errorf("provider rejected credentials: %w", err)
	}
	if s.opts.FailFast {
		return fmt.Errorf("aborting on first failure (%s %s): %w", level, key, err)
	}
	return nil
}

func (s *Service) keepUtility(u rates.Utility) bool {
	if len(s.opts.UtilityFilters) == 0 {
		return true
	}
	for _, f := range s.opts.UtilityFilters {
		if f != "" && strings.Contains(strings.ToLower(u.Name), strings.ToLower(f)) {
			return true
		}
	}
	return false
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.opts.LockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.opts.LockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
