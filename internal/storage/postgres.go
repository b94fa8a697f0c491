package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"utility-rate-sync/internal/rates"
)

// The direct store writes into the same database Supabase fronts, so the
// shared tables keep their original quoted names. Detail sections land in a
// single JSONB table replaced per (schedule, section), which is what keeps
// re-runs idempotent without a natural key.
const (
	createUtilityTableSQL = `CREATE TABLE IF NOT EXISTS "Utility" (
        "UtilityID"   BIGINT PRIMARY KEY,
        "UtilityName" TEXT NOT NULL,
        "State"       TEXT NOT NULL
    );`

	createScheduleTableSQL = `CREATE TABLE IF NOT EXISTS "Schedule_Table" (
        "ScheduleID"          BIGINT PRIMARY KEY,
        "UtilityID"           BIGINT NOT NULL,
        "ScheduleName"        TEXT,
        "ScheduleDescription" TEXT,
        payload               JSONB NOT NULL,
        imported_at           TIMESTAMPTZ NOT NULL DEFAULT now()
    );
    CREATE INDEX IF NOT EXISTS schedule_utility_idx ON "Schedule_Table" ("UtilityID");`

	createDetailTableSQL = `CREATE TABLE IF NOT EXISTS schedule_details (
        "ScheduleID" BIGINT NOT NULL,
        section      TEXT NOT NULL,
        position     INT NOT NULL,
        payload      JSONB NOT NULL,
        imported_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
        PRIMARY KEY ("ScheduleID", section, position)
    );`

	upsertUtilitySQL = `INSERT INTO "Utility" ("UtilityID", "UtilityName", "State")
    VALUES ($1, $2, $3)
    ON CONFLICT ("UtilityID") DO UPDATE
    SET "UtilityName" = EXCLUDED."UtilityName",
        "State"       = EXCLUDED."State";`

	upsertScheduleSQL = `INSERT INTO "Schedule_Table" (
        "ScheduleID", "UtilityID", "ScheduleName", "ScheduleDescription", payload, imported_at
    ) VALUES ($1, $2, $3, $4, $5, now())
    ON CONFLICT ("ScheduleID") DO UPDATE
    SET "UtilityID"           = EXCLUDED."UtilityID",
        "ScheduleName"        = EXCLUDED."ScheduleName",
        "ScheduleDescription" = EXCLUDED."ScheduleDescription",
        payload               = EXCLUDED.payload,
        imported_at           = EXCLUDED.imported_at;`

	deleteDetailSectionSQL = `DELETE FROM schedule_details WHERE "ScheduleID" = $1 AND section = $2;`

	insertDetailRecordSQL = `INSERT INTO schedule_details ("ScheduleID", section, position, payload)
    VALUES ($1, $2, $3, $4);`

	listUtilitiesSQL = `SELECT "UtilityID", "UtilityName", "State"
    FROM "Utility"
    ORDER BY "UtilityName";`

	listUtilitiesByStateSQL = `SELECT "UtilityID", "UtilityName", "State"
    FROM "Utility"
    WHERE "State" = $1
    ORDER BY "UtilityName";`

	listSchedulesSQL = `SELECT payload
    FROM "Schedule_Table"
    WHERE "UtilityID" = $1
    ORDER BY "ScheduleID";`

	listDetailSectionSQL = `SELECT payload
    FROM schedule_details
    WHERE "ScheduleID" = $1 AND section = $2
    ORDER BY position;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// PostgresStore writes directly into the backing database over pgx.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore wires a pgx pool into a store.
func NewPostgresStore(pool *pgxpool.Pool, logger zerolog.Logger) *PostgresStore {
	return &PostgresStore{
		pool:   pool,
		logger: logger.With().Str("component", "postgres_store").Logger(),
	}
}

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the target tables when they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{createUtilityTableSQL, createScheduleTableSQL, createDetailTableSQL} {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *PostgresStore) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctxUnlock, advisoryUnlockSQL, key); err != nil {
			s.logger.Warn().Err(err).Msg("advisory unlock failed")
		}
		conn.Release()
	}
	return unlock, true, nil
}

// UpsertUtility persists or updates one utility row.
func (s *PostgresStore) UpsertUtility(ctx context.Context, u rates.Utility) error {
	if _, err := s.pool.Exec(ctx, upsertUtilitySQL, u.ID, u.Name, u.State); err != nil {
		return &WriteError{Table: utilityTable, Err: err}
	}
	return nil
}

// UpsertSchedule persists one sanitized schedule row. The typed columns cover
// the fields the read paths filter on; the full record lands in payload.
func (s *PostgresStore) UpsertSchedule(ctx context.Context, rec rates.Record) error {
	scheduleID, ok := rec.Int64(rates.FieldScheduleID)
	if !ok {
		return &WriteError{Table: scheduleTable, Err: fmt.Errorf("record has no %s", rates.FieldScheduleID)}
	}
	utilityID, ok := rec.Int64(rates.FieldUtilityID)
	if !ok {
		return &WriteError{Table: scheduleTable, Err: fmt.Errorf("record has no %s", rates.FieldUtilityID)}
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return &WriteError{Table: scheduleTable, Err: err}
	}

	_, err = s.pool.Exec(ctx, upsertScheduleSQL,
		scheduleID,
		utilityID,
		rec.String("ScheduleName"),
		rec.String("ScheduleDescription"),
		payload,
	)
	if err != nil {
		return &WriteError{Table: scheduleTable, Err: err}
	}
	return nil
}

// UpsertDetailSection replaces one schedule's records for a section inside a
// transaction.
func (s *PostgresStore) UpsertDetailSection(ctx context.Context, scheduleID int64, section string, recs []rates.Record) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &WriteError{Table: section, Err: err}
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, deleteDetailSectionSQL, scheduleID, section); err != nil {
		return &WriteError{Table: section, Err: err}
	}

	for i, rec := range recs {
		payload, err := json.Marshal(rec)
		if err != nil {
			return &WriteError{Table: section, Err: err}
		}
		if _, err := tx.Exec(ctx, insertDetailRecordSQL, scheduleID, section, i, payload); err != nil {
			return &WriteError{Table: section, Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return &WriteError{Table: section, Err: err}
	}
	return nil
}

// ListUtilities lists imported utilities, optionally filtered by state.
func (s *PostgresStore) ListUtilities(ctx context.Context, state string) ([]rates.Utility, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if state != "" {
		rows, err = s.pool.Query(ctx, listUtilitiesByStateSQL, state)
	} else {
		rows, err = s.pool.Query(ctx, listUtilitiesSQL)
	}
	if err != nil {
		return nil, fmt.Errorf("list utilities: %w", err)
	}
	defer rows.Close()

	utilities := make([]rates.Utility, 0)
	for rows.Next() {
		var u rates.Utility
		if err := rows.Scan(&u.ID, &u.Name, &u.State); err != nil {
			return nil, err
		}
		utilities = append(utilities, u)
	}
	return utilities, rows.Err()
}

// ListSchedules lists imported schedules for a utility.
func (s *PostgresStore) ListSchedules(ctx context.Context, utilityID int64) ([]rates.Record, error) {
	return s.listPayloads(ctx, listSchedulesSQL, utilityID)
}

// ListDetailSection lists one section's records for a schedule.
func (s *PostgresStore) ListDetailSection(ctx context.Context, scheduleID int64, section string) ([]rates.Record, error) {
	return s.listPayloads(ctx, listDetailSectionSQL, scheduleID, section)
}

func (s *PostgresStore) listPayloads(ctx context.Context, sql string, args ...any) ([]rates.Record, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list payloads: %w", err)
	}
	defer rows.Close()

	recs := make([]rates.Record, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}

		var rec rates.Record
		dec := json.NewDecoder(bytes.NewReader(payload))
		dec.UseNumber()
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

var (
	_ Store          = (*PostgresStore)(nil)
	_ AdvisoryLocker = (*PostgresStore)(nil)
)
