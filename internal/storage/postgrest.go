package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"utility-rate-sync/internal/rates"
)

// Backend table names, mirroring the original Supabase schema. Detail
// sections are stored under their rates.Section* names directly.
const (
	utilityTable  = "Utility"
	scheduleTable = "Schedule_Table"
)

// PostgrestOptions parameterise the Supabase REST store.
type PostgrestOptions struct {
	URL     string
	Key     string
	Timeout time.Duration
}

// PostgrestStore talks to Supabase through its PostgREST surface. Upserts use
// Prefer: resolution=merge-duplicates, resolving on each table's primary key.
type PostgrestStore struct {
	opts    PostgrestOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewPostgrestStore constructs a REST-backed store.
func NewPostgrestStore(opts PostgrestOptions, logger zerolog.Logger) *PostgrestStore {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &PostgrestStore{
		opts:    opts,
		logger:  logger.With().Str("component", "postgrest_store").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(opts.URL, "/") + "/rest/v1",
	}
}

// Close is a no-op; the store holds no connection state.
func (s *PostgrestStore) Close() {}

// UpsertUtility writes one utility row.
func (s *PostgrestStore) UpsertUtility(ctx context.Context, u rates.Utility) error {
	return s.upsert(ctx, utilityTable, u)
}

// UpsertSchedule writes one sanitized schedule row.
func (s *PostgrestStore) UpsertSchedule(ctx context.Context, rec rates.Record) error {
	return s.upsert(ctx, scheduleTable, rec)
}

// UpsertDetailSection writes one schedule's records for a section as a single
// batched upsert.
func (s *PostgrestStore) UpsertDetailSection(ctx context.Context, scheduleID int64, section string, recs []rates.Record) error {
	if len(recs) == 0 {
		return nil
	}
	return s.upsert(ctx, section, recs)
}

func (s *PostgrestStore) upsert(ctx context.Context, table string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &WriteError{Table: table, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/"+url.PathEscape(table), bytes.NewReader(payload))
	if err != nil {
		return &WriteError{Table: table, Err: err}
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	resp, err := s.client.Do(req)
	if err != nil {
		return &WriteError{Table: table, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &WriteError{Table: table, Err: restError(resp)}
	}
	return nil
}

// ListUtilities reads back imported utilities, optionally filtered by state.
func (s *PostgrestStore) ListUtilities(ctx context.Context, state string) ([]rates.Utility, error) {
	query := url.Values{}
	query.Set("select", "UtilityID,UtilityName,State")
	query.Set("order", "UtilityName.asc")
	if state != "" {
		query.Set("State", "eq."+strings.ToUpper(state))
	}

	var utilities []rates.Utility
	if err := s.get(ctx, utilityTable, query, &utilities); err != nil {
		return nil, err
	}
	return utilities, nil
}

// ListSchedules reads back imported schedules for a utility.
func (s *PostgrestStore) ListSchedules(ctx context.Context, utilityID int64) ([]rates.Record, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("order", "ScheduleID.asc")
	query.Set(rates.FieldUtilityID, "eq."+strconv.FormatInt(utilityID, 10))

	var schedules []rates.Record
	if err := s.get(ctx, scheduleTable, query, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

// ListDetailSection reads back one section's records for a schedule.
func (s *PostgrestStore) ListDetailSection(ctx context.Context, scheduleID int64, section string) ([]rates.Record, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set(rates.FieldScheduleID, "eq."+strconv.FormatInt(scheduleID, 10))

	var recs []rates.Record
	if err := s.get(ctx, section, query, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *PostgrestStore) get(ctx context.Context, table string, query url.Values, out any) error {
	endpoint := s.baseURL + "/" + url.PathEscape(table) + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	s.setHeaders(req)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("query %s: %w", table, restError(resp))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", table, err)
	}
	return nil
}

func (s *PostgrestStore) setHeaders(req *http.Request) {
	req.Header.Set("apikey", s.opts.Key)
	req.Header.Set("Authorization", "Bearer "+s.opts.Key)
}

func restError(resp *http.Response) error {
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	var apiErr struct {
		Message string `json:"message"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Message != "" {
			return fmt.Errorf("postgrest error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		if apiErr.Details != "" {
			return fmt.Errorf("postgrest error (%d): %s", resp.StatusCode, apiErr.Details)
		}
	}
	if body := strings.TrimSpace(string(payload)); body != "" {
		return fmt.Errorf("postgrest error (%d): %s", resp.StatusCode, body)
	}
	return fmt.Errorf("postgrest error (%d)", resp.StatusCode)
}

var _ Store = (*PostgrestStore)(nil)
