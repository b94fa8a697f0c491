package fetcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func newTestClient(baseURL string) *Client {
	return NewClient(ClientOptions{
		BaseURL:   baseURL,
		Username:  "user",
		Password:  "pass",
		Timeout:   time.Second,
		UserAgent: "test",
	}, noopLogger())
}

func TestFetchUtilitiesMissingCredentials(t *testing.T) {
	c := NewClient(ClientOptions{BaseURL: "http://localhost"}, noopLogger())
	if _, err := c.FetchUtilities(context.Background(), "MA"); err == nil {
		t.Fatal("missing credentials should fail before any request")
	}
}

func TestFetchUtilitiesSuccess(t *testing.T) {
	var gotPath, gotP1, gotP2 string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotP1 = r.URL.Query().Get("p1")
		gotP2 = r.URL.Query().Get("p2")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"Utility": []map[string]any{
				{"UtilityID": 101, "UtilityName": "Eversource Energy", "State": "MA"},
				{"UtilityID": 102, "UtilityName": "National Grid", "State": "MA"},
			},
		})
	}))
	defer srv.Close()

	utilities, err := newTestClient(srv.URL).FetchUtilities(context.Background(), "ma")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/utility/MA" {
		t.Fatalf("expected /utility/MA, got %s", gotPath)
	}
	if gotP1 != "user" || gotP2 != "pass" {
		t.Fatalf("credentials not passed as p1/p2: p1=%q p2=%q", gotP1, gotP2)
	}
	if len(utilities) != 2 {
		t.Fatalf("expected 2 utilities, got %d", len(utilities))
	}
	if utilities[0].ID != 101 || utilities[0].Name != "Eversource Energy" || utilities[0].State != "MA" {
		t.Fatalf("unexpected first utility: %+v", utilities[0])
	}
}

func TestFetchUtilitiesAuthRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchUtilities(context.Background(), "MA")
	if err == nil {
		t.Fatal("401 should surface as an error")
	}
	if !IsAuthRejected(err) {
		t.Fatalf("expected auth rejection, got %v", err)
	}
}

func TestFetchSchedulesKeepsOpenFieldSet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/schedule/101" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"Schedule":[{"ScheduleID":9001,"ScheduleName":"G-1","MinDemand":"80 MW","SomeNewField":"x"}]}`))
	}))
	defer srv.Close()

	schedules, err := newTestClient(srv.URL).FetchSchedules(context.Background(), 101)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(schedules) != 1 {
		t.Fatalf("expected 1 schedule, got %d", len(schedules))
	}
	id, ok := schedules[0].Int64("ScheduleID")
	if !ok || id != 9001 {
		t.Fatalf("schedule id not preserved: %+v", schedules[0])
	}
	if schedules[0].String("SomeNewField") != "x" {
		t.Fatal("unknown fields must pass through untouched")
	}
}

func TestFetchScheduleDetailUnwrapsArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"ServiceCharge_Table":[{"Rate":"12.5","Description":"Customer charge"}],"Mystery_Table":[]}]`))
	}))
	defer srv.Close()

	detail, err := newTestClient(srv.URL).FetchScheduleDetail(context.Background(), 9001)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	recs := detail["ServiceCharge_Table"]
	if len(recs) != 1 {
		t.Fatalf("expected 1 service charge record, got %d", len(recs))
	}
	if d, ok := recs[0].Decimal("Rate"); !ok || !d.Equal(decimalFromString(t, "12.5")) {
		t.Fatalf("rate not decoded: %+v", recs[0])
	}
}

func TestFetchScheduleDetailEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).FetchScheduleDetail(context.Background(), 9001); err == nil {
		t.Fatal("empty array should be rejected")
	}
}
