package app

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"utility-rate-sync/internal/billing"
)

func TestParseMonth(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Month
		wantErr bool
	}{
		{"", 0, false},
		{"July", time.July, false},
		{"Jan", time.January, false},
		{"7", time.July, false},
		{"12", time.December, false},
		{"notamonth", 0, true},
	}

	for _, tc := range cases {
		got, err := parseMonth(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseMonth(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseMonth(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseMonth(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestWriteEstimatesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "rates.csv")

	estimates := []scheduleEstimate{
		{
			ScheduleID: 101,
			Name:       "R-1 Residential",
			Breakdown: billing.Breakdown{
				ServiceCharge: decimal.RequireFromString("12.50"),
				EnergyCharge:  decimal.RequireFromString("75.00"),
				Subtotal:      decimal.RequireFromString("87.50"),
				Total:         decimal.RequireFromString("87.50"),
			},
		},
		{
			ScheduleID: 102,
			Name:       "G-1 Small General",
			Breakdown: billing.Breakdown{
				Total: decimal.RequireFromString("140.25"),
			},
		},
	}

	if err := writeEstimatesCSV(path, estimates); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "schedule_id" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "101" || rows[1][1] != "R-1 Residential" || rows[1][8] != "87.50" {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
	if rows[2][8] != "140.25" {
		t.Fatalf("unexpected second row: %v", rows[2])
	}
}
