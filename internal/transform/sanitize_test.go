package transform

import (
	"testing"

	"utility-rate-sync/internal/rates"
)

func TestNumericPrefix(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"80 MW", "80", true},
		{"  12.5 kW", "12.5", true},
		{"500", "500", true},
		{"N/A", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		d, ok := NumericPrefix(tc.in)
		if ok != tc.ok {
			t.Fatalf("%q: expected ok=%v, got %v", tc.in, tc.ok, ok)
		}
		if ok && d.String() != tc.want {
			t.Fatalf("%q: expected %s, got %s", tc.in, tc.want, d.String())
		}
	}
}

func TestCleanSchedule(t *testing.T) {
	rec := rates.Record{
		"ScheduleID":    int64(9001),
		"ScheduleName":  "G-1 General Service",
		"MinDemand":     "80 MW",
		"MaxDemand":     "",
		"MinUsage":      "not a number",
		"EffectiveDate": "",
	}

	cleaned := CleanSchedule(rec, 101)

	if got := cleaned["UtilityID"]; got != int64(101) {
		t.Fatalf("utility id not injected: %#v", got)
	}
	if got := cleaned["MinDemand"]; got != float64(80) {
		t.Fatalf("unit suffix not stripped: %#v", got)
	}
	if cleaned["MaxDemand"] != nil {
		t.Fatalf("empty numeric should be NULL: %#v", cleaned["MaxDemand"])
	}
	if cleaned["MinUsage"] != nil {
		t.Fatalf("unparseable numeric should be NULL: %#v", cleaned["MinUsage"])
	}
	if cleaned["EffectiveDate"] != nil {
		t.Fatalf("empty timestamp should be NULL: %#v", cleaned["EffectiveDate"])
	}
	if cleaned["ScheduleName"] != "G-1 General Service" {
		t.Fatal("unrelated fields must pass through")
	}

	// Input record stays untouched.
	if rec["MinDemand"] != "80 MW" || rec["UtilityID"] != nil {
		t.Fatal("sanitization must not mutate the provider record")
	}
}

func TestCleanDetailRecord(t *testing.T) {
	rec := rates.Record{
		"Rate":        "0.12",
		"Description": "",
		"Season":      "Summer",
	}

	cleaned := CleanDetailRecord(rec, 9001)

	if got := cleaned["ScheduleID"]; got != int64(9001) {
		t.Fatalf("schedule id not injected: %#v", got)
	}
	if cleaned["Description"] != nil {
		t.Fatal("empty string should be NULL")
	}
	if cleaned["Season"] != "Summer" || cleaned["Rate"] != "0.12" {
		t.Fatal("non-empty fields must pass through")
	}
}
