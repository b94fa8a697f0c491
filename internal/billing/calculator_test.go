package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"utility-rate-sync/internal/rates"
)

type fakeSections struct {
	sections map[string][]rates.Record
	err      error
}

func (f *fakeSections) ListDetailSection(ctx context.Context, scheduleID int64, section string) ([]rates.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sections[section], nil
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func TestEstimateFullBreakdown(t *testing.T) {
	store := &fakeSections{sections: map[string][]rates.Record{
		rates.SectionServiceCharge: {
			{"Rate": "10.00", "Description": "Customer charge"},
			{"Rate": "2.50", "Description": "Meter charge"},
		},
		rates.SectionEnergyTime: {
			{"RatekWh": "0.10", "TimeOfDay": "On-Peak"},
			{"RatekWh": "0.05", "TimeOfDay": "Off-Peak"},
		},
		rates.SectionDemandTime: {
			{"RatekW": "8.00"},
		},
		rates.SectionOtherCharges: {
			{"Rate": "1.25"},
		},
		rates.SectionRateAdjustment: {
			{"Rate": "0.01"},
		},
		rates.SectionTax: {
			{"Rate": "6.25"},
		},
	}}

	calc := NewCalculator(store, zerolog.Nop())
	b, err := calc.Estimate(context.Background(), 9001, Usage{
		EnergyKWh: dec(t, "1000"),
		DemandKW:  dec(t, "50"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 500 kWh per TOU period: 500*0.10 + 500*0.05 = 75.
	if !b.EnergyCharge.Equal(dec(t, "75")) {
		t.Fatalf("energy charge: expected 75, got %s", b.EnergyCharge)
	}
	if !b.ServiceCharge.Equal(dec(t, "12.50")) {
		t.Fatalf("service charge: expected 12.50, got %s", b.ServiceCharge)
	}
	if !b.DemandCharge.Equal(dec(t, "400")) {
		t.Fatalf("demand charge: expected 400, got %s", b.DemandCharge)
	}
	if !b.Adjustments.Equal(dec(t, "10")) {
		t.Fatalf("adjustments: expected 10, got %s", b.Adjustments)
	}
	if !b.OtherCharges.Equal(dec(t, "1.25")) {
		t.Fatalf("other charges: expected 1.25, got %s", b.OtherCharges)
	}

	subtotal := dec(t, "498.75")
	if !b.Subtotal.Equal(subtotal) {
		t.Fatalf("subtotal: expected %s, got %s", subtotal, b.Subtotal)
	}
	wantTax := subtotal.Mul(dec(t, "6.25")).Div(dec(t, "100"))
	if !b.TaxAmount.Equal(wantTax) {
		t.Fatalf("tax: expected %s, got %s", wantTax, b.TaxAmount)
	}
	if !b.Total.Equal(subtotal.Add(wantTax)) {
		t.Fatalf("total: expected %s, got %s", subtotal.Add(wantTax), b.Total)
	}
	if b.NoTaxData {
		t.Fatal("tax rows were present")
	}
}

func TestEstimateSeasonalFilter(t *testing.T) {
	store := &fakeSections{sections: map[string][]rates.Record{
		rates.SectionEnergyTime: {
			{"RatekWh": "0.20", "Season": "Summer"},
			{"RatekWh": "0.08", "Season": "Winter"},
			{"RatekWh": "0.10"},
		},
	}}

	calc := NewCalculator(store, zerolog.Nop())
	b, err := calc.Estimate(context.Background(), 9001, Usage{
		EnergyKWh: dec(t, "1000"),
		Month:     time.July,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// July keeps the summer and the unseasoned period: 500*0.20 + 500*0.10.
	if !b.EnergyCharge.Equal(dec(t, "150")) {
		t.Fatalf("expected 150, got %s", b.EnergyCharge)
	}
}

func TestEstimateNoTaxData(t *testing.T) {
	store := &fakeSections{sections: map[string][]rates.Record{
		rates.SectionServiceCharge: {{"Rate": "10"}},
	}}

	calc := NewCalculator(store, zerolog.Nop())
	b, err := calc.Estimate(context.Background(), 9001, Usage{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.NoTaxData {
		t.Fatal("missing tax rows must be flagged")
	}
	if !b.Total.Equal(dec(t, "10")) {
		t.Fatalf("expected 10, got %s", b.Total)
	}
}

func TestEstimateStoreError(t *testing.T) {
	calc := NewCalculator(&fakeSections{err: errors.New("boom")}, zerolog.Nop())
	if _, err := calc.Estimate(context.Background(), 9001, Usage{}); err == nil {
		t.Fatal("store errors must propagate")
	}
}
