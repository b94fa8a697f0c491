// Package billing estimates a monthly bill for one rate schedule from its
// imported detail sections.
package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"utility-rate-sync/internal/rates"
)

// SectionReader is the slice of the backend store the calculator needs.
type SectionReader interface {
	ListDetailSection(ctx context.Context, scheduleID int64, section string) ([]rates.Record, error)
}

// Usage describes the consumption profile to price.
type Usage struct {
	EnergyKWh decimal.Decimal
	DemandKW  decimal.Decimal
	// Month selects seasonal rates; zero prices all periods year-round.
	Month time.Month
}

// Breakdown is an estimated bill split by charge class.
type Breakdown struct {
	ServiceCharge decimal.Decimal
	EnergyCharge  decimal.Decimal
	DemandCharge  decimal.Decimal
	OtherCharges  decimal.Decimal
	Adjustments   decimal.Decimal
	Subtotal      decimal.Decimal
	TaxAmount     decimal.Decimal
	Total         decimal.Decimal
	// NoTaxData is set when the schedule carries no tax rows; the estimate
	// then excludes tax rather than guessing a rate.
	NoTaxData bool
}

// Calculator prices usage against imported schedule details.
type Calculator struct {
	store  SectionReader
	logger zerolog.Logger
}

// NewCalculator constructs a bill calculator over a backend store.
func NewCalculator(store SectionReader, logger zerolog.Logger) *Calculator {
	return &Calculator{store: store, logger: logger.With().Str("component", "bill_calculator").Logger()}
}

// Estimate prices the usage profile against one schedule.
//
// Time-of-use energy rates are priced with usage split evenly across the
// matching periods; demand rates apply the full billed demand per matching
// period; rate adjustments are treated as $/kWh riders; taxes as percentages
// of the subtotal.
func (c *Calculator) Estimate(ctx context.Context, scheduleID int64, usage Usage) (Breakdown, error) {
	var b Breakdown

	serviceRecs, err := c.section(ctx, scheduleID, rates.SectionServiceCharge)
	if err != nil {
		return b, err
	}
	b.ServiceCharge = sumField(serviceRecs, "Rate")

	if usage.EnergyKWh.IsPositive() {
		energyRecs, err := c.section(ctx, scheduleID, rates.SectionEnergyTime)
		if err != nil {
			return b, err
		}
		b.EnergyCharge = energyTimeCharge(energyRecs, usage)

		adjRecs, err := c.section(ctx, scheduleID, rates.SectionRateAdjustment)
		if err != nil {
			return b, err
		}
		b.Adjustments = sumField(adjRecs, "Rate").Mul(usage.EnergyKWh)
	}

	if usage.DemandKW.IsPositive() {
		demandRecs, err := c.section(ctx, scheduleID, rates.SectionDemandTime)
		if err != nil {
			return b, err
		}
		b.DemandCharge = demandTimeCharge(demandRecs, usage)
	}

	otherRecs, err := c.section(ctx, scheduleID, rates.SectionOtherCharges)
	if err != nil {
		return b, err
	}
	b.OtherCharges = sumField(otherRecs, "Rate")

	b.Subtotal = b.ServiceCharge.
		Add(b.EnergyCharge).
		Add(b.DemandCharge).
		Add(b.OtherCharges).
		Add(b.Adjustments)

	taxRecs, err := c.section(ctx, scheduleID, rates.SectionTax)
	if err != nil {
		return b, err
	}
	if len(taxRecs) == 0 {
		b.NoTaxData = true
	} else {
		percent := sumField(taxRecs, "Rate")
		b.TaxAmount = b.Subtotal.Mul(percent).Div(decimal.NewFromInt(100))
	}

	b.Total = b.Subtotal.Add(b.TaxAmount)
	return b, nil
}

func (c *Calculator) section(ctx context.Context, scheduleID int64, section string) ([]rates.Record, error) {
	recs, err := c.store.ListDetailSection(ctx, scheduleID, section)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", section, err)
	}
	return recs, nil
}

// energyTimeCharge splits the monthly kWh evenly across the time-of-use
// periods in season and prices each at its RatekWh.
func energyTimeCharge(recs []rates.Record, usage Usage) decimal.Decimal {
	periods := inSeason(recs, usage.Month)
	if len(periods) == 0 {
		return decimal.Zero
	}

	perPeriod := usage.EnergyKWh.Div(decimal.NewFromInt(int64(len(periods))))
	total := decimal.Zero
	for _, rec := range periods {
		if rate, ok := rec.Decimal("RatekWh"); ok {
			total = total.Add(rate.Mul(perPeriod))
		}
	}
	return total
}

// demandTimeCharge applies the billed demand to every demand rate in season.
func demandTimeCharge(recs []rates.Record, usage Usage) decimal.Decimal {
	total := decimal.Zero
	for _, rec := range inSeason(recs, usage.Month) {
		if rate, ok := rec.Decimal("RatekW"); ok {
			total = total.Add(rate.Mul(usage.DemandKW))
		}
	}
	return total
}

func sumField(recs []rates.Record, field string) decimal.Decimal {
	total := decimal.Zero
	for _, rec := range recs {
		if v, ok := rec.Decimal(field); ok {
			total = total.Add(v)
		}
	}
	return total
}

var (
	summerMonths = map[time.Month]bool{time.June: true, time.July: true, time.August: true, time.September: true}
	winterMonths = map[time.Month]bool{time.December: true, time.January: true, time.February: true, time.March: true}
)

// inSeason keeps records whose Season matches the billing month. Records
// without a season always apply; an unspecified month applies everything.
func inSeason(recs []rates.Record, month time.Month) []rates.Record {
	if month == 0 {
		return recs
	}

	kept := recs[:0:0]
	for _, rec := range recs {
		switch rec.String("Season") {
		case "Summer", "summer":
			if summerMonths[month] {
				kept = append(kept, rec)
			}
		case "Winter", "winter":
			if winterMonths[month] {
				kept = append(kept, rec)
			}
		default:
			kept = append(kept, rec)
		}
	}
	return kept
}
