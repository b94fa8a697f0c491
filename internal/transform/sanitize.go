// Package transform normalises provider records into the backend's row shape.
package transform

import (
	"regexp"

	"github.com/shopspring/decimal"

	"utility-rate-sync/internal/rates"
)

// Schedule fields that must end up numeric. RateAcuity sometimes delivers them
// with unit suffixes ("80 MW") or as empty strings.
var scheduleNumericFields = []string{"MinDemand", "MaxDemand", "MinUsage", "MaxUsage"}

// Schedule fields holding timestamps; empty strings become NULL.
var scheduleTimestampFields = []string{"EffectiveDate"}

var leadingNumber = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)`)

// NumericPrefix extracts the leading numeric part of a value like "80 MW".
func NumericPrefix(s string) (decimal.Decimal, bool) {
	m := leadingNumber.FindStringSubmatch(s)
	if m == nil {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(m[1])
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// CleanSchedule prepares one schedule record for upsert: the owning utility ID
// is injected, numeric fields are stripped of unit suffixes, and empty numeric
// or timestamp values become NULL.
func CleanSchedule(rec rates.Record, utilityID int64) rates.Record {
	out := rec.Clone()
	out[rates.FieldUtilityID] = utilityID

	for _, field := range scheduleTimestampFields {
		if v, ok := out[field]; ok {
			if s, isStr := v.(string); isStr && s == "" {
				out[field] = nil
			}
		}
	}

	for _, field := range scheduleNumericFields {
		v, ok := out[field]
		if !ok || v == nil {
			continue
		}
		s, isStr := v.(string)
		if !isStr {
			continue
		}
		if s == "" {
			out[field] = nil
			continue
		}
		if d, ok := NumericPrefix(s); ok {
			out[field] = d.InexactFloat64()
		} else {
			out[field] = nil
		}
	}

	return out
}

// CleanDetailRecord prepares one detail-section record for upsert: the owning
// schedule ID is injected and every empty-string value becomes NULL.
func CleanDetailRecord(rec rates.Record, scheduleID int64) rates.Record {
	out := rec.Clone()
	out[rates.FieldScheduleID] = scheduleID

	for key, v := range out {
		if s, isStr := v.(string); isStr && s == "" {
			out[key] = nil
		}
	}

	return out
}
