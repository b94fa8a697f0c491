package rates

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Field names shared between the provider payloads and the backend schema.
const (
	FieldUtilityID  = "UtilityID"
	FieldScheduleID = "ScheduleID"
)

// Detail section names as RateAcuity (and the backend schema) spell them.
const (
	SectionEnergyTime     = "EnergyTime_Table"
	SectionDemandTime     = "DemandTime_Table"
	SectionServiceCharge  = "ServiceCharge_Table"
	SectionOtherCharges   = "OtherCharges_Table"
	SectionRateAdjustment = "RateAdjustment_Table"
	SectionTax            = "Tax_Table"
)

// Sections lists the detail sections the importer understands, in import order.
var Sections = []string{
	SectionEnergyTime,
	SectionDemandTime,
	SectionServiceCharge,
	SectionOtherCharges,
	SectionRateAdjustment,
	SectionTax,
}

// KnownSection reports whether a scheduledetailtip section is imported.
func KnownSection(name string) bool {
	for _, s := range Sections {
		if s == name {
			return true
		}
	}
	return false
}

// Utility is the one fully typed provider record.
type Utility struct {
	ID    int64  `json:"UtilityID"`
	Name  string `json:"UtilityName"`
	State string `json:"State"`
}

// Record is an opaque rate record: a mapping from field name to scalar value.
// Schedules and detail rows carry an open field set, so they stay untyped and
// are passed through sanitization instead of struct mapping.
type Record map[string]any

// Detail is one schedule's detail payload, keyed by section name.
type Detail map[string][]Record

// Clone returns a shallow copy so sanitization never mutates provider output.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String returns the field as a trimmed string, or "" when absent or null.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(s, 10)
	default:
		return ""
	}
}

// Int64 extracts an integer field regardless of how the JSON decoder typed it.
func (r Record) Int64(key string) (int64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// Decimal extracts a numeric field as a decimal, tolerating string encoding.
func (r Record) Decimal(key string) (decimal.Decimal, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return decimal.Decimal{}, false
	}
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	default:
		return decimal.Decimal{}, false
	}
}
