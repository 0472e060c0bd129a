package models

import "time"

// TrackedIndicator names one of the monthly indicator columns carried by the
// fact relation.
type TrackedIndicator string

const (
	IndicatorUnemployment TrackedIndicator = "unemployment_rate_pct"
	IndicatorInflation    TrackedIndicator = "inflation_rate_mom_pct"
)

// TrackedIndicators lists the indicator columns in stable output order.
var TrackedIndicators = []TrackedIndicator{IndicatorUnemployment, IndicatorInflation}

// IndicatorReading is one monthly observation for one country. Indicator
// values are optional: a nil pointer means the source reported no value for
// that month. Readings are immutable once produced by ingestion.
type IndicatorReading struct {
	CountryCode      string
	ReferenceDate    time.Time // first of month, UTC
	ReferenceYear    int
	ReferenceMonth   int
	IndicatorKey     string
	UnemploymentRate *float64
	InflationRateMoM *float64
}

// Indicator returns the named optional indicator value for this reading.
func (r IndicatorReading) Indicator(ind TrackedIndicator) *float64 {
	switch ind {
	case IndicatorUnemployment:
		return r.UnemploymentRate
	case IndicatorInflation:
		return r.InflationRateMoM
	default:
		return nil
	}
}

// CountrySeries is a derived, never-persisted view: all readings for one
// country sorted ascending by reference date, unique per date. It is rebuilt
// from the fact relation on every analysis run.
type CountrySeries struct {
	CountryCode string
	Readings    []IndicatorReading
}

// Len returns the number of readings in the series.
func (s CountrySeries) Len() int { return len(s.Readings) }

// LatestDate returns the most recent reference date, or the zero time for an
// empty series.
func (s CountrySeries) LatestDate() time.Time {
	if len(s.Readings) == 0 {
		return time.Time{}
	}
	return s.Readings[len(s.Readings)-1].ReferenceDate
}

// IndicatorValues returns the values of one indicator aligned with Readings;
// entries are nil where the month has no observation.
func (s CountrySeries) IndicatorValues(ind TrackedIndicator) []*float64 {
	out := make([]*float64, len(s.Readings))
	for i, r := range s.Readings {
		out[i] = r.Indicator(ind)
	}
	return out
}
