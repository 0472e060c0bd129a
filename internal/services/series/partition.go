// Package series is the grouping substrate: it turns the flat fact relation
// into one ordered CountrySeries per country.
package series

import (
	"fmt"
	"sort"

	"EconPulse/internal/domain/models"
)

// InvalidRow reports one malformed input row that was excluded from
// partitioning. Malformed rows never abort the remaining countries.
type InvalidRow struct {
	Index  int
	Reason string
}

func (e InvalidRow) Error() string {
	return fmt.Sprintf("row %d: %s", e.Index, e.Reason)
}

// Partition groups rows by country code and sorts each group ascending by
// reference date. Output ordering is deterministic (countries sorted by
// code). Rows with an empty country code, a zero date, or a duplicate
// (country, date) pair are dropped and reported.
func Partition(rows []models.IndicatorReading) ([]models.CountrySeries, []InvalidRow) {
	byCountry := make(map[string][]models.IndicatorReading)
	var invalid []InvalidRow

	for i, r := range rows {
		if r.CountryCode == "" {
			invalid = append(invalid, InvalidRow{Index: i, Reason: "empty country_code"})
			continue
		}
		if r.ReferenceDate.IsZero() {
			invalid = append(invalid, InvalidRow{Index: i, Reason: "zero reference_date"})
			continue
		}
		byCountry[r.CountryCode] = append(byCountry[r.CountryCode], r)
	}

	codes := make([]string, 0, len(byCountry))
	for code := range byCountry {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := make([]models.CountrySeries, 0, len(codes))
	for _, code := range codes {
		group := byCountry[code]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].ReferenceDate.Before(group[j].ReferenceDate)
		})

		deduped := group[:0]
		for i, r := range group {
			if i > 0 && r.ReferenceDate.Equal(deduped[len(deduped)-1].ReferenceDate) {
				invalid = append(invalid, InvalidRow{
					Reason: fmt.Sprintf("duplicate reference_date %s for %s", r.ReferenceDate.Format("2006-01-02"), code),
				})
				continue
			}
			deduped = append(deduped, r)
		}
		out = append(out, models.CountrySeries{CountryCode: code, Readings: deduped})
	}
	return out, invalid
}
