package analytics

import (
	"math"
	"testing"
	"time"

	"EconPulse/internal/domain/models"
)

// mkSeries builds a monthly country series from aligned optional columns.
func mkSeries(country string, unemp, infl []*float64) models.CountrySeries {
	n := len(unemp)
	if len(infl) > n {
		n = len(infl)
	}
	readings := make([]models.IndicatorReading, 0, n)
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		d := time.Date(start.Year(), start.Month()+time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		r := models.IndicatorReading{
			CountryCode:    country,
			ReferenceDate:  d,
			ReferenceYear:  d.Year(),
			ReferenceMonth: int(d.Month()),
		}
		if i < len(unemp) {
			r.UnemploymentRate = unemp[i]
		}
		if i < len(infl) {
			r.InflationRateMoM = infl[i]
		}
		readings = append(readings, r)
	}
	return models.CountrySeries{CountryCode: country, Readings: readings}
}

func repeat(v float64, n int) []*float64 {
	out := make([]*float64, n)
	for i := range out {
		out[i] = ptr(v)
	}
	return out
}

func TestDetectBelowMinimumSample(t *testing.T) {
	d := NewAnomalyDetector(DefaultConfig())
	// 10 present values is one short of the policy.
	recs := d.Detect(mkSeries("DE", repeat(5, 10), nil))
	if len(recs) != 10 {
		t.Fatalf("got %d records, want 10", len(recs))
	}
	for i, r := range recs {
		if r.UnemploymentZScore != nil {
			t.Fatalf("row %d: z-score should be missing below minimum sample", i)
		}
		if r.IsAnyAnomaly || r.UnemploymentIQROutlier || r.UnemploymentROCAnomaly {
			t.Fatalf("row %d: no flags expected below minimum sample", i)
		}
	}
}

func TestDetectConstantSeriesZeroZ(t *testing.T) {
	d := NewAnomalyDetector(DefaultConfig())
	recs := d.Detect(mkSeries("DE", repeat(6.5, 11), nil))
	for i, r := range recs {
		if r.UnemploymentZScore == nil || *r.UnemploymentZScore != 0 {
			t.Fatalf("row %d: degenerate variance must define z as 0, got %v", i, r.UnemploymentZScore)
		}
		if r.IsAnyAnomaly {
			t.Fatalf("row %d: constant series must never be flagged", i)
		}
		if r.SeverityScore != 0 {
			t.Fatalf("row %d: severity = %v, want 0", i, r.SeverityScore)
		}
	}
}

func TestDetectSpikeTripsAllCriteria(t *testing.T) {
	d := NewAnomalyDetector(DefaultConfig())
	unemp := repeat(5, 23)
	unemp = append(unemp, ptr(20))
	recs := d.Detect(mkSeries("ES", unemp, nil))

	last := recs[len(recs)-1]
	if last.UnemploymentZScore == nil || *last.UnemploymentZScore <= 3 {
		t.Fatalf("spike z = %v, want > 3", last.UnemploymentZScore)
	}
	if !last.UnemploymentIQROutlier {
		t.Fatalf("spike should be an IQR outlier")
	}
	if !last.UnemploymentROCAnomaly {
		t.Fatalf("spike should be a rate-of-change anomaly")
	}
	if !last.IsUnemploymentAnomaly || !last.IsAnyAnomaly {
		t.Fatalf("spike should set the composite flags")
	}
	if last.SeverityScore <= 0 || last.SeverityScore > 100 {
		t.Fatalf("severity = %v, want (0,100]", last.SeverityScore)
	}
}

func TestDetectRateOfChangeSkipsMissing(t *testing.T) {
	d := NewAnomalyDetector(DefaultConfig())
	// 5.0, 5.1, ... then a gap, then a doubling relative to the last
	// non-missing value.
	unemp := make([]*float64, 0, 14)
	for i := 0; i < 12; i++ {
		unemp = append(unemp, ptr(5+0.1*float64(i)))
	}
	unemp = append(unemp, nil, ptr(12.2)) // 12.2/6.1 - 1 = 1.0 > 0.5

	recs := d.Detect(mkSeries("FR", unemp, nil))
	last := recs[len(recs)-1]
	if !last.UnemploymentROCAnomaly {
		t.Fatalf("change relative to last non-missing value should be flagged")
	}
	gap := recs[len(recs)-2]
	if gap.UnemploymentZScore != nil || gap.UnemploymentROCAnomaly {
		t.Fatalf("missing row must stay unflagged with missing z")
	}
}

func TestDetectRateOfChangeFromZero(t *testing.T) {
	d := NewAnomalyDetector(DefaultConfig())
	infl := []*float64{
		ptr(0.1), ptr(-0.2), ptr(0.3), ptr(0.2), ptr(-0.1), ptr(0.4),
		ptr(0.2), ptr(0.1), ptr(-0.3), ptr(0.2), ptr(0), ptr(0.5),
	}
	recs := d.Detect(mkSeries("IT", nil, infl))
	last := recs[len(recs)-1]
	if !last.InflationROCAnomaly {
		t.Fatalf("any move off an exact zero should be flagged")
	}
}

func TestDetectSeverityClip(t *testing.T) {
	d := NewAnomalyDetector(DefaultConfig())
	unemp := repeat(5, 30)
	unemp = append(unemp, ptr(200))
	recs := d.Detect(mkSeries("PL", unemp, nil))
	last := recs[len(recs)-1]
	// |z| clips at 5 per indicator, so one indicator maxes out at 50.
	if !almost(last.SeverityScore, 50, 1e-9) {
		t.Fatalf("severity = %v, want 50", last.SeverityScore)
	}
}

func TestDetectMissingValueNeverFlagged(t *testing.T) {
	d := NewAnomalyDetector(DefaultConfig())
	unemp := repeat(5, 12)
	unemp[6] = nil
	recs := d.Detect(mkSeries("NL", unemp, nil))
	r := recs[6]
	if r.UnemploymentZScore != nil && !math.IsNaN(*r.UnemploymentZScore) && *r.UnemploymentZScore != 0 {
		// degenerate series defines z=0 everywhere including missing rows
		t.Fatalf("unexpected z for missing row: %v", *r.UnemploymentZScore)
	}
	if r.UnemploymentIQROutlier || r.UnemploymentROCAnomaly {
		t.Fatalf("missing value must not trip flags")
	}
}
