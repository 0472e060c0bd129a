package analytics

import (
	"math"

	"EconPulse/internal/domain/models"
)

// AnomalyDetector flags implausible or abruptly-changing readings. Three
// criteria per tracked indicator: z-score magnitude, IQR outlier fences, and
// month-over-month rate of change. A missing value never triggers a flag.
type AnomalyDetector struct {
	cfg Config
}

func NewAnomalyDetector(cfg Config) *AnomalyDetector {
	return &AnomalyDetector{cfg: cfg}
}

// indicatorSignals holds the per-row columns computed for one indicator.
type indicatorSignals struct {
	z   []*float64
	iqr []bool
	roc []bool
}

// Detect emits one AnomalyRecord per reading of the series, in input order.
func (d *AnomalyDetector) Detect(series models.CountrySeries) []models.AnomalyRecord {
	n := series.Len()
	unemp := d.signals(series.IndicatorValues(models.IndicatorUnemployment))
	infl := d.signals(series.IndicatorValues(models.IndicatorInflation))

	out := make([]models.AnomalyRecord, 0, n)
	for i, r := range series.Readings {
		rec := models.AnomalyRecord{
			IndicatorKey:     r.IndicatorKey,
			CountryCode:      r.CountryCode,
			ReferenceDate:    r.ReferenceDate,
			ReferenceYear:    r.ReferenceYear,
			ReferenceMonth:   r.ReferenceMonth,
			UnemploymentRate: r.UnemploymentRate,
			InflationRateMoM: r.InflationRateMoM,

			UnemploymentZScore:     unemp.z[i],
			InflationZScore:        infl.z[i],
			UnemploymentIQROutlier: unemp.iqr[i],
			InflationIQROutlier:    infl.iqr[i],
			UnemploymentROCAnomaly: unemp.roc[i],
			InflationROCAnomaly:    infl.roc[i],
		}

		rec.IsUnemploymentAnomaly = d.composite(rec.UnemploymentZScore, rec.UnemploymentIQROutlier, rec.UnemploymentROCAnomaly)
		rec.IsInflationAnomaly = d.composite(rec.InflationZScore, rec.InflationIQROutlier, rec.InflationROCAnomaly)
		rec.IsAnyAnomaly = rec.IsUnemploymentAnomaly || rec.IsInflationAnomaly
		rec.SeverityScore = clip(10*clipAbsZ(rec.UnemploymentZScore)+10*clipAbsZ(rec.InflationZScore), 0, 100)

		out = append(out, rec)
	}
	return out
}

// composite ORs the three criteria; a missing z-score contributes false.
func (d *AnomalyDetector) composite(z *float64, iqr, roc bool) bool {
	zHit := z != nil && math.Abs(*z) > d.cfg.ZScoreThreshold
	return zHit || iqr || roc
}

func clipAbsZ(z *float64) float64 {
	if z == nil {
		return 0
	}
	return clip(math.Abs(*z), 0, 5)
}

// signals computes the three per-row criteria columns for one indicator.
// Below the minimum-sample policy every column stays missing/false: that is
// a declared default, not an error.
func (d *AnomalyDetector) signals(values []*float64) indicatorSignals {
	sig := indicatorSignals{
		z:   make([]*float64, len(values)),
		iqr: make([]bool, len(values)),
		roc: make([]bool, len(values)),
	}

	present := dropMissing(values)
	if len(present) < d.cfg.MinAnomalySample {
		return sig
	}

	d.zScores(&sig, values, present)
	d.iqrOutliers(&sig, values, present)
	d.rateOfChange(&sig, values)
	return sig
}

func (d *AnomalyDetector) zScores(sig *indicatorSignals, values []*float64, present []float64) {
	m := mean(present)
	s := stdDev(present)
	if s == 0 || math.IsNaN(s) {
		// Degenerate variance: a non-varying series is never flagged by
		// z-score, so the whole column is defined as 0.
		for i := range values {
			sig.z[i] = ptr(0)
		}
		return
	}
	for i, v := range values {
		if v == nil || math.IsNaN(*v) {
			continue
		}
		sig.z[i] = ptr((*v - m) / s)
	}
}

func (d *AnomalyDetector) iqrOutliers(sig *indicatorSignals, values []*float64, present []float64) {
	q1 := quantile(present, 0.25)
	q3 := quantile(present, 0.75)
	iqr := q3 - q1
	lower := q1 - d.cfg.IQRMultiplier*iqr
	upper := q3 + d.cfg.IQRMultiplier*iqr
	for i, v := range values {
		if v == nil || math.IsNaN(*v) {
			continue
		}
		sig.iqr[i] = *v < lower || *v > upper
	}
}

// rateOfChange flags |x_t/x_prev - 1| above threshold, where x_prev is the
// most recent earlier non-missing value. The first observation has no prior
// and is never flagged.
func (d *AnomalyDetector) rateOfChange(sig *indicatorSignals, values []*float64) {
	var prev *float64
	for i, v := range values {
		if v == nil || math.IsNaN(*v) {
			continue
		}
		if prev != nil {
			if *prev == 0 {
				// A move off an exact zero is an unbounded relative change.
				sig.roc[i] = *v != 0
			} else {
				sig.roc[i] = math.Abs(*v / *prev - 1) > d.cfg.RateOfChangeThreshold
			}
		}
		prev = v
	}
}
