package analytics

import (
	"math"
	"time"

	"EconPulse/internal/domain/models"
	"EconPulse/pkg/util"
)

// ForecastEngine produces short-horizon unemployment forecasts per country
// from three methods (simple exponential smoothing, Holt linear trend, OLS
// regression on the observation index) plus their ensemble, with a
// volatility-based prediction interval. Countries below the minimum-history
// policy are skipped entirely.
type ForecastEngine struct {
	cfg Config
}

func NewForecastEngine(cfg Config) *ForecastEngine {
	return &ForecastEngine{cfg: cfg}
}

// Forecast returns one record per horizon 1..ForecastHorizon, with forecast
// dates advancing one calendar month from the last observed date. It returns
// nil when the series has too little history.
func (e *ForecastEngine) Forecast(series models.CountrySeries, now time.Time) []models.ForecastRecord {
	var dates []time.Time
	var y []float64
	for _, r := range series.Readings {
		if r.UnemploymentRate == nil || math.IsNaN(*r.UnemploymentRate) {
			continue
		}
		dates = append(dates, r.ReferenceDate)
		y = append(y, *r.UnemploymentRate)
	}
	if len(y) < e.cfg.MinHistoryMonths {
		return nil
	}

	lastDate := dates[len(dates)-1]
	lastValue := y[len(y)-1]

	esLevel := exponentialSmoothing(y, e.cfg.SmoothingAlpha)
	level, trend := holtLinearTrend(y, e.cfg.SmoothingAlpha, e.cfg.TrendBeta)
	regression := e.regressionForecasts(y)
	margin, hasMargin := e.intervalMargin(y)

	out := make([]models.ForecastRecord, 0, e.cfg.ForecastHorizon)
	for h := 1; h <= e.cfg.ForecastHorizon; h++ {
		// The smoothing term borrows the Holt trend; the smoothed level on
		// its own is only a one-step value.
		esForecast := esLevel + float64(h)*trend
		holtForecast := level + float64(h)*trend
		ensemble := nanMean(esForecast, holtForecast, regression[h-1])

		lower, upper := ensemble-1, ensemble+1
		if hasMargin {
			lower, upper = ensemble-margin, ensemble+margin
		}

		out = append(out, models.ForecastRecord{
			CountryCode:           series.CountryCode,
			ForecastDate:          util.AddMonths(lastDate, h),
			ForecastHorizonMonths: h,
			LastActualDate:        lastDate,
			LastActualValue:       lastValue,

			ForecastExpSmoothing: esForecast,
			ForecastHolt:         holtForecast,
			ForecastLinearReg:    regression[h-1],
			ForecastEnsemble:     ensemble,

			PredictionIntervalLower: lower,
			PredictionIntervalUpper: upper,
			ForecastConfidence:      confidenceBucket(upper - lower),

			TrainingSamples:     len(y),
			ForecastGeneratedAt: now,
			ModelVersion:        models.ModelVersion,
		})
	}
	return out
}

// exponentialSmoothing folds the series into a single smoothed level,
// seeded with the first observation.
func exponentialSmoothing(y []float64, alpha float64) float64 {
	level := y[0]
	for _, v := range y[1:] {
		level = alpha*v + (1-alpha)*level
	}
	return level
}

// holtLinearTrend runs Holt's two-parameter method and returns the final
// (level, trend) pair. Seeds: level = y1, trend = y2 - y1.
func holtLinearTrend(y []float64, alpha, beta float64) (level, trend float64) {
	level = y[0]
	trend = y[1] - y[0]
	for _, v := range y[1:] {
		last := level
		level = alpha*v + (1-alpha)*(level+trend)
		trend = beta*(level-last) + (1-beta)*trend
	}
	return level, trend
}

// regressionForecasts fits y against the observation index by ordinary
// least squares and extrapolates the line over the horizon. With fewer than
// three usable points the last known value repeats for every horizon.
func (e *ForecastEngine) regressionForecasts(y []float64) []float64 {
	out := make([]float64, e.cfg.ForecastHorizon)
	if len(y) < 3 {
		for i := range out {
			out[i] = y[len(y)-1]
		}
		return out
	}

	n := float64(len(y))
	xMean := (n - 1) / 2
	yMean := mean(y)
	var num, den float64
	for i, v := range y {
		dx := float64(i) - xMean
		num += dx * (v - yMean)
		den += dx * dx
	}
	slope := num / den
	intercept := yMean - slope*xMean

	for h := 1; h <= e.cfg.ForecastHorizon; h++ {
		out[h-1] = intercept + slope*(n+float64(h-1))
	}
	return out
}

// intervalMargin derives the half-width of the prediction interval from the
// volatility of first differences. hasMargin is false below the minimum
// interval sample, in which case callers fall back to ±1.
func (e *ForecastEngine) intervalMargin(y []float64) (margin float64, hasMargin bool) {
	if len(y) < e.cfg.MinIntervalSample {
		return 0, false
	}
	sigma := stdDev(diffs(y))
	if math.IsNaN(sigma) {
		return 0, false
	}
	z := 1.645
	if e.cfg.Confidence == 0.95 {
		z = 1.96
	}
	return z * sigma * math.Sqrt(1+1/float64(len(y))), true
}

func confidenceBucket(width float64) string {
	switch {
	case width < 1.0:
		return "high"
	case width < 2.0:
		return "medium"
	default:
		return "low"
	}
}

// nanMean averages its arguments, excluding NaN components.
func nanMean(xs ...float64) float64 {
	sum, n := 0.0, 0
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		sum += x
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
