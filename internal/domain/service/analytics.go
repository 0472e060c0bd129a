package service

import (
	"time"

	"EconPulse/internal/domain/models"
)

// AnomalyDetector flags implausible or abruptly-changing readings per
// indicator per row of a country series.
type AnomalyDetector interface {
	Detect(series models.CountrySeries) []models.AnomalyRecord
}

// QualityScorer summarizes a country series into one quality record. The
// caller supplies now so scoring is reproducible in tests.
type QualityScorer interface {
	Score(series models.CountrySeries, now time.Time) models.QualityScoreRecord
}

// ForecastEngine produces forward-looking unemployment forecasts for one
// country; it returns nil for countries below the minimum-history policy.
type ForecastEngine interface {
	Forecast(series models.CountrySeries, now time.Time) []models.ForecastRecord
}
