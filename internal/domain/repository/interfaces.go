package repository

import (
	"context"

	"EconPulse/internal/domain/models"
)

// FactStore provides access to the monthly fact relation produced by
// ingestion. Reads return rows ordered by (country_code, reference_date).
type FactStore interface {
	InsertReadings(ctx context.Context, rows []models.IndicatorReading) error
	ListReadings(ctx context.Context) ([]models.IndicatorReading, error)
	Health(ctx context.Context) error
}

// RawStore persists decoded source rows before they are merged into the
// fact relation.
type RawStore interface {
	InsertRaw(ctx context.Context, table string, rows []models.RawDatasetRow) error
}

// ResultStore persists and serves the three derived relations. Replace
// semantics: each analysis run fully rewrites a relation so readers never
// see a mix of two runs.
type ResultStore interface {
	ReplaceAnomalies(ctx context.Context, rows []models.AnomalyRecord) error
	ReplaceQualityScores(ctx context.Context, rows []models.QualityScoreRecord) error
	ReplaceForecasts(ctx context.Context, rows []models.ForecastRecord) error

	ListAnomalies(ctx context.Context, country string, onlyHits bool, limit int) ([]models.AnomalyRecord, error)
	ListQualityScores(ctx context.Context, country string) ([]models.QualityScoreRecord, error)
	ListForecasts(ctx context.Context, country string) ([]models.ForecastRecord, error)
}

// AlertPublisher fans analysis outcomes out to the alerting backbone.
type AlertPublisher interface {
	PublishQualityAlerts(ctx context.Context, alerts []models.QualityAlert) error
	PublishAnomalyAlerts(ctx context.Context, alerts []models.AnomalyAlert) error
	PublishIngestCompleted(ctx context.Context, datasets []string, rows int) error
	Close() error
}

// Metrics abstracts pipeline instrumentation.
type Metrics interface {
	RecordRowsIngested(dataset string, n int)
	RecordCountriesAnalyzed(analyzer string, n int)
	RecordAnomalies(country string, n int)
	RecordQualityScore(country string, score float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
