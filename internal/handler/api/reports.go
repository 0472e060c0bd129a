package api

import (
	"time"

	"EconPulse/internal/domain/models"
)

// Wire DTOs for the reporting endpoints. The storage records stay free of
// JSON tags; this is the only place the HTTP shape is decided.

type AnomalyRow struct {
	IndicatorKey     string    `json:"indicator_key"`
	CountryCode      string    `json:"country_code"`
	ReferenceDate    time.Time `json:"reference_date"`
	UnemploymentRate *float64  `json:"unemployment_rate_pct"`
	InflationRateMoM *float64  `json:"inflation_rate_mom_pct"`

	UnemploymentZScore     *float64 `json:"unemployment_z_score"`
	InflationZScore        *float64 `json:"inflation_z_score"`
	UnemploymentIQROutlier bool     `json:"unemployment_iqr_outlier"`
	InflationIQROutlier    bool     `json:"inflation_iqr_outlier"`
	UnemploymentROCAnomaly bool     `json:"unemployment_roc_anomaly"`
	InflationROCAnomaly    bool     `json:"inflation_roc_anomaly"`

	IsUnemploymentAnomaly bool    `json:"is_unemployment_anomaly"`
	IsInflationAnomaly    bool    `json:"is_inflation_anomaly"`
	IsAnyAnomaly          bool    `json:"is_any_anomaly"`
	SeverityScore         float64 `json:"anomaly_severity_score"`
}

type QualityRow struct {
	CountryCode  string `json:"country_code"`
	TotalRecords int    `json:"total_records"`

	CompletenessScore        float64 `json:"completeness_score"`
	UnemploymentCompleteness float64 `json:"unemployment_completeness"`
	InflationCompleteness    float64 `json:"inflation_completeness"`

	TimelinessScore float64    `json:"timeliness_score"`
	DaysSinceLatest *int       `json:"days_since_latest_data"`
	LatestDataDate  *time.Time `json:"latest_data_date"`

	ValidityScore        float64 `json:"validity_score"`
	UnemploymentValidity float64 `json:"unemployment_validity"`
	InflationValidity    float64 `json:"inflation_validity"`

	ConsistencyScore float64 `json:"consistency_score"`

	OverallQualityScore float64 `json:"overall_quality_score"`
	QualityGrade        string  `json:"quality_grade"`
	PrimaryIssue        string  `json:"primary_issue"`
	RequiresAttention   bool    `json:"requires_attention"`

	ScoredAt            time.Time `json:"scored_at"`
	ScoringModelVersion string    `json:"scoring_model_version"`
}

type ForecastRow struct {
	CountryCode           string    `json:"country_code"`
	ForecastDate          time.Time `json:"forecast_date"`
	ForecastHorizonMonths int       `json:"forecast_horizon_months"`
	LastActualDate        time.Time `json:"last_actual_date"`
	LastActualValue       float64   `json:"last_actual_value"`

	ForecastExpSmoothing float64 `json:"forecast_exp_smoothing"`
	ForecastHolt         float64 `json:"forecast_holt"`
	ForecastLinearReg    float64 `json:"forecast_linear_reg"`
	ForecastEnsemble     float64 `json:"forecast_ensemble"`

	PredictionIntervalLower float64 `json:"prediction_interval_lower"`
	PredictionIntervalUpper float64 `json:"prediction_interval_upper"`
	ForecastConfidence      string  `json:"forecast_confidence"`

	TrainingSamples     int       `json:"training_samples"`
	ForecastGeneratedAt time.Time `json:"forecast_generated_at"`
	ModelVersion        string    `json:"model_version"`
}

func toAnomalyRows(recs []models.AnomalyRecord) []AnomalyRow {
	out := make([]AnomalyRow, 0, len(recs))
	for _, r := range recs {
		out = append(out, AnomalyRow{
			IndicatorKey:           r.IndicatorKey,
			CountryCode:            r.CountryCode,
			ReferenceDate:          r.ReferenceDate,
			UnemploymentRate:       r.UnemploymentRate,
			InflationRateMoM:       r.InflationRateMoM,
			UnemploymentZScore:     r.UnemploymentZScore,
			InflationZScore:        r.InflationZScore,
			UnemploymentIQROutlier: r.UnemploymentIQROutlier,
			InflationIQROutlier:    r.InflationIQROutlier,
			UnemploymentROCAnomaly: r.UnemploymentROCAnomaly,
			InflationROCAnomaly:    r.InflationROCAnomaly,
			IsUnemploymentAnomaly:  r.IsUnemploymentAnomaly,
			IsInflationAnomaly:     r.IsInflationAnomaly,
			IsAnyAnomaly:           r.IsAnyAnomaly,
			SeverityScore:          r.SeverityScore,
		})
	}
	return out
}

func toQualityRows(recs []models.QualityScoreRecord) []QualityRow {
	out := make([]QualityRow, 0, len(recs))
	for _, r := range recs {
		out = append(out, QualityRow{
			CountryCode:              r.CountryCode,
			TotalRecords:             r.TotalRecords,
			CompletenessScore:        r.CompletenessScore,
			UnemploymentCompleteness: r.UnemploymentCompleteness,
			InflationCompleteness:    r.InflationCompleteness,
			TimelinessScore:          r.TimelinessScore,
			DaysSinceLatest:          r.DaysSinceLatest,
			LatestDataDate:           r.LatestDataDate,
			ValidityScore:            r.ValidityScore,
			UnemploymentValidity:     r.UnemploymentValidity,
			InflationValidity:        r.InflationValidity,
			ConsistencyScore:         r.ConsistencyScore,
			OverallQualityScore:      r.OverallQualityScore,
			QualityGrade:             r.QualityGrade,
			PrimaryIssue:             r.PrimaryIssue,
			RequiresAttention:        r.RequiresAttention,
			ScoredAt:                 r.ScoredAt,
			ScoringModelVersion:      r.ScoringModelVersion,
		})
	}
	return out
}

func toForecastRows(recs []models.ForecastRecord) []ForecastRow {
	out := make([]ForecastRow, 0, len(recs))
	for _, r := range recs {
		out = append(out, ForecastRow{
			CountryCode:             r.CountryCode,
			ForecastDate:            r.ForecastDate,
			ForecastHorizonMonths:   r.ForecastHorizonMonths,
			LastActualDate:          r.LastActualDate,
			LastActualValue:         r.LastActualValue,
			ForecastExpSmoothing:    r.ForecastExpSmoothing,
			ForecastHolt:            r.ForecastHolt,
			ForecastLinearReg:       r.ForecastLinearReg,
			ForecastEnsemble:        r.ForecastEnsemble,
			PredictionIntervalLower: r.PredictionIntervalLower,
			PredictionIntervalUpper: r.PredictionIntervalUpper,
			ForecastConfidence:      r.ForecastConfidence,
			TrainingSamples:         r.TrainingSamples,
			ForecastGeneratedAt:     r.ForecastGeneratedAt,
			ModelVersion:            r.ModelVersion,
		})
	}
	return out
}
