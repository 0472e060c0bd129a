package models

import "time"

// ModelVersion tags every scored/forecast row so dashboards can tell model
// generations apart.
const ModelVersion = "1.0.0"

// AnomalyRecord carries per-row anomaly signals for one reading. One record
// is emitted per input row. Z-scores are nil when the indicator is below the
// minimum-sample policy or the value itself is missing.
type AnomalyRecord struct {
	IndicatorKey     string
	CountryCode      string
	ReferenceDate    time.Time
	ReferenceYear    int
	ReferenceMonth   int
	UnemploymentRate *float64
	InflationRateMoM *float64

	UnemploymentZScore     *float64
	InflationZScore        *float64
	UnemploymentIQROutlier bool
	InflationIQROutlier    bool
	UnemploymentROCAnomaly bool
	InflationROCAnomaly    bool

	IsUnemploymentAnomaly bool
	IsInflationAnomaly    bool
	IsAnyAnomaly          bool
	SeverityScore         float64 // 0..100
}

// QualityScoreRecord is the per-country quality roll-up: four dimension
// scores in [0,100], the weighted overall, and derived alerting fields.
type QualityScoreRecord struct {
	CountryCode  string
	TotalRecords int

	CompletenessScore        float64
	UnemploymentCompleteness float64
	InflationCompleteness    float64

	TimelinessScore float64
	DaysSinceLatest *int
	LatestDataDate  *time.Time

	ValidityScore        float64
	UnemploymentValidity float64
	InflationValidity    float64

	ConsistencyScore float64

	OverallQualityScore float64
	QualityGrade        string
	PrimaryIssue        string
	RequiresAttention   bool

	ScoredAt            time.Time
	ScoringModelVersion string
}

// ForecastRecord is one (country, horizon) unemployment forecast row with
// per-method values, the ensemble, and its uncertainty bounds.
type ForecastRecord struct {
	CountryCode           string
	ForecastDate          time.Time // first of month
	ForecastHorizonMonths int       // 1..6
	LastActualDate        time.Time
	LastActualValue       float64

	ForecastExpSmoothing float64
	ForecastHolt         float64
	ForecastLinearReg    float64
	ForecastEnsemble     float64

	PredictionIntervalLower float64
	PredictionIntervalUpper float64
	ForecastConfidence      string // high | medium | low

	TrainingSamples     int
	ForecastGeneratedAt time.Time
	ModelVersion        string
}

// CountryFailure describes one country whose analysis was dropped without
// failing the batch.
type CountryFailure struct {
	CountryCode string `json:"country_code"`
	Reason      string `json:"reason"`
}

// AnalysisSummary is the per-run roll-up returned by the runner and pushed
// to dashboard clients.
type AnalysisSummary struct {
	StartedAt          time.Time        `json:"started_at"`
	CompletedAt        time.Time        `json:"completed_at"`
	InputRows          int              `json:"input_rows"`
	CountriesAnalyzed  int              `json:"countries_analyzed"`
	AnomalyRows        int              `json:"anomaly_rows"`
	AnomalousRows      int              `json:"anomalous_rows"`
	QualityRows        int              `json:"quality_rows"`
	AttentionCountries []string         `json:"attention_countries,omitempty"`
	ForecastRows       int              `json:"forecast_rows"`
	SkippedForecasts   int              `json:"skipped_forecasts"`
	Failures           []CountryFailure `json:"failures,omitempty"`
}

// QualityAlert is published to Kafka for each country whose overall score
// drops below the attention threshold.
type QualityAlert struct {
	CountryCode  string    `json:"country_code"`
	OverallScore float64   `json:"overall_score"`
	Grade        string    `json:"grade"`
	PrimaryIssue string    `json:"primary_issue"`
	ScoredAt     time.Time `json:"scored_at"`
}

// AnomalyAlert is published to Kafka for each row flagged anomalous.
type AnomalyAlert struct {
	CountryCode   string    `json:"country_code"`
	ReferenceDate time.Time `json:"reference_date"`
	Severity      float64   `json:"severity"`
	Unemployment  bool      `json:"unemployment"`
	Inflation     bool      `json:"inflation"`
}
