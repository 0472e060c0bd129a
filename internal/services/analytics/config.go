package analytics

// Config carries every threshold and parameter used by the analyzers. It is
// passed by value at construction so a running analyzer can never observe a
// mutated configuration; tests vary individual fields off DefaultConfig.
type Config struct {
	// Anomaly detection.
	ZScoreThreshold       float64 // |z| above this flags the row
	IQRMultiplier         float64 // robust outlier fence width
	RateOfChangeThreshold float64 // |x_t/x_{t-1} - 1| above this flags the row
	MinAnomalySample      int     // non-missing values required to compute stats

	// Quality scoring.
	CompletenessWeight      float64
	TimelinessWeight        float64
	ValidityWeight          float64
	ConsistencyWeight       float64
	TimelinessThresholdDays int     // full score up to this staleness
	TimelinessDecayPerMonth float64 // points lost per 30 days beyond threshold
	UnemploymentMin         float64
	UnemploymentMax         float64
	InflationMin            float64
	InflationMax            float64
	MinConsistencySample    int // dimension defaults to 100 at or below this
	AttentionThreshold      float64
	IssueThreshold          float64 // dimension below this becomes the primary issue

	// Forecasting.
	ForecastHorizon   int
	MinHistoryMonths  int
	SmoothingAlpha    float64
	TrendBeta         float64
	MinIntervalSample int     // history needed to estimate interval width
	Confidence        float64 // 0.95 or 0.90
}

// DefaultConfig returns the production parameter set.
func DefaultConfig() Config {
	return Config{
		ZScoreThreshold:       3.0,
		IQRMultiplier:         1.5,
		RateOfChangeThreshold: 0.5,
		MinAnomalySample:      11,

		CompletenessWeight:      0.30,
		TimelinessWeight:        0.25,
		ValidityWeight:          0.25,
		ConsistencyWeight:       0.20,
		TimelinessThresholdDays: 90,
		TimelinessDecayPerMonth: 10,
		UnemploymentMin:         0,
		UnemploymentMax:         30,
		InflationMin:            -5,
		InflationMax:            20,
		MinConsistencySample:    10,
		AttentionThreshold:      70,
		IssueThreshold:          80,

		ForecastHorizon:   6,
		MinHistoryMonths:  24,
		SmoothingAlpha:    0.3,
		TrendBeta:         0.1,
		MinIntervalSample: 5,
		Confidence:        0.95,
	}
}

// IndicatorRange returns the plausible bounds for an indicator column.
func (c Config) IndicatorRange(indicator string) (lo, hi float64) {
	if indicator == "inflation_rate_mom_pct" {
		return c.InflationMin, c.InflationMax
	}
	return c.UnemploymentMin, c.UnemploymentMax
}
