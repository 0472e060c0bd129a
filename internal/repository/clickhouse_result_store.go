package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"EconPulse/internal/domain/models"
	domrepo "EconPulse/internal/domain/repository"
	pkgch "EconPulse/pkg/clickhouse"
	applogger "EconPulse/pkg/logger"
)

// CHResultStore persists the three derived relations in ClickHouse. Each
// Replace* call truncates and rewrites its relation so readers never observe
// a mix of two runs.
type CHResultStore struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHResultStore(ch *pkgch.Client, database string) *CHResultStore {
	return &CHResultStore{db: ch.DB(), database: database}
}

// SetLogger injects a structured logger.
func (s *CHResultStore) SetLogger(l *applogger.Logger) { s.l = l }

const resultChunkSize = 2000

func (s *CHResultStore) ReplaceAnomalies(ctx context.Context, rows []models.AnomalyRecord) error {
	table := s.database + ".anomaly_flags"
	if err := s.truncate(ctx, table); err != nil {
		return err
	}
	for start := 0; start < len(rows); start += resultChunkSize {
		end := start + resultChunkSize
		if end > len(rows) {
			end = len(rows)
		}
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*17)
		for _, r := range rows[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.IndicatorKey, r.CountryCode, r.ReferenceDate, r.ReferenceYear, r.ReferenceMonth,
				r.UnemploymentRate, r.InflationRateMoM,
				r.UnemploymentZScore, r.InflationZScore,
				r.UnemploymentIQROutlier, r.InflationIQROutlier,
				r.UnemploymentROCAnomaly, r.InflationROCAnomaly,
				r.IsUnemploymentAnomaly, r.IsInflationAnomaly, r.IsAnyAnomaly,
				r.SeverityScore,
			)
		}
		q := fmt.Sprintf(`INSERT INTO %s (
            indicator_key, country_code, reference_date, reference_year, reference_month,
            unemployment_rate_pct, inflation_rate_mom_pct,
            unemployment_z_score, inflation_z_score,
            unemployment_iqr_outlier, inflation_iqr_outlier,
            unemployment_roc_anomaly, inflation_roc_anomaly,
            is_unemployment_anomaly, is_inflation_anomaly, is_any_anomaly,
            anomaly_severity_score) VALUES %s`, table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert anomalies: %w", err)
		}
	}
	s.logReplaced(table, len(rows))
	return nil
}

func (s *CHResultStore) ReplaceQualityScores(ctx context.Context, rows []models.QualityScoreRecord) error {
	table := s.database + ".quality_scores"
	if err := s.truncate(ctx, table); err != nil {
		return err
	}
	for start := 0; start < len(rows); start += resultChunkSize {
		end := start + resultChunkSize
		if end > len(rows) {
			end = len(rows)
		}
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*18)
		for _, r := range rows[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.CountryCode, r.TotalRecords,
				r.CompletenessScore, r.UnemploymentCompleteness, r.InflationCompleteness,
				r.TimelinessScore, r.DaysSinceLatest, r.LatestDataDate,
				r.ValidityScore, r.UnemploymentValidity, r.InflationValidity,
				r.ConsistencyScore,
				r.OverallQualityScore, r.QualityGrade, r.PrimaryIssue, r.RequiresAttention,
				r.ScoredAt, r.ScoringModelVersion,
			)
		}
		q := fmt.Sprintf(`INSERT INTO %s (
            country_code, total_records,
            completeness_score, unemployment_completeness, inflation_completeness,
            timeliness_score, days_since_latest_data, latest_data_date,
            validity_score, unemployment_validity, inflation_validity,
            consistency_score,
            overall_quality_score, quality_grade, primary_issue, requires_attention,
            scored_at, scoring_model_version) VALUES %s`, table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert quality scores: %w", err)
		}
	}
	s.logReplaced(table, len(rows))
	return nil
}

func (s *CHResultStore) ReplaceForecasts(ctx context.Context, rows []models.ForecastRecord) error {
	table := s.database + ".unemployment_forecast"
	if err := s.truncate(ctx, table); err != nil {
		return err
	}
	for start := 0; start < len(rows); start += resultChunkSize {
		end := start + resultChunkSize
		if end > len(rows) {
			end = len(rows)
		}
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*15)
		for _, r := range rows[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.CountryCode, r.ForecastDate, r.ForecastHorizonMonths,
				r.LastActualDate, r.LastActualValue,
				r.ForecastExpSmoothing, r.ForecastHolt, r.ForecastLinearReg, r.ForecastEnsemble,
				r.PredictionIntervalLower, r.PredictionIntervalUpper, r.ForecastConfidence,
				r.TrainingSamples, r.ForecastGeneratedAt, r.ModelVersion,
			)
		}
		q := fmt.Sprintf(`INSERT INTO %s (
            country_code, forecast_date, forecast_horizon_months,
            last_actual_date, last_actual_value,
            forecast_exp_smoothing, forecast_holt, forecast_linear_reg, forecast_ensemble,
            prediction_interval_lower, prediction_interval_upper, forecast_confidence,
            min_training_samples, forecast_generated_at, model_version) VALUES %s`, table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert forecasts: %w", err)
		}
	}
	s.logReplaced(table, len(rows))
	return nil
}

func (s *CHResultStore) ListAnomalies(ctx context.Context, country string, onlyHits bool, limit int) ([]models.AnomalyRecord, error) {
	q := fmt.Sprintf(`
        SELECT indicator_key, country_code, reference_date, reference_year, reference_month,
               unemployment_rate_pct, inflation_rate_mom_pct,
               unemployment_z_score, inflation_z_score,
               unemployment_iqr_outlier, inflation_iqr_outlier,
               unemployment_roc_anomaly, inflation_roc_anomaly,
               is_unemployment_anomaly, is_inflation_anomaly, is_any_anomaly,
               anomaly_severity_score
        FROM %s.anomaly_flags`, s.database)
	var conds []string
	var args []interface{}
	if country != "" {
		conds = append(conds, "country_code = ?")
		args = append(args, country)
	}
	if onlyHits {
		conds = append(conds, "is_any_anomaly")
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY country_code ASC, reference_date ASC"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list anomalies: %w", err)
	}
	defer rows.Close()

	out := make([]models.AnomalyRecord, 0, 1024)
	for rows.Next() {
		var r models.AnomalyRecord
		if err := rows.Scan(
			&r.IndicatorKey, &r.CountryCode, &r.ReferenceDate, &r.ReferenceYear, &r.ReferenceMonth,
			&r.UnemploymentRate, &r.InflationRateMoM,
			&r.UnemploymentZScore, &r.InflationZScore,
			&r.UnemploymentIQROutlier, &r.InflationIQROutlier,
			&r.UnemploymentROCAnomaly, &r.InflationROCAnomaly,
			&r.IsUnemploymentAnomaly, &r.IsInflationAnomaly, &r.IsAnyAnomaly,
			&r.SeverityScore,
		); err != nil {
			return nil, fmt.Errorf("scan anomaly: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *CHResultStore) ListQualityScores(ctx context.Context, country string) ([]models.QualityScoreRecord, error) {
	q := fmt.Sprintf(`
        SELECT country_code, total_records,
               completeness_score, unemployment_completeness, inflation_completeness,
               timeliness_score, days_since_latest_data, latest_data_date,
               validity_score, unemployment_validity, inflation_validity,
               consistency_score,
               overall_quality_score, quality_grade, primary_issue, requires_attention,
               scored_at, scoring_model_version
        FROM %s.quality_scores`, s.database)
	var args []interface{}
	if country != "" {
		q += " WHERE country_code = ?"
		args = append(args, country)
	}
	q += " ORDER BY country_code ASC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list quality scores: %w", err)
	}
	defer rows.Close()

	out := make([]models.QualityScoreRecord, 0, 64)
	for rows.Next() {
		var r models.QualityScoreRecord
		if err := rows.Scan(
			&r.CountryCode, &r.TotalRecords,
			&r.CompletenessScore, &r.UnemploymentCompleteness, &r.InflationCompleteness,
			&r.TimelinessScore, &r.DaysSinceLatest, &r.LatestDataDate,
			&r.ValidityScore, &r.UnemploymentValidity, &r.InflationValidity,
			&r.ConsistencyScore,
			&r.OverallQualityScore, &r.QualityGrade, &r.PrimaryIssue, &r.RequiresAttention,
			&r.ScoredAt, &r.ScoringModelVersion,
		); err != nil {
			return nil, fmt.Errorf("scan quality score: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *CHResultStore) ListForecasts(ctx context.Context, country string) ([]models.ForecastRecord, error) {
	q := fmt.Sprintf(`
        SELECT country_code, forecast_date, forecast_horizon_months,
               last_actual_date, last_actual_value,
               forecast_exp_smoothing, forecast_holt, forecast_linear_reg, forecast_ensemble,
               prediction_interval_lower, prediction_interval_upper, forecast_confidence,
               min_training_samples, forecast_generated_at, model_version
        FROM %s.unemployment_forecast`, s.database)
	var args []interface{}
	if country != "" {
		q += " WHERE country_code = ?"
		args = append(args, country)
	}
	q += " ORDER BY country_code ASC, forecast_horizon_months ASC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list forecasts: %w", err)
	}
	defer rows.Close()

	out := make([]models.ForecastRecord, 0, 256)
	for rows.Next() {
		var r models.ForecastRecord
		if err := rows.Scan(
			&r.CountryCode, &r.ForecastDate, &r.ForecastHorizonMonths,
			&r.LastActualDate, &r.LastActualValue,
			&r.ForecastExpSmoothing, &r.ForecastHolt, &r.ForecastLinearReg, &r.ForecastEnsemble,
			&r.PredictionIntervalLower, &r.PredictionIntervalUpper, &r.ForecastConfidence,
			&r.TrainingSamples, &r.ForecastGeneratedAt, &r.ModelVersion,
		); err != nil {
			return nil, fmt.Errorf("scan forecast: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *CHResultStore) truncate(ctx context.Context, table string) error {
	if _, err := s.db.ExecContext(ctx, "TRUNCATE TABLE IF EXISTS "+table); err != nil {
		return fmt.Errorf("truncate %s: %w", table, err)
	}
	return nil
}

func (s *CHResultStore) logReplaced(table string, n int) {
	if s.l != nil {
		s.l.Info("clickhouse relation replaced",
			applogger.String("table", table),
			applogger.Int("rows", n),
		)
	}
}

var _ domrepo.ResultStore = (*CHResultStore)(nil)
