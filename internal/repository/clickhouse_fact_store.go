package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"EconPulse/internal/domain/models"
	domrepo "EconPulse/internal/domain/repository"
	pkgch "EconPulse/pkg/clickhouse"
	applogger "EconPulse/pkg/logger"
)

// CHFactStore implements FactStore and RawStore backed by ClickHouse.
type CHFactStore struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHFactStore(ch *pkgch.Client, database string) *CHFactStore {
	return &CHFactStore{db: ch.DB(), database: database}
}

// SetLogger injects a structured logger.
func (s *CHFactStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHFactStore) InsertReadings(ctx context.Context, rows []models.IndicatorReading) error {
	if len(rows) == 0 {
		return nil
	}
	const chunkSize = 2000
	table := s.database + ".fct_economic_indicators"
	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*7)
		for _, r := range rows[start:end] {
			if r.CountryCode == "" || r.ReferenceDate.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.CountryCode,
				r.ReferenceDate,
				r.ReferenceYear,
				r.ReferenceMonth,
				r.IndicatorKey,
				r.UnemploymentRate,
				r.InflationRateMoM,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf(
			"INSERT INTO %s (country_code, reference_date, reference_year, reference_month, indicator_key, unemployment_rate_pct, inflation_rate_mom_pct) VALUES %s",
			table, strings.Join(values, ","),
		)
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse insert_readings error",
					applogger.String("table", table),
					applogger.Int("rows", end-start),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("insert readings: %w", err)
		}
	}
	return nil
}

func (s *CHFactStore) ListReadings(ctx context.Context) ([]models.IndicatorReading, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT country_code, reference_date, reference_year, reference_month,
               indicator_key, unemployment_rate_pct, inflation_rate_mom_pct
        FROM %s.fct_economic_indicators
        ORDER BY country_code ASC, reference_date ASC
    `, s.database)

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse list_readings query error", applogger.Error(err))
		}
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer rows.Close()

	out := make([]models.IndicatorReading, 0, 4096)
	for rows.Next() {
		var r models.IndicatorReading
		if err := rows.Scan(
			&r.CountryCode, &r.ReferenceDate, &r.ReferenceYear, &r.ReferenceMonth,
			&r.IndicatorKey, &r.UnemploymentRate, &r.InflationRateMoM,
		); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse list_readings ok",
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHFactStore) InsertRaw(ctx context.Context, table string, rows []models.RawDatasetRow) error {
	if len(rows) == 0 {
		return nil
	}
	const chunkSize = 2000
	fq := s.database + "." + table
	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*5)
		for _, r := range rows[start:end] {
			values = append(values, "(?, ?, ?, ?, ?)")
			args = append(args, r.DatasetCode, r.Value, r.ExtractedAt, r.DimCodes, r.DimLabels)
		}
		q := fmt.Sprintf(
			"INSERT INTO %s (dataset_code, value, extracted_at, dim_codes, dim_labels) VALUES %s",
			fq, strings.Join(values, ","),
		)
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert raw %s: %w", table, err)
		}
	}
	return nil
}

func (s *CHFactStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var (
	_ domrepo.FactStore = (*CHFactStore)(nil)
	_ domrepo.RawStore  = (*CHFactStore)(nil)
)
