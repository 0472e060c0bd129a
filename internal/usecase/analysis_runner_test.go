package usecase

import (
	"context"
	"testing"
	"time"

	"EconPulse/internal/domain/models"
	"EconPulse/internal/services/analytics"
)

type fakeFactStore struct {
	readings []models.IndicatorReading
	inserted []models.IndicatorReading
}

func (f *fakeFactStore) InsertReadings(ctx context.Context, rows []models.IndicatorReading) error {
	f.inserted = append(f.inserted, rows...)
	return nil
}

func (f *fakeFactStore) ListReadings(ctx context.Context) ([]models.IndicatorReading, error) {
	return f.readings, nil
}

func (f *fakeFactStore) Health(ctx context.Context) error { return nil }

type fakeResultStore struct {
	anomalies []models.AnomalyRecord
	quality   []models.QualityScoreRecord
	forecasts []models.ForecastRecord
}

func (f *fakeResultStore) ReplaceAnomalies(ctx context.Context, rows []models.AnomalyRecord) error {
	f.anomalies = rows
	return nil
}

func (f *fakeResultStore) ReplaceQualityScores(ctx context.Context, rows []models.QualityScoreRecord) error {
	f.quality = rows
	return nil
}

func (f *fakeResultStore) ReplaceForecasts(ctx context.Context, rows []models.ForecastRecord) error {
	f.forecasts = rows
	return nil
}

func (f *fakeResultStore) ListAnomalies(ctx context.Context, country string, onlyHits bool, limit int) ([]models.AnomalyRecord, error) {
	return f.anomalies, nil
}

func (f *fakeResultStore) ListQualityScores(ctx context.Context, country string) ([]models.QualityScoreRecord, error) {
	return f.quality, nil
}

func (f *fakeResultStore) ListForecasts(ctx context.Context, country string) ([]models.ForecastRecord, error) {
	return f.forecasts, nil
}

type fakeAlertPublisher struct {
	qualityAlerts []models.QualityAlert
	anomalyAlerts []models.AnomalyAlert
	ingestEvents  int
}

func (f *fakeAlertPublisher) PublishQualityAlerts(ctx context.Context, alerts []models.QualityAlert) error {
	f.qualityAlerts = append(f.qualityAlerts, alerts...)
	return nil
}

func (f *fakeAlertPublisher) PublishAnomalyAlerts(ctx context.Context, alerts []models.AnomalyAlert) error {
	f.anomalyAlerts = append(f.anomalyAlerts, alerts...)
	return nil
}

func (f *fakeAlertPublisher) PublishIngestCompleted(ctx context.Context, datasets []string, rows int) error {
	f.ingestEvents++
	return nil
}

func (f *fakeAlertPublisher) Close() error { return nil }

type fakeMetrics struct {
	errors map[string]int
}

func (f *fakeMetrics) RecordRowsIngested(dataset string, n int)         {}
func (f *fakeMetrics) RecordCountriesAnalyzed(analyzer string, n int)   {}
func (f *fakeMetrics) RecordAnomalies(country string, n int)            {}
func (f *fakeMetrics) RecordQualityScore(country string, score float64) {}
func (f *fakeMetrics) RecordError(kind string) {
	if f.errors == nil {
		f.errors = make(map[string]int)
	}
	f.errors[kind]++
}
func (f *fakeMetrics) RecordLatency(op string, seconds float64) {}

func fv(x float64) *float64 { return &x }

func monthlyReadings(country string, n int, value func(i int) *float64) []models.IndicatorReading {
	out := make([]models.IndicatorReading, 0, n)
	for i := 0; i < n; i++ {
		d := time.Date(2022, time.Month(1+i), 1, 0, 0, 0, 0, time.UTC)
		out = append(out, models.IndicatorReading{
			CountryCode:      country,
			ReferenceDate:    d,
			ReferenceYear:    d.Year(),
			ReferenceMonth:   int(d.Month()),
			UnemploymentRate: value(i),
			InflationRateMoM: fv(0.2),
		})
	}
	return out
}

func newTestRunner(facts *fakeFactStore, results *fakeResultStore, alerts *fakeAlertPublisher, m *fakeMetrics) *AnalysisRunner {
	cfg := analytics.DefaultConfig()
	return NewAnalysisRunner(
		facts, results, alerts, m,
		analytics.NewAnomalyDetector(cfg),
		analytics.NewQualityScorer(cfg),
		analytics.NewForecastEngine(cfg),
		2,
	)
}

func TestRunProducesAllRelations(t *testing.T) {
	facts := &fakeFactStore{}
	facts.readings = append(facts.readings, monthlyReadings("DE", 24, func(i int) *float64 {
		return fv(5 + 0.1*float64(i))
	})...)
	facts.readings = append(facts.readings, monthlyReadings("FR", 24, func(i int) *float64 {
		return fv(7 + 0.05*float64(i))
	})...)
	results := &fakeResultStore{}
	alerts := &fakeAlertPublisher{}
	m := &fakeMetrics{}

	summary, err := newTestRunner(facts, results, alerts, m).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if summary.InputRows != 48 || summary.CountriesAnalyzed != 2 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(results.anomalies) != 48 {
		t.Fatalf("anomaly rows = %d, want one per input row", len(results.anomalies))
	}
	if len(results.quality) != 2 {
		t.Fatalf("quality rows = %d, want one per country", len(results.quality))
	}
	if len(results.forecasts) != 12 {
		t.Fatalf("forecast rows = %d, want 6 per country", len(results.forecasts))
	}

	// Output ordering is deterministic regardless of worker completion order.
	if results.quality[0].CountryCode != "DE" || results.quality[1].CountryCode != "FR" {
		t.Fatalf("quality not sorted: %s %s", results.quality[0].CountryCode, results.quality[1].CountryCode)
	}
	for i := 1; i < len(results.forecasts); i++ {
		a, b := results.forecasts[i-1], results.forecasts[i]
		if a.CountryCode > b.CountryCode ||
			(a.CountryCode == b.CountryCode && a.ForecastHorizonMonths >= b.ForecastHorizonMonths) {
			t.Fatalf("forecasts not sorted at %d", i)
		}
	}
}

func TestRunSkipsShortForecastHistory(t *testing.T) {
	facts := &fakeFactStore{readings: monthlyReadings("DE", 12, func(i int) *float64 { return fv(5) })}
	results := &fakeResultStore{}

	summary, err := newTestRunner(facts, results, &fakeAlertPublisher{}, &fakeMetrics{}).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results.forecasts) != 0 || summary.SkippedForecasts != 1 {
		t.Fatalf("short history must skip forecasting, got %d rows, skipped=%d",
			len(results.forecasts), summary.SkippedForecasts)
	}
	// Anomaly and quality output still covers the country.
	if len(results.quality) != 1 || len(results.anomalies) != 12 {
		t.Fatalf("quality/anomaly output missing: %d %d", len(results.quality), len(results.anomalies))
	}
}

func TestRunPublishesAlerts(t *testing.T) {
	// Stale, half-empty series: attention threshold will trip.
	readings := monthlyReadings("GR", 24, func(i int) *float64 {
		if i%2 == 0 {
			return nil
		}
		return fv(45) // also out of range
	})
	facts := &fakeFactStore{readings: readings}
	alerts := &fakeAlertPublisher{}

	if _, err := newTestRunner(facts, &fakeResultStore{}, alerts, &fakeMetrics{}).Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(alerts.qualityAlerts) != 1 || alerts.qualityAlerts[0].CountryCode != "GR" {
		t.Fatalf("expected one quality alert for GR, got %+v", alerts.qualityAlerts)
	}
}

func TestRunForwardsAlertEventsToSink(t *testing.T) {
	// A spiked, stale series trips both the anomaly and the quality path.
	facts := &fakeFactStore{readings: monthlyReadings("ES", 24, func(i int) *float64 {
		if i == 20 {
			return fv(20)
		}
		return fv(5)
	})}
	r := newTestRunner(facts, &fakeResultStore{}, &fakeAlertPublisher{}, &fakeMetrics{})

	events := make(map[string]interface{})
	r.SetEventSink(func(event string, data interface{}) { events[event] = data })

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	aa, ok := events["anomaly"].([]models.AnomalyAlert)
	if !ok || len(aa) == 0 || aa[0].CountryCode != "ES" {
		t.Fatalf("anomaly event = %+v", events["anomaly"])
	}
	qa, ok := events["quality_alert"].([]models.QualityAlert)
	if !ok || len(qa) != 1 || qa[0].CountryCode != "ES" {
		t.Fatalf("quality event = %+v", events["quality_alert"])
	}
}

type panickingDetector struct{}

func (panickingDetector) Detect(series models.CountrySeries) []models.AnomalyRecord {
	if series.CountryCode == "XX" {
		panic("bad series")
	}
	return nil
}

func TestRunIsolatesCountryPanics(t *testing.T) {
	facts := &fakeFactStore{}
	facts.readings = append(facts.readings, monthlyReadings("DE", 24, func(i int) *float64 { return fv(5) })...)
	facts.readings = append(facts.readings, monthlyReadings("XX", 24, func(i int) *float64 { return fv(5) })...)

	cfg := analytics.DefaultConfig()
	m := &fakeMetrics{}
	results := &fakeResultStore{}
	r := NewAnalysisRunner(
		facts, results, &fakeAlertPublisher{}, m,
		panickingDetector{},
		analytics.NewQualityScorer(cfg),
		analytics.NewForecastEngine(cfg),
		2,
	)

	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run must survive a per-country panic: %v", err)
	}
	if summary.CountriesAnalyzed != 1 {
		t.Fatalf("countries analyzed = %d, want 1", summary.CountriesAnalyzed)
	}
	if len(summary.Failures) != 1 || summary.Failures[0].CountryCode != "XX" {
		t.Fatalf("failures = %+v", summary.Failures)
	}
	if len(results.quality) != 1 || results.quality[0].CountryCode != "DE" {
		t.Fatalf("surviving country output missing: %+v", results.quality)
	}
	if m.errors["analysis_panic"] != 1 {
		t.Fatalf("panic must be counted, got %v", m.errors)
	}
}

func TestRunRejectsConcurrentRuns(t *testing.T) {
	facts := &fakeFactStore{readings: monthlyReadings("DE", 24, func(i int) *float64 { return fv(5) })}
	r := newTestRunner(facts, &fakeResultStore{}, &fakeAlertPublisher{}, &fakeMetrics{})

	r.mu.Lock()
	r.running = true
	r.mu.Unlock()

	if _, err := r.Run(context.Background()); err == nil {
		t.Fatalf("expected rejection while another run is active")
	}
}

func TestLastSummaryUpdated(t *testing.T) {
	facts := &fakeFactStore{readings: monthlyReadings("DE", 24, func(i int) *float64 { return fv(5) })}
	r := newTestRunner(facts, &fakeResultStore{}, &fakeAlertPublisher{}, &fakeMetrics{})

	if r.LastSummary() != nil {
		t.Fatalf("no summary expected before the first run")
	}
	var notified *models.AnalysisSummary
	r.SetNotifier(func(s *models.AnalysisSummary) { notified = s })

	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if r.LastSummary() != summary {
		t.Fatalf("last summary not retained")
	}
	if notified != summary {
		t.Fatalf("notifier must receive the run summary")
	}
}
