package usecase

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"EconPulse/internal/domain/models"
	domrepo "EconPulse/internal/domain/repository"
	domservice "EconPulse/internal/domain/service"
	"EconPulse/internal/services/series"
	applogger "EconPulse/pkg/logger"
)

// AnalysisRunner drives one analysis run: load the fact relation, partition
// it per country, run the three analyzers concurrently across countries, and
// replace the derived relations atomically per relation.
type AnalysisRunner struct {
	facts    domrepo.FactStore
	results  domrepo.ResultStore
	alerts   domrepo.AlertPublisher
	metrics  domrepo.Metrics
	detector domservice.AnomalyDetector
	scorer   domservice.QualityScorer
	engine   domservice.ForecastEngine
	workers  int
	l        *applogger.Logger
	notify   func(*models.AnalysisSummary)
	events   func(event string, data interface{})

	mu      sync.RWMutex
	last    *models.AnalysisSummary
	running bool
}

func NewAnalysisRunner(
	facts domrepo.FactStore,
	results domrepo.ResultStore,
	alerts domrepo.AlertPublisher,
	metrics domrepo.Metrics,
	detector domservice.AnomalyDetector,
	scorer domservice.QualityScorer,
	engine domservice.ForecastEngine,
	workers int,
) *AnalysisRunner {
	if workers <= 0 {
		workers = 4
	}
	return &AnalysisRunner{
		facts:    facts,
		results:  results,
		alerts:   alerts,
		metrics:  metrics,
		detector: detector,
		scorer:   scorer,
		engine:   engine,
		workers:  workers,
	}
}

// SetLogger injects a structured logger.
func (r *AnalysisRunner) SetLogger(l *applogger.Logger) { r.l = l }

// SetNotifier registers a callback invoked with the summary of each
// completed run. Used to push run results to dashboard clients.
func (r *AnalysisRunner) SetNotifier(fn func(*models.AnalysisSummary)) { r.notify = fn }

// SetEventSink registers a callback receiving the alert batches of each run
// (events "quality_alert" and "anomaly"), independent of the Kafka publish.
func (r *AnalysisRunner) SetEventSink(fn func(event string, data interface{})) { r.events = fn }

// LastSummary returns the summary of the most recent completed run, or nil.
func (r *AnalysisRunner) LastSummary() *models.AnalysisSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// countryOutcome is what one worker produces for one country.
type countryOutcome struct {
	country   string
	anomalies []models.AnomalyRecord
	quality   *models.QualityScoreRecord
	forecasts []models.ForecastRecord
	failure   *models.CountryFailure
}

// Run executes one full analysis run. Concurrent calls are rejected; a run
// rewrites shared relations and two interleaved rewrites would corrupt them.
func (r *AnalysisRunner) Run(ctx context.Context) (*models.AnalysisSummary, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, fmt.Errorf("analysis run already in progress")
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	started := time.Now().UTC()
	readings, err := r.facts.ListReadings(ctx)
	if err != nil {
		r.metrics.RecordError("analysis_load")
		return nil, fmt.Errorf("load readings: %w", err)
	}

	parts, invalid := series.Partition(readings)
	if r.l != nil && len(invalid) > 0 {
		r.l.Warn("input rows dropped during partitioning",
			applogger.Int("dropped", len(invalid)),
		)
	}

	outcomes := r.analyze(ctx, parts, started)

	summary := &models.AnalysisSummary{StartedAt: started, InputRows: len(readings)}
	var (
		anomalies []models.AnomalyRecord
		quality   []models.QualityScoreRecord
		forecasts []models.ForecastRecord
	)
	for _, o := range outcomes {
		if o.failure != nil {
			summary.Failures = append(summary.Failures, *o.failure)
			continue
		}
		summary.CountriesAnalyzed++
		anomalies = append(anomalies, o.anomalies...)
		if o.quality != nil {
			quality = append(quality, *o.quality)
		}
		if len(o.forecasts) > 0 {
			forecasts = append(forecasts, o.forecasts...)
		} else {
			summary.SkippedForecasts++
		}
	}

	sortAnomalies(anomalies)
	sortQuality(quality)
	sortForecasts(forecasts)

	if err := r.results.ReplaceAnomalies(ctx, anomalies); err != nil {
		r.metrics.RecordError("analysis_store")
		return nil, fmt.Errorf("store anomalies: %w", err)
	}
	if err := r.results.ReplaceQualityScores(ctx, quality); err != nil {
		r.metrics.RecordError("analysis_store")
		return nil, fmt.Errorf("store quality scores: %w", err)
	}
	if err := r.results.ReplaceForecasts(ctx, forecasts); err != nil {
		r.metrics.RecordError("analysis_store")
		return nil, fmt.Errorf("store forecasts: %w", err)
	}

	summary.AnomalyRows = len(anomalies)
	for _, a := range anomalies {
		if a.IsAnyAnomaly {
			summary.AnomalousRows++
		}
	}
	summary.QualityRows = len(quality)
	summary.ForecastRows = len(forecasts)
	for _, q := range quality {
		if q.RequiresAttention {
			summary.AttentionCountries = append(summary.AttentionCountries, q.CountryCode)
		}
	}
	summary.CompletedAt = time.Now().UTC()

	r.publishAlerts(ctx, anomalies, quality)
	r.record(anomalies, quality)
	r.metrics.RecordLatency("analysis_run", time.Since(started).Seconds())

	r.mu.Lock()
	r.last = summary
	r.mu.Unlock()

	if r.notify != nil {
		r.notify(summary)
	}

	if r.l != nil {
		r.l.Info("analysis run completed",
			applogger.Int("input_rows", summary.InputRows),
			applogger.Int("countries", summary.CountriesAnalyzed),
			applogger.Int("anomalous_rows", summary.AnomalousRows),
			applogger.Int("forecast_rows", summary.ForecastRows),
			applogger.Int("failures", len(summary.Failures)),
			applogger.Duration("took", summary.CompletedAt.Sub(started)),
		)
	}
	return summary, nil
}

// analyze fans countries out over a bounded worker pool. A panic in one
// country's analyzers is turned into a CountryFailure instead of killing the
// batch.
func (r *AnalysisRunner) analyze(ctx context.Context, parts []models.CountrySeries, now time.Time) []countryOutcome {
	jobs := make(chan models.CountrySeries)
	results := make(chan countryOutcome, len(parts))

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range jobs {
				results <- r.analyzeCountry(s, now)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, s := range parts {
			select {
			case jobs <- s:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(results)

	outcomes := make([]countryOutcome, 0, len(parts))
	for o := range results {
		outcomes = append(outcomes, o)
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].country < outcomes[j].country })
	return outcomes
}

func (r *AnalysisRunner) analyzeCountry(s models.CountrySeries, now time.Time) (out countryOutcome) {
	out.country = s.CountryCode
	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.RecordError("analysis_panic")
			if r.l != nil {
				r.l.Error("country analysis panicked",
					applogger.String("country", s.CountryCode),
					applogger.String("panic", fmt.Sprint(rec)),
					applogger.String("stack", string(debug.Stack())),
				)
			}
			out = countryOutcome{
				country: s.CountryCode,
				failure: &models.CountryFailure{CountryCode: s.CountryCode, Reason: fmt.Sprint(rec)},
			}
		}
	}()

	out.anomalies = r.detector.Detect(s)
	q := r.scorer.Score(s, now)
	out.quality = &q
	out.forecasts = r.engine.Forecast(s, now)
	return out
}

func (r *AnalysisRunner) publishAlerts(ctx context.Context, anomalies []models.AnomalyRecord, quality []models.QualityScoreRecord) {
	var qa []models.QualityAlert
	for _, q := range quality {
		if q.RequiresAttention {
			qa = append(qa, models.QualityAlert{
				CountryCode:  q.CountryCode,
				OverallScore: q.OverallQualityScore,
				Grade:        q.QualityGrade,
				PrimaryIssue: q.PrimaryIssue,
				ScoredAt:     q.ScoredAt,
			})
		}
	}
	if err := r.alerts.PublishQualityAlerts(ctx, qa); err != nil {
		r.metrics.RecordError("alert_publish")
		if r.l != nil {
			r.l.Warn("quality alerts not published", applogger.Error(err))
		}
	}
	if r.events != nil && len(qa) > 0 {
		r.events("quality_alert", qa)
	}

	var aa []models.AnomalyAlert
	for _, a := range anomalies {
		if a.IsAnyAnomaly {
			aa = append(aa, models.AnomalyAlert{
				CountryCode:   a.CountryCode,
				ReferenceDate: a.ReferenceDate,
				Severity:      a.SeverityScore,
				Unemployment:  a.IsUnemploymentAnomaly,
				Inflation:     a.IsInflationAnomaly,
			})
		}
	}
	if err := r.alerts.PublishAnomalyAlerts(ctx, aa); err != nil {
		r.metrics.RecordError("alert_publish")
		if r.l != nil {
			r.l.Warn("anomaly alerts not published", applogger.Error(err))
		}
	}
	if r.events != nil && len(aa) > 0 {
		r.events("anomaly", aa)
	}
}

func (r *AnalysisRunner) record(anomalies []models.AnomalyRecord, quality []models.QualityScoreRecord) {
	hits := make(map[string]int)
	for _, a := range anomalies {
		if a.IsAnyAnomaly {
			hits[a.CountryCode]++
		}
	}
	for c, n := range hits {
		r.metrics.RecordAnomalies(c, n)
	}
	for _, q := range quality {
		r.metrics.RecordQualityScore(q.CountryCode, q.OverallQualityScore)
	}
	r.metrics.RecordCountriesAnalyzed("quality", len(quality))
}

func sortAnomalies(rows []models.AnomalyRecord) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CountryCode != rows[j].CountryCode {
			return rows[i].CountryCode < rows[j].CountryCode
		}
		return rows[i].ReferenceDate.Before(rows[j].ReferenceDate)
	})
}

func sortQuality(rows []models.QualityScoreRecord) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].CountryCode < rows[j].CountryCode })
}

func sortForecasts(rows []models.ForecastRecord) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CountryCode != rows[j].CountryCode {
			return rows[i].CountryCode < rows[j].CountryCode
		}
		return rows[i].ForecastHorizonMonths < rows[j].ForecastHorizonMonths
	})
}
