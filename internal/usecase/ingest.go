package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"EconPulse/internal/domain/models"
	domrepo "EconPulse/internal/domain/repository"
	"EconPulse/internal/service/eurostat"
	applogger "EconPulse/pkg/logger"
)

// DatasetFetcher pulls one dataset from the statistics API.
type DatasetFetcher interface {
	FetchDataset(ctx context.Context, spec eurostat.DatasetSpec) (*eurostat.Document, error)
}

// IngestResult summarizes one extraction round.
type IngestResult struct {
	Datasets  []string  `json:"datasets"`
	Failed    []string  `json:"failed,omitempty"`
	RawRows   int       `json:"raw_rows"`
	FactRows  int       `json:"fact_rows"`
	StartedAt time.Time `json:"started_at"`
}

// Ingestor pulls the configured datasets, lands them raw, and merges the
// monthly ones into the fact relation.
type Ingestor struct {
	fetcher DatasetFetcher
	raw     domrepo.RawStore
	facts   domrepo.FactStore
	alerts  domrepo.AlertPublisher
	metrics domrepo.Metrics
	geos    []string
	l       *applogger.Logger
}

func NewIngestor(
	fetcher DatasetFetcher,
	raw domrepo.RawStore,
	facts domrepo.FactStore,
	alerts domrepo.AlertPublisher,
	metrics domrepo.Metrics,
	geos []string,
) *Ingestor {
	return &Ingestor{
		fetcher: fetcher,
		raw:     raw,
		facts:   facts,
		alerts:  alerts,
		metrics: metrics,
		geos:    geos,
	}
}

// SetLogger injects a structured logger.
func (u *Ingestor) SetLogger(l *applogger.Logger) { u.l = l }

// Run executes one full extraction round. Datasets are fetched sequentially;
// the source API terms discourage parallel pulls. A dataset that fails to
// fetch or decode is skipped; the round errors only when nothing was pulled.
func (u *Ingestor) Run(ctx context.Context) (*IngestResult, error) {
	started := time.Now().UTC()
	res := &IngestResult{StartedAt: started}

	type keyed struct {
		geo  string
		date time.Time
	}
	merged := make(map[keyed]*models.IndicatorReading)

	for _, spec := range eurostat.Catalogue(u.geos) {
		doc, err := u.fetcher.FetchDataset(ctx, spec)
		if err != nil {
			u.metrics.RecordError("ingest_fetch")
			res.Failed = append(res.Failed, spec.Code)
			if u.l != nil {
				u.l.Warn("dataset fetch failed",
					applogger.String("dataset", spec.Code),
					applogger.Error(err),
				)
			}
			continue
		}
		rows, err := doc.Decode(spec.Code, started)
		if err != nil {
			u.metrics.RecordError("ingest_decode")
			res.Failed = append(res.Failed, spec.Code)
			if u.l != nil {
				u.l.Warn("dataset decode failed",
					applogger.String("dataset", spec.Code),
					applogger.Error(err),
				)
			}
			continue
		}
		if err := u.raw.InsertRaw(ctx, spec.RawTable, rows); err != nil {
			u.metrics.RecordError("ingest_store_raw")
			return nil, fmt.Errorf("store raw %s: %w", spec.Code, err)
		}
		u.metrics.RecordRowsIngested(spec.Code, len(rows))
		res.Datasets = append(res.Datasets, spec.Code)
		res.RawRows += len(rows)
		if u.l != nil {
			u.l.Info("dataset ingested",
				applogger.String("dataset", spec.Code),
				applogger.Int("rows", len(rows)),
			)
		}

		indicator := spec.Indicator()
		if !spec.Monthly || indicator == "" {
			continue
		}
		for _, obs := range eurostat.MonthlyObservations(rows) {
			k := keyed{geo: obs.Geo, date: obs.Date}
			r, ok := merged[k]
			if !ok {
				r = &models.IndicatorReading{
					CountryCode:    obs.Geo,
					ReferenceDate:  obs.Date,
					ReferenceYear:  obs.Date.Year(),
					ReferenceMonth: int(obs.Date.Month()),
					IndicatorKey:   fmt.Sprintf("%s_%04d-%02d", obs.Geo, obs.Date.Year(), int(obs.Date.Month())),
				}
				merged[k] = r
			}
			switch indicator {
			case string(models.IndicatorUnemployment):
				r.UnemploymentRate = obs.Value
			case string(models.IndicatorInflation):
				r.InflationRateMoM = obs.Value
			}
		}
	}

	if len(res.Datasets) == 0 {
		return nil, fmt.Errorf("ingest round failed: no dataset could be pulled")
	}

	readings := make([]models.IndicatorReading, 0, len(merged))
	for _, r := range merged {
		readings = append(readings, *r)
	}
	sort.Slice(readings, func(i, j int) bool {
		if readings[i].CountryCode != readings[j].CountryCode {
			return readings[i].CountryCode < readings[j].CountryCode
		}
		return readings[i].ReferenceDate.Before(readings[j].ReferenceDate)
	})

	if err := u.facts.InsertReadings(ctx, readings); err != nil {
		u.metrics.RecordError("ingest_store_facts")
		return nil, fmt.Errorf("store facts: %w", err)
	}
	res.FactRows = len(readings)

	if err := u.alerts.PublishIngestCompleted(ctx, res.Datasets, res.FactRows); err != nil {
		// The data is already durable; a lost trigger only delays analysis
		// until the next scheduled run.
		u.metrics.RecordError("ingest_publish")
		if u.l != nil {
			u.l.Warn("ingest completion event not published", applogger.Error(err))
		}
	}

	u.metrics.RecordLatency("ingest_run", time.Since(started).Seconds())
	if u.l != nil {
		u.l.Info("ingest round completed",
			applogger.Int("datasets", len(res.Datasets)),
			applogger.Int("raw_rows", res.RawRows),
			applogger.Int("fact_rows", res.FactRows),
			applogger.Duration("took", time.Since(started)),
		)
	}
	return res, nil
}
