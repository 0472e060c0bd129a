package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"EconPulse/internal/domain/models"
	"EconPulse/internal/service/eurostat"
)

type fakeFetcher struct {
	docs map[string]*eurostat.Document
	fail string
}

func (f *fakeFetcher) FetchDataset(ctx context.Context, spec eurostat.DatasetSpec) (*eurostat.Document, error) {
	if spec.Code == f.fail {
		return nil, errors.New("upstream unavailable")
	}
	doc, ok := f.docs[spec.Code]
	if !ok {
		return &eurostat.Document{
			ID:   []string{"geo", "time"},
			Size: []int{0, 0},
			Dimension: map[string]eurostat.Dimension{
				"geo":  {Category: eurostat.Category{Index: map[string]int{}}},
				"time": {Category: eurostat.Category{Index: map[string]int{}}},
			},
			Value: map[string]*float64{},
		}, nil
	}
	return doc, nil
}

type fakeRawStore struct {
	tables map[string]int
}

func (f *fakeRawStore) InsertRaw(ctx context.Context, table string, rows []models.RawDatasetRow) error {
	if f.tables == nil {
		f.tables = make(map[string]int)
	}
	f.tables[table] += len(rows)
	return nil
}

// geoTimeDoc builds a two-dimensional geo x time document. values maps
// "geo|time" to a cell value; absent cells stay unpopulated.
func geoTimeDoc(geos, times []string, values map[string]float64) *eurostat.Document {
	geoIdx := make(map[string]int, len(geos))
	for i, g := range geos {
		geoIdx[g] = i
	}
	timeIdx := make(map[string]int, len(times))
	for i, t := range times {
		timeIdx[t] = i
	}
	doc := &eurostat.Document{
		ID:   []string{"geo", "time"},
		Size: []int{len(geos), len(times)},
		Dimension: map[string]eurostat.Dimension{
			"geo":  {Category: eurostat.Category{Index: geoIdx}},
			"time": {Category: eurostat.Category{Index: timeIdx}},
		},
		Value: make(map[string]*float64),
	}
	for key, v := range values {
		geo, period, _ := strings.Cut(key, "|")
		flat := geoIdx[geo]*len(times) + timeIdx[period]
		val := v
		doc.Value[strconv.Itoa(flat)] = &val
	}
	return doc
}

func TestIngestMergesMonthlyIndicators(t *testing.T) {
	fetcher := &fakeFetcher{docs: map[string]*eurostat.Document{
		"une_rt_m": geoTimeDoc([]string{"DE"}, []string{"2024-01", "2024-02"}, map[string]float64{
			"DE|2024-01": 5.0,
			"DE|2024-02": 5.2,
		}),
		"prc_hicp_mmor": geoTimeDoc([]string{"DE"}, []string{"2024-01", "2024-02"}, map[string]float64{
			"DE|2024-01": 0.3,
		}),
		"nama_10_gdp": geoTimeDoc([]string{"DE"}, []string{"2023"}, map[string]float64{
			"DE|2023": 4121160.0,
		}),
	}}
	raw := &fakeRawStore{}
	facts := &fakeFactStore{}
	alerts := &fakeAlertPublisher{}

	u := NewIngestor(fetcher, raw, facts, alerts, &fakeMetrics{}, []string{"DE"})
	res, err := u.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(res.Datasets) != 4 {
		t.Fatalf("datasets = %v", res.Datasets)
	}
	if raw.tables["raw_unemployment"] != 2 || raw.tables["raw_inflation"] != 1 || raw.tables["raw_gdp"] != 1 {
		t.Fatalf("raw counts = %v", raw.tables)
	}
	if res.RawRows != 4 {
		t.Fatalf("raw rows = %d", res.RawRows)
	}

	if res.FactRows != 2 || len(facts.inserted) != 2 {
		t.Fatalf("fact rows = %d / %d", res.FactRows, len(facts.inserted))
	}
	jan, feb := facts.inserted[0], facts.inserted[1]
	if jan.ReferenceDate != time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("rows not sorted by date: %v", jan.ReferenceDate)
	}
	if jan.IndicatorKey != "DE_2024-01" {
		t.Fatalf("indicator key = %q", jan.IndicatorKey)
	}
	if jan.UnemploymentRate == nil || *jan.UnemploymentRate != 5.0 {
		t.Fatalf("jan unemployment = %v", jan.UnemploymentRate)
	}
	if jan.InflationRateMoM == nil || *jan.InflationRateMoM != 0.3 {
		t.Fatalf("jan inflation = %v", jan.InflationRateMoM)
	}
	if feb.UnemploymentRate == nil || *feb.UnemploymentRate != 5.2 || feb.InflationRateMoM != nil {
		t.Fatalf("feb = %+v", feb)
	}

	if alerts.ingestEvents != 1 {
		t.Fatalf("ingest completion events = %d", alerts.ingestEvents)
	}
}

func TestIngestAnnualDatasetsStayRawOnly(t *testing.T) {
	fetcher := &fakeFetcher{docs: map[string]*eurostat.Document{
		"nama_10_gdp": geoTimeDoc([]string{"FR"}, []string{"2023"}, map[string]float64{
			"FR|2023": 2822455.0,
		}),
	}}
	facts := &fakeFactStore{}

	u := NewIngestor(fetcher, &fakeRawStore{}, facts, &fakeAlertPublisher{}, &fakeMetrics{}, []string{"FR"})
	res, err := u.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.RawRows != 1 || res.FactRows != 0 || len(facts.inserted) != 0 {
		t.Fatalf("annual rows must not reach the fact relation: %+v", res)
	}
}

func TestIngestSkipsFailingDataset(t *testing.T) {
	fetcher := &fakeFetcher{fail: "prc_hicp_mmor", docs: map[string]*eurostat.Document{
		"une_rt_m": geoTimeDoc([]string{"DE"}, []string{"2024-01"}, map[string]float64{
			"DE|2024-01": 5.0,
		}),
	}}
	facts := &fakeFactStore{}
	m := &fakeMetrics{}

	u := NewIngestor(fetcher, &fakeRawStore{}, facts, &fakeAlertPublisher{}, m, []string{"DE"})
	res, err := u.Run(context.Background())
	if err != nil {
		t.Fatalf("one failing dataset must not fail the round: %v", err)
	}
	if len(res.Failed) != 1 || res.Failed[0] != "prc_hicp_mmor" {
		t.Fatalf("failed = %v", res.Failed)
	}
	if len(res.Datasets) != 3 {
		t.Fatalf("datasets = %v", res.Datasets)
	}
	if len(facts.inserted) != 1 || facts.inserted[0].InflationRateMoM != nil {
		t.Fatalf("surviving datasets must still reach the fact relation: %+v", facts.inserted)
	}
	if m.errors["ingest_fetch"] != 1 {
		t.Fatalf("errors = %v", m.errors)
	}
}

func TestIngestErrorsWhenNothingPulled(t *testing.T) {
	fetcher := &failAllFetcher{}
	u := NewIngestor(fetcher, &fakeRawStore{}, &fakeFactStore{}, &fakeAlertPublisher{}, &fakeMetrics{}, []string{"DE"})
	if _, err := u.Run(context.Background()); err == nil {
		t.Fatalf("expected error when every dataset fails")
	}
}

type failAllFetcher struct{}

func (failAllFetcher) FetchDataset(ctx context.Context, spec eurostat.DatasetSpec) (*eurostat.Document, error) {
	return nil, errors.New("upstream unavailable")
}
