package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"EconPulse/internal/domain/models"
	"EconPulse/internal/usecase"
	xlogger "EconPulse/pkg/logger"
)

type fakeResultStore struct {
	anomalies []models.AnomalyRecord
	quality   []models.QualityScoreRecord
	forecasts []models.ForecastRecord

	lastCountry  string
	lastOnlyHits bool
	lastLimit    int
}

func (f *fakeResultStore) ReplaceAnomalies(ctx context.Context, rows []models.AnomalyRecord) error {
	return nil
}

func (f *fakeResultStore) ReplaceQualityScores(ctx context.Context, rows []models.QualityScoreRecord) error {
	return nil
}

func (f *fakeResultStore) ReplaceForecasts(ctx context.Context, rows []models.ForecastRecord) error {
	return nil
}

func (f *fakeResultStore) ListAnomalies(ctx context.Context, country string, onlyHits bool, limit int) ([]models.AnomalyRecord, error) {
	f.lastCountry, f.lastOnlyHits, f.lastLimit = country, onlyHits, limit
	return f.anomalies, nil
}

func (f *fakeResultStore) ListQualityScores(ctx context.Context, country string) ([]models.QualityScoreRecord, error) {
	f.lastCountry = country
	return f.quality, nil
}

func (f *fakeResultStore) ListForecasts(ctx context.Context, country string) ([]models.ForecastRecord, error) {
	f.lastCountry = country
	return f.forecasts, nil
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type listData struct {
	Rows  json.RawMessage `json:"rows"`
	Total int64           `json:"total"`
}

func testLogger(t *testing.T) *xlogger.Logger {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func newTestHandler(t *testing.T, store *fakeResultStore) (*echo.Echo, *ReportsEchoHandler) {
	t.Helper()
	runner := usecase.NewAnalysisRunner(nil, nil, nil, nil, nil, nil, nil, 1)
	h := NewReportsEchoHandler(testLogger(t), store, runner, nil, nil)
	e := echo.New()
	h.RegisterRoutes(e)
	return e, h
}

func doGet(e *echo.Echo, target string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	json.Unmarshal(rec.Body.Bytes(), &env) //nolint:errcheck
	return rec, env
}

func TestAnomaliesEndpoint(t *testing.T) {
	store := &fakeResultStore{
		anomalies: []models.AnomalyRecord{{
			IndicatorKey:  "DE_2024-03",
			CountryCode:   "DE",
			ReferenceDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			IsAnyAnomaly:  true,
			SeverityScore: 40,
		}},
	}
	e, _ := newTestHandler(t, store)

	rec, env := doGet(e, "/api/anomalies?country=DE&only_hits=true")
	if rec.Code != http.StatusOK || env.Status != http.StatusOK {
		t.Fatalf("status = %d / %d", rec.Code, env.Status)
	}
	if store.lastCountry != "DE" || !store.lastOnlyHits {
		t.Fatalf("query params not passed through: %q %v", store.lastCountry, store.lastOnlyHits)
	}
	if store.lastLimit != 1000 {
		t.Fatalf("default limit = %d, want 1000", store.lastLimit)
	}

	var ld listData
	if err := json.Unmarshal(env.Data, &ld); err != nil {
		t.Fatalf("data: %v", err)
	}
	if ld.Total != 1 {
		t.Fatalf("total = %d", ld.Total)
	}
	var rows []AnomalyRow
	if err := json.Unmarshal(ld.Rows, &rows); err != nil {
		t.Fatalf("rows: %v", err)
	}
	if rows[0].IndicatorKey != "DE_2024-03" || !rows[0].IsAnyAnomaly {
		t.Fatalf("row = %+v", rows[0])
	}
}

func TestAnomaliesRejectsBadCountry(t *testing.T) {
	e, _ := newTestHandler(t, &fakeResultStore{})

	_, env := doGet(e, "/api/anomalies?country=D")
	if env.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for 1-char country", env.Status)
	}
}

func TestForecastHorizonFilter(t *testing.T) {
	store := &fakeResultStore{}
	for h := 1; h <= 6; h++ {
		store.forecasts = append(store.forecasts, models.ForecastRecord{
			CountryCode:           "FR",
			ForecastHorizonMonths: h,
			ForecastEnsemble:      7.0,
		})
	}
	e, _ := newTestHandler(t, store)

	_, env := doGet(e, "/api/forecast?country=FR&horizon=3")
	var ld listData
	if err := json.Unmarshal(env.Data, &ld); err != nil {
		t.Fatalf("data: %v", err)
	}
	if ld.Total != 1 {
		t.Fatalf("total = %d, want only the requested horizon", ld.Total)
	}
	var rows []ForecastRow
	if err := json.Unmarshal(ld.Rows, &rows); err != nil {
		t.Fatalf("rows: %v", err)
	}
	if rows[0].ForecastHorizonMonths != 3 {
		t.Fatalf("horizon = %d", rows[0].ForecastHorizonMonths)
	}
}

func TestForecastRejectsHorizonOutOfRange(t *testing.T) {
	e, _ := newTestHandler(t, &fakeResultStore{})

	_, env := doGet(e, "/api/forecast?horizon=7")
	if env.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for horizon 7", env.Status)
	}
}

func TestQualityEndpoint(t *testing.T) {
	store := &fakeResultStore{
		quality: []models.QualityScoreRecord{{
			CountryCode:         "IT",
			OverallQualityScore: 65.5,
			QualityGrade:        "D",
			RequiresAttention:   true,
		}},
	}
	e, _ := newTestHandler(t, store)

	_, env := doGet(e, "/api/quality")
	var ld listData
	if err := json.Unmarshal(env.Data, &ld); err != nil {
		t.Fatalf("data: %v", err)
	}
	var rows []QualityRow
	if err := json.Unmarshal(ld.Rows, &rows); err != nil {
		t.Fatalf("rows: %v", err)
	}
	if rows[0].QualityGrade != "D" || !rows[0].RequiresAttention {
		t.Fatalf("row = %+v", rows[0])
	}
}

func TestSummaryBeforeFirstRun(t *testing.T) {
	e, _ := newTestHandler(t, &fakeResultStore{})

	_, env := doGet(e, "/api/summary")
	if env.Status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 before the first run", env.Status)
	}
}
