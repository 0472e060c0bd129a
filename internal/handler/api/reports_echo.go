package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"EconPulse/internal/domain/models"
	domrepo "EconPulse/internal/domain/repository"
	"EconPulse/internal/usecase"
	"EconPulse/pkg/cache"
	xhttp "EconPulse/pkg/http"
	xlogger "EconPulse/pkg/logger"
)

const reportCacheTTL = 60 * time.Second

// ReportsEchoHandler serves the derived relations and the run triggers.
type ReportsEchoHandler struct {
	logger   *xlogger.Logger
	results  domrepo.ResultStore
	runner   *usecase.AnalysisRunner
	ingestor *usecase.Ingestor
	cache    cache.Service
}

func NewReportsEchoHandler(
	logger *xlogger.Logger,
	results domrepo.ResultStore,
	runner *usecase.AnalysisRunner,
	ingestor *usecase.Ingestor,
	cacheSvc cache.Service,
) *ReportsEchoHandler {
	return &ReportsEchoHandler{
		logger:   logger,
		results:  results,
		runner:   runner,
		ingestor: ingestor,
		cache:    cacheSvc,
	}
}

func (h *ReportsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/anomalies", h.Anomalies)
	g.GET("/quality", h.Quality)
	g.GET("/forecast", h.Forecast)
	g.GET("/summary", h.Summary)
	g.POST("/run", h.Run)
	g.POST("/ingest", h.Ingest)
}

func (h *ReportsEchoHandler) Anomalies(c echo.Context) error {
	req := &models.AnomaliesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()

	key := cache.GenerateKeyWithParams("reports:anomalies", req.Country, req.OnlyHits, req.Limit)
	var cached []AnomalyRow
	if h.cacheGet(ctx, key, &cached) {
		return xhttp.ListResponse(c, cached, int64(len(cached)))
	}

	recs, err := h.results.ListAnomalies(ctx, req.Country, req.OnlyHits, req.Limit)
	if err != nil {
		h.logger.Error("list anomalies", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	rows := toAnomalyRows(recs)
	h.cacheSet(ctx, key, rows)
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *ReportsEchoHandler) Quality(c echo.Context) error {
	req := &models.QualityRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()

	key := cache.GenerateKeyWithParams("reports:quality", req.Country)
	var cached []QualityRow
	if h.cacheGet(ctx, key, &cached) {
		return xhttp.ListResponse(c, cached, int64(len(cached)))
	}

	recs, err := h.results.ListQualityScores(ctx, req.Country)
	if err != nil {
		h.logger.Error("list quality scores", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	rows := toQualityRows(recs)
	h.cacheSet(ctx, key, rows)
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *ReportsEchoHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()

	key := cache.GenerateKeyWithParams("reports:forecast", req.Country, req.Horizon)
	var cached []ForecastRow
	if h.cacheGet(ctx, key, &cached) {
		return xhttp.ListResponse(c, cached, int64(len(cached)))
	}

	recs, err := h.results.ListForecasts(ctx, req.Country)
	if err != nil {
		h.logger.Error("list forecasts", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if req.Horizon > 0 {
		filtered := recs[:0]
		for _, r := range recs {
			if r.ForecastHorizonMonths == req.Horizon {
				filtered = append(filtered, r)
			}
		}
		recs = filtered
	}
	rows := toForecastRows(recs)
	h.cacheSet(ctx, key, rows)
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *ReportsEchoHandler) Summary(c echo.Context) error {
	s := h.runner.LastSummary()
	if s == nil {
		return xhttp.NotFoundResponse(c, xhttp.NotFoundError("no analysis run has completed yet"))
	}
	return xhttp.SuccessResponse(c, s)
}

func (h *ReportsEchoHandler) Run(c echo.Context) error {
	summary, err := h.runner.Run(c.Request().Context())
	if err != nil {
		h.logger.Error("analysis run", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}
	h.invalidateReports(c.Request().Context())
	return xhttp.SuccessResponse(c, summary)
}

func (h *ReportsEchoHandler) Ingest(c echo.Context) error {
	res, err := h.ingestor.Run(c.Request().Context())
	if err != nil {
		h.logger.Error("ingest run", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ReportsEchoHandler) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if h.cache == nil {
		return false
	}
	return h.cache.Get(ctx, key, dest) == nil
}

func (h *ReportsEchoHandler) cacheSet(ctx context.Context, key string, value interface{}) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Set(ctx, key, value, reportCacheTTL); err != nil {
		h.logger.Warn("cache set failed", xlogger.String("key", key), xlogger.Error(err))
	}
}

// invalidateReports drops cached report listings after a run replaced the
// underlying relations.
func (h *ReportsEchoHandler) invalidateReports(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.DeleteByPattern(ctx, cache.BuildPattern("reports")); err != nil {
		h.logger.Warn("cache invalidation failed", xlogger.Error(err))
	}
}
