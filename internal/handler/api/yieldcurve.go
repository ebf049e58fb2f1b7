package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"CurveFeed/internal/domain/models"
	"CurveFeed/internal/domain/repository"
	"CurveFeed/internal/service/ratelimit"
	"CurveFeed/internal/usecase"
	xhttp "CurveFeed/pkg/http"
	"CurveFeed/pkg/logger"
	"CurveFeed/pkg/util"
)

// successCacheControl lets CDNs serve a curve for an hour and revalidate in
// the background for a day.
const successCacheControl = "max-age=0, s-maxage=3600, stale-while-revalidate=86400"

// YieldCurveHandler serves the public curve endpoint and the health check.
type YieldCurveHandler struct {
	svc     *usecase.CurveService
	limiter *ratelimit.Limiter
	metrics repository.Metrics
	log     *logger.Logger
}

func NewYieldCurveHandler(svc *usecase.CurveService, limiter *ratelimit.Limiter, metrics repository.Metrics, log *logger.Logger) *YieldCurveHandler {
	if metrics == nil {
		metrics = repository.NopMetrics{}
	}
	return &YieldCurveHandler{svc: svc, limiter: limiter, metrics: metrics, log: log}
}

// RegisterRoutes registers handler routes.
func (h *YieldCurveHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/yield-curve", h.getYieldCurve, h.rateLimit)
	e.GET("/healthz", h.healthz)
}

// rateLimit rejects callers over their per-window budget. Rejections carry
// no-store so CDNs don't pin a 429 against the cacheable success responses.
func (h *YieldCurveHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := ratelimit.ClientKey(c.Request())
		if !h.limiter.Allow(key) {
			h.metrics.RecordRateLimited()
			c.Response().Header().Set("Cache-Control", "no-store")
			return c.JSON(http.StatusTooManyRequests, xhttp.TooManyRequestsError("Too many requests"))
		}
		return next(c)
	}
}

func countriesFor(selector string) []models.Country {
	switch selector {
	case "us":
		return []models.Country{models.CountryUS}
	case "canada":
		return []models.Country{models.CountryCanada}
	default:
		return []models.Country{models.CountryUS, models.CountryCanada}
	}
}

func responseKey(country models.Country) string {
	return strings.ToLower(string(country))
}

func (h *YieldCurveHandler) getYieldCurve(c echo.Context) error {
	req := new(models.YieldCurveRequest)
	if errs := xhttp.ReadAndValidateRequest(c, req); errs != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"errors": errs})
	}

	if req.History {
		return h.getHistory(c, req)
	}

	var target *time.Time
	if req.Date != "" {
		day, ok := util.ParseDay(req.Date)
		if !ok {
			return c.JSON(http.StatusBadRequest, xhttp.BadRequestError("date must match format 2006-01-02"))
		}
		target = &day
	}

	resp := models.YieldCurveResponse{
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		Data:           make(map[string]*models.YieldCurveSnapshot),
		HistoricalDate: req.Date,
	}

	ctx := c.Request().Context()
	for _, country := range countriesFor(req.Country) {
		snap, err := h.svc.Curve(ctx, country, target)
		if err != nil {
			h.log.Warn("curve lookup failed",
				logger.String("country", string(country)), logger.Error(err))
			continue
		}
		resp.Data[responseKey(country)] = snap
	}

	// A request is only a failure when no country could be answered at all.
	if len(resp.Data) == 0 {
		c.Response().Header().Set("Cache-Control", "no-store")
		return c.JSON(http.StatusInternalServerError, xhttp.InternalError("Unable to fetch yield curve data"))
	}

	c.Response().Header().Set("Cache-Control", successCacheControl)
	return c.JSON(http.StatusOK, resp)
}

func (h *YieldCurveHandler) getHistory(c echo.Context, req *models.YieldCurveRequest) error {
	resp := models.YieldCurveHistoryResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Period:    req.Period,
		History:   make(map[string][]models.HistoryEntry),
	}

	ctx := c.Request().Context()
	failed := 0
	for _, country := range countriesFor(req.Country) {
		entries, err := h.svc.History(ctx, country, req.Period)
		if err != nil {
			failed++
			h.log.Warn("history lookup failed",
				logger.String("country", string(country)), logger.Error(err))
			continue
		}
		if entries == nil {
			entries = []models.HistoryEntry{}
		}
		resp.History[responseKey(country)] = entries
	}

	if len(resp.History) == 0 && failed > 0 {
		c.Response().Header().Set("Cache-Control", "no-store")
		return c.JSON(http.StatusInternalServerError, xhttp.InternalError("Unable to fetch yield curve history"))
	}

	c.Response().Header().Set("Cache-Control", successCacheControl)
	return c.JSON(http.StatusOK, resp)
}

func (h *YieldCurveHandler) healthz(c echo.Context) error {
	if err := h.svc.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
