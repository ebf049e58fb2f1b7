package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"CurveFeed/internal/domain/models"
	"CurveFeed/internal/domain/repository"
	"CurveFeed/internal/service/ratelimit"
	"CurveFeed/internal/usecase"
	xhttp "CurveFeed/pkg/http"
	"CurveFeed/pkg/cache"
	"CurveFeed/pkg/logger"
)

type stubSource struct {
	name  string
	rates map[models.Maturity]float64
	date  string
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(context.Context, *time.Time) (*models.PartialCurve, error) {
	curve := models.NewPartialCurve()
	curve.Date = s.date
	for m, r := range s.rates {
		curve.Points[m] = models.RatePoint{Rate: r, Date: s.date}
	}
	return curve, nil
}

type stubStore struct {
	rows map[models.Country][]models.HistoryEntry
}

func (s *stubStore) Upsert(context.Context, models.Country, *models.YieldCurveSnapshot) error {
	return nil
}

func (s *stubStore) Latest(context.Context, models.Country) (*models.YieldCurveSnapshot, error) {
	return nil, nil
}

func (s *stubStore) ClosestBefore(context.Context, models.Country, string) (*models.YieldCurveSnapshot, error) {
	return nil, nil
}

func (s *stubStore) Range(_ context.Context, country models.Country, _ string) ([]models.HistoryEntry, error) {
	return s.rows[country], nil
}

func (s *stubStore) Ping(context.Context) error { return nil }

func testServer(t *testing.T, limit int) *xhttp.Server {
	t.Helper()

	today := time.Now().Format("2006-01-02")
	us := &stubSource{name: "Treasury.gov", date: today, rates: map[models.Maturity]float64{
		models.Maturity1M: 4.28, models.Maturity3M: 4.38, models.Maturity2Y: 3.95,
		models.Maturity10Y: 4.41, models.Maturity30Y: 4.90,
	}}
	canada := &stubSource{name: "Bank of Canada", date: today, rates: map[models.Maturity]float64{
		models.Maturity1M: 2.25, models.Maturity3M: 2.35, models.Maturity2Y: 2.58,
		models.Maturity10Y: 3.40, models.Maturity30Y: 3.84,
	}}

	agg := usecase.NewCurveAggregator(usecase.SourceChains{
		USCurrent:     []repository.RateSource{us},
		CanadaCurrent: []repository.RateSource{canada},
	}, nil, logger.Nop())
	svc := usecase.NewCurveService(agg, &stubStore{rows: map[models.Country][]models.HistoryEntry{
		models.CountryUS:     {{Date: "2025-06-10", Source: "Treasury.gov"}},
		models.CountryCanada: {{Date: "2025-06-10", Source: "Bank of Canada"}},
	}}, cache.NewMemoryCache(), nil, nil, logger.Nop())

	h := NewYieldCurveHandler(svc, ratelimit.New(limit, 10*time.Second), nil, logger.Nop())
	return xhttp.NewServer(h)
}

func doRequest(srv *xhttp.Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	return rec
}

func TestGetYieldCurveBothCountries(t *testing.T) {
	srv := testServer(t, 30)
	rec := doRequest(srv, http.MethodGet, "/api/yield-curve")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Cache-Control"); got != successCacheControl {
		t.Errorf("Cache-Control = %q", got)
	}

	var resp models.YieldCurveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"us", "canada"} {
		snap := resp.Data[key]
		if snap == nil {
			t.Fatalf("missing %s", key)
		}
		if snap.Count != len(snap.Rates) {
			t.Errorf("%s count = %d, rates = %d", key, snap.Count, len(snap.Rates))
		}
	}
	if resp.Data["us"].Currency != "USD" || resp.Data["canada"].Currency != "CAD" {
		t.Error("currencies wrong")
	}
	if resp.HistoricalDate != "" {
		t.Errorf("historicalDate = %q, want empty", resp.HistoricalDate)
	}
}

func TestGetYieldCurveSingleCountry(t *testing.T) {
	srv := testServer(t, 30)
	rec := doRequest(srv, http.MethodGet, "/api/yield-curve?country=canada")

	var resp models.YieldCurveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := resp.Data["us"]; ok {
		t.Error("us present for country=canada")
	}
	if resp.Data["canada"] == nil {
		t.Fatal("canada missing")
	}
}

func TestGetYieldCurveInvalidParams(t *testing.T) {
	srv := testServer(t, 30)

	for _, target := range []string{
		"/api/yield-curve?country=uk",
		"/api/yield-curve?date=2024-13-45",
		"/api/yield-curve?history=true&period=5y",
	} {
		rec := doRequest(srv, http.MethodGet, target)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestGetYieldCurveHistory(t *testing.T) {
	srv := testServer(t, 30)
	rec := doRequest(srv, http.MethodGet, "/api/yield-curve?history=true&period=3m")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp models.YieldCurveHistoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Period != "3m" {
		t.Errorf("period = %q, want 3m", resp.Period)
	}
	if len(resp.History["us"]) != 1 || len(resp.History["canada"]) != 1 {
		t.Errorf("history = %+v", resp.History)
	}
}

func TestRateLimitExceeded(t *testing.T) {
	srv := testServer(t, 2)

	doRequest(srv, http.MethodGet, "/api/yield-curve?country=us")
	doRequest(srv, http.MethodGet, "/api/yield-curve?country=us")
	rec := doRequest(srv, http.MethodGet, "/api/yield-curve?country=us")

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := testServer(t, 30)
	rec := doRequest(srv, http.MethodPost, "/api/yield-curve")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestPreflight(t *testing.T) {
	srv := testServer(t, 30)
	req := httptest.NewRequest(http.MethodOptions, "/api/yield-curve", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	srv := testServer(t, 30)
	rec := doRequest(srv, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
