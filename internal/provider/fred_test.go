package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"CurveFeed/internal/domain/models"
	"CurveFeed/pkg/logger"
	"CurveFeed/pkg/util"
)

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	day, ok := util.ParseDay(s)
	if !ok {
		t.Fatalf("bad day %q", s)
	}
	return day
}

// fredFixture serves one synthetic observation list per series id, shared by
// every maturity so assertions stay simple.
func fredFixture(t *testing.T, observations func(seriesID string, r *http.Request) []fredObservation) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fred/series/observations" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("api_key"); got != "test-key" {
			t.Errorf("api_key = %q", got)
		}
		payload := fredResponse{Observations: observations(r.URL.Query().Get("series_id"), r)}
		json.NewEncoder(w).Encode(payload)
	}))
}

func TestFREDCurrentChange1M(t *testing.T) {
	// 30 descending observations per series: head 4.50, 21 back 4.20.
	srv := fredFixture(t, func(seriesID string, r *http.Request) []fredObservation {
		if got := r.URL.Query().Get("sort_order"); got != "desc" {
			t.Errorf("sort_order = %q", got)
		}
		obs := make([]fredObservation, 30)
		for i := range obs {
			day := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -i)
			obs[i] = fredObservation{Date: util.Day(day), Value: fmt.Sprintf("%.2f", 4.50-float64(i)*0.01)}
		}
		return obs
	})
	defer srv.Close()

	p := NewFRED(FREDOptions{APIKey: "test-key", BaseURL: srv.URL}, logger.Nop())
	curve, err := p.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(curve.Points) != len(fredSeries) {
		t.Fatalf("len(Points) = %d, want %d", len(curve.Points), len(fredSeries))
	}
	pt := curve.Points[models.Maturity10Y]
	if pt.Rate != 4.50 {
		t.Errorf("rate = %v, want 4.50", pt.Rate)
	}
	if pt.Change1M == nil || *pt.PrevValue != 4.29 {
		t.Fatalf("prev = %+v, want 4.29", pt.PrevValue)
	}
	if got := *pt.Change1M; got < 0.2099 || got > 0.2101 {
		t.Errorf("change1M = %v, want ~0.21", got)
	}
	if curve.Date != "2025-06-30" {
		t.Errorf("Date = %q, want 2025-06-30", curve.Date)
	}
}

func TestFREDSkipsMissingValueSentinel(t *testing.T) {
	srv := fredFixture(t, func(seriesID string, r *http.Request) []fredObservation {
		return []fredObservation{
			{Date: "2025-06-30", Value: "."},
			{Date: "2025-06-27", Value: "4.40"},
		}
	})
	defer srv.Close()

	p := NewFRED(FREDOptions{APIKey: "test-key", BaseURL: srv.URL}, logger.Nop())
	curve, err := p.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	pt := curve.Points[models.Maturity10Y]
	if pt.Rate != 4.40 || pt.Date != "2025-06-27" {
		t.Errorf("point = %+v, want 4.40 on 2025-06-27", pt)
	}
	if pt.Change1M != nil {
		t.Error("change1M should be nil with a short history")
	}
}

func TestFREDHistoricalOnOrBefore(t *testing.T) {
	srv := fredFixture(t, func(seriesID string, r *http.Request) []fredObservation {
		if r.URL.Query().Get("observation_start") == "" {
			t.Error("missing observation_start")
		}
		// Ascending window around the target. 2024-03-15 itself is absent.
		return []fredObservation{
			{Date: "2024-03-12", Value: "4.10"},
			{Date: "2024-03-14", Value: "4.15"},
			{Date: "2024-03-18", Value: "4.25"},
		}
	})
	defer srv.Close()

	p := NewFRED(FREDOptions{APIKey: "test-key", BaseURL: srv.URL}, logger.Nop())
	day := mustDay(t, "2024-03-15")
	curve, err := p.Fetch(context.Background(), &day)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	pt := curve.Points[models.Maturity10Y]
	if pt.Rate != 4.15 || pt.Date != "2024-03-14" {
		t.Errorf("point = %+v, want 4.15 on 2024-03-14", pt)
	}
}

func TestFREDHistoricalEarliestFallback(t *testing.T) {
	srv := fredFixture(t, func(seriesID string, r *http.Request) []fredObservation {
		return []fredObservation{
			{Date: "2024-03-18", Value: "4.25"},
			{Date: "2024-03-20", Value: "4.30"},
		}
	})
	defer srv.Close()

	p := NewFRED(FREDOptions{APIKey: "test-key", BaseURL: srv.URL}, logger.Nop())
	day := mustDay(t, "2024-03-15")
	curve, err := p.Fetch(context.Background(), &day)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if pt := curve.Points[models.Maturity10Y]; pt.Date != "2024-03-18" {
		t.Errorf("point = %+v, want earliest 2024-03-18", pt)
	}
}

func TestFREDNoAPIKey(t *testing.T) {
	p := NewFRED(FREDOptions{}, logger.Nop())
	curve, err := p.Fetch(context.Background(), nil)
	if curve != nil || err != nil {
		t.Fatalf("Fetch = (%v, %v), want (nil, nil)", curve, err)
	}
}

func TestFREDAllSeriesEmpty(t *testing.T) {
	srv := fredFixture(t, func(seriesID string, r *http.Request) []fredObservation {
		return nil
	})
	defer srv.Close()

	p := NewFRED(FREDOptions{APIKey: "test-key", BaseURL: srv.URL}, logger.Nop())
	curve, err := p.Fetch(context.Background(), nil)
	if curve != nil || err != nil {
		t.Fatalf("Fetch = (%v, %v), want (nil, nil)", curve, err)
	}
}
