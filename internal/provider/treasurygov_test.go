package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"CurveFeed/internal/domain/models"
	"CurveFeed/pkg/logger"
)

const treasuryCSV = `Date,"1 Mo","1.5 Month","2 Mo","3 Mo","6 Mo","1 Yr","2 Yr","3 Yr","5 Yr","7 Yr","10 Yr","20 Yr","30 Yr"
06/13/2025,4.28,4.30,4.33,4.38,4.29,4.05,3.95,3.90,3.96,4.18,4.41,4.89,4.90
06/12/2025,4.27,4.29,4.32,4.37,4.28,4.04,3.92,3.88,3.94,4.16,4.36,4.85,4.88
`

func TestTreasuryGovFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("_format"); got != "csv" {
			t.Errorf("_format = %q, want csv", got)
		}
		w.Write([]byte(treasuryCSV))
	}))
	defer srv.Close()

	p := NewTreasuryGov(TreasuryGovOptions{BaseURL: srv.URL}, logger.Nop())
	curve, err := p.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if curve == nil {
		t.Fatal("Fetch returned nil curve")
	}
	if curve.Date != "2025-06-13" {
		t.Errorf("Date = %q, want 2025-06-13", curve.Date)
	}
	if pt, ok := curve.Points[models.Maturity10Y]; !ok || pt.Rate != 4.41 {
		t.Errorf("10Y = %+v, want 4.41", pt)
	}
	if pt, ok := curve.Points[models.Maturity1M]; !ok || pt.Rate != 4.28 {
		t.Errorf("1M = %+v, want 4.28", pt)
	}
	// "1.5 Month" is not a tracked maturity and must not leak in.
	if len(curve.Points) != 12 {
		t.Errorf("len(Points) = %d, want 12", len(curve.Points))
	}
}

func TestTreasuryGovSkipsRowsWithout10Y(t *testing.T) {
	csv := `Date,"1 Mo","10 Yr"
06/13/2025,4.28,
06/12/2025,4.27,4.36
`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(csv))
	}))
	defer srv.Close()

	p := NewTreasuryGov(TreasuryGovOptions{BaseURL: srv.URL}, logger.Nop())
	curve, err := p.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if curve.Date != "2025-06-12" {
		t.Errorf("Date = %q, want 2025-06-12", curve.Date)
	}
	if pt := curve.Points[models.Maturity10Y]; pt.Rate != 4.36 {
		t.Errorf("10Y = %v, want 4.36", pt.Rate)
	}
}

func TestTreasuryGovHistoricalUnsupported(t *testing.T) {
	p := NewTreasuryGov(TreasuryGovOptions{BaseURL: "http://127.0.0.1:0"}, logger.Nop())
	day := mustDay(t, "2024-03-01")
	curve, err := p.Fetch(context.Background(), &day)
	if err != nil || curve != nil {
		t.Fatalf("historical Fetch = (%v, %v), want (nil, nil)", curve, err)
	}
}

func TestTreasuryGovServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewTreasuryGov(TreasuryGovOptions{BaseURL: srv.URL}, logger.Nop())
	if _, err := p.Fetch(context.Background(), nil); err == nil {
		t.Fatal("expected error on 502")
	}
}
