package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"CurveFeed/internal/domain/models"
	"CurveFeed/internal/domain/repository"
	"CurveFeed/pkg/logger"
)

// fakeSource scripts one provider: a fixed curve, an optional error, and a
// call counter.
type fakeSource struct {
	name  string
	curve *models.PartialCurve
	err   error
	calls int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(_ context.Context, _ *time.Time) (*models.PartialCurve, error) {
	f.calls++
	return f.curve, f.err
}

func partial(date string, rates map[models.Maturity]float64) *models.PartialCurve {
	curve := models.NewPartialCurve()
	curve.Date = date
	for m, r := range rates {
		curve.Points[m] = models.RatePoint{Rate: r, Date: date}
	}
	return curve
}

func chain(sources ...*fakeSource) []repository.RateSource {
	out := make([]repository.RateSource, len(sources))
	for i, s := range sources {
		out[i] = s
	}
	return out
}

func usAggregator(sources ...*fakeSource) *CurveAggregator {
	return NewCurveAggregator(SourceChains{USCurrent: chain(sources...)}, nil, logger.Nop())
}

func TestAggregatorAdequateFirstSourceStopsChain(t *testing.T) {
	first := &fakeSource{name: "Treasury.gov", curve: partial("2025-06-13", map[models.Maturity]float64{
		models.Maturity1M: 4.28, models.Maturity3M: 4.38, models.Maturity2Y: 3.95,
		models.Maturity10Y: 4.41, models.Maturity30Y: 4.90,
	})}
	second := &fakeSource{name: "FMP"}

	agg := usAggregator(first, second)
	snap := agg.Build(context.Background(), models.CountryUS, nil)

	if second.calls != 0 {
		t.Errorf("second source called %d times, want 0", second.calls)
	}
	if snap.Source != "Treasury.gov" {
		t.Errorf("Source = %q, want Treasury.gov", snap.Source)
	}
	if snap.Count != 5 {
		t.Errorf("Count = %d, want 5", snap.Count)
	}
}

func TestAggregatorFallbackFillsGapsNeverReplaces(t *testing.T) {
	first := &fakeSource{name: "Treasury.gov", curve: partial("2025-06-13", map[models.Maturity]float64{
		models.Maturity10Y: 4.41, models.Maturity2Y: 3.95,
	})}
	second := &fakeSource{name: "FMP", curve: partial("2025-06-12", map[models.Maturity]float64{
		models.Maturity10Y: 9.99, // disagrees; must not win
		models.Maturity1M:  4.28, models.Maturity3M: 4.38, models.Maturity30Y: 4.90,
	})}

	agg := usAggregator(first, second)
	snap := agg.Build(context.Background(), models.CountryUS, nil)

	byMaturity := map[models.Maturity]float64{}
	for _, r := range snap.Rates {
		if _, dup := byMaturity[r.Maturity]; dup {
			t.Fatalf("duplicate maturity %s", r.Maturity)
		}
		byMaturity[r.Maturity] = r.Rate
	}
	if byMaturity[models.Maturity10Y] != 4.41 {
		t.Errorf("10Y = %v, want first source's 4.41", byMaturity[models.Maturity10Y])
	}
	if byMaturity[models.Maturity1M] != 4.28 {
		t.Errorf("1M = %v, want fallback's 4.28", byMaturity[models.Maturity1M])
	}
	// Source is the last contributor, date the first's.
	if snap.Source != "FMP" {
		t.Errorf("Source = %q, want FMP", snap.Source)
	}
	if snap.Date != "2025-06-13" {
		t.Errorf("Date = %q, want 2025-06-13", snap.Date)
	}
}

func TestAggregatorErrorsTreatedAsNoContribution(t *testing.T) {
	first := &fakeSource{name: "Treasury.gov", err: errors.New("boom")}
	second := &fakeSource{name: "FRED", curve: partial("2025-06-13", map[models.Maturity]float64{
		models.Maturity2Y: 3.95, models.Maturity10Y: 4.41,
	})}

	agg := usAggregator(first, second)
	snap := agg.Build(context.Background(), models.CountryUS, nil)

	if snap.Count != 2 {
		t.Errorf("Count = %d, want 2", snap.Count)
	}
	if snap.Source != "FRED" {
		t.Errorf("Source = %q, want FRED", snap.Source)
	}
}

func TestAggregatorAllSourcesDryYieldsEmptySnapshot(t *testing.T) {
	first := &fakeSource{name: "Treasury.gov", err: errors.New("down")}
	second := &fakeSource{name: "FMP"}

	agg := usAggregator(first, second)
	snap := agg.Build(context.Background(), models.CountryUS, nil)

	if snap == nil {
		t.Fatal("snapshot is nil")
	}
	if snap.Count != 0 || len(snap.Rates) != 0 {
		t.Errorf("Count = %d, want empty", snap.Count)
	}
	if snap.Source != "Treasury.gov" {
		t.Errorf("Source = %q, want chain head", snap.Source)
	}
	if snap.Spread10Y2Y != nil {
		t.Error("spread should be nil without 2Y and 10Y")
	}
	if snap.Date == "" {
		t.Error("Date should default to today")
	}
}

func TestAggregatorSpreadAndInversion(t *testing.T) {
	src := &fakeSource{name: "FRED", curve: partial("2025-06-13", map[models.Maturity]float64{
		models.Maturity2Y: 4.80, models.Maturity10Y: 4.20,
		models.Maturity3M: 5.00, models.Maturity30Y: 4.50, models.Maturity5Y: 4.30,
	})}

	agg := usAggregator(src)
	snap := agg.Build(context.Background(), models.CountryUS, nil)

	if snap.Spread10Y2Y == nil {
		t.Fatal("spread missing")
	}
	if got := *snap.Spread10Y2Y; got > -0.5999 || got < -0.6001 {
		t.Errorf("spread = %v, want -0.60", got)
	}
	if !snap.Inverted {
		t.Error("curve should be inverted")
	}
	// Rates come back ordered by months ascending.
	for i := 1; i < len(snap.Rates); i++ {
		if snap.Rates[i-1].Months >= snap.Rates[i].Months {
			t.Fatalf("rates not ascending at %d: %+v", i, snap.Rates)
		}
	}
}

func TestAggregatorCanadaStaticTerminates(t *testing.T) {
	grouped := &fakeSource{name: "Bank of Canada", err: errors.New("down")}
	series := &fakeSource{name: "Bank of Canada", err: errors.New("down")}
	static := &fakeSource{name: "Bank of Canada", curve: partial("2025-06-13", map[models.Maturity]float64{
		models.Maturity1M: 2.25, models.Maturity3M: 2.35, models.Maturity6M: 2.45,
		models.Maturity1Y: 2.50, models.Maturity2Y: 2.58, models.Maturity3Y: 2.75,
		models.Maturity5Y: 2.96, models.Maturity7Y: 3.15, models.Maturity10Y: 3.40,
		models.Maturity30Y: 3.84,
	})}

	agg := NewCurveAggregator(SourceChains{
		CanadaCurrent: chain(grouped, series, static),
	}, nil, logger.Nop())
	snap := agg.Build(context.Background(), models.CountryCanada, nil)

	if snap.Count != 10 {
		t.Errorf("Count = %d, want 10", snap.Count)
	}
	if snap.Currency != "CAD" {
		t.Errorf("Currency = %q, want CAD", snap.Currency)
	}
	if snap.Source != "Bank of Canada" {
		t.Errorf("Source = %q", snap.Source)
	}
}
