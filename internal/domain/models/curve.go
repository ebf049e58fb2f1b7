package models

// Country selects one yield curve.
type Country string

const (
	CountryUS     Country = "US"
	CountryCanada Country = "Canada"
)

// Currency returns the curve's quote currency.
func (c Country) Currency() string {
	if c == CountryCanada {
		return "CAD"
	}
	return "USD"
}

// RateObservation is one data point of a curve: the rate for one maturity,
// plus an optional ~21-trading-days-ago comparison.
type RateObservation struct {
	Maturity  Maturity `json:"maturity"`
	Rate      float64  `json:"rate"`
	Months    int      `json:"months"`
	PrevValue *float64 `json:"prevValue,omitempty"`
	Change1M  *float64 `json:"change1M,omitempty"`
}

// YieldCurveSnapshot is one country's full curve at one date.
type YieldCurveSnapshot struct {
	Country     string            `json:"country"`
	Currency    string            `json:"currency"`
	Rates       []RateObservation `json:"rates"`
	Source      string            `json:"source"`
	Date        string            `json:"date"`
	Count       int               `json:"count"`
	Spread10Y2Y *float64          `json:"spread_10y_2y"`
	Inverted    bool              `json:"inverted"`
}

// HistoryEntry is one cached curve row served for charting.
type HistoryEntry struct {
	Date        string            `json:"date"`
	Rates       []RateObservation `json:"rates"`
	Spread10Y2Y *float64          `json:"spread_10y_2y"`
	Inverted    bool              `json:"inverted"`
	Source      string            `json:"source"`
}

// RatePoint is one normalized provider observation before merging.
type RatePoint struct {
	Rate      float64
	Date      string
	PrevValue *float64
	Change1M  *float64
}

// PartialCurve is what one provider contributes: possibly incomplete, keyed
// by maturity. The orchestrator only ever sees this shape, never
// provider-native fields.
type PartialCurve struct {
	Points map[Maturity]RatePoint
	Date   string
}

// NewPartialCurve allocates an empty contribution.
func NewPartialCurve() *PartialCurve {
	return &PartialCurve{Points: make(map[Maturity]RatePoint)}
}

// Empty reports whether the curve carries no observations.
func (p *PartialCurve) Empty() bool {
	return p == nil || len(p.Points) == 0
}

// BuildSnapshot converts merged points into an ordered snapshot and derives
// spread/inversion and count from the same rates, so the derived fields can
// never be stale relative to the curve they describe.
func BuildSnapshot(country Country, points map[Maturity]RatePoint, source, date string) *YieldCurveSnapshot {
	rates := make([]RateObservation, 0, len(points))
	for maturity, pt := range points {
		rates = append(rates, RateObservation{
			Maturity:  maturity,
			Rate:      pt.Rate,
			Months:    maturity.Months(),
			PrevValue: pt.PrevValue,
			Change1M:  pt.Change1M,
		})
	}
	SortByMaturity(rates)

	snap := &YieldCurveSnapshot{
		Country:  string(country),
		Currency: country.Currency(),
		Rates:    rates,
		Source:   source,
		Date:     date,
		Count:    len(rates),
	}
	snap.RecomputeSpread()
	return snap
}

// RecomputeSpread refreshes spread_10y_2y and inverted from the snapshot's
// own rates. Called before every persist and every response.
func (s *YieldCurveSnapshot) RecomputeSpread() {
	s.Count = len(s.Rates)
	s.Spread10Y2Y = nil
	s.Inverted = false

	var r2, r10 *float64
	for i := range s.Rates {
		switch s.Rates[i].Maturity {
		case Maturity2Y:
			r2 = &s.Rates[i].Rate
		case Maturity10Y:
			r10 = &s.Rates[i].Rate
		}
	}
	if r2 != nil && r10 != nil {
		spread := *r10 - *r2
		s.Spread10Y2Y = &spread
		s.Inverted = spread < 0
	}
}
