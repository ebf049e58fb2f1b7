package provider

import (
	"context"
	"strings"
	"time"

	"CurveFeed/internal/domain/models"
	xhttp "CurveFeed/pkg/http"
	"CurveFeed/pkg/logger"
)

// FMP queries Financial Modeling Prep, which returns every US maturity in a
// single call. Second-priority US fallback; no historical support.
type FMP struct {
	apiKey  string
	baseURL string
	client  *xhttp.Client
	log     *logger.Logger
}

// FMPOptions parameterise the client.
type FMPOptions struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewFMP builds an FMP client.
func NewFMP(opts FMPOptions, log *logger.Logger) *FMP {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://financialmodelingprep.com"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FMP{
		apiKey:  opts.APIKey,
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		log:     log,
	}
}

func (f *FMP) Name() string { return "FMP" }

func (f *FMP) Fetch(ctx context.Context, target *time.Time) (*models.PartialCurve, error) {
	if f.apiKey == "" {
		f.log.Warn("FMP_API_KEY not configured, skipping")
		return nil, nil
	}
	if target != nil {
		return nil, nil
	}

	var rows []struct {
		Date    string   `json:"date"`
		Month1  *float64 `json:"month1"`
		Month2  *float64 `json:"month2"`
		Month3  *float64 `json:"month3"`
		Month6  *float64 `json:"month6"`
		Year1   *float64 `json:"year1"`
		Year2   *float64 `json:"year2"`
		Year3   *float64 `json:"year3"`
		Year5   *float64 `json:"year5"`
		Year7   *float64 `json:"year7"`
		Year10  *float64 `json:"year10"`
		Year20  *float64 `json:"year20"`
		Year30  *float64 `json:"year30"`
	}
	err := f.client.SendAndParse(ctx, &xhttp.RequestOptions{
		URL:         f.baseURL + "/api/v4/treasury",
		QueryParams: map[string][]string{"apikey": {f.apiKey}},
	}, &rows)
	if err != nil {
		f.log.Warn("fmp fetch failed", logger.Error(err))
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	latest := rows[0]
	curve := models.NewPartialCurve()
	curve.Date = latest.Date

	fields := map[models.Maturity]*float64{
		models.Maturity1M:  latest.Month1,
		models.Maturity2M:  latest.Month2,
		models.Maturity3M:  latest.Month3,
		models.Maturity6M:  latest.Month6,
		models.Maturity1Y:  latest.Year1,
		models.Maturity2Y:  latest.Year2,
		models.Maturity3Y:  latest.Year3,
		models.Maturity5Y:  latest.Year5,
		models.Maturity7Y:  latest.Year7,
		models.Maturity10Y: latest.Year10,
		models.Maturity20Y: latest.Year20,
		models.Maturity30Y: latest.Year30,
	}
	for maturity, value := range fields {
		if value == nil {
			continue
		}
		curve.Points[maturity] = models.RatePoint{Rate: *value, Date: latest.Date}
	}

	if curve.Empty() {
		return nil, nil
	}
	return curve, nil
}
