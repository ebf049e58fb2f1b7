package provider

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"CurveFeed/internal/domain/models"
	xhttp "CurveFeed/pkg/http"
	"CurveFeed/pkg/logger"
	"CurveFeed/pkg/util"
)

// fredSeries maps curve maturities to FRED series ids.
var fredSeries = map[models.Maturity]string{
	models.Maturity1M:  "DGS1MO",
	models.Maturity3M:  "DGS3MO",
	models.Maturity6M:  "DGS6MO",
	models.Maturity1Y:  "DGS1",
	models.Maturity2Y:  "DGS2",
	models.Maturity3Y:  "DGS3",
	models.Maturity5Y:  "DGS5",
	models.Maturity7Y:  "DGS7",
	models.Maturity10Y: "DGS10",
	models.Maturity20Y: "DGS20",
	models.Maturity30Y: "DGS30",
}

// change1MLookback approximates one month of trading days in a
// descending-by-date observation list.
const change1MLookback = 21

// historicalWindowDays bounds the observation window requested around a
// historical target date.
const historicalWindowDays = 15

// FRED queries the St. Louis Fed API, one HTTP call per maturity series.
// It is the only US source that supports historical date targeting.
type FRED struct {
	apiKey  string
	baseURL string
	client  *xhttp.Client
	log     *logger.Logger
}

// FREDOptions parameterise the client.
type FREDOptions struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewFRED builds a FRED client.
func NewFRED(opts FREDOptions, log *logger.Logger) *FRED {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.stlouisfed.org"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FRED{
		apiKey:  opts.APIKey,
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		log:     log,
	}
}

func (f *FRED) Name() string { return "FRED" }

// Fetch fans out one request per series concurrently and merges successful
// results. A missing API key degrades to a no-op.
func (f *FRED) Fetch(ctx context.Context, target *time.Time) (*models.PartialCurve, error) {
	if f.apiKey == "" {
		f.log.Warn("FRED_API_KEY not configured, skipping")
		return nil, nil
	}

	curve := models.NewPartialCurve()
	var mu sync.Mutex
	var wg sync.WaitGroup

	for maturity, seriesID := range fredSeries {
		wg.Add(1)
		go func(maturity models.Maturity, seriesID string) {
			defer wg.Done()
			point, err := f.fetchSeries(ctx, seriesID, target)
			if err != nil {
				f.log.Warn("fred series fetch failed",
					logger.String("series", seriesID), logger.Error(err))
				return
			}
			if point == nil {
				return
			}
			mu.Lock()
			curve.Points[maturity] = *point
			mu.Unlock()
		}(maturity, seriesID)
	}
	wg.Wait()

	if curve.Empty() {
		return nil, nil
	}
	// The 10Y date labels the curve when present; any contributed date
	// otherwise.
	if pt, ok := curve.Points[models.Maturity10Y]; ok {
		curve.Date = pt.Date
	} else {
		for _, pt := range curve.Points {
			curve.Date = pt.Date
			break
		}
	}
	return curve, nil
}

type fredObservation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

type fredResponse struct {
	Observations []fredObservation `json:"observations"`
}

func (f *FRED) fetchSeries(ctx context.Context, seriesID string, target *time.Time) (*models.RatePoint, error) {
	params := map[string][]string{
		"series_id": {seriesID},
		"api_key":   {f.apiKey},
		"file_type": {"json"},
	}
	if target == nil {
		params["sort_order"] = []string{"desc"}
		params["limit"] = []string{"30"}
	} else {
		params["observation_start"] = []string{util.Day(target.AddDate(0, 0, -historicalWindowDays))}
		params["observation_end"] = []string{util.Day(target.AddDate(0, 0, historicalWindowDays))}
	}

	var payload fredResponse
	err := f.client.SendAndParse(ctx, &xhttp.RequestOptions{
		URL:         f.baseURL + "/fred/series/observations",
		QueryParams: params,
	}, &payload)
	if err != nil {
		return nil, err
	}

	// FRED marks missing values with ".".
	valid := make([]fredObservation, 0, len(payload.Observations))
	for _, obs := range payload.Observations {
		if obs.Value == "." || obs.Value == "" {
			continue
		}
		valid = append(valid, obs)
	}
	if len(valid) == 0 {
		return nil, nil
	}

	if target != nil {
		return selectOnOrBefore(valid, util.Day(*target))
	}

	// Descending order: the head is the latest observation, and ~21 entries
	// back is the month-ago comparison point.
	rate, err := strconv.ParseFloat(valid[0].Value, 64)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", valid[0].Value, err)
	}
	point := &models.RatePoint{Rate: rate, Date: valid[0].Date}
	if len(valid) > change1MLookback {
		if prev, err := strconv.ParseFloat(valid[change1MLookback].Value, 64); err == nil {
			change := rate - prev
			point.PrevValue = &prev
			point.Change1M = &change
		}
	}
	return point, nil
}

// selectOnOrBefore picks the latest observation dated on or before the
// target, falling back to the earliest available. Observations arrive in
// ascending date order for windowed queries.
func selectOnOrBefore(obs []fredObservation, day string) (*models.RatePoint, error) {
	chosen := obs[0]
	for _, o := range obs {
		if o.Date <= day {
			chosen = o
		}
	}
	rate, err := strconv.ParseFloat(chosen.Value, 64)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", chosen.Value, err)
	}
	return &models.RatePoint{Rate: rate, Date: chosen.Date}, nil
}
