package provider

import (
	"context"
	"encoding/json"
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

// Valet series groups covering all Canadian maturities in two calls.
var bocBondGroup = map[string]models.Maturity{
	"BD.CDN.2YR.DQ.YLD":  models.Maturity2Y,
	"BD.CDN.3YR.DQ.YLD":  models.Maturity3Y,
	"BD.CDN.5YR.DQ.YLD":  models.Maturity5Y,
	"BD.CDN.7YR.DQ.YLD":  models.Maturity7Y,
	"BD.CDN.10YR.DQ.YLD": models.Maturity10Y,
	"BD.CDN.LONG.DQ.YLD": models.Maturity30Y,
}

var bocTbillGroup = map[string]models.Maturity{
	"V80691342": models.Maturity1M,
	"V80691344": models.Maturity3M,
	"V80691345": models.Maturity6M,
	"V80691346": models.Maturity1Y,
}

// Legacy per-series ids, one call per maturity. The only path that supports
// arbitrary historical dates, and the fallback when the grouped endpoint
// comes back thin.
var bocSeries = map[models.Maturity]string{
	models.Maturity1M:  "V39063",
	models.Maturity2M:  "V39064",
	models.Maturity3M:  "V39065",
	models.Maturity6M:  "V39066",
	models.Maturity1Y:  "V39067",
	models.Maturity2Y:  "V39051",
	models.Maturity3Y:  "V39052",
	models.Maturity5Y:  "V39053",
	models.Maturity7Y:  "V39054",
	models.Maturity10Y: "V39055",
	models.Maturity30Y: "V39056",
}

// valetObservation is one row of a Valet response: a "d" date plus one
// {"v": "..."} object per series.
type valetObservation map[string]json.RawMessage

type valetResponse struct {
	Observations []valetObservation `json:"observations"`
}

func (o valetObservation) day() string {
	var d string
	if raw, ok := o["d"]; ok {
		_ = json.Unmarshal(raw, &d)
	}
	return d
}

func (o valetObservation) value(seriesID string) (float64, bool) {
	raw, ok := o[seriesID]
	if !ok {
		return 0, false
	}
	var cell struct {
		V string `json:"v"`
	}
	if err := json.Unmarshal(raw, &cell); err != nil || cell.V == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cell.V, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// BoCOptions parameterise both Bank of Canada clients.
type BoCOptions struct {
	BaseURL      string
	Timeout      time.Duration
	RetryMax     int
	RetryBackoff time.Duration
}

func (o BoCOptions) withDefaults() BoCOptions {
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.BaseURL == "" {
		o.BaseURL = "https://www.bankofcanada.ca"
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.RetryMax <= 0 {
		o.RetryMax = 2
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 500 * time.Millisecond
	}
	return o
}

// BoCGrouped covers all Canadian maturities in two parallel group calls
// instead of ~10 per-series ones. Primary path for current Canada requests;
// the grouped endpoint does not target arbitrary historical dates.
type BoCGrouped struct {
	opts   BoCOptions
	client *xhttp.Client
	log    *logger.Logger
}

// NewBoCGrouped builds the grouped Valet client.
func NewBoCGrouped(opts BoCOptions, log *logger.Logger) *BoCGrouped {
	opts = opts.withDefaults()
	return &BoCGrouped{
		opts:   opts,
		client: xhttp.NewClient(xhttp.WithTimeout(opts.Timeout)),
		log:    log,
	}
}

func (b *BoCGrouped) Name() string { return "Bank of Canada" }

func (b *BoCGrouped) Fetch(ctx context.Context, target *time.Time) (*models.PartialCurve, error) {
	if target != nil {
		return nil, nil
	}

	groups := []struct {
		name   string
		series map[string]models.Maturity
	}{
		{"bond_yields_all", bocBondGroup},
		{"tbill_all", bocTbillGroup},
	}

	curve := models.NewPartialCurve()
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, group := range groups {
		wg.Add(1)
		go func(name string, series map[string]models.Maturity) {
			defer wg.Done()
			var payload valetResponse
			err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
				URL:         fmt.Sprintf("%s/valet/observations/group/%s/json", b.opts.BaseURL, name),
				QueryParams: map[string][]string{"recent": {"25"}},
			}, &payload)
			if err != nil {
				b.log.Warn("boc group fetch failed",
					logger.String("group", name), logger.Error(err))
				return
			}
			if len(payload.Observations) == 0 {
				return
			}

			// Observations are ascending by date: the tail row carries
			// current values, ~21 rows earlier the month-ago comparison.
			latest := payload.Observations[len(payload.Observations)-1]
			var monthAgo valetObservation
			if idx := len(payload.Observations) - 1 - change1MLookback; idx >= 0 {
				monthAgo = payload.Observations[idx]
			}

			mu.Lock()
			defer mu.Unlock()
			for seriesID, maturity := range series {
				rate, ok := latest.value(seriesID)
				if !ok {
					continue
				}
				point := models.RatePoint{Rate: rate, Date: latest.day()}
				if monthAgo != nil {
					if prev, ok := monthAgo.value(seriesID); ok {
						change := rate - prev
						point.PrevValue = &prev
						point.Change1M = &change
					}
				}
				curve.Points[maturity] = point
				if curve.Date == "" || latest.day() > curve.Date {
					curve.Date = latest.day()
				}
			}
		}(group.name, group.series)
	}
	wg.Wait()

	if curve.Empty() {
		return nil, nil
	}
	return curve, nil
}

// BoCSeries issues one Valet call per maturity, with bounded retry on 429
// and 5xx responses. Fallback for thin grouped results and the only Canada
// path for historical requests.
type BoCSeries struct {
	opts   BoCOptions
	client *xhttp.Client
	log    *logger.Logger
}

// NewBoCSeries builds the per-series Valet client.
func NewBoCSeries(opts BoCOptions, log *logger.Logger) *BoCSeries {
	opts = opts.withDefaults()
	return &BoCSeries{
		opts:   opts,
		client: xhttp.NewClient(xhttp.WithTimeout(opts.Timeout)),
		log:    log,
	}
}

func (b *BoCSeries) Name() string { return "Bank of Canada" }

func (b *BoCSeries) Fetch(ctx context.Context, target *time.Time) (*models.PartialCurve, error) {
	curve := models.NewPartialCurve()
	var mu sync.Mutex
	var wg sync.WaitGroup

	for maturity, seriesID := range bocSeries {
		wg.Add(1)
		go func(maturity models.Maturity, seriesID string) {
			defer wg.Done()
			point, err := b.fetchSeries(ctx, seriesID, target)
			if err != nil {
				b.log.Warn("boc series fetch failed",
					logger.String("series", seriesID), logger.Error(err))
				return
			}
			if point == nil {
				return
			}
			mu.Lock()
			curve.Points[maturity] = *point
			if curve.Date == "" || point.Date > curve.Date {
				curve.Date = point.Date
			}
			mu.Unlock()
		}(maturity, seriesID)
	}
	wg.Wait()

	if curve.Empty() {
		return nil, nil
	}
	return curve, nil
}

func (b *BoCSeries) fetchSeries(ctx context.Context, seriesID string, target *time.Time) (*models.RatePoint, error) {
	params := map[string][]string{}
	if target == nil {
		params["recent"] = []string{"25"}
	} else {
		params["start_date"] = []string{util.Day(target.AddDate(0, 0, -historicalWindowDays))}
		params["end_date"] = []string{util.Day(target.AddDate(0, 0, historicalWindowDays))}
	}

	payload, err := b.getWithRetry(ctx, &xhttp.RequestOptions{
		URL:         fmt.Sprintf("%s/valet/observations/%s/json", b.opts.BaseURL, seriesID),
		QueryParams: params,
	})
	if err != nil {
		return nil, err
	}

	// Keep only observations carrying a value for this series, in the
	// ascending order Valet returns them.
	type obs struct {
		day  string
		rate float64
	}
	valid := make([]obs, 0, len(payload.Observations))
	for _, o := range payload.Observations {
		if rate, ok := o.value(seriesID); ok {
			valid = append(valid, obs{day: o.day(), rate: rate})
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}

	if target != nil {
		// Latest on or before the target, else the earliest available.
		chosen := valid[0]
		day := util.Day(*target)
		for _, o := range valid {
			if o.day <= day {
				chosen = o
			}
		}
		return &models.RatePoint{Rate: chosen.rate, Date: chosen.day}, nil
	}

	latest := valid[len(valid)-1]
	point := &models.RatePoint{Rate: latest.rate, Date: latest.day}
	if idx := len(valid) - 1 - change1MLookback; idx >= 0 {
		prev := valid[idx].rate
		change := latest.rate - prev
		point.PrevValue = &prev
		point.Change1M = &change
	}
	return point, nil
}

// getWithRetry retries 429 and 5xx responses with exponential backoff.
// Other failures are terminal for this call; the provider chain handles
// recovery.
func (b *BoCSeries) getWithRetry(ctx context.Context, opts *xhttp.RequestOptions) (*valetResponse, error) {
	backoff := b.opts.RetryBackoff
	var lastErr error

	for attempt := 0; attempt <= b.opts.RetryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		resp, err := b.client.SendRequest(ctx, opts)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == 429 || resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("boc status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != 200 {
			resp.Body.Close()
			return nil, fmt.Errorf("boc status %d", resp.StatusCode)
		}

		var payload valetResponse
		err = json.NewDecoder(resp.Body).Decode(&payload)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		return &payload, nil
	}

	return nil, lastErr
}
