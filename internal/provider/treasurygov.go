package provider

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"CurveFeed/internal/domain/models"
	xhttp "CurveFeed/pkg/http"
	"CurveFeed/pkg/logger"
	"CurveFeed/pkg/util"
)

// TreasuryGov reads the daily par yield curve CSV published by the US
// Treasury. No API key required, which is why it sits first in the US chain.
type TreasuryGov struct {
	baseURL string
	client  *xhttp.Client
	log     *logger.Logger
}

// TreasuryGovOptions parameterise the client.
type TreasuryGovOptions struct {
	BaseURL string
	Timeout time.Duration
}

// NewTreasuryGov builds a Treasury.gov CSV client.
func NewTreasuryGov(opts TreasuryGovOptions, log *logger.Logger) *TreasuryGov {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://home.treasury.gov"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &TreasuryGov{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		log:     log,
	}
}

func (t *TreasuryGov) Name() string { return "Treasury.gov" }

// Fetch downloads the current year's daily rates and returns the most recent
// row that carries a valid 10Y value. Historical targeting is not supported
// here; the US historical chain goes through FRED instead.
func (t *TreasuryGov) Fetch(ctx context.Context, target *time.Time) (*models.PartialCurve, error) {
	if target != nil {
		return nil, nil
	}

	year := time.Now().Year()
	url := fmt.Sprintf(
		"%s/resource-center/data-chart-center/interest-rates/daily-treasury-rates.csv/%d/all",
		t.baseURL, year,
	)

	resp, err := t.client.SendRequest(ctx, &xhttp.RequestOptions{
		URL: url,
		QueryParams: map[string][]string{
			"type":                 {"daily_treasury_yield_curve"},
			"field_tdr_date_value": {strconv.Itoa(year)},
			"_format":              {"csv"},
		},
	})
	if err != nil {
		t.log.Warn("treasury.gov fetch failed", logger.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		err := fmt.Errorf("treasury.gov status %d", resp.StatusCode)
		t.log.Warn("treasury.gov fetch failed", logger.Error(err))
		return nil, err
	}

	curve, err := parseTreasuryCSV(resp.Body)
	if err != nil {
		t.log.Warn("treasury.gov parse failed", logger.Error(err))
		return nil, err
	}
	return curve, nil
}

// parseTreasuryCSV maps the header row ("1 Mo", "2 Mo", ... "30 Yr") to
// maturity codes and scans from the most recent row down for the first row
// with a valid 10Y value.
func parseTreasuryCSV(r io.Reader) (*models.PartialCurve, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("csv has no data rows")
	}

	header := records[0]
	cols := make(map[int]models.Maturity)
	dateCol := -1
	tenYearCol := -1
	for i, name := range header {
		name = strings.TrimSpace(name)
		if strings.EqualFold(name, "Date") {
			dateCol = i
			continue
		}
		maturity, ok := headerMaturity(name)
		if !ok || !maturity.Known() {
			continue
		}
		cols[i] = maturity
		if maturity == models.Maturity10Y {
			tenYearCol = i
		}
	}
	if dateCol < 0 || tenYearCol < 0 {
		return nil, fmt.Errorf("csv missing Date or 10 Yr column")
	}

	// Rows are newest first. Take the first one with a parsable 10Y.
	for _, row := range records[1:] {
		if tenYearCol >= len(row) {
			continue
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(row[tenYearCol]), 64); err != nil {
			continue
		}

		day, err := time.Parse("01/02/2006", strings.TrimSpace(row[dateCol]))
		if err != nil {
			continue
		}

		curve := models.NewPartialCurve()
		curve.Date = util.Day(day)
		for idx, maturity := range cols {
			if idx >= len(row) {
				continue
			}
			rate, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
			if err != nil {
				continue
			}
			curve.Points[maturity] = models.RatePoint{Rate: rate, Date: curve.Date}
		}
		return curve, nil
	}

	return nil, fmt.Errorf("no row with a valid 10Y value")
}

// headerMaturity converts "1 Mo" / "10 Yr" style column names. Columns the
// curve does not track (e.g. "1.5 Month") are skipped.
func headerMaturity(name string) (models.Maturity, bool) {
	parts := strings.Fields(name)
	if len(parts) != 2 {
		return "", false
	}
	value, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", false
	}
	switch parts[1] {
	case "Mo":
		return models.Maturity(fmt.Sprintf("%dM", value)), true
	case "Yr":
		return models.Maturity(fmt.Sprintf("%dY", value)), true
	}
	return "", false
}
