package usecase

import (
	"context"
	"time"

	"CurveFeed/internal/domain/models"
	"CurveFeed/internal/domain/repository"
	"CurveFeed/pkg/logger"
	"CurveFeed/pkg/util"
)

// adequateMaturities is the point count below which the next chain member is
// still consulted. At or above it the curve is considered usable as is.
const adequateMaturities = 5

// SourceChains holds the ordered provider fallback chains, one per country
// and request kind. Each chain is walked in order; later members only fill
// maturities the earlier ones missed.
type SourceChains struct {
	USCurrent        []repository.RateSource
	USHistorical     []repository.RateSource
	CanadaCurrent    []repository.RateSource
	CanadaHistorical []repository.RateSource
}

// CurveAggregator folds provider contributions into one snapshot per
// country. It is the only place that decides which provider runs and how
// partial results combine.
type CurveAggregator struct {
	chains  SourceChains
	metrics repository.Metrics
	log     *logger.Logger
}

func NewCurveAggregator(chains SourceChains, metrics repository.Metrics, log *logger.Logger) *CurveAggregator {
	if metrics == nil {
		metrics = repository.NopMetrics{}
	}
	return &CurveAggregator{chains: chains, metrics: metrics, log: log}
}

func (a *CurveAggregator) chainFor(country models.Country, target *time.Time) []repository.RateSource {
	historical := target != nil
	if country == models.CountryCanada {
		if historical {
			return a.chains.CanadaHistorical
		}
		return a.chains.CanadaCurrent
	}
	if historical {
		return a.chains.USHistorical
	}
	return a.chains.USCurrent
}

// Build walks the country's chain for the target date (nil means latest) and
// returns the merged snapshot. The snapshot always exists; its rate list may
// be empty when every source came up dry.
func (a *CurveAggregator) Build(ctx context.Context, country models.Country, target *time.Time) *models.YieldCurveSnapshot {
	chain := a.chainFor(country, target)

	merged := make(map[models.Maturity]models.RatePoint)
	source := ""
	date := ""
	if len(chain) > 0 {
		source = chain[0].Name()
	}

	for _, src := range chain {
		if len(merged) >= adequateMaturities {
			break
		}

		start := time.Now()
		curve, err := src.Fetch(ctx, target)
		a.metrics.RecordFetchLatency(src.Name(), time.Since(start).Seconds())

		if err != nil {
			a.metrics.RecordProviderFetch(src.Name(), "error")
			a.log.Warn("source fetch failed",
				logger.String("source", src.Name()),
				logger.String("country", string(country)),
				logger.Error(err))
			continue
		}
		if curve.Empty() {
			a.metrics.RecordProviderFetch(src.Name(), "empty")
			continue
		}
		a.metrics.RecordProviderFetch(src.Name(), "ok")

		// Later sources fill gaps only. A maturity already merged is never
		// replaced, so higher-priority data wins even when a fallback
		// disagrees.
		for maturity, point := range curve.Points {
			if _, exists := merged[maturity]; !exists {
				merged[maturity] = point
			}
		}
		source = src.Name()
		if date == "" {
			date = curve.Date
		}
	}

	if date == "" {
		date = util.Today()
	}
	return models.BuildSnapshot(country, merged, source, date)
}
