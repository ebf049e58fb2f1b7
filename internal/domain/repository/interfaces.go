package repository

import (
	"context"
	"time"

	"CurveFeed/internal/domain/models"
)

// RateSource is one upstream yield data provider. Fetch returns the
// maturities the provider could supply for the target date (nil target means
// "latest"). Implementations recover from network and parse failures
// internally: they log and return an error, they never panic, and the
// orchestrator treats any error as "no contribution".
type RateSource interface {
	Name() string
	Fetch(ctx context.Context, target *time.Time) (*models.PartialCurve, error)
}

// SnapshotStore is the persistent cache of curve snapshots, one row per
// (country, data_date).
type SnapshotStore interface {
	// Upsert writes or replaces the row for the snapshot's (country, date).
	Upsert(ctx context.Context, country models.Country, snap *models.YieldCurveSnapshot) error
	// Latest returns the most recent row for the country, or nil.
	Latest(ctx context.Context, country models.Country) (*models.YieldCurveSnapshot, error)
	// ClosestBefore returns the newest row with data_date <= day, or nil.
	// A historical query for a non-trading day resolves to the prior
	// trading day's data.
	ClosestBefore(ctx context.Context, country models.Country, day string) (*models.YieldCurveSnapshot, error)
	// Range returns rows with data_date >= since, ascending by date.
	Range(ctx context.Context, country models.Country, since string) ([]models.HistoryEntry, error)
	// Ping reports store reachability.
	Ping(ctx context.Context) error
}

// RefreshPublisher emits an event whenever a live refresh lands in the
// persistent cache. Best effort: failures are logged, never surfaced.
type RefreshPublisher interface {
	PublishRefresh(ctx context.Context, country models.Country, snap *models.YieldCurveSnapshot) error
	Close() error
}

// Metrics abstracts operational counters so usecases don't depend on the
// Prometheus client directly.
type Metrics interface {
	RecordProviderFetch(provider, outcome string)
	RecordFetchLatency(provider string, seconds float64)
	RecordCacheLookup(layer, result string)
	RecordRateLimited()
}

// NopMetrics discards all recordings. Used in tests and as a safe default.
type NopMetrics struct{}

func (NopMetrics) RecordProviderFetch(string, string) {}
func (NopMetrics) RecordFetchLatency(string, float64) {}
func (NopMetrics) RecordCacheLookup(string, string)   {}
func (NopMetrics) RecordRateLimited()                 {}
