package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"CurveFeed/internal/domain/models"
	"CurveFeed/internal/domain/repository"
	"CurveFeed/pkg/cache"
	"CurveFeed/pkg/logger"
	"CurveFeed/pkg/util"
)

const (
	hotTTLCurrent    = 5 * time.Minute
	hotTTLHistorical = 24 * time.Hour
)

// CurveService answers curve and history queries. Lookup order is hot cache,
// then the persistent store, then a live provider walk; live results are
// written back through both layers and announced on the refresh topic.
type CurveService struct {
	agg       *CurveAggregator
	store     repository.SnapshotStore
	hot       cache.Service
	publisher repository.RefreshPublisher
	metrics   repository.Metrics
	log       *logger.Logger

	now func() time.Time
}

func NewCurveService(
	agg *CurveAggregator,
	store repository.SnapshotStore,
	hot cache.Service,
	publisher repository.RefreshPublisher,
	metrics repository.Metrics,
	log *logger.Logger,
) *CurveService {
	if metrics == nil {
		metrics = repository.NopMetrics{}
	}
	return &CurveService{
		agg:       agg,
		store:     store,
		hot:       hot,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
	}
}

func hotKey(country models.Country, target *time.Time) string {
	day := "latest"
	if target != nil {
		day = util.Day(*target)
	}
	return fmt.Sprintf("curve:%s:%s", strings.ToLower(string(country)), day)
}

// usable reports whether a cached snapshot can be served as is. Historical
// targets never go stale; a latest snapshot is only good for the current
// server-local calendar day.
func (s *CurveService) usable(snap *models.YieldCurveSnapshot, target *time.Time) bool {
	if snap == nil {
		return false
	}
	if target != nil {
		return true
	}
	return snap.Date == util.Day(s.now())
}

// Curve returns the country's snapshot for the target date, nil target
// meaning latest. It never returns a nil snapshot without an error.
func (s *CurveService) Curve(ctx context.Context, country models.Country, target *time.Time) (*models.YieldCurveSnapshot, error) {
	key := hotKey(country, target)
	ttl := hotTTLCurrent
	if target != nil {
		ttl = hotTTLHistorical
	}

	if s.hot != nil {
		var snap models.YieldCurveSnapshot
		err := s.hot.Get(ctx, key, &snap)
		switch {
		case err == nil && s.usable(&snap, target):
			s.metrics.RecordCacheLookup("hot", "hit")
			return &snap, nil
		case err == nil:
			s.metrics.RecordCacheLookup("hot", "stale")
		case !errors.Is(err, cache.ErrCacheMiss):
			s.log.Warn("hot cache read failed", logger.String("key", key), logger.Error(err))
		default:
			s.metrics.RecordCacheLookup("hot", "miss")
		}
	}

	stored, err := s.lookupStore(ctx, country, target)
	if err != nil {
		s.log.Warn("store lookup failed",
			logger.String("country", string(country)), logger.Error(err))
	}
	if s.usable(stored, target) {
		s.metrics.RecordCacheLookup("store", "hit")
		s.writeHot(ctx, key, stored, ttl)
		return stored, nil
	}
	s.metrics.RecordCacheLookup("store", "miss")

	snap := s.agg.Build(ctx, country, target)
	if snap.Count > 0 {
		if err := s.store.Upsert(ctx, country, snap); err != nil {
			s.log.Warn("snapshot persist failed",
				logger.String("country", string(country)), logger.Error(err))
		}
		s.writeHot(ctx, key, snap, ttl)
		if target == nil && s.publisher != nil {
			_ = s.publisher.PublishRefresh(ctx, country, snap)
		}
	}
	return snap, nil
}

func (s *CurveService) lookupStore(ctx context.Context, country models.Country, target *time.Time) (*models.YieldCurveSnapshot, error) {
	if target != nil {
		return s.store.ClosestBefore(ctx, country, util.Day(*target))
	}
	return s.store.Latest(ctx, country)
}

func (s *CurveService) writeHot(ctx context.Context, key string, snap *models.YieldCurveSnapshot, ttl time.Duration) {
	if s.hot == nil {
		return
	}
	if err := s.hot.Set(ctx, key, snap, ttl); err != nil {
		s.log.Warn("hot cache write failed", logger.String("key", key), logger.Error(err))
	}
}

// History returns the stored rows for the charting period, oldest first.
func (s *CurveService) History(ctx context.Context, country models.Country, period string) ([]models.HistoryEntry, error) {
	since := util.Day(util.PeriodStart(period, s.now()))
	entries, err := s.store.Range(ctx, country, since)
	if err != nil {
		return nil, fmt.Errorf("history range %s since %s: %w", country, since, err)
	}
	return entries, nil
}

// Ping reports persistent store reachability for health checks.
func (s *CurveService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
