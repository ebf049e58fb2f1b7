package di

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"CurveFeed/internal/domain/repository"
	"CurveFeed/internal/handler/api"
	"CurveFeed/internal/provider"
	internalrepo "CurveFeed/internal/repository"
	"CurveFeed/internal/service/ratelimit"
	"CurveFeed/internal/usecase"
	"CurveFeed/pkg/cache"
	"CurveFeed/pkg/config"
	xhttp "CurveFeed/pkg/http"
	pkgkafka "CurveFeed/pkg/kafka"
	"CurveFeed/pkg/logger"
	"CurveFeed/pkg/metrics"
	"CurveFeed/pkg/postgres"
	"CurveFeed/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvidePool creates the PostgreSQL pool, or nil when no database is
// configured.
func ProvidePool(cfg *config.Config) (*pgxpool.Pool, error) {
	if cfg.Database.URL == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		URL:             cfg.Database.URL,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	return pool, nil
}

// ProvideSnapshotStore creates the persistent snapshot cache.
func ProvideSnapshotStore(pool *pgxpool.Pool) repository.SnapshotStore {
	if pool == nil {
		return internalrepo.NoopSnapshotStore{}
	}
	return internalrepo.NewPostgresSnapshotStore(pool)
}

// ProvideHotCache creates the in-process hot cache, layered over Redis when
// one is configured.
func ProvideHotCache(cfg *config.Config, log *logger.Logger) cache.Service {
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Redis.Host),
			cache.WithRedisPort(cfg.Redis.Port),
			cache.WithRedisPassword(cfg.Redis.Password),
			cache.WithRedisDB(cfg.Redis.DB),
			cache.WithRedisPrefix(cfg.Redis.Prefix),
		)
		if err != nil {
			log.Warn("redis unavailable, using memory cache only", logger.Error(err))
		} else {
			return cache.NewLayeredCache(redisCache)
		}
	}
	return cache.NewMemoryCache()
}

// ProvideRefreshPublisher creates the Kafka refresh publisher, or a noop
// when no brokers are configured.
func ProvideRefreshPublisher(cfg *config.Config, log *logger.Logger) (repository.RefreshPublisher, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return internalrepo.NoopRefreshPublisher{}, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaRefreshPublisher(producer, cfg.Kafka.Topic, log), nil
}

// ProvideSourceChains builds the ordered provider fallback chains.
func ProvideSourceChains(cfg *config.Config, log *logger.Logger) usecase.SourceChains {
	treasury := provider.NewTreasuryGov(provider.TreasuryGovOptions{
		BaseURL: cfg.Providers.Treasury.BaseURL,
		Timeout: cfg.Providers.Treasury.Timeout,
	}, log)
	fred := provider.NewFRED(provider.FREDOptions{
		APIKey:  cfg.Providers.FRED.APIKey,
		BaseURL: cfg.Providers.FRED.BaseURL,
		Timeout: cfg.Providers.FRED.Timeout,
	}, log)
	fmp := provider.NewFMP(provider.FMPOptions{
		APIKey:  cfg.Providers.FMP.APIKey,
		BaseURL: cfg.Providers.FMP.BaseURL,
		Timeout: cfg.Providers.FMP.Timeout,
	}, log)

	bocOpts := provider.BoCOptions{
		BaseURL:      cfg.Providers.BoC.BaseURL,
		Timeout:      cfg.Providers.BoC.Timeout,
		RetryMax:     cfg.Providers.BoC.RetryMax,
		RetryBackoff: cfg.Providers.BoC.RetryBackoff,
	}
	bocGrouped := provider.NewBoCGrouped(bocOpts, log)
	bocSeries := provider.NewBoCSeries(bocOpts, log)
	static := provider.NewStaticCanada()

	return usecase.SourceChains{
		USCurrent:        []repository.RateSource{treasury, fmp, fred},
		USHistorical:     []repository.RateSource{fred},
		CanadaCurrent:    []repository.RateSource{bocGrouped, bocSeries, static},
		CanadaHistorical: []repository.RateSource{bocSeries, static},
	}
}

// ProvideAggregator creates the chain-walking aggregator.
func ProvideAggregator(chains usecase.SourceChains, m repository.Metrics, log *logger.Logger) *usecase.CurveAggregator {
	return usecase.NewCurveAggregator(chains, m, log)
}

// ProvideCurveService creates the main curve query service.
func ProvideCurveService(
	agg *usecase.CurveAggregator,
	store repository.SnapshotStore,
	hot cache.Service,
	publisher repository.RefreshPublisher,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.CurveService {
	return usecase.NewCurveService(agg, store, hot, publisher, m, log)
}

// ProvideRateLimiter creates the per-client request limiter.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(
	svc *usecase.CurveService,
	limiter *ratelimit.Limiter,
	m repository.Metrics,
	log *logger.Logger,
) xhttp.Handler {
	return api.NewYieldCurveHandler(svc, limiter, m, log)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	handler xhttp.Handler,
	pool *pgxpool.Pool,
	hot cache.Service,
	publisher repository.RefreshPublisher,
) *server.App {
	return server.New(cfg, log, handler, pool, hot, publisher)
}
