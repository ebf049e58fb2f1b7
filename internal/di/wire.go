//go:build wireinject
// +build wireinject

package di

import (
	"CurveFeed/pkg/config"
	"CurveFeed/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvidePool,
		ProvideHotCache,
		ProvideRefreshPublisher,

		// Repositories
		ProvideSnapshotStore,

		// Providers and use cases
		ProvideSourceChains,
		ProvideAggregator,
		ProvideCurveService,

		// HTTP surface
		ProvideRateLimiter,
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
