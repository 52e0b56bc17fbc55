//go:build wireinject
// +build wireinject

package di

import (
	"MarketWire/pkg/config"
	"MarketWire/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideCacheService,
		ProvideHTTPClient,
		ProvideRateLimiter,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideBarStore,
		ProvideEventSink,
		ProvideQuoteSource,

		// Domain services
		ProvideDetector,
		ProvideAdCatalog,
		ProvideRecommender,
		ProvideNotifiers,
		ProvideNotifyQueue,
		ProvideWSHub,

		// Use cases
		ProvideNewsroom,
		ProvideEventProcessor,
		ProvideEventPipeline,
		ProvideMarketScanner,
		ProvideKafkaEventsHandler,

		// Transport
		ProvideNewsHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
