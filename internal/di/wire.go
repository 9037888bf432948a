//go:build wireinject
// +build wireinject

package di

import (
	"FinResearch/pkg/config"
	"FinResearch/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisCache,
		ProvideCache,
		ProvideRateLimiter,
		ProvideKafkaProducer,
		ProvideClickHouseClient,

		// Collaborators
		ProvidePriceProvider,
		ProvideNewsProvider,
		ProvideSentimentProvider,

		// Use cases
		ProvideCoordinator,
		ProvideAssembler,
		ProvideReportSink,
		ProvideResearchUseCase,

		// Intake
		ProvideResearchQueue,
		ProvideKafkaConsumer,
		ProvideResearchHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
