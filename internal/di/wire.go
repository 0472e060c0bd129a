//go:build wireinject
// +build wireinject

package di

import (
	"EconPulse/pkg/config"
	"EconPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideEurostatClient,
		ProvideCache,

		// Repositories
		ProvideFactStore,
		ProvideResultStore,
		ProvideAlertPublisher,

		// Use cases
		ProvideIngestor,
		ProvideAnalysisRunner,
		ProvideIngestEventsHandler,

		// Delivery
		ProvideHTTPHandler,
		ProvideHub,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
