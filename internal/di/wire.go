//go:build wireinject
// +build wireinject

package di

import (
	"Watchtower/pkg/config"
	"Watchtower/pkg/server"

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
		ProvideKVStore,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideHistorySink,
		ProvideAlertPublisher,

		// Core engines
		ProvideGraph,
		ProvideFusionEngine,
		ProvideInferenceEngine,
		ProvideAlertManager,

		// Use cases
		ProvideSignalPipeline,
		ProvideSignalsHandler,
		ProvideEvaluator,
		ProvideCycleRunner,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
