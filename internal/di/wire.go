//go:build wireinject
// +build wireinject

package di

import (
	"FinAdvisor/pkg/config"
	"FinAdvisor/pkg/server"

	"github.com/google/wire"
)

var infraSet = wire.NewSet(
	ProvideKafkaProducer,
	ProvideLogger,
	ProvideMetrics,
	ProvideCache,
	ProvideClickHouseClient,
	ProvideTables,
	ProvideCachedTables,
)

var pipelineSet = wire.NewSet(
	infraSet,
	ProvideRateBook,
	ProvideLanguageModel,
	ProvideToolRegistry,
	ProvideToolExecutor,
	ProvideClassifier,
	ProvideSelector,
	ProvideSynthesizer,
	ProvideSnapshotLoader,
	ProvideInstantResponder,
	ProvideEventPublisher,
	ProvideQueryRouter,
)

// InitializeApp wires up all dependencies and returns the application.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		pipelineSet,
		ProvideRateConsumer,
		ProvideChatHandler,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializePipeline wires the query path for one-shot CLI use.
func InitializePipeline(cfg *config.Config) (*Pipeline, func(), error) {
	wire.Build(
		pipelineSet,
		wire.Struct(new(Pipeline), "*"),
	)
	return nil, nil, nil
}
