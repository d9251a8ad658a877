package di

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	domrepo "FinAdvisor/internal/domain/repository"
	"FinAdvisor/internal/domain/service"
	"FinAdvisor/internal/handler/api"
	internalrepo "FinAdvisor/internal/repository"
	"FinAdvisor/internal/service/llm"
	"FinAdvisor/internal/service/news"
	"FinAdvisor/internal/service/quotes"
	"FinAdvisor/internal/service/scrape"
	"FinAdvisor/internal/service/search"
	"FinAdvisor/internal/services/classifier"
	"FinAdvisor/internal/services/currency"
	"FinAdvisor/internal/services/marketdata"
	"FinAdvisor/internal/services/synthesis"
	"FinAdvisor/internal/services/tools"
	"FinAdvisor/internal/usecase"
	"FinAdvisor/pkg/cache"
	pkgch "FinAdvisor/pkg/clickhouse"
	"FinAdvisor/pkg/config"
	pkgkafka "FinAdvisor/pkg/kafka"
	applogger "FinAdvisor/pkg/logger"
	"FinAdvisor/pkg/metrics"
	"FinAdvisor/pkg/server"
)

// ProvideLogger creates the application logger. With Kafka enabled and log
// collection on, error logs are also aggregated and shipped to the logs topic.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, func(), error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Log.Collect && producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval: 30 * time.Second,
			Topic:        cfg.Kafka.LogsTopic,
			Publisher:    producer,
		})
	}
	return l, l.RemoveCollector, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config) domrepo.Metrics {
	if !cfg.Metrics.Enabled {
		return domrepo.NopMetrics{}
	}
	return metrics.New()
}

// ProvideCache creates the cache backend. A disabled cache is nil, which
// every consumer treats as "always load".
func ProvideCache(cfg *config.Config) (cache.Service, func(), error) {
	if !cfg.Cache.Enabled {
		return nil, func() {}, nil
	}
	if cfg.Cache.Backend == "memory" {
		mc := cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.MemorySize),
			cache.WithMemoryCleanup(time.Minute),
		)
		return mc, func() { _ = mc.Close() }, nil
	}

	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Cache.Redis.Host),
		cache.WithRedisPort(cfg.Cache.Redis.Port),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		cache.WithRedisPool(10, 2, 4*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	if cfg.Cache.Backend == "redis" {
		return rc, func() { _ = rc.Close() }, nil
	}

	lc := cache.NewLayeredCache(rc,
		cache.WithLayeredMemorySize(cfg.Cache.MemorySize),
		cache.WithLayeredMemoryTTL(time.Minute),
	)
	return lc, func() { _ = lc.Close() }, nil
}

// ProvideClickHouseClient creates a read-only ClickHouse client for market
// tables. Nil when persistence is REST only.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if cfg.Persistence.Backend == "rest" {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithReadOnly(true),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideKafkaProducer creates a Kafka producer. Nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideTables creates the uncached persistence reader for the configured backend.
func ProvideTables(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (domrepo.TableReader, error) {
	var rest *internalrepo.PostgRESTTables
	if cfg.Persistence.Backend != "clickhouse" {
		rest = internalrepo.NewPostgRESTTables(cfg.Persistence.SupabaseURL, cfg.Persistence.SupabaseKey, cfg.Persistence.Timeout, cfg.Persistence.Retries)
		rest.SetLogger(l)
	}
	var chTables *internalrepo.ClickHouseTables
	if ch != nil {
		chTables = internalrepo.NewClickHouseTables(ch)
		chTables.SetLogger(l)
	}

	switch cfg.Persistence.Backend {
	case "rest":
		return rest, nil
	case "clickhouse":
		if chTables == nil {
			return nil, fmt.Errorf("clickhouse backend selected without a client")
		}
		return chTables, nil
	case "routed":
		if chTables == nil {
			return nil, fmt.Errorf("routed backend selected without a clickhouse client")
		}
		return internalrepo.NewRoutedTables(rest, chTables), nil
	}
	return nil, fmt.Errorf("unknown persistence backend %q", cfg.Persistence.Backend)
}

// ProvideCachedTables wraps tables so market reads are shared through the cache.
func ProvideCachedTables(tables domrepo.TableReader, c cache.Service, cfg *config.Config) *internalrepo.CachedTables {
	return internalrepo.NewCachedTables(tables, c, cfg.Cache.MarketTTL)
}

func ProvideRateBook(tables *internalrepo.CachedTables, c cache.Service, cfg *config.Config, l *applogger.Logger) *currency.RateBook {
	return currency.NewRateBook(tables,
		currency.WithRateCache(c),
		currency.WithRateTTL(cfg.Cache.RatesTTL),
		currency.WithDefaultCurrency(cfg.Pipeline.DefaultCurrency),
		currency.WithRateLogger(l),
	)
}

func ProvideLanguageModel(cfg *config.Config) (service.LanguageModel, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	model, err := llm.New(ctx, llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
		Timeout:  cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("language model: %w", err)
	}
	return model, nil
}

// ProvideToolRegistry registers every tool with its live collaborators.
func ProvideToolRegistry(cfg *config.Config, c cache.Service, l *applogger.Logger) *tools.Registry {
	searcher := search.NewGoogleSearcher(cfg.Search.BaseURL, cfg.Search.APIKey, cfg.Search.EngineID,
		search.WithTimeout(cfg.Search.Timeout),
		search.WithCache(c, 30*time.Minute),
	)
	scraper := scrape.New(cfg.Scrape.BaseURL, cfg.Scrape.APIKey,
		scrape.WithTimeout(cfg.Scrape.Timeout),
		scrape.WithDirectFallback(cfg.Scrape.DirectFallback),
		scrape.WithMaxChars(cfg.Scrape.MaxChars),
		scrape.WithLogger(l),
	)
	fetcher := news.NewGoogleNews(cfg.News.BaseURL,
		news.WithLocale(cfg.News.Language, cfg.News.Country),
		news.WithMaxItems(cfg.News.MaxItems),
		news.WithTimeout(cfg.News.Timeout),
		news.WithCache(c, 30*time.Minute),
	)
	return tools.NewRegistry(
		tools.NewNewsTool(fetcher),
		tools.NewWebSearchTool(searcher, scraper),
		tools.NewPortfolioTool(),
		tools.NewGoalPlanningTool(),
		tools.NewRiskTool(),
	)
}

func ProvideToolExecutor(registry *tools.Registry, cfg *config.Config, m domrepo.Metrics, l *applogger.Logger) *tools.Executor {
	return tools.NewExecutor(registry,
		tools.WithConcurrency(cfg.Pipeline.ToolConcurrency),
		tools.WithToolTimeout(cfg.Pipeline.ToolTimeout),
		tools.WithExecutorMetrics(m),
		tools.WithExecutorLogger(l),
	)
}

func ProvideClassifier(model service.LanguageModel, registry *tools.Registry, cfg *config.Config, m domrepo.Metrics, l *applogger.Logger) *classifier.Classifier {
	name := cfg.LLM.ClassifierModel
	if name == "" {
		name = cfg.LLM.Model
	}
	return classifier.New(model,
		classifier.WithModelName(name),
		classifier.WithToolFilter(registry),
		classifier.WithMetrics(m),
		classifier.WithLogger(l),
	)
}

// ProvideSelector reads market tables directly; it keeps its own per-category cache.
func ProvideSelector(tables domrepo.TableReader, c cache.Service, cfg *config.Config, m domrepo.Metrics, l *applogger.Logger) *marketdata.Selector {
	opts := []marketdata.Option{
		marketdata.WithCache(c, cfg.Cache.MarketTTL),
		marketdata.WithRowLimit(cfg.Pipeline.MarketRowLimit),
		marketdata.WithSummaryLimit(cfg.Pipeline.SummaryMaxRunes),
		marketdata.WithMetrics(m),
		marketdata.WithLogger(l),
	}
	if cfg.Quotes.Enabled {
		yahoo := quotes.NewYahoo(quotes.WithLogger(l))
		opts = append(opts, marketdata.WithQuotes(yahoo, cfg.Quotes.IndexSymbols, cfg.Quotes.USSymbols))
	}
	return marketdata.NewSelector(tables, opts...)
}

func ProvideSynthesizer(model service.LanguageModel, cfg *config.Config, m domrepo.Metrics, l *applogger.Logger) *synthesis.Synthesizer {
	return synthesis.New(model,
		synthesis.WithModelName(cfg.LLM.Model),
		synthesis.WithTemperature(cfg.LLM.Temperature),
		synthesis.WithMetrics(m),
		synthesis.WithLogger(l),
	)
}

func ProvideSnapshotLoader(tables domrepo.TableReader, l *applogger.Logger) *usecase.SnapshotLoader {
	return usecase.NewSnapshotLoader(tables, l)
}

func ProvideInstantResponder(tables *internalrepo.CachedTables) *usecase.InstantResponder {
	return usecase.NewInstantResponder(tables)
}

// ProvideEventPublisher publishes query events to Kafka, or drops them when Kafka is disabled.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.EventPublisher {
	if producer == nil {
		return internalrepo.NopEventPublisher{}
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.EventsTopic)
}

func ProvideQueryRouter(
	cls *classifier.Classifier,
	snapshots *usecase.SnapshotLoader,
	rates *currency.RateBook,
	selector *marketdata.Selector,
	executor *tools.Executor,
	synth *synthesis.Synthesizer,
	instant *usecase.InstantResponder,
	events domrepo.EventPublisher,
	m domrepo.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.QueryRouter {
	return usecase.NewQueryRouter(cls, snapshots, rates, selector, executor, synth, instant,
		usecase.WithEventPublisher(events),
		usecase.WithRouterMetrics(m),
		usecase.WithRouterLogger(l),
		usecase.WithLengthThreshold(cfg.Pipeline.DetailedLengthThreshold),
	)
}

// ProvideRateConsumer subscribes to currency rate updates. Nil when Kafka is disabled.
func ProvideRateConsumer(
	cfg *config.Config,
	book *currency.RateBook,
	tables *internalrepo.CachedTables,
	m domrepo.Metrics,
	l *applogger.Logger,
) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.HookFuncs{
		Err: func(_ context.Context, km kafka.Message, err error) {
			m.RecordError("rate_update")
			l.Warn("rate update failed",
				applogger.String("topic", km.Topic),
				applogger.Int64("offset", km.Offset),
				applogger.Error(err),
			)
		},
	})
	consumer.RegisterHandler(usecase.NewRateUpdateHandler(cfg.Kafka.RatesTopic, book, tables, m))
	return consumer, nil
}

func ProvideChatHandler(
	router *usecase.QueryRouter,
	book *currency.RateBook,
	ch *pkgch.Client,
	m domrepo.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *api.ChatEchoHandler {
	h := api.NewChatEchoHandler(l, router, book, m, api.Limits{
		Enabled:      cfg.RateLimit.Enabled,
		Capacity:     cfg.RateLimit.Capacity,
		RefillPerSec: cfg.RateLimit.RefillPerSec,
	}, cfg.Pipeline.RequestTimeout)
	if ch != nil {
		h.AddHealthCheck("clickhouse", ch.Health)
	}
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler *api.ChatEchoHandler,
	consumer *pkgkafka.Consumer,
) *server.App {
	return server.New(cfg, l, handler, consumer)
}

// Pipeline is the query path without the HTTP server, used by the CLI.
type Pipeline struct {
	Router *usecase.QueryRouter
	Rates  *currency.RateBook
	Log    *applogger.Logger
}
