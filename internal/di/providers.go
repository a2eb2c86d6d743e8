package di

import (
	"context"
	"fmt"
	"time"

	"Watchtower/internal/alerting"
	"Watchtower/internal/domain/models"
	domrepo "Watchtower/internal/domain/repository"
	"Watchtower/internal/fusion"
	"Watchtower/internal/graph"
	"Watchtower/internal/handler/api"
	"Watchtower/internal/handler/ws"
	"Watchtower/internal/inference"
	mid "Watchtower/internal/middleware"
	internalrepo "Watchtower/internal/repository"
	"Watchtower/internal/usecase"
	pkgch "Watchtower/pkg/clickhouse"
	"Watchtower/pkg/config"
	pkgkafka "Watchtower/pkg/kafka"
	"Watchtower/pkg/kv"
	applogger "Watchtower/pkg/logger"
	"Watchtower/pkg/metrics"
	"Watchtower/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideGraph builds the built-in entity relationship graph.
func ProvideGraph() *graph.Graph {
	return graph.Default()
}

// ProvideKVStore selects Redis-backed or in-memory alert persistence.
func ProvideKVStore(cfg *config.Config) (kv.Store, error) {
	if !cfg.Redis.Enabled {
		return kv.NewMemoryStore(), nil
	}
	store, err := kv.NewRedisStore(
		kv.WithAddr(cfg.Redis.Addr),
		kv.WithAuth(cfg.Redis.Password, cfg.Redis.DB),
		kv.WithPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis store: %w", err)
	}
	return store, nil
}

// ProvideAlertManager creates the alert manager with persisted state.
// Config thresholds seed the default settings; operator-saved settings
// override them.
func ProvideAlertManager(store kv.Store, cfg *config.Config, l *applogger.Logger) *alerting.Manager {
	defaults := models.DefaultAlertSettings()
	defaults.TailRiskThreshold = cfg.Alerting.TailRiskThreshold
	defaults.RiskLevelThreshold = cfg.Alerting.RiskLevelThreshold
	return alerting.NewManager(store,
		alerting.WithLogger(l),
		alerting.WithDefaultSettings(defaults),
	)
}

// ProvideFusionEngine creates the signal fusion engine.
func ProvideFusionEngine() *fusion.Engine {
	return fusion.New()
}

// ProvideInferenceEngine creates the rule engine over the graph.
func ProvideInferenceEngine(g *graph.Graph) *inference.Engine {
	return inference.NewEngine(g)
}

// ProvideClickHouseClient creates a ClickHouse client with the cycle
// history schema applied, or nil when the history sink is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.Schema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideHistorySink creates the cycle history sink, nil without ClickHouse.
func ProvideHistorySink(client *pkgch.Client, cfg *config.Config) domrepo.HistorySink {
	if client == nil {
		return nil
	}
	db := cfg.ClickHouse.Database
	return internalrepo.NewClickHouseHistory(client.DB(), db+".cycle_entities", db+".cycle_findings")
}

// ProvideKafkaProducer creates a Kafka producer, nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithMaxAttempts(cfg.Kafka.RetryMax),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideAlertPublisher publishes admitted alerts, nil without Kafka.
func ProvideAlertPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.AlertPublisher {
	if producer == nil || cfg.Kafka.AlertsTopic == "" {
		return nil
	}
	return internalrepo.NewKafkaAlertPublisher(producer, cfg.Kafka.AlertsTopic)
}

// ProvideKafkaConsumer creates a Kafka consumer, nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.RetryMax, cfg.Kafka.BackoffMin, cfg.Kafka.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideSignalPipeline creates the intake buffer between ingestion and
// the evaluation cycle.
func ProvideSignalPipeline(m domrepo.Metrics, cfg *config.Config) *mid.SignalPipeline {
	return mid.NewSignalPipeline(m,
		mid.WithMaxPending(cfg.Engine.BufferSize),
	)
}

// ProvideSignalsHandler routes the Kafka signals topic into the pipeline.
func ProvideSignalsHandler(pipeline *mid.SignalPipeline, cfg *config.Config, l *applogger.Logger) *usecase.SignalsHandler {
	return usecase.NewSignalsHandler(cfg.Kafka.SignalsTopic, pipeline, l)
}

// ProvideEvaluator assembles the cycle evaluator.
func ProvideEvaluator(
	fuser *fusion.Engine,
	rules *inference.Engine,
	alerts *alerting.Manager,
	m domrepo.Metrics,
	history domrepo.HistorySink,
	publisher domrepo.AlertPublisher,
	l *applogger.Logger,
) *usecase.Evaluator {
	return usecase.NewEvaluator(fuser, rules, alerts, m, history, publisher, l)
}

// ProvideCycleRunner creates the periodic cycle driver.
func ProvideCycleRunner(evaluator *usecase.Evaluator, pipeline *mid.SignalPipeline, cfg *config.Config, l *applogger.Logger) *usecase.CycleRunner {
	return usecase.NewCycleRunner(evaluator, pipeline, cfg.Engine.CycleInterval, l)
}

// ProvideApp creates the application server with HTTP and WS handlers
// attached and the alert push hub subscribed.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	evaluator *usecase.Evaluator,
	runner *usecase.CycleRunner,
	consumer *pkgkafka.Consumer,
	sh *usecase.SignalsHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
) *server.App {
	core := api.NewCoreEchoHandler(l, evaluator, runner, cfg.Engine.EvaluateRPS)
	hub := ws.NewHub(l)
	evaluator.Alerts().Subscribe(hub.Broadcast)

	app := server.New(cfg, l, runner, consumer, producer, chClient)
	app.SetHTTPHandlers(core, hub)
	if consumer != nil {
		app.SetKafkaHandler(sh)
	}
	return app
}
