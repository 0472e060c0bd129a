package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"EconPulse/internal/domain/repository"
	"EconPulse/internal/handler/api"
	internalrepo "EconPulse/internal/repository"
	"EconPulse/internal/service/eurostat"
	"EconPulse/internal/services/analytics"
	"EconPulse/internal/usecase"
	"EconPulse/internal/ws"
	"EconPulse/pkg/cache"
	pkgch "EconPulse/pkg/clickhouse"
	"EconPulse/pkg/config"
	xhttp "EconPulse/pkg/http"
	pkgkafka "EconPulse/pkg/kafka"
	applogger "EconPulse/pkg/logger"
	"EconPulse/pkg/metrics"
	"EconPulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client and prepares the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	rawDDL := " (dataset_code String, value Nullable(Float64), extracted_at DateTime, dim_codes Map(String, String), dim_labels Map(String, String)) ENGINE=MergeTree ORDER BY (dataset_code, extracted_at)"
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		"CREATE TABLE IF NOT EXISTS " + db + ".fct_economic_indicators (country_code String, reference_date Date, reference_year UInt16, reference_month UInt8, indicator_key String, unemployment_rate_pct Nullable(Float64), inflation_rate_mom_pct Nullable(Float64)) ENGINE=ReplacingMergeTree ORDER BY (country_code, reference_date)",
		"CREATE TABLE IF NOT EXISTS " + db + ".raw_unemployment" + rawDDL,
		"CREATE TABLE IF NOT EXISTS " + db + ".raw_inflation" + rawDDL,
		"CREATE TABLE IF NOT EXISTS " + db + ".raw_gdp" + rawDDL,
		"CREATE TABLE IF NOT EXISTS " + db + ".raw_population" + rawDDL,
		"CREATE TABLE IF NOT EXISTS " + db + ".anomaly_flags (indicator_key String, country_code String, reference_date Date, reference_year UInt16, reference_month UInt8, unemployment_rate_pct Nullable(Float64), inflation_rate_mom_pct Nullable(Float64), unemployment_z_score Nullable(Float64), inflation_z_score Nullable(Float64), unemployment_iqr_outlier Bool, inflation_iqr_outlier Bool, unemployment_roc_anomaly Bool, inflation_roc_anomaly Bool, is_unemployment_anomaly Bool, is_inflation_anomaly Bool, is_any_anomaly Bool, anomaly_severity_score Float64) ENGINE=MergeTree ORDER BY (country_code, reference_date)",
		"CREATE TABLE IF NOT EXISTS " + db + ".quality_scores (country_code String, total_records UInt32, completeness_score Float64, unemployment_completeness Float64, inflation_completeness Float64, timeliness_score Float64, days_since_latest_data Nullable(Int32), latest_data_date Nullable(Date), validity_score Float64, unemployment_validity Float64, inflation_validity Float64, consistency_score Float64, overall_quality_score Float64, quality_grade String, primary_issue String, requires_attention Bool, scored_at DateTime, scoring_model_version String) ENGINE=MergeTree ORDER BY country_code",
		"CREATE TABLE IF NOT EXISTS " + db + ".unemployment_forecast (country_code String, forecast_date Date, forecast_horizon_months UInt8, last_actual_date Date, last_actual_value Float64, forecast_exp_smoothing Float64, forecast_holt Float64, forecast_linear_reg Float64, forecast_ensemble Float64, prediction_interval_lower Float64, prediction_interval_upper Float64, forecast_confidence String, min_training_samples UInt32, forecast_generated_at DateTime, model_version String) ENGINE=MergeTree ORDER BY (country_code, forecast_horizon_months)",
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer, or nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	// Attach hook to consumer: NoopHook for now; can be replaced via config
	consumer.WithConsumerHook(pkgkafka.NoopHook{})
	return consumer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideFactStore creates the fact-relation repository.
func ProvideFactStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) *internalrepo.CHFactStore {
	s := internalrepo.NewCHFactStore(chClient, cfg.ClickHouse.Database)
	s.SetLogger(l)
	return s
}

// ProvideResultStore creates the derived-relation repository.
func ProvideResultStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.ResultStore {
	s := internalrepo.NewCHResultStore(chClient, cfg.ClickHouse.Database)
	s.SetLogger(l)
	return s
}

// ProvideAlertPublisher creates the Kafka alert publisher and hooks the log
// collector up to it so repeated errors are aggregated onto the log topic.
func ProvideAlertPublisher(producer *pkgkafka.Producer, l *applogger.Logger) repository.AlertPublisher {
	p := internalrepo.NewKafkaAlertPublisher(producer)
	p.SetLogger(l)
	l.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   30 * time.Second,
		CountThreshold: 100,
		Topic:          "econpulse.logs",
		Publisher:      p,
	})
	return p
}

// ProvideEurostatClient creates the dissemination API client.
func ProvideEurostatClient(cfg *config.Config) *eurostat.Client {
	return eurostat.NewClient(
		eurostat.WithBaseURL(cfg.Eurostat.BaseURL),
		eurostat.WithTimeout(cfg.Eurostat.Timeout),
		eurostat.WithRequestsPerMinute(cfg.Eurostat.RequestsPerMin),
	)
}

// ProvideIngestor creates the extraction usecase.
func ProvideIngestor(
	client *eurostat.Client,
	facts *internalrepo.CHFactStore,
	alerts repository.AlertPublisher,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.Ingestor {
	u := usecase.NewIngestor(client, facts, facts, alerts, m, cfg.Eurostat.Geos)
	u.SetLogger(l)
	return u
}

// ProvideAnalysisRunner creates the analysis usecase with the three analyzers.
func ProvideAnalysisRunner(
	facts *internalrepo.CHFactStore,
	results repository.ResultStore,
	alerts repository.AlertPublisher,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.AnalysisRunner {
	acfg := analytics.DefaultConfig()
	if cfg.Analysis.ZScoreThreshold > 0 {
		acfg.ZScoreThreshold = cfg.Analysis.ZScoreThreshold
	}
	if cfg.Analysis.AttentionThreshold > 0 {
		acfg.AttentionThreshold = cfg.Analysis.AttentionThreshold
	}
	if cfg.Analysis.ForecastMinHistory > 0 {
		acfg.MinHistoryMonths = cfg.Analysis.ForecastMinHistory
	}
	r := usecase.NewAnalysisRunner(
		facts,
		results,
		alerts,
		m,
		analytics.NewAnomalyDetector(acfg),
		analytics.NewQualityScorer(acfg),
		analytics.NewForecastEngine(acfg),
		cfg.Analysis.Workers,
	)
	r.SetLogger(l)
	return r
}

// ProvideIngestEventsHandler registers the analysis trigger for the ingest
// completion topic.
func ProvideIngestEventsHandler(runner *usecase.AnalysisRunner, m repository.Metrics, l *applogger.Logger) pkgkafka.MessageHandler {
	h := usecase.NewIngestEventsHandler(internalrepo.TopicIngestCompleted, runner, m)
	h.SetLogger(l)
	return h
}

// ProvideCache creates the Redis-backed report cache, or nil when disabled.
func ProvideCache(cfg *config.Config, l *applogger.Logger) cache.Service {
	if !cfg.Analysis.Redis.Enabled {
		return nil
	}
	host, port := splitAddr(cfg.Analysis.Redis.Addr)
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Analysis.Redis.Password),
		cache.WithRedisDB(cfg.Analysis.Redis.DB),
	)
	if err != nil {
		// Caching is an optimization. Run without it rather than fail boot.
		l.Warn("redis cache unavailable", applogger.Error(err))
		return nil
	}
	return cache.NewLayeredCache(rc)
}

// ProvideHTTPHandler creates the reporting API handler.
func ProvideHTTPHandler(
	l *applogger.Logger,
	results repository.ResultStore,
	runner *usecase.AnalysisRunner,
	ingestor *usecase.Ingestor,
	cacheSvc cache.Service,
) xhttp.Handler {
	return api.NewReportsEchoHandler(l, results, runner, ingestor, cacheSvc)
}

// ProvideHub creates the dashboard WebSocket hub.
func ProvideHub() *ws.Hub {
	return ws.New()
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	chClient *pkgch.Client,
	alerts repository.AlertPublisher,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	ingestor *usecase.Ingestor,
	runner *usecase.AnalysisRunner,
	handler xhttp.Handler,
	hub *ws.Hub,
) *server.App {
	return server.New(cfg, l, chClient, alerts, consumer, kh, ingestor, runner, handler, hub)
}

func splitAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}
