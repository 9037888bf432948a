package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	domrepo "FinResearch/internal/domain/repository"
	"FinResearch/internal/domain/service"
	"FinResearch/internal/handler/api"
	internalrepo "FinResearch/internal/repository"
	"FinResearch/internal/service/ratelimit"
	"FinResearch/internal/services/analyst"
	"FinResearch/internal/services/coingecko"
	"FinResearch/internal/services/notion"
	"FinResearch/internal/usecase"
	"FinResearch/pkg/cache"
	pkgch "FinResearch/pkg/clickhouse"
	"FinResearch/pkg/config"
	xhttp "FinResearch/pkg/http"
	pkgkafka "FinResearch/pkg/kafka"
	applogger "FinResearch/pkg/logger"
	"FinResearch/pkg/metrics"
	"FinResearch/pkg/queue"
	"FinResearch/pkg/server"
)

const startupTimeout = 10 * time.Second

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideRedisCache connects to Redis, or returns nil when Redis is disabled.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	rc, err := cache.NewRedisCache(ctx,
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, 2, 4*time.Second),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideCache layers an in-process cache over Redis when available.
func ProvideCache(cfg *config.Config, rc *cache.RedisCache) cache.Service {
	if rc == nil {
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize),
			cache.WithMemoryDefaultTTL(cfg.Cache.MemoryTTL),
		)
	}
	return cache.NewLayeredCache(rc,
		cache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize),
		cache.WithLayeredMemoryTTL(cfg.Cache.MemoryTTL),
	)
}

func ProvideRateLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvidePriceProvider creates the CoinGecko price adapter.
func ProvidePriceProvider(cfg *config.Config, c cache.Service, rl *ratelimit.Limiter, l *applogger.Logger) service.PriceProvider {
	return coingecko.New(coingecko.Config{
		BaseURL:      cfg.CoinGecko.BaseURL,
		APIKey:       cfg.CoinGecko.APIKey,
		HistoryDays:  cfg.CoinGecko.HistoryDays,
		QuoteTTL:     cfg.CoinGecko.QuoteTTL,
		HistoryTTL:   cfg.CoinGecko.HistoryTTL,
		RateCapacity: cfg.CoinGecko.RateCapacity,
		RatePerSec:   cfg.CoinGecko.RatePerSec,
	}, c, rl, l)
}

func analystConfig(cfg *config.Config) analyst.Config {
	return analyst.Config{
		BaseURL:  cfg.Analyst.URL,
		Timeout:  cfg.Analyst.Timeout,
		Attempts: cfg.Analyst.Attempts,
		Backoff:  cfg.Analyst.Backoff,
		Prompts:  cfg.Prompts,
	}
}

func ProvideNewsProvider(cfg *config.Config) service.NewsProvider {
	return analyst.NewHTTPNewsProvider(analystConfig(cfg))
}

func ProvideSentimentProvider(cfg *config.Config) service.SentimentProvider {
	return analyst.NewHTTPSentimentProvider(analystConfig(cfg))
}

// ProvideCoordinator creates the research coordinator.
func ProvideCoordinator(
	cfg *config.Config,
	price service.PriceProvider,
	news service.NewsProvider,
	sentiment service.SentimentProvider,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.ResearchCoordinator {
	return usecase.NewResearchCoordinator(price, news, sentiment, usecase.ResearchConfig{
		PriceTimeout:     cfg.Research.PriceTimeout,
		NewsTimeout:      cfg.Research.NewsTimeout,
		SentimentTimeout: cfg.Research.SentimentTimeout,
		AuxPolicy:        usecase.AuxPolicy(cfg.Research.AuxPolicy),
	}, usecase.WithMetrics(m), usecase.WithLogger(l))
}

func ProvideAssembler(cfg *config.Config) *usecase.ReportAssembler {
	return usecase.NewReportAssembler(cfg.Research.Disclaimer)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
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

// ProvideClickHouseClient connects to ClickHouse and creates the database,
// or returns nil when the archive is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(5, 2),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideReportSink fans reports out to every enabled sink. The markdown file
// sink is always present.
func ProvideReportSink(
	cfg *config.Config,
	producer *pkgkafka.Producer,
	ch *pkgch.Client,
	m domrepo.Metrics,
	l *applogger.Logger,
) (domrepo.ReportSink, error) {
	sinks := []domrepo.ReportSink{internalrepo.NewFileSink(cfg.Output.Dir)}

	if producer != nil {
		sinks = append(sinks, internalrepo.NewKafkaReportSink(producer, cfg.Kafka.Topics.Reports))
	}
	if ch != nil {
		archive := internalrepo.NewCHReportArchive(ch.DB(), cfg.ClickHouse.ArchiveTable(), l)
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()
		if err := archive.Init(ctx); err != nil {
			return nil, err
		}
		sinks = append(sinks, archive)
	}
	if cfg.Notion.Enabled {
		ns, err := notion.New(notion.Config{
			BaseURL:    cfg.Notion.BaseURL,
			APIKey:     cfg.Notion.APIKey,
			DatabaseID: cfg.Notion.DatabaseID,
			Timeout:    cfg.Notion.Timeout,
		}, l)
		if err != nil {
			return nil, fmt.Errorf("notion sink: %w", err)
		}
		sinks = append(sinks, ns)
	}
	return internalrepo.NewMultiSink(m, sinks...), nil
}

func ProvideResearchUseCase(
	cfg *config.Config,
	coord *usecase.ResearchCoordinator,
	asm *usecase.ReportAssembler,
	sink domrepo.ReportSink,
	l *applogger.Logger,
) *usecase.ResearchUseCase {
	uc := usecase.NewResearchUseCase(coord, asm, sink, l)
	uc.SetDeliverTimeout(cfg.Research.DeliverTimeout)
	return uc
}

// ProvideResearchQueue creates the Redis job queue with the research worker
// registered, or nil when the queue is disabled.
func ProvideResearchQueue(cfg *config.Config, rc *cache.RedisCache, uc *usecase.ResearchUseCase, l *applogger.Logger) *queue.RedisQueue {
	if !cfg.Queue.Enabled || rc == nil {
		return nil
	}
	q := queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
		JobTimeout: cfg.Queue.JobTimeout,
		StatusTTL:  cfg.Queue.StatusTTL,
	}, rc.Client(), queue.ModeProducerConsumer, queue.WithKeyPrefix(cfg.Redis.Prefix+":queue"))
	q.RegisterJob(usecase.NewResearchJob(uc))
	return q
}

// ProvideKafkaConsumer creates the research request consumer, or nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config, uc *usecase.ResearchUseCase, m domrepo.Metrics, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerHandleTimeout(cfg.Kafka.Consumer.HandleTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.LoggingHook(l))
	consumer.RegisterHandler(usecase.NewKafkaResearchHandler(cfg.Kafka.Topics.Requests, uc, m))
	return consumer, nil
}

// ProvideResearchHandler creates the HTTP and websocket research handler.
func ProvideResearchHandler(cfg *config.Config, uc *usecase.ResearchUseCase, q *queue.RedisQueue, c cache.Service, l *applogger.Logger) *api.ResearchHandler {
	opts := []api.HandlerOption{api.WithResponseCache(c, cfg.Research.CacheTTL)}
	if q != nil {
		opts = append(opts, api.WithJobQueue(internalrepo.NewResearchQueue(q, usecase.ResearchJobType)))
	}
	return api.NewResearchHandler(l, uc, opts...)
}

func ProvideHTTPServer(cfg *config.Config, h *api.ResearchHandler, l *applogger.Logger) *xhttp.Server {
	return xhttp.NewServer(l, []xhttp.Handler{h},
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithCORS(cfg.Server.AllowOrigins),
	)
}

// ProvideApp creates the application and attaches the Kafka log collector
// when enabled.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	uc *usecase.ResearchUseCase,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	q *queue.RedisQueue,
	producer *pkgkafka.Producer,
	ch *pkgch.Client,
	c cache.Service,
) *server.App {
	opts := []server.Option{
		server.WithHTTPServer(httpServer),
		server.WithCloser("cache", c),
	}
	if consumer != nil {
		opts = append(opts, server.WithConsumer(consumer))
	}
	if q != nil {
		opts = append(opts, server.WithQueue(q))
	}
	if ch != nil {
		opts = append(opts, server.WithCloser("clickhouse", ch))
	}
	if producer != nil {
		if cfg.Log.Collect.Enabled {
			l.AddCollector(&applogger.CollectionConfig{
				TimeInterval:   cfg.Log.Collect.Interval,
				CountThreshold: cfg.Log.Collect.CountThreshold,
				Topic:          cfg.Kafka.Topics.Logs,
				Publisher:      internalrepo.NewKafkaLogPublisher(producer),
			})
		}
		opts = append(opts, server.WithCloser("kafka producer", producer))
	}
	return server.New(cfg, l, uc, opts...)
}
