package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"MarketWire/internal/domain/repository"
	domsvc "MarketWire/internal/domain/service"
	"MarketWire/internal/handler/api"
	"MarketWire/internal/handler/ws"
	mid "MarketWire/internal/middleware"
	"MarketWire/internal/notify"
	internalrepo "MarketWire/internal/repository"
	icache "MarketWire/internal/service/cache"
	"MarketWire/internal/service/ratelimit"
	"MarketWire/internal/service/yahoo"
	"MarketWire/internal/services/ads"
	"MarketWire/internal/services/article"
	"MarketWire/internal/services/detect"
	"MarketWire/internal/usecase"
	"MarketWire/pkg/cache"
	pkgch "MarketWire/pkg/clickhouse"
	"MarketWire/pkg/config"
	apphttp "MarketWire/pkg/http"
	pkgkafka "MarketWire/pkg/kafka"
	applogger "MarketWire/pkg/logger"
	"MarketWire/pkg/metrics"
	"MarketWire/pkg/queue"
	"MarketWire/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	format := "json"
	if cfg.Environment == "development" {
		level = "debug"
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCacheService builds the cache: layered Redis when enabled,
// in-process memory otherwise.
func ProvideCacheService(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix("marketwire"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(rc), nil
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when the
// bar store is disabled.
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
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideBarStore creates the bar store over ClickHouse.
func ProvideBarStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) (repository.BarStore, error) {
	if chClient == nil {
		return nil, nil
	}
	table := cfg.ClickHouse.Table
	if table == "" {
		table = cfg.ClickHouse.Database + ".rt_bars"
	}
	store := internalrepo.NewCHBarStore(chClient, table)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer for the kafka backend.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Backend.Type != "kafka" {
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

// ProvideEventSink wraps the producer as an event sink.
func ProvideEventSink(producer *pkgkafka.Producer, cfg *config.Config) repository.EventSink {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaEventSink(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates the events consumer for the kafka backend.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Backend.Type != "kafka" {
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
	return consumer, nil
}

// ProvideHTTPClient creates the outbound HTTP client.
func ProvideHTTPClient(cfg *config.Config) *apphttp.Client {
	timeout := cfg.Yahoo.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return apphttp.NewClient(
		apphttp.WithTimeout(timeout),
		apphttp.WithUserAgent("marketwire/1.0"),
	)
}

// ProvideRateLimiter creates the shared token-bucket limiter.
func ProvideRateLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideQuoteSource creates the Yahoo quote client.
func ProvideQuoteSource(
	httpClient *apphttp.Client,
	cacheSvc cache.Service,
	limiter *ratelimit.Limiter,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) repository.QuoteSource {
	opts := []yahoo.Option{
		yahoo.WithSMAWindows(cfg.Yahoo.SMAShort, cfg.Yahoo.SMALong),
	}
	if cfg.Yahoo.CacheTTL > 0 {
		opts = append(opts, yahoo.WithCacheTTL(cfg.Yahoo.CacheTTL))
	}
	return yahoo.NewClient(httpClient, cacheSvc, limiter, m, l, opts...)
}

// ProvideDetector creates the event detector.
func ProvideDetector(cfg *config.Config, l *applogger.Logger) *detect.Detector {
	var opts []detect.Option
	if cfg.Detector.PriceMedium > 0 && cfg.Detector.PriceHigh > 0 && cfg.Detector.PriceCritical > 0 {
		opts = append(opts, detect.WithPriceThresholds(cfg.Detector.PriceMedium, cfg.Detector.PriceHigh, cfg.Detector.PriceCritical))
	}
	return detect.NewDetector(l, opts...)
}

// ProvideAdCatalog loads the catalog from disk, or the built-in one.
func ProvideAdCatalog(cfg *config.Config) (*ads.Catalog, error) {
	if cfg.Ads.CatalogPath == "" {
		return ads.DefaultCatalog(), nil
	}
	return ads.LoadCatalog(cfg.Ads.CatalogPath)
}

// ProvideRecommender creates the ad recommender.
func ProvideRecommender(catalog *ads.Catalog, l *applogger.Logger, cfg *config.Config) *ads.Recommender {
	return ads.NewRecommender(catalog, l, ads.WithTopK(cfg.Ads.TopK))
}

// ProvideWSHub creates the live feed hub.
func ProvideWSHub(l *applogger.Logger) *ws.Hub {
	return ws.NewHub(l)
}

// ProvideNotifiers builds the configured delivery channels.
func ProvideNotifiers(cfg *config.Config, httpClient *apphttp.Client, l *applogger.Logger) []domsvc.Notifier {
	var out []domsvc.Notifier
	if cfg.Notify.Slack.Enabled {
		out = append(out, notify.NewSlackNotifier(httpClient, cfg.Notify.Slack.WebhookURL))
	}
	if cfg.Notify.Telegram.Enabled {
		tn, err := notify.NewTelegramNotifier(cfg.Notify.Telegram.Token, cfg.Notify.Telegram.ChatID)
		if err != nil {
			l.Error("telegram notifier init failed", applogger.Error(err))
		} else {
			out = append(out, tn)
		}
	}
	return out
}

// ProvideNotifyQueue creates the Redis delivery queue, running both the
// producer and consumer sides in this process. Nil when Redis is off or
// no channel is configured.
func ProvideNotifyQueue(cfg *config.Config, notifiers []domsvc.Notifier, l *applogger.Logger) *queue.RedisQueue {
	if !cfg.Redis.Enabled || len(notifiers) == 0 {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	job := notify.NewDeliveryJob(usecase.NotifyJobType, notifiers, l,
		notify.WithHourlyCap(cfg.Notify.HourlyCap),
	)
	return queue.NewRedisConsumer(l, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, client, []queue.Job{job}, queue.WithKeyPrefix("marketwire"))
}

// ProvideNewsroom assembles the article pipeline. The Claude writer is
// primary when configured; the template writer always backs it up.
func ProvideNewsroom(
	cfg *config.Config,
	recommender *ads.Recommender,
	hub *ws.Hub,
	notifyQ *queue.RedisQueue,
	l *applogger.Logger,
) *usecase.Newsroom {
	tmpl := article.NewTemplateWriter()
	var writer domsvc.ArticleWriter = tmpl
	if cfg.Anthropic.Enabled && cfg.Anthropic.APIKey != "" {
		writer = article.NewClaudeWriter(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens, 30*time.Second, l)
	}

	opts := []usecase.NewsroomOption{
		usecase.WithBroadcaster(hub),
	}
	if notifyQ != nil {
		opts = append(opts, usecase.WithNotifyQueue(notifyQ))
	}
	return usecase.NewNewsroom(writer, tmpl, article.NewReviewer(), recommender, l, opts...)
}

// ProvideEventProcessor creates the backend router.
func ProvideEventProcessor(
	sink repository.EventSink,
	newsroom *usecase.Newsroom,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.EventProcessor {
	return usecase.NewEventProcessor(sink, newsroom, m, cfg.Backend.Type)
}

// ProvideEventPipeline creates the detector-to-processor middleware.
func ProvideEventPipeline(proc *usecase.EventProcessor, m repository.Metrics, cfg *config.Config) *mid.EventPipeline {
	var opts []mid.PipelineOption
	if cfg.Detector.CooldownWindow > 0 {
		opts = append(opts, mid.WithCooldown(cfg.Detector.CooldownWindow))
	}
	if cfg.Detector.PipelineBufSize > 0 {
		opts = append(opts, mid.WithBufferSize(cfg.Detector.PipelineBufSize))
	}
	return mid.NewEventPipeline(proc, m, opts...)
}

// ProvideMarketScanner creates the scan loop.
func ProvideMarketScanner(
	quotes repository.QuoteSource,
	detector *detect.Detector,
	pipe *mid.EventPipeline,
	store repository.BarStore,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
	cacheSvc cache.Service,
) *usecase.MarketScanner {
	return usecase.NewMarketScanner(quotes, detector, pipe, store, m, l, cfg.Yahoo.Symbols, cfg.Yahoo.ScanSchedule,
		usecase.WithScanLock(cacheSvc))
}

// ProvideKafkaEventsHandler registers the consumer-side handler.
func ProvideKafkaEventsHandler(newsroom *usecase.Newsroom, m repository.Metrics, cfg *config.Config) *usecase.KafkaEventsHandler {
	return usecase.NewKafkaEventsHandler(cfg.Kafka.Topic, newsroom, m)
}

// ProvideNewsHandler creates the HTTP API handler. The health probe is
// attached in ProvideApp once the infrastructure clients exist.
func ProvideNewsHandler(
	l *applogger.Logger,
	detector *detect.Detector,
	recommender *ads.Recommender,
	newsroom *usecase.Newsroom,
	store repository.BarStore,
	cfg *config.Config,
) *api.NewsHandler {
	h := api.NewNewsHandler(l, detector, recommender, newsroom, usecase.NewBarsUseCase(store))
	if cfg.Redis.Enabled {
		h.SetCache(icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
	} else {
		h.SetCache(icache.NewTTLCache())
	}
	return h
}

// consumerObserver reports per-message consume latency and logs
// handler failures.
func consumerObserver(l *applogger.Logger, m repository.Metrics) pkgkafka.ConsumerHook {
	return pkgkafka.HookFuncs{
		Before: func(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
			return pkgkafka.WithStartTime(ctx, time.Now()), km, data, nil
		},
		After: func(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
			if start, ok := pkgkafka.StartTime(ctx); ok {
				m.RecordLatency("kafka_consume", time.Since(start).Seconds())
			}
		},
		Err: func(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
			m.RecordError("kafka_consume")
			l.Error("kafka message handling failed",
				applogger.String("topic", topic),
				applogger.Error(err),
			)
		},
	}
}

// logPublisher adapts the Kafka producer to the log collector.
type logPublisher struct {
	p *pkgkafka.Producer
}

func (lp logPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return lp.p.Publish(ctx, topic, nil, payload)
}

// ProvideApp creates the application server and ties the loose ends:
// the snapshot lookup back-reference and the log collector.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	scanner *usecase.MarketScanner,
	processor *usecase.EventProcessor,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaEventsHandler,
	chClient *pkgch.Client,
	hub *ws.Hub,
	newsroom *usecase.Newsroom,
	notifyQ *queue.RedisQueue,
	producer *pkgkafka.Producer,
	newsHandler *api.NewsHandler,
	m repository.Metrics,
) *server.App {
	newsroom.SetSnapshotProvider(scanner)
	newsHandler.SetHealthProbe(healthProbe(cfg, chClient, hub))

	if consumer != nil {
		consumer.WithConsumerHook(consumerObserver(l, m))
	}

	// Aggregated log shipping piggybacks on the events producer.
	if producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.Topic + ".logs",
			Publisher:      logPublisher{p: producer},
		})
	}

	var khHandler pkgkafka.MessageHandler
	if consumer != nil {
		khHandler = kh
	}

	app := server.New(cfg, l, scanner, processor, consumer, khHandler, chClient, hub)
	app.SetHTTPHandler(newsHandler)
	if notifyQ != nil {
		app.SetNotifyQueue(notifyQ)
	}
	return app
}

func healthProbe(cfg *config.Config, chClient *pkgch.Client, hub *ws.Hub) func() map[string]interface{} {
	return func() map[string]interface{} {
		payload := map[string]interface{}{
			"backend":    cfg.Backend.Type,
			"symbols":    len(cfg.Yahoo.Symbols),
			"ws_clients": hub.ClientCount(),
		}
		if chClient != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := chClient.Health(ctx); err != nil {
				payload["clickhouse"] = "down"
			} else {
				payload["clickhouse"] = "ok"
			}
		}
		return payload
	}
}
