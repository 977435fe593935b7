package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ChartFeed/internal/domain/repository"
	"ChartFeed/internal/handler/api"
	internalrepo "ChartFeed/internal/repository"
	apimetrics "ChartFeed/internal/service/metrics"
	"ChartFeed/internal/service/ratelimit"
	"ChartFeed/internal/services/sources"
	"ChartFeed/internal/services/synthetic"
	"ChartFeed/internal/usecase"
	"ChartFeed/pkg/cache"
	pkgch "ChartFeed/pkg/clickhouse"
	"ChartFeed/pkg/config"
	xhttp "ChartFeed/pkg/http"
	pkgkafka "ChartFeed/pkg/kafka"
	applogger "ChartFeed/pkg/logger"
	"ChartFeed/pkg/metrics"
	"ChartFeed/pkg/server"
)

// ProvideLogger builds the application logger from the log section.
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
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideAPIMetrics creates endpoint latency/error collectors.
func ProvideAPIMetrics() *apimetrics.APIMetrics {
	return apimetrics.NewAPIMetrics(prometheus.DefaultRegisterer)
}

// ProvideCache returns a Redis-backed counter store when enabled, else an in-process one.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	if !cfg.Redis.Enabled {
		mc := cache.NewMemoryCache()
		return mc, func() { _ = mc.Close() }, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("redis connected", applogger.String("host", cfg.Redis.Host), applogger.Int("port", cfg.Redis.Port))
	return rc, func() {
		if err := rc.Close(); err != nil {
			l.Warn("redis close error", applogger.Error(err))
		}
	}, nil
}

// ProvideUpstreamThrottle caps upstream fetches per live strategy and minute.
func ProvideUpstreamThrottle(c cache.Service, cfg *config.Config) *ratelimit.Window {
	return ratelimit.NewWindow(c, cfg.RateLimit.UpstreamPerMinute, ratelimit.WithWindowPrefix("upstream"))
}

// ProvideHTTPClient creates the outbound client shared by the live sources.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(
		xhttp.WithTimeout(cfg.Sources.StrategyTimeout),
		xhttp.WithProxy(cfg.Sources.Proxy),
		xhttp.WithUserAgent(cfg.Sources.UserAgent),
	)
}

// ProvideGenerator creates the synthetic bar generator.
func ProvideGenerator() *synthetic.Generator {
	return synthetic.New()
}

// ProvideStrategies builds the acquisition chain: table, then JSON, then synthetic.
func ProvideStrategies(client *xhttp.Client, throttle *ratelimit.Window, gen *synthetic.Generator, cfg *config.Config) []usecase.Strategy {
	return []usecase.Strategy{
		sources.NewTableStrategy(sources.NewHTTPTableFetcher(client, cfg.Sources.Table.URLTemplate, throttle)),
		sources.NewJSONStrategy(sources.NewHTTPJSONFetcher(client, cfg.Sources.JSON.URLTemplate, throttle)),
		sources.NewSyntheticStrategy(gen),
	}
}

// ProvideAuditSink opens the configured audit backend and ensures its schema.
func ProvideAuditSink(cfg *config.Config, l *applogger.Logger) (repository.AuditSink, func(), error) {
	var sink repository.AuditSink
	switch cfg.Audit.Backend {
	case "kafka":
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
			pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
			pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
			pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
			pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
			pkgkafka.WithHashByKey(true),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("kafka producer: %w", err)
		}
		sink = internalrepo.NewKafkaAuditSink(producer, cfg.Kafka.Topic)
	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(4, 2),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse client: %w", err)
		}
		sink = internalrepo.NewCHAuditSink(client, cfg.ClickHouse.Database, l)
	case "sqlite":
		s, err := internalrepo.NewSQLiteAuditSink(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite audit: %w", err)
		}
		sink = s
	default:
		return internalrepo.NewNoopAuditSink(), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sink.Init(ctx); err != nil {
		_ = sink.Close()
		return nil, nil, fmt.Errorf("audit %s init: %w", cfg.Audit.Backend, err)
	}
	l.Info("audit sink ready", applogger.String("backend", cfg.Audit.Backend))

	return sink, func() {
		if err := sink.Close(); err != nil {
			l.Warn("audit sink close error", applogger.Error(err))
		}
	}, nil
}

// ProvideBarAcquirer wires the strategy chain with metrics, audit and logging.
func ProvideBarAcquirer(
	gen *synthetic.Generator,
	strategies []usecase.Strategy,
	m repository.Metrics,
	audit repository.AuditSink,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.BarAcquirer {
	return usecase.NewBarAcquirer(gen, strategies,
		usecase.WithStrategyTimeout(cfg.Sources.StrategyTimeout),
		usecase.WithAcquirerMetrics(m),
		usecase.WithAuditSink(audit, cfg.Audit.Timeout),
		usecase.WithAcquirerLogger(l),
	)
}

// ProvideChartSeries creates the chart use case.
func ProvideChartSeries(acq *usecase.BarAcquirer) *usecase.ChartSeriesUseCase {
	return usecase.NewChartSeriesUseCase(acq)
}

// ProvideSourceProber returns a scheduled prober, or nil when probing is disabled.
func ProvideSourceProber(strategies []usecase.Strategy, m repository.Metrics, l *applogger.Logger, cfg *config.Config) (*usecase.SourceProber, error) {
	if !cfg.Prober.Enabled {
		return nil, nil
	}
	p := usecase.NewSourceProber(strategies, cfg.Prober.CanarySymbol, cfg.Sources.StrategyTimeout, m, l)
	if err := p.Register(cfg.Prober.Schedule); err != nil {
		return nil, err
	}
	return p, nil
}

// ProvideChartHandler creates the chart HTTP/websocket handler.
func ProvideChartHandler(
	l *applogger.Logger,
	uc *usecase.ChartSeriesUseCase,
	m *apimetrics.APIMetrics,
	c cache.Service,
	cfg *config.Config,
) *api.ChartEchoHandler {
	opts := []api.HandlerOption{
		api.WithAPIMetrics(m),
		api.WithRateLimit(ratelimit.New(), cfg.RateLimit.APICapacity, cfg.RateLimit.APIRefillPerSec),
	}
	if cfg.Redis.Enabled {
		opts = append(opts, api.WithHealthCheck("redis", c.Ping))
	}
	return api.NewChartEchoHandler(l, uc, opts...)
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.ChartEchoHandler) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer([]xhttp.Handler{h},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithMetrics(metricsPath, prometheus.DefaultRegisterer, prometheus.DefaultGatherer),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, l *applogger.Logger, srv *xhttp.Server, prober *usecase.SourceProber) *server.App {
	return server.New(cfg, l, srv, prober)
}
