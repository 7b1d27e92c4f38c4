package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/rickd5991-stack/jenny-bot/internal/api/router"
	"github.com/rickd5991-stack/jenny-bot/internal/booking"
	appconfig "github.com/rickd5991-stack/jenny-bot/internal/config"
	"github.com/rickd5991-stack/jenny-bot/internal/dialogue"
	"github.com/rickd5991-stack/jenny-bot/internal/http/handlers"
	httpmiddleware "github.com/rickd5991-stack/jenny-bot/internal/http/middleware"
	"github.com/rickd5991-stack/jenny-bot/internal/notify"
	"github.com/rickd5991-stack/jenny-bot/internal/observability/metrics"
	"github.com/rickd5991-stack/jenny-bot/internal/session"
	"github.com/rickd5991-stack/jenny-bot/pkg/logging"
)

const limiterIdle = 10 * time.Minute

// App is the fully wired booking service shared by the HTTP server and the
// Lambda entrypoint.
type App struct {
	Handler    http.Handler
	Engine     *dialogue.Engine
	Dispatcher *notify.Dispatcher

	closers []func()
}

// Close releases backend connections. Call Dispatcher.Wait first so pending
// confirmations are not cut off.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// BuildApp wires stores, senders, engine and router from cfg. Background
// loops (session sweeper, limiter eviction) stop when ctx is cancelled.
func BuildApp(ctx context.Context, cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	app := &App{}

	var redisClient *redis.Client
	if cfg.SessionBackend == "redis" {
		redisClient = BuildRedisClient(ctx, cfg, logger, true)
		if redisClient != nil {
			app.closers = append(app.closers, func() { _ = redisClient.Close() })
		}
	}

	sessions, err := BuildSessionStore(cfg, redisClient, logger)
	if err != nil {
		app.Close()
		return nil, err
	}

	ledger, closeLedger, err := BuildLedger(ctx, cfg, awsCfg, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.closers = append(app.closers, closeLedger)

	emailSender, err := BuildEmailSender(cfg, awsCfg, logger)
	if err != nil {
		app.Close()
		return nil, err
	}

	reg, metricsHandler := NewMetricsRegistry()
	dialogueMetrics := metrics.NewDialogueMetrics(reg)
	if mem, ok := sessions.(*session.MemoryStore); ok {
		metrics.RegisterActiveSessions(reg, mem.Len)
		go mem.RunSweeper(ctx, cfg.SessionSweepInterval)
	}
	if mem, ok := ledger.(*booking.MemoryLedger); ok {
		metrics.RegisterLedgerSize(reg, mem.Len)
	}

	app.Dispatcher = BuildDispatcher(cfg, BuildSMSSender(cfg, logger), emailSender, dialogueMetrics, logger)
	app.Engine = dialogue.NewEngine(dialogue.Config{
		Sessions:   sessions,
		Ledger:     ledger,
		Confirmer:  app.Dispatcher,
		DateParser: dialogue.NewFuzzyDateParser(),
		Metrics:    dialogueMetrics,
		Logger:     logger,
		Tracer:     otel.Tracer("jenny-bot/dialogue"),
	})

	routerCfg := &router.Config{
		Logger:          logger,
		Callbacks:       handlers.NewCallbackHandler(app.Engine, cfg.SpeechTimeoutSeconds, logger),
		MetricsHandler:  metricsHandler,
		CallbackLimiter: BuildCallbackLimiter(ctx, cfg),
		HealthCheck:     RedisHealthCheck(redisClient),
	}
	if cfg.AdminJWTSecret != "" {
		routerCfg.AdminBookings = handlers.NewAdminBookingsHandler(ledger, logger)
		routerCfg.AdminAuthSecret = cfg.AdminJWTSecret
	} else {
		logger.Warn("ADMIN_JWT_SECRET not set; admin routes disabled")
	}
	app.Handler = router.New(routerCfg)
	return app, nil
}

// NewMetricsRegistry builds a private registry with the Go runtime
// collectors and the handler that exposes it.
func NewMetricsRegistry() (*prometheus.Registry, http.Handler) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// BuildCallbackLimiter returns nil when CALLBACK_RATE_LIMIT is zero.
func BuildCallbackLimiter(ctx context.Context, cfg *appconfig.Config) *httpmiddleware.RateLimiter {
	if cfg.CallbackRateLimit <= 0 {
		return nil
	}
	limiter := httpmiddleware.NewRateLimiter(cfg.CallbackRateLimit, cfg.CallbackRateBurst)
	go limiter.Run(ctx, time.Minute, limiterIdle)
	return limiter
}

// RedisHealthCheck pings redis; nil client means nothing to check.
func RedisHealthCheck(redisClient *redis.Client) func(context.Context) error {
	if redisClient == nil {
		return nil
	}
	return func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	}
}
