package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"inventory-orchestrator/internal/logging"
	"inventory-orchestrator/inventory/config"
	"inventory-orchestrator/inventory/slots"
	"inventory-orchestrator/inventory/slots/application"
	"inventory-orchestrator/inventory/slots/domain"
	"inventory-orchestrator/inventory/slots/infra"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New(logging.DefaultConfig())
		boot.Fatal().Err(err).Msg("config error")
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(cfg.LogLevel)
	logCfg.Format = cfg.LogFormat
	logger := logging.New(logCfg)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("slotd stopped")
	}
}

func run(cfg config.Settings, logger zerolog.Logger) error {
	catalog, err := config.LoadCatalog(cfg.PlacementsFile, config.CatalogDefaults{
		RefreshInterval: cfg.RefreshInterval,
		OverlayGap:      cfg.OverlayGap,
	})
	if err != nil {
		return err
	}

	fetcher, err := infra.NewHTTPFetcher(cfg.UpstreamURL, infra.WithFetcherLogger(logger.With().Str("component", "fetcher").Logger()))
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	clock := infra.SystemClock{}
	gate := infra.NewGate(cfg.ItemsEnabled)

	cooldownOpts := []infra.CooldownOption{infra.WithCooldownClock(clock)}
	for cat, gap := range catalog.Gaps() {
		cooldownOpts = append(cooldownOpts, infra.WithGap(cat, gap))
	}

	var limiter domain.LimiterStore
	var limiterStore *infra.LimiterStore
	if cfg.RateEnabled {
		limiterStore = infra.NewLimiterStore(cfg.RateRPS, cfg.RateBurst)
		limiterStore.StartJanitor(ctx)
		limiter = limiterStore
	}

	dispatcher := infra.NewDispatcher(logger.With().Str("component", "dispatcher").Logger())
	defer dispatcher.Close()

	bus := infra.NewEventBus(logger.With().Str("component", "events").Logger())
	defer bus.Close()

	memStats := infra.NewMemoryStatsStore(infra.WithTrackKeys(cfg.Stats.TrackKeys))
	bus.Attach(ctx, "memory", memStats)

	var persisted slots.TotalsReader
	if cfg.Stats.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Stats.RedisAddr,
			Password: cfg.Stats.RedisPassword,
			DB:       cfg.Stats.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		pingCancel()
		if err != nil {
			return err
		}

		redisStats := infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.Stats.Prefix),
			infra.WithStatsTTL(cfg.Stats.TTL),
			infra.WithStatsBucket(cfg.Stats.Bucket),
			infra.WithStatsTrackKeys(cfg.Stats.TrackKeys),
		)
		bus.Attach(ctx, "redis", redisStats)
		persisted = redisStats
	}

	var registry *prometheus.Registry
	if cfg.MetricsEnabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		bus.Attach(ctx, "prometheus", infra.NewPrometheusStats(registry))
	}

	// FETCH_CONCURRENCY_MAX 0 = sem limite.
	fetchSlots := application.ConcurrencyService{AcquireTimeout: cfg.FetchConcurrencyTimeout}
	if cfg.FetchConcurrencyMax > 0 {
		fetchSlots.Pool = infra.NewChanPool(cfg.FetchConcurrencyMax)
	}

	orch, err := application.New(application.Options[*infra.Creative]{
		Fetcher:   fetcher,
		Displayer: infra.NewTimedDisplayer[*infra.Creative](clock, cfg.DisplayHold, logger.With().Str("component", "displayer").Logger()),
		Configs:   catalog,
		Store:     infra.NewSlotStore[*infra.Creative](),
		Runner:    dispatcher,
		Cooldowns: infra.NewCooldowns(cooldownOpts...),
		Gate:      gate,
		Scheduler: infra.NewScheduler(clock),
		Clock:     clock,
		Limiter:   limiter,
		Events:    bus,

		FetchSlots:   fetchSlots,
		FetchTimeout: cfg.FetchTimeout,
		Refresh: application.RefreshOptions{
			RetryInitial:    cfg.RefreshRetryInitial,
			MaxRetryElapsed: cfg.RefreshMaxRetry,
		},
		OnError: func(key domain.Key, err error) {
			logger.Warn().Str("key", string(key)).Err(err).Msg("slot error")
		},
		Logger: logger.With().Str("component", "orchestrator").Logger(),
	})
	if err != nil {
		return err
	}
	defer orch.Close()

	for _, key := range catalog.Keys() {
		orch.RegisterKey(key)
	}

	api := slots.NewHandler(slots.Options{
		Controller:          orch,
		Gate:                gate,
		Limiter:             limiter,
		AddRateLimitHeaders: cfg.AddHeaders,
		Logger:              logger.With().Str("component", "api").Logger(),
	})

	mux := http.NewServeMux()
	mux.Handle("/slots/", api)
	mux.Handle("/gate", api)
	mux.Handle("/stats", slots.NewStatsHandler(slots.StatsOptions{
		Memory:    memStats,
		Persisted: persisted,
		Dropped:   bus.Dropped,
		Logger:    logger,
	}))
	if registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	h := http.Handler(mux)
	h = slots.ConcurrencyMiddleware(slots.ConcurrencyOptions{
		Max:            cfg.ConcurrencyMax,
		RejectStatus:   http.StatusServiceUnavailable,
		AcquireTimeout: cfg.ConcurrencyTimeout,
		Logger:         logger,
	})(h)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().
		Str("addr", cfg.ListenAddr).
		Str("upstream", cfg.UpstreamURL).
		Int("placements", len(catalog.Keys())).
		Bool("items_enabled", cfg.ItemsEnabled).
		Dur("overlay_gap", cfg.OverlayGap).
		Msg("slotd listening")
	logger.Info().
		Bool("enabled", cfg.RateEnabled).
		Float64("rps", cfg.RateRPS).
		Int("burst", cfg.RateBurst).
		Int("fetch_concurrency", cfg.FetchConcurrencyMax).
		Msg("fetch limits")
	logger.Info().
		Bool("redis", cfg.Stats.Enabled).
		Str("bucket", cfg.Stats.Bucket).
		Dur("ttl", cfg.Stats.TTL).
		Bool("metrics", cfg.MetricsEnabled).
		Msg("stats")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
