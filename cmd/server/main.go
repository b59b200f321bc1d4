package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/deltamc/internal"
	"github.com/dukerupert/deltamc/internal/broker"
	"github.com/dukerupert/deltamc/internal/cache"
	"github.com/dukerupert/deltamc/internal/catalog"
	"github.com/dukerupert/deltamc/internal/email"
	"github.com/dukerupert/deltamc/internal/handler/api"
	"github.com/dukerupert/deltamc/internal/handler/webhook"
	"github.com/dukerupert/deltamc/internal/middleware"
	"github.com/dukerupert/deltamc/internal/postgres"
	"github.com/dukerupert/deltamc/internal/router"
	"github.com/dukerupert/deltamc/internal/routes"
	"github.com/dukerupert/deltamc/internal/service"
	"github.com/dukerupert/deltamc/internal/tebex"
	"github.com/dukerupert/deltamc/internal/telemetry"
	"github.com/dukerupert/deltamc/internal/worker"
	"github.com/redis/go-redis/v9"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
		Release:     cfg.Sentry.Release,
		SampleRate:  cfg.Sentry.SampleRate,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	telemetry.InitBusinessMetrics("deltamc")

	// ==========================================================================
	// Storage
	// ==========================================================================

	logger.Info("Connecting to database...")
	pool, err := postgres.Connect(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()
	logger.Info("Database connection established")

	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(ctx, pool); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	store := postgres.NewStore(pool)

	maintenanceJobs := []worker.Job{{
		Name:     "prune_order_requests",
		Interval: time.Hour,
		Run: func(ctx context.Context) (int64, error) {
			return store.PruneOrderRequests(ctx, time.Now().Add(-cfg.OrderRequestRetention))
		},
	}}

	var (
		ownedCache cache.Cache
		cartStore  service.CartStore
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
		ownedCache = cache.NewRedisCache(redisClient, cfg.OwnedItemsTTL)
		cartStore = service.NewRedisCartStore(redisClient, cfg.CartTTL)
		logger.Info("Using redis for carts and owned items", "addr", opts.Addr)
	} else {
		memoryCache := cache.NewMemoryCache(cfg.OwnedItemsTTL)
		memoryCarts := service.NewMemoryCartStore(cfg.CartTTL)
		ownedCache, cartStore = memoryCache, memoryCarts
		maintenanceJobs = append(maintenanceJobs,
			worker.Job{Name: "evict_owned_items", Interval: cfg.OwnedItemsTTL, Run: memoryCache.EvictExpired},
			worker.Job{Name: "evict_carts", Interval: time.Hour, Run: memoryCarts.EvictExpired},
		)
		logger.Info("REDIS_URL not set, keeping carts and owned items in memory")
	}

	rewards, err := catalog.Load(cfg.RewardCatalogPath)
	if err != nil {
		return fmt.Errorf("reward catalog: %w", err)
	}
	logger.Info("Reward catalog loaded", "rewards", len(rewards.All()))

	// ==========================================================================
	// Outbound integrations
	// ==========================================================================

	// SMTP is optional; without SMTP_HOST mail goes to the fallback endpoint only.
	var channels []email.Channel
	if cfg.Email.SMTPEnabled() {
		smtpSender := email.NewSMTPSender(&email.SMTPConfig{
			Host:     cfg.Email.Host,
			Port:     int(cfg.Email.Port),
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
			FromName: cfg.Email.FromName,
		}, logger)
		smtpChannel, err := email.NewService(smtpSender, cfg.Email.From, cfg.Email.FromName)
		if err != nil {
			return fmt.Errorf("email service initialization failed: %w", err)
		}
		channels = append(channels, smtpChannel)
	}
	if cfg.Email.FallbackURL != "" {
		channels = append(channels, email.NewEndpointChannel(cfg.Email.FallbackURL, logger))
	}
	if len(channels) == 0 {
		logger.Warn("No email channel configured, order confirmations will not be sent")
	}
	notifier := email.NewNotifier(logger, channels...)

	var publisher broker.Publisher = broker.NopPublisher{}
	if cfg.NATSURL != "" {
		natsPublisher, err := broker.NewNATSPublisher(cfg.NATSURL, logger)
		if err != nil {
			return fmt.Errorf("nats connection failed: %w", err)
		}
		publisher = natsPublisher
	}
	defer publisher.Close()

	tebexClient := tebex.NewClient(tebex.Config{
		BaseURL:     cfg.Tebex.BaseURL,
		AccountID:   cfg.Tebex.PublicToken,
		Secret:      cfg.Tebex.Secret,
		PackageID:   cfg.Tebex.PackageID,
		FrontendURL: cfg.Tebex.FrontendURL,
	}, logger)

	// ==========================================================================
	// Services
	// ==========================================================================

	ownershipService := service.NewOwnershipService(store, ownedCache, logger)
	shopService := service.NewShopService(store)
	userService := service.NewUserService(store)
	eventService := service.NewEventService(store, logger)
	cartService := service.NewCartService(cartStore, store, store, logger)
	checkoutService := service.NewCheckoutService(service.CheckoutConfig{
		Carts:     cartStore,
		Orders:    store,
		Notifier:  notifier,
		Ownership: ownershipService,
		Publisher: publisher,
		ServerID:  cfg.ServerID,
		Logger:    logger,
		Cart:      cartService,
	})
	rewardService := service.NewRewardService(service.RewardConfig{
		Giftcards: store,
		Catalog:   rewards,
		Orders:    store,
		Ownership: ownershipService,
		Notifier:  notifier,
		Publisher: publisher,
		ServerID:  cfg.ServerID,
		Logger:    logger,
	})
	paymentService := service.NewPaymentService(tebexClient, store, logger)

	// ==========================================================================
	// HTTP
	// ==========================================================================

	metrics := middleware.NewMetrics("deltamc")

	defaultRateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	defer defaultRateLimiter.Stop()
	strictRateLimiter := middleware.NewRateLimiter(middleware.StrictRateLimiterConfig())
	defer strictRateLimiter.Stop()

	securityConfig := middleware.DefaultSecurityHeadersConfig()
	if cfg.Env == "dev" {
		securityConfig.HSTSMaxAge = 0
	}

	r := router.New(
		telemetry.SentryMiddleware(),
		metrics.Middleware,
		middleware.SecurityHeaders(securityConfig),
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
	)

	apiRouter := r.Group(defaultRateLimiter.Middleware)
	routes.RegisterAPIRoutes(apiRouter, routes.APIDeps{
		Shop:            api.NewShopHandler(shopService),
		Cart:            api.NewCartHandler(cartService),
		Orders:          api.NewOrderHandler(checkoutService),
		Rewards:         api.NewRewardHandler(rewardService),
		Users:           api.NewUserHandler(userService, ownershipService),
		Events:          api.NewEventHandler(eventService),
		Payments:        api.NewPaymentHandler(paymentService),
		Health:          api.NewHealthHandler(store),
		Strict:          strictRateLimiter.Middleware,
		Timeout:         middleware.Timeout(middleware.DefaultTimeout),
		CheckoutTimeout: middleware.Timeout(middleware.CheckoutTimeout),
	})
	if cfg.Tebex.WebhookSecret == "" {
		logger.Warn("TEBEX_WEBHOOK_SECRET not set, all webhooks will be rejected")
	}
	routes.RegisterWebhookRoutes(r, routes.WebhookDeps{
		Tebex: webhook.NewTebexHandler(paymentService, cfg.Tebex.WebhookSecret),
	})
	routes.RegisterMetricsRoute(r, routes.MetricsDeps{Handler: metrics.Handler()})

	handler := r.Handler(
		router.Recovery(logger),
		middleware.RequestID,
		middleware.WithClientIP(),
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
		router.CORS(cfg.AllowedOrigins),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	maintenance, err := worker.NewWorker(worker.Config{PollInterval: 30 * time.Second}, logger, maintenanceJobs...)
	if err != nil {
		return fmt.Errorf("worker initialization failed: %w", err)
	}
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := maintenance.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Maintenance worker stopped", "error", err)
		}
	}()

	// SIGHUP flushes the owned-items cache after manual database edits.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-hup:
				if err := ownershipService.InvalidateAll(ctx); err != nil {
					logger.Error("Failed to flush owned items cache", "error", err)
					continue
				}
				logger.Info("Owned items cache flushed")
			case <-ctx.Done():
				return
			}
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	<-workerDone
	logger.Info("Server stopped")

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
