package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ms-storefront/internal/analytics"
	analytics_api "ms-storefront/internal/analytics/api"
	"ms-storefront/internal/auth"
	catalogapi "ms-storefront/internal/catalog/api"
	catalogdb "ms-storefront/internal/catalog/db"
	"ms-storefront/internal/checkout"
	checkoutapi "ms-storefront/internal/checkout/api"
	"ms-storefront/internal/config"
	"ms-storefront/internal/database"
	"ms-storefront/internal/database/migrations"
	"ms-storefront/internal/kafka"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	orderdb "ms-storefront/internal/order/db"
	"ms-storefront/internal/order/discount"
	"ms-storefront/internal/order/order_api"
	"ms-storefront/internal/order/reconcile"
	rediswrap "ms-storefront/internal/order/redis"
	handlers "ms-storefront/internal/payment/handler"
	"ms-storefront/internal/payment/services"
	"ms-storefront/internal/server"
	"ms-storefront/internal/sse"
	"ms-storefront/internal/tickets/pass"
	"ms-storefront/internal/tickets/ticket_api"

	"github.com/go-co-op/gocron/v2"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

type orderPublisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
	PublishOrderPaid(ctx context.Context, order *models.Order) error
	PublishOrderFailed(ctx context.Context, order *models.Order) error
	PublishOrderCancelled(ctx context.Context, order *models.Order) error
}

func runMigrations(cfg *config.Config, log *logger.Logger) {
	opts := migrations.DefaultOptions()
	if !opts.AutoMigrate {
		return
	}

	// The migrator closes its connection, so it gets its own.
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("MIGRATE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}
	runner := migrations.NewRunner(db, opts, log)
	defer runner.Close()

	if err := runner.MigrateUp(); err != nil {
		log.Fatal("MIGRATE", err.Error())
	}
}

func setupKafka(cfg *config.Config, log *logger.Logger) (orderPublisher, func()) {
	if !cfg.Kafka.Enabled {
		log.Warn("KAFKA", "Kafka disabled, order events will only be logged")
		return kafka.LogPublisher{Logger: log}, func() {}
	}

	if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, cfg.Kafka.Topics.All(), log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	} else {
		log.Info("KAFKA", "Required topics ensured successfully")
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics, log)
	log.Info("KAFKA", fmt.Sprintf("Kafka producer initialized for %v", cfg.Kafka.Brokers))
	return producer, func() {
		if err := producer.Close(); err != nil {
			log.Error("KAFKA", fmt.Sprintf("Failed to close producer: %v", err))
		}
	}
}

func setupSessions(ctx context.Context, cfg *config.Config, log *logger.Logger) (auth.SessionProvider, *auth.LoginHandler) {
	if cfg.Auth.Mode == "oidc" {
		sessions, err := auth.NewOIDCSessions(ctx, cfg.Auth.OIDCIssuer, cfg.Auth.CookieName)
		if err != nil {
			log.Fatal("AUTH", err.Error())
		}
		log.Info("AUTH", fmt.Sprintf("Admin sessions verified against %s", cfg.Auth.OIDCIssuer))
		return sessions, nil
	}

	sessions, err := auth.NewJWTSessions(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, cfg.Auth.CookieName)
	if err != nil {
		log.Fatal("AUTH", fmt.Sprintf("SESSION_SECRET: %v", err))
	}
	if cfg.Admin.PasswordHash == "" {
		log.Warn("AUTH", "ADMIN_PASSWORD_HASH not set, admin login is disabled")
	}
	login := &auth.LoginHandler{
		Sessions:     sessions,
		Username:     cfg.Admin.Username,
		PasswordHash: cfg.Admin.PasswordHash,
		SecureCookie: os.Getenv("SESSION_COOKIE_SECURE") == "true",
		LoginPath:    cfg.Auth.LoginPath,
		Logger:       log,
	}
	return sessions, login
}

func main() {
	log := logger.NewLogger("storefront")
	defer log.Close()

	log.Info("APP", "Starting storefront initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bunDB, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	runMigrations(cfg, log)

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = rediswrap.Connect(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn("REDIS", "Continuing without stats cache and sweep lock")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	kafkaEvents, closeKafka := setupKafka(cfg, log)
	defer closeKafka()
	broker := sse.NewOrderEventBroker()
	events := &sse.Publisher{Next: kafkaEvents, Broker: broker}

	stripeService, err := services.NewStripeService(cfg.Stripe, log)
	if err != nil {
		log.Fatal("STRIPE", err.Error())
	}
	if cfg.Stripe.WebhookSecret == "" {
		log.Warn("STRIPE", "STRIPE_WEBHOOK_SECRET not set, webhooks will be rejected")
	}

	catalogStore := catalogdb.New(bunDB)
	orderStore := &orderdb.DB{Bun: bunDB}

	checkoutService := checkout.NewService(
		catalogStore,
		discount.NewResolver(&discount.DB{Bun: bunDB}),
		orderStore,
		stripeService,
		events,
		log,
	)
	webhookService := services.NewWebhookService(cfg.Stripe.WebhookSecret, orderStore, events, log)

	var statsCache *analytics.StatsCache
	var locker reconcile.Locker
	if redisClient != nil {
		statsCache = analytics.NewStatsCache(redisClient, cfg.Cache.StatsTTL)
		locker = rediswrap.NewLocker(redisClient)
	}
	analyticsService := analytics.NewService(bunDB, statsCache, log)
	events.OnPaid = analyticsService.HandleOrderEvent

	// Paid events from other publishers on the topic invalidate the cache too.
	if cfg.Kafka.Enabled && statsCache != nil {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, []string{cfg.Kafka.Topics.OrderPaid}, "storefront-admin-stats", log)
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx, analyticsService.HandleOrderEvent); err != nil {
				log.Error("KAFKA", fmt.Sprintf("Stats consumer stopped: %v", err))
			}
		}()
		log.Info("KAFKA", "Admin stats cache invalidation consumer started")
	}

	passSecret := cfg.Pass.Secret
	if passSecret == "" {
		log.Warn("TICKETS", "PASS_SECRET not set, falling back to SESSION_SECRET")
		passSecret = cfg.Auth.JWTSecret
	}
	passes, err := pass.NewGenerator(passSecret)
	if err != nil {
		log.Fatal("TICKETS", err.Error())
	}

	sessions, login := setupSessions(ctx, cfg, log)

	router := server.NewRouter(server.Handlers{
		Checkout:  &checkoutapi.Handler{Service: checkoutService, Logger: log},
		Catalog:   catalogapi.NewHandler(catalogStore, log),
		Admin:     analytics_api.NewHandler(analyticsService, log),
		Passes:    ticket_api.NewHandler(orderStore, passes, log),
		Orders:    order_api.NewSSEHandler(orderStore, broker, log),
		Stripe:    handlers.NewStripeHandler(webhookService, log),
		Sessions:  sessions,
		LoginPath: cfg.Auth.LoginPath,
		Login:     login,
	}, log)

	var scheduler gocron.Scheduler
	if cfg.Reconcile.Enabled {
		scheduler, err = gocron.NewScheduler()
		if err != nil {
			log.Fatal("RECONCILE", fmt.Sprintf("Failed to create scheduler: %v", err))
		}
		sweeper := reconcile.NewSweeper(orderStore, events, locker, cfg.Reconcile.StaleAfter, log)
		if _, err := sweeper.Schedule(ctx, scheduler, cfg.Reconcile.Interval); err != nil {
			log.Fatal("RECONCILE", fmt.Sprintf("Failed to schedule sweep: %v", err))
		}
		scheduler.Start()
		log.Info("RECONCILE", fmt.Sprintf("Stale order sweep every %s (stale after %s)", cfg.Reconcile.Interval, cfg.Reconcile.StaleAfter))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Storefront running on %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if scheduler != nil {
		if err := scheduler.Shutdown(); err != nil {
			log.Error("RECONCILE", fmt.Sprintf("Scheduler shutdown failed: %v", err))
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Storefront shutdown complete")
	}
}
