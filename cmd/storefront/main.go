package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sakashimaa/storefront/internal/repository"
	"github.com/sakashimaa/storefront/internal/service"
	"github.com/sakashimaa/storefront/internal/transport/http"
	"github.com/sakashimaa/storefront/internal/transport/http/handler"
	transportKafka "github.com/sakashimaa/storefront/internal/transport/kafka"
	"github.com/sakashimaa/storefront/pkg/config"
	"github.com/sakashimaa/storefront/pkg/kafka"
	"github.com/sakashimaa/storefront/pkg/metrics"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	outboxRepository "github.com/sakashimaa/storefront/pkg/outbox/repository"
	"github.com/sakashimaa/storefront/pkg/outbox/worker"
	"github.com/sakashimaa/storefront/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not found: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	logger, err := config.NewLogger(config.LoggerConfig{
		Level: cfg.Log.Level,
		Env:   cfg.Env,
	})
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	shutdownTracer := func(context.Context) error { return nil }
	if cfg.Tracing.Enabled {
		tp, err := utils.InitTracer(ctx, "storefront", cfg.Tracing.Endpoint, cfg.Env)
		if err != nil {
			log.Fatalf("Failed to init trace: %v", err)
		}
		shutdownTracer = tp.Shutdown
	}

	addPolicy, err := service.ParseAddPolicy(cfg.Cart.AddPolicy)
	if err != nil {
		log.Fatalf("Invalid cart config: %v", err)
	}

	var redisClient *redis.Client
	if cfg.Store.Driver == driverRedis || cfg.Cache.Enabled {
		redisClient, err = newRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatalf("Error connecting to redis: %v", err)
		}
		if cfg.Store.Driver != driverRedis {
			defer func() {
				_ = redisClient.Close()
			}()
		}
	}

	store, err := openStore(ctx, cfg, redisClient, logger)
	if err != nil {
		log.Fatalf("Error opening document store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Error closing document store", zap.Error(err))
		}
	}()

	cartRepo := repository.NewCartRepository(store, logger)
	orderRepo := repository.NewOrderRepository(store, logger)
	productRepo := repository.NewProductRepository(store, logger)
	outboxRepo := outboxRepository.NewOutboxRepository(store, cfg.Outbox.MaxAttempts, logger)
	uow := repository.NewUnitOfWork(store, logger)

	var (
		products service.ProductService = service.NewProductService(productRepo, outboxRepo, uow, logger)
		cached   *service.CachedProductService
	)
	if cfg.Cache.Enabled {
		cached = service.NewCachedProductService(products, redisClient, cfg.Cache.TTL, logger)
		products = cached
	}

	lookup := service.NewBreakerProductLookup(products, utils.BreakerConfig{
		Name:         "ProductLookup",
		MaxRequests:  cfg.Breaker.MaxRequests,
		Interval:     cfg.Breaker.Interval,
		Timeout:      cfg.Breaker.Timeout,
		MinRequests:  cfg.Breaker.MinRequests,
		FailureRatio: cfg.Breaker.FailureRatio,
	}, logger)

	locks := service.NewUserLocks()
	cartService := service.NewCartService(cartRepo, lookup, locks, logger, service.CartOptions{
		Policy:               addPolicy,
		MaxConcurrentLookups: cfg.Checkout.MaxConcurrentLookups,
	})
	orderService := service.NewOrderService(
		cartRepo,
		orderRepo,
		outboxRepo,
		uow,
		lookup,
		locks,
		logger,
		service.OrderOptions{MaxConcurrentLookups: cfg.Checkout.MaxConcurrentLookups},
	)

	workers, workersCtx := errgroup.WithContext(ctx)

	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, logger)
		if err != nil {
			log.Fatalf("Error creating kafka producer: %v", err)
		}
		defer func() {
			if err := producer.Close(); err != nil {
				logger.Warn("Error closing kafka producer", zap.Error(err))
			}
		}()

		outboxProcessor := worker.NewOutboxProcessor(outboxRepo, producer, logger, worker.Config{
			BatchSize: cfg.Outbox.BatchSize,
			Interval:  cfg.Outbox.Interval,
		})
		workers.Go(func() error {
			outboxProcessor.Start(workersCtx)
			return nil
		})

		if cached != nil {
			consumer := transportKafka.NewConsumer(cached, logger)
			workers.Go(func() error {
				return consumer.Start(workersCtx, cfg.Kafka.Brokers, cfg.Kafka.GroupID)
			})
		}
	}

	var httpMetrics *http.Metrics
	if cfg.Metrics.Enabled {
		reg := metrics.NewRegistry()
		httpMetrics = http.NewMetrics(reg)

		workers.Go(func() error {
			return metrics.Serve(workersCtx, cfg.Metrics.Port, reg, logger)
		})
	}

	app := http.NewApp(http.AppConfig{
		LimiterMax:        cfg.Limiter.Max,
		LimiterExpiration: cfg.Limiter.Expiration,
		Metrics:           httpMetrics,
	})
	http.RegisterRoutes(app, &http.Handlers{
		Cart:    handler.NewCartHandler(cartService, cfg.HTTP.Timeout, logger),
		Order:   handler.NewOrderHandler(orderService, cfg.HTTP.Timeout, logger),
		Product: handler.NewProductHandler(products, cfg.HTTP.Timeout, logger),
	})

	go func() {
		mylogger.Info(ctx, logger, "HTTP service listening", zap.String("port", cfg.HTTP.Port))
		if err := app.Listen(cfg.HTTP.Port); err != nil {
			log.Fatalf("Error listening on HTTP port %v: %v\n", cfg.HTTP.Port, err)
		}
	}()

	<-ctx.Done()

	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("Error shutting down HTTP app", zap.Error(err))
	} else {
		logger.Info("HTTP app stopped gracefully")
	}

	if err := workers.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("Background worker stopped with error", zap.Error(err))
	}

	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Warn("Error shutting down telemetry", zap.Error(err))
	}
}
