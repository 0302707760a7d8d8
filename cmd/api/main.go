package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"tableside/config"
	"tableside/internal/commands"
	"tableside/internal/events"
	"tableside/internal/handler"
	"tableside/internal/payment"
	"tableside/internal/proxy"
	"tableside/internal/redis"
	"tableside/internal/repository"
	"tableside/internal/server"
	"tableside/internal/services"
	"tableside/internal/sse"
	"tableside/internal/storage"
	"tableside/internal/websocket"
	"tableside/pkg/database"
	"tableside/pkg/logger"
	"tableside/pkg/observability"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	appLogger := logger.New(cfg.AppMode)
	logger.SetGlobalLogger(appLogger)
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName: "tableside",
		Env:         cfg.AppMode,
		Endpoint:    cfg.OTelEndpoint,
		Insecure:    true,
		SampleRatio: cfg.OTelSampleRatio,
	})
	if err != nil {
		log.Fatalf("Failed to init tracer: %v", err)
	}
	defer shutdownTracer(context.Background())

	database.Connect(cfg)
	defer database.Close()
	if err := database.RunMigrations(); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	registry := events.NewRegistry(appLogger)
	var bus events.Bus = registry

	var (
		menuCache services.MenuCache
		limiter   *redis.RateLimiter
	)
	if cfg.RedisEnabled() {
		redis.Initialize(redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redis.Close()
		client := redis.GetClient()

		menuCache = redis.NewCacheStore(client, redis.CacheConfig{MenuTTL: cfg.MenuCacheTTL})
		limiter = redis.NewRateLimiter(client, redis.DefaultRateLimitConfig())

		if cfg.EventBus == "redis" {
			relay := events.NewRedisBus(registry, redis.NewPublisher(client), redis.NewSubscriber(client), appLogger)
			bus = relay
			go func() {
				if err := relay.Run(ctx); err != nil {
					appLogger.Logger.Error("event relay stopped", zap.Error(err))
				}
			}()
		}
	} else if cfg.EventBus == "redis" {
		appLogger.Logger.Warn("EVENT_BUS=redis needs REDIS_HOST, using the in-process registry")
	}

	var images services.ImageStore
	if cfg.S3Enabled() {
		s3Client, err := storage.NewClient(ctx, storage.S3Config{
			Region:     cfg.S3Region,
			Bucket:     cfg.S3Bucket,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			Endpoint:   cfg.S3Endpoint,
			PublicBase: cfg.S3PublicBase,
		})
		if err != nil {
			log.Fatalf("Failed to init s3 client: %v", err)
		}
		images = s3Client
	}

	var gateway payment.Gateway = payment.Disabled{}
	if cfg.StripeSecretKey != "" {
		gateway = payment.NewStripeGateway(cfg.StripeSecretKey, cfg.PublicBaseURL)
	}

	orderRepo := repository.NewOrderRepository(database.DB)
	menuRepo := repository.NewMenuRepository(database.DB)
	tableRepo := repository.NewTableRepository(database.DB)
	customerRepo := repository.NewCustomerRepository(database.DB)
	staffRepo := repository.NewStaffRepository(database.DB)

	access := proxy.NewAccessControl(orderRepo)
	commandBus := commands.NewBus(access).WithLogger(appLogger)

	authService := services.NewAuthService(staffRepo, customerRepo, tableRepo, cfg)
	orderService := services.NewOrderService(orderRepo, menuRepo, tableRepo, bus, gateway, commandBus, appLogger)
	notificationService := services.NewNotificationService(bus, commandBus, appLogger)
	menuService := services.NewMenuService(menuRepo, tableRepo, menuCache, images, orderService, appLogger)

	streamOpts := sse.Options{
		Heartbeat: cfg.HeartbeatInterval,
		Buffer:    cfg.StreamBuffer,
		Logger:    appLogger,
	}

	srv := server.New(cfg, appLogger)
	srv.AddHealthCheck("database", func(context.Context) error { return database.HealthCheck() })
	if cfg.RedisEnabled() {
		srv.AddHealthCheck("redis", redis.Ping)
	}

	srv.SetupRoutes(&server.Handlers{
		Auth:          handler.NewAuthHandler(authService, cfg.AppMode == server.ReleaseMode),
		Orders:        handler.NewOrderHandler(orderService),
		Notifications: handler.NewNotificationHandler(notificationService),
		Menu:          handler.NewMenuHandler(menuService),
		Streams:       handler.NewStreamHandler(bus, access, streamOpts, appLogger),
		Debug:         handler.NewDebugHandler(registry),
		WebSocket: websocket.NewHandler(bus, access, websocket.Options{
			PingInterval:   cfg.HeartbeatInterval,
			Buffer:         cfg.StreamBuffer,
			AllowedOrigins: []string{cfg.PublicBaseURL},
		}, appLogger),
	}, authService, limiter)

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("Server stopped with error: %v", err)
	}
}
