package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang-headline-signal/internal/scoring/cache"
	"golang-headline-signal/internal/scoring/config"
	"golang-headline-signal/internal/scoring/delivery/consumer"
	delivery "golang-headline-signal/internal/scoring/delivery/http"
	_ "golang-headline-signal/internal/scoring/docs"
	"golang-headline-signal/internal/scoring/feed"
	"golang-headline-signal/internal/scoring/repository"
	"golang-headline-signal/internal/scoring/service"
	"golang-headline-signal/pkg/common"
	"golang-headline-signal/pkg/logger"
	"golang-headline-signal/pkg/metrics"
	"golang-headline-signal/pkg/postgres"
	"golang-headline-signal/pkg/redis"
	"golang-headline-signal/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	swagger "github.com/swaggo/echo-swagger"
	"google.golang.org/genai"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the headline scoring service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Scoring Service", logger.Field("name", cfg.App.Name))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis
	redisCfg := redis.Config{
		Host:        cfg.Redis.Host,
		Port:        cfg.Redis.Port,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		PoolSize:    cfg.Redis.PoolSize,
		DialTimeout: cfg.Redis.DialTimeout,
		ReadTimeout: cfg.Redis.ReadTimeout,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	if cfg.Scoring.StreamEnabled {
		// MKSTREAM creates the stream if it doesn't exist
		if err := redisClient.XGroupCreateMkStream(context.Background(), common.RedisStreamHeadlineScore, common.RedisStreamGroup, "0").Err(); err != nil {
			if err.Error() != "BUSYGROUP Consumer Group name already exists" {
				appLogger.Fatal("Failed to create consumer group", logger.ErrorField(err))
			}
		}
	}

	telegramNotifier, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
	}

	// Initialize repositories
	signalRepo := repository.NewSignalRecordRepository(db.DB)
	endpointRepo := repository.NewWebhookEndpointRepository(db.DB)
	deliveryRepo := repository.NewWebhookDeliveryRepository(db.DB)

	// Initialize sentiment classifier
	var (
		classifier  repository.SentimentClassifier
		modelLoaded bool
	)
	switch cfg.Classifier.Provider {
	case "huggingface":
		classifier = repository.NewHuggingFaceClassifier(cfg, appLogger)
		modelLoaded = cfg.HuggingFace.Model != ""
	case "gemini":
		genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey: cfg.Gemini.APIKey,
		})
		if err != nil {
			appLogger.Fatal("Failed to initialize Gemini AI client", logger.ErrorField(err))
		}
		classifier = repository.NewGeminiClassifier(cfg, appLogger, genAiClient)
		modelLoaded = cfg.Gemini.APIKey != ""
	default:
		appLogger.Fatal("Invalid classifier provider specified in config", logger.StringField("provider", cfg.Classifier.Provider))
	}

	var resultCache cache.ResultCache
	switch cfg.Scoring.CacheBackend {
	case "memory":
		resultCache = cache.NewMemoryCache(cfg.Scoring.CacheShards)
	case "redis":
		resultCache = cache.NewRedisCache(redisClient.Client, appLogger, 0)
	default:
		resultCache = cache.NewTieredCache(
			cache.NewMemoryCache(cfg.Scoring.CacheShards),
			cache.NewRedisCache(redisClient.Client, appLogger, 0),
			cfg.Scoring.CacheTTL,
		)
	}

	// Initialize services
	dispatcher := service.NewWebhookDispatcher(
		cfg,
		appLogger,
		service.NewRestyTransport(cfg.Webhook.AttemptTimeout),
		endpointRepo,
		deliveryRepo,
		telegramNotifier,
	)
	scoringSvc, err := service.NewScoringService(cfg, appLogger, classifier, resultCache, signalRepo, dispatcher, telegramNotifier)
	if err != nil {
		appLogger.Fatal("Failed to initialize scoring service", logger.ErrorField(err))
	}
	webhookSvc := service.NewWebhookService(endpointRepo, appLogger)
	historySvc := service.NewSignalHistoryService(signalRepo, appLogger)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Scoring.CacheSweepSchedule, resultCache.EvictExpired); err != nil {
		appLogger.Fatal("Invalid cache sweep schedule", logger.ErrorField(err))
	}

	var (
		redisConsumer *consumer.RedisConsumer
		streamSvc     service.HeadlineStreamService
	)
	if cfg.Scoring.StreamEnabled {
		streamSvc = service.NewHeadlineStreamService(cfg, appLogger, redisClient.Client, scoringSvc, telegramNotifier)
		redisConsumer = consumer.NewRedisConsumer(cfg, streamSvc, appLogger)
		redisConsumer.Start(ctx)
	}

	if cfg.Feed.Enabled {
		poller := feed.NewPoller(cfg, appLogger, scoringSvc)
		if streamSvc != nil {
			poller.WithStream(streamSvc)
		}
		if _, err := poller.Schedule(ctx, scheduler); err != nil {
			appLogger.Fatal("Invalid feed schedule", logger.ErrorField(err))
		}
		appLogger.Info("Feed polling enabled", logger.IntField("sources", len(poller.Sources())))
	}
	scheduler.Start()

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true
	e.Validator = delivery.NewRequestValidator()

	// Initialize handlers and routes
	healthHandler := delivery.NewHealthHandler(scoringSvc.Model(), modelLoaded)
	healthHandler.RegisterRoutes(e)

	apiV1 := e.Group("/api/v1")
	signalHandler := delivery.NewSignalHandler(scoringSvc, historySvc, appLogger)
	signalHandler.RegisterRoutes(apiV1)

	webhookHandler := delivery.NewWebhookHandler(webhookSvc, appLogger)
	webhooksGroup := apiV1.Group("/webhooks")
	webhookHandler.RegisterRoutes(webhooksGroup)

	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.GET("/swagger/*", swagger.WrapHandler)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	// Gracefully shutdown the server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", logger.ErrorField(err))
	}

	if redisConsumer != nil {
		redisConsumer.Stop()
	}
	<-scheduler.Stop().Done()
	dispatcher.Wait()

	appLogger.Info("Server exiting")
}

// @title Financial Sentiment Trading API
// @version 1.0
// @description Scores financial news headlines and turns the sentiment into BUY, SELL or HOLD signals.
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{Use: "scoring-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-scoring.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing scoring-service CLI: %s\n", err)
		os.Exit(1)
	}
}
