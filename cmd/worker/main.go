package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/studentserving/backend/internal/cleanup"
	"github.com/studentserving/backend/internal/database"
	"github.com/studentserving/backend/internal/repositories"
	"github.com/studentserving/backend/internal/storage"
	"github.com/studentserving/backend/internal/sweeper"
	"github.com/studentserving/backend/libs/config"
	"github.com/studentserving/backend/libs/logger"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting Student Services Worker")

	// Connect to database
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	// Test Redis connection
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	fileStore := storage.NewFileStore(cfg.Storage.UploadRoot)

	// Orphan sweeper
	orphanSweeper := sweeper.NewSweeper(
		fileStore,
		repositories.NewCertificateRepository(db),
		repositories.NewNewsRepository(db),
		cfg.Cleanup.OrphanGracePeriod,
		logger.Logger,
	)
	if err := orphanSweeper.Start(cfg.Cleanup.OrphanSweepCron); err != nil {
		logger.Logger.Fatal("Failed to schedule orphan sweep", zap.Error(err))
	}
	defer orphanSweeper.Stop()

	// Create Asynq server
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				cleanup.QueueName: 1,
			},
			Logger: logger.Logger.Sugar(),
		},
	)

	// Register task handlers
	taskHandler := cleanup.NewTaskHandler(fileStore, logger.Logger)
	mux := asynq.NewServeMux()
	mux.HandleFunc(cleanup.TypeAssetDelete, taskHandler.HandleAssetDelete)

	// Start worker
	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Logger.Fatal("Failed to start worker", zap.Error(err))
		}
	}()

	logger.Logger.Info("Worker started",
		zap.String("queue", cleanup.QueueName),
		zap.String("sweep_schedule", cfg.Cleanup.OrphanSweepCron),
	)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down worker...")
	srv.Shutdown()
	logger.Logger.Info("Worker exited")
}
