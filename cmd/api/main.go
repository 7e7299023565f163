package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	_ "github.com/studentserving/backend/docs"
	"github.com/studentserving/backend/internal/cleanup"
	"github.com/studentserving/backend/internal/database"
	"github.com/studentserving/backend/internal/handlers"
	"github.com/studentserving/backend/internal/repositories"
	"github.com/studentserving/backend/internal/services"
	"github.com/studentserving/backend/internal/storage"
	authMiddleware "github.com/studentserving/backend/libs/auth/middleware"
	authService "github.com/studentserving/backend/libs/auth/service"
	"github.com/studentserving/backend/libs/config"
	"github.com/studentserving/backend/libs/logger"
	loggerMiddleware "github.com/studentserving/backend/libs/logger/middleware"
	sharedMiddleware "github.com/studentserving/backend/libs/middlewares"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

const maxRequestSize = 12 * 1024 * 1024 // 12MB: a certificate plus form overhead, news image uploads apply their own limit

// @title Student Services API
// @version 1.0
// @description API for certificates, news, study plan courses, progress summaries and login accounts

// @contact.name API Support

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
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

	logger.Logger.Info("Starting Student Services API",
		zap.String("cleanup_mode", cfg.Cleanup.Mode),
		zap.String("upload_root", cfg.Storage.UploadRoot),
	)

	// Connect to database
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := database.Migrate(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Storage and asset cleanup
	fileStore := storage.NewFileStore(cfg.Storage.UploadRoot)
	healthChecks := map[string]handlers.Pinger{"database": db}

	var janitor cleanup.Janitor = cleanup.NewInlineJanitor(fileStore, logger.Logger)
	if cfg.Cleanup.Mode == config.CleanupModeQueue {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		healthChecks["redis"] = handlers.PingerFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})

		asynqClient := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer asynqClient.Close()

		janitor = cleanup.NewQueueJanitor(asynqClient, janitor, logger.Logger)
	}

	// Initialize JWT token generator (for auth middleware and login)
	tokenGenerator := authService.NewTokenGenerator(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	// Initialize repositories
	certificateRepo := repositories.NewCertificateRepository(db)
	newsRepo := repositories.NewNewsRepository(db)
	referenceRepo := repositories.NewReferenceRepository(db)
	studyPlanCourseRepo := repositories.NewStudyPlanCourseRepository(db)
	progressSummaryRepo := repositories.NewProgressSummaryRepository(db)
	loginAccountRepo := repositories.NewLoginAccountRepository(db)

	// Initialize services
	certificateService := services.NewCertificateService(certificateRepo, fileStore, janitor, logger.Logger)
	newsService := services.NewNewsService(newsRepo, fileStore, janitor, cfg.Server.BaseURL, cfg.Storage.PlaceholderImageURL, logger.Logger)
	studyPlanCourseService := services.NewStudyPlanCourseService(studyPlanCourseRepo, referenceRepo, logger.Logger)
	progressSummaryService := services.NewProgressSummaryService(progressSummaryRepo, referenceRepo, logger.Logger)
	loginAccountService := services.NewLoginAccountService(loginAccountRepo, tokenGenerator, cfg.Accounts.DefaultPassword, logger.Logger)

	// Initialize middleware
	authMw := authMiddleware.AuthMiddleware(tokenGenerator)
	adminMw := authMiddleware.RoleMiddleware(tokenGenerator, authService.RoleAdmin)

	var metricsMw func(http.Handler) http.Handler
	if cfg.Server.MetricsAPIKey != "" {
		metricsMw = authMiddleware.APIKeyMiddleware(cfg.Server.MetricsAPIKey)
	}

	// Initialize handlers
	routeHandlers := []interface{ RegisterRoutes(r chi.Router) }{
		handlers.NewHealthHandler(healthChecks, logger.Logger, metricsMw),
		handlers.NewCertificateHandler(certificateService, logger.Logger, authMw, adminMw),
		handlers.NewNewsHandler(newsService, logger.Logger, adminMw),
		handlers.NewAcademicHandler(studyPlanCourseService, progressSummaryService, logger.Logger, adminMw),
		handlers.NewAccountHandler(loginAccountService, logger.Logger, authMw, adminMw),
	}

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(sharedMiddleware.RequestIDMiddleware)
	r.Use(loggerMiddleware.LoggerMiddleware(logger.Logger))
	r.Use(sharedMiddleware.RecoveryMiddleware(logger.Logger))
	r.Use(sharedMiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(sharedMiddleware.MetricsMiddleware)
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(sharedMiddleware.RequestSizeLimitMiddleware(maxRequestSize, handlers.IsNewsImageUpload))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(cfg.Server.BaseURL+"/swagger/doc.json"),
	))

	for _, h := range routeHandlers {
		h.RegisterRoutes(r)
	}

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second, // Longer timeout for file uploads
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}
