package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"picvault-backend/internal/config"
	"picvault-backend/internal/logger"
	"picvault-backend/internal/media"
	"picvault-backend/internal/queue"
	"picvault-backend/internal/telemetry"
	"picvault-backend/middleware"
	"picvault-backend/routes"
	"picvault-backend/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Initialize structured logging
	logger.InitLogger(cfg)

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	// Connect to Redis. The service stays up without it; view caching and
	// distributed rate limiting degrade to local behavior.
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, view cache disabled", "error", err)
		rdb = nil
	}

	// Media host client is configured once here and injected everywhere.
	mediaClient, err := media.NewClient(cfg)
	if err != nil {
		log.Fatal("Failed to initialize media client:", err)
	}

	// Task queue client for background asset cleanup
	taskClient, err := queue.NewClient(cfg)
	if err != nil {
		log.Fatal("Failed to initialize task queue client:", err)
	}
	defer taskClient.Close()

	// Initialize OpenTelemetry (optional)
	var metrics *telemetry.Metrics
	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("picvault-backend", cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn("Failed to initialize tracer", "error", err)
		} else {
			defer shutdown()
		}

		metrics, err = telemetry.InitMetrics()
		if err != nil {
			logger.Warn("Failed to initialize metrics", "error", err)
		}
	}

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	if cfg.TracingEnabled {
		router.Use(middleware.TracingMiddleware())
		router.Use(middleware.EnrichTrace())
		router.Use(middleware.MetricsMiddleware(metrics))
	}

	if rdb != nil {
		rateLimiter := middleware.NewRateLimiter(rdb, cfg)
		router.Use(rateLimiter.Limit())
	}

	// Default-deny authentication gate; public paths are allow-listed.
	authMiddleware := middleware.NewAuthMiddleware(cfg)
	router.Use(authMiddleware.Gate())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	// Wire services
	db := mongoClient.Database(cfg.DBName)
	reval := services.NewRevalidator(rdb, time.Duration(cfg.ViewCacheTTLSecs)*time.Second)
	imageService := services.NewImageService(db, mediaClient, taskClient, reval, cfg.GalleryPageSize)
	userService := services.NewUserService(db)

	// Root serves the public gallery; delete handlers redirect here.
	router.GET("/", routes.HandleListImages(imageService, reval))

	// Setup routes
	routes.SetupAuthRoutes(router, cfg, mongoClient)
	routes.SetupImageRoutes(router, imageService, reval, metrics)
	routes.SetupUploadRoutes(router, cfg, mediaClient, userService, metrics)
	routes.SetupWebhookRoutes(router, cfg, userService)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
