package main

import (
	"context"
	"log"
	"time"

	"picvault-backend/internal/config"
	"picvault-backend/internal/logger"
	"picvault-backend/internal/media"
	"picvault-backend/internal/queue"

	"github.com/go-co-op/gocron"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Connect to MongoDB
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	cancel()
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(context.Background())

	// Media host client for destroy and reconcile work
	mediaClient, err := media.NewClient(cfg)
	if err != nil {
		log.Fatal("Failed to initialize media client:", err)
	}

	// Redis options for Asynq, resolved from the same REDIS_URL as the API
	redisOpt, err := queue.RedisOpt(cfg)
	if err != nil {
		log.Fatal("Failed to resolve Redis options:", err)
	}

	// Create Asynq server
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 3, // asset destroys
				"low":     1, // reconcile sweeps
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	// Create task processor
	processor := queue.NewTaskProcessor(mediaClient, mongoClient.Database(cfg.DBName))

	// Create mux and register handlers
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskAssetDestroy, processor.HandleAssetDestroy)
	mux.HandleFunc(queue.TaskGalleryReconcile, processor.HandleGalleryReconcile)

	// Schedule the periodic reconcile sweep through the queue so it shares
	// retry and visibility with everything else.
	taskClient, err := queue.NewClient(cfg)
	if err != nil {
		log.Fatal("Failed to initialize task queue client:", err)
	}
	defer taskClient.Close()

	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.Every(6).Hours().Do(func() {
		if err := taskClient.EnqueueGalleryReconcile(); err != nil {
			logger.Error("failed to enqueue reconcile sweep", "error", err)
		}
	})
	scheduler.StartAsync()
	defer scheduler.Stop()

	log.Println("Starting Asynq worker...")
	log.Printf("   Queues: default(3), low(1)")
	log.Printf("   Redis: %s", redisOpt.Addr)

	// Start the server
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
