package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"picvault-backend/internal/config"
	"picvault-backend/internal/logger"
	"picvault-backend/internal/media"
	"picvault-backend/models"
)

const (
	TaskAssetDestroy     = "asset:destroy"
	TaskGalleryReconcile = "gallery:reconcile"
)

// reconcileGrace protects freshly created records whose asset may not be
// visible in the media host search index yet.
const reconcileGrace = 24 * time.Hour

type AssetDestroyPayload struct {
	PublicID string `json:"public_id"`
}

// Task creators
func NewAssetDestroyTask(publicID string) (*asynq.Task, error) {
	payload, err := json.Marshal(AssetDestroyPayload{PublicID: publicID})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskAssetDestroy,
		payload,
		asynq.MaxRetry(5),
		asynq.Timeout(1*time.Minute),
		asynq.Queue("default"),
	), nil
}

func NewGalleryReconcileTask() *asynq.Task {
	return asynq.NewTask(
		TaskGalleryReconcile,
		nil,
		asynq.MaxRetry(1),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("low"),
	)
}

// RedisOpt maps the shared Redis connection settings onto asynq's client
// options, so the queue always targets the same instance as the cache.
func RedisOpt(cfg *config.Config) (asynq.RedisClientOpt, error) {
	opts, err := config.RedisOptions(cfg)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{
		Addr:      opts.Addr,
		Password:  opts.Password,
		DB:        opts.DB,
		TLSConfig: opts.TLSConfig,
	}, nil
}

// Client enqueues tasks from the API process.
type Client struct {
	inner *asynq.Client
}

func NewClient(cfg *config.Config) (*Client, error) {
	opt, err := RedisOpt(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{inner: asynq.NewClient(opt)}, nil
}

func (c *Client) EnqueueAssetDestroy(publicID string) error {
	task, err := NewAssetDestroyTask(publicID)
	if err != nil {
		return err
	}
	_, err = c.inner.Enqueue(task)
	return err
}

func (c *Client) EnqueueGalleryReconcile() error {
	_, err := c.inner.Enqueue(NewGalleryReconcileTask())
	return err
}

func (c *Client) Close() error {
	return c.inner.Close()
}

// Task handlers
type TaskProcessor struct {
	media  *media.Client
	images *mongo.Collection
}

func NewTaskProcessor(mediaClient *media.Client, db *mongo.Database) *TaskProcessor {
	return &TaskProcessor{
		media:  mediaClient,
		images: db.Collection("images"),
	}
}

// HandleAssetDestroy removes a deleted image's asset from the media host.
func (p *TaskProcessor) HandleAssetDestroy(ctx context.Context, t *asynq.Task) error {
	var payload AssetDestroyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	if err := p.media.Destroy(ctx, payload.PublicID); err != nil {
		return err // Will retry
	}

	logger.Info("asset destroyed on media host", "public_id", payload.PublicID)
	return nil
}

// HandleGalleryReconcile drops image documents whose asset vanished from
// the media host. Recent records are left alone; the search index lags
// behind uploads.
func (p *TaskProcessor) HandleGalleryReconcile(ctx context.Context, t *asynq.Task) error {
	ids, err := p.media.SearchFolder(ctx, "")
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}

	cutoff := time.Now().Add(-reconcileGrace)
	cursor, err := p.images.Find(ctx, bson.M{"updated_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var stale []models.Image
	if err := cursor.All(ctx, &stale); err != nil {
		return err
	}

	orphans := make([]primitive.ObjectID, 0)
	for _, img := range stale {
		if !known[img.PublicID] {
			orphans = append(orphans, img.ID)
		}
	}

	if len(orphans) == 0 {
		logger.Info("gallery reconcile: no orphans")
		return nil
	}

	result, err := p.images.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": orphans}})
	if err != nil {
		return err
	}

	logger.Info("gallery reconcile: removed orphaned records", "count", result.DeletedCount)
	return nil
}
