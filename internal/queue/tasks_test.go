package queue

import (
	"encoding/json"
	"testing"

	"picvault-backend/internal/config"
)

func TestNewAssetDestroyTask(t *testing.T) {
	task, err := NewAssetDestroyTask("picvault/abc")
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if task.Type() != TaskAssetDestroy {
		t.Errorf("task type = %q, want %q", task.Type(), TaskAssetDestroy)
	}

	var payload AssetDestroyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.PublicID != "picvault/abc" {
		t.Errorf("public id = %q", payload.PublicID)
	}
}

// The queue must resolve URL-form REDIS_URL values the same way the cache
// client does, not treat them as a literal host:port.
func TestRedisOptFromURL(t *testing.T) {
	cfg := &config.Config{RedisURL: "redis://:pass@redis.example.com:6380/3"}

	opt, err := RedisOpt(cfg)
	if err != nil {
		t.Fatalf("resolve options: %v", err)
	}
	if opt.Addr != "redis.example.com:6380" {
		t.Errorf("addr = %q", opt.Addr)
	}
	if opt.Password != "pass" {
		t.Errorf("password = %q", opt.Password)
	}
	if opt.DB != 3 {
		t.Errorf("db = %d", opt.DB)
	}
}

func TestRedisOptHostPort(t *testing.T) {
	cfg := &config.Config{RedisURL: "localhost:6379", RedisPassword: "secret", RedisDB: 1}

	opt, err := RedisOpt(cfg)
	if err != nil {
		t.Fatalf("resolve options: %v", err)
	}
	if opt.Addr != "localhost:6379" || opt.Password != "secret" || opt.DB != 1 {
		t.Errorf("opt = %+v", opt)
	}
}

func TestNewGalleryReconcileTask(t *testing.T) {
	task := NewGalleryReconcileTask()
	if task.Type() != TaskGalleryReconcile {
		t.Errorf("task type = %q, want %q", task.Type(), TaskGalleryReconcile)
	}
}
