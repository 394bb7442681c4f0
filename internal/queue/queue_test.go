package queue

import (
	"context"
	"testing"
	"time"

	"github.com/pizzaria-cajazeiras/internal/config"
)

func TestDisabledClientSkipsEnqueue(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := client.EnqueueOrderPlaced(context.Background(), OrderPlacedPayload{OrderNo: "PZ1"}); err != nil {
		t.Fatalf("disabled client should skip enqueue, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close disabled client failed: %v", err)
	}
}

func TestOrderPlacedTaskPayload(t *testing.T) {
	placedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	task, err := NewOrderPlacedTask(OrderPlacedPayload{
		ClientID:  "tab-1",
		OrderNo:   "PZ20260301120000123456",
		ItemCount: 3,
		Total:     "69.00",
		PlacedAt:  placedAt,
	})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.Type() != TaskOrderPlaced {
		t.Fatalf("unexpected task type: %s", task.Type())
	}
	payload, err := ParseOrderPlacedPayload(task)
	if err != nil {
		t.Fatalf("parse payload failed: %v", err)
	}
	if payload.OrderNo != "PZ20260301120000123456" || payload.ItemCount != 3 || !payload.PlacedAt.Equal(placedAt) {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(nil)
	if opt.Addr != "127.0.0.1:6379" {
		t.Fatalf("unexpected addr: %s", opt.Addr)
	}
	if cfg.Concurrency != 10 || cfg.Queues[DefaultQueue] != 1 {
		t.Fatalf("unexpected server config: %+v", cfg)
	}

	opt, cfg = BuildServerConfig(&config.QueueConfig{Host: "redis", Port: 6380, DB: 2, Concurrency: 3, Queues: map[string]int{"default": 5}})
	if opt.Addr != "redis:6380" || opt.DB != 2 || cfg.Concurrency != 3 || cfg.Queues["default"] != 5 {
		t.Fatalf("unexpected overrides: %+v %+v", opt, cfg)
	}
}
