package worker

import (
	"context"
	"testing"
	"time"

	"github.com/pizzaria-cajazeiras/internal/config"
	"github.com/pizzaria-cajazeiras/internal/queue"

	"github.com/hibiken/asynq"
)

func TestBuildKitchenMessage(t *testing.T) {
	got := buildKitchenMessage(queue.OrderPlacedPayload{
		OrderNo:       "PZ20260301120000123456",
		CustomerName:  " Maria ",
		Phone:         "(83) 99999-0000",
		ItemCount:     3,
		Total:         "97.70",
		PaymentMethod: "pix",
	})
	want := "Pedido PZ20260301120000123456 de Maria: 3 item(s), total R$ 97.70, pagamento pix, contato (83) 99999-0000"
	if got != want {
		t.Fatalf("unexpected message, want %q, got %q", want, got)
	}
}

func TestBuildKitchenMessageFallbackName(t *testing.T) {
	got := buildKitchenMessage(queue.OrderPlacedPayload{OrderNo: "PZ1", ItemCount: 1, Total: "30.00"})
	want := "Pedido PZ1 de cliente: 1 item(s), total R$ 30.00"
	if got != want {
		t.Fatalf("unexpected message, want %q, got %q", want, got)
	}
}

func TestHandleOrderPlaced(t *testing.T) {
	consumer := NewConsumer(nil)
	task, err := queue.NewOrderPlacedTask(queue.OrderPlacedPayload{
		ClientID:  "device-1",
		OrderNo:   "PZ1",
		ItemCount: 2,
		Total:     "60.00",
		PlacedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleOrderPlaced(context.Background(), task); err != nil {
		t.Fatalf("handle order placed failed: %v", err)
	}
	if err := consumer.handleOrderPlaced(context.Background(), asynq.NewTask(queue.TaskOrderPlaced, []byte("{"))); err == nil {
		t.Fatalf("expected unmarshal error for broken payload")
	}
	if err := consumer.handleOrderPlaced(context.Background(), asynq.NewTask(queue.TaskOrderPlaced, []byte(`{"order_no":" "}`))); err != nil {
		t.Fatalf("payload without order number should be skipped, got %v", err)
	}
}

func TestNewServiceRequiresQueue(t *testing.T) {
	if _, err := NewService(&config.QueueConfig{Enabled: false}, NewConsumer(nil)); err == nil {
		t.Fatalf("expected error when queue disabled")
	}
	if _, err := NewService(&config.QueueConfig{Enabled: true}, nil); err == nil {
		t.Fatalf("expected error when consumer is nil")
	}
}
