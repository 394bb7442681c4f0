package worker

import (
	"context"
	"fmt"
	"strings"

	"github.com/pizzaria-cajazeiras/internal/logger"
	"github.com/pizzaria-cajazeiras/internal/provider"
	"github.com/pizzaria-cajazeiras/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderPlaced, c.handleOrderPlaced)
}

func (c *Consumer) handleOrderPlaced(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_placed_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseOrderPlacedPayload(task)
	if err != nil {
		logger.Warnw("worker_order_placed_unmarshal_failed", "error", err)
		return err
	}
	if strings.TrimSpace(payload.OrderNo) == "" {
		logger.Debugw("worker_order_placed_skip_invalid_payload", "client_id", payload.ClientID)
		return nil
	}
	logger.Infow("worker_order_placed_notified",
		"client_id", payload.ClientID,
		"order_no", payload.OrderNo,
		"item_count", payload.ItemCount,
		"total", payload.Total,
		"payment_method", payload.PaymentMethod,
		"placed_at", payload.PlacedAt,
		"message", buildKitchenMessage(payload),
	)
	return nil
}

// buildKitchenMessage 生成厨房通知文案
func buildKitchenMessage(payload queue.OrderPlacedPayload) string {
	name := strings.TrimSpace(payload.CustomerName)
	if name == "" {
		name = "cliente"
	}
	msg := fmt.Sprintf("Pedido %s de %s: %d item(s), total R$ %s", payload.OrderNo, name, payload.ItemCount, payload.Total)
	if method := strings.TrimSpace(payload.PaymentMethod); method != "" {
		msg += ", pagamento " + method
	}
	if phone := strings.TrimSpace(payload.Phone); phone != "" {
		msg += ", contato " + phone
	}
	return msg
}
