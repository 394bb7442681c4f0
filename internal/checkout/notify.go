package checkout

import (
	"context"

	"github.com/pizzaria-cajazeiras/internal/queue"
)

// QueueNotifier 通过异步队列投递下单通知
type QueueNotifier struct {
	client *queue.Client
}

// NewQueueNotifier 创建队列通知器
func NewQueueNotifier(client *queue.Client) *QueueNotifier {
	return &QueueNotifier{client: client}
}

// OrderPlaced 投递 order:placed 任务
func (n *QueueNotifier) OrderPlaced(ctx context.Context, clientID string, order OrderSnapshot) error {
	if n == nil || !n.client.Enabled() {
		return nil
	}
	count := 0
	for _, item := range order.Items {
		count += item.Quantity
	}
	return n.client.EnqueueOrderPlaced(ctx, queue.OrderPlacedPayload{
		ClientID:      clientID,
		OrderNo:       order.OrderNo,
		CustomerName:  order.Customer.Name,
		Phone:         order.Customer.Phone,
		ItemCount:     count,
		Total:         order.Total.String(),
		PaymentMethod: order.PaymentMethod,
		PlacedAt:      order.PlacedAt,
	})
}
