package queue

import (
	"encoding/json"
	"time"

	"github.com/pizzaria-cajazeiras/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderPlaced 下单完成通知任务
	TaskOrderPlaced = constants.TaskOrderPlaced
)

// OrderPlacedPayload 下单完成任务载荷
type OrderPlacedPayload struct {
	ClientID      string    `json:"client_id"`
	OrderNo       string    `json:"order_no"`
	CustomerName  string    `json:"customer_name"`
	Phone         string    `json:"phone"`
	ItemCount     int       `json:"item_count"`
	Total         string    `json:"total"`
	PaymentMethod string    `json:"payment_method"`
	PlacedAt      time.Time `json:"placed_at"`
}

// NewOrderPlacedTask 创建下单完成任务
func NewOrderPlacedTask(payload OrderPlacedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderPlaced, body), nil
}

// ParseOrderPlacedPayload 解析下单完成任务载荷
func ParseOrderPlacedPayload(task *asynq.Task) (OrderPlacedPayload, error) {
	var payload OrderPlacedPayload
	if task == nil {
		return payload, nil
	}
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}
