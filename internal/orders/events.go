package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is broadcast on redis pub/sub after a transaction commits, once
// the new state is durable. Consumers subscribe per event type or to the
// firehose channel.
type OrderEvent struct {
	EventType  string    `json:"event_type"`
	OrderID    int64     `json:"order_id"`
	ClientID   string    `json:"client_id"`
	TotalPrice string    `json:"total_price"`
	Status     int32     `json:"status"`
	IsCustom   bool      `json:"is_custom"`
	Timestamp  time.Time `json:"timestamp"`
}

func (s *Service) publishOrderEvent(ctx context.Context, event OrderEvent) {
	if s.redis == nil {
		return
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("failed to marshal order event", zap.Error(err))
		return
	}

	channel := fmt.Sprintf("orders:events:%s", event.EventType)
	if err := s.redis.Publish(ctx, channel, eventJSON).Err(); err != nil {
		s.logger.Error("failed to publish order event",
			zap.String("channel", channel), zap.Error(err))
		return
	}

	if err := s.redis.Publish(ctx, "orders:events:all", eventJSON).Err(); err != nil {
		s.logger.Error("failed to publish order event",
			zap.String("channel", "orders:events:all"), zap.Error(err))
	}
}
