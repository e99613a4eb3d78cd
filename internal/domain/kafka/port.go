package kafka

import (
	"context"
	"time"

	"github.com/NordCoder/Restora/internal/domain/event"
)

// FanoutRequested is the queue message consumed by the notification worker.
type FanoutRequested struct {
	IdempotencyKey string      `json:"idempotency_key"`
	RequestedAt    time.Time   `json:"requested_at"`
	Event          event.Event `json:"event"`
}

type FanoutEvents interface {
	PublishFanoutRequested(ctx context.Context, msg FanoutRequested) error
}
