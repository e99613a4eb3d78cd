package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/NordCoder/Restora/internal/domain/event"
	"github.com/NordCoder/Restora/internal/domain/kafka"
	"github.com/NordCoder/Restora/internal/domain/notification"
	"github.com/NordCoder/Restora/internal/domain/outbox"
	"github.com/NordCoder/Restora/internal/domain/tx"
	"github.com/google/uuid"
)

// Usecase is the intake side of fan-out: domain actions record an event and
// the outbox relay hands it to the notification worker.
type Usecase struct {
	outbox outbox.Repository
	tx     tx.Transactor
	clock  notification.Clock
	newKey func() string
}

func NewUsecase(ob outbox.Repository, t tx.Transactor, clock notification.Clock) *Usecase {
	if clock == nil {
		clock = notification.SystemClock{}
	}
	return &Usecase{outbox: ob, tx: t, clock: clock, newKey: uuid.NewString}
}

// Record validates ev, stamps OccurredAt when missing and enqueues it.
// Called inside a caller's transaction, the enqueue commits with it.
func (u *Usecase) Record(ctx context.Context, ev event.Event) (string, error) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = u.clock.Now()
	}
	if err := ev.Validate(); err != nil {
		return "", err
	}
	key := u.newKey()
	if err := u.EnqueueFanout(ctx, key, ev); err != nil {
		return "", err
	}
	return key, nil
}

// EnqueueFanout stores a fan-out request under key. Re-enqueueing a key
// is a no-op.
func (u *Usecase) EnqueueFanout(ctx context.Context, key string, ev event.Event) error {
	data, err := json.Marshal(kafka.FanoutRequested{
		IdempotencyKey: key,
		RequestedAt:    u.clock.Now(),
		Event:          ev,
	})
	if err != nil {
		return fmt.Errorf("marshal fanout request: %w", err)
	}
	return u.tx.WithTx(ctx, func(ctx context.Context) error {
		return u.outbox.Enqueue(ctx, key, outbox.KindFanoutRequested, data)
	})
}
