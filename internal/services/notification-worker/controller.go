package worker

import (
	"context"
	"errors"

	"github.com/NordCoder/Restora/internal/domain/event"
	"github.com/NordCoder/Restora/internal/domain/kafka"
	"github.com/NordCoder/Restora/internal/obs"
	"github.com/NordCoder/Restora/internal/obs/retry"
	kafkax "github.com/NordCoder/Restora/internal/repository/kafka"
	fanout "github.com/NordCoder/Restora/internal/services/notification"
	"go.uber.org/zap"
)

type Dispatcher interface {
	Handle(ctx context.Context, ev event.Event) (fanout.Result, error)
}

// Controller feeds queued fan-out requests to the dispatcher.
type Controller struct {
	Log    *zap.Logger
	Sub    *kafkax.Consumer
	UC     Dispatcher
	Policy retry.Policy
}

func NewController(log *zap.Logger, sub *kafkax.Consumer, uc Dispatcher) *Controller {
	log = obs.Component(log, "worker.controller")
	return &Controller{
		Log:    log,
		Sub:    sub,
		UC:     uc,
		Policy: retry.FanoutPolicy(log, isPermanent),
	}
}

func (c *Controller) Run(ctx context.Context) error {
	return c.Sub.Consume(ctx, kafkax.JSONHandler(c.HandleFanout))
}

// HandleFanout runs one request with retries. Malformed events are dropped
// since no amount of redelivery fixes them.
func (c *Controller) HandleFanout(ctx context.Context, _ []byte, msg kafka.FanoutRequested) error {
	log := obs.WithTrace(ctx, c.Log).With(zap.String("idempotency_key", msg.IdempotencyKey))

	err := retry.Do(ctx, func() error {
		_, err := c.UC.Handle(ctx, msg.Event)
		return err
	}, c.Policy)
	if err != nil && isPermanent(err) {
		log.Warn("dropping invalid fanout request", zap.Error(err))
		return errors.Join(kafkax.ErrPoisonMessage, err)
	}
	return err
}

func isPermanent(err error) bool {
	return errors.Is(err, event.ErrInvalid)
}
