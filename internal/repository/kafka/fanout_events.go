package kafka

import (
	"context"
	"strconv"

	"github.com/NordCoder/Restora/internal/domain/event"
	"github.com/NordCoder/Restora/internal/domain/kafka"
)

type FanoutEventsKafka struct {
	p *Producer
}

func NewFanoutEventsKafka(p *Producer) *FanoutEventsKafka { return &FanoutEventsKafka{p: p} }

var _ kafka.FanoutEvents = (*FanoutEventsKafka)(nil)

func (e *FanoutEventsKafka) PublishFanoutRequested(ctx context.Context, msg kafka.FanoutRequested) error {
	return e.p.PublishJSON(ctx, KeyFromRef(msg.Event.Target.Ref()), msg)
}

// KeyFromRef builds the partition key "type:id".
func KeyFromRef(ref event.Ref) []byte {
	return []byte(ref.Type + ":" + strconv.FormatInt(ref.ID, 10))
}
