package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/NordCoder/Restora/internal/domain/notification"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

var (
	_ notification.Broadcaster = (*Bus)(nil)
	_ notification.Subscriber  = (*Bus)(nil)
)

// Bus publishes broadcasts on Redis pub/sub and subscribes to them.
// Channel names are prefixed so several deployments can share a server.
type Bus struct {
	client *redis.Client
	prefix string
	log    *zap.Logger
}

func NewBus(client *redis.Client, prefix string, log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{client: client, prefix: prefix, log: log.With(zap.String("component", "redis.bus"))}
}

func (b *Bus) channel(name string) string { return b.prefix + name }

func (b *Bus) Broadcast(ctx context.Context, msg notification.Broadcast) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal broadcast: %w", err)
	}
	receivers, err := b.client.Publish(ctx, b.channel(msg.Channel), raw).Result()
	if err != nil {
		return fmt.Errorf("publish %s: %w", msg.Channel, err)
	}
	b.log.Debug("broadcast published",
		zap.String("channel", msg.Channel),
		zap.String("event", msg.Event),
		zap.Int64("receivers", receivers),
	)
	return nil
}

func (b *Bus) Subscribe(ctx context.Context, channel string) (notification.Subscription, error) {
	ps := b.client.Subscribe(ctx, b.channel(channel))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	s := &subscription{ps: ps, out: make(chan []byte, 16)}
	go s.pump()
	return s, nil
}

type subscription struct {
	ps  *redis.PubSub
	out chan []byte
}

func (s *subscription) pump() {
	defer close(s.out)
	for m := range s.ps.Channel() {
		s.out <- []byte(m.Payload)
	}
}

func (s *subscription) Messages() <-chan []byte { return s.out }

func (s *subscription) Close() error { return s.ps.Close() }
