package notification

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/NordCoder/Restora/internal/domain/event"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Notification is one recipient's copy of an event. ReadAt is nil until the
// recipient reads it. Retention is driven by ExpiresAt alone; a nil
// ExpiresAt is never purged.
type Notification struct {
	ID        int64      `json:"id" db:"id"`
	UserID    int64      `json:"user_id" db:"user_id" validate:"gt=0"`
	Type      string     `json:"type" db:"type" validate:"required"`
	Body      string     `json:"body" db:"body" validate:"omitempty,json"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	ReadAt    *time.Time `json:"read_at,omitempty" db:"read_at"`
}

func (n *Notification) Validate() error {
	if err := validate.Struct(n); err != nil {
		return fmt.Errorf("invalid notification: %w", err)
	}
	return nil
}

func (n *Notification) IsRead() bool { return n.ReadAt != nil }

type Clock interface {
	Now() time.Time
}

// Broadcast is the real-time message published after a notification is stored.
type Broadcast struct {
	Channel string  `json:"channel"`
	Event   string  `json:"event"`
	Data    Payload `json:"data"`
}

type Payload struct {
	Notification PayloadNotification `json:"notification"`
	Target       PayloadTarget       `json:"target"`
	Context      *event.Ref          `json:"context,omitempty"`
}

type PayloadNotification struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
	Body string `json:"body"`
}

type PayloadTarget struct {
	ID            int64    `json:"id"`
	Type          string   `json:"type"`
	UpdatedFields []string `json:"updated_fields,omitempty"`
}

func Channel(userID int64) string { return "user-" + strconv.FormatInt(userID, 10) }

func NewBroadcast(n *Notification, ev event.Event) Broadcast {
	b := Broadcast{
		Channel: Channel(n.UserID),
		Event:   n.Type,
		Data: Payload{
			Notification: PayloadNotification{ID: n.ID, Type: n.Type, Body: n.Body},
			Target: PayloadTarget{
				ID:            ev.Target.ID,
				Type:          ev.Target.Type,
				UpdatedFields: ev.UpdatedFields,
			},
		},
	}
	if ev.Context != nil {
		ref := ev.Context.Ref()
		b.Data.Context = &ref
	}
	return b
}

type Broadcaster interface {
	Broadcast(ctx context.Context, b Broadcast) error
}

// Subscription delivers raw broadcast frames for one channel until closed.
type Subscription interface {
	Messages() <-chan []byte
	Close() error
}

type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
