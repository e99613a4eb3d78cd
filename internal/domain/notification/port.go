package notification

import (
	"context"
	"time"

	"github.com/NordCoder/Restora/internal/domain/event"
)

type Repo interface {
	Create(ctx context.Context, n *Notification) error
	Get(ctx context.Context, id int64) (*Notification, error)
	// MarkRead reports false when no notification has this id. Reading an
	// already read notification is a no-op that reports true.
	MarkRead(ctx context.Context, id int64) (bool, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	ListUnread(ctx context.Context, userID int64) ([]*Notification, error)
	AttachTarget(ctx context.Context, notificationID int64, target event.Ref) error
	// ListByTarget returns userID's notifications about target, newest first.
	ListByTarget(ctx context.Context, userID int64, target event.Ref, limit int) ([]*Notification, error)
	DeleteExpired(ctx context.Context, now time.Time, limit int) (int64, error)
}
