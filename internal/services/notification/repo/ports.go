package repo

import (
	"context"

	"github.com/NordCoder/Restora/internal/domain/event"
	"github.com/NordCoder/Restora/internal/domain/job"
	"github.com/NordCoder/Restora/internal/domain/notification"
	"github.com/NordCoder/Restora/internal/domain/setting"
	"github.com/NordCoder/Restora/internal/domain/user"
)

// The dispatcher only reads settings, jobs, users and followers, and only
// appends notifications. Domain repos satisfy these directly.

type SettingsLookup interface {
	Lookup(ctx context.Context, userID int64, key setting.Key) (setting.Preference, error)
}

type JobReader interface {
	GetByID(ctx context.Context, id int64) (*job.Job, error)
}

type UserPager interface {
	ListPage(ctx context.Context, afterID int64, limit int) ([]*user.User, error)
}

type FollowerReader interface {
	Followers(ctx context.Context, target event.Ref) ([]*user.User, error)
}

type NotificationWriter interface {
	Create(ctx context.Context, n *notification.Notification) error
	AttachTarget(ctx context.Context, notificationID int64, target event.Ref) error
}
