package notifications

import (
	"context"
	"fmt"

	"github.com/NordCoder/Restora/internal/domain/event"
	"github.com/NordCoder/Restora/internal/domain/notification"
	"github.com/NordCoder/Restora/internal/services/api-gateway/apierr"
)

const maxTargetLimit = 200

type Usecase struct {
	repo notification.Repo
}

func NewUsecase(repo notification.Repo) *Usecase {
	return &Usecase{repo: repo}
}

func (u *Usecase) ListUnread(ctx context.Context, userID int64) ([]*notification.Notification, error) {
	return u.repo.ListUnread(ctx, userID)
}

// Read marks one of the requester's notifications read and returns it.
// Reading it again keeps the first read time.
func (u *Usecase) Read(ctx context.Context, requesterID, id int64) (*notification.Notification, error) {
	n, err := u.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != requesterID {
		return nil, apierr.ErrForbidden
	}
	if n.IsRead() {
		return n, nil
	}
	if _, err := u.repo.MarkRead(ctx, id); err != nil {
		return nil, err
	}
	return u.repo.Get(ctx, id)
}

func (u *Usecase) ReadAll(ctx context.Context, userID int64) (int64, error) {
	return u.repo.MarkAllRead(ctx, userID)
}

// ListByTarget lists the requester's own notifications about target.
func (u *Usecase) ListByTarget(ctx context.Context, requesterID int64, target event.Ref, limit int) ([]*notification.Notification, error) {
	if target.ID <= 0 || target.Type == "" {
		return nil, fmt.Errorf("%w: target", apierr.ErrInvalid)
	}
	if limit > maxTargetLimit {
		limit = maxTargetLimit
	}
	return u.repo.ListByTarget(ctx, requesterID, target, limit)
}
