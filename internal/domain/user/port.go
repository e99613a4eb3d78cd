package user

import (
	"context"

	"github.com/NordCoder/Restora/internal/domain/event"
)

type Repo interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	// ListPage returns up to limit users with id > afterID, ordered by id.
	ListPage(ctx context.Context, afterID int64, limit int) ([]*User, error)
}

type Followers interface {
	Followers(ctx context.Context, target event.Ref) ([]*User, error)
	Follow(ctx context.Context, userID int64, target event.Ref) error
	Unfollow(ctx context.Context, userID int64, target event.Ref) (bool, error)
}
