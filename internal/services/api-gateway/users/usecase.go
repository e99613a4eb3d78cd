package users

import (
	"context"
	"fmt"

	"github.com/NordCoder/Restora/internal/domain/event"
	"github.com/NordCoder/Restora/internal/domain/setting"
	"github.com/NordCoder/Restora/internal/domain/tx"
	"github.com/NordCoder/Restora/internal/domain/user"
	"github.com/NordCoder/Restora/internal/services/api-gateway/apierr"
)

type Usecase struct {
	users     user.Repo
	followers user.Followers
	settings  setting.Repo
	tx        tx.Transactor
}

func NewUsecase(users user.Repo, followers user.Followers, settings setting.Repo, t tx.Transactor) *Usecase {
	return &Usecase{users: users, followers: followers, settings: settings, tx: t}
}

// Register creates the user together with its seeded opt-outs.
func (u *Usecase) Register(ctx context.Context, name, email string) (*user.User, error) {
	usr := &user.User{Name: name, Email: email}
	err := u.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := u.users.Create(ctx, usr); err != nil {
			return err
		}
		if err := u.settings.SeedDefaults(ctx, usr.ID, setting.SeededOptOuts); err != nil {
			return fmt.Errorf("seed settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return usr, nil
}

func (u *Usecase) Follow(ctx context.Context, userID int64, target event.Ref) error {
	if err := checkRef(target); err != nil {
		return err
	}
	return u.followers.Follow(ctx, userID, target)
}

func (u *Usecase) Unfollow(ctx context.Context, userID int64, target event.Ref) (bool, error) {
	if err := checkRef(target); err != nil {
		return false, err
	}
	return u.followers.Unfollow(ctx, userID, target)
}

func checkRef(r event.Ref) error {
	if r.ID <= 0 || r.Type == "" {
		return fmt.Errorf("%w: target %s#%d", apierr.ErrInvalid, r.Type, r.ID)
	}
	return nil
}
