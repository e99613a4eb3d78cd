package settings

import (
	"context"
	"fmt"

	"github.com/NordCoder/Restora/internal/domain/setting"
	"github.com/NordCoder/Restora/internal/services/api-gateway/apierr"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Keys are dotted type codes such as "job.assigned_to_me".
type keyInput struct {
	Key string `validate:"required,max=128,contains=.,excludesall= /\\"`
}

type Usecase struct {
	repo setting.Repo
}

func NewUsecase(repo setting.Repo) *Usecase {
	return &Usecase{repo: repo}
}

func ParseKey(raw string) (setting.Key, error) {
	if err := validate.Struct(keyInput{Key: raw}); err != nil {
		return "", fmt.Errorf("%w: setting key %q", apierr.ErrInvalid, raw)
	}
	return setting.Key(raw), nil
}

func (u *Usecase) List(ctx context.Context, userID int64) ([]*setting.Setting, error) {
	return u.repo.ListByUser(ctx, userID)
}

func (u *Usecase) Put(ctx context.Context, userID int64, key setting.Key, value bool) error {
	return u.repo.Put(ctx, userID, key, value)
}

// Reset drops the stored row so the key falls back to its default.
func (u *Usecase) Reset(ctx context.Context, userID int64, key setting.Key) (bool, error) {
	return u.repo.Delete(ctx, userID, key)
}
