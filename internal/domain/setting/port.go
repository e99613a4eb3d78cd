package setting

import "context"

type Repo interface {
	Lookup(ctx context.Context, userID int64, key Key) (Preference, error)
	Put(ctx context.Context, userID int64, key Key, value bool) error
	Delete(ctx context.Context, userID int64, key Key) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]*Setting, error)
	// SeedDefaults stores false for keys the user has no row for yet.
	SeedDefaults(ctx context.Context, userID int64, keys []Key) error
}
