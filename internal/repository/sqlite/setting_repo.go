package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/NordCoder/Restora/internal/domain/setting"
	"github.com/jmoiron/sqlx"
)

var _ setting.Repo = (*SettingRepo)(nil)

type SettingRepo struct{ db *DB }

func NewSettingRepo(db *DB) *SettingRepo { return &SettingRepo{db: db} }

const (
	qSettingLookup = `
SELECT value FROM user_notification_settings
WHERE user_id = ? AND type = ?;`

	qSettingPut = `
INSERT INTO user_notification_settings (user_id, type, value, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (user_id, type) DO UPDATE
SET value = excluded.value, updated_at = excluded.updated_at;`

	qSettingSeed = `
INSERT OR IGNORE INTO user_notification_settings (user_id, type, value, updated_at)
VALUES (?, ?, 0, ?);`

	qSettingDelete = `
DELETE FROM user_notification_settings
WHERE user_id = ? AND type = ?;`

	qSettingList = `
SELECT user_id, type, value, updated_at
FROM user_notification_settings
WHERE user_id = ?
ORDER BY type;`
)

func (r *SettingRepo) Lookup(ctx context.Context, userID int64, key setting.Key) (setting.Preference, error) {
	var value bool
	err := sqlx.GetContext(ctx, r.db.ext(ctx), &value, qSettingLookup, userID, string(key))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return setting.Unset, nil
	case err != nil:
		return setting.Unset, fmt.Errorf("lookup setting %s: %w", key, err)
	}
	return setting.PreferenceOf(value), nil
}

func (r *SettingRepo) Put(ctx context.Context, userID int64, key setting.Key, value bool) error {
	if _, err := r.db.ext(ctx).ExecContext(ctx, qSettingPut, userID, string(key), value, ts(now())); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("put setting for user %d: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("put setting %s: %w", key, err)
	}
	return nil
}

func (r *SettingRepo) Delete(ctx context.Context, userID int64, key setting.Key) (bool, error) {
	res, err := r.db.ext(ctx).ExecContext(ctx, qSettingDelete, userID, string(key))
	if err != nil {
		return false, fmt.Errorf("delete setting %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete setting %s: %w", key, err)
	}
	return n > 0, nil
}

func (r *SettingRepo) ListByUser(ctx context.Context, userID int64) ([]*setting.Setting, error) {
	out := make([]*setting.Setting, 0)
	if err := sqlx.SelectContext(ctx, r.db.ext(ctx), &out, qSettingList, userID); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return out, nil
}

func (r *SettingRepo) SeedDefaults(ctx context.Context, userID int64, keys []setting.Key) error {
	at := ts(now())
	ext := r.db.ext(ctx)
	for _, k := range keys {
		if _, err := ext.ExecContext(ctx, qSettingSeed, userID, string(k), at); err != nil {
			return fmt.Errorf("seed setting %s: %w", k, err)
		}
	}
	return nil
}
