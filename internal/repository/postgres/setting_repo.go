package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/NordCoder/Restora/internal/domain/setting"
	"github.com/jackc/pgx/v5"
)

var _ setting.Repo = (*SettingRepo)(nil)

type SettingRepo struct{ db *DB }

func NewSettingRepo(db *DB) *SettingRepo { return &SettingRepo{db: db} }

const (
	qSettingLookup = `
SELECT value
FROM user_notification_settings
WHERE user_id = $1 AND type = $2;`

	qSettingPut = `
INSERT INTO user_notification_settings (user_id, type, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (user_id, type) DO UPDATE
SET value = excluded.value, updated_at = now();`

	qSettingDelete = `
DELETE FROM user_notification_settings
WHERE user_id = $1 AND type = $2;`

	qSettingByUser = `
SELECT user_id, type, value, updated_at
FROM user_notification_settings
WHERE user_id = $1
ORDER BY type;`

	qSettingSeed = `
INSERT INTO user_notification_settings (user_id, type, value, updated_at)
SELECT $1, k, FALSE, now()
FROM unnest($2::text[]) AS k
ON CONFLICT (user_id, type) DO NOTHING;`
)

func (r *SettingRepo) Lookup(ctx context.Context, userID int64, key setting.Key) (setting.Preference, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var value bool
	err := r.db.execQueryer(ctx).QueryRow(ctx, qSettingLookup, userID, string(key)).Scan(&value)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return setting.Unset, nil
	case err != nil:
		return setting.Unset, fmt.Errorf("lookup setting %s: %w", key, err)
	}
	return setting.PreferenceOf(value), nil
}

func (r *SettingRepo) Put(ctx context.Context, userID int64, key setting.Key, value bool) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.execQueryer(ctx).Exec(ctx, qSettingPut, userID, string(key), value); err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return fmt.Errorf("put setting for user %d: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("put setting %s: %w", key, err)
	}
	return nil
}

func (r *SettingRepo) Delete(ctx context.Context, userID int64, key setting.Key) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qSettingDelete, userID, string(key))
	if err != nil {
		return false, fmt.Errorf("delete setting %s: %w", key, err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *SettingRepo) ListByUser(ctx context.Context, userID int64) ([]*setting.Setting, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qSettingByUser, userID)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	out := make([]*setting.Setting, 0)
	for rows.Next() {
		var (
			s   setting.Setting
			key string
		)
		if err := rows.Scan(&s.UserID, &key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		s.Key = setting.Key(key)
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *SettingRepo) SeedDefaults(ctx context.Context, userID int64, keys []setting.Key) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, string(k))
	}
	if _, err := r.db.execQueryer(ctx).Exec(ctx, qSettingSeed, userID, names); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	return nil
}
