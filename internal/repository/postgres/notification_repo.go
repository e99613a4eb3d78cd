package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NordCoder/Restora/internal/domain/event"
	"github.com/NordCoder/Restora/internal/domain/notification"
	"github.com/jackc/pgx/v5"
)

var _ notification.Repo = (*NotificationRepo)(nil)

type NotificationRepo struct{ db *DB }

func NewNotificationRepo(db *DB) *NotificationRepo { return &NotificationRepo{db: db} }

const notifColumns = `id, user_id, type, body, created_at, expires_at, read_at`

const (
	qNotifInsert = `
INSERT INTO user_notifications (user_id, type, body, created_at, expires_at)
VALUES ($1, $2, $3, COALESCE($4, now()), $5)
RETURNING id, created_at;`

	qNotifGet = `
SELECT ` + notifColumns + `
FROM user_notifications
WHERE id = $1;`

	qNotifMarkRead = `
UPDATE user_notifications
SET read_at = COALESCE(read_at, now())
WHERE id = $1;`

	qNotifMarkAllRead = `
UPDATE user_notifications
SET read_at = now()
WHERE user_id = $1 AND read_at IS NULL;`

	qNotifUnread = `
SELECT ` + notifColumns + `
FROM user_notifications
WHERE user_id = $1 AND read_at IS NULL
ORDER BY id;`

	qNotifAttach = `
INSERT INTO user_notification_targets (notification_id, target_type, target_id)
VALUES ($1, $2, $3)
ON CONFLICT DO NOTHING;`

	qNotifByTarget = `
SELECT n.id, n.user_id, n.type, n.body, n.created_at, n.expires_at, n.read_at
FROM user_notifications n
JOIN user_notification_targets t ON t.notification_id = n.id
WHERE n.user_id = $1 AND t.target_type = $2 AND t.target_id = $3
ORDER BY n.id DESC
LIMIT $4;`

	qNotifDeleteExpired = `
DELETE FROM user_notifications
WHERE id IN (
   SELECT id FROM user_notifications
   WHERE expires_at IS NOT NULL AND expires_at <= $1
   ORDER BY expires_at
   LIMIT $2
);`
)

func scanNotification(row pgx.Row, n *notification.Notification) error {
	if err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Body, &n.CreatedAt, &n.ExpiresAt, &n.ReadAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan notification: %w", err)
	}
	return nil
}

func (r *NotificationRepo) Create(ctx context.Context, n *notification.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	eq := r.db.execQueryer(ctx)
	if err := eq.QueryRow(ctx, qNotifInsert,
		n.UserID,
		n.Type,
		n.Body,
		nullTime(n.CreatedAt),
		n.ExpiresAt,
	).Scan(&n.ID, &n.CreatedAt); err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return fmt.Errorf("insert notification for user %d: %w", n.UserID, ErrNotFound)
		}
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepo) Get(ctx context.Context, id int64) (*notification.Notification, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var n notification.Notification
	if err := scanNotification(r.db.execQueryer(ctx).QueryRow(ctx, qNotifGet, id), &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qNotifMarkRead, id)
	if err != nil {
		return false, fmt.Errorf("mark read: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qNotifMarkAllRead, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func (r *NotificationRepo) ListUnread(ctx context.Context, userID int64) ([]*notification.Notification, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	return r.list(ctx, qNotifUnread, userID)
}

func (r *NotificationRepo) AttachTarget(ctx context.Context, notificationID int64, target event.Ref) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.execQueryer(ctx).Exec(ctx, qNotifAttach, notificationID, target.Type, target.ID); err != nil {
		return fmt.Errorf("attach target %s#%d: %w", target.Type, target.ID, err)
	}
	return nil
}

func (r *NotificationRepo) ListByTarget(ctx context.Context, userID int64, target event.Ref, limit int) ([]*notification.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	return r.list(ctx, qNotifByTarget, userID, target.Type, target.ID, limit)
}

func (r *NotificationRepo) DeleteExpired(ctx context.Context, now time.Time, limit int) (int64, error) {
	if limit <= 0 {
		limit = 500
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qNotifDeleteExpired, now, limit)
	if err != nil {
		return 0, fmt.Errorf("delete expired: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func (r *NotificationRepo) list(ctx context.Context, q string, args ...any) ([]*notification.Notification, error) {
	rows, err := r.db.execQueryer(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	out := make([]*notification.Notification, 0)
	for rows.Next() {
		var n notification.Notification
		if err := scanNotification(rows, &n); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
