package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/NordCoder/Restora/internal/domain/event"
	"github.com/NordCoder/Restora/internal/domain/notification"
	"github.com/jmoiron/sqlx"
)

var _ notification.Repo = (*NotificationRepo)(nil)

type NotificationRepo struct{ db *DB }

func NewNotificationRepo(db *DB) *NotificationRepo { return &NotificationRepo{db: db} }

const notifColumns = `id, user_id, type, body, created_at, expires_at, read_at`

const (
	qNotifInsert = `
INSERT INTO user_notifications (user_id, type, body, created_at, expires_at)
VALUES (?, ?, ?, ?, ?);`

	qNotifGet = `SELECT ` + notifColumns + ` FROM user_notifications WHERE id = ?;`

	qNotifMarkRead = `
UPDATE user_notifications
SET read_at = COALESCE(read_at, ?)
WHERE id = ?;`

	qNotifMarkAllRead = `
UPDATE user_notifications
SET read_at = ?
WHERE user_id = ? AND read_at IS NULL;`

	qNotifUnread = `
SELECT ` + notifColumns + `
FROM user_notifications
WHERE user_id = ? AND read_at IS NULL
ORDER BY id;`

	qNotifAttach = `
INSERT OR IGNORE INTO user_notification_targets (notification_id, target_type, target_id)
VALUES (?, ?, ?);`

	qNotifByTarget = `
SELECT n.id, n.user_id, n.type, n.body, n.created_at, n.expires_at, n.read_at
FROM user_notifications n
JOIN user_notification_targets t ON t.notification_id = n.id
WHERE n.user_id = ? AND t.target_type = ? AND t.target_id = ?
ORDER BY n.id DESC
LIMIT ?;`

	qNotifDeleteExpired = `
DELETE FROM user_notifications
WHERE id IN (
   SELECT id FROM user_notifications
   WHERE expires_at IS NOT NULL AND expires_at <= ?
   ORDER BY expires_at
   LIMIT ?
);`
)

func (r *NotificationRepo) Create(ctx context.Context, n *notification.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now()
	}
	res, err := r.db.ext(ctx).ExecContext(ctx, qNotifInsert,
		n.UserID, n.Type, n.Body, ts(n.CreatedAt), tsPtr(n.ExpiresAt))
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("insert notification for user %d: %w", n.UserID, ErrNotFound)
		}
		return fmt.Errorf("insert notification: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("notification id: %w", err)
	}
	n.ID = id
	return nil
}

func (r *NotificationRepo) Get(ctx context.Context, id int64) (*notification.Notification, error) {
	var n notification.Notification
	if err := sqlx.GetContext(ctx, r.db.ext(ctx), &n, qNotifGet, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return &n, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ext(ctx).ExecContext(ctx, qNotifMarkRead, ts(now()), id)
	if err != nil {
		return false, fmt.Errorf("mark read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark read: %w", err)
	}
	return n > 0, nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ext(ctx).ExecContext(ctx, qNotifMarkAllRead, ts(now()), userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return res.RowsAffected()
}

func (r *NotificationRepo) ListUnread(ctx context.Context, userID int64) ([]*notification.Notification, error) {
	out := make([]*notification.Notification, 0)
	if err := sqlx.SelectContext(ctx, r.db.ext(ctx), &out, qNotifUnread, userID); err != nil {
		return nil, fmt.Errorf("list unread: %w", err)
	}
	return out, nil
}

func (r *NotificationRepo) AttachTarget(ctx context.Context, notificationID int64, target event.Ref) error {
	if _, err := r.db.ext(ctx).ExecContext(ctx, qNotifAttach, notificationID, target.Type, target.ID); err != nil {
		return fmt.Errorf("attach target %s#%d: %w", target.Type, target.ID, err)
	}
	return nil
}

func (r *NotificationRepo) ListByTarget(ctx context.Context, userID int64, target event.Ref, limit int) ([]*notification.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	out := make([]*notification.Notification, 0)
	if err := sqlx.SelectContext(ctx, r.db.ext(ctx), &out, qNotifByTarget, userID, target.Type, target.ID, limit); err != nil {
		return nil, fmt.Errorf("list by target: %w", err)
	}
	return out, nil
}

func (r *NotificationRepo) DeleteExpired(ctx context.Context, at time.Time, limit int) (int64, error) {
	if limit <= 0 {
		limit = 500
	}
	res, err := r.db.ext(ctx).ExecContext(ctx, qNotifDeleteExpired, ts(at), limit)
	if err != nil {
		return 0, fmt.Errorf("delete expired: %w", err)
	}
	return res.RowsAffected()
}
