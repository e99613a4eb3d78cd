package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/NordCoder/Restora/internal/domain/event"
	"github.com/NordCoder/Restora/internal/domain/user"
	"github.com/jmoiron/sqlx"
)

var (
	_ user.Repo      = (*UserRepo)(nil)
	_ user.Followers = (*UserRepo)(nil)
)

type UserRepo struct{ db *DB }

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const (
	qUserInsert = `INSERT INTO users (name, email, created_at) VALUES (?, ?, ?);`

	qUserGet = `SELECT id, name, email, created_at FROM users WHERE id = ?;`

	qUserPage = `
SELECT id, name, email, created_at
FROM users
WHERE id > ?
ORDER BY id
LIMIT ?;`

	qFollowers = `
SELECT u.id, u.name, u.email, u.created_at
FROM users u
JOIN followers f ON f.user_id = u.id
WHERE f.target_type = ? AND f.target_id = ?
ORDER BY u.id;`

	qFollow = `
INSERT OR IGNORE INTO followers (user_id, target_type, target_id)
VALUES (?, ?, ?);`

	qUnfollow = `
DELETE FROM followers
WHERE user_id = ? AND target_type = ? AND target_id = ?;`
)

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now()
	}
	res, err := r.db.ext(ctx).ExecContext(ctx, qUserInsert, u.Name, u.Email, ts(u.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %q: %w", u.Email, ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	u.ID = id
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var u user.User
	if err := sqlx.GetContext(ctx, r.db.ext(ctx), &u, qUserGet, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) ListPage(ctx context.Context, afterID int64, limit int) ([]*user.User, error) {
	out := make([]*user.User, 0, limit)
	if err := sqlx.SelectContext(ctx, r.db.ext(ctx), &out, qUserPage, afterID, limit); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (r *UserRepo) Followers(ctx context.Context, target event.Ref) ([]*user.User, error) {
	out := make([]*user.User, 0)
	if err := sqlx.SelectContext(ctx, r.db.ext(ctx), &out, qFollowers, target.Type, target.ID); err != nil {
		return nil, fmt.Errorf("list followers: %w", err)
	}
	return out, nil
}

func (r *UserRepo) Follow(ctx context.Context, userID int64, target event.Ref) error {
	if _, err := r.db.ext(ctx).ExecContext(ctx, qFollow, userID, target.Type, target.ID); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("follow as user %d: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("follow: %w", err)
	}
	return nil
}

func (r *UserRepo) Unfollow(ctx context.Context, userID int64, target event.Ref) (bool, error) {
	res, err := r.db.ext(ctx).ExecContext(ctx, qUnfollow, userID, target.Type, target.ID)
	if err != nil {
		return false, fmt.Errorf("unfollow: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unfollow: %w", err)
	}
	return n > 0, nil
}
