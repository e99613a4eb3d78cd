package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/NordCoder/Restora/internal/domain/event"
	"github.com/NordCoder/Restora/internal/domain/user"
	"github.com/jackc/pgx/v5"
)

var (
	_ user.Repo      = (*UserRepo)(nil)
	_ user.Followers = (*UserRepo)(nil)
)

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const (
	qUserInsert = `
INSERT INTO users (name, email)
VALUES ($1, $2)
RETURNING id, name, email, created_at;`

	qUserByID = `
SELECT id, name, email, created_at
FROM users
WHERE id = $1;`

	qUserPage = `
SELECT id, name, email, created_at
FROM users
WHERE id > $1
ORDER BY id
LIMIT $2;`

	qFollowers = `
SELECT u.id, u.name, u.email, u.created_at
FROM followers f
JOIN users u ON u.id = f.user_id
WHERE f.target_type = $1 AND f.target_id = $2
ORDER BY u.id;`

	qFollow = `
INSERT INTO followers (user_id, target_type, target_id)
VALUES ($1, $2, $3)
ON CONFLICT DO NOTHING;`

	qUnfollow = `
DELETE FROM followers
WHERE user_id = $1 AND target_type = $2 AND target_id = $3;`
)

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if err := scanUser(r.db.execQueryer(ctx).QueryRow(ctx, qUserInsert, u.Name, u.Email), u); err != nil {
		if pgCode(err) == codeUniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("user insert: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.execQueryer(ctx).QueryRow(ctx, qUserByID, id), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ListPage(ctx context.Context, afterID int64, limit int) ([]*user.User, error) {
	if limit <= 0 {
		limit = 100
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	return r.list(ctx, qUserPage, afterID, limit)
}

func (r *UserRepo) Followers(ctx context.Context, target event.Ref) ([]*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	return r.list(ctx, qFollowers, target.Type, target.ID)
}

func (r *UserRepo) Follow(ctx context.Context, userID int64, target event.Ref) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.execQueryer(ctx).Exec(ctx, qFollow, userID, target.Type, target.ID); err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return fmt.Errorf("follow as user %d: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("follow %s#%d: %w", target.Type, target.ID, err)
	}
	return nil
}

func (r *UserRepo) Unfollow(ctx context.Context, userID int64, target event.Ref) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qUnfollow, userID, target.Type, target.ID)
	if err != nil {
		return false, fmt.Errorf("unfollow %s#%d: %w", target.Type, target.ID, err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *UserRepo) list(ctx context.Context, q string, args ...any) ([]*user.User, error) {
	rows, err := r.db.execQueryer(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	out := make([]*user.User, 0)
	for rows.Next() {
		var u user.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func scanUser(row pgx.Row, out *user.User) error {
	if err := row.Scan(&out.ID, &out.Name, &out.Email, &out.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan user: %w", err)
	}
	return nil
}
