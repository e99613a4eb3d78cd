package sqlite

import (
	"context"
	"fmt"

	"github.com/NordCoder/Restora/internal/domain/repoerr"
	"github.com/NordCoder/Restora/migrations"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

var (
	ErrNotFound = repoerr.ErrNotFound
	ErrConflict = repoerr.ErrConflict
)

// DB is a single-connection SQLite handle. SQLite serialises writers anyway,
// and one connection keeps ":memory:" databases alive for the handle's life.
type DB struct {
	X *sqlx.DB
}

// Open opens (or creates) the database at path and applies migrations.
func Open(ctx context.Context, path string) (*DB, error) {
	x, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	x.SetMaxOpenConns(1)
	x.SetMaxIdleConns(1)
	x.SetConnMaxLifetime(0)

	if _, err := x.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		_ = x.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if path != ":memory:" {
		if _, err := x.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = x.Close()
			return nil, fmt.Errorf("enabling WAL mode: %w", err)
		}
	}

	db := &DB{X: x}
	if err := db.migrate(ctx); err != nil {
		_ = x.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

func (db *DB) migrate(ctx context.Context) error {
	fsys, err := migrations.FS("sqlite")
	if err != nil {
		return err
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, db.X.DB, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	_, err = p.Up(ctx)
	return err
}

func (db *DB) Close() error { return db.X.Close() }

func (db *DB) Ping(ctx context.Context) error { return db.X.PingContext(ctx) }
