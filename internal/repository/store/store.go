// Package store opens the configured storage backend and exposes its
// repositories through the domain ports.
package store

import (
	"context"
	"fmt"

	"github.com/NordCoder/Restora/internal/domain/job"
	"github.com/NordCoder/Restora/internal/domain/notification"
	"github.com/NordCoder/Restora/internal/domain/outbox"
	"github.com/NordCoder/Restora/internal/domain/setting"
	"github.com/NordCoder/Restora/internal/domain/tx"
	"github.com/NordCoder/Restora/internal/domain/user"
	"github.com/NordCoder/Restora/internal/obs"
	pg "github.com/NordCoder/Restora/internal/repository/postgres"
	"github.com/NordCoder/Restora/internal/repository/sqlite"
	"go.uber.org/zap"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver   string    `mapstructure:"driver"`
	Postgres pg.Config `mapstructure:"postgres"`
	SQLite   struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"sqlite"`
}

type Store struct {
	Notifications notification.Repo
	Settings      setting.Repo
	Users         user.Repo
	Followers     user.Followers
	Jobs          job.Repo
	Outbox        outbox.Repository
	Tx            tx.Transactor
	Ping          obs.HealthCheck

	close func() error
}

func (s *Store) Close() error { return s.close() }

// Open connects to the configured driver. SQLite databases are migrated on
// open; postgres schemas are managed by the migrator.
func Open(ctx context.Context, cfg Config, log *zap.Logger) (*Store, error) {
	switch cfg.Driver {
	case DriverPostgres, "":
		db, err := pg.NewDB(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		users := pg.NewUserRepo(db)
		return &Store{
			Notifications: pg.NewNotificationRepo(db),
			Settings:      pg.NewSettingRepo(db),
			Users:         users,
			Followers:     users,
			Jobs:          pg.NewJobRepo(db),
			Outbox:        pg.NewOutboxRepo(db),
			Tx:            pg.NewTransactor(db, log),
			Ping:          db.Ping,
			close:         func() error { db.Close(); return nil },
		}, nil
	case DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		users := sqlite.NewUserRepo(db)
		return &Store{
			Notifications: sqlite.NewNotificationRepo(db),
			Settings:      sqlite.NewSettingRepo(db),
			Users:         users,
			Followers:     users,
			Jobs:          sqlite.NewJobRepo(db),
			Outbox:        sqlite.NewOutboxRepo(db),
			Tx:            sqlite.NewTransactor(db),
			Ping:          db.Ping,
			close:         db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
