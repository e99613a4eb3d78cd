package store

import (
	"context"
	"testing"

	"github.com/NordCoder/Restora/internal/domain/user"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Driver: DriverSQLite}
	cfg.SQLite.Path = ":memory:"

	s, err := Open(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Ping(ctx))
	err = s.Tx.WithTx(ctx, func(ctx context.Context) error {
		return s.Users.Create(ctx, &user.User{Name: "a", Email: "a@example.com"})
	})
	require.NoError(t, err)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql"}, zap.NewNop())
	require.Error(t, err)
}
