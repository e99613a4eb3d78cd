package api_gateway_config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Server.HTTPAddr)
	require.Equal(t, "postgres", cfg.Storage.Driver)
	require.Equal(t, "restora.notifications.fanout", cfg.Kafka.Topic)
	require.Equal(t, 30*time.Second, cfg.Outbox.InProgressTTL)
	require.Equal(t, 30*time.Second, cfg.Realtime.PingInterval)
	require.Equal(t, "restora/api-gateway", cfg.LoggerConfig().App)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api-gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  driver: sqlite
  sqlite:
    path: /tmp/restora.db
realtime:
  origins: ["https://app.example.com"]
`), 0o600))
	t.Setenv("SERVER_HTTP_ADDR", ":9999")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.Storage.Driver)
	require.Equal(t, "/tmp/restora.db", cfg.Storage.SQLite.Path)
	require.Equal(t, []string{"https://app.example.com"}, cfg.Realtime.Origins)
	require.Equal(t, ":9999", cfg.Server.HTTPAddr)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "mysql")
	_, err := Load("")
	var ce ErrConfig
	require.True(t, errors.As(err, &ce))
}
