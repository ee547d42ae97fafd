package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	return path
}

func Test_Config_LoadFile(t *testing.T) {
	path := writeFile(t, `
server:
  port: 8080
  db_path: /tmp/canvas.sqlite3
client:
  server_url: relay.local:8080
  design_id: d1
  reconnect:
    attempts: 3
    delay: 500ms
    max_delay: 2s
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "/tmp/canvas.sqlite3", cfg.Server.DBPath)
	require.Equal(t, 64, cfg.Server.Outbound)
	require.Equal(t, "relay.local:8080", cfg.Client.ServerUrl)
	require.Equal(t, "d1", cfg.Client.DesignId)
	require.Equal(t, 3, cfg.Client.Reconnect.Attempts)
	require.Equal(t, 500*time.Millisecond, cfg.Client.Reconnect.Delay)
	require.Equal(t, 2*time.Second, cfg.Client.Reconnect.MaxDelay)
	// defaults
	require.Equal(t, 50, cfg.Client.HistoryLimit)
	require.Equal(t, 50, cfg.Client.ConnectPolls)
	require.Equal(t, 100*time.Millisecond, cfg.Client.ConnectPollDur)
}

func Test_Config_Defaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 2412, cfg.Server.Port)
	require.Equal(t, 5, cfg.Client.Reconnect.Attempts)
	require.Equal(t, 1*time.Second, cfg.Client.Reconnect.Delay)
	require.Equal(t, 5*time.Second, cfg.Client.Reconnect.MaxDelay)
}

func Test_Config_Invalid(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = LoadFile(writeFile(t, "server: [1, 2"))
	require.Error(t, err)

	_, err = LoadFile(writeFile(t, "server:\n  port: 70000\n"))
	require.Error(t, err)

	_, err = LoadFile(writeFile(t, "client:\n  reconnect:\n    delay: 10s\n"))
	require.Error(t, err)
}
