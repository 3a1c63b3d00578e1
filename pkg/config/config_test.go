package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestGetClientConfig(t *testing.T) {
	path := writeConfig(t, `
hostservices:
  client:
    server_host: "10.0.0.5"
    server_port: "9000"
`)
	cfg, err := GetClientConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", cfg.ServerHost)
	assert.Equal(t, "9000", cfg.ServerPort)
}

func TestGetClientConfigPartialSection(t *testing.T) {
	path := writeConfig(t, `
hostservices:
  client:
    server_host: "10.0.0.5"
`)
	cfg, err := GetClientConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", cfg.ServerHost)
	assert.Equal(t, DefaultClientPort, cfg.ServerPort)
}

func TestGetAdminConfig(t *testing.T) {
	path := writeConfig(t, `
hostservices:
  admin:
    host: "0.0.0.0"
    port: "8081"
    quiet: true
    admin_html_file: "/srv/admin.html"
`)
	cfg, err := GetAdminConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, "8081", cfg.Port)
	assert.True(t, cfg.Quiet)
	assert.Equal(t, "/srv/admin.html", cfg.AdminHTMLFile)
	assert.Empty(t, cfg.StaticDir)
}

func TestMissingSectionUsesDefaults(t *testing.T) {
	path := writeConfig(t, `
hostservices:
  client:
    server_host: "10.0.0.5"
`)
	cfg, err := GetExecutorConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultExecutorHost, cfg.Host)
	assert.Equal(t, DefaultExecutorPort, cfg.Port)
}

func TestEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := GetAdminConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAdminHost, cfg.Host)
	assert.Equal(t, DefaultAdminPort, cfg.Port)
	assert.False(t, cfg.Quiet)
}

func TestMissingFile(t *testing.T) {
	_, err := GetClientConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}
