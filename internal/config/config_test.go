package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/expense-admin/internal/domain/workflow"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://api.example.test
session:
  profile_id: "12"
  position: Manager
  roles: [User]
  governorate_id: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, "X-Request-ID", cfg.API.RequestIDHeader)
	assert.Equal(t, "exports", cfg.Export.OutputDir)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())

	actor := cfg.Session.Actor()
	assert.Equal(t, workflow.PositionManager, actor.Position)
	assert.Equal(t, "12", actor.ProfileID)
	assert.Nil(t, actor.OfficeID)
	require.NotNil(t, actor.GovernorateID)
	assert.Equal(t, int64(3), *actor.GovernorateID)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "api:\n  base_url: https://file.example.test\n")
	t.Setenv("DASHBOARD_API_URL", "https://env.example.test")
	t.Setenv("DASHBOARD_API_TOKEN", "secret")
	t.Setenv("DASHBOARD_ROLES", "Admin, User")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.test", cfg.API.BaseURL)
	assert.Equal(t, "secret", cfg.API.Token)
	assert.Equal(t, []string{"Admin", "User"}, cfg.Session.Roles)
	assert.True(t, cfg.Session.Actor().IsAdmin())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing base url", mutate: func(c *Config) { c.API.BaseURL = "" }, wantErr: "api.base_url is required"},
		{name: "relative base url", mutate: func(c *Config) { c.API.BaseURL = "/api" }, wantErr: "absolute URL"},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "server.port"},
		{name: "unknown position", mutate: func(c *Config) { c.Session.Position = "Janitor" }, wantErr: "session.position"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Server: ServerConfig{Port: 8080},
				API:    APIConfig{BaseURL: "https://api.example.test", Timeout: time.Second},
			}
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(env, []byte("DASHBOARD_TEST_VALUE=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("DASHBOARD_TEST_VALUE") })

	require.NoError(t, loadEnvFiles([]string{env, filepath.Join(dir, ".env.local")}))
	assert.Equal(t, "from-file", os.Getenv("DASHBOARD_TEST_VALUE"))
}
