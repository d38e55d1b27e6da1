package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.App.HTTPPort)
	assert.Equal(t, "/api/v1", cfg.App.BasePath)
	assert.True(t, cfg.App.GRPCEnabled)
	assert.Equal(t, DriverMongo, cfg.Storage.Driver)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "users", cfg.Mongo.Collection)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_ProductionLoggerDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.True(t, cfg.Logger.EnableSampling)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	content := "STORAGE_DRIVER=sqlite\nSQLITE_PATH=/tmp/users.db\nHTTP_PORT=9090\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))

	t.Setenv("HTTP_PORT", "7070")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/users.db", cfg.Storage.SQLitePath)
	assert.Equal(t, "7070", cfg.App.HTTPPort, "environment overrides the file")
}

func TestConfig_Validate(t *testing.T) {
	base := func(t *testing.T) *Config {
		cfg, err := LoadConfig(t.TempDir())
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Storage.Driver = "cassandra" },
			wantErr: "unsupported STORAGE_DRIVER",
		},
		{
			name:    "base path without slash",
			mutate:  func(c *Config) { c.App.BasePath = "api" },
			wantErr: "API_BASE_PATH",
		},
		{
			name: "non-positive rate",
			mutate: func(c *Config) {
				c.RateLimit.Enabled = true
				c.RateLimit.RequestsPerSecond = 0
			},
			wantErr: "RATE_LIMIT_RPS",
		},
		{
			name:    "missing sqlite path",
			mutate:  func(c *Config) { c.Storage.Driver = DriverSQLite; c.Storage.SQLitePath = "" },
			wantErr: "SQLITE_PATH",
		},
		{
			name:    "zero shutdown timeout",
			mutate:  func(c *Config) { c.App.ShutdownTimeoutSeconds = 0 },
			wantErr: "SHUTDOWN_TIMEOUT_SECONDS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "users", SSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=users port=5432 sslmode=disable", db.DSN())
}
