// internal/config/config_test.go
package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadWithEnv(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	// Run from an empty directory so a developer's .env does not leak in.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	for _, k := range keys {
		t.Setenv(k, "")
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
	return LoadConfig()
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadWithEnv(t, map[string]string{
		"GITHUB_TOKEN": "ghp_test",
		"DB_URL":       "postgres://localhost/mirror",
	})

	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "github-mirror.db", cfg.SQLitePath)
	assert.Equal(t, []string{"contributions", "owned-repos", "commits"}, cfg.SyncJobs)
	assert.Zero(t, cfg.SyncInterval)
	assert.Equal(t, 100, cfg.PageSize)
	assert.Empty(t, cfg.HTTPAddr)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	cfg, err := loadWithEnv(t, map[string]string{
		"GITHUB_TOKEN":       "ghp_test",
		"GITHUB_GRAPHQL_URL": "https://ghe.example.com/api/graphql",
		"STORE_DRIVER":       "SQLite",
		"SQLITE_PATH":        "/tmp/mirror.db",
		"SYNC_JOBS":          "commits, contributions",
		"SYNC_INTERVAL":      "15m",
		"PAGE_SIZE":          "25",
		"HTTP_ADDR":          ":8080",
		"LOG_LEVEL":          "debug",
	})

	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "/tmp/mirror.db", cfg.SQLitePath)
	assert.Equal(t, "https://ghe.example.com/api/graphql", cfg.GithubGraphQLURL)
	assert.Equal(t, []string{"commits", "contributions"}, cfg.SyncJobs)
	assert.Equal(t, 15*time.Minute, cfg.SyncInterval)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "missing token",
			env:  map[string]string{"STORE_DRIVER": "memory"},
			want: "GITHUB_TOKEN",
		},
		{
			name: "postgres without DB_URL",
			env:  map[string]string{"GITHUB_TOKEN": "t"},
			want: "DB_URL",
		},
		{
			name: "unknown driver",
			env:  map[string]string{"GITHUB_TOKEN": "t", "STORE_DRIVER": "mongo"},
			want: "STORE_DRIVER",
		},
		{
			name: "page size out of range",
			env:  map[string]string{"GITHUB_TOKEN": "t", "STORE_DRIVER": "memory", "PAGE_SIZE": "500"},
			want: "PAGE_SIZE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadWithEnv(t, tt.env)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
