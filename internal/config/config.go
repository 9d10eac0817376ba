// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	GithubToken      string        `mapstructure:"GITHUB_TOKEN"`
	GithubGraphQLURL string        `mapstructure:"GITHUB_GRAPHQL_URL"`
	StoreDriver      string        `mapstructure:"STORE_DRIVER"`
	DBURL            string        `mapstructure:"DB_URL"`
	SQLitePath       string        `mapstructure:"SQLITE_PATH"`
	SyncJobs         []string      `mapstructure:"SYNC_JOBS"`
	SyncInterval     time.Duration `mapstructure:"SYNC_INTERVAL"`
	PageSize         int           `mapstructure:"PAGE_SIZE"`
	HTTPAddr         string        `mapstructure:"HTTP_ADDR"`
}

var keys = []string{
	"LOG_LEVEL", "GITHUB_TOKEN", "GITHUB_GRAPHQL_URL", "STORE_DRIVER", "DB_URL",
	"SQLITE_PATH", "SYNC_JOBS", "SYNC_INTERVAL", "PAGE_SIZE", "HTTP_ADDR",
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("STORE_DRIVER", DriverPostgres)
	viper.SetDefault("SQLITE_PATH", "github-mirror.db")
	viper.SetDefault("SYNC_JOBS", "contributions,owned-repos,commits")
	viper.SetDefault("SYNC_INTERVAL", "0s")
	viper.SetDefault("PAGE_SIZE", 100)

	// Load from .env file if it exists
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig()

	// Unmarshal only sees environment variables that are bound explicitly.
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range keys {
		if err := viper.BindEnv(key); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.SyncJobs = splitList(viper.GetString("SYNC_JOBS"))
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.GithubToken == "" {
		return errors.New("GITHUB_TOKEN is a required configuration field")
	}
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DBURL == "" {
			return errors.New("DB_URL is a required configuration field for the postgres store")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is a required configuration field for the sqlite store")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be one of postgres, sqlite or memory, got %q", c.StoreDriver)
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		return fmt.Errorf("PAGE_SIZE must be between 1 and 100, got %d", c.PageSize)
	}
	if c.SyncInterval < 0 {
		return errors.New("SYNC_INTERVAL must not be negative")
	}
	return nil
}

// splitList parses a comma or space separated list, dropping empty entries.
func splitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) == 0 {
		return nil
	}
	return fields
}
