/*
Package config loads server and store settings.

SOURCES (later wins):
  1. Defaults (SetDefaults)
  2. Config file: --config, or config.yaml in ./ or $HOME/.config/pos-ledger
  3. Environment: LEDGER_ prefix, dots become underscores
     (LEDGER_STORE_DRIVER, LEDGER_SERVER_PORT, ...)
  4. Command-line flags bound by cmd/server

STORE DRIVERS:
  memory    nothing persisted; for demos and tests
  sqlite    store.sqlite_path
  postgres  store.postgres_url
  redis     store.redis_addr, store.redis_password, store.redis_db, store.redis_prefix
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "LEDGER"

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	Log     LogConfig     `mapstructure:"log"`
	Receipt ReceiptConfig `mapstructure:"receipt"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// KpiRefreshInterval is how often KPI gauges are recomputed; 0 disables it.
	KpiRefreshInterval time.Duration `mapstructure:"kpi_refresh_interval"`
}

type StoreConfig struct {
	Driver        string `mapstructure:"driver"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	PostgresURL   string `mapstructure:"postgres_url"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisPrefix   string `mapstructure:"redis_prefix"`
}

type ReceiptConfig struct {
	ShopName string `mapstructure:"shop_name"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// SetDefaults registers every key so env overrides apply during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:8080"})
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.kpi_refresh_interval", time.Minute)

	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.sqlite_path", "ledger.db")
	v.SetDefault("store.postgres_url", "")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_password", "")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("store.redis_prefix", "pos:")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("receipt.shop_name", "")
}

// Load reads cfgFile (or searches the default locations) and the environment
// into v, then decodes and validates the result. A missing default config
// file is not an error; a missing explicit one is.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "pos-ledger"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}
	if c.Server.KpiRefreshInterval < 0 {
		return fmt.Errorf("invalid server.kpi_refresh_interval: %s", c.Server.KpiRefreshInterval)
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("store.sqlite_path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Store.PostgresURL == "" {
			return errors.New("store.postgres_url is required for the postgres driver")
		}
	case DriverRedis:
		if c.Store.RedisAddr == "" {
			return errors.New("store.redis_addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q (want memory, sqlite, postgres or redis)", c.Store.Driver)
	}
	return nil
}
