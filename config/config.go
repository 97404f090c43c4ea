// Package config loads process settings from the environment, with an
// optional .env file underneath.
package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Skryldev/jobboard/db"
)

// Config is the full process configuration.
type Config struct {
	Port           int
	Database       DatabaseConfig
	Log            LogConfig
	MigrationsPath string
}

// DatabaseConfig describes the store connection. URL wins over the
// individual host fields when set.
type DatabaseConfig struct {
	URL      string
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	QueryTimeout    time.Duration
	SlowQuery       time.Duration
	ConnectAttempts int
}

// LogConfig selects the slog level and handler format.
type LogConfig struct {
	Level  string
	Format string
}

var defaults = map[string]any{
	"PORT":                 3001,
	"DB_DRIVER":            "postgres",
	"DB_HOST":              "localhost",
	"DB_NAME":              "jobboard",
	"DB_SSLMODE":           "disable",
	"DB_MAX_OPEN_CONNS":    25,
	"DB_MAX_IDLE_CONNS":    10,
	"DB_CONN_MAX_LIFETIME": 5 * time.Minute,
	"DB_QUERY_TIMEOUT":     10 * time.Second,
	"DB_SLOW_QUERY":        200 * time.Millisecond,
	"DB_CONNECT_ATTEMPTS":  5,
	"LOG_LEVEL":            "info",
	"LOG_FORMAT":           "json",
}

// Load reads the given env files (default ".env", skipped when absent) and
// then the process environment, which takes precedence.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	return &Config{
		Port: v.GetInt("PORT"),
		Database: DatabaseConfig{
			URL:             v.GetString("DATABASE_URL"),
			Driver:          v.GetString("DB_DRIVER"),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			QueryTimeout:    v.GetDuration("DB_QUERY_TIMEOUT"),
			SlowQuery:       v.GetDuration("DB_SLOW_QUERY"),
			ConnectAttempts: v.GetInt("DB_CONNECT_ATTEMPTS"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),
	}, nil
}

// DriverOptions converts the host fields for db.OpenWithDriver.
func (c DatabaseConfig) DriverOptions() db.DriverOptions {
	return db.DriverOptions{
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		Database: c.Name,
		SSLMode:  c.SSLMode,
	}
}

// PoolConfig carries the pool settings into a db.Config. DSN and driver are
// filled in by Open.
func (c DatabaseConfig) PoolConfig(hooks ...db.Hook) db.Config {
	return db.Config{
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		DefaultTimeout:  c.QueryTimeout,
		Hooks:           hooks,
	}
}

// Open connects using URL when set, otherwise the host fields.
func (c DatabaseConfig) Open(hooks ...db.Hook) (*db.DB, error) {
	cfg := c.PoolConfig(hooks...)
	if c.URL != "" {
		cfg.DSN = c.URL
		cfg.DriverName = c.Driver
		return db.Open(cfg)
	}
	return db.OpenWithDriver(c.Driver, c.DriverOptions(), cfg)
}
