package database

import (
	"log/slog"
	"os"
	"time"
)

// Config holds PostgreSQL connection configuration.
type Config struct {
	URL             string        `yaml:"url"`
	MaxConns        int           `yaml:"max_conns"`
	MinConns        int           `yaml:"min_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`

	// PrepareStatements caches prepared statements per session. Pooled deployments
	// running with this on are the ones that hit duplicate prepared statement errors.
	PrepareStatements bool `yaml:"prepare_statements"`

	MigrationsDir string      `yaml:"migrations_dir"`
	Retry         RetryConfig `yaml:"retry"`
}

// RetryConfig defines how ExecuteWithRetry recovers from transient conflicts.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Backoff     time.Duration `yaml:"backoff"`

	// Logger receives retry warnings. Nil means slog.Default().
	Logger *slog.Logger `yaml:"-"`
}

// DefaultRetryConfig provides the defaults used when fields are left zero.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts: 3,
	Backoff:     1 * time.Second,
}

// ConfigFromEnv builds a Config from DATABASE_URL.
func ConfigFromEnv() Config {
	return Config{URL: os.Getenv("DATABASE_URL")}
}

func (c Config) withDefaults() Config {
	if c.MaxConns <= 0 {
		c.MaxConns = 10
	}
	if c.MinConns <= 0 {
		c.MinConns = 2
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = time.Hour
	}
	if c.ConnMaxIdleTime <= 0 {
		c.ConnMaxIdleTime = 30 * time.Minute
	}
	c.Retry = c.Retry.withDefaults()
	return c
}

func (r RetryConfig) withDefaults() RetryConfig {
	if r.MaxAttempts == 0 {
		r.MaxAttempts = DefaultRetryConfig.MaxAttempts
	}
	if r.Backoff <= 0 {
		r.Backoff = DefaultRetryConfig.Backoff
	}
	return r
}
