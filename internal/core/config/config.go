package config

import (
	"time"

	"github.com/vietddude/newsdesk/internal/infra/cache"
	"github.com/vietddude/newsdesk/internal/infra/database"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig    `yaml:"server"`
	Database database.Config `yaml:"database"`
	Redis    cache.Config    `yaml:"redis"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP and gRPC server settings.
type ServerConfig struct {
	Port     int `yaml:"port"`
	GRPCPort int `yaml:"grpc_port"` // 0 = disabled

	HealthCacheTTL     time.Duration `yaml:"health_cache_ttl"`
	HealthCheckTimeout time.Duration `yaml:"health_check_timeout"`
	HealthSyncInterval time.Duration `yaml:"health_sync_interval"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}
