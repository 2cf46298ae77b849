package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Storage  StorageConfig  `mapstructure:"storage"  validate:"required"`
	Task     TaskConfig     `mapstructure:"task"     validate:"required"`
	Intake   IntakeConfig   `mapstructure:"intake"   validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port        int      `mapstructure:"port"         validate:"required,gt=0,lt=65536"`
	LogLevel    string   `mapstructure:"log_level"    validate:"required,oneof=debug info warn error"`
	ProjectName string   `mapstructure:"project_name" validate:"required"`
	Version     string   `mapstructure:"version"      validate:"required"`
	APIPrefix   string   `mapstructure:"api_prefix"   validate:"required,startswith=/"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// DatabaseConfig contains all database-related configuration settings.
// URL takes precedence; when it is empty the URL is assembled from the
// individual Postgres fields.
type DatabaseConfig struct {
	URL                  string        `mapstructure:"url"                    validate:"omitempty,url"`
	PostgresUser         string        `mapstructure:"postgres_user"`
	PostgresPassword     string        `mapstructure:"postgres_password"`
	PostgresServer       string        `mapstructure:"postgres_server"`
	PostgresPort         int           `mapstructure:"postgres_port"          validate:"omitempty,gt=0,lt=65536"`
	PostgresDB           string        `mapstructure:"postgres_db"`
	MaxOpenConns         int           `mapstructure:"max_open_conns"         validate:"gte=1"`
	MaxIdleConns         int           `mapstructure:"max_idle_conns"         validate:"gte=0"`
	ConnectMaxAttempts   int           `mapstructure:"connect_max_attempts"   validate:"gte=1"`
	ConnectRetryInterval time.Duration `mapstructure:"connect_retry_interval" validate:"gte=0"`
}

// DSN returns the connection string used to open the database.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:   fmt.Sprintf("%s:%d", c.PostgresServer, c.PostgresPort),
		Path:   "/" + c.PostgresDB,
	}
	return u.String()
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0,lte=44640"`
	BCryptCost           int    `mapstructure:"bcrypt_cost"            validate:"gte=4,lte=31"`
}

// StorageConfig controls where background jobs materialize their output.
type StorageConfig struct {
	OutputDir string `mapstructure:"output_dir" validate:"required"`
}

// TaskConfig sizes the background job runner.
type TaskConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"gte=1"`
	QueueSize   int `mapstructure:"queue_size"   validate:"gte=1"`
}

// IntakeConfig bounds what a single caller may submit.
type IntakeConfig struct {
	MaxRecords     int     `mapstructure:"max_records"      validate:"gte=1"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"   validate:"gte=0"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst" validate:"gte=1"`
}
