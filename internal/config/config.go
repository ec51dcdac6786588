package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration of the catalog service.
type Config struct {
	AppPort          string
	CORSAllowOrigins string
	ShutdownTimeout  time.Duration
	Database         DatabaseConfig
	RabbitMQ         RabbitMQConfig
}

// DatabaseConfig selects the GORM driver and sizes the connection pool.
type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// RabbitMQConfig is optional; an empty URL disables product events.
type RabbitMQConfig struct {
	URL      string
	Exchange string
	Queue    string
}

// Enabled reports whether a broker URL was configured.
func (c RabbitMQConfig) Enabled() bool {
	return c.URL != ""
}

var supportedDrivers = map[string]bool{"postgres": true, "sqlserver": true, "sqlite": true}

// Load reads configuration from environment variables, falling back to defaults.
func Load() (Config, error) {
	v := viper.New()
	v.SetDefault("APP_PORT", ":3000")
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=catalog port=5432 sslmode=disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 25)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("DB_AUTO_MIGRATE", false)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "products")
	v.SetDefault("RABBITMQ_QUEUE", "product_events")
	v.AutomaticEnv()

	cfg := Config{
		AppPort:          v.GetString("APP_PORT"),
		CORSAllowOrigins: v.GetString("CORS_ALLOW_ORIGINS"),
		ShutdownTimeout:  v.GetDuration("SHUTDOWN_TIMEOUT"),
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:             v.GetString("DATABASE_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			AutoMigrate:     v.GetBool("DB_AUTO_MIGRATE"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      v.GetString("RABBITMQ_URL"),
			Exchange: v.GetString("RABBITMQ_EXCHANGE"),
			Queue:    v.GetString("RABBITMQ_QUEUE"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration can be used to start the service.
func (c Config) Validate() error {
	if c.AppPort == "" {
		return fmt.Errorf("APP_PORT is required")
	}
	if !supportedDrivers[c.Database.Driver] {
		return fmt.Errorf("unsupported DB_DRIVER %q (must be postgres, sqlserver, or sqlite)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be at least 1, got %d", c.Database.MaxOpenConns)
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("DB_MAX_IDLE_CONNS must not be negative, got %d", c.Database.MaxIdleConns)
	}
	if c.RabbitMQ.Enabled() && (c.RabbitMQ.Exchange == "" || c.RabbitMQ.Queue == "") {
		return fmt.Errorf("RABBITMQ_EXCHANGE and RABBITMQ_QUEUE are required when RABBITMQ_URL is set")
	}
	return nil
}
