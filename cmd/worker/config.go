package main

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/jwalitptl/pharmacy-api/internal/config"
)

// workerConfig is read from WORKER_* environment variables.
type workerConfig struct {
	Environment string `default:"development"`
	LogLevel    string `split_words:"true" default:"info"`

	DBHost     string `split_words:"true" default:"localhost"`
	DBPort     int    `split_words:"true" default:"5432"`
	DBUser     string `split_words:"true" default:"postgres"`
	DBPassword string `split_words:"true"`
	DBName     string `split_words:"true" default:"pharmacy"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int    `split_words:"true" default:"5"`

	RedisURL      string `split_words:"true" default:"redis://localhost:6379/0"`
	RedisPoolSize int    `split_words:"true" default:"10"`

	PollInterval  time.Duration `split_words:"true" default:"5s"`
	BatchSize     int           `split_words:"true" default:"100"`
	RetryAttempts int           `split_words:"true" default:"3"`
	RetryDelay    time.Duration `split_words:"true" default:"1s"`
	MaxFailures   int           `split_words:"true" default:"5"`

	OutboxRetention time.Duration `split_words:"true" default:"168h"`
	CleanupInterval time.Duration `split_words:"true" default:"1h"`

	SMTPHost     string `split_words:"true"`
	SMTPPort     int    `split_words:"true" default:"587"`
	SMTPUsername string `split_words:"true"`
	SMTPPassword string `split_words:"true"`
	SMTPFrom     string `split_words:"true" default:"no-reply@pharmacie.local"`
	NotifyTo     string `split_words:"true"`

	MetricsPort int `split_words:"true" default:"8081"`
}

func loadWorkerConfig() (*workerConfig, error) {
	var cfg workerConfig
	if err := envconfig.Process("worker", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load worker config: %w", err)
	}
	return &cfg, nil
}

// notificationsEnabled reports whether enough SMTP settings are present to
// send mail.
func (c *workerConfig) notificationsEnabled() bool {
	return c.SMTPHost != "" && c.NotifyTo != ""
}

func (c *workerConfig) database() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:            c.DBHost,
		Port:            c.DBPort,
		User:            c.DBUser,
		Password:        c.DBPassword,
		Name:            c.DBName,
		SSLMode:         c.DBSSLMode,
		MaxOpenConns:    c.DBMaxConns,
		MaxIdleConns:    c.DBMaxConns,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: time.Minute,
	}
}
