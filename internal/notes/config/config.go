// Package config содержит конфигурацию сервиса заметок.
package config

import (
	"context"

	"go.uber.org/zap"

	pkgconfig "notekeeper/pkg/config"
	"notekeeper/pkg/logger"
)

// ServiceName используется в логах загрузки.
const ServiceName = "notes"

// Config представляет полную конфигурацию сервиса.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	File     FileConfig     `yaml:"file"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
	Shutdown ShutdownConfig `yaml:"shutdown"`
}

// Load читает конфигурацию из окружения, предварительно заполняя ее из
// файла path, если он задан.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg, err := pkgconfig.Load[Config](ctx, ServiceName, path)
	if err != nil {
		return nil, err
	}

	logger.Log(ctx).Info(ctx, "notes configuration",
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.String("http_address", cfg.HTTP.GetAddress()),
		zap.String("log_level", cfg.Logging.Level),
		zap.String("log_mode", cfg.Logging.Mode),
		zap.Int("shutdown_timeout_seconds", cfg.Shutdown.Timeout))

	return cfg, nil
}
