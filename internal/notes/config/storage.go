package config

import (
	"time"

	"notekeeper/pkg/retry"
)

// Поддерживаемые хранилища.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// StorageConfig выбирает хранилище заметок.
type StorageConfig struct {
	Backend         string        `yaml:"backend" env:"NOTES_STORAGE_BACKEND" env-default:"file"`
	ConnectAttempts int           `yaml:"connect_attempts" env:"NOTES_STORAGE_CONNECT_ATTEMPTS" env-default:"3"`
	ConnectBackoff  time.Duration `yaml:"connect_backoff" env:"NOTES_STORAGE_CONNECT_BACKOFF" env-default:"500ms"`
}

// ConnectPolicy возвращает политику повторов для подключения к хранилищу.
func (s *StorageConfig) ConnectPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxAttempts = s.ConnectAttempts
	p.InitialBackoff = s.ConnectBackoff
	p.MaxBackoff = 8 * s.ConnectBackoff
	return p
}
