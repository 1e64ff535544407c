package config

import (
	"time"

	pkgredis "notekeeper/pkg/db/redis"
)

// RedisConfig представляет конфигурацию Redis-хранилища.
type RedisConfig struct {
	Host         string        `yaml:"host" env:"NOTES_REDIS_HOST" env-default:"localhost"`
	Port         int           `yaml:"port" env:"NOTES_REDIS_PORT" env-default:"6379"`
	Password     string        `yaml:"password" env:"NOTES_REDIS_PASSWORD" env-default:""`
	DB           int           `yaml:"db" env:"NOTES_REDIS_DB" env-default:"0"`
	PoolSize     int           `yaml:"pool_size" env:"NOTES_REDIS_POOL_SIZE" env-default:"10"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"NOTES_REDIS_DIAL_TIMEOUT" env-default:"5s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"NOTES_REDIS_READ_TIMEOUT" env-default:"3s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"NOTES_REDIS_WRITE_TIMEOUT" env-default:"3s"`
	KeyPrefix    string        `yaml:"key_prefix" env:"NOTES_REDIS_KEY_PREFIX" env-default:"notes"`
}

// ClientConfig переводит настройки в конфигурацию pkg/db/redis.
func (r *RedisConfig) ClientConfig() *pkgredis.Config {
	return &pkgredis.Config{
		Host:         r.Host,
		Port:         r.Port,
		Password:     r.Password,
		DB:           r.DB,
		PoolSize:     r.PoolSize,
		DialTimeout:  r.DialTimeout,
		ReadTimeout:  r.ReadTimeout,
		WriteTimeout: r.WriteTimeout,
	}
}
