package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"notekeeper/pkg/logger"
)

// Сообщения.
const (
	LogConnecting   = "connecting to Redis"
	LogConnected    = "connected to Redis"
	LogClosing      = "closing Redis client"
	ErrConnectRedis = "failed to connect to redis"
	ErrCloseRedis   = "failed to close redis client"
)

// Client владеет соединением с Redis.
type Client struct {
	client *redis.Client
}

// NewClient открывает клиент и пингует сервер в пределах ctx.
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	log := logger.Log(ctx).With(zap.String("addr", cfg.Addr()), zap.Int("db", cfg.DB))
	log.Info(ctx, LogConnecting)

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		log.Error(ctx, ErrConnectRedis, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrConnectRedis, err)
	}

	log.Info(ctx, LogConnected)
	return &Client{client: rdb}, nil
}

// Raw возвращает базовый клиент go-redis.
func (c *Client) Raw() *redis.Client {
	return c.client
}

// Close закрывает соединение.
func (c *Client) Close(ctx context.Context) error {
	logger.Log(ctx).Info(ctx, LogClosing)
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("%s: %w", ErrCloseRedis, err)
	}
	return nil
}
