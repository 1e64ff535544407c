// Package storage выбирает и открывает хранилище заметок по конфигурации.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"notekeeper/internal/notes/adapters/file"
	"notekeeper/internal/notes/adapters/postgres"
	"notekeeper/internal/notes/adapters/redis"
	"notekeeper/internal/notes/config"
	"notekeeper/internal/notes/ports/repositories"
	pkgpostgres "notekeeper/pkg/db/postgres"
	pkgredis "notekeeper/pkg/db/redis"
	"notekeeper/pkg/logger"
	"notekeeper/pkg/retry"
	"notekeeper/pkg/shutdown"
)

// ErrUnknownBackend возвращается для бэкенда, который Open не поддерживает.
var ErrUnknownBackend = errors.New("unknown storage backend")

// Сообщения.
const (
	LogOpening          = "opening note storage"
	ErrOpenPostgres     = "failed to open postgres storage"
	ErrMigratePostgres  = "failed to migrate postgres storage"
	ErrOpenRedis        = "failed to open redis storage"
	ErrResolveMigration = "failed to resolve migrations"
)

type options struct {
	fs afero.Fs
}

// Option настраивает Open.
type Option func(*options)

// WithFs подменяет файловую систему файлового хранилища.
func WithFs(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

func noop(context.Context) error { return nil }

// Open подключает бэкенд из cfg.Storage.Backend и возвращает репозиторий
// вместе с хуком, освобождающим его ресурсы.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (repositories.NoteRepository, shutdown.Hook, error) {
	o := options{fs: afero.NewOsFs()}
	for _, opt := range opts {
		opt(&o)
	}

	log := logger.Log(ctx).With(zap.String("method", "storage.Open"), zap.String("backend", cfg.Storage.Backend))
	log.Info(ctx, LogOpening)

	switch cfg.Storage.Backend {
	case config.BackendFile:
		return file.NewNoteRepository(o.fs, cfg.File.Path), noop, nil

	case config.BackendRedis:
		var client *pkgredis.Client
		err := retry.Do(ctx, "redis connect", cfg.Storage.ConnectPolicy(), func(ctx context.Context) error {
			var err error
			client, err = pkgredis.NewClient(ctx, cfg.Redis.ClientConfig())
			return err
		})
		if err != nil {
			log.Error(ctx, ErrOpenRedis, zap.Error(err))
			return nil, nil, fmt.Errorf("%s: %w", ErrOpenRedis, err)
		}
		return redis.NewNoteRepository(client.Raw(), cfg.Redis.KeyPrefix), client.Close, nil

	case config.BackendPostgres:
		return openPostgres(ctx, &cfg.Postgres, cfg.Storage.ConnectPolicy())

	default:
		log.Error(ctx, ErrUnknownBackend.Error())
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Storage.Backend)
	}
}

func openPostgres(ctx context.Context, cfg *config.PostgresConfig, policy retry.Policy) (repositories.NoteRepository, shutdown.Hook, error) {
	log := logger.Log(ctx).With(zap.String("method", "storage.openPostgres"))

	source, err := pkgpostgres.SourceURL(cfg.MigrationsDir)
	if err != nil {
		log.Error(ctx, ErrResolveMigration, zap.Error(err))
		return nil, nil, fmt.Errorf("%s: %w", ErrResolveMigration, err)
	}
	err = retry.Do(ctx, "postgres migrate", policy, func(ctx context.Context) error {
		return pkgpostgres.MigrateDSN(ctx, cfg.GetConnectionURL(), source)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", ErrMigratePostgres, err)
	}

	var db *pkgpostgres.Database
	err = retry.Do(ctx, "postgres connect", policy, func(ctx context.Context) error {
		var err error
		db, err = pkgpostgres.New(ctx, cfg.GetDSN(), pkgpostgres.Options{
			MinConns:        cfg.MinConn,
			MaxConns:        cfg.MaxConn,
			MaxConnLifetime: cfg.MaxConnLifetime,
		})
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", ErrOpenPostgres, err)
	}

	closeDB := func(ctx context.Context) error {
		db.Close(ctx)
		return nil
	}
	return postgres.NewRepositoryFactory(db.Pool()).NoteRepository(), closeDB, nil
}
