package postgres

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"notekeeper/pkg/logger"
)

// Сообщения об ошибках миграций.
const (
	ErrResolveMigrations       = "failed to resolve migrations path"
	ErrCreateMigrationInstance = "failed to create migration instance"
	ErrApplyMigrations         = "failed to apply migrations"
)

// SourceURL превращает каталог в source URL вида file:// для golang-migrate.
// Значения со схемой возвращаются без изменений.
func SourceURL(dir string) (string, error) {
	if strings.Contains(dir, "://") {
		return dir, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%s: %w", ErrResolveMigrations, err)
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// MigrateDSN применяет все миграции up из sourceURL к базе по dsn.
func MigrateDSN(ctx context.Context, dsn, sourceURL string) error {
	log := logger.Log(ctx).With(zap.String("source", sourceURL))

	m, err := migrate.New(sourceURL, dsn)
	if err != nil {
		log.Error(ctx, ErrCreateMigrationInstance, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrCreateMigrationInstance, err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Warn(ctx, "failed to close migrator", zap.NamedError("source_error", srcErr), zap.NamedError("db_error", dbErr))
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Error(ctx, ErrApplyMigrations, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrApplyMigrations, err)
	}

	log.Info(ctx, LogMigrationsApplied)
	return nil
}
