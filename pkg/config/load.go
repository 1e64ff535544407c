// Package config загружает структуры конфигурации через cleanenv.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"

	"notekeeper/pkg/logger"
)

const (
	msgLoadingConfiguration = "loading configuration"
	msgConfigurationLoaded  = "configuration loaded"

	ErrFailedLoadConfiguration = "failed to load configuration"
)

// Load fills a T from the environment. When path names an existing file
// (.env, .yaml, .json, .toml) it is read first and the environment
// overrides it; a missing file is not an error.
func Load[T any](ctx context.Context, service, path string) (*T, error) {
	log := logger.Log(ctx).With(zap.String("service", service))
	log.Info(ctx, msgLoadingConfiguration, zap.String("path", path))

	var cfg T
	var err error
	if path != "" && fileExists(path) {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		log.Error(ctx, ErrFailedLoadConfiguration, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrFailedLoadConfiguration, err)
	}

	log.Info(ctx, msgConfigurationLoaded)
	return &cfg, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
