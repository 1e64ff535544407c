// Package main реализует консольный клиент хранилища заметок.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"notekeeper/internal/notes/adapters/cli"
	"notekeeper/pkg/logger"
)

// Константы для переменных окружения.
const (
	EnvLoggerMode  = "NOTES_LOGGER_MODE"
	EnvLoggerLevel = "NOTES_LOGGER_LEVEL"
)

const defaultLogLevel = "warn"

func main() {
	env := logger.Development
	if strings.ToLower(os.Getenv(EnvLoggerMode)) == "production" {
		env = logger.Production
	}
	level := os.Getenv(EnvLoggerLevel)
	if level == "" {
		level = defaultLogLevel
	}

	log, err := logger.NewLogger(env, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetGlobalLogger(log)

	ctx := logger.NewRequestIDContext(context.Background(), "")
	err = cli.NewRootCommand(cli.OpenStore, cli.WatchFile).ExecuteContext(ctx)
	_ = log.Sync()

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
