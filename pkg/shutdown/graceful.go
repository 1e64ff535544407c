// Package shutdown ждет SIGINT/SIGTERM и выполняет хуки остановки.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"notekeeper/pkg/logger"
)

// Hook освобождает один ресурс при остановке.
type Hook func(ctx context.Context) error

// Wait ждет SIGINT, SIGTERM или отмены ctx и затем запускает hooks.
func Wait(ctx context.Context, timeout time.Duration, hooks ...Hook) {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	logger.Log(ctx).Info(ctx, "shutdown requested", zap.Duration("timeout", timeout))
	Run(context.WithoutCancel(ctx), timeout, hooks...)
}

// Run запускает hooks параллельно и возвращается, когда все они завершились
// или истек timeout.
func Run(ctx context.Context, timeout time.Duration, hooks ...Hook) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	log := logger.Log(ctx)

	var wg sync.WaitGroup
	for _, hook := range hooks {
		wg.Add(1)
		go func(fn Hook) {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				log.Error(ctx, "shutdown hook failed", zap.Error(err))
			}
		}(hook)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		log.Warn(ctx, "shutdown timed out")
	}
}
