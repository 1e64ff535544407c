// Package retry повторяет операцию с экспоненциальной задержкой.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"notekeeper/pkg/logger"
)

// ErrContextCanceled возвращается, когда контекст отменен во время ожидания.
var ErrContextCanceled = errors.New("context was canceled during retry")

// Константы для логирования.
const (
	LogRetryAttempt     = "retry attempt"
	LogRetrySuccess     = "retry succeeded"
	LogRetryMaxAttempts = "retry max attempts reached"
)

// Policy задает число попыток и рост задержки.
type Policy struct {
	// MaxAttempts учитывает первый вызов. Значения меньше 1 означают одну попытку.
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Factor         float64
	// Retryable решает, стоит ли повторять после err; nil повторяет все,
	// кроме ошибок контекста.
	Retryable func(error) bool
}

// DefaultPolicy возвращает политику по умолчанию.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		Factor:         2,
	}
}

func retryable(p Policy, err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

// Do вызывает op до успеха, неповторяемой ошибки или исчерпания попыток.
// Возвращается последняя ошибка.
func Do(ctx context.Context, name string, p Policy, op func(ctx context.Context) error) error {
	log := logger.Log(ctx).With(zap.String("retry", name))

	attempts := max(p.MaxAttempts, 1)
	backoff := p.InitialBackoff

	var err error
	for attempt := 1; ; attempt++ {
		if err = op(ctx); err == nil {
			if attempt > 1 {
				log.Info(ctx, LogRetrySuccess, zap.Int("attempts", attempt))
			}
			return nil
		}
		if !retryable(p, err) {
			return err
		}
		if attempt >= attempts {
			log.Warn(ctx, LogRetryMaxAttempts, zap.Int("attempts", attempt), zap.Error(err))
			return err
		}

		log.Info(ctx, LogRetryAttempt,
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %w", ErrContextCanceled, ctx.Err())
		}

		if p.Factor > 1 {
			backoff = time.Duration(float64(backoff) * p.Factor)
		}
		if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
	}
}
