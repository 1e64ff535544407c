package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"notekeeper/pkg/logger"
)

// Сообщения наблюдателя.
const (
	ErrCreateWatcher = "failed to create file watcher"
	ErrWatchDir      = "failed to watch notes directory"
	LogWatchStarted  = "watching notes file"
	LogWatchError    = "file watcher error"
)

// Watch calls onChange after the notes file at path changes on the OS
// filesystem, until ctx is done. Events closer together than debounce are
// reported once. The parent directory is watched so atomic renames are seen.
// Calls to onChange never overlap, and Watch returns only after the last one
// has finished.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	log := logger.Log(ctx).With(zap.String("method", "file.Watch"), zap.String("path", path))

	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrWatchDir, err)
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%s: %w", ErrWatchDir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%s: %w", ErrCreateWatcher, err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("%s: %w", ErrWatchDir, err)
	}
	log.Info(ctx, LogWatchStarted)

	var (
		mu      sync.Mutex
		timer   *time.Timer
		pending sync.WaitGroup
		serial  sync.Mutex
	)
	fire := func() {
		defer pending.Done()
		serial.Lock()
		defer serial.Unlock()
		if ctx.Err() != nil {
			return
		}
		onChange()
	}
	schedule := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil && timer.Stop() {
			pending.Done()
		}
		pending.Add(1)
		timer = time.AfterFunc(debounce, fire)
	}
	// Wait for a callback already in flight.
	defer func() {
		mu.Lock()
		if timer != nil && timer.Stop() {
			pending.Done()
		}
		mu.Unlock()
		pending.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}

			schedule()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn(ctx, LogWatchError, zap.Error(err))
		}
	}
}
