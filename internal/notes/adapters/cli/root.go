// Package cli содержит команды notesctl.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"notekeeper/internal/notes/adapters/file"
	"notekeeper/internal/notes/app"
	"notekeeper/internal/notes/config"
	"notekeeper/internal/notes/domain/entities"
	"notekeeper/internal/notes/ports/api"
	"notekeeper/internal/notes/storage"
	"notekeeper/pkg/shutdown"
)

// Opener открывает хранилище заметок для одной команды.
type Opener func(ctx context.Context, configPath string) (api.NoteStore, shutdown.Hook, error)

// Watcher блокируется до отмены ctx и вызывает onChange при каждом изменении
// хранилища извне процесса.
type Watcher func(ctx context.Context, configPath string, onChange func()) error

// ErrWatchUnsupported возвращается WatchFile для бэкендов, отличных от file.
var ErrWatchUnsupported = fmt.Errorf("watch is only supported for the %q backend", config.BackendFile)

const watchDebounce = 100 * time.Millisecond

type rootOptions struct {
	configPath string
	open       Opener
	watch      Watcher
}

// NewRootCommand собирает дерево команд. open вызывается каждой командой,
// watch только командой watch.
func NewRootCommand(open Opener, watch Watcher) *cobra.Command {
	opts := &rootOptions{open: open, watch: watch}

	root := &cobra.Command{
		Use:           "notesctl",
		Short:         "Create, list, edit and delete notes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"configuration file (.yaml, .env); environment variables override it")

	root.AddCommand(
		newListCommand(opts),
		newCreateCommand(opts),
		newEditCommand(opts),
		newDeleteCommand(opts),
		newExportCommand(opts),
		newWatchCommand(opts),
	)
	return root
}

// OpenStore загружает конфигурацию и открывает настроенный бэкенд.
func OpenStore(ctx context.Context, configPath string) (api.NoteStore, shutdown.Hook, error) {
	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return nil, nil, err
	}
	repo, closeFn, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return app.NewNoteStore(repo), closeFn, nil
}

// WatchFile следит за файлом заметок файлового бэкенда.
func WatchFile(ctx context.Context, configPath string, onChange func()) error {
	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return err
	}
	if cfg.Storage.Backend != config.BackendFile {
		return ErrWatchUnsupported
	}
	return file.Watch(ctx, cfg.File.Path, watchDebounce, onChange)
}

// withStore открывает хранилище, загружает все заметки и вызывает fn.
func (o *rootOptions) withStore(cmd *cobra.Command, fn func(ctx context.Context, store api.NoteStore) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, closeFn, err := o.open(ctx, o.configPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if closeErr := closeFn(ctx); closeErr != nil && err == nil {
			err = fmt.Errorf("close storage: %w", closeErr)
		}
	}()

	if _, err := store.LoadAll(ctx); err != nil {
		return err
	}
	return fn(ctx, store)
}

func printNotes(w io.Writer, notes []entities.Note) error {
	if len(notes) == 0 {
		_, err := fmt.Fprintln(w, "no notes")
		return err
	}
	for i, n := range notes {
		if _, err := fmt.Fprintf(w, "%d: %s\n", i, n.Text); err != nil {
			return err
		}
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
