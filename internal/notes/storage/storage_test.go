package storage_test

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notekeeper/internal/notes/app"
	"notekeeper/internal/notes/config"
	"notekeeper/internal/notes/storage"
	"notekeeper/pkg/logger"
)

func testContext() context.Context {
	return logger.NewContext(context.Background(), logger.NewNop())
}

func fileConfig() *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{Backend: config.BackendFile},
		File:    config.FileConfig{Path: "/notes/notes.yaml"},
	}
}

func redisConfig(t *testing.T, s *miniredis.Miniredis) *config.Config {
	t.Helper()

	host, portStr, err := net.SplitHostPort(s.Addr())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return &config.Config{
		Storage: config.StorageConfig{Backend: config.BackendRedis},
		Redis: config.RedisConfig{
			Host:         host,
			Port:         port,
			PoolSize:     2,
			DialTimeout:  time.Second,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			KeyPrefix:    "scenario",
		},
	}
}

func noteTexts(store *app.NoteStore) []string {
	out := make([]string, 0)
	for _, n := range store.Notes() {
		out = append(out, n.Text)
	}
	return out
}

// runScenario drives the store through create, update and delete by index.
func runScenario(t *testing.T, store *app.NoteStore) {
	t.Helper()
	ctx := testContext()

	_, err := store.LoadAll(ctx)
	require.NoError(t, err)

	_, err = store.Create(ctx, "Buy milk")
	require.NoError(t, err)
	_, err = store.Create(ctx, "Call Bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"Buy milk", "Call Bob"}, noteTexts(store))

	updated, err := store.Update(ctx, "Buy milk", "Buy bread")
	require.NoError(t, err)
	assert.True(t, updated)
	assert.Equal(t, []string{"Buy bread", "Call Bob"}, noteTexts(store))

	require.NoError(t, store.Delete(ctx, 0))
	assert.Equal(t, []string{"Call Bob"}, noteTexts(store))

	err = store.Delete(ctx, 5)
	assert.ErrorIs(t, err, app.ErrIndexOutOfRange)
}

func TestOpen_FileBackendScenario(t *testing.T) {
	fs := afero.NewMemMapFs()
	ctx := testContext()

	repo, closeFn, err := storage.Open(ctx, fileConfig(), storage.WithFs(fs))
	require.NoError(t, err)
	require.NotNil(t, closeFn)
	t.Cleanup(func() { assert.NoError(t, closeFn(ctx)) })

	runScenario(t, app.NewNoteStore(repo))

	reopened, _, err := storage.Open(ctx, fileConfig(), storage.WithFs(fs))
	require.NoError(t, err)
	fresh := app.NewNoteStore(reopened)
	notes, err := fresh.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Call Bob", notes[0].Text)
}

func TestOpen_RedisBackendScenario(t *testing.T) {
	s := miniredis.RunT(t)
	ctx := testContext()

	repo, closeFn, err := storage.Open(ctx, redisConfig(t, s))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, closeFn(ctx)) })

	runScenario(t, app.NewNoteStore(repo))

	fresh := app.NewNoteStore(repo)
	notes, err := fresh.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Call Bob", notes[0].Text)
	assert.True(t, s.Exists("scenario:note:"+notes[0].ID))
}

func TestOpen_RedisUnavailable(t *testing.T) {
	s := miniredis.RunT(t)
	cfg := redisConfig(t, s)
	s.Close()

	repo, closeFn, err := storage.Open(testContext(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), storage.ErrOpenRedis)
	assert.Nil(t, repo)
	assert.Nil(t, closeFn)
}

func TestOpen_PostgresMigrationsMissing(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{Backend: config.BackendPostgres},
		Postgres: config.PostgresConfig{
			Host:          "127.0.0.1",
			Port:          1,
			User:          "u",
			Password:      "p",
			Database:      "d",
			MigrationsDir: t.TempDir() + "/missing",
		},
	}

	repo, _, err := storage.Open(testContext(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), storage.ErrMigratePostgres)
	assert.Nil(t, repo)
}

func TestOpen_UnknownBackend(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: "sqlite"}}

	repo, closeFn, err := storage.Open(testContext(), cfg)
	require.ErrorIs(t, err, storage.ErrUnknownBackend)
	assert.Contains(t, err.Error(), "sqlite")
	assert.Nil(t, repo)
	assert.Nil(t, closeFn)
}
