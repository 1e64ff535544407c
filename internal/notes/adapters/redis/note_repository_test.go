package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notekeeper/internal/notes/adapters/redis"
	"notekeeper/internal/notes/domain/entities"
	"notekeeper/internal/notes/ports/repositories"
	"notekeeper/pkg/logger"
)

func testContext() context.Context {
	return logger.NewContext(context.Background(), logger.NewNop())
}

func newRepository(t *testing.T) (*miniredis.Miniredis, repositories.NoteRepository) {
	t.Helper()

	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return s, redis.NewNoteRepository(client, "test")
}

func insert(t *testing.T, repo repositories.NoteRepository, text string) *entities.Note {
	t.Helper()
	note, err := repo.Insert(testContext(), entities.NewNote(text))
	require.NoError(t, err)
	return note
}

func texts(notes []*entities.Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.Text)
	}
	return out
}

func TestNoteRepository_InsertAssignsSeqAndKeys(t *testing.T) {
	s, repo := newRepository(t)

	first := insert(t, repo, "Buy milk")
	second := insert(t, repo, "Call Bob")

	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)
	assert.True(t, s.Exists("test:note:"+first.ID))
	assert.Equal(t, "Buy milk", s.HGet("test:note:"+first.ID, "text"))

	members, err := s.ZMembers("test:order")
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, second.ID}, members)
}

func TestNoteRepository_DefaultPrefix(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := redis.NewNoteRepository(client, "")
	note := insert(t, repo, "x")

	assert.True(t, s.Exists(redis.DefaultPrefix+":note:"+note.ID))
}

func TestNoteRepository_FetchAll(t *testing.T) {
	_, repo := newRepository(t)
	ctx := testContext()

	empty, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	created := insert(t, repo, "a")
	insert(t, repo, "")
	insert(t, repo, "a")

	notes, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "", "a"}, texts(notes))
	assert.Equal(t, created.ID, notes[0].ID)
	assert.True(t, created.CreatedAt.Equal(notes[0].CreatedAt))
}

func TestNoteRepository_FetchAll_SkipsDanglingOrderEntries(t *testing.T) {
	s, repo := newRepository(t)
	insert(t, repo, "kept")
	_, err := s.ZAdd("test:order", 99, "ghost")
	require.NoError(t, err)

	notes, err := repo.FetchAll(testContext())
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, texts(notes))
}

func TestNoteRepository_FetchAll_DecodeError(t *testing.T) {
	s, repo := newRepository(t)
	s.HSet("test:note:bad", "id", "bad", "text", "x", "seq", "not-a-number")
	_, err := s.ZAdd("test:order", 1, "bad")
	require.NoError(t, err)

	notes, err := repo.FetchAll(testContext())
	require.Error(t, err)
	assert.Contains(t, err.Error(), redis.ErrDecodeNote)
	assert.Nil(t, notes)
}

func TestNoteRepository_FetchByText(t *testing.T) {
	_, repo := newRepository(t)
	ctx := testContext()

	first := insert(t, repo, "dup")
	insert(t, repo, "other")
	third := insert(t, repo, "dup")

	notes, err := repo.FetchByText(ctx, "dup")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, first.ID, notes[0].ID)
	assert.Equal(t, third.ID, notes[1].ID)

	none, err := repo.FetchByText(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestNoteRepository_FetchByID(t *testing.T) {
	_, repo := newRepository(t)
	ctx := testContext()
	created := insert(t, repo, "hello")

	got, err := repo.FetchByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, created.Seq, got.Seq)

	_, err = repo.FetchByID(ctx, "missing")
	assert.ErrorIs(t, err, entities.ErrNoteNotFound)
}

func TestNoteRepository_Update(t *testing.T) {
	s, repo := newRepository(t)
	ctx := testContext()
	created := insert(t, repo, "Buy milk")

	created.Rename("Buy bread")
	require.NoError(t, repo.Update(ctx, created))
	assert.Equal(t, "Buy bread", s.HGet("test:note:"+created.ID, "text"))

	err := repo.Update(ctx, &entities.Note{ID: "missing", Text: "x"})
	require.ErrorIs(t, err, entities.ErrNoteNotFound)
	assert.False(t, s.Exists("test:note:missing"))
}

func TestNoteRepository_Delete(t *testing.T) {
	s, repo := newRepository(t)
	ctx := testContext()
	first := insert(t, repo, "a")
	second := insert(t, repo, "b")

	require.NoError(t, repo.Delete(ctx, first.ID))
	assert.False(t, s.Exists("test:note:"+first.ID))

	members, err := s.ZMembers("test:order")
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID}, members)

	assert.ErrorIs(t, repo.Delete(ctx, first.ID), entities.ErrNoteNotFound)
}

func TestNoteRepository_ServerErrors(t *testing.T) {
	s, repo := newRepository(t)
	ctx := testContext()
	s.SetError("server failure")

	_, err := repo.Insert(ctx, entities.NewNote("x"))
	assert.ErrorContains(t, err, redis.ErrNextSeq)

	_, err = repo.FetchAll(ctx)
	assert.ErrorContains(t, err, redis.ErrListNotes)

	_, err = repo.FetchByID(ctx, "x")
	assert.ErrorContains(t, err, redis.ErrGetNote)

	err = repo.Update(ctx, &entities.Note{ID: "x"})
	assert.ErrorContains(t, err, redis.ErrUpdateNote)

	err = repo.Delete(ctx, "x")
	assert.ErrorContains(t, err, redis.ErrDeleteNote)
}
