package app_test

import (
	"context"
	"slices"
	"sync"

	"github.com/stretchr/testify/mock"

	"notekeeper/internal/notes/domain/entities"
)

type mockNoteRepository struct {
	mock.Mock
}

func (m *mockNoteRepository) FetchAll(ctx context.Context) ([]*entities.Note, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Note), args.Error(1)
}

func (m *mockNoteRepository) Insert(ctx context.Context, note *entities.Note) (*entities.Note, error) {
	args := m.Called(ctx, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Note), args.Error(1)
}

func (m *mockNoteRepository) FetchByText(ctx context.Context, text string) ([]*entities.Note, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Note), args.Error(1)
}

func (m *mockNoteRepository) FetchByID(ctx context.Context, id string) (*entities.Note, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Note), args.Error(1)
}

func (m *mockNoteRepository) Update(ctx context.Context, note *entities.Note) error {
	return m.Called(ctx, note).Error(0)
}

func (m *mockNoteRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// memRepository is an ordered in-memory repository with real semantics.
type memRepository struct {
	mu    sync.Mutex
	seq   int64
	notes []entities.Note
}

func (r *memRepository) FetchAll(context.Context) ([]*entities.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(func(entities.Note) bool { return true }), nil
}

func (r *memRepository) Insert(_ context.Context, note *entities.Note) (*entities.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	stored := *note
	stored.Seq = r.seq
	r.notes = append(r.notes, stored)
	out := stored
	return &out, nil
}

func (r *memRepository) FetchByText(_ context.Context, text string) ([]*entities.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(func(n entities.Note) bool { return n.Text == text }), nil
}

func (r *memRepository) FetchByID(_ context.Context, id string) (*entities.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := r.filter(func(n entities.Note) bool { return n.ID == id })
	if len(found) == 0 {
		return nil, entities.ErrNoteNotFound
	}
	return found[0], nil
}

func (r *memRepository) Update(_ context.Context, note *entities.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.IndexFunc(r.notes, func(n entities.Note) bool { return n.ID == note.ID })
	if i < 0 {
		return entities.ErrNoteNotFound
	}
	r.notes[i].Text = note.Text
	r.notes[i].UpdatedAt = note.UpdatedAt
	return nil
}

func (r *memRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.IndexFunc(r.notes, func(n entities.Note) bool { return n.ID == id })
	if i < 0 {
		return entities.ErrNoteNotFound
	}
	r.notes = slices.Delete(r.notes, i, i+1)
	return nil
}

func (r *memRepository) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.notes))
	for i, n := range r.notes {
		out[i] = n.Text
	}
	return out
}

func (r *memRepository) filter(keep func(entities.Note) bool) []*entities.Note {
	out := make([]*entities.Note, 0, len(r.notes))
	for _, n := range r.notes {
		if keep(n) {
			c := n
			out = append(out, &c)
		}
	}
	return out
}
