// Package app implements the note store: an ordered in-memory view of the
// notes kept consistent with a durable repository.
package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"notekeeper/internal/notes/domain/entities"
	"notekeeper/internal/notes/ports/api"
	"notekeeper/internal/notes/ports/repositories"
	"notekeeper/pkg/logger"
)

// Сообщения логгера.
const (
	LogNotesLoaded      = "notes loaded"
	LogNoteCreated      = "note created"
	LogNoteUpdated      = "note updated"
	LogNoteDeleted      = "note deleted"
	LogNoMatchForUpdate = "no note matches text, nothing to update"
	LogAlreadyGone      = "note already missing from storage, dropping cached copy"
	LogStorageFailed    = "storage call failed"
)

var _ api.NoteStore = (*NoteStore)(nil)

// NoteStore владеет упорядоченной последовательностью заметок в памяти.
// Операции сериализуются мьютексом и завершаются до возврата.
type NoteStore struct {
	mu    sync.RWMutex
	repo  repositories.NoteRepository
	notes []*entities.Note
}

// NewNoteStore создает хранилище поверх repo. Последовательность пуста до LoadAll.
func NewNoteStore(repo repositories.NoteRepository) *NoteStore {
	return &NoteStore{repo: repo}
}

// LoadAll заменяет последовательность в памяти содержимым репозитория.
// При ошибке прежняя последовательность сохраняется.
func (s *NoteStore) LoadAll(ctx context.Context) ([]entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteStore.LoadAll"))

	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.repo.FetchAll(ctx)
	if err != nil {
		return nil, s.fail(ctx, log, OpLoadAll, err)
	}
	s.notes = notes

	log.Debug(ctx, LogNotesLoaded, zap.Int("count", len(notes)))
	return s.snapshot(), nil
}

// Notes возвращает копию последовательности.
func (s *NoteStore) Notes() []entities.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// Create сохраняет новую заметку и добавляет ее в конец последовательности.
// Если вставка не удалась, последовательность не меняется.
func (s *NoteStore) Create(ctx context.Context, text string) (entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteStore.Create"))

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.repo.Insert(ctx, entities.NewNote(text))
	if err != nil {
		return entities.Note{}, s.fail(ctx, log, OpCreate, err)
	}
	s.notes = append(s.notes, stored)

	log.Debug(ctx, LogNoteCreated, zap.String("noteID", stored.ID), zap.Int("count", len(s.notes)))
	return *stored, nil
}

// Update переписывает первую сохраненную заметку с текстом oldText и
// обновляет ее копию в памяти. Возвращает false, если совпадений нет;
// хранилище при этом не трогается.
func (s *NoteStore) Update(ctx context.Context, oldText, newText string) (bool, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteStore.Update"))

	s.mu.Lock()
	defer s.mu.Unlock()

	matches, err := s.repo.FetchByText(ctx, oldText)
	if err != nil {
		return false, s.fail(ctx, log, OpUpdate, err)
	}
	if len(matches) == 0 {
		log.Debug(ctx, LogNoMatchForUpdate)
		return false, nil
	}

	target := *matches[0]
	target.Rename(newText)
	if err := s.repo.Update(ctx, &target); err != nil {
		return false, s.fail(ctx, log, OpUpdate, err)
	}
	s.replaceCached(&target)

	log.Debug(ctx, LogNoteUpdated, zap.String("noteID", target.ID), zap.Int("matches", len(matches)))
	return true, nil
}

// Delete удаляет заметку с позиции index сначала из хранилища, затем из
// последовательности. Индекс вне [0, len) дает ErrIndexOutOfRange без
// изменений; ошибка хранилища оставляет последовательность прежней.
func (s *NoteStore) Delete(ctx context.Context, index int) error {
	log := logger.Log(ctx).With(zap.String("method", "NoteStore.Delete"), zap.Int("index", index))

	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.notes) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(s.notes))
	}

	target := s.notes[index]
	if err := s.repo.Delete(ctx, target.ID); err != nil {
		if !errors.Is(err, entities.ErrNoteNotFound) {
			return s.fail(ctx, log, OpDelete, err)
		}
		log.Warn(ctx, LogAlreadyGone, zap.String("noteID", target.ID))
	}
	s.notes = slices.Delete(s.notes, index, index+1)

	log.Debug(ctx, LogNoteDeleted, zap.String("noteID", target.ID), zap.Int("count", len(s.notes)))
	return nil
}

// Get читает одну заметку из репозитория.
func (s *NoteStore) Get(ctx context.Context, id string) (entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteStore.Get"), zap.String("noteID", id))

	note, err := s.repo.FetchByID(ctx, id)
	if err != nil {
		if errors.Is(err, entities.ErrNoteNotFound) {
			return entities.Note{}, err
		}
		return entities.Note{}, s.fail(ctx, log, OpGet, err)
	}
	return *note, nil
}

// UpdateByID меняет текст заметки с идентификатором id и обновляет ее копию в памяти.
func (s *NoteStore) UpdateByID(ctx context.Context, id, newText string) (entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteStore.UpdateByID"), zap.String("noteID", id))

	s.mu.Lock()
	defer s.mu.Unlock()

	note, err := s.repo.FetchByID(ctx, id)
	if err != nil {
		if errors.Is(err, entities.ErrNoteNotFound) {
			return entities.Note{}, err
		}
		return entities.Note{}, s.fail(ctx, log, OpUpdate, err)
	}

	note.Rename(newText)
	if err := s.repo.Update(ctx, note); err != nil {
		if errors.Is(err, entities.ErrNoteNotFound) {
			return entities.Note{}, err
		}
		return entities.Note{}, s.fail(ctx, log, OpUpdate, err)
	}
	s.replaceCached(note)

	log.Debug(ctx, LogNoteUpdated)
	return *note, nil
}

// DeleteByID удаляет заметку с идентификатором id из хранилища и из последовательности.
func (s *NoteStore) DeleteByID(ctx context.Context, id string) error {
	log := logger.Log(ctx).With(zap.String("method", "NoteStore.DeleteByID"), zap.String("noteID", id))

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, entities.ErrNoteNotFound) {
			s.dropCached(id)
			return err
		}
		return s.fail(ctx, log, OpDelete, err)
	}
	s.dropCached(id)

	log.Debug(ctx, LogNoteDeleted, zap.Int("count", len(s.notes)))
	return nil
}

func (s *NoteStore) fail(ctx context.Context, log *logger.Logger, op string, err error) error {
	log.Error(ctx, LogStorageFailed, zap.String("op", op), zap.Error(err))
	return &PersistenceError{Op: op, Err: err}
}

// snapshot вызывается под s.mu.
func (s *NoteStore) snapshot() []entities.Note {
	out := make([]entities.Note, len(s.notes))
	for i, n := range s.notes {
		out[i] = *n
	}
	return out
}

func (s *NoteStore) replaceCached(note *entities.Note) {
	for i, cached := range s.notes {
		if cached.ID == note.ID {
			updated := *note
			s.notes[i] = &updated
			return
		}
	}
}

func (s *NoteStore) dropCached(id string) {
	s.notes = slices.DeleteFunc(s.notes, func(n *entities.Note) bool { return n.ID == id })
}
