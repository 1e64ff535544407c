// Package file provides a note repository stored as one YAML document.
package file

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"notekeeper/internal/notes/domain/entities"
	"notekeeper/internal/notes/ports/repositories"
	"notekeeper/pkg/logger"
)

// Сообщения об ошибках.
const (
	ErrReadDocument   = "failed to read notes file"
	ErrDecodeDocument = "failed to decode notes file"
	ErrEncodeDocument = "failed to encode notes file"
	ErrWriteDocument  = "failed to write notes file"
)

// document формат файла на диске.
type document struct {
	NextSeq int64            `yaml:"next_seq"`
	Notes   []*entities.Note `yaml:"notes"`
}

// NoteRepository реализует repositories.NoteRepository поверх YAML-файла.
type NoteRepository struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
}

// NewNoteRepository создает репозиторий, хранящий заметки в path на fs.
// Файл создается при первой записи.
func NewNoteRepository(fs afero.Fs, path string) repositories.NoteRepository {
	return &NoteRepository{fs: fs, path: path}
}

// Insert добавляет заметку в конец документа.
func (r *NoteRepository) Insert(ctx context.Context, note *entities.Note) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Insert"), zap.String("noteID", note.ID))

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		log.Error(ctx, ErrReadDocument, zap.Error(err))
		return nil, err
	}

	doc.NextSeq++
	stored := *note
	stored.Seq = doc.NextSeq
	doc.Notes = append(doc.Notes, &stored)

	if err := r.write(doc); err != nil {
		log.Error(ctx, ErrWriteDocument, zap.Error(err))
		return nil, err
	}

	log.Debug(ctx, "note created", zap.Int64("seq", stored.Seq))
	return &stored, nil
}

// FetchAll возвращает все заметки в порядке создания.
func (r *NoteRepository) FetchAll(ctx context.Context) ([]*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.FetchAll"))

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		log.Error(ctx, ErrReadDocument, zap.Error(err))
		return nil, err
	}

	log.Debug(ctx, "notes listed", zap.Int("count", len(doc.Notes)))
	return doc.Notes, nil
}

// FetchByText возвращает заметки с точным совпадением текста.
func (r *NoteRepository) FetchByText(ctx context.Context, text string) ([]*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.FetchByText"))

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		log.Error(ctx, ErrReadDocument, zap.Error(err))
		return nil, err
	}

	matched := make([]*entities.Note, 0)
	for _, note := range doc.Notes {
		if note.Text == text {
			matched = append(matched, note)
		}
	}
	return matched, nil
}

// FetchByID получает заметку по ID.
func (r *NoteRepository) FetchByID(ctx context.Context, id string) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.FetchByID"), zap.String("noteID", id))

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		log.Error(ctx, ErrReadDocument, zap.Error(err))
		return nil, err
	}

	i := doc.indexOf(id)
	if i < 0 {
		log.Debug(ctx, "note not found")
		return nil, entities.ErrNoteNotFound
	}
	return doc.Notes[i], nil
}

// Update перезаписывает текст заметки.
func (r *NoteRepository) Update(ctx context.Context, note *entities.Note) error {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Update"), zap.String("noteID", note.ID))

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		log.Error(ctx, ErrReadDocument, zap.Error(err))
		return err
	}

	i := doc.indexOf(note.ID)
	if i < 0 {
		log.Debug(ctx, "note not found")
		return entities.ErrNoteNotFound
	}
	doc.Notes[i].Text = note.Text
	doc.Notes[i].UpdatedAt = note.UpdatedAt

	if err := r.write(doc); err != nil {
		log.Error(ctx, ErrWriteDocument, zap.Error(err))
		return err
	}
	return nil
}

// Delete удаляет заметку.
func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Delete"), zap.String("noteID", id))

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		log.Error(ctx, ErrReadDocument, zap.Error(err))
		return err
	}

	i := doc.indexOf(id)
	if i < 0 {
		log.Debug(ctx, "note not found")
		return entities.ErrNoteNotFound
	}
	doc.Notes = slices.Delete(doc.Notes, i, i+1)

	if err := r.write(doc); err != nil {
		log.Error(ctx, ErrWriteDocument, zap.Error(err))
		return err
	}
	return nil
}

// read загружает документ; отсутствующий файл означает пустой список.
func (r *NoteRepository) read() (*document, error) {
	data, err := afero.ReadFile(r.fs, r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &document{Notes: make([]*entities.Note, 0)}, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrReadDocument, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrDecodeDocument, err)
	}
	if doc.Notes == nil {
		doc.Notes = make([]*entities.Note, 0)
	}
	for _, note := range doc.Notes {
		if note.Seq > doc.NextSeq {
			doc.NextSeq = note.Seq
		}
	}
	slices.SortStableFunc(doc.Notes, func(a, b *entities.Note) int { return cmp.Compare(a.Seq, b.Seq) })
	return &doc, nil
}

func (r *NoteRepository) write(doc *document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrEncodeDocument, err)
	}
	if err := writeFileAtomic(r.fs, r.path, data); err != nil {
		return fmt.Errorf("%s: %w", ErrWriteDocument, err)
	}
	return nil
}

func (d *document) indexOf(id string) int {
	return slices.IndexFunc(d.Notes, func(n *entities.Note) bool { return n.ID == id })
}
