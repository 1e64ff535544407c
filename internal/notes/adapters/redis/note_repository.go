// Package redis provides the Redis note repository.
//
// Каждая заметка хранится в хеше <prefix>:note:<id>, порядок задается
// отсортированным множеством <prefix>:order со счетчиком <prefix>:seq.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"notekeeper/internal/notes/domain/entities"
	"notekeeper/internal/notes/ports/repositories"
	"notekeeper/pkg/logger"
)

// Сообщения об ошибках.
const (
	ErrCreateNote = "failed to create note"
	ErrListNotes  = "failed to list notes"
	ErrDecodeNote = "failed to decode note"
	ErrGetNote    = "failed to get note"
	ErrUpdateNote = "failed to update note"
	ErrDeleteNote = "failed to delete note"
	ErrNextSeq    = "failed to allocate sequence"
)

// DefaultPrefix используется, если префикс ключей не задан.
const DefaultPrefix = "notes"

const maxWatchRetry = 3

// Поля хеша заметки.
const (
	fieldID        = "id"
	fieldText      = "text"
	fieldSeq       = "seq"
	fieldCreatedAt = "created_at"
	fieldUpdatedAt = "updated_at"
)

// NoteRepository реализует repositories.NoteRepository поверх Redis.
type NoteRepository struct {
	client redis.UniversalClient
	prefix string
}

// NewNoteRepository создает репозиторий; пустой prefix заменяется на DefaultPrefix.
func NewNoteRepository(client redis.UniversalClient, prefix string) repositories.NoteRepository {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &NoteRepository{client: client, prefix: prefix}
}

func (r *NoteRepository) noteKey(id string) string { return r.prefix + ":note:" + id }
func (r *NoteRepository) orderKey() string         { return r.prefix + ":order" }
func (r *NoteRepository) seqKey() string           { return r.prefix + ":seq" }

// Insert сохраняет заметку и добавляет ее в конец порядка.
func (r *NoteRepository) Insert(ctx context.Context, note *entities.Note) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Insert"), zap.String("noteID", note.ID))

	seq, err := r.client.Incr(ctx, r.seqKey()).Result()
	if err != nil {
		log.Error(ctx, ErrNextSeq, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrNextSeq, err)
	}

	stored := *note
	stored.Seq = seq

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.noteKey(stored.ID), encode(&stored))
		pipe.ZAdd(ctx, r.orderKey(), redis.Z{Score: float64(seq), Member: stored.ID})
		return nil
	})
	if err != nil {
		log.Error(ctx, ErrCreateNote, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrCreateNote, err)
	}

	log.Debug(ctx, "note created", zap.Int64("seq", seq))
	return &stored, nil
}

// FetchAll возвращает все заметки в порядке создания.
func (r *NoteRepository) FetchAll(ctx context.Context) ([]*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.FetchAll"))

	notes, err := r.list(ctx)
	if err != nil {
		log.Error(ctx, ErrListNotes, zap.Error(err))
		return nil, err
	}

	log.Debug(ctx, "notes listed", zap.Int("count", len(notes)))
	return notes, nil
}

// FetchByText возвращает заметки с точным совпадением текста.
func (r *NoteRepository) FetchByText(ctx context.Context, text string) ([]*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.FetchByText"))

	all, err := r.list(ctx)
	if err != nil {
		log.Error(ctx, ErrListNotes, zap.Error(err))
		return nil, err
	}

	matched := make([]*entities.Note, 0)
	for _, note := range all {
		if note.Text == text {
			matched = append(matched, note)
		}
	}
	return matched, nil
}

// FetchByID получает заметку по ID.
func (r *NoteRepository) FetchByID(ctx context.Context, id string) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.FetchByID"), zap.String("noteID", id))

	fields, err := r.client.HGetAll(ctx, r.noteKey(id)).Result()
	if err != nil {
		log.Error(ctx, ErrGetNote, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrGetNote, err)
	}
	if len(fields) == 0 {
		log.Debug(ctx, "note not found")
		return nil, entities.ErrNoteNotFound
	}

	note, err := decode(fields)
	if err != nil {
		log.Error(ctx, ErrDecodeNote, zap.Error(err))
		return nil, err
	}
	return note, nil
}

// Update перезаписывает текст заметки, если она существует.
func (r *NoteRepository) Update(ctx context.Context, note *entities.Note) error {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Update"), zap.String("noteID", note.ID))
	key := r.noteKey(note.ID)

	txf := func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists == 0 {
			return entities.ErrNoteNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				fieldText, note.Text,
				fieldUpdatedAt, note.UpdatedAt.UTC().Format(time.RFC3339Nano),
			)
			return nil
		})
		return err
	}

	var err error
	for range maxWatchRetry {
		err = r.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, entities.ErrNoteNotFound):
		log.Debug(ctx, "note not found")
		return entities.ErrNoteNotFound
	default:
		log.Error(ctx, ErrUpdateNote, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrUpdateNote, err)
	}
}

// Delete удаляет заметку и ее место в порядке.
func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Delete"), zap.String("noteID", id))

	var removed *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.Del(ctx, r.noteKey(id))
		pipe.ZRem(ctx, r.orderKey(), id)
		return nil
	})
	if err != nil {
		log.Error(ctx, ErrDeleteNote, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrDeleteNote, err)
	}
	if removed.Val() == 0 {
		log.Debug(ctx, "note not found")
		return entities.ErrNoteNotFound
	}
	return nil
}

// list читает порядок и затем все хеши одним конвейером.
func (r *NoteRepository) list(ctx context.Context) ([]*entities.Note, error) {
	ids, err := r.client.ZRange(ctx, r.orderKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrListNotes, err)
	}

	notes := make([]*entities.Note, 0, len(ids))
	if len(ids) == 0 {
		return notes, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, r.noteKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrListNotes, err)
	}

	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		note, err := decode(fields)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, nil
}

func encode(note *entities.Note) map[string]any {
	return map[string]any{
		fieldID:        note.ID,
		fieldText:      note.Text,
		fieldSeq:       note.Seq,
		fieldCreatedAt: note.CreatedAt.UTC().Format(time.RFC3339Nano),
		fieldUpdatedAt: note.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func decode(fields map[string]string) (*entities.Note, error) {
	seq, err := strconv.ParseInt(fields[fieldSeq], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: seq: %w", ErrDecodeNote, err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields[fieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("%s: created_at: %w", ErrDecodeNote, err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, fields[fieldUpdatedAt])
	if err != nil {
		return nil, fmt.Errorf("%s: updated_at: %w", ErrDecodeNote, err)
	}

	return &entities.Note{
		ID:        fields[fieldID],
		Text:      fields[fieldText],
		Seq:       seq,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}
