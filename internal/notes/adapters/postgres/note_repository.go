// Package postgres provides the PostgreSQL note repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"notekeeper/internal/notes/domain/entities"
	"notekeeper/internal/notes/ports/repositories"
	"notekeeper/pkg/logger"
)

// Сообщения об ошибках.
const (
	ErrCreateNote = "failed to create note"
	ErrListNotes  = "failed to list notes"
	ErrScanNote   = "failed to scan note"
	ErrGetNote    = "failed to get note"
	ErrUpdateNote = "failed to update note"
	ErrDeleteNote = "failed to delete note"
)

const (
	queryInsert     = `INSERT INTO notes (id, text, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING seq`
	querySelectAll  = `SELECT id, seq, text, created_at, updated_at FROM notes ORDER BY seq`
	querySelectText = `SELECT id, seq, text, created_at, updated_at FROM notes WHERE text = $1 ORDER BY seq`
	querySelectByID = `SELECT id, seq, text, created_at, updated_at FROM notes WHERE id = $1`
	queryUpdateText = `UPDATE notes SET text = $1, updated_at = $2 WHERE id = $3`
	queryDeleteByID = `DELETE FROM notes WHERE id = $1`
)

// NoteRepository реализует repositories.NoteRepository поверх Postgres.
type NoteRepository struct {
	pool PgxPoolInterface
}

// NewNoteRepository создает новый репозиторий заметок.
func NewNoteRepository(pool PgxPoolInterface) repositories.NoteRepository {
	return &NoteRepository{pool: pool}
}

// Insert сохраняет новую заметку; seq назначает база.
func (r *NoteRepository) Insert(ctx context.Context, note *entities.Note) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Insert"))

	stored := *note
	err := r.pool.QueryRow(ctx, queryInsert,
		note.ID, note.Text, note.CreatedAt, note.UpdatedAt,
	).Scan(&stored.Seq)
	if err != nil {
		log.Error(ctx, ErrCreateNote, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrCreateNote, err)
	}

	log.Debug(ctx, "note created", zap.String("noteID", stored.ID), zap.Int64("seq", stored.Seq))
	return &stored, nil
}

// FetchAll возвращает все заметки в порядке создания.
func (r *NoteRepository) FetchAll(ctx context.Context) ([]*entities.Note, error) {
	return r.list(ctx, "NoteRepository.FetchAll", querySelectAll)
}

// FetchByText возвращает заметки с точным совпадением текста.
func (r *NoteRepository) FetchByText(ctx context.Context, text string) ([]*entities.Note, error) {
	return r.list(ctx, "NoteRepository.FetchByText", querySelectText, text)
}

// FetchByID получает заметку по ID.
func (r *NoteRepository) FetchByID(ctx context.Context, id string) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.FetchByID"), zap.String("noteID", id))

	var note entities.Note
	err := r.pool.QueryRow(ctx, querySelectByID, id).
		Scan(&note.ID, &note.Seq, &note.Text, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Debug(ctx, "note not found")
			return nil, entities.ErrNoteNotFound
		}
		log.Error(ctx, ErrGetNote, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrGetNote, err)
	}
	return &note, nil
}

// Update перезаписывает текст заметки.
func (r *NoteRepository) Update(ctx context.Context, note *entities.Note) error {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Update"), zap.String("noteID", note.ID))

	result, err := r.pool.Exec(ctx, queryUpdateText, note.Text, note.UpdatedAt, note.ID)
	if err != nil {
		log.Error(ctx, ErrUpdateNote, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrUpdateNote, err)
	}
	if result.RowsAffected() == 0 {
		log.Debug(ctx, "note not found")
		return entities.ErrNoteNotFound
	}
	return nil
}

// Delete удаляет заметку.
func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Delete"), zap.String("noteID", id))

	result, err := r.pool.Exec(ctx, queryDeleteByID, id)
	if err != nil {
		log.Error(ctx, ErrDeleteNote, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrDeleteNote, err)
	}
	if result.RowsAffected() == 0 {
		log.Debug(ctx, "note not found")
		return entities.ErrNoteNotFound
	}
	return nil
}

func (r *NoteRepository) list(ctx context.Context, method, query string, args ...any) ([]*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", method))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		log.Error(ctx, ErrListNotes, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrListNotes, err)
	}
	defer rows.Close()

	notes := make([]*entities.Note, 0)
	for rows.Next() {
		var note entities.Note
		if err := rows.Scan(&note.ID, &note.Seq, &note.Text, &note.CreatedAt, &note.UpdatedAt); err != nil {
			log.Error(ctx, ErrScanNote, zap.Error(err))
			return nil, fmt.Errorf("%s: %w", ErrScanNote, err)
		}
		notes = append(notes, &note)
	}
	if err := rows.Err(); err != nil {
		log.Error(ctx, ErrListNotes, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrListNotes, err)
	}

	log.Debug(ctx, "notes listed", zap.Int("count", len(notes)))
	return notes, nil
}
