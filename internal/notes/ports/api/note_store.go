// Package api описывает операции хранилища заметок для слоя представления.
package api

import (
	"context"

	"notekeeper/internal/notes/domain/entities"
)

// NoteStore is what the HTTP and CLI layers call.
type NoteStore interface {
	LoadAll(ctx context.Context) ([]entities.Note, error)
	Notes() []entities.Note
	Create(ctx context.Context, text string) (entities.Note, error)
	Update(ctx context.Context, oldText, newText string) (bool, error)
	Delete(ctx context.Context, index int) error
	Get(ctx context.Context, id string) (entities.Note, error)
	UpdateByID(ctx context.Context, id, newText string) (entities.Note, error)
	DeleteByID(ctx context.Context, id string) error
}
