// Package repositories defines the durable store contract for notes.
package repositories

import (
	"context"

	"notekeeper/internal/notes/domain/entities"
)

// NoteRepository is the system of record for notes. Every call is durable
// when it returns without error. Listings are ordered by Seq.
type NoteRepository interface {
	// FetchAll returns every stored note in creation order.
	FetchAll(ctx context.Context) ([]*entities.Note, error)
	// Insert stores a new note and returns it with Seq assigned.
	Insert(ctx context.Context, note *entities.Note) (*entities.Note, error)
	// FetchByText returns the notes whose text equals text, in creation order.
	FetchByText(ctx context.Context, text string) ([]*entities.Note, error)
	// FetchByID returns entities.ErrNoteNotFound when id is unknown.
	FetchByID(ctx context.Context, id string) (*entities.Note, error)
	// Update rewrites text and updated_at of an existing note.
	Update(ctx context.Context, note *entities.Note) error
	// Delete removes the note with id.
	Delete(ctx context.Context, id string) error
}
