// Package dto содержит структуры запросов и ответов HTTP API заметок.
package dto

import (
	"time"

	"notekeeper/internal/notes/domain/entities"
)

// CreateNoteRequest содержит данные для создания заметки.
type CreateNoteRequest struct {
	Text *string `json:"text"`
}

// UpdateByTextRequest переписывает первую заметку с текстом OldText.
type UpdateByTextRequest struct {
	OldText *string `json:"old_text"`
	NewText *string `json:"new_text"`
}

// UpdateNoteRequest содержит новый текст заметки.
type UpdateNoteRequest struct {
	Text *string `json:"text"`
}

// Note представляет заметку.
type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteResponse содержит одну заметку.
type NoteResponse struct {
	Note Note `json:"note"`
}

// ListNotesResponse содержит последовательность заметок в порядке отображения.
type ListNotesResponse struct {
	Notes []Note `json:"notes"`
}

// UpdateByTextResponse сообщает, нашлась ли заметка, и возвращает итоговую последовательность.
type UpdateByTextResponse struct {
	Updated bool   `json:"updated"`
	Notes   []Note `json:"notes"`
}

// ErrorResponse тело любого ответа с кодом не 2xx.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FromEntity преобразует доменную заметку.
func FromEntity(n entities.Note) Note {
	return Note{
		ID:        n.ID,
		Text:      n.Text,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

// FromEntities преобразует последовательность и никогда не возвращает nil.
func FromEntities(notes []entities.Note) []Note {
	out := make([]Note, 0, len(notes))
	for _, n := range notes {
		out = append(out, FromEntity(n))
	}
	return out
}
