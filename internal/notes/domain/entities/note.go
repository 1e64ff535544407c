// Package entities defines the domain entities for the notes service.
package entities

import (
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrNoteNotFound возвращается, когда заметки с запрошенным ID нет.
var ErrNoteNotFound = errors.New("note not found")

// Note представляет собой заметку.
type Note struct {
	ID        string    `json:"id" yaml:"id"`
	Text      string    `json:"text" yaml:"text"`
	Seq       int64     `json:"-" yaml:"seq"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// NewNote создает заметку с новым ULID. Seq назначает хранилище.
func NewNote(text string) *Note {
	now := time.Now().UTC()
	return &Note{
		ID:        NewID(now),
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID возвращает ULID для t. Более поздние ID сортируются после ранних,
// в том числе в пределах одной миллисекунды.
func NewID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// Rename заменяет текст и сдвигает UpdatedAt.
func (n *Note) Rename(text string) {
	n.Text = text
	n.UpdatedAt = time.Now().UTC()
}
