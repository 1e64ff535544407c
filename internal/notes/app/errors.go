package app

import (
	"errors"
	"fmt"
)

// Ошибки уровня хранилища заметок.
var (
	ErrPersistence     = errors.New("persistence failure")
	ErrIndexOutOfRange = errors.New("note index out of range")
)

// Операции, попадающие в PersistenceError.Op.
const (
	OpLoadAll = "load all"
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpGet     = "get"
)

// PersistenceError wraps a failed storage call. It matches ErrPersistence
// and the underlying storage error under errors.Is.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}
