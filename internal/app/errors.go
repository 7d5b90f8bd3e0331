// Package app holds the pieces shared by the catalog coordinators.
package app

import "fmt"

// Kind names the catalog entity an operation acted on.
type Kind string

const (
	KindGenre  Kind = "genre"
	KindArtist Kind = "artist"
	KindSong   Kind = "song"
)

// Op names a coordinator operation.
type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpGet    Op = "get"
	OpList   Op = "list"
)

// OperationError tags a failure with the operation and entity kind that produced it.
type OperationError struct {
	Kind Kind
	Op   Op
	Err  error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// Wrap returns nil for a nil err.
func Wrap(kind Kind, op Op, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Kind: kind, Op: op, Err: err}
}
