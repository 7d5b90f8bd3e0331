// Package media uploads and retires the image and audio objects referenced by catalog records.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Folder groups objects by the kind of record that owns them.
type Folder string

const (
	FolderGenres  Folder = "genres"
	FolderArtists Folder = "artists"
	FolderSongs   Folder = "songs"
)

// Valid reports whether f is one of the known folders.
func (f Folder) Valid() bool {
	switch f {
	case FolderGenres, FolderArtists, FolderSongs:
		return true
	}
	return false
}

// Category is the host resource class an object is stored under.
type Category string

const (
	CategoryImage Category = "image"
	// CategoryVideo holds audio as well as video.
	CategoryVideo Category = "video"
)

// CategoryFor selects the upload category from a content type.
func CategoryFor(contentType string) Category {
	if strings.HasPrefix(strings.ToLower(contentType), "audio/") {
		return CategoryVideo
	}
	return CategoryImage
}

// File is an upload payload.
type File struct {
	Name        string
	ContentType string
	// Size is the declared length; zero means unknown.
	Size int64
	Body io.Reader
}

// Transfer uploads media objects and retires them by URL.
type Transfer interface {
	Upload(ctx context.Context, file File, folder Folder) (string, error)
	Delete(ctx context.Context, url string) error
}

// Host stores objects by key.
type Host interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// Delete reports whether the object existed.
	Delete(ctx context.Context, key string) (bool, error)
}

var (
	// ErrTransfer is matched by every TransferError.
	ErrTransfer = errors.New("media transfer failed")
	// ErrUnresolvableURL means no object identifier could be derived from a URL.
	ErrUnresolvableURL = errors.New("url does not identify a media object")
	// ErrUnknownFolder rejects uploads outside the known folders.
	ErrUnknownFolder = errors.New("unknown media folder")
	// ErrUnsupportedType rejects content types outside the allow list.
	ErrUnsupportedType = errors.New("unsupported content type")
	// ErrTooLarge rejects payloads over the category limit.
	ErrTooLarge = errors.New("file exceeds size limit")
	// ErrEmptyFile rejects uploads without content.
	ErrEmptyFile = errors.New("file is empty")
)

// Operation names used in errors and metrics.
const (
	OpUpload = "upload"
	OpDelete = "delete"
)

// TransferError reports a failed upload or delete.
type TransferError struct {
	Op     string
	Folder Folder
	URL    string
	Err    error
}

func (e *TransferError) Error() string {
	switch {
	case e.URL != "":
		return fmt.Sprintf("media %s %q: %v", e.Op, e.URL, e.Err)
	case e.Folder != "":
		return fmt.Sprintf("media %s to %s: %v", e.Op, e.Folder, e.Err)
	default:
		return fmt.Sprintf("media %s: %v", e.Op, e.Err)
	}
}

func (e *TransferError) Unwrap() []error {
	return []error{ErrTransfer, e.Err}
}
