package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"musicatlas/internal/models"
)

var (
	// ErrNotFound signals the record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict signals a record with the same identity already exists.
	ErrConflict = errors.New("record already exists")
	// ErrInvalidField signals a field name that cannot be used in a query or update.
	ErrInvalidField = errors.New("invalid field name")
)

// Collection names.
const (
	Genres      = "genres"
	Artists     = "artists"
	Songs       = "songs"
	Profiles    = "user-profiles"
	Credentials = "credentials"
)

// Fields is a set of document fields to merge into a record.
type Fields map[string]any

// Record is implemented by every document type kept in a Collection.
type Record[T any] interface {
	WithID(id string) T
}

// Collection is a typed document collection.
type Collection[T Record[T]] interface {
	// Create assigns a new identifier and persists the record.
	Create(ctx context.Context, record T) (T, error)
	// GetByID returns false when no record has the identifier.
	GetByID(ctx context.Context, id string) (T, bool, error)
	// QueryByField returns every record whose field equals value.
	QueryByField(ctx context.Context, field string, value any) ([]T, error)
	// List returns every record in the collection.
	List(ctx context.Context) ([]T, error)
	// Update merges fields into the record, leaving other fields untouched.
	Update(ctx context.Context, id string, fields Fields) error
	// Delete removes the record.
	Delete(ctx context.Context, id string) error
}

// Catalog groups the collections used by the application.
type Catalog struct {
	Genres      Collection[models.Genre]
	Artists     Collection[models.Artist]
	Songs       Collection[models.Song]
	Profiles    Collection[models.UserProfile]
	Credentials Collection[models.Credential]
}

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.NewString()
}

// NotFound wraps ErrNotFound with the collection and identifier.
func NotFound(collection, id string) error {
	return fmt.Errorf("%s %q: %w", collection, id, ErrNotFound)
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// CheckField rejects names that are not plain document field identifiers.
func CheckField(field string) error {
	if !fieldPattern.MatchString(field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	return nil
}

// CheckFields applies CheckField to every key of fields.
func CheckFields(fields Fields) error {
	for name := range fields {
		if err := CheckField(name); err != nil {
			return err
		}
	}
	return nil
}
