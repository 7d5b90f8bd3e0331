// Package memory keeps documents in process memory for demos and tests.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"musicatlas/internal/models"
	"musicatlas/internal/store"
)

// Collection stores JSON-encoded documents keyed by identifier.
type Collection[T store.Record[T]] struct {
	mu     sync.RWMutex
	name   string
	docs   map[string]map[string]json.RawMessage
	order  []string
	newID  func() string
	unique []string
}

// NewCollection returns an empty collection.
func NewCollection[T store.Record[T]](name string) *Collection[T] {
	return &Collection[T]{
		name:  name,
		docs:  make(map[string]map[string]json.RawMessage),
		newID: store.NewID,
	}
}

// Unique rejects writes that would give two documents the same value for any of fields.
func (c *Collection[T]) Unique(fields ...string) *Collection[T] {
	c.unique = append(c.unique, fields...)
	return c
}

// NewCatalog returns empty in-memory collections for every kind, with the
// same unique fields as the database indexes.
func NewCatalog() store.Catalog {
	return store.Catalog{
		Genres:      NewCollection[models.Genre](store.Genres),
		Artists:     NewCollection[models.Artist](store.Artists),
		Songs:       NewCollection[models.Song](store.Songs),
		Profiles:    NewCollection[models.UserProfile](store.Profiles).Unique(models.FieldUserID),
		Credentials: NewCollection[models.Credential](store.Credentials).Unique(models.FieldEmail),
	}
}

// Create stores a copy of record under a new identifier.
func (c *Collection[T]) Create(ctx context.Context, record T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	id := c.newID()
	record = record.WithID(id)
	doc, err := encode(record)
	if err != nil {
		return zero, fmt.Errorf("encode %s: %w", c.name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.docs[id]; exists {
		return zero, fmt.Errorf("%s %q: %w", c.name, id, store.ErrConflict)
	}
	if field, taken := c.duplicate(doc, ""); taken {
		return zero, fmt.Errorf("%s %s: %w", c.name, field, store.ErrConflict)
	}
	c.docs[id] = doc
	c.order = append(c.order, id)
	return record, nil
}

// GetByID returns a copy of the stored record.
func (c *Collection[T]) GetByID(ctx context.Context, id string) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}

	c.mu.RLock()
	doc, ok := c.docs[id]
	c.mu.RUnlock()
	if !ok {
		return zero, false, nil
	}

	record, err := decode[T](doc)
	if err != nil {
		return zero, false, fmt.Errorf("decode %s: %w", c.name, err)
	}
	return record, true, nil
}

// QueryByField compares the JSON encoding of the stored field with value.
func (c *Collection[T]) QueryByField(ctx context.Context, field string, value any) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := store.CheckField(field); err != nil {
		return nil, err
	}

	want, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode %s query value: %w", c.name, err)
	}

	return c.collect(func(doc map[string]json.RawMessage) bool {
		got, ok := doc[field]
		return ok && bytes.Equal(got, want)
	})
}

// List returns every record in insertion order.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.collect(func(map[string]json.RawMessage) bool { return true })
}

// Update merges fields into the stored document.
func (c *Collection[T]) Update(ctx context.Context, id string, fields store.Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := store.CheckFields(fields); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	doc, ok := c.docs[id]
	if !ok {
		return store.NotFound(c.name, id)
	}

	merged := cloneDoc(doc)
	for name, value := range fields {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %s field %q: %w", c.name, name, err)
		}
		merged[name] = raw
	}
	if _, err := decode[T](merged); err != nil {
		return fmt.Errorf("merge %s: %w", c.name, err)
	}
	if field, taken := c.duplicate(merged, id); taken {
		return fmt.Errorf("%s %s: %w", c.name, field, store.ErrConflict)
	}

	c.docs[id] = merged
	return nil
}

// Delete removes the document.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.docs[id]; !ok {
		return store.NotFound(c.name, id)
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// duplicate reports a unique field of doc already held by a document other than self.
// Callers hold the lock.
func (c *Collection[T]) duplicate(doc map[string]json.RawMessage, self string) (string, bool) {
	for _, field := range c.unique {
		value, ok := doc[field]
		if !ok {
			continue
		}
		for id, other := range c.docs {
			if id != self && bytes.Equal(other[field], value) {
				return field, true
			}
		}
	}
	return "", false
}

func (c *Collection[T]) collect(match func(map[string]json.RawMessage) bool) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]T, 0, len(c.order))
	for _, id := range c.order {
		doc := c.docs[id]
		if !match(doc) {
			continue
		}
		record, err := decode[T](doc)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", c.name, err)
		}
		result = append(result, record)
	}
	return result, nil
}

func encode(record any) (map[string]json.RawMessage, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func decode[T any](doc map[string]json.RawMessage) (T, error) {
	var record T
	raw, err := json.Marshal(doc)
	if err != nil {
		return record, err
	}
	err = json.Unmarshal(raw, &record)
	return record, err
}

func cloneDoc(doc map[string]json.RawMessage) map[string]json.RawMessage {
	clone := make(map[string]json.RawMessage, len(doc))
	for k, v := range doc {
		clone[k] = v
	}
	return clone
}
