// Package apptest provides recording fakes for coordinator tests.
package apptest

import (
	"context"
	"fmt"
	"io"
	"sync"

	"musicatlas/internal/media"
	"musicatlas/internal/store"
	"musicatlas/internal/store/memory"
)

// Journal records the order of external calls.
type Journal struct {
	mu     sync.Mutex
	events []string
}

func (j *Journal) add(event string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, event)
}

// Events returns a copy of the recorded events.
func (j *Journal) Events() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.events...)
}

// Transfer is a media.Transfer that records calls and can be told to fail.
type Transfer struct {
	journal *Journal

	mu          sync.Mutex
	next        int
	attempts    int
	live        map[string]string
	UploadErr   error
	// UploadErrAt, when positive, makes only that upload attempt (1-based) fail with UploadErr.
	UploadErrAt int
	DeleteErrs  map[string]error
}

// NewTransfer returns a Transfer writing to journal.
func NewTransfer(journal *Journal) *Transfer {
	return &Transfer{journal: journal, live: make(map[string]string), DeleteErrs: make(map[string]error)}
}

// Upload returns https://media.test/<folder>/<n> and records "upload <folder>".
func (t *Transfer) Upload(_ context.Context, file media.File, folder media.Folder) (string, error) {
	t.journal.add("upload " + string(folder))
	t.mu.Lock()
	t.attempts++
	attempt := t.attempts
	t.mu.Unlock()
	if t.UploadErr != nil && (t.UploadErrAt <= 0 || t.UploadErrAt == attempt) {
		return "", &media.TransferError{Op: media.OpUpload, Folder: folder, Err: t.UploadErr}
	}

	var body string
	if file.Body != nil {
		data, err := io.ReadAll(file.Body)
		if err != nil {
			return "", err
		}
		body = string(data)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	url := fmt.Sprintf("https://media.test/%s/%d", folder, t.next)
	t.live[url] = body
	return url, nil
}

// Delete records "delete <url>" and fails with DeleteErrs[url] when set.
func (t *Transfer) Delete(_ context.Context, url string) error {
	t.journal.add("delete " + url)
	if err, ok := t.DeleteErrs[url]; ok {
		return &media.TransferError{Op: media.OpDelete, URL: url, Err: err}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.live, url)
	return nil
}

// Seed marks url as a live object.
func (t *Transfer) Seed(url string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.live[url] = ""
}

// Live reports whether url refers to a stored object.
func (t *Transfer) Live(url string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.live[url]
	return ok
}

// Collection wraps an in-memory collection and records writes.
type Collection[T store.Record[T]] struct {
	*memory.Collection[T]
	journal   *Journal
	CreateErr error
	UpdateErr error
}

// NewCollection returns an empty recording collection.
func NewCollection[T store.Record[T]](journal *Journal, name string) *Collection[T] {
	return &Collection[T]{Collection: memory.NewCollection[T](name), journal: journal}
}

// Create records "create".
func (c *Collection[T]) Create(ctx context.Context, record T) (T, error) {
	c.journal.add("create")
	if c.CreateErr != nil {
		var zero T
		return zero, c.CreateErr
	}
	return c.Collection.Create(ctx, record)
}

// Update records "update".
func (c *Collection[T]) Update(ctx context.Context, id string, fields store.Fields) error {
	c.journal.add("update")
	if c.UpdateErr != nil {
		return c.UpdateErr
	}
	return c.Collection.Update(ctx, id, fields)
}

// Delete records "delete record".
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	c.journal.add("delete record")
	return c.Collection.Delete(ctx, id)
}

// Insert stores record without journaling and returns its identifier.
func (c *Collection[T]) Insert(record T) T {
	created, err := c.Collection.Create(context.Background(), record)
	if err != nil {
		panic(err)
	}
	return created
}
