// Package memhost is an in-memory media host.
package memhost

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

// Object is a stored payload.
type Object struct {
	Data        []byte
	ContentType string
}

// Host keeps objects in a map. The zero value is not usable; call New.
type Host struct {
	mu      sync.RWMutex
	objects map[string]Object
}

// New returns an empty Host.
func New() *Host {
	return &Host{objects: make(map[string]Object)}
}

// Put stores the object; keys are create-only.
func (h *Host) Put(ctx context.Context, key string, body io.Reader, _ int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.objects[key]; exists {
		return fmt.Errorf("object %s already exists", key)
	}
	h.objects[key] = Object{Data: data, ContentType: contentType}
	return nil
}

// Delete removes the object and reports whether it existed.
func (h *Host) Delete(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, existed := h.objects[key]
	delete(h.objects, key)
	return existed, nil
}

// Get returns a stored object.
func (h *Host) Get(key string) (Object, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	obj, ok := h.objects[key]
	return obj, ok
}

// Keys lists the stored keys in order.
func (h *Host) Keys() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	keys := make([]string, 0, len(h.objects))
	for k := range h.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
