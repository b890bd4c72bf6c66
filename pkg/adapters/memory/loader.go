package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/vaudio/pkg/domain"
)

// Loader implements ports.ContentLoader using an in-memory map keyed by content path.
// Safe for concurrent use.
type Loader struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewLoader creates a loader with the provided raw documents.
func NewLoader(data map[string]string) *Loader {
	files := make(map[string][]byte, len(data))
	for k, v := range data {
		files[cleanPath(k)] = []byte(v)
	}
	return &Loader{files: files}
}

// NewFromValues creates a loader by marshaling each value to JSON.
// This keeps test fixtures readable.
func NewFromValues(values map[string]any) (*Loader, error) {
	l := &Loader{files: make(map[string][]byte, len(values))}
	for p, v := range values {
		if err := l.PutValue(p, v); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Put stores a raw document.
func (l *Loader) Put(p string, data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.files[cleanPath(p)] = data
}

// PutValue marshals v to JSON and stores it.
func (l *Loader) PutValue(p string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", p, err)
	}
	l.Put(p, data)
	return nil
}

// Delete removes a document.
func (l *Loader) Delete(p string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.files, cleanPath(p))
}

// Load returns the raw document stored at p.
func (l *Loader) Load(_ context.Context, p string) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	content, ok := l.files[cleanPath(p)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrContentNotFound, p)
	}
	return content, nil
}

// List returns every stored path, sorted.
func (l *Loader) List(_ context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.files))
	for k := range l.files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func cleanPath(p string) string {
	return strings.TrimPrefix(strings.TrimSpace(p), "/")
}
