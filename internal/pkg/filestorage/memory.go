package filestorage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStorage keeps content in memory for tests
type MemoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	// FailDelete, when set, is returned by Delete
	FailDelete error
}

var _ ContentStore = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty MemoryStorage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string][]byte)}
}

// Store keeps a copy of content
func (m *MemoryStorage) Store(_ context.Context, content io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	ref := uuid.New().String() + strings.ToLower(filepath.Ext(filename))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[ref] = data
	return ref, nil
}

// Delete drops ref
func (m *MemoryStorage) Delete(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailDelete != nil {
		return m.FailDelete
	}
	delete(m.objects, ref)
	return nil
}

// URL returns the path the object would be served under
func (m *MemoryStorage) URL(ref string) string {
	if ref == "" {
		return ""
	}
	return "/uploads/" + ref
}

// Get returns the stored bytes of ref
func (m *MemoryStorage) Get(ref string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.objects[ref]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

// Len reports how many objects are stored
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
