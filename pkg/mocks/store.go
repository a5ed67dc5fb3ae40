package mocks

import (
	"context"
	"sync"

	"github.com/user/moviebarcode/pkg/ports"
)

// ObjectStore is a mock implementation of ports.ObjectStore.
type ObjectStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	types   map[string]string

	PutFunc func(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// NewObjectStore creates a new mock ObjectStore.
func NewObjectStore() *ObjectStore {
	return &ObjectStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (m *ObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, key, data, contentType)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return "mock://" + key, nil
}

// GetObject returns a stored object and its content type (for test verification).
func (m *ObjectStore) GetObject(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	return data, m.types[key], ok
}

// Len returns the number of stored objects.
func (m *ObjectStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

var _ ports.ObjectStore = (*ObjectStore)(nil)
