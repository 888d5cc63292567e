package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryStore держит файлы в памяти. Используется в тестах.
// Безопасен для конкурентного использования.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemoryStore создаёт пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string][]byte)}
}

func (m *MemoryStore) Put(_ context.Context, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := NewName(filename)
	for _, taken := m.files[key]; taken; _, taken = m.files[key] {
		key = NewName(filename)
	}
	m.files[key] = data
	return key, nil
}

func (m *MemoryStore) Copy(ctx context.Context, srcKey string) (string, error) {
	m.mu.RLock()
	data, ok := m.files[srcKey]
	m.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}
	return m.Put(ctx, srcKey, bytes.NewReader(data))
}

func (m *MemoryStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[key]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Len: количество сохранённых файлов.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

var _ Store = (*MemoryStore)(nil)
