package blobstore

import (
	"NoteKeeper/internal/repo"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
)

// DatabaseStore хранит содержимое файлов в таблице blobs через repo.BlobRepository.
type DatabaseStore struct {
	blobs repo.BlobRepository
}

// NewDatabaseStore создаёт хранилище поверх репозитория.
func NewDatabaseStore(blobs repo.BlobRepository) *DatabaseStore {
	return &DatabaseStore{blobs: blobs}
}

// попыток подобрать свободное имя при коллизии
const maxNameAttempts = 3

func (s *DatabaseStore) Put(ctx context.Context, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}
	for range maxNameAttempts {
		key := NewName(filename)
		created, err := s.blobs.CreateIfAbsent(ctx, key, data)
		if err != nil {
			return "", err
		}
		if created {
			return key, nil
		}
	}
	return "", fmt.Errorf("no free blob name for %q", filename)
}

func (s *DatabaseStore) Copy(ctx context.Context, srcKey string) (string, error) {
	rc, err := s.Open(ctx, srcKey)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return s.Put(ctx, srcKey, rc)
}

func (s *DatabaseStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, err := s.blobs.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

var _ Store = (*DatabaseStore)(nil)
