package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSystemStore хранит файлы плоско в одном каталоге.
type FileSystemStore struct {
	root    string
	newName func(string) string
}

// NewFileSystemStore создаёт хранилище и каталог root при необходимости.
func NewFileSystemStore(root string) (*FileSystemStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &FileSystemStore{root: root, newName: NewName}, nil
}

// Root возвращает каталог хранилища.
func (s *FileSystemStore) Root() string { return s.root }

// Put пишет содержимое во временный файл и публикует его под новым именем.
// Существующий файл никогда не перезаписывается: при коллизии берётся другое имя.
func (s *FileSystemStore) Put(_ context.Context, filename string, r io.Reader) (string, error) {
	tmpPath, err := s.writeTemp(r)
	if err != nil {
		return "", err
	}
	defer os.Remove(tmpPath)

	for range maxNameAttempts {
		key := s.newName(filename)
		// Link, в отличие от Rename, не заменяет существующий файл
		err := os.Link(tmpPath, filepath.Join(s.root, key))
		if err == nil {
			return key, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("failed to publish file: %w", err)
		}
	}
	return "", fmt.Errorf("no free blob name for %q", filename)
}

func (s *FileSystemStore) Copy(ctx context.Context, srcKey string) (string, error) {
	src, err := s.Open(ctx, srcKey)
	if err != nil {
		return "", err
	}
	defer src.Close()
	return s.Put(ctx, srcKey, src)
}

func (s *FileSystemStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if !validKey(key) {
		return nil, ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.root, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// writeTemp копирует r во временный файл в каталоге хранилища, чтобы не оставлять обрезанных файлов.
func (s *FileSystemStore) writeTemp(r io.Reader) (string, error) {
	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	return tmpPath, nil
}

var _ Store = (*FileSystemStore)(nil)
