package blobstore

import (
	"context"
	"errors"
	"io"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// GridFSStore хранит файлы в GridFS той же базы MongoDB, что и документы.
type GridFSStore struct {
	bucket *mongo.GridFSBucket
}

// NewGridFSStore инициализирует bucket с настройками по умолчанию.
func NewGridFSStore(db *mongo.Database) *GridFSStore {
	return &GridFSStore{bucket: db.GridFSBucket(options.GridFSBucket())}
}

func (s *GridFSStore) Put(ctx context.Context, filename string, r io.Reader) (string, error) {
	key := NewName(filename)
	if _, err := s.bucket.UploadFromStream(ctx, key, r); err != nil {
		return "", err
	}
	return key, nil
}

func (s *GridFSStore) Copy(ctx context.Context, srcKey string) (string, error) {
	src, err := s.Open(ctx, srcKey)
	if err != nil {
		return "", err
	}
	defer src.Close()
	return s.Put(ctx, srcKey, src)
}

func (s *GridFSStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	stream, err := s.bucket.OpenDownloadStreamByName(ctx, key)
	if err != nil {
		if errors.Is(err, mongo.ErrFileNotFound) || errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return stream, nil
}

var _ Store = (*GridFSStore)(nil)
