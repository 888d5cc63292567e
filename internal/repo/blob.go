package repo

import (
	"NoteKeeper/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlobRepository минимальный контракт доступа к содержимому файлов в БД.
type BlobRepository interface {
	// CreateIfAbsent пытается создать запись. Если существует: ничего не делает.
	// Возвращает created=true если запись была создана в этой операции.
	CreateIfAbsent(ctx context.Context, key string, data []byte) (created bool, err error)
	// Get возвращает содержимое или ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
}

type blobRepo struct {
	db *gorm.DB
}

// NewBlobRepository создаёт реализацию репозитория для Blob.
func NewBlobRepository(db *gorm.DB) BlobRepository {
	return &blobRepo{db: db}
}

// CreateIfAbsent создает Blob в БД, если его ещё нет.
func (r *blobRepo) CreateIfAbsent(ctx context.Context, key string, data []byte) (bool, error) {
	b := &model.Blob{Path: key, Data: data}
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}},
		DoNothing: true,
	}).Create(b)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *blobRepo) Get(ctx context.Context, key string) ([]byte, error) {
	var b model.Blob
	if err := r.db.WithContext(ctx).First(&b, "path = ?", key).Error; err != nil {
		return nil, translate(err)
	}
	return b.Data, nil
}
