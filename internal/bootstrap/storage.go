// Package bootstrap собирает слой хранения сервера по конфигурации.
package bootstrap

import (
	"NoteKeeper/internal/blobstore"
	"NoteKeeper/internal/config"
	"NoteKeeper/internal/repo"
	mongorepo "NoteKeeper/internal/repo/mongo"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Storage: готовые репозитории и хранилище файлов.
type Storage struct {
	Items repo.ItemRepository
	Users repo.UserRepository
	Blobs blobstore.Store

	closers []func(context.Context) error
}

// Close освобождает соединения. Повторный вызов безопасен.
func (s *Storage) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i](ctx))
	}
	s.closers = nil
	return errors.Join(errs...)
}

// OpenStorage открывает БД по cfg.DatabaseDSN (MongoDB, PostgreSQL или SQLite)
// и выбирает хранилище файлов по cfg.BlobBackend.
// При ошибке уже открытые соединения закрываются.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*Storage, error) {
	s := &Storage{}

	var (
		gdb  *gorm.DB
		mdb  *mongo.Database
		err  error
		kind string
	)
	if mongorepo.IsMongoURI(cfg.DatabaseDSN) {
		kind = "mongodb"
		mdb, err = s.openMongo(ctx, cfg)
	} else {
		kind = "sql"
		gdb, err = s.openSQL(cfg)
	}
	if err != nil {
		_ = s.Close(ctx)
		return nil, err
	}

	blobs, err := openBlobStore(ctx, cfg, gdb, mdb)
	if err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	s.Blobs = blobs

	logger.Infow("storage ready", "database", kind, "blobs", cfg.BlobBackend)
	return s, nil
}

func (s *Storage) openMongo(ctx context.Context, cfg *config.Config) (*mongo.Database, error) {
	client, err := mongorepo.NewClient(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, client.Disconnect)

	db := client.Database(cfg.MongoDatabase)
	if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
		return nil, err
	}
	s.Items = mongorepo.NewItemStore(db)
	s.Users = mongorepo.NewUserStore(db)
	return db, nil
}

func (s *Storage) openSQL(cfg *config.Config) (*gorm.DB, error) {
	db, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, func(context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
	s.Items = repo.NewItemRepository(db)
	s.Users = repo.NewUserRepository(db)
	return db, nil
}

func openBlobStore(ctx context.Context, cfg *config.Config, gdb *gorm.DB, mdb *mongo.Database) (blobstore.Store, error) {
	switch cfg.BlobBackend {
	case config.BlobBackendS3:
		return blobstore.NewS3Store(ctx, blobstore.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	case config.BlobBackendGridFS:
		if mdb == nil {
			return nil, fmt.Errorf("blob backend %q requires a MongoDB database", cfg.BlobBackend)
		}
		return blobstore.NewGridFSStore(mdb), nil
	case config.BlobBackendDB:
		if gdb == nil {
			if mdb != nil {
				return blobstore.NewGridFSStore(mdb), nil
			}
			return nil, fmt.Errorf("blob backend %q requires a SQL database", cfg.BlobBackend)
		}
		return blobstore.NewDatabaseStore(repo.NewBlobRepository(gdb)), nil
	default:
		return blobstore.NewFileSystemStore(cfg.UploadDir)
	}
}
