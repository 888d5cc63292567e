package bootstrap

import (
	"NoteKeeper/internal/blobstore"
	"NoteKeeper/internal/config"
	"NoteKeeper/internal/model"
	"NoteKeeper/internal/repo"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenStorage_SQLiteWithFileSystemBlobs(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		DatabaseDSN: filepath.Join(dir, "nk.db"),
		BlobBackend: config.BlobBackendFS,
		UploadDir:   filepath.Join(dir, "uploads"),
	}
	ctx := context.Background()

	s, err := OpenStorage(ctx, cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(ctx) })

	_, ok := s.Blobs.(*blobstore.FileSystemStore)
	assert.True(t, ok)

	u, err := s.Users.CreateUser(ctx, &model.User{Username: "ann", Email: "ann@example.com", Password: "x"})
	require.NoError(t, err)
	require.NoError(t, s.Items.Create(ctx, &model.Item{UserID: u.ID, Name: "Inbox", Type: model.ItemFolder}))

	items, err := s.Items.Find(ctx, repo.ItemFilter{OwnerID: u.ID})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, s.Close(ctx))
	// повторный Close ничего не делает
	require.NoError(t, s.Close(ctx))
}

func TestOpenStorage_DatabaseBlobs(t *testing.T) {
	cfg := &config.Config{
		DatabaseDSN: filepath.Join(t.TempDir(), "nk.db"),
		BlobBackend: config.BlobBackendDB,
	}
	ctx := context.Background()

	s, err := OpenStorage(ctx, cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(ctx) })

	key, err := s.Blobs.Put(ctx, "a.png", strings.NewReader("png"))
	require.NoError(t, err)
	rc, err := s.Blobs.Open(ctx, key)
	require.NoError(t, err)
	_ = rc.Close()
}

func TestOpenStorage_GridFSWithoutMongoFails(t *testing.T) {
	cfg := &config.Config{
		DatabaseDSN: filepath.Join(t.TempDir(), "nk.db"),
		BlobBackend: config.BlobBackendGridFS,
	}
	_, err := OpenStorage(context.Background(), cfg, zap.NewNop().Sugar())
	assert.Error(t, err)
}
