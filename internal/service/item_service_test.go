package service

import (
	"NoteKeeper/internal/blobstore"
	"NoteKeeper/internal/model"
	"NoteKeeper/internal/repo"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type itemFixture struct {
	items *mockItemRepo
	users *mockUserRepo
	blobs *blobstore.MemoryStore
	svc   *ItemService
}

func newItemFixture() *itemFixture {
	f := &itemFixture{
		items: new(mockItemRepo),
		users: new(mockUserRepo),
		blobs: blobstore.NewMemoryStore(),
	}
	f.svc = NewItemService(f.items, f.users, f.blobs, zap.NewNop().Sugar(), WithLocation(time.UTC))
	return f
}

func TestItemService_Create_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid type", func(t *testing.T) {
		f := newItemFixture()
		_, err := f.svc.Create(ctx, "u1", CreateInput{Name: "x", Type: "video"})
		assert.ErrorIs(t, err, ErrInvalidType)
		f.items.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("note without content", func(t *testing.T) {
		f := newItemFixture()
		_, err := f.svc.Create(ctx, "u1", CreateInput{Name: "Trip", Type: model.ItemNote})
		assert.ErrorIs(t, err, ErrMissingContent)
		f.items.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("image without file", func(t *testing.T) {
		f := newItemFixture()
		_, err := f.svc.Create(ctx, "u1", CreateInput{Name: "pic", Type: model.ItemImage})
		assert.ErrorIs(t, err, ErrMissingFile)
	})

	t.Run("pdf without file", func(t *testing.T) {
		f := newItemFixture()
		_, err := f.svc.Create(ctx, "u1", CreateInput{Name: "doc", Type: model.ItemPDF})
		assert.ErrorIs(t, err, ErrMissingFile)
	})

	t.Run("empty name", func(t *testing.T) {
		f := newItemFixture()
		_, err := f.svc.Create(ctx, "u1", CreateInput{Name: "  ", Type: model.ItemFolder})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("parent is not a folder, file not stored", func(t *testing.T) {
		f := newItemFixture()
		f.items.On("GetByID", mock.Anything, "n1").Return(&model.Item{ID: "n1", Type: model.ItemNote}, nil).Once()

		_, err := f.svc.Create(ctx, "u1", CreateInput{
			Name: "pic", Type: model.ItemImage, ParentID: "n1",
			File: &Upload{Filename: "a.png", Content: strings.NewReader("png")},
		})
		assert.ErrorIs(t, err, ErrInvalidParent)
		assert.Equal(t, 0, f.blobs.Len())
		f.items.AssertExpectations(t)
	})

	t.Run("parent missing", func(t *testing.T) {
		f := newItemFixture()
		f.items.On("GetByID", mock.Anything, "gone").Return((*model.Item)(nil), repo.ErrNotFound).Once()

		_, err := f.svc.Create(ctx, "u1", CreateInput{Name: "f", Type: model.ItemFolder, ParentID: "gone"})
		assert.ErrorIs(t, err, ErrInvalidParent)
	})
}

func TestItemService_Create_Note(t *testing.T) {
	f := newItemFixture()
	ctx := context.Background()

	f.items.On("GetByID", mock.Anything, "f1").Return(&model.Item{ID: "f1", Type: model.ItemFolder}, nil).Once()
	f.items.On("Create", mock.Anything, mock.MatchedBy(func(it *model.Item) bool {
		return it.UserID == "u1" && it.Name == "Trip" && it.Content == "Rome" && it.FilePath == "" &&
			it.ParentID != nil && *it.ParentID == "f1" && !it.IsFavorite && len(it.SharedWith) == 0
	})).Return(nil).Once()

	it, err := f.svc.Create(ctx, "u1", CreateInput{Name: "Trip", Type: model.ItemNote, Content: "Rome", ParentID: "f1", Pin: "1234"})
	require.NoError(t, err)
	assert.Empty(t, it.FilePath)
	// PIN хранится только как хеш
	assert.NotEqual(t, "1234", it.PinHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(it.PinHash), []byte("1234")))
	f.items.AssertExpectations(t)
}

func TestItemService_Create_FolderIgnoresContent(t *testing.T) {
	f := newItemFixture()
	f.items.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	it, err := f.svc.Create(context.Background(), "u1", CreateInput{Name: "Docs", Type: model.ItemFolder, Content: "ignored"})
	require.NoError(t, err)
	assert.Empty(t, it.Content)
	assert.Nil(t, it.ParentID)
	assert.False(t, it.HasPin())
}

func TestItemService_Create_ImageStoresFile(t *testing.T) {
	f := newItemFixture()
	f.items.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	it, err := f.svc.Create(context.Background(), "u1", CreateInput{
		Name: "cat", Type: model.ItemImage,
		File: &Upload{Filename: "cat.JPG", Content: strings.NewReader("jpeg")},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(it.FilePath, ".jpg"))
	assert.Equal(t, 1, f.blobs.Len())

	rc, err := f.blobs.Open(context.Background(), it.FilePath)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "jpeg", string(data))
}

func TestItemService_Create_StoreFailure(t *testing.T) {
	f := newItemFixture()
	f.items.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()

	_, err := f.svc.Create(context.Background(), "u1", CreateInput{Name: "Docs", Type: model.ItemFolder})
	assert.ErrorIs(t, err, ErrStore)
}

func TestItemService_GetItem(t *testing.T) {
	f := newItemFixture()
	ctx := context.Background()
	item := &model.Item{ID: "i1", UserID: "owner", Type: model.ItemNote, SharedWith: model.NewUserSet("friend")}
	f.items.On("GetByID", mock.Anything, "i1").Return(item, nil)
	f.items.On("GetByID", mock.Anything, "nope").Return((*model.Item)(nil), repo.ErrNotFound)

	got, err := f.svc.GetItem(ctx, "i1", "friend")
	require.NoError(t, err)
	assert.Equal(t, "i1", got.ID)

	_, err = f.svc.GetItem(ctx, "i1", "stranger")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.GetItem(ctx, "nope", "owner")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestItemService_Update_FieldMask(t *testing.T) {
	ctx := context.Background()

	t.Run("only supplied fields change", func(t *testing.T) {
		f := newItemFixture()
		parent := "p0"
		item := &model.Item{ID: "n1", UserID: "u1", Name: "old", Type: model.ItemNote, Content: "text", ParentID: &parent, IsPrivate: true}
		f.items.On("GetByID", mock.Anything, "n1").Return(item, nil).Once()
		f.items.On("Save", mock.Anything, item).Return(nil).Once()

		got, err := f.svc.Update(ctx, "n1", "u1", ItemUpdate{Name: ptrStr("new"), Content: ptrStr("")})
		require.NoError(t, err)
		assert.Equal(t, "new", got.Name)
		assert.Equal(t, "text", got.Content)
		assert.True(t, got.IsPrivate)
		assert.Equal(t, "p0", *got.ParentID)
		f.items.AssertExpectations(t)
	})

	t.Run("false is applied for isPrivate", func(t *testing.T) {
		f := newItemFixture()
		item := &model.Item{ID: "n1", UserID: "u1", Name: "n", Type: model.ItemNote, IsPrivate: true}
		f.items.On("GetByID", mock.Anything, "n1").Return(item, nil).Once()
		f.items.On("Save", mock.Anything, item).Return(nil).Once()

		got, err := f.svc.Update(ctx, "n1", "u1", ItemUpdate{IsPrivate: ptrBool(false)})
		require.NoError(t, err)
		assert.False(t, got.IsPrivate)
	})

	t.Run("content ignored for non-note, file ignored for note", func(t *testing.T) {
		f := newItemFixture()
		folder := &model.Item{ID: "f1", UserID: "u1", Name: "f", Type: model.ItemFolder}
		note := &model.Item{ID: "n1", UserID: "u1", Name: "n", Type: model.ItemNote, Content: "c"}
		f.items.On("GetByID", mock.Anything, "f1").Return(folder, nil).Once()
		f.items.On("GetByID", mock.Anything, "n1").Return(note, nil).Once()
		f.items.On("Save", mock.Anything, mock.Anything).Return(nil).Twice()

		got, err := f.svc.Update(ctx, "f1", "u1", ItemUpdate{Content: ptrStr("x")})
		require.NoError(t, err)
		assert.Empty(t, got.Content)

		got, err = f.svc.Update(ctx, "n1", "u1", ItemUpdate{File: &Upload{Filename: "a.png", Content: strings.NewReader("x")}})
		require.NoError(t, err)
		assert.Empty(t, got.FilePath)
		assert.Equal(t, 0, f.blobs.Len())
	})

	t.Run("new file replaces path for image", func(t *testing.T) {
		f := newItemFixture()
		img := &model.Item{ID: "i1", UserID: "u1", Name: "img", Type: model.ItemImage, FilePath: "old.png"}
		f.items.On("GetByID", mock.Anything, "i1").Return(img, nil).Once()
		f.items.On("Save", mock.Anything, img).Return(nil).Once()

		got, err := f.svc.Update(ctx, "i1", "u1", ItemUpdate{File: &Upload{Filename: "new.png", Content: strings.NewReader("x")}})
		require.NoError(t, err)
		assert.NotEqual(t, "old.png", got.FilePath)
		assert.Equal(t, 1, f.blobs.Len())
	})

	t.Run("pin rehashed", func(t *testing.T) {
		f := newItemFixture()
		item := &model.Item{ID: "n1", UserID: "u1", Name: "n", Type: model.ItemNote, PinHash: "old"}
		f.items.On("GetByID", mock.Anything, "n1").Return(item, nil).Once()
		f.items.On("Save", mock.Anything, item).Return(nil).Once()

		got, err := f.svc.Update(ctx, "n1", "u1", ItemUpdate{Pin: ptrStr("9999")})
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.PinHash), []byte("9999")))
	})

	t.Run("shared user may edit, stranger may not", func(t *testing.T) {
		f := newItemFixture()
		item := &model.Item{ID: "n1", UserID: "u1", Name: "n", Type: model.ItemNote, SharedWith: model.NewUserSet("u2")}
		f.items.On("GetByID", mock.Anything, "n1").Return(item, nil)
		f.items.On("Save", mock.Anything, item).Return(nil).Once()

		_, err := f.svc.Update(ctx, "n1", "u2", ItemUpdate{Name: ptrStr("by friend")})
		assert.NoError(t, err)

		_, err = f.svc.Update(ctx, "n1", "u3", ItemUpdate{Name: ptrStr("nope")})
		assert.ErrorIs(t, err, ErrForbidden)
		f.items.AssertNumberOfCalls(t, "Save", 1)
	})

	t.Run("parent must be folder", func(t *testing.T) {
		f := newItemFixture()
		item := &model.Item{ID: "n1", UserID: "u1", Name: "n", Type: model.ItemNote}
		f.items.On("GetByID", mock.Anything, "n1").Return(item, nil).Once()
		f.items.On("GetByID", mock.Anything, "n2").Return(&model.Item{ID: "n2", Type: model.ItemNote}, nil).Once()

		_, err := f.svc.Update(ctx, "n1", "u1", ItemUpdate{ParentID: ptrStr("n2")})
		assert.ErrorIs(t, err, ErrInvalidParent)
		f.items.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("folder cannot move into itself", func(t *testing.T) {
		f := newItemFixture()
		folder := &model.Item{ID: "a", UserID: "u1", Name: "A", Type: model.ItemFolder}
		f.items.On("GetByID", mock.Anything, "a").Return(folder, nil)

		_, err := f.svc.Update(ctx, "a", "u1", ItemUpdate{ParentID: ptrStr("a")})
		assert.ErrorIs(t, err, ErrInvalidParent)
	})

	t.Run("folder cannot move into its descendant", func(t *testing.T) {
		f := newItemFixture()
		a := &model.Item{ID: "a", UserID: "u1", Name: "A", Type: model.ItemFolder}
		b := &model.Item{ID: "b", UserID: "u1", Name: "B", Type: model.ItemFolder, ParentID: ptrStr("a")}
		c := &model.Item{ID: "c", UserID: "u1", Name: "C", Type: model.ItemFolder, ParentID: ptrStr("b")}
		f.items.On("GetByID", mock.Anything, "a").Return(a, nil)
		f.items.On("GetByID", mock.Anything, "b").Return(b, nil)
		f.items.On("GetByID", mock.Anything, "c").Return(c, nil)

		_, err := f.svc.Update(ctx, "a", "u1", ItemUpdate{ParentID: ptrStr("c")})
		assert.ErrorIs(t, err, ErrInvalidParent)
		f.items.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("move into unrelated folder", func(t *testing.T) {
		f := newItemFixture()
		a := &model.Item{ID: "a", UserID: "u1", Name: "A", Type: model.ItemFolder}
		x := &model.Item{ID: "x", UserID: "u1", Name: "X", Type: model.ItemFolder, ParentID: ptrStr("deleted")}
		f.items.On("GetByID", mock.Anything, "a").Return(a, nil)
		f.items.On("GetByID", mock.Anything, "x").Return(x, nil)
		f.items.On("GetByID", mock.Anything, "deleted").Return((*model.Item)(nil), repo.ErrNotFound)
		f.items.On("Save", mock.Anything, a).Return(nil).Once()

		got, err := f.svc.Update(ctx, "a", "u1", ItemUpdate{ParentID: ptrStr("x")})
		require.NoError(t, err)
		assert.Equal(t, "x", *got.ParentID)
	})
}

func TestItemService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("folder removes direct children then itself", func(t *testing.T) {
		f := newItemFixture()
		f.items.On("GetByID", mock.Anything, "a").Return(&model.Item{ID: "a", UserID: "u1", Type: model.ItemFolder}, nil).Once()
		f.items.On("DeleteByParent", mock.Anything, "a").Return(int64(2), nil).Once()
		f.items.On("Delete", mock.Anything, "a").Return(nil).Once()

		require.NoError(t, f.svc.Delete(ctx, "a", "u1"))
		f.items.AssertExpectations(t)
	})

	t.Run("note has no cascade", func(t *testing.T) {
		f := newItemFixture()
		f.items.On("GetByID", mock.Anything, "n").Return(&model.Item{ID: "n", UserID: "u1", Type: model.ItemNote}, nil).Once()
		f.items.On("Delete", mock.Anything, "n").Return(nil).Once()

		require.NoError(t, f.svc.Delete(ctx, "n", "u1"))
		f.items.AssertNotCalled(t, "DeleteByParent", mock.Anything, mock.Anything)
	})

	t.Run("shared user cannot delete", func(t *testing.T) {
		f := newItemFixture()
		f.items.On("GetByID", mock.Anything, "n").Return(&model.Item{ID: "n", UserID: "u1", Type: model.ItemNote, SharedWith: model.NewUserSet("u2")}, nil).Once()

		assert.ErrorIs(t, f.svc.Delete(ctx, "n", "u2"), ErrForbidden)
		f.items.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("missing", func(t *testing.T) {
		f := newItemFixture()
		f.items.On("GetByID", mock.Anything, "x").Return((*model.Item)(nil), repo.ErrNotFound).Once()
		assert.ErrorIs(t, f.svc.Delete(ctx, "x", "u1"), ErrNotFound)
	})
}

func TestItemService_ToggleFavorite(t *testing.T) {
	f := newItemFixture()
	item := &model.Item{ID: "n", UserID: "u1", Type: model.ItemNote, SharedWith: model.NewUserSet("u2")}
	f.items.On("GetByID", mock.Anything, "n").Return(item, nil)
	f.items.On("Save", mock.Anything, item).Return(nil)

	got, err := f.svc.ToggleFavorite(context.Background(), "n", "u2")
	require.NoError(t, err)
	assert.True(t, got.IsFavorite)

	got, err = f.svc.ToggleFavorite(context.Background(), "n", "u1")
	require.NoError(t, err)
	assert.False(t, got.IsFavorite)

	_, err = f.svc.ToggleFavorite(context.Background(), "n", "u3")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestItemService_Share(t *testing.T) {
	ctx := context.Background()

	t.Run("idempotent union", func(t *testing.T) {
		f := newItemFixture()
		item := &model.Item{ID: "n", UserID: "u1", Type: model.ItemNote}
		f.items.On("GetByID", mock.Anything, "n").Return(item, nil)
		f.users.On("ExistingIDs", mock.Anything, []string{"u2"}).Return([]string{"u2"}, nil)
		f.items.On("Save", mock.Anything, item).Return(nil).Once()

		got, err := f.svc.Share(ctx, "n", "u1", []string{"u2", "u2"})
		require.NoError(t, err)
		assert.Equal(t, []string{"u2"}, got.SharedWith.Slice())

		got, err = f.svc.Share(ctx, "n", "u1", []string{"u2"})
		require.NoError(t, err)
		assert.Len(t, got.SharedWith, 1)
		// повторное добавление ничего не сохраняет
		f.items.AssertNumberOfCalls(t, "Save", 1)
	})

	t.Run("owner id dropped", func(t *testing.T) {
		f := newItemFixture()
		item := &model.Item{ID: "n", UserID: "u1", Type: model.ItemNote}
		f.items.On("GetByID", mock.Anything, "n").Return(item, nil)
		f.users.On("ExistingIDs", mock.Anything, []string{"u3"}).Return([]string{"u3"}, nil).Once()
		f.items.On("Save", mock.Anything, item).Return(nil).Once()

		got, err := f.svc.Share(ctx, "n", "u1", []string{"u1", "u3"})
		require.NoError(t, err)
		assert.False(t, got.SharedWith.Has("u1"))
		assert.True(t, got.SharedWith.Has("u3"))
	})

	t.Run("empty list", func(t *testing.T) {
		f := newItemFixture()
		f.items.On("GetByID", mock.Anything, "n").Return(&model.Item{ID: "n", UserID: "u1"}, nil)
		_, err := f.svc.Share(ctx, "n", "u1", nil)
		assert.ErrorIs(t, err, ErrInvalidShareList)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newItemFixture()
		f.items.On("GetByID", mock.Anything, "n").Return(&model.Item{ID: "n", UserID: "u1"}, nil)
		f.users.On("ExistingIDs", mock.Anything, []string{"ghost", "u2"}).Return([]string{"u2"}, nil).Once()

		_, err := f.svc.Share(ctx, "n", "u1", []string{"u2", "ghost"})
		assert.ErrorIs(t, err, ErrInvalidUser)
		f.items.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("only owner shares", func(t *testing.T) {
		f := newItemFixture()
		f.items.On("GetByID", mock.Anything, "n").Return(&model.Item{ID: "n", UserID: "u1", SharedWith: model.NewUserSet("u2")}, nil)
		_, err := f.svc.Share(ctx, "n", "u2", []string{"u3"})
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestItemService_Search_BuildsFilter(t *testing.T) {
	f := newItemFixture()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	want := repo.ItemFilter{VisibleTo: "u1", NameContains: "Trip", Type: model.ItemNote, CreatedFrom: &from}
	f.items.On("Find", mock.Anything, want).Return([]model.Item{{ID: "n1"}}, nil).Once()

	got, err := f.svc.Search(context.Background(), "u1", SearchQuery{Query: "Trip", Type: model.ItemNote, From: &from})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	f.items.AssertExpectations(t)
}

func TestItemService_Calendar_UsesVisibilityScope(t *testing.T) {
	f := newItemFixture()
	f.items.On("Find", mock.Anything, repo.ItemFilter{VisibleTo: "u1"}).Return([]model.Item{
		{ID: "a", CreatedAt: time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC)},
		{ID: "b", CreatedAt: time.Date(2024, 3, 16, 10, 0, 0, 0, time.UTC)},
	}, nil).Once()

	view, err := f.svc.Calendar(context.Background(), "u1", GroupByWeek)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-3-10"}, view.Keys)
	assert.Len(t, view.Buckets["2024-3-10"], 2)
}

func TestItemService_UnlockItem(t *testing.T) {
	f := newItemFixture()
	hash, _ := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.MinCost)
	f.items.On("GetByID", mock.Anything, "p").Return(&model.Item{ID: "p", UserID: "u1", PinHash: string(hash)}, nil)
	f.items.On("GetByID", mock.Anything, "open").Return(&model.Item{ID: "open", UserID: "u1"}, nil)

	_, err := f.svc.UnlockItem(context.Background(), "p", "u1", "1234")
	assert.NoError(t, err)
	_, err = f.svc.UnlockItem(context.Background(), "p", "u1", "0000")
	assert.ErrorIs(t, err, ErrInvalidPin)
	_, err = f.svc.UnlockItem(context.Background(), "p", "u2", "1234")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.UnlockItem(context.Background(), "open", "u1", "")
	assert.NoError(t, err)
}

func TestItemService_OpenFile(t *testing.T) {
	f := newItemFixture()
	ctx := context.Background()
	key, err := f.blobs.Put(ctx, "scan.pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)

	f.items.On("GetByID", mock.Anything, "pdf").Return(&model.Item{ID: "pdf", UserID: "u1", Type: model.ItemPDF, FilePath: key}, nil)
	f.items.On("GetByID", mock.Anything, "note").Return(&model.Item{ID: "note", UserID: "u1", Type: model.ItemNote}, nil)
	f.items.On("GetByID", mock.Anything, "lost").Return(&model.Item{ID: "lost", UserID: "u1", Type: model.ItemImage, FilePath: "gone.png"}, nil)

	_, rc, err := f.svc.OpenFile(ctx, "pdf", "u1")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "%PDF", string(data))

	_, _, err = f.svc.OpenFile(ctx, "note", "u1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = f.svc.OpenFile(ctx, "lost", "u1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = f.svc.OpenFile(ctx, "pdf", "u9")
	assert.ErrorIs(t, err, ErrForbidden)
}
