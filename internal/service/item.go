package service

import (
	"NoteKeeper/internal/blobstore"
	"NoteKeeper/internal/model"
	"NoteKeeper/internal/repo"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// hashCost: стоимость bcrypt для паролей и PIN. В тестах понижается.
var hashCost = bcrypt.DefaultCost

// ItemService инкапсулирует бизнес-логику дерева элементов:
// проверки доступа, валидацию родителя, копирование, поиск и календарь.
type ItemService struct {
	items  repo.ItemRepository
	users  repo.UserRepository
	blobs  blobstore.Store
	logger *zap.SugaredLogger
	loc    *time.Location
}

// ItemOption настраивает ItemService.
type ItemOption func(*ItemService)

// WithLocation задаёт часовой пояс для ключей календаря.
func WithLocation(loc *time.Location) ItemOption {
	return func(s *ItemService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewItemService(items repo.ItemRepository, users repo.UserRepository, blobs blobstore.Store, logger *zap.SugaredLogger, opts ...ItemOption) *ItemService {
	s := &ItemService{items: items, users: users, blobs: blobs, logger: logger, loc: time.Local}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Upload: загруженный файл. Content читается один раз.
type Upload struct {
	Filename string
	Content  io.Reader
}

// CreateInput: поля нового элемента.
type CreateInput struct {
	Name      string
	Type      model.ItemType
	IsPrivate bool
	Pin       string
	Content   string
	ParentID  string
	File      *Upload
}

// ItemUpdate: маска полей для Update: nil означает «не менять».
// Пустые строки тоже ничего не меняют.
type ItemUpdate struct {
	Name      *string
	IsPrivate *bool
	Content   *string
	ParentID  *string
	Pin       *string
	File      *Upload
}

// SearchQuery: фильтры поиска, пустые поля не ограничивают выборку.
type SearchQuery struct {
	Query string
	Type  model.ItemType
	From  *time.Time
}

func (s *ItemService) Create(ctx context.Context, userID string, in CreateInput) (*model.Item, error) {
	if !in.Type.Valid() {
		return nil, ErrInvalidType
	}
	if in.Type.HasFile() && in.File == nil {
		return nil, ErrMissingFile
	}
	if in.Type == model.ItemNote && in.Content == "" {
		return nil, ErrMissingContent
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := s.validateParent(ctx, in.ParentID); err != nil {
		return nil, err
	}

	it := &model.Item{
		UserID:    userID,
		Name:      in.Name,
		Type:      in.Type,
		IsPrivate: in.IsPrivate,
	}
	if in.Type == model.ItemNote {
		it.Content = in.Content
	}
	if in.ParentID != "" {
		parent := in.ParentID
		it.ParentID = &parent
	}
	if in.Pin != "" {
		hash, err := hashSecret(in.Pin)
		if err != nil {
			return nil, s.storeErr("hash pin", err)
		}
		it.PinHash = hash
	}
	// файл пишется только после успешной валидации
	if in.File != nil && in.Type.HasFile() {
		key, err := s.blobs.Put(ctx, in.File.Filename, in.File.Content)
		if err != nil {
			return nil, s.storeErr("store upload", err)
		}
		it.FilePath = key
	}

	if err := s.items.Create(ctx, it); err != nil {
		if it.FilePath != "" {
			s.logger.Warnw("uploaded file left without item", "file", it.FilePath)
		}
		return nil, s.storeErr("create item", err)
	}
	s.logger.Infow("item created", "id", it.ID, "type", it.Type, "user", userID)
	return it, nil
}

// ListItems возвращает все элементы, видимые пользователю.
func (s *ItemService) ListItems(ctx context.Context, userID string) ([]model.Item, error) {
	items, err := s.items.Find(ctx, repo.ItemFilter{VisibleTo: userID})
	if err != nil {
		return nil, s.storeErr("list items", err)
	}
	return items, nil
}

func (s *ItemService) GetItem(ctx context.Context, id, userID string) (*model.Item, error) {
	it, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanRead(it, userID) {
		return nil, ErrForbidden
	}
	return it, nil
}

// Update применяет только заданные поля маски.
func (s *ItemService) Update(ctx context.Context, id, userID string, upd ItemUpdate) (*model.Item, error) {
	it, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanWrite(it, userID) {
		return nil, ErrForbidden
	}

	var newParent string
	if upd.ParentID != nil && *upd.ParentID != "" {
		newParent = *upd.ParentID
		if err := s.validateParent(ctx, newParent); err != nil {
			return nil, err
		}
		if err := s.checkNotDescendant(ctx, it.ID, newParent); err != nil {
			return nil, err
		}
	}

	if upd.Name != nil && *upd.Name != "" {
		it.Name = *upd.Name
	}
	if upd.IsPrivate != nil {
		it.IsPrivate = *upd.IsPrivate
	}
	if upd.Content != nil && *upd.Content != "" && it.Type == model.ItemNote {
		it.Content = *upd.Content
	}
	if newParent != "" {
		it.ParentID = &newParent
	}
	if upd.Pin != nil && *upd.Pin != "" {
		hash, err := hashSecret(*upd.Pin)
		if err != nil {
			return nil, s.storeErr("hash pin", err)
		}
		it.PinHash = hash
	}
	if upd.File != nil && it.Type.HasFile() {
		key, err := s.blobs.Put(ctx, upd.File.Filename, upd.File.Content)
		if err != nil {
			return nil, s.storeErr("store upload", err)
		}
		it.FilePath = key
	}

	if err := s.items.Save(ctx, it); err != nil {
		return nil, s.storeErr("update item", err)
	}
	return it, nil
}

// Delete удаляет элемент. У папки удаляются только прямые потомки:
// более глубокие элементы остаются с parentId на удалённую папку.
func (s *ItemService) Delete(ctx context.Context, id, userID string) error {
	it, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !CanDelete(it, userID) {
		return ErrForbidden
	}
	if it.Type == model.ItemFolder {
		n, err := s.items.DeleteByParent(ctx, it.ID)
		if err != nil {
			return s.storeErr("delete children", err)
		}
		s.logger.Debugw("folder children deleted", "id", it.ID, "count", n)
	}
	if err := s.items.Delete(ctx, it.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return s.storeErr("delete item", err)
	}
	s.logger.Infow("item deleted", "id", it.ID, "user", userID)
	return nil
}

func (s *ItemService) ToggleFavorite(ctx context.Context, id, userID string) (*model.Item, error) {
	it, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanWrite(it, userID) {
		return nil, ErrForbidden
	}
	it.IsFavorite = !it.IsFavorite
	if err := s.items.Save(ctx, it); err != nil {
		return nil, s.storeErr("toggle favorite", err)
	}
	return it, nil
}

// Share добавляет пользователей в sharedWith (объединение множеств).
// Id владельца из запроса отбрасывается.
func (s *ItemService) Share(ctx context.Context, id, userID string, userIDs []string) (*model.Item, error) {
	it, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanShare(it, userID) {
		return nil, ErrForbidden
	}
	if len(userIDs) == 0 {
		return nil, ErrInvalidShareList
	}

	add := model.NewUserSet()
	for _, uid := range userIDs {
		if uid == "" {
			return nil, ErrInvalidUser
		}
		if uid != it.UserID {
			add.Add(uid)
		}
	}
	if len(add) > 0 {
		existing, err := s.users.ExistingIDs(ctx, add.Slice())
		if err != nil {
			return nil, s.storeErr("check users", err)
		}
		if len(existing) != len(add) {
			return nil, ErrInvalidUser
		}
	}

	merged := it.SharedWith.Union(add)
	if len(merged) == len(it.SharedWith) {
		return it, nil
	}
	it.SharedWith = merged
	if err := s.items.Save(ctx, it); err != nil {
		return nil, s.storeErr("share item", err)
	}
	s.logger.Infow("item shared", "id", it.ID, "with", add.Slice())
	return it, nil
}

// Search ищет среди видимых пользователю элементов.
func (s *ItemService) Search(ctx context.Context, userID string, q SearchQuery) ([]model.Item, error) {
	items, err := s.items.Find(ctx, repo.ItemFilter{
		VisibleTo:    userID,
		NameContains: q.Query,
		Type:         q.Type,
		CreatedFrom:  q.From,
	})
	if err != nil {
		return nil, s.storeErr("search items", err)
	}
	return items, nil
}

// OpenFile открывает файл картинки или pdf.
func (s *ItemService) OpenFile(ctx context.Context, id, userID string) (*model.Item, io.ReadCloser, error) {
	it, err := s.GetItem(ctx, id, userID)
	if err != nil {
		return nil, nil, err
	}
	if !it.Type.HasFile() || it.FilePath == "" {
		return nil, nil, ErrNotFound
	}
	rc, err := s.blobs.Open(ctx, it.FilePath)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, s.storeErr("open file", err)
	}
	return it, rc, nil
}

// UnlockItem сверяет PIN с хешем. Элемент без PIN открывается всегда.
func (s *ItemService) UnlockItem(ctx context.Context, id, userID, pin string) (*model.Item, error) {
	it, err := s.GetItem(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !it.HasPin() {
		return it, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(it.PinHash), []byte(pin)) != nil {
		return nil, ErrInvalidPin
	}
	return it, nil
}

func (s *ItemService) load(ctx context.Context, id string) (*model.Item, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	it, err := s.items.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, s.storeErr("load item", err)
	}
	return it, nil
}

// validateParent: пустой parentID допустим, иначе это должна быть существующая папка.
func (s *ItemService) validateParent(ctx context.Context, parentID string) error {
	if parentID == "" {
		return nil
	}
	parent, err := s.items.GetByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidParent
		}
		return s.storeErr("load parent", err)
	}
	if parent.Type != model.ItemFolder {
		return ErrInvalidParent
	}
	return nil
}

// checkNotDescendant запрещает перенос папки в саму себя или в своего потомка.
// Поднимается от нового родителя к корню.
func (s *ItemService) checkNotDescendant(ctx context.Context, itemID, parentID string) error {
	seen := make(map[string]struct{})
	for cur := parentID; cur != ""; {
		if cur == itemID {
			return ErrInvalidParent
		}
		if _, loop := seen[cur]; loop {
			return nil
		}
		seen[cur] = struct{}{}

		node, err := s.items.GetByID(ctx, cur)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				// цепочка обрывается на удалённой папке
				return nil
			}
			return s.storeErr("load ancestor", err)
		}
		if node.ParentID == nil {
			return nil
		}
		cur = *node.ParentID
	}
	return nil
}

// storeErr логирует причину и возвращает обобщённую ошибку хранилища.
func (s *ItemService) storeErr(op string, err error) error {
	s.logger.Errorw("store failure", "op", op, "err", err)
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}

func hashSecret(raw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(raw), hashCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
