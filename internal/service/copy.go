package service

import (
	"NoteKeeper/internal/model"
	"NoteKeeper/internal/repo"
	"context"
)

// copySuffix добавляется к имени каждой копии.
const copySuffix = " (Copy)"

type copyTask struct {
	src    model.Item
	parent *string
}

// Copy копирует элемент вместе с поддеревом в parentID (пусто: рядом с исходным).
// Владельцем всех копий становится userID. Обход в глубину через явный стек,
// каждый узел сохраняется до обработки его детей. Транзакции нет: при сбое
// уже созданные копии остаются.
func (s *ItemService) Copy(ctx context.Context, id, userID, parentID string) (*model.Item, error) {
	src, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanRead(src, userID) {
		return nil, ErrForbidden
	}
	if err := s.validateParent(ctx, parentID); err != nil {
		return nil, err
	}

	target := src.ParentID
	if parentID != "" {
		target = &parentID
	}

	// созданные этим копированием элементы не копируются повторно,
	// иначе копия папки внутрь самой себя не завершится
	created := make(map[string]struct{})
	stack := []copyTask{{src: *src, parent: target}}
	var root *model.Item

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		task := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		dup, err := s.copyNode(ctx, &task.src, task.parent, userID)
		if err != nil {
			return nil, err
		}
		created[dup.ID] = struct{}{}
		if root == nil {
			root = dup
		}

		if task.src.Type != model.ItemFolder {
			continue
		}
		srcID := task.src.ID
		children, err := s.items.Find(ctx, repo.ItemFilter{ParentID: &srcID})
		if err != nil {
			return nil, s.storeErr("load children", err)
		}
		newParent := dup.ID
		// в обратном порядке, чтобы первый ребёнок обрабатывался первым
		for i := len(children) - 1; i >= 0; i-- {
			if _, own := created[children[i].ID]; own {
				continue
			}
			stack = append(stack, copyTask{src: children[i], parent: &newParent})
		}
	}

	s.logger.Infow("item copied", "source", src.ID, "copy", root.ID, "nodes", len(created), "user", userID)
	return root, nil
}

// copyNode создаёт одну копию: дублирует файл, хеш PIN переносится как есть.
func (s *ItemService) copyNode(ctx context.Context, src *model.Item, parent *string, ownerID string) (*model.Item, error) {
	dup := &model.Item{
		UserID:     ownerID,
		Name:       src.Name + copySuffix,
		Type:       src.Type,
		Content:    src.Content,
		ParentID:   parent,
		IsPrivate:  src.IsPrivate,
		PinHash:    src.PinHash,
		IsFavorite: false,
		SharedWith: src.SharedWith.Clone(),
	}
	// владелец копии не может одновременно быть в sharedWith
	dup.SharedWith.Remove(ownerID)

	if src.FilePath != "" {
		key, err := s.blobs.Copy(ctx, src.FilePath)
		if err != nil {
			return nil, s.storeErr("copy file", err)
		}
		dup.FilePath = key
	}
	if err := s.items.Create(ctx, dup); err != nil {
		return nil, s.storeErr("create copy", err)
	}
	return dup, nil
}
