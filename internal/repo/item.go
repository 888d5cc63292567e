package repo

import (
	"NoteKeeper/internal/model"
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type itemRepo struct {
	db *gorm.DB
}

// NewItemRepository создаёт реализацию репозитория для Item поверх GORM.
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepo{db: db}
}

func (r *itemRepo) GetByID(ctx context.Context, id string) (*model.Item, error) {
	var it model.Item
	if err := r.db.WithContext(ctx).First(&it, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	list := []model.Item{it}
	if err := r.loadShares(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (r *itemRepo) Create(ctx context.Context, it *model.Item) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(it).Error; err != nil {
			return translate(err)
		}
		return insertShares(tx, it.ID, it.SharedWith)
	})
}

func (r *itemRepo) Save(ctx context.Context, it *model.Item) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(it).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("item_id = ?", it.ID).Delete(&model.ItemShare{}).Error; err != nil {
			return err
		}
		return insertShares(tx, it.ID, it.SharedWith)
	})
}

func (r *itemRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id = ?", id).Delete(&model.ItemShare{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Item{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *itemRepo) DeleteByParent(ctx context.Context, parentID string) (int64, error) {
	return r.deleteWhere(ctx, "parent_id = ?", parentID)
}

func (r *itemRepo) DeleteByOwner(ctx context.Context, userID string) (int64, error) {
	return r.deleteWhere(ctx, "user_id = ?", userID)
}

// deleteWhere удаляет элементы одной пачкой вместе с их записями доступа.
func (r *itemRepo) deleteWhere(ctx context.Context, cond string, arg string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := tx.Model(&model.Item{}).Select("id").Where(cond, arg)
		if err := tx.Where("item_id IN (?)", ids).Delete(&model.ItemShare{}).Error; err != nil {
			return err
		}
		res := tx.Where(cond, arg).Delete(&model.Item{})
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}

func (r *itemRepo) Find(ctx context.Context, f ItemFilter) ([]model.Item, error) {
	db := r.db.WithContext(ctx)
	q := db.Model(&model.Item{})
	if f.VisibleTo != "" {
		shared := db.Model(&model.ItemShare{}).Select("item_id").Where("user_id = ?", f.VisibleTo)
		q = q.Where("(user_id = ? OR id IN (?))", f.VisibleTo, shared)
	}
	if f.OwnerID != "" {
		q = q.Where("user_id = ?", f.OwnerID)
	}
	if f.ParentID != nil {
		q = q.Where("parent_id = ?", *f.ParentID)
	}
	if f.NameContains != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(f.NameContains))+"%")
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.CreatedFrom != nil {
		q = q.Where("created_at >= ?", f.CreatedFrom.UTC())
	}

	var items []model.Item
	if err := q.Order("created_at ASC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	if err := r.loadShares(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// loadShares заполняет SharedWith у переданных элементов одним запросом.
func (r *itemRepo) loadShares(ctx context.Context, items []model.Item) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, 0, len(items))
	pos := make(map[string]int, len(items))
	for i := range items {
		items[i].SharedWith = model.NewUserSet()
		ids = append(ids, items[i].ID)
		pos[items[i].ID] = i
	}
	var shares []model.ItemShare
	if err := r.db.WithContext(ctx).Where("item_id IN ?", ids).Find(&shares).Error; err != nil {
		return err
	}
	for _, s := range shares {
		items[pos[s.ItemID]].SharedWith.Add(s.UserID)
	}
	return nil
}

func insertShares(tx *gorm.DB, itemID string, set model.UserSet) error {
	if len(set) == 0 {
		return nil
	}
	rows := make([]model.ItemShare, 0, len(set))
	for _, uid := range set.Slice() {
		rows = append(rows, model.ItemShare{ItemID: itemID, UserID: uid})
	}
	return tx.Create(&rows).Error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
