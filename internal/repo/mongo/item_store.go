package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"NoteKeeper/internal/model"
	"NoteKeeper/internal/repo"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// itemDoc: представление Item в коллекции items.
type itemDoc struct {
	ID         string    `bson:"_id"`
	OwnerID    string    `bson:"owner_id"`
	Name       string    `bson:"name"`
	Type       string    `bson:"type"`
	Content    string    `bson:"content"`
	FilePath   string    `bson:"file_path,omitempty"`
	ParentID   *string   `bson:"parent_id"`
	IsPrivate  bool      `bson:"is_private"`
	Pin        string    `bson:"pin,omitempty"`
	IsFavorite bool      `bson:"is_favorite"`
	SharedWith []string  `bson:"shared_with"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func toItemDoc(it *model.Item) itemDoc {
	return itemDoc{
		ID:         it.ID,
		OwnerID:    it.UserID,
		Name:       it.Name,
		Type:       string(it.Type),
		Content:    it.Content,
		FilePath:   it.FilePath,
		ParentID:   it.ParentID,
		IsPrivate:  it.IsPrivate,
		Pin:        it.PinHash,
		IsFavorite: it.IsFavorite,
		SharedWith: it.SharedWith.Slice(),
		CreatedAt:  it.CreatedAt,
		UpdatedAt:  it.UpdatedAt,
	}
}

func (d itemDoc) toModel() model.Item {
	return model.Item{
		ID:         d.ID,
		UserID:     d.OwnerID,
		Name:       d.Name,
		Type:       model.ItemType(d.Type),
		Content:    d.Content,
		FilePath:   d.FilePath,
		ParentID:   d.ParentID,
		IsPrivate:  d.IsPrivate,
		PinHash:    d.Pin,
		IsFavorite: d.IsFavorite,
		SharedWith: model.NewUserSet(d.SharedWith...),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

// ItemStore: реализация repo.ItemRepository поверх MongoDB.
type ItemStore struct {
	coll *mongo.Collection
}

// NewItemStore создаёт ItemStore.
func NewItemStore(db *mongo.Database) *ItemStore {
	return &ItemStore{coll: db.Collection(itemCollection)}
}

func (s *ItemStore) GetByID(ctx context.Context, id string) (*model.Item, error) {
	var d itemDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repo.ErrNotFound
		}
		return nil, err
	}
	it := d.toModel()
	return &it, nil
}

func (s *ItemStore) Create(ctx context.Context, it *model.Item) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	it.UpdatedAt = now
	if _, err := s.coll.InsertOne(ctx, toItemDoc(it)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repo.ErrConflict
		}
		return err
	}
	return nil
}

func (s *ItemStore) Save(ctx context.Context, it *model.Item) error {
	it.UpdatedAt = time.Now().UTC()
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": it.ID}, toItemDoc(it))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *ItemStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *ItemStore) DeleteByParent(ctx context.Context, parentID string) (int64, error) {
	return s.deleteMany(ctx, bson.M{"parent_id": parentID})
}

func (s *ItemStore) DeleteByOwner(ctx context.Context, userID string) (int64, error) {
	return s.deleteMany(ctx, bson.M{"owner_id": userID})
}

func (s *ItemStore) deleteMany(ctx context.Context, filter bson.M) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *ItemStore) Find(ctx context.Context, f repo.ItemFilter) ([]model.Item, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.coll.Find(ctx, itemFilter(f), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []itemDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	items := make([]model.Item, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.toModel())
	}
	return items, nil
}

// itemFilter переводит repo.ItemFilter в фильтр MongoDB.
func itemFilter(f repo.ItemFilter) bson.D {
	filter := bson.D{}
	if f.VisibleTo != "" {
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.M{"owner_id": f.VisibleTo},
			bson.M{"shared_with": f.VisibleTo},
		}})
	}
	if f.OwnerID != "" {
		filter = append(filter, bson.E{Key: "owner_id", Value: f.OwnerID})
	}
	if f.ParentID != nil {
		filter = append(filter, bson.E{Key: "parent_id", Value: *f.ParentID})
	}
	if f.NameContains != "" {
		filter = append(filter, bson.E{Key: "name", Value: bson.Regex{Pattern: regexp.QuoteMeta(f.NameContains), Options: "i"}})
	}
	if f.Type != "" {
		filter = append(filter, bson.E{Key: "type", Value: string(f.Type)})
	}
	if f.CreatedFrom != nil {
		filter = append(filter, bson.E{Key: "created_at", Value: bson.M{"$gte": *f.CreatedFrom}})
	}
	return filter
}

var _ repo.ItemRepository = (*ItemStore)(nil)
