package mongo

import (
	"context"
	"errors"
	"time"

	"NoteKeeper/internal/model"
	"NoteKeeper/internal/repo"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type userDoc struct {
	ID           string     `bson:"_id"`
	Username     string     `bson:"username"`
	Email        string     `bson:"email"`
	Password     string     `bson:"password"`
	ResetToken   *string    `bson:"reset_token,omitempty"`
	ResetExpires *time.Time `bson:"reset_expires,omitempty"`
	CreatedAt    time.Time  `bson:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at"`
}

func toUserDoc(u *model.User) userDoc {
	return userDoc{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Password:     u.Password,
		ResetToken:   u.ResetToken,
		ResetExpires: u.ResetExpires,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDoc) toModel() *model.User {
	return &model.User{
		ID:           d.ID,
		Username:     d.Username,
		Email:        d.Email,
		Password:     d.Password,
		ResetToken:   d.ResetToken,
		ResetExpires: d.ResetExpires,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// UserStore: реализация repo.UserRepository поверх MongoDB.
type UserStore struct {
	coll *mongo.Collection
}

// NewUserStore создаёт UserStore.
func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{coll: db.Collection(userCollection)}
}

func (s *UserStore) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	if _, err := s.coll.InsertOne(ctx, toUserDoc(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, repo.ErrConflict
		}
		return nil, err
	}
	return user, nil
}

func (s *UserStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *UserStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *UserStore) GetUserByResetToken(ctx context.Context, token string, now time.Time) (*model.User, error) {
	return s.findOne(ctx, bson.M{"reset_token": token, "reset_expires": bson.M{"$gt": now}})
}

func (s *UserStore) UpdateUser(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, toUserDoc(user))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repo.ErrConflict
		}
		return err
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *UserStore) DeleteUser(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *UserStore) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	found := []string{}
	if len(ids) == 0 {
		return found, nil
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, r := range rows {
		found = append(found, r.ID)
	}
	return found, nil
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var d userDoc
	if err := s.coll.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repo.ErrNotFound
		}
		return nil, err
	}
	return d.toModel(), nil
}

var _ repo.UserRepository = (*UserStore)(nil)
