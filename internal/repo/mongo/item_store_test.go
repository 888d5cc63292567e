package mongo

import (
	"testing"
	"time"

	"NoteKeeper/internal/model"
	"NoteKeeper/internal/repo"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestItemFilter_Conjunction(t *testing.T) {
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	parent := "p1"
	f := itemFilter(repo.ItemFilter{
		VisibleTo:    "u1",
		ParentID:     &parent,
		NameContains: "a.b",
		Type:         model.ItemNote,
		CreatedFrom:  &since,
	})

	keys := make([]string, 0, len(f))
	for _, e := range f {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{"$or", "parent_id", "name", "type", "created_at"}, keys)

	// спецсимволы регулярного выражения экранируются
	assert.Equal(t, bson.Regex{Pattern: `a\.b`, Options: "i"}, f[2].Value)
}

func TestItemFilter_Empty(t *testing.T) {
	assert.Empty(t, itemFilter(repo.ItemFilter{}))
}

func TestItemDoc_RoundTrip(t *testing.T) {
	parent := "p"
	it := &model.Item{
		ID:         "i1",
		UserID:     "u1",
		Name:       "n",
		Type:       model.ItemImage,
		FilePath:   "1-2.png",
		ParentID:   &parent,
		PinHash:    "hash",
		SharedWith: model.NewUserSet("u2", "u3"),
	}
	back := toItemDoc(it).toModel()
	assert.Equal(t, it.FilePath, back.FilePath)
	assert.Equal(t, "p", *back.ParentID)
	assert.Equal(t, "hash", back.PinHash)
	assert.Equal(t, []string{"u2", "u3"}, back.SharedWith.Slice())
}

func TestIsMongoURI(t *testing.T) {
	assert.True(t, IsMongoURI("mongodb://localhost:27017"))
	assert.True(t, IsMongoURI("mongodb+srv://cluster.example.net"))
	assert.False(t, IsMongoURI("postgres://localhost/db"))
}
