package handlers

import (
	"NoteKeeper/internal/model"
	"bytes"
	"encoding/json"
	"time"
)

// ItemDTO: представление элемента для клиента. Хеш PIN наружу не отдаётся.
type ItemDTO struct {
	ID         string         `json:"id"`
	UserID     string         `json:"userId"`
	Name       string         `json:"name"`
	Type       model.ItemType `json:"type"`
	Content    string         `json:"content,omitempty"`
	FilePath   string         `json:"filePath,omitempty"`
	ParentID   *string        `json:"parentId"`
	IsPrivate  bool           `json:"isPrivate"`
	HasPin     bool           `json:"hasPin"`
	IsFavorite bool           `json:"isFavorite"`
	SharedWith []string       `json:"sharedWith"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

func toItemDTO(it *model.Item) ItemDTO {
	return ItemDTO{
		ID:         it.ID,
		UserID:     it.UserID,
		Name:       it.Name,
		Type:       it.Type,
		Content:    it.Content,
		FilePath:   it.FilePath,
		ParentID:   it.ParentID,
		IsPrivate:  it.IsPrivate,
		HasPin:     it.HasPin(),
		IsFavorite: it.IsFavorite,
		SharedWith: it.SharedWith.Slice(),
		CreatedAt:  it.CreatedAt,
		UpdatedAt:  it.UpdatedAt,
	}
}

func toItemDTOs(items []model.Item) []ItemDTO {
	out := make([]ItemDTO, 0, len(items))
	for i := range items {
		out = append(out, toItemDTO(&items[i]))
	}
	return out
}

// UserDTO: публичные поля пользователя.
type UserDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func toUserDTO(u *model.User) UserDTO {
	return UserDTO{ID: u.ID, Username: u.Username, Email: u.Email}
}

// AuthResponse: ответ register/login.
type AuthResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

// calendarJSON: объект {ключ: [элементы]} с ключами в порядке появления.
type calendarJSON struct {
	keys    []string
	buckets map[string][]model.Item
}

func (c calendarJSON) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range c.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(toItemDTOs(c.buckets[k]))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
