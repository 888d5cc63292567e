package api

import "time"

// Item: элемент в ответах /api/items.
type Item struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Content    string    `json:"content,omitempty"`
	FilePath   string    `json:"filePath,omitempty"`
	ParentID   *string   `json:"parentId"`
	IsPrivate  bool      `json:"isPrivate"`
	HasPin     bool      `json:"hasPin"`
	IsFavorite bool      `json:"isFavorite"`
	SharedWith []string  `json:"sharedWith"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AuthResponse: ответ register/login.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type ShareResponse struct {
	Message    string   `json:"message"`
	SharedWith []string `json:"sharedWith"`
}
