package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemType: тип элемента дерева пользователя.
type ItemType string

const (
	ItemFolder ItemType = "folder"
	ItemNote   ItemType = "note"
	ItemImage  ItemType = "image"
	ItemPDF    ItemType = "pdf"
)

// Valid сообщает, входит ли тип в допустимый набор.
func (t ItemType) Valid() bool {
	switch t {
	case ItemFolder, ItemNote, ItemImage, ItemPDF:
		return true
	}
	return false
}

// HasFile: типы, содержимое которых лежит в хранилище файлов.
func (t ItemType) HasFile() bool {
	return t == ItemImage || t == ItemPDF
}

// Item: серверная модель элемента дерева (папка, заметка, картинка, pdf).
type Item struct {
	ID     string `gorm:"primaryKey;type:varchar(36)"`
	UserID string `gorm:"type:varchar(36);not null;index"` // владелец, ссылка на users.id

	// Связи
	User *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	Name     string   `gorm:"not null"`
	Type     ItemType `gorm:"type:varchar(16);not null;index"`
	Content  string   // только для note
	FilePath string   // только для image/pdf, ключ в хранилище файлов

	// ParentID может указывать на уже удалённую папку (неглубокое каскадное удаление).
	ParentID *string `gorm:"type:varchar(36);index"`

	IsPrivate  bool   `gorm:"not null;default:false"`
	PinHash    string `gorm:"column:pin"` // bcrypt, открытый PIN не хранится
	IsFavorite bool   `gorm:"not null;default:false"`

	// SharedWith хранится в таблице item_shares, репозиторий заполняет поле сам.
	SharedWith UserSet `gorm:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// BeforeCreate назначает идентификатор, если вызывающий его не задал.
func (it *Item) BeforeCreate(_ *gorm.DB) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	return nil
}

// BeforeSave приводит метки времени к UTC, в какой бы зоне их ни задали.
func (it *Item) BeforeSave(_ *gorm.DB) error {
	if !it.CreatedAt.IsZero() {
		it.CreatedAt = it.CreatedAt.UTC()
	}
	if !it.UpdatedAt.IsZero() {
		it.UpdatedAt = it.UpdatedAt.UTC()
	}
	return nil
}

// HasPin: задан ли у элемента PIN.
func (it *Item) HasPin() bool { return it.PinHash != "" }

// IsRoot: элемент лежит в корне.
func (it *Item) IsRoot() bool { return it.ParentID == nil || *it.ParentID == "" }

// ItemShare: строка таблицы доступа: элемент открыт пользователю.
type ItemShare struct {
	ItemID string `gorm:"primaryKey;type:varchar(36)"`
	UserID string `gorm:"primaryKey;type:varchar(36);index"`
}
