package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User: учётная запись. Сервис элементов проверяет только существование и id.
type User struct {
	ID       string `gorm:"primaryKey;type:varchar(36)"`
	Username string `gorm:"uniqueIndex;not null"`
	Email    string `gorm:"uniqueIndex;not null"`
	Password string `gorm:"not null"` // bcrypt

	ResetToken   *string `gorm:"index"`
	ResetExpires *time.Time

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// BeforeCreate назначает идентификатор пользователя.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// BeforeSave хранит срок токена сброса в UTC.
func (u *User) BeforeSave(_ *gorm.DB) error {
	if u.ResetExpires != nil {
		exp := u.ResetExpires.UTC()
		u.ResetExpires = &exp
	}
	return nil
}
