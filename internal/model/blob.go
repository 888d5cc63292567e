package model

import "time"

// Blob: содержимое загруженного файла, когда файлы хранятся в БД.
type Blob struct {
	Path string `gorm:"primaryKey"`

	Data []byte `gorm:"not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}
