package model

import "time"

// CardImage — картинка визитки во внешней БД картинок.
type CardImage struct {
	CardID  string `gorm:"primaryKey;size:64"`
	Payload string `gorm:"type:text;not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName фиксирует имя таблицы независимо от naming strategy.
func (CardImage) TableName() string { return "card_images" }
