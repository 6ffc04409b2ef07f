package model

import (
	"errors"
	"strings"
)

// Ошибки доменного уровня.
var (
	ErrCardNotFound       = errors.New("card not found")
	ErrInvalidFormat      = errors.New("invalid backup format")
	ErrUnsupportedVersion = errors.New("unsupported backup version")
	ErrNothingToExport    = errors.New("nothing to export")
	ErrNotReady           = errors.New("card state is not initialized")
)

// inlineImagePrefix — признак устаревшего формата, когда картинка лежала прямо в метаданных.
const inlineImagePrefix = "data:"

// Card — визитка (единица хранения).
type Card struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Title     string   `json:"title"`
	Company   string   `json:"company"`
	Country   string   `json:"country"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Website   string   `json:"website"`
	Address   string   `json:"address"`
	Note      string   `json:"note"`
	Tags      []string `json:"tags"`
	ImageURI  *string  `json:"imageUri"` // nil — картинки нет; в сохранённых метаданных всегда nil
	CreatedAt int64    `json:"createdAt"` // epoch ms
}

// Normalize приводит теги к упорядоченному множеству без пустых значений.
func (c *Card) Normalize() {
	c.Tags = NormalizeTags(c.Tags)
}

// Clone возвращает независимую копию (теги и ссылка на картинку не разделяются).
func (c Card) Clone() Card {
	out := c
	if c.Tags != nil {
		out.Tags = append([]string(nil), c.Tags...)
	}
	if c.ImageURI != nil {
		v := *c.ImageURI
		out.ImageURI = &v
	}
	return out
}

// HasImage сообщает, есть ли у визитки картинка.
func (c Card) HasImage() bool {
	return c.ImageURI != nil && *c.ImageURI != ""
}

// AddTag добавляет тег, если такого ещё нет. Возвращает true, если тег добавлен.
func (c *Card) AddTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	for _, t := range c.Tags {
		if t == tag {
			return false
		}
	}
	c.Tags = append(c.Tags, tag)
	return true
}

// RemoveTag удаляет тег. Возвращает true, если тег был.
func (c *Card) RemoveTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	for i, t := range c.Tags {
		if t == tag {
			c.Tags = append(c.Tags[:i], c.Tags[i+1:]...)
			return true
		}
	}
	return false
}

// NormalizeTags обрезает пробелы, выкидывает пустые и повторы, сохраняя порядок первого вхождения.
// Никогда не возвращает nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// IsInlineImage reports whether an imageUri value carries the image payload itself.
func IsInlineImage(uri *string) bool {
	return uri != nil && strings.HasPrefix(*uri, inlineImagePrefix)
}

// StripImages returns copies of cards with ImageURI cleared, the shape kept in metadata storage.
func StripImages(cards []Card) []Card {
	out := make([]Card, len(cards))
	for i, c := range cards {
		cp := c.Clone()
		cp.ImageURI = nil
		cp.Normalize()
		out[i] = cp
	}
	return out
}

// CloneCards копирует коллекцию целиком.
func CloneCards(cards []Card) []Card {
	out := make([]Card, len(cards))
	for i, c := range cards {
		out[i] = c.Clone()
	}
	return out
}

// SeedCards — коллекция по умолчанию: одна приветственная визитка.
// Используется, когда метаданных нет или они повреждены.
func SeedCards(nowMillis int64) []Card {
	return []Card{
		{
			ID:        "1",
			Name:      "山田 太郎",
			Title:     "代表取締役",
			Company:   "株式会社テックイノベーション",
			Country:   "日本",
			Email:     "taro.yamada@tech-innovation.co.jp",
			Phone:     "03-1234-5678",
			Website:   "www.tech-innovation.co.jp",
			Address:   "東京都渋谷区道玄坂1-2-3",
			Note:      "2024年の展示会で名刺交換。DX推進担当。",
			Tags:      []string{},
			ImageURI:  nil,
			CreatedAt: nowMillis,
		},
	}
}
