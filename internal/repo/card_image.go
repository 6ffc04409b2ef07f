package repo

import (
	"context"
	"errors"

	"BizCard/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ImageRepository — хранилище картинок визиток на gorm.
type ImageRepository struct {
	db *gorm.DB
}

// NewImageRepository создаёт репозиторий поверх открытой БД.
func NewImageRepository(db *gorm.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// Put вставляет или заменяет картинку.
func (r *ImageRepository) Put(ctx context.Context, id, payload string) error {
	if id == "" {
		return errors.New("empty card id")
	}
	img := &model.CardImage{CardID: id, Payload: payload}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "card_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(img).Error
}

// GetAll возвращает все картинки id → payload.
func (r *ImageRepository) GetAll(ctx context.Context) (map[string]string, error) {
	var rows []model.CardImage
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.CardID] = row.Payload
	}
	return out, nil
}

// Delete удаляет картинку, отсутствие записи не ошибка.
func (r *ImageRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("card_id = ?", id).Delete(&model.CardImage{}).Error
}
