package service

import (
	"context"
	"fmt"

	"BizCard/internal/cli/model"
	"BizCard/internal/cli/repo"

	"go.uber.org/zap"
)

// MigrateInlineImages переносит картинки, лежащие прямо в imageUri, в хранилище картинок.
// Записи идут последовательно и завершаются до возврата, поэтому следующий GetAll
// видит уже перенесённые данные. Повторный запуск перезаписывает те же ключи тем же значением.
// Входной срез не меняется: imageUri обнуляется при слиянии (MergeImages).
func MigrateInlineImages(ctx context.Context, images repo.ImageRepository, cards []model.Card) (int, error) {
	n := 0
	for _, c := range cards {
		if !model.IsInlineImage(c.ImageURI) {
			continue
		}
		if err := images.Put(ctx, c.ID, *c.ImageURI); err != nil {
			return n, fmt.Errorf("migrate image of card %s: %w", c.ID, err)
		}
		n++
	}
	return n, nil
}

// MergeImages возвращает копии визиток с imageUri из хранилища (или nil, если картинки нет).
func MergeImages(cards []model.Card, images map[string]string) []model.Card {
	out := make([]model.Card, len(cards))
	for i, c := range cards {
		cp := c.Clone()
		cp.ImageURI = nil
		if p, ok := images[c.ID]; ok {
			v := p
			cp.ImageURI = &v
		}
		cp.Normalize()
		out[i] = cp
	}
	return out
}

// ReconcileResult — итог начальной загрузки.
type ReconcileResult struct {
	Cards    []model.Card
	Migrated int
	Source   LoadSource
}

// Reconcile собирает коллекцию: метаданные → миграция → все картинки → слияние.
// Ошибка хранилища прерывает процесс целиком, частичный результат не возвращается.
func Reconcile(ctx context.Context, meta *MetadataStore, images repo.ImageRepository, log *zap.SugaredLogger) (ReconcileResult, error) {
	cards, src, err := meta.Load(ctx)
	if err != nil {
		return ReconcileResult{}, err
	}
	migrated, err := MigrateInlineImages(ctx, images, cards)
	if err != nil {
		return ReconcileResult{}, err
	}
	if migrated > 0 && log != nil {
		log.Infow("migrated inline images", "count", migrated)
	}
	all, err := images.GetAll(ctx)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("load images: %w", err)
	}
	return ReconcileResult{Cards: MergeImages(cards, all), Migrated: migrated, Source: src}, nil
}
