package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"BizCard/internal/cli/model"
	"BizCard/internal/cli/repo"

	"golang.org/x/sync/errgroup"
)

// restoreParallelism — сколько картинок пишется одновременно при восстановлении.
const restoreParallelism = 4

// RestoreResult — итог восстановления.
type RestoreResult struct {
	Applied bool
	Kind    model.RestoreKind
	Cards   int
	Images  int // сколько картинок перенесено из входных данных
}

// ExportBundle собирает полный бэкап: метаданные и свежие картинки из хранилища.
func (s *CardService) ExportBundle(ctx context.Context) (model.Bundle, error) {
	if !s.state.Ready() {
		return model.Bundle{}, model.ErrNotReady
	}
	if err := s.writer.Wait(ctx); err != nil {
		return model.Bundle{}, err
	}
	all, err := s.images.GetAll(ctx)
	if err != nil {
		return model.Bundle{}, fmt.Errorf("load images: %w", err)
	}
	return model.Bundle{
		Version:    model.BundleVersion,
		ExportedAt: s.now().UnixMilli(),
		Cards:      MergeImages(s.state.Snapshot(), all),
	}, nil
}

// WriteBundle сериализует бэкап в w.
func WriteBundle(w io.Writer, b model.Bundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

// ImportBundle восстанавливает коллекцию из JSON (конверт версии 1-2 или legacy массив).
// При ошибке разбора состояние не меняется.
func (s *CardService) ImportBundle(ctx context.Context, raw []byte, confirm repo.Confirmer) (RestoreResult, error) {
	if !s.state.Ready() {
		return RestoreResult{}, model.ErrNotReady
	}
	data, err := model.ParseRestoreData(raw)
	if err != nil {
		return RestoreResult{}, err
	}
	return s.restore(ctx, data, confirm)
}

func (s *CardService) restore(ctx context.Context, data model.RestoreData, confirm repo.Confirmer) (RestoreResult, error) {
	res := RestoreResult{Kind: data.Kind, Cards: len(data.Cards)}
	msg := fmt.Sprintf("Replace %d current cards with %d cards from %s backup? This cannot be undone.",
		s.state.Len(), len(data.Cards), data.Kind)
	yes, err := confirm.Confirm(ctx, msg)
	if err != nil {
		return res, err
	}
	if !yes {
		return res, nil
	}

	// всё, что поставлено в очередь раньше, должно лечь до восстановления
	if err := s.writer.Wait(ctx); err != nil {
		return res, err
	}

	// снимок хранилища до изменений: ошибка на любом следующем шаге возвращает его обратно
	before, err := s.images.GetAll(ctx)
	if err != nil {
		return res, fmt.Errorf("load images: %w", err)
	}

	n, err := putInlineImages(ctx, s.images, data.Cards)
	if err != nil {
		s.rollbackImages(ctx, data.Cards, before)
		return res, fmt.Errorf("restore images: %w", err)
	}
	res.Images = n

	prev := s.state.Snapshot()
	s.state.Replace(MergeImages(data.Cards, restoredImages(data, before)))
	res.Applied = true
	s.dropStaleImages(ctx, prev, data)
	return res, s.changed(ctx)
}

// restoredImages — картинка каждой восстановленной визитки: встроенная из входных данных,
// иначе прежняя из хранилища. Полный бэкап несёт картинки явно: нет картинки — значит её не было.
func restoredImages(data model.RestoreData, before map[string]string) map[string]string {
	out := make(map[string]string, len(data.Cards))
	for _, c := range data.Cards {
		switch {
		case model.IsInlineImage(c.ImageURI):
			out[c.ID] = *c.ImageURI
		case data.Kind == model.RestoreEnvelope && c.ImageURI == nil:
		default:
			if p, ok := before[c.ID]; ok {
				out[c.ID] = p
			}
		}
	}
	return out
}

// rollbackImages возвращает прежние картинки тем id, которые restore успел перезаписать.
func (s *CardService) rollbackImages(ctx context.Context, cards []model.Card, before map[string]string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), backupCheckTimeout)
	defer cancel()
	for _, c := range cards {
		if !model.IsInlineImage(c.ImageURI) {
			continue
		}
		var err error
		if p, ok := before[c.ID]; ok {
			err = s.images.Put(ctx, c.ID, p)
		} else {
			err = s.images.Delete(ctx, c.ID)
		}
		if err != nil {
			s.log.Errorw("failed to roll back image", "id", c.ID, "error", err)
		}
	}
}

// dropStaleImages удаляет картинки, которым больше не соответствует ни одна визитка.
// Коллекция уже опубликована, поэтому ошибка только логируется: лишняя запись в хранилище не видна.
func (s *CardService) dropStaleImages(ctx context.Context, prev []model.Card, data model.RestoreData) {
	incoming := make(map[string]struct{}, len(data.Cards))
	for _, c := range data.Cards {
		incoming[c.ID] = struct{}{}
	}
	var stale []string
	for _, c := range prev {
		if _, keep := incoming[c.ID]; !keep {
			stale = append(stale, c.ID)
		}
	}
	if data.Kind == model.RestoreEnvelope {
		for _, c := range data.Cards {
			if c.ImageURI == nil {
				stale = append(stale, c.ID)
			}
		}
	}
	for _, id := range stale {
		if err := s.images.Delete(ctx, id); err != nil {
			s.log.Warnw("failed to drop stale image", "id", id, "error", err)
		}
	}
}

// putInlineImages пишет встроенные картинки параллельно: ключи независимы, Put идемпотентен.
func putInlineImages(ctx context.Context, images repo.ImageRepository, cards []model.Card) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(restoreParallelism)
	n := 0
	for _, c := range cards {
		if !model.IsInlineImage(c.ImageURI) {
			continue
		}
		id, payload := c.ID, *c.ImageURI
		n++
		g.Go(func() error {
			return images.Put(gctx, id, payload)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return n, nil
}
