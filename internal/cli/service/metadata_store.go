package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"BizCard/internal/cli/model"
	"BizCard/internal/cli/repo"

	"go.uber.org/zap"
)

// Ключи слотов метаданных.
const (
	SlotData       = "bizcard_data"
	SlotBackup     = "bizcard_backup"
	SlotLastBackup = "bizcard_last_backup_time"
)

// ErrBackupNotFound — в слоте бэкапа ничего нет.
var ErrBackupNotFound = errors.New("backup not found")

// LoadSource описывает, откуда взялась загруженная коллекция.
type LoadSource int

const (
	LoadedStored   LoadSource = iota // из слота
	LoadedSeed                       // слота нет, seed
	LoadedCorrupt                    // слот повреждён, seed
)

// MetadataStore хранит коллекцию визиток без картинок и отметку последнего бэкапа.
type MetadataStore struct {
	slots repo.SlotRepository
	log   *zap.SugaredLogger
	now   func() time.Time
}

// NewMetadataStore создаёт хранилище метаданных поверх слотов.
func NewMetadataStore(slots repo.SlotRepository, log *zap.SugaredLogger) *MetadataStore {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &MetadataStore{slots: slots, log: log, now: time.Now}
}

// Save сериализует всю коллекцию одной записью. Картинки не сохраняются.
func (m *MetadataStore) Save(ctx context.Context, cards []model.Card) error {
	return m.putCards(ctx, SlotData, cards)
}

// SaveBackup пишет снимок метаданных в слот бэкапа.
func (m *MetadataStore) SaveBackup(ctx context.Context, cards []model.Card) error {
	return m.putCards(ctx, SlotBackup, cards)
}

func (m *MetadataStore) putCards(ctx context.Context, key string, cards []model.Card) error {
	b, err := json.Marshal(model.StripImages(cards))
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := m.slots.Put(ctx, key, b); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Load читает коллекцию. Отсутствующий или повреждённый слот даёт seed-коллекцию.
// Ошибка возвращается только если хранилище недоступно.
// Устаревшие записи с картинкой внутри imageUri возвращаются как есть, их переносит миграция.
func (m *MetadataStore) Load(ctx context.Context) ([]model.Card, LoadSource, error) {
	raw, err := m.slots.Get(ctx, SlotData)
	if err != nil {
		if errors.Is(err, repo.ErrSlotNotFound) {
			m.log.Infow("no stored cards, using seed collection")
			return model.SeedCards(m.now().UnixMilli()), LoadedSeed, nil
		}
		return nil, 0, fmt.Errorf("load cards: %w", err)
	}
	cards, skipped, err := decodeCards(raw)
	if err != nil {
		m.log.Warnw("stored cards are corrupt, using seed collection", "error", err)
		return model.SeedCards(m.now().UnixMilli()), LoadedCorrupt, nil
	}
	if len(skipped) > 0 {
		m.log.Warnw("skipped unusable stored cards", "records", skipped)
	}
	return cards, LoadedStored, nil
}

// LoadBackup читает снимок из слота бэкапа.
func (m *MetadataStore) LoadBackup(ctx context.Context) (model.RestoreData, error) {
	raw, err := m.slots.Get(ctx, SlotBackup)
	if err != nil {
		if errors.Is(err, repo.ErrSlotNotFound) {
			return model.RestoreData{}, ErrBackupNotFound
		}
		return model.RestoreData{}, fmt.Errorf("load backup: %w", err)
	}
	return model.ParseRestoreData(raw)
}

// decodeCards разбирает коллекцию. Записи без id и повторы id пропускаются,
// skipped — их позиции в исходном массиве.
func decodeCards(raw []byte) (cards []model.Card, skipped []int, err error) {
	var all []model.Card
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, nil, err
	}
	if all == nil {
		return nil, nil, errors.New("null collection")
	}
	cards = make([]model.Card, 0, len(all))
	seen := make(map[string]struct{}, len(all))
	for i, c := range all {
		if _, dup := seen[c.ID]; c.ID == "" || dup {
			skipped = append(skipped, i)
			continue
		}
		seen[c.ID] = struct{}{}
		c.Normalize()
		cards = append(cards, c)
	}
	return cards, skipped, nil
}

// LastBackupAt возвращает время последнего бэкапа (epoch ms). ok=false — бэкапа не было.
// Нечитаемое значение считается отсутствующим.
func (m *MetadataStore) LastBackupAt(ctx context.Context) (int64, bool, error) {
	raw, err := m.slots.Get(ctx, SlotLastBackup)
	if err != nil {
		if errors.Is(err, repo.ErrSlotNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("load last backup time: %w", err)
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil || ts <= 0 {
		m.log.Warnw("last backup time is corrupt, treating as never", "value", string(raw))
		return 0, false, nil
	}
	return ts, true, nil
}

// SetLastBackupAt сохраняет отметку бэкапа. Значение никогда не уменьшается:
// если сохранённое новее, оно остаётся. Возвращает итоговое значение.
func (m *MetadataStore) SetLastBackupAt(ctx context.Context, ts int64) (int64, error) {
	cur, ok, err := m.LastBackupAt(ctx)
	if err != nil {
		return 0, err
	}
	if ok && cur >= ts {
		return cur, nil
	}
	if err := m.slots.Put(ctx, SlotLastBackup, []byte(strconv.FormatInt(ts, 10))); err != nil {
		return 0, fmt.Errorf("save last backup time: %w", err)
	}
	return ts, nil
}
