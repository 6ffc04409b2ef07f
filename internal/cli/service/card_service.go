package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"BizCard/internal/cli/model"
	"BizCard/internal/cli/repo"
	"BizCard/internal/cli/store"

	"go.uber.org/zap"
)

// ErrDuplicateID — визитка с таким id уже есть.
var ErrDuplicateID = errors.New("card with this id already exists")

// Значения по умолчанию для авто-бэкапа.
const (
	DefaultBackupDebounce = 2 * time.Second
	DefaultBackupMaxAge   = 24 * time.Hour
	defaultImageTimeout   = 30 * time.Second
)

// Options — настройки CardService.
type Options struct {
	BackupDebounce time.Duration
	BackupMaxAge   time.Duration
	ImageTimeout   time.Duration
	Now            func() time.Time
}

// CardService — единственная точка изменения коллекции визиток.
// Метаданные сохраняются синхронно, картинки пишутся в фоне через imageWriter.
type CardService struct {
	state  *store.State
	meta   *MetadataStore
	images repo.ImageRepository
	writer *imageWriter
	backup *Debouncer
	log    *zap.SugaredLogger

	now    func() time.Time
	maxAge time.Duration

	backupMu  sync.Mutex
	backupErr error
	closeOnce sync.Once
	closeErr  error
}

// NewCardService собирает сервис. До Init коллекция пуста и любые изменения запрещены.
func NewCardService(meta *MetadataStore, images repo.ImageRepository, log *zap.SugaredLogger, opts Options) *CardService {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if opts.BackupDebounce <= 0 {
		opts.BackupDebounce = DefaultBackupDebounce
	}
	if opts.BackupMaxAge <= 0 {
		opts.BackupMaxAge = DefaultBackupMaxAge
	}
	if opts.ImageTimeout <= 0 {
		opts.ImageTimeout = defaultImageTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &CardService{
		state:  store.New(),
		meta:   meta,
		images: images,
		writer: newImageWriter(images, log, opts.ImageTimeout),
		log:    log,
		now:    opts.Now,
		maxAge: opts.BackupMaxAge,
	}
	s.backup = NewDebouncer(opts.BackupDebounce, s.autoBackupCheck)
	return s
}

// Init выполняет начальную загрузку и публикует коллекцию.
// Повторный вызов ничего не делает.
func (s *CardService) Init(ctx context.Context) (ReconcileResult, error) {
	if s.state.Ready() {
		return ReconcileResult{Cards: s.state.Snapshot()}, nil
	}
	res, err := Reconcile(ctx, s.meta, s.images, s.log)
	if err != nil {
		return ReconcileResult{}, err
	}
	s.state.Replace(res.Cards)
	s.state.MarkReady()

	// после миграции или при первом запуске метаданные переписываются в актуальном виде.
	// Повреждённый слот не трогаем до первого изменения коллекции.
	if res.Migrated > 0 || res.Source == LoadedSeed {
		if err := s.meta.Save(ctx, s.state.Snapshot()); err != nil {
			s.log.Errorw("failed to persist cards after load", "error", err)
		}
	}
	s.backup.Schedule()
	return res, nil
}

// Ready сообщает, завершена ли начальная загрузка.
func (s *CardService) Ready() bool { return s.state.Ready() }

// List возвращает копию коллекции в порядке отображения.
func (s *CardService) List() []model.Card { return s.state.Snapshot() }

// Get ищет визитку по id.
func (s *CardService) Get(id string) (model.Card, error) {
	c, ok := s.state.Find(id)
	if !ok {
		return model.Card{}, fmt.Errorf("%w: %s", model.ErrCardNotFound, id)
	}
	return c, nil
}

// Add добавляет визитку в начало коллекции. id назначает вызывающий.
// Ошибка сохранения метаданных возвращается, но визитка в памяти остаётся.
func (s *CardService) Add(ctx context.Context, c model.Card) (model.Card, error) {
	if !s.state.Ready() {
		return model.Card{}, model.ErrNotReady
	}
	if c.ID == "" {
		return model.Card{}, errors.New("card id is required")
	}
	if _, exists := s.state.Find(c.ID); exists {
		return model.Card{}, fmt.Errorf("%w: %s", ErrDuplicateID, c.ID)
	}
	c = c.Clone()
	c.Normalize()
	if c.HasImage() {
		s.writer.Put(c.ID, *c.ImageURI)
	} else {
		c.ImageURI = nil
	}
	s.state.Prepend(c)
	return c, s.changed(ctx)
}

// Update заменяет визитку с тем же id целиком, порядок не меняется.
// Картинка пишется, только если она изменилась; снятая картинка удаляется из хранилища.
func (s *CardService) Update(ctx context.Context, c model.Card) (model.Card, error) {
	if !s.state.Ready() {
		return model.Card{}, model.ErrNotReady
	}
	prev, ok := s.state.Find(c.ID)
	if !ok {
		return model.Card{}, fmt.Errorf("%w: %s", model.ErrCardNotFound, c.ID)
	}
	c = c.Clone()
	c.Normalize()
	// createdAt неизменяем
	c.CreatedAt = prev.CreatedAt
	switch {
	case c.HasImage():
		if !prev.HasImage() || *prev.ImageURI != *c.ImageURI {
			s.writer.Put(c.ID, *c.ImageURI)
		}
	case prev.HasImage():
		c.ImageURI = nil
		s.writer.Delete(c.ID)
	default:
		c.ImageURI = nil
	}
	s.state.ReplaceByID(c)
	return c, s.changed(ctx)
}

// Delete удаляет визитку после подтверждения. Возвращает true, если удаление произошло.
func (s *CardService) Delete(ctx context.Context, id string, confirm repo.Confirmer) (bool, error) {
	if !s.state.Ready() {
		return false, model.ErrNotReady
	}
	c, ok := s.state.Find(id)
	if !ok {
		return false, fmt.Errorf("%w: %s", model.ErrCardNotFound, id)
	}
	label := c.Name
	if label == "" {
		label = c.Company
	}
	yes, err := confirm.Confirm(ctx, fmt.Sprintf("Delete card %q (%s)?", label, id))
	if err != nil {
		return false, err
	}
	if !yes {
		return false, nil
	}
	// картинку удаляем всегда: запись в хранилище могла остаться от прошлых версий
	s.writer.Delete(id)
	s.state.Remove(id)
	return true, s.changed(ctx)
}

// Wait дожидается завершения фоновых записей картинок.
func (s *CardService) Wait(ctx context.Context) error {
	return s.writer.Wait(ctx)
}

// Close выполняет отложенную проверку бэкапа и дожидается записи картинок.
// Возвращает ошибки фоновых операций.
func (s *CardService) Close() error {
	s.closeOnce.Do(func() {
		s.backup.Flush()
		s.backup.Cancel()
		werr := s.writer.Drain()
		s.backupMu.Lock()
		berr := s.backupErr
		s.backupMu.Unlock()
		s.closeErr = errors.Join(werr, berr)
	})
	return s.closeErr
}

// changed сохраняет метаданные и перезапускает таймер авто-бэкапа.
func (s *CardService) changed(ctx context.Context) error {
	if !s.state.Ready() {
		return nil
	}
	s.backup.Schedule()
	if err := s.meta.Save(ctx, s.state.Snapshot()); err != nil {
		s.log.Errorw("failed to persist cards", "error", err)
		return fmt.Errorf("changes kept in memory but not saved: %w", err)
	}
	return nil
}
