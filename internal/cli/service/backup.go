package service

import (
	"context"
	"time"

	"BizCard/internal/cli/model"
	"BizCard/internal/cli/repo"
)

const backupCheckTimeout = 10 * time.Second

// autoBackupCheck запускается debouncer'ом после серии изменений.
// Снимок пишется, если бэкапа ещё не было или он старше maxAge.
func (s *CardService) autoBackupCheck() {
	if !s.state.Ready() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), backupCheckTimeout)
	defer cancel()

	s.backupMu.Lock()
	defer s.backupMu.Unlock()

	now := s.now()
	last, ok, err := s.meta.LastBackupAt(ctx)
	if err != nil {
		s.log.Errorw("auto-backup check failed", "error", err)
		s.backupErr = err
		return
	}
	if ok && now.Sub(time.UnixMilli(last)) <= s.maxAge {
		return
	}
	ts, err := s.snapshotLocked(ctx, now)
	if err != nil {
		s.log.Errorw("auto-backup failed", "error", err)
		s.backupErr = err
		return
	}
	s.backupErr = nil
	s.log.Infow("auto-backup written", "cards", s.state.Len(), "at", ts)
}

// CreateBackup пишет снимок метаданных в слот бэкапа по запросу пользователя.
func (s *CardService) CreateBackup(ctx context.Context) (int64, error) {
	if !s.state.Ready() {
		return 0, model.ErrNotReady
	}
	s.backupMu.Lock()
	defer s.backupMu.Unlock()
	return s.snapshotLocked(ctx, s.now())
}

func (s *CardService) snapshotLocked(ctx context.Context, now time.Time) (int64, error) {
	if err := s.meta.SaveBackup(ctx, s.state.Snapshot()); err != nil {
		return 0, err
	}
	return s.meta.SetLastBackupAt(ctx, now.UnixMilli())
}

// LastBackupAt — время последнего снимка (epoch ms), ok=false если его не было.
func (s *CardService) LastBackupAt(ctx context.Context) (int64, bool, error) {
	return s.meta.LastBackupAt(ctx)
}

// RestoreBackup восстанавливает коллекцию из слота бэкапа после подтверждения.
// Картинки существующих id сохраняются, картинки исчезнувших id удаляются.
func (s *CardService) RestoreBackup(ctx context.Context, confirm repo.Confirmer) (RestoreResult, error) {
	if !s.state.Ready() {
		return RestoreResult{}, model.ErrNotReady
	}
	data, err := s.meta.LoadBackup(ctx)
	if err != nil {
		return RestoreResult{}, err
	}
	return s.restore(ctx, data, confirm)
}
