package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"BizCard/internal/cli/repo"
	fsrepo "BizCard/internal/cli/repo/fs"
	reposqlite "BizCard/internal/cli/repo/sqlite"
	"BizCard/internal/cli/service"
	"BizCard/internal/config"
	gormrepo "BizCard/internal/repo"
	miniostore "BizCard/internal/storage/minio"

	"go.uber.org/zap"
)

// stores — открытые хранилища и функции их закрытия (в обратном порядке открытия).
type stores struct {
	slots   repo.SlotRepository
	images  repo.ImageRepository
	local   *reposqlite.Repository
	closers []func() error
}

func (s *stores) close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// localDB лениво открывает общую SQLite-базу клиента.
func (s *stores) localDB(cfg *config.Config) (*reposqlite.Repository, error) {
	if s.local != nil {
		return s.local, nil
	}
	r, err := reposqlite.Open(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open local db: %w", err)
	}
	if err := r.Migrate(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("migrate local db: %w", err)
	}
	s.local = r
	s.closers = append(s.closers, r.Close)
	return r, nil
}

func (s *stores) openSlots(cfg *config.Config) error {
	switch cfg.MetadataBackend {
	case config.BackendSQLite, "":
		r, err := s.localDB(cfg)
		if err != nil {
			return err
		}
		s.slots = r
	case config.BackendFS:
		st, err := fsrepo.NewSlotStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("open slot dir: %w", err)
		}
		s.slots = st
	default:
		return fmt.Errorf("unknown metadata backend %q (expected sqlite|fs)", cfg.MetadataBackend)
	}
	return nil
}

func (s *stores) openImages(ctx context.Context, cfg *config.Config) error {
	switch cfg.ImageBackend {
	case config.BackendSQLite, "":
		r, err := s.localDB(cfg)
		if err != nil {
			return err
		}
		s.images = r.Images()
	case config.BackendGorm:
		db, err := gormrepo.InitDB(cfg.ImageDSN)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, func() error { return gormrepo.CloseDB(db) })
		s.images = gormrepo.NewImageRepository(db)
	case config.BackendMinIO:
		c, err := miniostore.Dial(ctx, miniostore.Options{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
		})
		if err != nil {
			return err
		}
		s.images = c
	default:
		return fmt.Errorf("unknown image backend %q (expected sqlite|gorm|minio)", cfg.ImageBackend)
	}
	return nil
}

// OpenApp открывает хранилища согласно cfg, выполняет начальную загрузку
// и возвращает (svc, cleanup, error).
// cleanup дожидается фоновых записей, выполняет отложенный бэкап и закрывает хранилища.
func OpenApp(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*service.CardService, func() error, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	st := &stores{}
	if err := st.openSlots(cfg); err != nil {
		_ = st.close()
		return nil, nil, err
	}
	if err := st.openImages(ctx, cfg); err != nil {
		_ = st.close()
		return nil, nil, err
	}

	meta := service.NewMetadataStore(st.slots, logger)
	svc := service.NewCardService(meta, st.images, logger, service.Options{
		BackupDebounce: cfg.BackupDebounce,
		BackupMaxAge:   cfg.BackupMaxAge,
	})

	res, err := svc.Init(ctx)
	if err != nil {
		_ = svc.Close()
		_ = st.close()
		return nil, nil, fmt.Errorf("load cards: %w", err)
	}
	logger.Debugw("cards loaded",
		"count", len(res.Cards),
		"migrated", res.Migrated,
		"metadata", cfg.MetadataBackend,
		"images", cfg.ImageBackend,
	)

	cleanup := func() error {
		return errors.Join(svc.Close(), st.close())
	}
	return svc, cleanup, nil
}
