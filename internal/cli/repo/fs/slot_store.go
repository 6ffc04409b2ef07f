package fs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"BizCard/internal/cli/repo"
)

// SlotStore — файловое хранилище слотов: один файл <key>.json на слот.
type SlotStore struct {
	dir string
}

var _ repo.SlotRepository = (*SlotStore)(nil)

var keyRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// NewSlotStore создаёт каталог dir при необходимости.
func NewSlotStore(dir string) (*SlotStore, error) {
	if dir == "" {
		return nil, errors.New("empty slot directory")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &SlotStore{dir: dir}, nil
}

func (s *SlotStore) path(key string) (string, error) {
	if !keyRe.MatchString(key) {
		return "", fmt.Errorf("invalid slot key: %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// Get читает слот. Отсутствующий файл — repo.ErrSlotNotFound.
func (s *SlotStore) Get(_ context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, repo.ErrSlotNotFound
		}
		return nil, fmt.Errorf("read slot %q: %w", key, err)
	}
	return b, nil
}

// Put атомарно заменяет содержимое слота: temp-файл, fsync, rename.
func (s *SlotStore) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(key)
	if err != nil {
		return err
	}
	return writeAtomic(p, value)
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".slot-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(step string, err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%s: %w", step, err)
	}

	w := bufio.NewWriter(tmp)
	if _, err := w.Write(data); err != nil {
		return fail("writing slot", err)
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
