package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"BizCard/internal/cli/repo"

	_ "modernc.org/sqlite"
)

// Repository — локальная БД SQLite: слоты метаданных и картинки визиток.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

var _ repo.SlotRepository = (*Repository)(nil)

// Open открывает (и создаёт при необходимости) файл БД по пути path.
func Open(path string) (*Repository, error) {
	if path == "" {
		return nil, errors.New("empty sqlite path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// modernc sqlite не любит параллельную запись из нескольких соединений
	db.SetMaxOpenConns(1)
	return New(db), nil
}

// New оборачивает уже открытое соединение (используется в тестах с sqlmock).
func New(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Close закрывает соединение с БД.
func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Migrate гарантирует наличие необходимых таблиц.
func (r *Repository) Migrate() error {
	_, err := r.db.Exec(initialDDL())
	return err
}

// Get возвращает значение слота или repo.ErrSlotNotFound.
func (r *Repository) Get(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM slots WHERE key = ?`, key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrSlotNotFound
		}
		return nil, fmt.Errorf("read slot %q: %w", key, err)
	}
	return v, nil
}

// Put записывает слот одним UPSERT.
func (r *Repository) Put(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO slots(key, value, updated_at) VALUES(?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, r.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("write slot %q: %w", key, err)
	}
	return nil
}

// ImageStore — хранилище картинок поверх той же БД.
// Отдельный тип, потому что у слотов и картинок совпадает имя метода Put.
type ImageStore struct {
	r *Repository
}

var _ repo.ImageRepository = ImageStore{}

// Images возвращает порт картинок, разделяющий соединение с репозиторием.
func (r *Repository) Images() ImageStore { return ImageStore{r: r} }

// Put сохраняет картинку (UPSERT по card_id).
func (s ImageStore) Put(ctx context.Context, id, payload string) error {
	if id == "" {
		return errors.New("empty card id")
	}
	_, err := s.r.db.ExecContext(ctx, `INSERT INTO images(card_id, payload, updated_at) VALUES(?, ?, ?)
        ON CONFLICT(card_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		id, payload, s.r.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("put image %s: %w", id, err)
	}
	return nil
}

// GetAll возвращает все картинки.
func (s ImageStore) GetAll(ctx context.Context) (map[string]string, error) {
	rows, err := s.r.db.QueryContext(ctx, `SELECT card_id, payload FROM images`)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		out[id] = payload
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	return out, nil
}

// Delete удаляет картинку; отсутствие записи не ошибка.
func (s ImageStore) Delete(ctx context.Context, id string) error {
	if _, err := s.r.db.ExecContext(ctx, `DELETE FROM images WHERE card_id = ?`, id); err != nil {
		return fmt.Errorf("delete image %s: %w", id, err)
	}
	return nil
}
