package repo

import "context"

// ImageRepository определяет порт хранилища картинок визиток.
// Ключ — id визитки, значение — payload картинки (data URI).
type ImageRepository interface {
	// Put сохраняет или заменяет картинку для id.
	Put(ctx context.Context, id, payload string) error

	// GetAll возвращает все картинки: id → payload.
	GetAll(ctx context.Context) (map[string]string, error)

	// Delete удаляет картинку. Отсутствие записи ошибкой не считается.
	Delete(ctx context.Context, id string) error
}
