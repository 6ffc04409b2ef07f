package repo

import (
	"context"
	"errors"
)

// ErrSlotNotFound возвращается, когда слот ещё ни разу не записывался.
var ErrSlotNotFound = errors.New("slot not found")

// SlotRepository — key/value хранилище небольших документов (метаданные, бэкап, отметка времени).
// Каждая запись слота атомарна: читатель видит либо старое, либо новое значение целиком.
type SlotRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}
