package repo

import "context"

// Confirmer спрашивает у пользователя подтверждение деструктивного действия.
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// AutoConfirm — неинтерактивный Confirmer с фиксированным ответом (флаг --yes, тесты).
type AutoConfirm bool

// Confirm возвращает зафиксированный ответ.
func (a AutoConfirm) Confirm(context.Context, string) (bool, error) { return bool(a), nil }
