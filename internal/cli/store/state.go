package store

import (
	"sync"

	"BizCard/internal/cli/model"
)

// State — живая коллекция визиток в памяти.
// Все изменения идут через методы State; наружу отдаются только копии.
type State struct {
	mu    sync.RWMutex
	cards []model.Card
	ready bool
}

// New создаёт пустое, ещё не инициализированное состояние.
func New() *State {
	return &State{cards: []model.Card{}}
}

// Ready сообщает, завершена ли начальная загрузка.
// До этого момента сохранение и авто-бэкап запрещены.
func (s *State) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// MarkReady отмечает завершение начальной загрузки.
func (s *State) MarkReady() {
	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
}

// Snapshot возвращает копию коллекции.
func (s *State) Snapshot() []model.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneCards(s.cards)
}

// Len — количество визиток.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cards)
}

// Replace заменяет коллекцию целиком и возвращает копию нового состояния.
func (s *State) Replace(cards []model.Card) []model.Card {
	cp := model.CloneCards(cards)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards = cp
	return model.CloneCards(s.cards)
}

// Prepend добавляет визитку в начало (новые сверху).
func (s *State) Prepend(c model.Card) []model.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]model.Card, 0, len(s.cards)+1)
	next = append(next, c.Clone())
	next = append(next, s.cards...)
	s.cards = next
	return model.CloneCards(s.cards)
}

// ReplaceByID заменяет визитку с тем же id, сохраняя позицию.
// Второе значение false, если id не найден (состояние не меняется).
func (s *State) ReplaceByID(c model.Card) ([]model.Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cards {
		if s.cards[i].ID == c.ID {
			s.cards[i] = c.Clone()
			return model.CloneCards(s.cards), true
		}
	}
	return nil, false
}

// Remove удаляет визитку по id. Возвращает удалённую визитку и признак успеха.
func (s *State) Remove(id string) (model.Card, []model.Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cards {
		if s.cards[i].ID == id {
			removed := s.cards[i]
			next := make([]model.Card, 0, len(s.cards)-1)
			next = append(next, s.cards[:i]...)
			next = append(next, s.cards[i+1:]...)
			s.cards = next
			return removed, model.CloneCards(s.cards), true
		}
	}
	return model.Card{}, nil, false
}

// Find ищет визитку по id.
func (s *State) Find(id string) (model.Card, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.cards {
		if c.ID == id {
			return c.Clone(), true
		}
	}
	return model.Card{}, false
}
