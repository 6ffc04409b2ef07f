package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"BizCard/internal/cli/model"
	"BizCard/internal/cli/repo"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- in-memory слоты ---
type memSlots struct {
	mu     sync.Mutex
	data   map[string][]byte
	gets   map[string]int
	puts   map[string]int
	putErr error
	getErr error
}

func newMemSlots() *memSlots {
	return &memSlots{data: map[string][]byte{}, gets: map[string]int{}, puts: map[string]int{}}
}

func (m *memSlots) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets[key]++
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, repo.ErrSlotNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *memSlots) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.puts[key]++
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memSlots) count(kind map[string]int, key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return kind[key]
}

func (m *memSlots) raw(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

// --- in-memory картинки ---
type memImages struct {
	mu     sync.Mutex
	data   map[string]string
	puts   int
	putErr error
	getErr error
	failOn map[string]error // ошибка Put для конкретного id
}

func newMemImages() *memImages { return &memImages{data: map[string]string{}, failOn: map[string]error{}} }

func (m *memImages) Put(_ context.Context, id, payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	if err := m.failOn[id]; err != nil {
		return err
	}
	m.puts++
	m.data[id] = payload
	return nil
}

func (m *memImages) GetAll(context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := make(map[string]string, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out, nil
}

func (m *memImages) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *memImages) snapshot() map[string]string {
	all, _ := m.GetAll(context.Background())
	return all
}

// --- мок хранилища картинок (testify/mock) ---
type mockImages struct{ mock.Mock }

func (m *mockImages) Put(ctx context.Context, id, payload string) error {
	return m.Called(id, payload).Error(0)
}
func (m *mockImages) GetAll(ctx context.Context) (map[string]string, error) {
	args := m.Called()
	if v, ok := args.Get(0).(map[string]string); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockImages) Delete(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

var (
	_ repo.SlotRepository  = (*memSlots)(nil)
	_ repo.ImageRepository = (*memImages)(nil)
	_ repo.ImageRepository = (*mockImages)(nil)
)

// confirmer, запоминающий вопросы.
type recordingConfirmer struct {
	answer   bool
	err      error
	messages []string
}

func (r *recordingConfirmer) Confirm(_ context.Context, msg string) (bool, error) {
	r.messages = append(r.messages, msg)
	return r.answer, r.err
}

var errBoom = errors.New("boom")

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

// newTestService собирает сервис с длинным debounce: проверка бэкапа срабатывает только через Close.
func newTestService(t *testing.T, slots *memSlots, images repo.ImageRepository) *CardService {
	t.Helper()
	meta := NewMetadataStore(slots, zap.NewNop().Sugar())
	meta.now = func() time.Time { return fixedNow }
	svc := NewCardService(meta, images, zap.NewNop().Sugar(), Options{
		BackupDebounce: time.Hour,
		Now:            func() time.Time { return fixedNow },
	})
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func initService(t *testing.T, slots *memSlots, images repo.ImageRepository) *CardService {
	t.Helper()
	svc := newTestService(t, slots, images)
	_, err := svc.Init(context.Background())
	require.NoError(t, err)
	return svc
}

func cardIDs(cards []model.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}
