package service

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"BizCard/internal/cli/model"
	"BizCard/internal/cli/repo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCardService_NotReadyBeforeInit(t *testing.T) {
	slots := newMemSlots()
	svc := newTestService(t, slots, newMemImages())
	ctx := context.Background()

	_, err := svc.Add(ctx, model.Card{ID: "x"})
	assert.ErrorIs(t, err, model.ErrNotReady)
	_, err = svc.Update(ctx, model.Card{ID: "x"})
	assert.ErrorIs(t, err, model.ErrNotReady)
	_, err = svc.Delete(ctx, "x", repo.AutoConfirm(true))
	assert.ErrorIs(t, err, model.ErrNotReady)
	_, err = svc.CreateBackup(ctx)
	assert.ErrorIs(t, err, model.ErrNotReady)

	// ничего не записано
	assert.Zero(t, slots.count(slots.puts, SlotData))
	assert.Zero(t, slots.count(slots.puts, SlotBackup))
}

func TestCardService_Init_SeedIsPersisted(t *testing.T) {
	slots := newMemSlots()
	svc := initService(t, slots, newMemImages())
	assert.Equal(t, []string{"1"}, cardIDs(svc.List()))
	assert.Equal(t, 1, slots.count(slots.puts, SlotData))

	// повторный Init ничего не перечитывает
	_, err := svc.Init(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, slots.count(slots.gets, SlotData))
}

func TestCardService_Init_StoredIsNotRewritten(t *testing.T) {
	slots := newMemSlots()
	slots.data[SlotData] = []byte(`[{"id":"a","name":"A","tags":[]}]`)
	initService(t, slots, newMemImages())
	assert.Zero(t, slots.count(slots.puts, SlotData))
}

func TestCardService_Init_CorruptSlotIsNotOverwritten(t *testing.T) {
	slots := newMemSlots()
	slots.data[SlotData] = []byte(`{not json`)
	svc := initService(t, slots, newMemImages())
	assert.Equal(t, []string{"1"}, cardIDs(svc.List()))
	assert.Zero(t, slots.count(slots.puts, SlotData))
	raw, _ := slots.raw(SlotData)
	assert.Equal(t, `{not json`, string(raw))
}

func TestCardService_Init_BadRecordKeepsOthers(t *testing.T) {
	slots := newMemSlots()
	slots.data[SlotData] = []byte(`[{"id":"a","name":"A"},{"name":"broken"}]`)
	svc := initService(t, slots, newMemImages())
	assert.Equal(t, []string{"a"}, cardIDs(svc.List()))
	assert.Zero(t, slots.count(slots.puts, SlotData))
}

func TestCardService_Init_MigrationRewritesMetadata(t *testing.T) {
	slots := newMemSlots()
	slots.data[SlotData] = []byte(`[{"id":"a","name":"A","imageUri":"data:image/png;base64,AAA"}]`)
	images := newMemImages()
	svc := initService(t, slots, images)

	assert.Equal(t, "data:image/png;base64,AAA", images.snapshot()["a"])
	raw, _ := slots.raw(SlotData)
	assert.NotContains(t, string(raw), "data:image")
	c, err := svc.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AAA", *c.ImageURI)
}

func TestCardService_Init_FailurePublishesNothing(t *testing.T) {
	images := newMemImages()
	images.getErr = errBoom
	svc := newTestService(t, newMemSlots(), images)
	_, err := svc.Init(context.Background())
	assert.ErrorIs(t, err, errBoom)
	assert.False(t, svc.Ready())
	assert.Empty(t, svc.List())
}

func TestCardService_AddScenario_RoundTrip(t *testing.T) {
	slots := newMemSlots()
	slots.data[SlotData] = []byte(`[]`)
	images := newMemImages()
	svc := initService(t, slots, images)
	ctx := context.Background()

	img := "data:image/jpeg;base64,/9j/4AAQ"
	card := model.Card{ID: "a1", Name: "田中太郎", Company: "Acme", Tags: []string{"vip"}, ImageURI: &img, CreatedAt: 1700000000000}
	_, err := svc.Add(ctx, card)
	require.NoError(t, err)
	require.NoError(t, svc.Wait(ctx))

	assert.Equal(t, img, images.snapshot()["a1"])

	raw, _ := slots.raw(SlotData)
	var saved []map[string]any
	require.NoError(t, json.Unmarshal(raw, &saved))
	require.Len(t, saved, 1)
	assert.Nil(t, saved[0]["imageUri"])
	assert.Equal(t, "田中太郎", saved[0]["name"])
	assert.Equal(t, []any{"vip"}, saved[0]["tags"])

	// новая сессия над теми же хранилищами восстанавливает визитку с картинкой
	again := initService(t, slots, images)
	got, err := again.Get("a1")
	require.NoError(t, err)
	assert.Equal(t, card, got)
}

func TestCardService_Add_PrependsAndRejectsDuplicates(t *testing.T) {
	slots := newMemSlots()
	svc := initService(t, slots, newMemImages())
	ctx := context.Background()

	_, err := svc.Add(ctx, model.Card{ID: "x", Tags: []string{"a", "a", " "}})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "1"}, cardIDs(svc.List()))
	c, _ := svc.Get("x")
	assert.Equal(t, []string{"a"}, c.Tags)

	_, err = svc.Add(ctx, model.Card{ID: "x"})
	assert.ErrorIs(t, err, ErrDuplicateID)
	_, err = svc.Add(ctx, model.Card{})
	assert.Error(t, err)
}

func TestCardService_Add_PersistFailureKeepsState(t *testing.T) {
	slots := newMemSlots()
	svc := initService(t, slots, newMemImages())
	slots.putErr = errBoom

	_, err := svc.Add(context.Background(), model.Card{ID: "x"})
	assert.ErrorIs(t, err, errBoom)
	_, err = svc.Get("x")
	assert.NoError(t, err, "in-memory state stays authoritative")
}

func TestCardService_Update(t *testing.T) {
	slots := newMemSlots()
	images := newMemImages()
	svc := initService(t, slots, images)
	ctx := context.Background()

	_, err := svc.Add(ctx, model.Card{ID: "x", Name: "X", ImageURI: strPtr("data:1"), CreatedAt: 5})
	require.NoError(t, err)
	_, err = svc.Add(ctx, model.Card{ID: "y", Name: "Y", CreatedAt: 6})
	require.NoError(t, err)

	upd, err := svc.Update(ctx, model.Card{ID: "x", Name: "X2", Note: "memo", ImageURI: strPtr("data:1"), CreatedAt: 999})
	require.NoError(t, err)
	assert.Equal(t, int64(5), upd.CreatedAt, "createdAt is immutable")
	assert.Equal(t, []string{"y", "x", "1"}, cardIDs(svc.List()), "order unchanged")
	require.NoError(t, svc.Wait(ctx))
	assert.Equal(t, 1, images.puts, "unchanged image is not rewritten")

	_, err = svc.Update(ctx, model.Card{ID: "x", Name: "X3", ImageURI: strPtr("data:2")})
	require.NoError(t, err)
	require.NoError(t, svc.Wait(ctx))
	assert.Equal(t, "data:2", images.snapshot()["x"])

	// снятие картинки удаляет её из хранилища
	_, err = svc.Update(ctx, model.Card{ID: "x", Name: "X4"})
	require.NoError(t, err)
	require.NoError(t, svc.Wait(ctx))
	assert.NotContains(t, images.snapshot(), "x")

	_, err = svc.Update(ctx, model.Card{ID: "nope"})
	assert.ErrorIs(t, err, model.ErrCardNotFound)
}

func TestCardService_Delete_Confirmed(t *testing.T) {
	slots := newMemSlots()
	images := newMemImages()
	svc := initService(t, slots, images)
	ctx := context.Background()

	_, err := svc.Add(ctx, model.Card{ID: "x", Name: "X", ImageURI: strPtr("data:1")})
	require.NoError(t, err)

	conf := &recordingConfirmer{answer: true}
	ok, err := svc.Delete(ctx, "x", conf)
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, conf.messages, 1)
	assert.Contains(t, conf.messages[0], "X")

	require.NoError(t, svc.Wait(ctx))
	assert.NotContains(t, images.snapshot(), "x")
	_, err = svc.Get("x")
	assert.ErrorIs(t, err, model.ErrCardNotFound)
	raw, _ := slots.raw(SlotData)
	assert.NotContains(t, string(raw), `"x"`)
}

func TestCardService_Delete_Declined(t *testing.T) {
	slots := newMemSlots()
	images := newMemImages()
	svc := initService(t, slots, images)
	ctx := context.Background()

	_, err := svc.Add(ctx, model.Card{ID: "x", ImageURI: strPtr("data:1")})
	require.NoError(t, err)
	require.NoError(t, svc.Wait(ctx))
	before := slots.count(slots.puts, SlotData)

	ok, err := svc.Delete(ctx, "x", repo.AutoConfirm(false))
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, svc.Wait(ctx))
	assert.Equal(t, "data:1", images.snapshot()["x"])
	_, err = svc.Get("x")
	assert.NoError(t, err)
	assert.Equal(t, before, slots.count(slots.puts, SlotData))

	// ошибка подтверждения — тоже без изменений
	ok, err = svc.Delete(ctx, "x", &recordingConfirmer{err: errBoom})
	assert.ErrorIs(t, err, errBoom)
	assert.False(t, ok)

	_, err = svc.Delete(ctx, "missing", repo.AutoConfirm(true))
	assert.ErrorIs(t, err, model.ErrCardNotFound)
}

func TestCardService_ImageFailureIsReportedOnClose(t *testing.T) {
	images := newMemImages()
	svc := initService(t, newMemSlots(), images)
	images.putErr = errBoom

	_, err := svc.Add(context.Background(), model.Card{ID: "x", ImageURI: strPtr("data:1")})
	require.NoError(t, err, "image write does not block the state change")
	_, err = svc.Get("x")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Close(), errBoom)
	// повторный Close возвращает тот же результат
	assert.ErrorIs(t, svc.Close(), errBoom)
}

func TestCardService_AutoBackup_NoTimestamp(t *testing.T) {
	slots := newMemSlots()
	svc := initService(t, slots, newMemImages())
	ctx := context.Background()

	_, err := svc.Add(ctx, model.Card{ID: "x"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, model.Card{ID: "y"})
	require.NoError(t, err)
	assert.Zero(t, slots.count(slots.puts, SlotBackup), "debounced, nothing yet")

	require.NoError(t, svc.Close())
	assert.Equal(t, 1, slots.count(slots.puts, SlotLastBackup), "one check per burst")
	assert.Equal(t, 1, slots.count(slots.puts, SlotBackup))

	raw, _ := slots.raw(SlotLastBackup)
	assert.Equal(t, strconv.FormatInt(fixedNow.UnixMilli(), 10), string(raw))
	backup, _ := slots.raw(SlotBackup)
	var cards []model.Card
	require.NoError(t, json.Unmarshal(backup, &cards))
	assert.Equal(t, []string{"y", "x", "1"}, cardIDs(cards))
}

func TestCardService_AutoBackup_RecentTimestampSkips(t *testing.T) {
	slots := newMemSlots()
	slots.data[SlotLastBackup] = []byte(strconv.FormatInt(fixedNow.Add(-23*time.Hour).UnixMilli(), 10))
	svc := initService(t, slots, newMemImages())

	_, err := svc.Add(context.Background(), model.Card{ID: "x"})
	require.NoError(t, err)
	require.NoError(t, svc.Close())

	assert.Equal(t, 1, slots.count(slots.gets, SlotLastBackup))
	assert.Zero(t, slots.count(slots.puts, SlotBackup))
}

func TestCardService_AutoBackup_StaleTimestampSnapshots(t *testing.T) {
	slots := newMemSlots()
	slots.data[SlotLastBackup] = []byte(strconv.FormatInt(fixedNow.Add(-25*time.Hour).UnixMilli(), 10))
	svc := initService(t, slots, newMemImages())
	require.NoError(t, svc.Close())
	assert.Equal(t, 1, slots.count(slots.puts, SlotBackup))
}

func TestCardService_AutoBackup_NotBeforeInit(t *testing.T) {
	slots := newMemSlots()
	svc := newTestService(t, slots, newMemImages())
	svc.autoBackupCheck()
	require.NoError(t, svc.Close())
	assert.Zero(t, slots.count(slots.gets, SlotLastBackup))
	assert.Zero(t, slots.count(slots.puts, SlotBackup))
}

func TestCardService_AutoBackup_Timer(t *testing.T) {
	slots := newMemSlots()
	meta := NewMetadataStore(slots, nil)
	svc := NewCardService(meta, newMemImages(), zap.NewNop().Sugar(), Options{BackupDebounce: 20 * time.Millisecond})
	defer svc.Close()
	_, err := svc.Init(context.Background())
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return slots.count(slots.puts, SlotBackup) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestCardService_CreateAndRestoreBackup(t *testing.T) {
	slots := newMemSlots()
	images := newMemImages()
	svc := initService(t, slots, images)
	ctx := context.Background()

	_, err := svc.Add(ctx, model.Card{ID: "keep", Name: "K", ImageURI: strPtr("data:k")})
	require.NoError(t, err)
	ts, err := svc.CreateBackup(ctx)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.UnixMilli(), ts)
	last, ok, err := svc.LastBackupAt(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ts, last)

	_, err = svc.Add(ctx, model.Card{ID: "later", ImageURI: strPtr("data:l")})
	require.NoError(t, err)
	_, err = svc.Update(ctx, model.Card{ID: "keep", Name: "changed", ImageURI: strPtr("data:k")})
	require.NoError(t, err)

	res, err := svc.RestoreBackup(ctx, repo.AutoConfirm(false))
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, []string{"later", "keep", "1"}, cardIDs(svc.List()))

	res, err = svc.RestoreBackup(ctx, repo.AutoConfirm(true))
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, []string{"keep", "1"}, cardIDs(svc.List()))

	c, err := svc.Get("keep")
	require.NoError(t, err)
	assert.Equal(t, "K", c.Name)
	require.NotNil(t, c.ImageURI, "metadata-only snapshot keeps existing images")
	assert.Equal(t, "data:k", *c.ImageURI)
	assert.NotContains(t, images.snapshot(), "later")
}

func TestCardService_RestoreBackup_Missing(t *testing.T) {
	svc := initService(t, newMemSlots(), newMemImages())
	_, err := svc.RestoreBackup(context.Background(), repo.AutoConfirm(true))
	assert.ErrorIs(t, err, ErrBackupNotFound)
}
