package service

import (
	"context"
	"testing"

	"BizCard/internal/cli/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func legacyCards() []model.Card {
	return []model.Card{
		{ID: "a", Name: "A", ImageURI: strPtr("data:image/jpeg;base64,AAA")},
		{ID: "b", Name: "B"},
		{ID: "c", Name: "C", ImageURI: strPtr("data:image/png;base64,CCC")},
	}
}

func TestMigrateInlineImages_Idempotent(t *testing.T) {
	ctx := context.Background()
	once := newMemImages()
	n, err := MigrateInlineImages(ctx, once, legacyCards())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	twice := newMemImages()
	_, err = MigrateInlineImages(ctx, twice, legacyCards())
	require.NoError(t, err)
	_, err = MigrateInlineImages(ctx, twice, legacyCards())
	require.NoError(t, err)

	assert.Equal(t, once.snapshot(), twice.snapshot())
	assert.Equal(t, map[string]string{
		"a": "data:image/jpeg;base64,AAA",
		"c": "data:image/png;base64,CCC",
	}, twice.snapshot())
}

func TestMigrateInlineImages_SkipsNonInline(t *testing.T) {
	images := newMemImages()
	n, err := MigrateInlineImages(context.Background(), images, []model.Card{
		{ID: "x", ImageURI: strPtr("blob:http://localhost/123")},
		{ID: "y", ImageURI: strPtr("")},
	})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, images.snapshot())
}

func TestMigrateInlineImages_StopsOnError(t *testing.T) {
	m := new(mockImages)
	m.On("Put", "a", "data:image/jpeg;base64,AAA").Return(errBoom).Once()

	n, err := MigrateInlineImages(context.Background(), m, legacyCards())
	assert.ErrorIs(t, err, errBoom)
	assert.Zero(t, n)
	m.AssertExpectations(t)
}

func TestMergeImages(t *testing.T) {
	cards := []model.Card{
		{ID: "a", ImageURI: strPtr("data:stale")},
		{ID: "b"},
	}
	got := MergeImages(cards, map[string]string{"b": "data:b", "orphan": "data:o"})
	require.Len(t, got, 2)
	assert.Nil(t, got[0].ImageURI, "no store entry means no image")
	require.NotNil(t, got[1].ImageURI)
	assert.Equal(t, "data:b", *got[1].ImageURI)
	// вход не изменён
	assert.Equal(t, "data:stale", *cards[0].ImageURI)
}

func TestReconcile_MigratesBeforeFetch(t *testing.T) {
	slots := newMemSlots()
	meta := NewMetadataStore(slots, nil)
	raw := `[{"id":"a","name":"A","imageUri":"data:image/jpeg;base64,AAA"},{"id":"b","name":"B","imageUri":null}]`
	slots.data[SlotData] = []byte(raw)
	images := newMemImages()
	images.data["b"] = "data:image/png;base64,BBB"

	res, err := Reconcile(context.Background(), meta, images, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Migrated)
	assert.Equal(t, LoadedStored, res.Source)
	require.Len(t, res.Cards, 2)
	assert.Equal(t, "data:image/jpeg;base64,AAA", *res.Cards[0].ImageURI)
	assert.Equal(t, "data:image/png;base64,BBB", *res.Cards[1].ImageURI)
}

func TestReconcile_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("migration", func(t *testing.T) {
		slots := newMemSlots()
		slots.data[SlotData] = []byte(`[{"id":"a","imageUri":"data:x"}]`)
		images := newMemImages()
		images.putErr = errBoom
		_, err := Reconcile(ctx, NewMetadataStore(slots, nil), images, nil)
		assert.ErrorIs(t, err, errBoom)
	})

	t.Run("get all", func(t *testing.T) {
		images := newMemImages()
		images.getErr = errBoom
		_, err := Reconcile(ctx, NewMetadataStore(newMemSlots(), nil), images, nil)
		assert.ErrorIs(t, err, errBoom)
	})

	t.Run("metadata", func(t *testing.T) {
		slots := newMemSlots()
		slots.getErr = errBoom
		_, err := Reconcile(ctx, NewMetadataStore(slots, nil), newMemImages(), nil)
		assert.ErrorIs(t, err, errBoom)
	})
}
