package collection_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/kartei/internal/collection"
	"github.com/at-ishikawa/kartei/internal/testutil"
)

func TestCollection_RemoveNotes(t *testing.T) {
	ctx := context.Background()
	col := testutil.OpenTestCollection(t)

	var removed []int64
	col.Hooks.AddHook(collection.HookNotesRemoved, func(args ...any) {
		if ids, ok := args[0].([]int64); ok {
			removed = append(removed, ids...)
		}
	})

	n := addBasicNote(t, col, "hola", "hello")
	kept := addBasicNote(t, col, "adios", "goodbye")

	require.NoError(t, col.RemoveNotes(ctx, []int64{n.ID}))

	got, err := col.Notes.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	cards, err := col.Cards.ByNote(ctx, n.ID)
	require.NoError(t, err)
	assert.Empty(t, cards)

	got, err = col.Notes.Get(ctx, kept.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)

	noteGraves, err := col.GraveCount(ctx, collection.GraveNote)
	require.NoError(t, err)
	assert.Equal(t, 1, noteGraves)
	cardGraves, err := col.GraveCount(ctx, collection.GraveCard)
	require.NoError(t, err)
	assert.Equal(t, 1, cardGraves)

	assert.Equal(t, []int64{n.ID}, removed)

	t.Run("empty input is a no-op", func(t *testing.T) {
		require.NoError(t, col.RemoveNotes(ctx, nil))
	})

	t.Run("missing notes are skipped", func(t *testing.T) {
		require.NoError(t, col.RemoveNotes(ctx, []int64{987654}))
	})
}

func TestCollection_RemoveCards(t *testing.T) {
	ctx := context.Background()

	t.Run("removes notes left without cards", func(t *testing.T) {
		col := testutil.OpenTestCollection(t)
		n := addBasicNote(t, col, "hola", "hello")

		cardIDs, err := col.Cards.IDsByNotes(ctx, []int64{n.ID})
		require.NoError(t, err)
		require.NoError(t, col.RemoveCards(ctx, cardIDs, true))

		got, err := col.Notes.Get(ctx, n.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("keeps orphan notes when asked", func(t *testing.T) {
		col := testutil.OpenTestCollection(t)
		n := addBasicNote(t, col, "hola", "hello")

		cardIDs, err := col.Cards.IDsByNotes(ctx, []int64{n.ID})
		require.NoError(t, err)
		require.NoError(t, col.RemoveCards(ctx, cardIDs, false))

		got, err := col.Notes.Get(ctx, n.ID)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})

	t.Run("keeps notes that still have sibling cards", func(t *testing.T) {
		col := testutil.OpenTestCollection(t)
		m := twoCardModel(t, col)

		n := col.NewNote(m)
		n.Fields[0] = "hola"
		n.Fields[1] = "hello"
		generated, err := col.AddNote(ctx, n)
		require.NoError(t, err)
		require.Equal(t, 2, generated)

		cards, err := col.Cards.ByNote(ctx, n.ID)
		require.NoError(t, err)
		require.NoError(t, col.RemoveCards(ctx, []int64{cards[0].ID}, true))

		got, err := col.Notes.Get(ctx, n.ID)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})
}
