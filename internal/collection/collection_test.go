package collection_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/kartei/internal/collection"
	"github.com/at-ishikawa/kartei/internal/deck"
	"github.com/at-ishikawa/kartei/internal/model"
	"github.com/at-ishikawa/kartei/internal/note"
	"github.com/at-ishikawa/kartei/internal/testutil"
)

// basicModel returns the note type seeded into every new collection.
func basicModel(t *testing.T, col *collection.Collection) *model.Model {
	t.Helper()

	for _, m := range col.Models.All() {
		if m.Name == "Basic" {
			return m
		}
	}
	t.Fatal("seeded Basic model not found")
	return nil
}

func addBasicNote(t *testing.T, col *collection.Collection, front, back string) *note.Note {
	t.Helper()

	n := col.NewNote(basicModel(t, col))
	n.Fields[0] = front
	n.Fields[1] = back
	generated, err := col.AddNote(context.Background(), n)
	require.NoError(t, err)
	require.NotZero(t, generated)
	return n
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("seeds a fresh collection", func(t *testing.T) {
		col := testutil.OpenTestCollection(t)

		m := basicModel(t, col)
		require.Len(t, m.Templates, 1)
		assert.Equal(t, "Default", col.Decks.Name(deck.DefaultDeckID))
		assert.NotZero(t, col.CreatedAt())
		assert.Equal(t, -1, col.USN())
	})

	t.Run("server mode exposes the live usn counter", func(t *testing.T) {
		col := testutil.OpenTestCollection(t, collection.WithServerMode())
		assert.Equal(t, 0, col.USN())
	})

	t.Run("reopening keeps saved state", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "collection.db")
		col, err := collection.Open(ctx, path)
		require.NoError(t, err)

		n := addBasicNote(t, col, "hola", "hello")
		require.NoError(t, col.Close(ctx, true))

		reopened, err := collection.Open(ctx, path)
		require.NoError(t, err)
		defer func() {
			_ = reopened.Close(ctx, false)
		}()

		got, err := reopened.Notes.Get(ctx, n.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, []string{"hola", "hello"}, got.Fields)
	})

	t.Run("closing without saving discards unsaved work", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "collection.db")
		col, err := collection.Open(ctx, path)
		require.NoError(t, err)

		n := addBasicNote(t, col, "hola", "hello")
		require.NoError(t, col.Close(ctx, false))

		reopened, err := collection.Open(ctx, path)
		require.NoError(t, err)
		defer func() {
			_ = reopened.Close(ctx, false)
		}()

		got, err := reopened.Notes.Get(ctx, n.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestCollection_Save(t *testing.T) {
	ctx := context.Background()
	col := testutil.OpenTestCollection(t)

	before := col.ModifiedAt()
	addBasicNote(t, col, "hola", "hello")
	require.NoError(t, col.Save(ctx, "Add Note"))

	assert.Greater(t, col.ModifiedAt(), before)
	assert.Equal(t, "Add Note", col.UndoName())

	t.Run("saving again without changes keeps the checkpoint cleared", func(t *testing.T) {
		require.NoError(t, col.Save(ctx, ""))
		assert.Empty(t, col.UndoName())
	})
}

func TestCollection_Rollback(t *testing.T) {
	ctx := context.Background()
	col := testutil.OpenTestCollection(t)

	kept := addBasicNote(t, col, "kept", "saved")
	require.NoError(t, col.Save(ctx, ""))

	discarded := addBasicNote(t, col, "discarded", "unsaved")
	require.NoError(t, col.Rollback(ctx))

	got, err := col.Notes.Get(ctx, kept.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)

	got, err = col.Notes.Get(ctx, discarded.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCollection_ModSchema(t *testing.T) {
	ctx := context.Background()

	t.Run("marks the schema changed", func(t *testing.T) {
		col := testutil.OpenTestCollection(t)
		assert.True(t, col.SchemaChanged())

		require.NoError(t, col.ModSchema(ctx, true))
		assert.True(t, col.SchemaChanged())
	})

	t.Run("a filter can veto the change", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "collection.db")
		col, err := collection.Open(ctx, path)
		require.NoError(t, err)
		require.NoError(t, col.BeforeUpload(ctx))

		col, err = collection.Open(ctx, path)
		require.NoError(t, err)
		defer func() {
			_ = col.Close(ctx, false)
		}()
		require.False(t, col.SchemaChanged())

		col.Hooks.AddFilter(collection.FilterModSchema, func(value any, args ...any) any {
			return false
		})
		assert.ErrorIs(t, col.ModSchema(ctx, true), collection.ErrSchemaModAborted)
		assert.False(t, col.SchemaChanged())

		t.Run("an unchecked modification skips the filter", func(t *testing.T) {
			require.NoError(t, col.ModSchema(ctx, false))
			assert.True(t, col.SchemaChanged())
		})
	})
}

func TestCollection_BeforeUpload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "collection.db")
	col, err := collection.Open(ctx, path)
	require.NoError(t, err)

	n := addBasicNote(t, col, "hola", "hello")
	require.NoError(t, col.Save(ctx, ""))
	require.NoError(t, col.RemoveNotes(ctx, []int64{n.ID}))
	survivor := addBasicNote(t, col, "adios", "goodbye")

	require.NoError(t, col.BeforeUpload(ctx))

	reopened, err := collection.Open(ctx, path)
	require.NoError(t, err)
	defer func() {
		_ = reopened.Close(ctx, false)
	}()

	got, err := reopened.Notes.Get(ctx, survivor.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 0, got.USN)

	graves, err := reopened.GraveCount(ctx, collection.GraveNote)
	require.NoError(t, err)
	assert.Equal(t, 0, graves)
	assert.Equal(t, 1, reopened.USNCounter())
	assert.False(t, reopened.SchemaChanged())
}
