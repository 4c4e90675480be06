package collection_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/at-ishikawa/kartei/internal/collection"
	mock_template "github.com/at-ishikawa/kartei/internal/mocks/template"
	"github.com/at-ishikawa/kartei/internal/testutil"
)

func TestCollection_RenderQA(t *testing.T) {
	ctx := context.Background()

	t.Run("renders question and answer sides", func(t *testing.T) {
		col := testutil.OpenTestCollection(t)
		n := addBasicNote(t, col, "hola [sound:hola.mp3]", "hello")

		rendered, err := col.RenderQA(ctx, &collection.QAFilter{NoteIDs: []int64{n.ID}})
		require.NoError(t, err)
		require.Len(t, rendered, 1)

		assert.Equal(t, "hola [sound:hola.mp3]", rendered[0].Question)
		// FrontSide repeats the question with audio stripped.
		assert.True(t, strings.HasPrefix(rendered[0].Answer, "hola "))
		assert.NotContains(t, rendered[0].Answer, "[sound:")
		assert.Contains(t, rendered[0].Answer, "hello")
	})

	t.Run("exposes the pseudo-fields", func(t *testing.T) {
		col := testutil.OpenTestCollection(t)
		m := basicModel(t, col)
		m.Templates[0].AnswerFormat = "{{Back}} / {{Deck}} / {{Type}} / {{Card}} / {{Tags}}"
		col.Models.Save(m, col.USN())

		n := col.NewNote(m)
		n.Fields[0] = "hola"
		n.Fields[1] = "hello"
		n.SetTags([]string{"spanish"})
		_, err := col.AddNote(ctx, n)
		require.NoError(t, err)

		rendered, err := col.RenderQA(ctx, nil)
		require.NoError(t, err)
		require.Len(t, rendered, 1)
		assert.Equal(t, "hello / Default / Basic / Card 1 / spanish", rendered[0].Answer)
	})

	t.Run("cloze cards hide and reveal their group", func(t *testing.T) {
		col := testutil.OpenTestCollection(t)
		n := col.NewNote(clozeModel(t, col))
		n.Fields[0] = "{{c1::Paris}} is the capital of {{c2::France}}"
		n.Fields[1] = "extra"
		generated, err := col.AddNote(ctx, n)
		require.NoError(t, err)
		require.Equal(t, 2, generated)

		rendered, err := col.RenderQA(ctx, &collection.QAFilter{NoteIDs: []int64{n.ID}})
		require.NoError(t, err)
		require.Len(t, rendered, 2)

		assert.Equal(t, "[...] is the capital of France", rendered[0].Question)
		assert.Contains(t, rendered[0].Answer, "Paris is the capital of France")
		assert.Contains(t, rendered[0].Answer, "extra")
		assert.Equal(t, "Paris is the capital of [...]", rendered[1].Question)
	})

	t.Run("a cloze card without its deletion gets the help text", func(t *testing.T) {
		col := testutil.OpenTestCollection(t)
		n := col.NewNote(clozeModel(t, col))
		n.Fields[0] = "{{c1::a}} and {{c2::b}}"
		generated, err := col.AddNote(ctx, n)
		require.NoError(t, err)
		require.Equal(t, 2, generated)

		got, err := col.Notes.Get(ctx, n.ID)
		require.NoError(t, err)
		got.Fields[0] = "{{c1::a}} only"
		require.NoError(t, col.Notes.Update(ctx, got))

		rendered, err := col.RenderQA(ctx, &collection.QAFilter{NoteIDs: []int64{n.ID}})
		require.NoError(t, err)
		require.Len(t, rendered, 2)
		assert.NotContains(t, rendered[0].Question, "cloze deletion for this card is missing")
		assert.Contains(t, rendered[1].Question, "cloze deletion for this card is missing")
	})

	t.Run("a configured renderer handles both sides", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// Card generation also renders the question side through the
		// renderer, so the call count is not pinned.
		renderer := mock_template.NewMockRenderer(ctrl)
		renderer.EXPECT().
			Render(gomock.Any(), gomock.Any()).
			Return("stubbed", nil).
			AnyTimes()

		col := testutil.OpenTestCollection(t, collection.WithRenderer(renderer))
		n := addBasicNote(t, col, "hola", "hello")

		rendered, err := col.RenderQA(ctx, &collection.QAFilter{NoteIDs: []int64{n.ID}})
		require.NoError(t, err)
		require.Len(t, rendered, 1)
		assert.Equal(t, "stubbed", rendered[0].Question)
		assert.Equal(t, "stubbed", rendered[0].Answer)
	})

	t.Run("the render filter transforms both sides", func(t *testing.T) {
		col := testutil.OpenTestCollection(t)
		col.Hooks.AddFilter(collection.FilterRenderQA, func(value any, args ...any) any {
			return value.(string) + " [" + args[0].(string) + "]"
		})

		n := addBasicNote(t, col, "hola", "hello")
		rendered, err := col.RenderQA(ctx, &collection.QAFilter{NoteIDs: []int64{n.ID}})
		require.NoError(t, err)
		require.Len(t, rendered, 1)
		assert.Equal(t, "hola [q]", rendered[0].Question)
		assert.True(t, strings.HasSuffix(rendered[0].Answer, "[a]"))
	})
}

func TestCollection_QAData(t *testing.T) {
	ctx := context.Background()
	col := testutil.OpenTestCollection(t)

	first := addBasicNote(t, col, "uno", "one")
	second := addBasicNote(t, col, "dos", "two")

	t.Run("nil filter selects everything", func(t *testing.T) {
		rows, err := col.QAData(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("filters by note", func(t *testing.T) {
		rows, err := col.QAData(ctx, &collection.QAFilter{NoteIDs: []int64{first.ID}})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, first.ID, rows[0].NoteID)
	})

	t.Run("filters by card", func(t *testing.T) {
		cardIDs, err := col.Cards.IDsByNotes(ctx, []int64{second.ID})
		require.NoError(t, err)
		rows, err := col.QAData(ctx, &collection.QAFilter{CardIDs: cardIDs})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, second.ID, rows[0].NoteID)
	})

	t.Run("filters by model", func(t *testing.T) {
		rows, err := col.QAData(ctx, &collection.QAFilter{ModelIDs: []int64{basicModel(t, col).ID}})
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})
}
