package collection_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/kartei/internal/card"
	"github.com/at-ishikawa/kartei/internal/collection"
	"github.com/at-ishikawa/kartei/internal/deck"
	"github.com/at-ishikawa/kartei/internal/model"
	"github.com/at-ishikawa/kartei/internal/testutil"
)

func clozeModel(t *testing.T, col *collection.Collection) *model.Model {
	t.Helper()

	m := model.NewCloze("Cloze")
	col.Models.Add(m, col.USN())
	return m
}

func TestCollection_FindTemplates(t *testing.T) {
	col := testutil.OpenTestCollection(t)

	t.Run("standard model needs a referenced field filled", func(t *testing.T) {
		n := col.NewNote(basicModel(t, col))
		templates, err := col.FindTemplates(n)
		require.NoError(t, err)
		assert.Empty(t, templates)

		n.Fields[0] = "hola"
		templates, err = col.FindTemplates(n)
		require.NoError(t, err)
		require.Len(t, templates, 1)
		assert.Equal(t, 0, templates[0].Ordinal)
	})

	t.Run("a section hiding the question makes the template unavailable", func(t *testing.T) {
		m := basicModel(t, col)
		m.Templates[0].QuestionFormat = "{{#Back}}{{Front}}{{/Back}}"
		col.Models.Save(m, col.USN())

		// Front alone renders an empty question: the section drops its
		// body while Back stays empty.
		n := col.NewNote(m)
		n.Fields[0] = "hola"
		templates, err := col.FindTemplates(n)
		require.NoError(t, err)
		assert.Empty(t, templates)

		n.Fields[1] = "hello"
		templates, err = col.FindTemplates(n)
		require.NoError(t, err)
		require.Len(t, templates, 1)
		assert.Equal(t, 0, templates[0].Ordinal)
	})

	t.Run("markup-only questions count as empty", func(t *testing.T) {
		m := basicModel(t, col)
		m.Templates[0].QuestionFormat = "{{Front}}"
		col.Models.Save(m, col.USN())

		n := col.NewNote(m)
		n.Fields[0] = "<br>[sound:silence.mp3]"
		templates, err := col.FindTemplates(n)
		require.NoError(t, err)
		assert.Empty(t, templates)
	})

	t.Run("cloze model yields one template per deletion group", func(t *testing.T) {
		n := col.NewNote(clozeModel(t, col))
		n.Fields[0] = "{{c1::Paris}} is the capital of {{c3::France}}"

		templates, err := col.FindTemplates(n)
		require.NoError(t, err)
		require.Len(t, templates, 2)
		assert.Equal(t, 0, templates[0].Ordinal)
		assert.Equal(t, 2, templates[1].Ordinal)
	})

	t.Run("unknown model yields nothing", func(t *testing.T) {
		n := col.NewNote(&model.Model{ID: 12345})
		templates, err := col.FindTemplates(n)
		require.NoError(t, err)
		assert.Nil(t, templates)
	})
}

func TestCollection_GenCards(t *testing.T) {
	ctx := context.Background()

	t.Run("is idempotent without field changes", func(t *testing.T) {
		col := testutil.OpenTestCollection(t)
		n := addBasicNote(t, col, "hola", "hello")

		before, err := col.Cards.Count(ctx)
		require.NoError(t, err)

		removable, err := col.GenCards(ctx, []int64{n.ID})
		require.NoError(t, err)
		assert.Empty(t, removable)

		after, err := col.Cards.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("new siblings follow the deck of existing ones", func(t *testing.T) {
		col := testutil.OpenTestCollection(t)
		m := twoCardModel(t, col)
		spanish := &deck.Deck{Name: "Spanish"}
		col.Decks.Add(spanish, col.USN())

		n := col.NewNote(m)
		n.Fields[0] = "hola"
		generated, err := col.AddNote(ctx, n)
		require.NoError(t, err)
		require.Equal(t, 1, generated)

		cards, err := col.Cards.ByNote(ctx, n.ID)
		require.NoError(t, err)
		require.Len(t, cards, 1)
		cards[0].DeckID = spanish.ID
		require.NoError(t, col.Cards.Update(ctx, &cards[0]))

		got, err := col.Notes.Get(ctx, n.ID)
		require.NoError(t, err)
		got.Fields[1] = "hello"
		require.NoError(t, col.UpdateNote(ctx, got))

		cards, err = col.Cards.ByNote(ctx, n.ID)
		require.NoError(t, err)
		require.Len(t, cards, 2)
		assert.Equal(t, spanish.ID, cards[1].DeckID)
	})

	t.Run("cloze notes get one card per group", func(t *testing.T) {
		col := testutil.OpenTestCollection(t)
		n := col.NewNote(clozeModel(t, col))
		n.Fields[0] = "{{c1::a}} and {{c2::b}}"

		generated, err := col.AddNote(ctx, n)
		require.NoError(t, err)
		assert.Equal(t, 2, generated)

		cards, err := col.Cards.ByNote(ctx, n.ID)
		require.NoError(t, err)
		require.Len(t, cards, 2)
		assert.Equal(t, 0, cards[0].Ordinal)
		assert.Equal(t, 1, cards[1].Ordinal)
	})
}

func TestCollection_CardDecks(t *testing.T) {
	ctx := context.Background()

	t.Run("a filtered default deck falls back to the default deck", func(t *testing.T) {
		col := testutil.OpenTestCollection(t)
		cram := &deck.Deck{Name: "Cram", Filtered: true}
		col.Decks.Add(cram, col.USN())

		m := basicModel(t, col)
		m.DefaultDeckID = cram.ID
		col.Models.Save(m, col.USN())

		n := addBasicNote(t, col, "hola", "hello")
		cards, err := col.Cards.ByNote(ctx, n.ID)
		require.NoError(t, err)
		require.Len(t, cards, 1)
		assert.Equal(t, int64(deck.DefaultDeckID), cards[0].DeckID)
	})

	t.Run("a missing model deck falls back to the default deck", func(t *testing.T) {
		col := testutil.OpenTestCollection(t)
		m := basicModel(t, col)
		m.DefaultDeckID = 987654
		col.Models.Save(m, col.USN())

		n := addBasicNote(t, col, "hola", "hello")
		cards, err := col.Cards.ByNote(ctx, n.ID)
		require.NoError(t, err)
		require.Len(t, cards, 1)
		assert.Equal(t, int64(deck.DefaultDeckID), cards[0].DeckID)
	})

	t.Run("a template override wins over the model default", func(t *testing.T) {
		col := testutil.OpenTestCollection(t)
		spanish := &deck.Deck{Name: "Spanish"}
		col.Decks.Add(spanish, col.USN())

		m := basicModel(t, col)
		m.Templates[0].DeckOverrideID = spanish.ID
		col.Models.Save(m, col.USN())

		n := addBasicNote(t, col, "hola", "hello")
		cards, err := col.Cards.ByNote(ctx, n.ID)
		require.NoError(t, err)
		require.Len(t, cards, 1)
		assert.Equal(t, spanish.ID, cards[0].DeckID)
	})
}

func TestCollection_NewCardDue(t *testing.T) {
	ctx := context.Background()

	t.Run("sequential decks assign increasing positions", func(t *testing.T) {
		col := testutil.OpenTestCollection(t)

		first := addBasicNote(t, col, "uno", "one")
		second := addBasicNote(t, col, "dos", "two")

		firstCards, err := col.Cards.ByNote(ctx, first.ID)
		require.NoError(t, err)
		secondCards, err := col.Cards.ByNote(ctx, second.ID)
		require.NoError(t, err)
		assert.Greater(t, secondCards[0].Due, firstCards[0].Due)
	})

	t.Run("random decks give siblings the same slot", func(t *testing.T) {
		col := testutil.OpenTestCollection(t)
		col.Decks.ConfigFor(deck.DefaultDeckID).NewCardOrder = deck.OrderRandom

		m := twoCardModel(t, col)
		n := col.NewNote(m)
		n.Fields[0] = "hola"
		n.Fields[1] = "hello"
		generated, err := col.AddNote(ctx, n)
		require.NoError(t, err)
		require.Equal(t, 2, generated)

		cards, err := col.Cards.ByNote(ctx, n.ID)
		require.NoError(t, err)
		require.Len(t, cards, 2)
		assert.Equal(t, cards[0].Due, cards[1].Due)
		assert.GreaterOrEqual(t, cards[0].Due, int64(1))
		assert.Less(t, cards[0].Due, int64(1000))
	})
}

func TestCollection_PreviewCards(t *testing.T) {
	ctx := context.Background()
	col := testutil.OpenTestCollection(t)
	m := twoCardModel(t, col)

	n := col.NewNote(m)
	n.Fields[0] = "hola"

	t.Run("non-empty mode previews applicable cards without writing", func(t *testing.T) {
		cards, err := col.PreviewCards(ctx, n, collection.PreviewNonEmpty)
		require.NoError(t, err)
		require.Len(t, cards, 1)
		assert.Equal(t, 0, cards[0].Ordinal)
		assert.Equal(t, card.TypeNew, cards[0].Type)

		count, err := col.Cards.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("all mode previews every template", func(t *testing.T) {
		cards, err := col.PreviewCards(ctx, n, collection.PreviewAll)
		require.NoError(t, err)
		assert.Len(t, cards, 2)
	})

	t.Run("existing mode returns the persisted cards", func(t *testing.T) {
		generated, err := col.AddNote(ctx, n)
		require.NoError(t, err)
		require.Equal(t, 1, generated)

		cards, err := col.PreviewCards(ctx, n, collection.PreviewExisting)
		require.NoError(t, err)
		assert.Len(t, cards, 1)
	})
}
