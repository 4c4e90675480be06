package collection

import (
	"context"
	"log/slog"
	"math/rand"

	"github.com/at-ishikawa/kartei/internal/card"
	"github.com/at-ishikawa/kartei/internal/database"
	"github.com/at-ishikawa/kartei/internal/deck"
	"github.com/at-ishikawa/kartei/internal/model"
	"github.com/at-ishikawa/kartei/internal/note"
	"github.com/at-ishikawa/kartei/internal/template"
)

// PreviewMode selects which cards PreviewCards synthesizes.
type PreviewMode int

const (
	// PreviewNonEmpty previews the cards whose templates currently apply.
	PreviewNonEmpty PreviewMode = 0
	// PreviewExisting previews the cards already persisted for the note.
	PreviewExisting PreviewMode = 1
	// PreviewAll previews one card per template unconditionally.
	PreviewAll PreviewMode = 2
)

// mixedSiblings marks a note whose existing cards sit in different decks.
const mixedSiblings int64 = -1

// FindTemplates returns the templates that currently apply to the note:
// those whose question side would render non-empty content. For cloze
// models one template per detected cloze group is synthesized.
func (c *Collection) FindTemplates(n *note.Note) ([]model.Template, error) {
	m, ok := c.Models.ByID(n.ModelID)
	if !ok {
		return nil, nil
	}
	var templates []model.Template
	for _, ordinal := range c.availableOrdinals(m, n.Fields) {
		if t, ok := m.Template(ordinal); ok {
			templates = append(templates, t)
		}
	}
	return templates, nil
}

// availableOrdinals computes the template ordinals that should have cards
// given the current field contents. A standard template is available when
// its question side renders to non-empty content once markup and audio
// references are stripped, so a conditional section hiding every field
// reference makes the template unavailable. A cloze model yields one
// ordinal per distinct cloze group in the referenced fields.
func (c *Collection) availableOrdinals(m *model.Model, fields []string) []int {
	if m.Kind == model.KindCloze {
		return availableClozeOrdinals(m, fields)
	}

	values := map[string]string{}
	for name, index := range m.FieldMap() {
		if index < len(fields) {
			values[name] = fields[index]
		}
	}
	var ordinals []int
	for _, t := range m.Templates {
		question, err := c.Renderer.Render(t.QuestionFormat, values)
		if err != nil {
			slog.Debug("skipping template with broken question format",
				"model_id", m.ID, "ordinal", t.Ordinal, "error", err)
			continue
		}
		if template.StripHTML(template.StripSounds(question)) != "" {
			ordinals = append(ordinals, t.Ordinal)
		}
	}
	return ordinals
}

func availableClozeOrdinals(m *model.Model, fields []string) []int {
	if len(m.Templates) == 0 {
		return nil
	}
	fieldMap := m.FieldMap()
	seen := map[int]struct{}{}
	var ordinals []int
	for _, name := range model.ClozeFieldNames(m.Templates[0].QuestionFormat) {
		index, ok := fieldMap[name]
		if !ok || index >= len(fields) {
			continue
		}
		for _, ordinal := range model.ClozeOrdinals(fields[index]) {
			if _, dup := seen[ordinal]; dup {
				continue
			}
			seen[ordinal] = struct{}{}
			ordinals = append(ordinals, ordinal)
		}
	}
	return ordinals
}

// GenCards reconciles the cards of the given notes against their current
// field contents: missing cards are created, and ids of cards whose
// template no longer applies are returned for the caller to remove.
// Calling it again without field changes creates and returns nothing.
func (c *Collection) GenCards(ctx context.Context, noteIDs []int64) ([]int64, error) {
	notes, err := c.Notes.ByIDs(ctx, noteIDs)
	if err != nil {
		return nil, err
	}
	existing, err := c.Cards.ByNotes(ctx, noteIDs)
	if err != nil {
		return nil, err
	}

	have := map[int64]map[int]card.Card{}
	siblingDeck := map[int64]int64{}
	for _, existingCard := range existing {
		byOrdinal, ok := have[existingCard.NoteID]
		if !ok {
			byOrdinal = map[int]card.Card{}
			have[existingCard.NoteID] = byOrdinal
		}
		byOrdinal[existingCard.Ordinal] = existingCard

		switch siblingDeck[existingCard.NoteID] {
		case 0:
			siblingDeck[existingCard.NoteID] = existingCard.DeckID
		case existingCard.DeckID, mixedSiblings:
		default:
			siblingDeck[existingCard.NoteID] = mixedSiblings
		}
	}

	// Seed batch ids above the current maximum so inserts in this call
	// never collide with concurrently created cards.
	nextID, err := c.db.MaxID(ctx, "cards")
	if err != nil {
		return nil, err
	}

	var removable []int64
	for _, n := range notes {
		m, ok := c.Models.ByID(n.ModelID)
		if !ok {
			slog.Debug("skipping card generation for note with missing model",
				"note_id", n.ID, "model_id", n.ModelID)
			continue
		}

		available := c.availableOrdinals(m, n.Fields)
		availableSet := map[int]struct{}{}
		for _, ordinal := range available {
			availableSet[ordinal] = struct{}{}
		}

		var position int64
		for _, ordinal := range available {
			if _, exists := have[n.ID][ordinal]; exists {
				continue
			}
			t, ok := m.Template(ordinal)
			if !ok {
				continue
			}
			if position == 0 {
				position = c.nextPosition()
			}
			deckID := c.cardDeckID(m, t, siblingDeck[n.ID])
			if _, err := c.createCard(ctx, nextID, n.ID, deckID, ordinal, position); err != nil {
				return nil, err
			}
			nextID++
		}

		for ordinal, existingCard := range have[n.ID] {
			if _, stillAvailable := availableSet[ordinal]; !stillAvailable {
				removable = append(removable, existingCard.ID)
			}
		}
	}
	return removable, nil
}

// PreviewCards synthesizes the cards the note would have under the given
// mode, without writing anything.
func (c *Collection) PreviewCards(ctx context.Context, n *note.Note, mode PreviewMode) ([]card.Card, error) {
	switch mode {
	case PreviewExisting:
		return c.Cards.ByNote(ctx, n.ID)
	case PreviewAll:
		m, ok := c.Models.ByID(n.ModelID)
		if !ok {
			return nil, nil
		}
		var cards []card.Card
		for _, t := range m.Templates {
			cards = append(cards, c.previewCard(n, m, t))
		}
		return cards, nil
	default:
		templates, err := c.FindTemplates(n)
		if err != nil {
			return nil, err
		}
		m, ok := c.Models.ByID(n.ModelID)
		if !ok {
			return nil, nil
		}
		var cards []card.Card
		for _, t := range templates {
			cards = append(cards, c.previewCard(n, m, t))
		}
		return cards, nil
	}
}

func (c *Collection) previewCard(n *note.Note, m *model.Model, t model.Template) card.Card {
	return card.Card{
		NoteID:  n.ID,
		DeckID:  c.cardDeckID(m, t, 0),
		Ordinal: t.Ordinal,
		Type:    card.TypeNew,
		Queue:   card.QueueNew,
	}
}

// cardDeckID resolves the deck for a freshly generated card. Sibling
// cards that all share one deck keep it; mixed siblings fall back to the
// model default. Filtered decks never own new cards.
func (c *Collection) cardDeckID(m *model.Model, t model.Template, siblingDeckID int64) int64 {
	var deckID int64
	switch {
	case siblingDeckID > 0:
		deckID = siblingDeckID
	case siblingDeckID == mixedSiblings:
		deckID = m.DefaultDeckID
	case t.DeckOverrideID != 0:
		deckID = t.DeckOverrideID
	default:
		deckID = m.DefaultDeckID
	}
	if deckID == 0 {
		deckID = deck.DefaultDeckID
	}
	if _, ok := c.Decks.ByID(deckID); !ok {
		deckID = deck.DefaultDeckID
	}
	if c.Decks.IsFiltered(deckID) {
		deckID = deck.DefaultDeckID
	}
	return deckID
}

// dueForDeck assigns the due value for a new card at the given position.
// Sequential decks use the raw position; random decks derive a value from
// the position as a deterministic seed, so siblings generated together
// land in the same slot.
func (c *Collection) dueForDeck(deckID int64, position int64) int64 {
	cfg := c.Decks.ConfigFor(deckID)
	if cfg.NewCardOrder != deck.OrderRandom {
		return position
	}
	ceiling := position
	if ceiling < 1000 {
		ceiling = 1000
	}
	r := rand.New(rand.NewSource(position))
	return 1 + r.Int63n(ceiling-1)
}

// createCard persists one new card. An id of zero lets the repository
// allocate from the creation timestamp.
func (c *Collection) createCard(ctx context.Context, id, noteID, deckID int64, ordinal int, position int64) (*card.Card, error) {
	newCard := &card.Card{
		ID:         id,
		NoteID:     noteID,
		DeckID:     deckID,
		Ordinal:    ordinal,
		ModifiedAt: database.IntTime(),
		USN:        c.USN(),
		Type:       card.TypeNew,
		Queue:      card.QueueNew,
		Due:        c.dueForDeck(deckID, position),
	}
	if err := c.Cards.Create(ctx, newCard); err != nil {
		return nil, err
	}
	return newCard, nil
}

// nextPosition hands out the monotonically increasing new-card position
// counter.
func (c *Collection) nextPosition() int64 {
	position := c.conf.NextPosition
	c.conf.NextPosition++
	c.db.SetModified(true)
	return position
}
