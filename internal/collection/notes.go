package collection

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/at-ishikawa/kartei/internal/database"
	"github.com/at-ishikawa/kartei/internal/model"
	"github.com/at-ishikawa/kartei/internal/note"
	"github.com/at-ishikawa/kartei/internal/template"
)

// NewNote returns an unsaved note typed by the given model, with one
// empty field per field definition.
func (c *Collection) NewNote(m *model.Model) *note.Note {
	return &note.Note{
		ModelID: m.ID,
		Fields:  make([]string, len(m.Fields)),
	}
}

// AddNote persists the note and generates one card per applicable
// template, returning the card count. A note none of whose templates
// would render is not written at all.
func (c *Collection) AddNote(ctx context.Context, n *note.Note) (int, error) {
	m, ok := c.Models.ByID(n.ModelID)
	if !ok {
		return 0, fmt.Errorf("note references unknown model %d", n.ModelID)
	}
	if len(n.Fields) != len(m.Fields) {
		return 0, fmt.Errorf("note has %d fields, model %q expects %d", len(n.Fields), m.Name, len(m.Fields))
	}

	templates, err := c.FindTemplates(n)
	if err != nil {
		return 0, err
	}
	if len(templates) == 0 {
		return 0, nil
	}

	c.stampNote(n)
	if err := c.Notes.Create(ctx, n); err != nil {
		return 0, err
	}
	c.Tags.Register(n.TagList(), c.USN())

	position := c.nextPosition()
	for _, t := range templates {
		deckID := c.cardDeckID(m, t, 0)
		if _, err := c.createCard(ctx, 0, n.ID, deckID, t.Ordinal, position); err != nil {
			return 0, err
		}
	}
	return len(templates), nil
}

// UpdateNote writes an edited note back, refreshes its caches, and
// reconciles its cards against the new field contents. Cards whose
// template is no longer applicable are removed.
func (c *Collection) UpdateNote(ctx context.Context, n *note.Note) error {
	c.stampNote(n)
	if err := c.Notes.Update(ctx, n); err != nil {
		return err
	}
	c.Tags.Register(n.TagList(), c.USN())

	removable, err := c.GenCards(ctx, []int64{n.ID})
	if err != nil {
		return err
	}
	if len(removable) > 0 {
		return c.RemoveCards(ctx, removable, true)
	}
	return nil
}

// stampNote refreshes the note's modification stamp, usn, and derived
// caches before a write.
func (c *Collection) stampNote(n *note.Note) {
	n.ModifiedAt = database.IntTime()
	n.USN = c.USN()
	if m, ok := c.Models.ByID(n.ModelID); ok {
		n.SortField = sortFieldValue(m, n.Fields)
		n.Checksum = fieldChecksum(firstField(n.Fields))
	}
}

// UpdateFieldCache recomputes the sortable field and duplicate checksum
// for the given notes. Notes whose model is gone are skipped; the caller
// is responsible for usn and modification stamps.
func (c *Collection) UpdateFieldCache(ctx context.Context, noteIDs []int64) error {
	notes, err := c.Notes.ByIDs(ctx, noteIDs)
	if err != nil {
		return err
	}
	for _, n := range notes {
		m, ok := c.Models.ByID(n.ModelID)
		if !ok {
			slog.Debug("skipping field cache for note with missing model",
				"note_id", n.ID, "model_id", n.ModelID)
			continue
		}
		sortField := sortFieldValue(m, n.Fields)
		checksum := fieldChecksum(firstField(n.Fields))
		if err := c.Notes.UpdateFieldCache(ctx, n.ID, sortField, checksum); err != nil {
			return err
		}
	}
	return nil
}

func sortFieldValue(m *model.Model, fields []string) string {
	index := m.SortFieldIndex
	if index < 0 || index >= len(fields) {
		index = 0
	}
	if len(fields) == 0 {
		return ""
	}
	return template.StripHTML(fields[index])
}

func firstField(fields []string) string {
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// fieldChecksum hashes a field for duplicate detection: the first 8 hex
// digits of the SHA-1 of the markup-stripped text, as an integer.
func fieldChecksum(field string) int64 {
	digest := sha1.Sum([]byte(template.StripHTML(field)))
	checksum, err := strconv.ParseInt(hex.EncodeToString(digest[:])[:8], 16, 64)
	if err != nil {
		return 0
	}
	return checksum
}
