package collection

import (
	"context"
	"fmt"
	"strings"

	"github.com/at-ishikawa/kartei/internal/model"
)

// maxNewDue is the hard ceiling for a new card's queue position.
const maxNewDue int64 = 1_000_000

// reviewDueSlack is how far past today a review card's day offset may
// plausibly sit.
const reviewDueSlack int64 = 10_000

// BasicCheck is a read-only fast validation: every card has a note,
// every note has a card and a known model, and standard-model ordinals
// index an existing template. Cloze models are exempt from ordinal
// validation.
func (c *Collection) BasicCheck(ctx context.Context) (bool, error) {
	cardIDs, err := c.Cards.IDsWithoutNotes(ctx)
	if err != nil {
		return false, err
	}
	if len(cardIDs) > 0 {
		return false, nil
	}

	noteIDs, err := c.Notes.IDsWithoutCards(ctx)
	if err != nil {
		return false, err
	}
	if len(noteIDs) > 0 {
		return false, nil
	}

	orphanNotes, err := c.Notes.IDsExcludingModels(ctx, c.modelIDs())
	if err != nil {
		return false, err
	}
	if len(orphanNotes) > 0 {
		return false, nil
	}

	for _, m := range c.Models.All() {
		if m.Kind == model.KindCloze {
			continue
		}
		invalid, err := c.Cards.IDsWithInvalidOrdinal(ctx, m.ID, templateOrdinals(m))
		if err != nil {
			return false, err
		}
		if len(invalid) > 0 {
			return false, nil
		}
	}
	return true, nil
}

// FixIntegrity runs the multi-pass repair: dangling references are
// deleted, caches and counters are rebuilt, and storage is reclaimed.
// It returns a human-readable report and whether the collection is
// usable; problems are repaired rather than raised.
func (c *Collection) FixIntegrity(ctx context.Context) (string, bool) {
	var report []string
	problems := 0

	if err := c.Save(ctx, ""); err != nil {
		return fmt.Sprintf("unable to save collection: %v", err), false
	}
	var quickCheck string
	if err := c.db.Get(ctx, &quickCheck, "PRAGMA quick_check"); err == nil && quickCheck != "ok" {
		return "collection file is corrupt", false
	}

	// Pass 1: notes referencing a missing model.
	ids, err := c.Notes.IDsExcludingModels(ctx, c.modelIDs())
	if err != nil {
		return fatalReport(report, err)
	}
	if len(ids) > 0 {
		problems += len(ids)
		report = append(report, fmt.Sprintf("Deleted %d notes with missing note type.", len(ids)))
		if err := c.removeNotesUnconditional(ctx, ids); err != nil {
			return fatalReport(report, err)
		}
	}

	// Pass 2: standard-model cards with invalid template ordinals.
	for _, m := range c.Models.All() {
		if m.Kind == model.KindCloze {
			continue
		}
		invalid, err := c.Cards.IDsWithInvalidOrdinal(ctx, m.ID, templateOrdinals(m))
		if err != nil {
			return fatalReport(report, err)
		}
		if len(invalid) > 0 {
			problems += len(invalid)
			report = append(report, fmt.Sprintf("Deleted %d cards with missing template.", len(invalid)))
			if err := c.RemoveCards(ctx, invalid, true); err != nil {
				return fatalReport(report, err)
			}
		}
	}

	// Pass 3: notes whose field count mismatches their model.
	for _, m := range c.Models.All() {
		notes, err := c.Notes.ByModel(ctx, m.ID)
		if err != nil {
			return fatalReport(report, err)
		}
		var mismatched []int64
		for _, n := range notes {
			if len(n.Fields) != len(m.Fields) {
				mismatched = append(mismatched, n.ID)
			}
		}
		if len(mismatched) > 0 {
			problems += len(mismatched)
			report = append(report, fmt.Sprintf("Deleted %d notes with wrong field count.", len(mismatched)))
			if err := c.removeNotesUnconditional(ctx, mismatched); err != nil {
				return fatalReport(report, err)
			}
		}
	}

	// Pass 4: notes with zero cards.
	ids, err = c.Notes.IDsWithoutCards(ctx)
	if err != nil {
		return fatalReport(report, err)
	}
	if len(ids) > 0 {
		problems += len(ids)
		report = append(report, fmt.Sprintf("Deleted %d notes with no cards.", len(ids)))
		if err := c.removeNotesUnconditional(ctx, ids); err != nil {
			return fatalReport(report, err)
		}
	}

	// Pass 5: cards with missing notes.
	ids, err = c.Cards.IDsWithoutNotes(ctx)
	if err != nil {
		return fatalReport(report, err)
	}
	if len(ids) > 0 {
		problems += len(ids)
		report = append(report, fmt.Sprintf("Deleted %d cards with missing note.", len(ids)))
		if err := c.RemoveCards(ctx, ids, false); err != nil {
			return fatalReport(report, err)
		}
	}

	// Pass 6: rebuild the tag registry.
	if err := c.Tags.RegisterNotes(ctx, c.db, c.USN()); err != nil {
		return fatalReport(report, err)
	}

	// Pass 7: rebuild the field cache for every model's notes.
	for _, m := range c.Models.All() {
		notes, err := c.Notes.ByModel(ctx, m.ID)
		if err != nil {
			return fatalReport(report, err)
		}
		noteIDs := make([]int64, 0, len(notes))
		for _, n := range notes {
			noteIDs = append(noteIDs, n.ID)
		}
		if err := c.UpdateFieldCache(ctx, noteIDs); err != nil {
			return fatalReport(report, err)
		}
	}

	// Pass 8: clamp runaway new-card positions.
	clamped, err := c.Cards.ClampNewDue(ctx, maxNewDue)
	if err != nil {
		return fatalReport(report, err)
	}
	if clamped > 0 {
		problems += int(clamped)
		report = append(report, fmt.Sprintf("Fixed %d new cards with excessive position.", clamped))
	}

	// Pass 9: recompute the position counter from the live maximum.
	maxDue, err := c.Cards.MaxNewDue(ctx)
	if err != nil {
		return fatalReport(report, err)
	}
	c.conf.NextPosition = maxDue + 1
	c.db.SetModified(true)

	// Pass 10: clamp review cards with implausible day offsets.
	clamped, err = c.Cards.ClampReviewDue(ctx, c.today()+reviewDueSlack)
	if err != nil {
		return fatalReport(report, err)
	}
	if clamped > 0 {
		problems += int(clamped)
		report = append(report, fmt.Sprintf("Fixed %d review cards with invalid due date.", clamped))
	}

	// Repairs change row counts under clients' feet; force a full sync.
	if problems > 0 {
		if err := c.ModSchema(ctx, false); err != nil {
			return fatalReport(report, err)
		}
	}
	if err := c.Save(ctx, ""); err != nil {
		return fatalReport(report, err)
	}

	// Pass 11: reclaim storage, then take the write lock back.
	if err := c.db.Commit(); err != nil {
		return fatalReport(report, err)
	}
	if _, err := c.db.ExecDirect(ctx, "VACUUM"); err != nil {
		return fatalReport(report, err)
	}
	if _, err := c.db.ExecDirect(ctx, "ANALYZE"); err != nil {
		return fatalReport(report, err)
	}
	if err := c.Lock(ctx); err != nil {
		return fatalReport(report, err)
	}

	if problems == 0 {
		report = append(report, "No problems found.")
	}
	return strings.Join(report, "\n"), true
}

func (c *Collection) modelIDs() []int64 {
	models := c.Models.All()
	ids := make([]int64, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	return ids
}

func templateOrdinals(m *model.Model) []int {
	ordinals := make([]int, 0, len(m.Templates))
	for _, t := range m.Templates {
		ordinals = append(ordinals, t.Ordinal)
	}
	return ordinals
}

func fatalReport(report []string, err error) (string, bool) {
	report = append(report, fmt.Sprintf("Integrity check aborted: %v", err))
	return strings.Join(report, "\n"), false
}
