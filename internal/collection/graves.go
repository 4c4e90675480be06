package collection

import (
	"context"
	"fmt"
)

// Grave object types, stable on disk.
const (
	GraveCard = 0
	GraveNote = 1
)

// LogRemoved records one tombstone per removed object, stamped with the
// current update sequence number, for later sync propagation.
func (c *Collection) LogRemoved(ctx context.Context, ids []int64, objectType int) error {
	for _, id := range ids {
		if _, err := c.db.Exec(ctx,
			"INSERT INTO graves (usn, object_id, object_type) VALUES (?, ?, ?)",
			c.USN(), id, objectType); err != nil {
			return fmt.Errorf("log grave for object %d: %w", id, err)
		}
	}
	return nil
}

// RemoveNotes removes the given notes and all their cards, logging
// tombstones for both.
func (c *Collection) RemoveNotes(ctx context.Context, noteIDs []int64) error {
	if len(noteIDs) == 0 {
		return nil
	}
	cardIDs, err := c.Cards.IDsByNotes(ctx, noteIDs)
	if err != nil {
		return err
	}
	if len(cardIDs) > 0 {
		if err := c.RemoveCards(ctx, cardIDs, true); err != nil {
			return err
		}
	}

	// Notes that had no cards are not reached through card removal.
	var remaining []int64
	for _, noteID := range noteIDs {
		n, err := c.Notes.Get(ctx, noteID)
		if err != nil {
			return err
		}
		if n != nil {
			remaining = append(remaining, noteID)
		}
	}
	return c.removeNotesUnconditional(ctx, remaining)
}

// removeNotesUnconditional emits tombstones and deletes note rows without
// touching their cards. Card removal uses it to reap orphaned notes.
func (c *Collection) removeNotesUnconditional(ctx context.Context, noteIDs []int64) error {
	if len(noteIDs) == 0 {
		return nil
	}
	if err := c.LogRemoved(ctx, noteIDs, GraveNote); err != nil {
		return err
	}
	if err := c.Notes.DeleteByIDs(ctx, noteIDs); err != nil {
		return err
	}
	c.Hooks.RunHook(HookNotesRemoved, noteIDs)
	return nil
}

// RemoveCards emits tombstones and deletes the given cards. With
// alsoRemoveOrphanNotes set, notes left with zero cards are removed too.
func (c *Collection) RemoveCards(ctx context.Context, cardIDs []int64, alsoRemoveOrphanNotes bool) error {
	if len(cardIDs) == 0 {
		return nil
	}
	noteIDs, err := c.Cards.NoteIDsByCards(ctx, cardIDs)
	if err != nil {
		return err
	}
	if err := c.LogRemoved(ctx, cardIDs, GraveCard); err != nil {
		return err
	}
	if err := c.Cards.DeleteByIDs(ctx, cardIDs); err != nil {
		return err
	}
	if !alsoRemoveOrphanNotes {
		return nil
	}

	surviving, err := c.Cards.ByNotes(ctx, noteIDs)
	if err != nil {
		return err
	}
	hasCards := map[int64]struct{}{}
	for _, survivor := range surviving {
		hasCards[survivor.NoteID] = struct{}{}
	}
	var orphans []int64
	for _, noteID := range noteIDs {
		if _, ok := hasCards[noteID]; !ok {
			orphans = append(orphans, noteID)
		}
	}
	return c.removeNotesUnconditional(ctx, orphans)
}

// GraveCount returns the number of pending tombstones, by object type.
func (c *Collection) GraveCount(ctx context.Context, objectType int) (int, error) {
	var count int
	if err := c.db.Get(ctx, &count,
		"SELECT COUNT(*) FROM graves WHERE object_type = ?", objectType); err != nil {
		return 0, fmt.Errorf("count graves: %w", err)
	}
	return count, nil
}
