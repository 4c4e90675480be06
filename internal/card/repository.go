package card

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/at-ishikawa/kartei/internal/database"
)

// Repository provides access to card rows.
type Repository struct {
	db *database.DB
}

// NewRepository creates a Repository over the given datastore.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the card with the given id, or nil if it does not exist.
func (r *Repository) Get(ctx context.Context, id int64) (*Card, error) {
	var c Card
	err := r.db.Get(ctx, &c, "SELECT * FROM cards WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get card %d: %w", id, err)
	}
	return &c, nil
}

// ByNote returns all cards of a note ordered by template ordinal.
func (r *Repository) ByNote(ctx context.Context, noteID int64) ([]Card, error) {
	var cards []Card
	if err := r.db.Select(ctx, &cards,
		"SELECT * FROM cards WHERE note_id = ? ORDER BY ordinal", noteID); err != nil {
		return nil, fmt.Errorf("select cards by note: %w", err)
	}
	return cards, nil
}

// ByNotes returns all cards belonging to the given notes.
func (r *Repository) ByNotes(ctx context.Context, noteIDs []int64) ([]Card, error) {
	if len(noteIDs) == 0 {
		return nil, nil
	}
	var cards []Card
	if err := r.db.In(ctx, &cards,
		"SELECT * FROM cards WHERE note_id IN (?) ORDER BY note_id, ordinal", noteIDs); err != nil {
		return nil, fmt.Errorf("select cards by notes: %w", err)
	}
	return cards, nil
}

// IDsByNotes returns the ids of all cards belonging to the given notes.
func (r *Repository) IDsByNotes(ctx context.Context, noteIDs []int64) ([]int64, error) {
	if len(noteIDs) == 0 {
		return nil, nil
	}
	var ids []int64
	if err := r.db.In(ctx, &ids, "SELECT id FROM cards WHERE note_id IN (?)", noteIDs); err != nil {
		return nil, fmt.Errorf("select card ids by notes: %w", err)
	}
	return ids, nil
}

// NoteIDsByCards returns the distinct note ids referenced by the given
// cards.
func (r *Repository) NoteIDsByCards(ctx context.Context, cardIDs []int64) ([]int64, error) {
	if len(cardIDs) == 0 {
		return nil, nil
	}
	var ids []int64
	if err := r.db.In(ctx, &ids,
		"SELECT DISTINCT note_id FROM cards WHERE id IN (?)", cardIDs); err != nil {
		return nil, fmt.Errorf("select note ids by cards: %w", err)
	}
	return ids, nil
}

// IDsWithoutNotes returns ids of cards whose note row is gone.
func (r *Repository) IDsWithoutNotes(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.Select(ctx, &ids,
		"SELECT id FROM cards WHERE note_id NOT IN (SELECT id FROM notes)"); err != nil {
		return nil, fmt.Errorf("select cards without notes: %w", err)
	}
	return ids, nil
}

// IDsWithInvalidOrdinal returns ids of the model's cards whose ordinal is
// outside the given template ordinal set.
func (r *Repository) IDsWithInvalidOrdinal(ctx context.Context, modelID int64, ordinals []int) ([]int64, error) {
	if len(ordinals) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(ordinals)+1)
	in := "("
	for i, o := range ordinals {
		if i > 0 {
			in += ", "
		}
		in += "?"
		args = append(args, o)
	}
	in += ")"
	args = append(args, modelID)
	var ids []int64
	if err := r.db.Select(ctx, &ids,
		`SELECT c.id FROM cards c JOIN notes n ON n.id = c.note_id
		WHERE c.ordinal NOT IN `+in+` AND n.model_id = ?`, args...); err != nil {
		return nil, fmt.Errorf("select cards with invalid ordinal: %w", err)
	}
	return ids, nil
}

// Create inserts a card. A zero id is allocated from the creation
// timestamp.
func (r *Repository) Create(ctx context.Context, c *Card) error {
	if c.ID == 0 {
		id, err := r.db.TimestampID(ctx, "cards")
		if err != nil {
			return fmt.Errorf("allocate card id: %w", err)
		}
		c.ID = id
	}
	if _, err := r.db.Exec(ctx,
		`INSERT INTO cards (id, note_id, deck_id, ordinal, modified_at, usn, type, queue, due)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.NoteID, c.DeckID, c.Ordinal, c.ModifiedAt, c.USN, c.Type, c.Queue, c.Due); err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

// Update writes a card row back in full. The review-undo path relies on
// this restoring a snapshot verbatim.
func (r *Repository) Update(ctx context.Context, c *Card) error {
	if _, err := r.db.Exec(ctx,
		`UPDATE cards SET note_id = ?, deck_id = ?, ordinal = ?, modified_at = ?, usn = ?, type = ?, queue = ?, due = ?
		WHERE id = ?`,
		c.NoteID, c.DeckID, c.Ordinal, c.ModifiedAt, c.USN, c.Type, c.Queue, c.Due, c.ID); err != nil {
		return fmt.Errorf("update card %d: %w", c.ID, err)
	}
	return nil
}

// DeleteByIDs removes card rows.
func (r *Repository) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.db.ExecIn(ctx, "DELETE FROM cards WHERE id IN (?)", ids); err != nil {
		return fmt.Errorf("delete cards: %w", err)
	}
	return nil
}

// MaxNewDue returns the largest due value among new cards.
func (r *Repository) MaxNewDue(ctx context.Context) (int64, error) {
	var due sql.NullInt64
	if err := r.db.Get(ctx, &due,
		"SELECT MAX(due) FROM cards WHERE type = ?", TypeNew); err != nil {
		return 0, fmt.Errorf("max new due: %w", err)
	}
	return due.Int64, nil
}

// ClampNewDue resets new cards whose due exceeds ceiling back to ceiling,
// returning how many rows were affected.
func (r *Repository) ClampNewDue(ctx context.Context, ceiling int64) (int64, error) {
	result, err := r.db.Exec(ctx,
		"UPDATE cards SET due = ?, modified_at = ? WHERE type = ? AND due > ?",
		ceiling, database.IntTime(), TypeNew, ceiling)
	if err != nil {
		return 0, fmt.Errorf("clamp new due: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clamp new due rows affected: %w", err)
	}
	return affected, nil
}

// ClampReviewDue resets review cards with an implausible due value,
// returning how many rows were affected.
func (r *Repository) ClampReviewDue(ctx context.Context, ceiling int64) (int64, error) {
	result, err := r.db.Exec(ctx,
		"UPDATE cards SET due = ?, modified_at = ? WHERE type = ? AND due > ?",
		ceiling, database.IntTime(), TypeReview, ceiling)
	if err != nil {
		return 0, fmt.Errorf("clamp review due: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clamp review due rows affected: %w", err)
	}
	return affected, nil
}

// Count returns the number of card rows.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Get(ctx, &count, "SELECT COUNT(*) FROM cards"); err != nil {
		return 0, fmt.Errorf("count cards: %w", err)
	}
	return count, nil
}
