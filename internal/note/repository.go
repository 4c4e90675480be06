package note

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/at-ishikawa/kartei/internal/database"
)

// row is the on-disk shape of a note.
type row struct {
	ID         int64  `db:"id"`
	ModelID    int64  `db:"model_id"`
	ModifiedAt int64  `db:"modified_at"`
	USN        int    `db:"usn"`
	Tags       string `db:"tags"`
	Fields     string `db:"fields"`
	SortField  string `db:"sort_field"`
	Checksum   int64  `db:"checksum"`
}

func (r row) note() Note {
	return Note{
		ID:         r.ID,
		ModelID:    r.ModelID,
		ModifiedAt: r.ModifiedAt,
		USN:        r.USN,
		Tags:       r.Tags,
		Fields:     SplitFields(r.Fields),
		SortField:  r.SortField,
		Checksum:   r.Checksum,
	}
}

// Repository provides access to note rows.
type Repository struct {
	db *database.DB
}

// NewRepository creates a Repository over the given datastore.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the note with the given id, or nil if it does not exist.
func (r *Repository) Get(ctx context.Context, id int64) (*Note, error) {
	var nr row
	err := r.db.Get(ctx, &nr, "SELECT * FROM notes WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get note %d: %w", id, err)
	}
	n := nr.note()
	return &n, nil
}

// ByIDs returns the notes with the given ids, skipping missing ones.
func (r *Repository) ByIDs(ctx context.Context, ids []int64) ([]Note, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []row
	if err := r.db.In(ctx, &rows, "SELECT * FROM notes WHERE id IN (?) ORDER BY id", ids); err != nil {
		return nil, fmt.Errorf("select notes by ids: %w", err)
	}
	notes := make([]Note, 0, len(rows))
	for _, nr := range rows {
		notes = append(notes, nr.note())
	}
	return notes, nil
}

// ByModel returns all notes typed by the given model.
func (r *Repository) ByModel(ctx context.Context, modelID int64) ([]Note, error) {
	var rows []row
	if err := r.db.Select(ctx, &rows, "SELECT * FROM notes WHERE model_id = ? ORDER BY id", modelID); err != nil {
		return nil, fmt.Errorf("select notes by model: %w", err)
	}
	notes := make([]Note, 0, len(rows))
	for _, nr := range rows {
		notes = append(notes, nr.note())
	}
	return notes, nil
}

// AllIDs returns every note id.
func (r *Repository) AllIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.Select(ctx, &ids, "SELECT id FROM notes ORDER BY id"); err != nil {
		return nil, fmt.Errorf("select note ids: %w", err)
	}
	return ids, nil
}

// IDsExcludingModels returns ids of notes whose model is not in the given
// set. An empty set matches every note.
func (r *Repository) IDsExcludingModels(ctx context.Context, modelIDs []int64) ([]int64, error) {
	if len(modelIDs) == 0 {
		return r.AllIDs(ctx)
	}
	var ids []int64
	if err := r.db.In(ctx, &ids, "SELECT id FROM notes WHERE model_id NOT IN (?)", modelIDs); err != nil {
		return nil, fmt.Errorf("select notes with missing models: %w", err)
	}
	return ids, nil
}

// IDsWithoutCards returns ids of notes that no card references.
func (r *Repository) IDsWithoutCards(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.Select(ctx, &ids,
		"SELECT id FROM notes WHERE id NOT IN (SELECT note_id FROM cards)"); err != nil {
		return nil, fmt.Errorf("select orphan notes: %w", err)
	}
	return ids, nil
}

// Create inserts a note. A zero id is allocated from the creation
// timestamp.
func (r *Repository) Create(ctx context.Context, n *Note) error {
	if n.ID == 0 {
		id, err := r.db.TimestampID(ctx, "notes")
		if err != nil {
			return fmt.Errorf("allocate note id: %w", err)
		}
		n.ID = id
	}
	if _, err := r.db.Exec(ctx,
		`INSERT INTO notes (id, model_id, modified_at, usn, tags, fields, sort_field, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.ModelID, n.ModifiedAt, n.USN, n.Tags, JoinFields(n.Fields), n.SortField, n.Checksum); err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

// Update writes a note row back in full.
func (r *Repository) Update(ctx context.Context, n *Note) error {
	if _, err := r.db.Exec(ctx,
		`UPDATE notes SET model_id = ?, modified_at = ?, usn = ?, tags = ?, fields = ?, sort_field = ?, checksum = ?
		WHERE id = ?`,
		n.ModelID, n.ModifiedAt, n.USN, n.Tags, JoinFields(n.Fields), n.SortField, n.Checksum, n.ID); err != nil {
		return fmt.Errorf("update note %d: %w", n.ID, err)
	}
	return nil
}

// UpdateFieldCache writes the sortable field and duplicate checksum for a
// note without touching its modification stamp.
func (r *Repository) UpdateFieldCache(ctx context.Context, id int64, sortField string, checksum int64) error {
	if _, err := r.db.Exec(ctx,
		"UPDATE notes SET sort_field = ?, checksum = ? WHERE id = ?", sortField, checksum, id); err != nil {
		return fmt.Errorf("update field cache for note %d: %w", id, err)
	}
	return nil
}

// DeleteByIDs removes note rows.
func (r *Repository) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.db.ExecIn(ctx, "DELETE FROM notes WHERE id IN (?)", ids); err != nil {
		return fmt.Errorf("delete notes: %w", err)
	}
	return nil
}

// Count returns the number of note rows.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Get(ctx, &count, "SELECT COUNT(*) FROM notes"); err != nil {
		return 0, fmt.Errorf("count notes: %w", err)
	}
	return count, nil
}
