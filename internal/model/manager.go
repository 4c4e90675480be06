package model

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/at-ishikawa/kartei/internal/database"
)

// Manager owns the collection's note types. State is loaded from and
// flushed to a JSON blob on the collection metadata row.
type Manager struct {
	models  map[int64]*Model
	changed bool
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{models: map[int64]*Model{}}
}

// Load replaces the manager state with the models decoded from blob.
func (mm *Manager) Load(blob []byte) error {
	var models []*Model
	if err := json.Unmarshal(blob, &models); err != nil {
		return fmt.Errorf("decode models blob: %w", err)
	}
	mm.models = make(map[int64]*Model, len(models))
	for _, m := range models {
		mm.models[m.ID] = m
	}
	mm.changed = false
	return nil
}

// Flush writes the manager state back to the collection row if anything
// changed since Load.
func (mm *Manager) Flush(ctx context.Context, db *database.DB) error {
	if !mm.changed {
		return nil
	}
	blob, err := json.Marshal(mm.All())
	if err != nil {
		return fmt.Errorf("encode models blob: %w", err)
	}
	if _, err := db.Exec(ctx, "UPDATE col SET models = ?", string(blob)); err != nil {
		return fmt.Errorf("flush models: %w", err)
	}
	mm.changed = false
	return nil
}

// Changed reports whether the manager has unsaved changes.
func (mm *Manager) Changed() bool {
	return mm.changed
}

// ByID returns the model with the given id.
func (mm *Manager) ByID(id int64) (*Model, bool) {
	m, ok := mm.models[id]
	return m, ok
}

// All returns all models sorted by id.
func (mm *Manager) All() []*Model {
	models := make([]*Model, 0, len(mm.models))
	for _, m := range mm.models {
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models
}

// Add registers a new model, allocating an id if it has none.
func (mm *Manager) Add(m *Model, usn int) {
	if m.ID == 0 {
		id := database.IntTimeMS()
		for {
			if _, taken := mm.models[id]; !taken {
				break
			}
			id++
		}
		m.ID = id
	}
	mm.models[m.ID] = m
	mm.stamp(m, usn)
}

// Save stamps a model as modified and marks the manager dirty.
func (mm *Manager) Save(m *Model, usn int) {
	mm.stamp(m, usn)
}

// Remove deletes a model. Notes referencing it become orphans for the
// integrity checker to reap.
func (mm *Manager) Remove(id int64) {
	delete(mm.models, id)
	mm.changed = true
}

func (mm *Manager) stamp(m *Model, usn int) {
	m.ModifiedAt = database.IntTime()
	m.USN = usn
	mm.changed = true
}
