// Package tag provides the collection-wide tag registry.
package tag

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/at-ishikawa/kartei/internal/database"
)

// Manager tracks the set of tags in use, with the usn each was first seen
// at. State is loaded from and flushed to a JSON blob on the collection
// metadata row.
type Manager struct {
	tags    map[string]int
	changed bool
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{tags: map[string]int{}}
}

// Load replaces the manager state with tags decoded from blob.
func (tm *Manager) Load(blob []byte) error {
	var tags map[string]int
	if err := json.Unmarshal(blob, &tags); err != nil {
		return fmt.Errorf("decode tags blob: %w", err)
	}
	if tags == nil {
		tags = map[string]int{}
	}
	tm.tags = tags
	tm.changed = false
	return nil
}

// Flush writes the registry back to the collection row if anything
// changed since Load.
func (tm *Manager) Flush(ctx context.Context, db *database.DB) error {
	if !tm.changed {
		return nil
	}
	blob, err := json.Marshal(tm.tags)
	if err != nil {
		return fmt.Errorf("encode tags blob: %w", err)
	}
	if _, err := db.Exec(ctx, "UPDATE col SET tags = ?", string(blob)); err != nil {
		return fmt.Errorf("flush tags: %w", err)
	}
	tm.changed = false
	return nil
}

// Changed reports whether the manager has unsaved changes.
func (tm *Manager) Changed() bool {
	return tm.changed
}

// Register records tags not seen before, stamping them with usn.
func (tm *Manager) Register(tags []string, usn int) {
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := tm.tags[t]; !ok {
			tm.tags[t] = usn
			tm.changed = true
		}
	}
}

// RegisterNotes rebuilds the registry from every note row's tag string.
func (tm *Manager) RegisterNotes(ctx context.Context, db *database.DB, usn int) error {
	var rows []string
	if err := db.Select(ctx, &rows, "SELECT tags FROM notes"); err != nil {
		return fmt.Errorf("scan note tags: %w", err)
	}
	tm.tags = map[string]int{}
	tm.changed = true
	for _, row := range rows {
		tm.Register(Split(row), usn)
	}
	return nil
}

// All returns all registered tags sorted alphabetically.
func (tm *Manager) All() []string {
	tags := make([]string, 0, len(tm.tags))
	for t := range tm.tags {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Split breaks a note's space-separated tag string into tags.
func Split(tags string) []string {
	return strings.Fields(tags)
}

// Join renders tags into the space-separated form stored on note rows.
// The result keeps a leading and trailing space so tag searches can match
// " tag " without substring false positives.
func Join(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return " " + strings.Join(tags, " ") + " "
}
