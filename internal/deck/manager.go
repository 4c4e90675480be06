package deck

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/at-ishikawa/kartei/internal/database"
)

// Manager owns the collection's decks and deck option groups. State is
// loaded from and flushed to JSON blobs on the collection metadata row.
type Manager struct {
	decks          map[int64]*Deck
	configs        map[int64]*Config
	changedDecks   bool
	changedConfigs bool
}

// NewManager creates a Manager seeded with the default deck and option
// group, which a collection must always have.
func NewManager() *Manager {
	return &Manager{
		decks: map[int64]*Deck{
			DefaultDeckID: {ID: DefaultDeckID, Name: "Default", ConfigID: DefaultConfigID},
		},
		configs: map[int64]*Config{
			DefaultConfigID: {ID: DefaultConfigID, Name: "Default"},
		},
	}
}

// Load replaces the manager state with the decks and configs decoded from
// the given blobs. The default deck is restored if the blob lacks it.
func (dm *Manager) Load(decksBlob, configsBlob []byte) error {
	var decks []*Deck
	if err := json.Unmarshal(decksBlob, &decks); err != nil {
		return fmt.Errorf("decode decks blob: %w", err)
	}
	var configs []*Config
	if err := json.Unmarshal(configsBlob, &configs); err != nil {
		return fmt.Errorf("decode deck configs blob: %w", err)
	}

	dm.decks = make(map[int64]*Deck, len(decks))
	for _, d := range decks {
		dm.decks[d.ID] = d
	}
	if _, ok := dm.decks[DefaultDeckID]; !ok {
		dm.decks[DefaultDeckID] = &Deck{ID: DefaultDeckID, Name: "Default", ConfigID: DefaultConfigID}
	}
	dm.configs = make(map[int64]*Config, len(configs))
	for _, c := range configs {
		dm.configs[c.ID] = c
	}
	if _, ok := dm.configs[DefaultConfigID]; !ok {
		dm.configs[DefaultConfigID] = &Config{ID: DefaultConfigID, Name: "Default"}
	}
	dm.changedDecks = false
	dm.changedConfigs = false
	return nil
}

// Flush writes changed blobs back to the collection row.
func (dm *Manager) Flush(ctx context.Context, db *database.DB) error {
	if dm.changedDecks {
		blob, err := json.Marshal(dm.All())
		if err != nil {
			return fmt.Errorf("encode decks blob: %w", err)
		}
		if _, err := db.Exec(ctx, "UPDATE col SET decks = ?", string(blob)); err != nil {
			return fmt.Errorf("flush decks: %w", err)
		}
		dm.changedDecks = false
	}
	if dm.changedConfigs {
		blob, err := json.Marshal(dm.AllConfigs())
		if err != nil {
			return fmt.Errorf("encode deck configs blob: %w", err)
		}
		if _, err := db.Exec(ctx, "UPDATE col SET deck_configs = ?", string(blob)); err != nil {
			return fmt.Errorf("flush deck configs: %w", err)
		}
		dm.changedConfigs = false
	}
	return nil
}

// Changed reports whether the manager has unsaved changes.
func (dm *Manager) Changed() bool {
	return dm.changedDecks || dm.changedConfigs
}

// ByID returns the deck with the given id.
func (dm *Manager) ByID(id int64) (*Deck, bool) {
	d, ok := dm.decks[id]
	return d, ok
}

// Default returns the global default deck.
func (dm *Manager) Default() *Deck {
	return dm.decks[DefaultDeckID]
}

// Name returns the deck's name, or a placeholder if the deck is gone.
func (dm *Manager) Name(id int64) string {
	if d, ok := dm.decks[id]; ok {
		return d.Name
	}
	return "[no deck]"
}

// All returns all decks sorted by id.
func (dm *Manager) All() []*Deck {
	decks := make([]*Deck, 0, len(dm.decks))
	for _, d := range dm.decks {
		decks = append(decks, d)
	}
	sort.Slice(decks, func(i, j int) bool { return decks[i].ID < decks[j].ID })
	return decks
}

// AllConfigs returns all option groups sorted by id.
func (dm *Manager) AllConfigs() []*Config {
	configs := make([]*Config, 0, len(dm.configs))
	for _, c := range dm.configs {
		configs = append(configs, c)
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].ID < configs[j].ID })
	return configs
}

// Add registers a deck, allocating an id if it has none.
func (dm *Manager) Add(d *Deck, usn int) {
	if d.ID == 0 {
		id := database.IntTimeMS()
		for {
			if _, taken := dm.decks[id]; !taken {
				break
			}
			id++
		}
		d.ID = id
	}
	if d.ConfigID == 0 {
		d.ConfigID = DefaultConfigID
	}
	d.ModifiedAt = database.IntTime()
	d.USN = usn
	dm.decks[d.ID] = d
	dm.changedDecks = true
}

// Save stamps a deck as modified and marks the manager dirty.
func (dm *Manager) Save(d *Deck, usn int) {
	d.ModifiedAt = database.IntTime()
	d.USN = usn
	dm.changedDecks = true
}

// SaveConfig registers or updates an option group.
func (dm *Manager) SaveConfig(c *Config) {
	if c.ID == 0 {
		id := database.IntTimeMS()
		for {
			if _, taken := dm.configs[id]; !taken {
				break
			}
			id++
		}
		c.ID = id
	}
	dm.configs[c.ID] = c
	dm.changedConfigs = true
}

// IsFiltered reports whether the deck exists and is filtered.
func (dm *Manager) IsFiltered(id int64) bool {
	d, ok := dm.decks[id]
	return ok && d.Filtered
}

// ConfigFor returns the option group for a deck, falling back to the
// default group when the deck or its group is missing.
func (dm *Manager) ConfigFor(deckID int64) *Config {
	if d, ok := dm.decks[deckID]; ok {
		if c, ok := dm.configs[d.ConfigID]; ok {
			return c
		}
	}
	return dm.configs[DefaultConfigID]
}
