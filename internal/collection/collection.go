// Package collection implements the collection facade: the mapping
// between notes, cards, note types, and decks, persisted in a single
// embedded SQLite file. It owns card generation, the question/answer
// assembly pipeline, deletion logging, undo, and integrity repair.
package collection

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/at-ishikawa/kartei/internal/card"
	"github.com/at-ishikawa/kartei/internal/database"
	"github.com/at-ishikawa/kartei/internal/deck"
	"github.com/at-ishikawa/kartei/internal/hook"
	"github.com/at-ishikawa/kartei/internal/media"
	"github.com/at-ishikawa/kartei/internal/model"
	"github.com/at-ishikawa/kartei/internal/note"
	"github.com/at-ishikawa/kartei/internal/review"
	"github.com/at-ishikawa/kartei/internal/scheduler"
	"github.com/at-ishikawa/kartei/internal/tag"
	"github.com/at-ishikawa/kartei/internal/template"
)

// autosaveInterval is how long a collection may stay unsaved before
// Autosave commits.
const autosaveInterval = 300 * time.Second

// offlineUSN is the update sequence number stamped on rows while not in
// server mode.
const offlineUSN = -1

// FilterModSchema is the filter consulted before a schema modification.
// A filter returning false vetoes the change.
const FilterModSchema = "modSchema"

// HookNotesRemoved fires after notes are removed, with the removed ids.
const HookNotesRemoved = "notesRemoved"

// metaRow is the on-disk shape of the single collection metadata row.
type metaRow struct {
	ID               int64  `db:"id"`
	CreatedAt        int64  `db:"created_at"`
	ModifiedAt       int64  `db:"modified_at"`
	SchemaModifiedAt int64  `db:"schema_modified_at"`
	Version          int    `db:"version"`
	Dirty            int    `db:"dirty"`
	USN              int    `db:"usn"`
	LastSyncAt       int64  `db:"last_sync_at"`
	Config           string `db:"config"`
	Models           string `db:"models"`
	Decks            string `db:"decks"`
	DeckConfigs      string `db:"deck_configs"`
	Tags             string `db:"tags"`
}

// conf is the JSON config blob on the metadata row: small monotonic
// counters and session state.
type conf struct {
	NextPosition  int64 `json:"next_position"`
	CurrentDeckID int64 `json:"current_deck_id"`
}

// Collection is the facade external callers invoke. All operations run
// synchronously on the single underlying datastore.
type Collection struct {
	db     *database.DB
	server bool

	Models   *model.Manager
	Decks    *deck.Manager
	Tags     *tag.Manager
	Notes    *note.Repository
	Cards    *card.Repository
	Reviews  *review.Repository
	Media    *media.Manager
	Sched    scheduler.Scheduler
	Hooks    *hook.Bus
	Renderer template.Renderer

	createdAt        int64
	modifiedAt       int64
	schemaModifiedAt int64
	dirty            bool
	usnCounter       int
	lastSyncAt       int64
	conf             conf

	lastSave time.Time
	undo     undoState
}

// Option configures Open.
type Option func(*Collection)

// WithServerMode makes USN return the live counter instead of the
// offline sentinel, for multi-client operation.
func WithServerMode() Option {
	return func(c *Collection) { c.server = true }
}

// WithMediaDir attaches a media directory to the collection.
func WithMediaDir(dir string) Option {
	return func(c *Collection) { c.Media = media.NewManager(dir) }
}

// WithRenderer overrides the template renderer.
func WithRenderer(r template.Renderer) Option {
	return func(c *Collection) { c.Renderer = r }
}

// WithScheduler overrides the scheduler collaborator.
func WithScheduler(s scheduler.Scheduler) Option {
	return func(c *Collection) { c.Sched = s }
}

// Open opens (or creates) the collection file at path, loads the
// metadata row into the managers, and acquires the write lock.
func Open(ctx context.Context, path string, opts ...Option) (*Collection, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, err
	}

	c := &Collection{
		db:       db,
		Models:   model.NewManager(),
		Decks:    deck.NewManager(),
		Tags:     tag.NewManager(),
		Notes:    note.NewRepository(db),
		Cards:    card.NewRepository(db),
		Reviews:  review.NewRepository(db),
		Media:    media.NewManager(""),
		Hooks:    hook.NewBus(),
		Renderer: template.NewFieldRenderer(),
		lastSave: time.Now(),
	}
	c.Sched = scheduler.NewBasic(db)
	for _, opt := range opts {
		opt(c)
	}

	if err := c.initIfEmpty(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := c.Load(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := c.Media.Connect(); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Recover from an interrupted session before handing the collection
	// out.
	if c.dirty {
		slog.Debug("cleaning up interrupted session state")
		if err := c.cleanup(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := c.Sched.Reset(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("reset scheduler: %w", err)
	}
	if err := c.Lock(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// initIfEmpty seeds a fresh datastore with the metadata row, the default
// deck, and a basic note type.
func (c *Collection) initIfEmpty(ctx context.Context) error {
	var count int
	if err := c.db.Get(ctx, &count, "SELECT COUNT(*) FROM col"); err != nil {
		return fmt.Errorf("probe collection row: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := database.IntTime()
	configBlob, err := json.Marshal(conf{NextPosition: 1, CurrentDeckID: deck.DefaultDeckID})
	if err != nil {
		return fmt.Errorf("encode config blob: %w", err)
	}

	seededModels := model.NewManager()
	seededModels.Add(model.NewBasic("Basic"), offlineUSN)
	modelsBlob, err := json.Marshal(seededModels.All())
	if err != nil {
		return fmt.Errorf("encode models blob: %w", err)
	}
	seededDecks := deck.NewManager()
	decksBlob, err := json.Marshal(seededDecks.All())
	if err != nil {
		return fmt.Errorf("encode decks blob: %w", err)
	}
	configsBlob, err := json.Marshal(seededDecks.AllConfigs())
	if err != nil {
		return fmt.Errorf("encode deck configs blob: %w", err)
	}

	if _, err := c.db.Exec(ctx,
		`INSERT INTO col (id, created_at, modified_at, schema_modified_at, version, dirty, usn, last_sync_at,
			config, models, decks, deck_configs, tags)
		VALUES (1, ?, ?, ?, 1, 0, 0, 0, ?, ?, ?, ?, ?)`,
		now, database.IntTimeMS(), database.IntTimeMS(),
		string(configBlob), string(modelsBlob), string(decksBlob), string(configsBlob), "{}"); err != nil {
		return fmt.Errorf("seed collection row: %w", err)
	}
	if err := c.db.Commit(); err != nil {
		return err
	}
	return nil
}

// Load reads the metadata row and hands the blobs to the managers.
func (c *Collection) Load(ctx context.Context) error {
	var row metaRow
	if err := c.db.Get(ctx, &row, "SELECT * FROM col LIMIT 1"); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("collection row missing: %w", err)
		}
		return fmt.Errorf("load collection row: %w", err)
	}

	c.createdAt = row.CreatedAt
	c.modifiedAt = row.ModifiedAt
	c.schemaModifiedAt = row.SchemaModifiedAt
	c.dirty = row.Dirty != 0
	c.usnCounter = row.USN
	c.lastSyncAt = row.LastSyncAt

	if err := json.Unmarshal([]byte(row.Config), &c.conf); err != nil {
		return fmt.Errorf("decode config blob: %w", err)
	}
	if c.conf.NextPosition < 1 {
		c.conf.NextPosition = 1
	}
	if err := c.Models.Load([]byte(row.Models)); err != nil {
		return err
	}
	if err := c.Decks.Load([]byte(row.Decks), []byte(row.DeckConfigs)); err != nil {
		return err
	}
	if err := c.Tags.Load([]byte(row.Tags)); err != nil {
		return err
	}
	return nil
}

// Flush writes the metadata back, stamping the modified time. A
// non-positive mod picks a monotonic wall-clock-derived value.
func (c *Collection) Flush(ctx context.Context, mod int64) error {
	if mod <= 0 {
		mod = database.IntTimeMS()
		if mod <= c.modifiedAt {
			mod = c.modifiedAt + 1
		}
	}
	c.modifiedAt = mod

	configBlob, err := json.Marshal(c.conf)
	if err != nil {
		return fmt.Errorf("encode config blob: %w", err)
	}
	dirty := 0
	if c.dirty {
		dirty = 1
	}
	if _, err := c.db.Exec(ctx,
		`UPDATE col SET created_at = ?, modified_at = ?, schema_modified_at = ?, dirty = ?, usn = ?, last_sync_at = ?, config = ?`,
		c.createdAt, c.modifiedAt, c.schemaModifiedAt, dirty, c.usnCounter, c.lastSyncAt, string(configBlob)); err != nil {
		return fmt.Errorf("flush collection row: %w", err)
	}
	return nil
}

// Save flushes each manager, writes the metadata row if anything is
// unsaved, commits, and re-acquires the write lock. A non-empty opName
// installs an undo checkpoint with that name; an empty one clears a
// pending checkpoint.
func (c *Collection) Save(ctx context.Context, opName string) error {
	if err := c.Models.Flush(ctx, c.db); err != nil {
		return err
	}
	if err := c.Decks.Flush(ctx, c.db); err != nil {
		return err
	}
	if err := c.Tags.Flush(ctx, c.db); err != nil {
		return err
	}

	if c.db.Modified() {
		if err := c.Flush(ctx, 0); err != nil {
			return err
		}
		if err := c.db.Commit(); err != nil {
			return err
		}
		if err := c.Lock(ctx); err != nil {
			return err
		}
	}

	c.markOp(opName)
	c.lastSave = time.Now()
	return nil
}

// Autosave saves if the idle threshold has elapsed since the last save.
func (c *Collection) Autosave(ctx context.Context) error {
	if time.Since(c.lastSave) < autosaveInterval {
		return nil
	}
	return c.Save(ctx, "")
}

// Lock re-acquires file locking with a no-op update, without advancing
// the modified time or marking the datastore dirty.
func (c *Collection) Lock(ctx context.Context) error {
	modified := c.db.Modified()
	if _, err := c.db.Exec(ctx, "UPDATE col SET id = id"); err != nil {
		return err
	}
	c.db.SetModified(modified)
	return nil
}

// Rollback discards uncommitted writes, reloads metadata from disk, and
// re-locks.
func (c *Collection) Rollback(ctx context.Context) error {
	if err := c.db.Rollback(); err != nil {
		return err
	}
	if err := c.Load(ctx); err != nil {
		return err
	}
	return c.Lock(ctx)
}

// Close cleans up interrupted state, saves (or rolls back), and releases
// all resources including the media subsystem.
func (c *Collection) Close(ctx context.Context, save bool) error {
	if err := c.cleanup(ctx); err != nil {
		return err
	}
	if save {
		if err := c.Save(ctx, ""); err != nil {
			return err
		}
	} else {
		if err := c.Rollback(ctx); err != nil {
			return err
		}
	}
	if err := c.db.Close(); err != nil {
		return err
	}
	return c.Media.Close()
}

// cleanup recovers from a session that left temporary state behind:
// buried cards are returned to their queues and the pending undo state is
// dropped.
func (c *Collection) cleanup(ctx context.Context) error {
	if c.dirty {
		if err := c.Sched.UnburyCards(ctx); err != nil {
			return err
		}
		c.dirty = false
		c.db.SetModified(true)
	}
	c.ClearUndo()
	return nil
}

// SetDirty flags the collection as holding temporary scheduler state that
// cleanup must undo.
func (c *Collection) SetDirty() {
	c.dirty = true
	c.db.SetModified(true)
}

// ModSchema marks the schema as changed, forcing a full sync next time.
// With check set, registered filters may veto the change, failing with
// ErrSchemaModAborted.
func (c *Collection) ModSchema(ctx context.Context, check bool) error {
	if c.SchemaChanged() {
		return nil
	}
	if check {
		if proceed, ok := c.Hooks.RunFilter(FilterModSchema, true).(bool); ok && !proceed {
			return ErrSchemaModAborted
		}
	}
	c.schemaModifiedAt = database.IntTimeMS()
	c.db.SetModified(true)
	return nil
}

// SchemaChanged reports whether the schema changed since the last sync.
func (c *Collection) SchemaChanged() bool {
	return c.schemaModifiedAt > c.lastSyncAt
}

// USN returns the live update sequence number in server mode, or the
// offline sentinel otherwise.
func (c *Collection) USN() int {
	if c.server {
		return c.usnCounter
	}
	return offlineUSN
}

// USNCounter returns the raw counter regardless of mode.
func (c *Collection) USNCounter() int {
	return c.usnCounter
}

// BeforeUpload prepares a full-state handoff to a sync server: all local
// update sequence numbers are reset, the counter is bumped, the schema is
// marked changed, and the collection is saved and closed.
func (c *Collection) BeforeUpload(ctx context.Context) error {
	for _, table := range []string{"notes", "cards", "review_logs"} {
		if _, err := c.db.Exec(ctx,
			fmt.Sprintf("UPDATE %s SET usn = 0 WHERE usn = ?", table), offlineUSN); err != nil {
			return fmt.Errorf("reset %s usns: %w", table, err)
		}
	}
	if _, err := c.db.Exec(ctx, "DELETE FROM graves"); err != nil {
		return fmt.Errorf("clear graves: %w", err)
	}
	c.usnCounter++
	if err := c.ModSchema(ctx, false); err != nil {
		return err
	}
	c.lastSyncAt = c.schemaModifiedAt
	return c.Close(ctx, true)
}

// CreatedAt returns the collection creation time in seconds.
func (c *Collection) CreatedAt() int64 {
	return c.createdAt
}

// ModifiedAt returns the collection modification time in milliseconds.
func (c *Collection) ModifiedAt() int64 {
	return c.modifiedAt
}

// DB exposes the underlying datastore for collaborators such as the
// scheduler.
func (c *Collection) DB() *database.DB {
	return c.db
}

// today returns the number of whole days since the collection was
// created.
func (c *Collection) today() int64 {
	return (database.IntTime() - c.createdAt) / 86400
}
