// Package database provides the embedded SQLite datastore used by the
// collection. All reads and writes go through a single long-lived
// transaction so that Commit and Rollback give save/undo semantics to the
// layers above.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // Registers the sqlite driver

	"github.com/at-ishikawa/kartei/schemas"
)

// DB wraps a SQLite connection and the transaction currently in flight.
// A transaction is started lazily on the first statement and stays open
// until Commit or Rollback, so the datastore file keeps its write lock
// between operations.
type DB struct {
	conn     *sqlx.DB
	tx       *sqlx.Tx
	modified bool
}

// Open opens the SQLite file at path, applies the embedded schema
// migrations, and returns a DB ready for use. The connection pool is
// limited to a single connection so that the long-lived transaction is
// the only writer.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, storageErr("open database", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, storageErr("connect database", err)
	}

	if err := applyMigrations(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &DB{conn: conn}, nil
}

func applyMigrations(conn *sqlx.DB) error {
	entries, err := fs.ReadDir(schemas.Migrations, "migrations")
	if err != nil {
		return fmt.Errorf("read migrations directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		script, err := fs.ReadFile(schemas.Migrations, "migrations/"+name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := conn.Exec(string(script)); err != nil {
			return storageErr(fmt.Sprintf("apply migration %s", name), err)
		}
	}
	return nil
}

// begin starts the long-lived transaction if one is not already open.
func (d *DB) begin() (*sqlx.Tx, error) {
	if d.tx != nil {
		return d.tx, nil
	}
	tx, err := d.conn.Beginx()
	if err != nil {
		return nil, storageErr("begin transaction", err)
	}
	d.tx = tx
	return tx, nil
}

// Exec runs a statement inside the current transaction and marks the
// datastore as modified.
func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	tx, err := d.begin()
	if err != nil {
		return nil, err
	}
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("exec", err)
	}
	d.modified = true
	return result, nil
}

// Get scans a single row into dest. Returns sql.ErrNoRows unwrapped so
// callers can treat a missing row as an ordinary condition.
func (d *DB) Get(ctx context.Context, dest any, query string, args ...any) error {
	tx, err := d.begin()
	if err != nil {
		return err
	}
	if err := tx.GetContext(ctx, dest, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return storageErr("get", err)
	}
	return nil
}

// Select scans all rows into dest.
func (d *DB) Select(ctx context.Context, dest any, query string, args ...any) error {
	tx, err := d.begin()
	if err != nil {
		return err
	}
	if err := tx.SelectContext(ctx, dest, query, args...); err != nil {
		return storageErr("select", err)
	}
	return nil
}

// In expands a query with IN-clause placeholders for the given arguments
// and runs it through Select.
func (d *DB) In(ctx context.Context, dest any, query string, args ...any) error {
	expanded, expandedArgs, err := sqlx.In(query, args...)
	if err != nil {
		return fmt.Errorf("expand IN query: %w", err)
	}
	return d.Select(ctx, dest, expanded, expandedArgs...)
}

// ExecIn expands a statement with IN-clause placeholders and executes it.
func (d *DB) ExecIn(ctx context.Context, query string, args ...any) (sql.Result, error) {
	expanded, expandedArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("expand IN statement: %w", err)
	}
	return d.Exec(ctx, expanded, expandedArgs...)
}

// Commit commits the current transaction and clears the modified flag.
// Committing with no open transaction is a no-op.
func (d *DB) Commit() error {
	if d.tx == nil {
		return nil
	}
	if err := d.tx.Commit(); err != nil {
		return storageErr("commit transaction", err)
	}
	d.tx = nil
	d.modified = false
	return nil
}

// Rollback discards the current transaction and clears the modified flag.
// Rolling back with no open transaction is a no-op.
func (d *DB) Rollback() error {
	if d.tx == nil {
		return nil
	}
	if err := d.tx.Rollback(); err != nil {
		return storageErr("rollback transaction", err)
	}
	d.tx = nil
	d.modified = false
	return nil
}

// ExecDirect runs a statement on the connection outside the long-lived
// transaction. Used for maintenance statements such as VACUUM that cannot
// run inside a transaction; the caller must Commit or Rollback first.
func (d *DB) ExecDirect(ctx context.Context, query string, args ...any) (sql.Result, error) {
	result, err := d.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("exec direct", err)
	}
	return result, nil
}

// Modified reports whether any statement has written since the last
// commit or rollback.
func (d *DB) Modified() bool {
	return d.modified
}

// SetModified overrides the modified flag. The collection uses this to
// issue lock-only updates without marking the datastore dirty.
func (d *DB) SetModified(modified bool) {
	d.modified = modified
}

// Close commits nothing: pending writes are rolled back. Callers that
// want the writes must Commit first.
func (d *DB) Close() error {
	if d.tx != nil {
		if err := d.tx.Rollback(); err != nil {
			return storageErr("rollback on close", err)
		}
		d.tx = nil
	}
	d.modified = false
	if err := d.conn.Close(); err != nil {
		return storageErr("close database", err)
	}
	return nil
}
