package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// IntTime returns the current wall-clock time in whole seconds.
func IntTime() int64 {
	return time.Now().Unix()
}

// IntTimeMS returns the current wall-clock time in milliseconds.
func IntTimeMS() int64 {
	return time.Now().UnixMilli()
}

// TimestampID allocates a millisecond-timestamp id that does not collide
// with any existing row in the given table. On collision the candidate is
// bumped forward until free.
func (d *DB) TimestampID(ctx context.Context, table string) (int64, error) {
	candidate := IntTimeMS()
	for {
		var existing int64
		err := d.Get(ctx, &existing, fmt.Sprintf("SELECT id FROM %s WHERE id = ?", table), candidate)
		if errors.Is(err, sql.ErrNoRows) {
			return candidate, nil
		}
		if err != nil {
			return 0, err
		}
		candidate++
	}
}

// MaxID returns one past the largest id in the given table, or the current
// millisecond timestamp if that is larger. Batch inserts allocate from
// here so new ids never collide with rows created earlier in the same
// call.
func (d *DB) MaxID(ctx context.Context, table string) (int64, error) {
	var maxID sql.NullInt64
	if err := d.Get(ctx, &maxID, fmt.Sprintf("SELECT MAX(id) FROM %s", table)); err != nil {
		return 0, err
	}
	next := IntTimeMS()
	if maxID.Valid && maxID.Int64+1 > next {
		next = maxID.Int64 + 1
	}
	return next, nil
}
