// Package review provides review log rows and their repository.
package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/at-ishikawa/kartei/internal/database"
)

// Log records a single answered review. The id doubles as the review's
// millisecond timestamp.
type Log struct {
	ID               int64 `db:"id"`
	CardID           int64 `db:"card_id"`
	USN              int   `db:"usn"`
	Grade            int   `db:"grade"`
	IntervalDays     int   `db:"interval_days"`
	LastIntervalDays int   `db:"last_interval_days"`
	Factor           int   `db:"factor"`
	TimeTakenMS      int   `db:"time_taken_ms"`
	ReviewType       int   `db:"review_type"`
}

// Repository provides access to review log rows.
type Repository struct {
	db *database.DB
}

// NewRepository creates a Repository over the given datastore.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a review log. A zero id is allocated from the creation
// timestamp.
func (r *Repository) Create(ctx context.Context, log *Log) error {
	if log.ID == 0 {
		id, err := r.db.TimestampID(ctx, "review_logs")
		if err != nil {
			return fmt.Errorf("allocate review log id: %w", err)
		}
		log.ID = id
	}
	if _, err := r.db.Exec(ctx,
		`INSERT INTO review_logs (id, card_id, usn, grade, interval_days, last_interval_days, factor, time_taken_ms, review_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.CardID, log.USN, log.Grade, log.IntervalDays,
		log.LastIntervalDays, log.Factor, log.TimeTakenMS, log.ReviewType); err != nil {
		return fmt.Errorf("insert review log: %w", err)
	}
	return nil
}

// LatestByCard returns the most recent review log for a card, or nil if
// the card has none.
func (r *Repository) LatestByCard(ctx context.Context, cardID int64) (*Log, error) {
	var log Log
	err := r.db.Get(ctx, &log,
		"SELECT * FROM review_logs WHERE card_id = ? ORDER BY id DESC LIMIT 1", cardID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest review log for card %d: %w", cardID, err)
	}
	return &log, nil
}

// DeleteLatestByCard removes the single most recent review log for a
// card. Deleting when the card has no logs is a no-op.
func (r *Repository) DeleteLatestByCard(ctx context.Context, cardID int64) error {
	if _, err := r.db.Exec(ctx,
		`DELETE FROM review_logs WHERE id = (
			SELECT id FROM review_logs WHERE card_id = ? ORDER BY id DESC LIMIT 1
		)`, cardID); err != nil {
		return fmt.Errorf("delete latest review log for card %d: %w", cardID, err)
	}
	return nil
}

// CountByCard returns the number of review logs for a card.
func (r *Repository) CountByCard(ctx context.Context, cardID int64) (int, error) {
	var count int
	if err := r.db.Get(ctx, &count,
		"SELECT COUNT(*) FROM review_logs WHERE card_id = ?", cardID); err != nil {
		return 0, fmt.Errorf("count review logs for card %d: %w", cardID, err)
	}
	return count, nil
}
