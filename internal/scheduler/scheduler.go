// Package scheduler defines the interface the collection needs from a
// spaced-repetition scheduler, together with a minimal implementation.
// The review algorithm itself lives behind this interface.
package scheduler

import (
	"context"
	"fmt"

	"github.com/at-ishikawa/kartei/internal/card"
	"github.com/at-ishikawa/kartei/internal/database"
)

//go:generate mockgen -source=scheduler.go -destination=../mocks/scheduler/mock_scheduler.go -package=mock_scheduler Scheduler

// Bucket names a study-counter bucket.
type Bucket string

const (
	BucketNew      Bucket = "new"
	BucketLearning Bucket = "learning"
	BucketReview   Bucket = "review"
)

// Scheduler is the collection's view of the spaced-repetition scheduler.
type Scheduler interface {
	// Reset recomputes queues and counters, e.g. after a rollback.
	Reset(ctx context.Context) error
	// UnburyCards returns buried cards to their regular queues.
	UnburyCards(ctx context.Context) error
	// Reps returns the number of reviews answered this session.
	Reps() int
	// SetReps overrides the session review counter; undo decrements it.
	SetReps(reps int)
	// UpdateStats adjusts a study counter, e.g. -1 on review undo.
	UpdateStats(c *card.Card, bucket Bucket, delta int)
}

// Basic is a minimal Scheduler that keeps session counters in memory and
// performs the queue maintenance the collection relies on.
type Basic struct {
	db     *database.DB
	reps   int
	counts map[Bucket]int
}

// NewBasic creates a Basic scheduler over the given datastore.
func NewBasic(db *database.DB) *Basic {
	return &Basic{db: db, counts: map[Bucket]int{}}
}

// Reset clears the session counters.
func (s *Basic) Reset(ctx context.Context) error {
	s.counts = map[Bucket]int{}
	return nil
}

// UnburyCards moves every buried card back to the queue implied by its
// type.
func (s *Basic) UnburyCards(ctx context.Context) error {
	if _, err := s.db.Exec(ctx,
		"UPDATE cards SET queue = type, modified_at = ? WHERE queue = ?",
		database.IntTime(), card.QueueBuried); err != nil {
		return fmt.Errorf("unbury cards: %w", err)
	}
	return nil
}

// Reps returns the session review counter.
func (s *Basic) Reps() int {
	return s.reps
}

// SetReps overrides the session review counter.
func (s *Basic) SetReps(reps int) {
	s.reps = reps
}

// UpdateStats adjusts the counter for the given bucket.
func (s *Basic) UpdateStats(_ *card.Card, bucket Bucket, delta int) {
	s.counts[bucket] += delta
}

// Count returns the current value of a bucket counter.
func (s *Basic) Count(bucket Bucket) int {
	return s.counts[bucket]
}
