// Package card provides card rows and their repository.
package card

// Card types.
const (
	TypeNew      = 0
	TypeLearning = 1
	TypeReview   = 2
)

// Card queues. Negative queues are out of circulation.
const (
	QueueBuried    = -2
	QueueSuspended = -1
	QueueNew       = 0
	QueueLearning  = 1
	QueueReview    = 2
)

// Card is one schedulable instance of a note, bound to a template ordinal
// and a deck. Due is a queue position for new cards and a day offset for
// review cards.
type Card struct {
	ID         int64 `db:"id"`
	NoteID     int64 `db:"note_id"`
	DeckID     int64 `db:"deck_id"`
	Ordinal    int   `db:"ordinal"`
	ModifiedAt int64 `db:"modified_at"`
	USN        int   `db:"usn"`
	Type       int   `db:"type"`
	Queue      int   `db:"queue"`
	Due        int64 `db:"due"`
}
