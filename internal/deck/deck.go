// Package deck provides decks and their shared option groups.
package deck

// DefaultDeckID is the id of the global default deck. It always exists
// and is never filtered, so card generation can fall back to it.
const DefaultDeckID int64 = 1

// DefaultConfigID is the id of the default option group.
const DefaultConfigID int64 = 1

// NewCardOrder is a deck's policy for assigning due values to newly
// generated cards.
type NewCardOrder int

const (
	// OrderSequential assigns the raw position counter as the due value.
	OrderSequential NewCardOrder = 0
	// OrderRandom derives a pseudo-random due value from the position
	// counter, so siblings generated together share a slot.
	OrderRandom NewCardOrder = 1
)

// Deck is a named container for cards. Filtered decks are temporary and
// cannot own newly generated cards.
type Deck struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Filtered   bool   `json:"filtered"`
	ConfigID   int64  `json:"config_id"`
	ModifiedAt int64  `json:"modified_at"`
	USN        int    `json:"usn"`
}

// Config is an option group shared by one or more decks.
type Config struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	NewCardOrder NewCardOrder `json:"new_card_order"`
}
