package database

import (
	"errors"
	"fmt"
)

// ErrStorage marks a fatal datastore I/O failure. No retry is attempted
// internally; callers decide whether to surface or abort.
var ErrStorage = errors.New("storage failure")

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// IsStorageError reports whether err originated from a datastore I/O
// failure.
func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorage)
}
