package collection

import "errors"

var (
	// ErrSchemaModAborted is returned when a registered filter vetoes a
	// schema modification. Callers may catch it and continue without the
	// change.
	ErrSchemaModAborted = errors.New("schema modification aborted")

	// ErrNothingToUndo is returned by Undo when no undo state is live.
	ErrNothingToUndo = errors.New("nothing to undo")
)
