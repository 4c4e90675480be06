package collection

import (
	"context"

	"github.com/at-ishikawa/kartei/internal/card"
	"github.com/at-ishikawa/kartei/internal/review"
	"github.com/at-ishikawa/kartei/internal/scheduler"
)

// undoState is the two-kind undo stack: either snapshots of reviewed
// cards or a named checkpoint. Only one kind is live at a time; nil means
// nothing to undo.
type undoState interface {
	isUndoState()
	label() string
}

// reviewUndo holds pre-review card snapshots, newest last.
type reviewUndo struct {
	snapshots []card.Card
}

func (reviewUndo) isUndoState()  {}
func (reviewUndo) label() string { return "Review" }

// checkpointUndo is a named save-point; undoing it rolls the transaction
// back.
type checkpointUndo struct {
	name string
}

func (checkpointUndo) isUndoState()    {}
func (u checkpointUndo) label() string { return u.name }

// UndoName returns a human-readable name for the pending undo step, or
// the empty string when nothing can be undone.
func (c *Collection) UndoName() string {
	if c.undo == nil {
		return ""
	}
	return c.undo.label()
}

// MarkReview pushes a snapshot of the card about to be reviewed.
// A pending checkpoint is replaced: checkpoints do not survive a review.
func (c *Collection) MarkReview(reviewed *card.Card) {
	stack, ok := c.undo.(*reviewUndo)
	if !ok {
		stack = &reviewUndo{}
		c.undo = stack
	}
	stack.snapshots = append(stack.snapshots, *reviewed)
}

// Undo reverses the most recent undoable step. For a review it restores
// the snapshot verbatim, deletes that card's newest review log entry, and
// adjusts the scheduler's counters, returning the restored card id. For a
// checkpoint it rolls the whole transaction back and returns zero.
func (c *Collection) Undo(ctx context.Context) (int64, error) {
	switch state := c.undo.(type) {
	case *reviewUndo:
		return c.undoReview(ctx, state)
	case checkpointUndo:
		c.undo = nil
		if err := c.Rollback(ctx); err != nil {
			return 0, err
		}
		if err := c.Sched.Reset(ctx); err != nil {
			return 0, err
		}
		return 0, nil
	default:
		return 0, ErrNothingToUndo
	}
}

func (c *Collection) undoReview(ctx context.Context, state *reviewUndo) (int64, error) {
	snapshot := state.snapshots[len(state.snapshots)-1]
	state.snapshots = state.snapshots[:len(state.snapshots)-1]
	if len(state.snapshots) == 0 {
		c.undo = nil
	}

	if err := c.Cards.Update(ctx, &snapshot); err != nil {
		return 0, err
	}
	if err := c.Reviews.DeleteLatestByCard(ctx, snapshot.ID); err != nil {
		return 0, err
	}

	c.Sched.SetReps(c.Sched.Reps() - 1)
	if bucket, ok := bucketForQueue(snapshot.Queue); ok {
		c.Sched.UpdateStats(&snapshot, bucket, -1)
	}
	return snapshot.ID, nil
}

// markOp installs a fresh checkpoint under the given name. An empty name
// clears only an existing checkpoint; a live review-undo stack is never
// cleared implicitly.
func (c *Collection) markOp(name string) {
	if name != "" {
		c.undo = checkpointUndo{name: name}
		return
	}
	if _, ok := c.undo.(checkpointUndo); ok {
		c.undo = nil
	}
}

// ClearUndo forces the undo state back to inactive.
func (c *Collection) ClearUndo() {
	c.undo = nil
}

// LogReview appends a review log entry, stamped with the current update
// sequence number, and bumps the session review counter. Callers invoke
// MarkReview first so the review can be undone.
func (c *Collection) LogReview(ctx context.Context, log *review.Log) error {
	log.USN = c.USN()
	if err := c.Reviews.Create(ctx, log); err != nil {
		return err
	}
	c.Sched.SetReps(c.Sched.Reps() + 1)
	return nil
}

func bucketForQueue(queue int) (scheduler.Bucket, bool) {
	switch queue {
	case card.QueueNew:
		return scheduler.BucketNew, true
	case card.QueueLearning:
		return scheduler.BucketLearning, true
	case card.QueueReview:
		return scheduler.BucketReview, true
	default:
		return "", false
	}
}
