package engine

import (
	"fmt"

	"github.com/iliyamo/walkin-queue/internal/model"
)

// The queue state machine.  Only the is_active/is_paused flags are stored;
// the observable state is derived from them plus whether a member is
// currently being served.  Transitions mutate the flags in place and
// report whether anything changed so callers can skip redundant writes.

// queueState derives the state reported in broadcasts.
func queueState(q *model.Queue, hasServing bool) string {
	switch {
	case q.IsPaused:
		return model.QueueStatePaused
	case !q.IsActive:
		return model.QueueStateInactive
	case !hasServing:
		return model.QueueStateReadyToCall
	default:
		return model.QueueStateActive
	}
}

// activateQueue sets the queue active from any state.
func activateQueue(q *model.Queue) bool {
	if q.IsActive && !q.IsPaused {
		return false
	}
	q.IsActive = true
	q.IsPaused = false
	return true
}

// pauseQueue suspends an active queue.  Pausing an inactive queue is an
// illegal transition; pausing an already paused queue is an idempotent
// no-op.
func pauseQueue(q *model.Queue) (bool, error) {
	if q.IsPaused {
		return false, nil
	}
	if !q.IsActive {
		return false, fmt.Errorf("cannot pause an inactive queue: %w", ErrInvalidState)
	}
	q.IsPaused = true
	return true, nil
}

// resumeQueue lifts a pause.  Resuming a queue that is not paused is an
// idempotent no-op.
func resumeQueue(q *model.Queue) bool {
	if !q.IsPaused {
		return false
	}
	q.IsPaused = false
	return true
}

// deactivateQueue is the daily cutover: the queue goes back to inactive
// regardless of pause state.
func deactivateQueue(q *model.Queue) bool {
	if !q.IsActive && !q.IsPaused {
		return false
	}
	q.IsActive = false
	q.IsPaused = false
	return true
}
