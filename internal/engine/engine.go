package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/walkin-queue/internal/model"
)

// Engine orchestrates all queue mutations.  Each public operation opens a
// per-queue transaction through the store, applies its positional changes
// atomically, commits, and only then notifies and broadcasts, so the
// per-queue lock is never held across the external fan-out step, and an
// update can never reflect state older than the mutation that produced it.
type Engine struct {
	store       Store
	notifier    Notifier
	broadcaster *Broadcaster
}

// New constructs an Engine.  notifier and publisher may be nil, in which
// case the respective side effects degrade to logged no-ops.
func New(store Store, notifier Notifier, publisher Publisher) *Engine {
	return &Engine{
		store:       store,
		notifier:    notifier,
		broadcaster: NewBroadcaster(store, publisher, NewEstimator(store)),
	}
}

// AddCustomer appends a customer to the tail of the queue and notifies
// them with their ticket number.  Adding a customer who is already a
// member (whatever their status) is rejected: duplicate membership would
// corrupt the position sequence.
func (e *Engine) AddCustomer(ctx context.Context, caller Caller, queueID, customerID uint64) (*model.QueueMember, error) {
	var member *model.QueueMember
	var queueName string
	err := e.store.Mutate(ctx, queueID, func(mu Mutation) error {
		queueName = mu.Queue().Name
		if _, err := mu.MemberByCustomer(customerID); err == nil {
			return ErrDuplicateMember
		} else if !IsNotFound(err) {
			return err
		}
		var err error
		member, err = appendMember(mu, customerID, time.Now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, customerID, fmt.Sprintf(
		"You have been added to the queue %s with ticket number %s", queueName, member.TicketNumber))
	e.broadcaster.Broadcast(ctx, queueID)
	return member, nil
}

// RemoveCustomer deletes a customer's member row and closes the gap it
// leaves in the sequence.
func (e *Engine) RemoveCustomer(ctx context.Context, caller Caller, queueID, customerID uint64) error {
	err := e.store.Mutate(ctx, queueID, func(mu Mutation) error {
		member, err := mu.MemberByCustomer(customerID)
		if err != nil {
			return err
		}
		return removeMember(mu, member.ID)
	})
	if err != nil {
		return err
	}
	e.broadcaster.Broadcast(ctx, queueID)
	return nil
}

// Move repositions a member within its queue's sequence.  The target must
// lie in [1, N]; out-of-range targets are rejected, never clamped.
func (e *Engine) Move(ctx context.Context, caller Caller, memberID uint64, newPosition int) error {
	queueID, err := e.store.QueueIDForMember(ctx, memberID)
	if err != nil {
		return err
	}
	err = e.store.Mutate(ctx, queueID, func(mu Mutation) error {
		all, err := mu.Members()
		if err != nil {
			return err
		}
		for i := range all {
			if all[i].ID == memberID {
				if all[i].Status == model.MemberStatusLate {
					return fmt.Errorf("late member has no position: %w", ErrInvalidState)
				}
				return moveMember(mu, &all[i], newPosition)
			}
		}
		return fmt.Errorf("member %d: %w", memberID, ErrNotFound)
	})
	if err != nil {
		return err
	}
	e.broadcaster.Broadcast(ctx, queueID)
	return nil
}

// CallNext promotes the lowest-position waiting member to serving and
// stamps served_at.  The queue must be active and not paused.
func (e *Engine) CallNext(ctx context.Context, caller Caller, queueID uint64) (*model.QueueMember, error) {
	var called *model.QueueMember
	err := e.store.Mutate(ctx, queueID, func(mu Mutation) error {
		q := mu.Queue()
		if !q.IsActive {
			return fmt.Errorf("queue is not active: %w", ErrInvalidState)
		}
		if q.IsPaused {
			return fmt.Errorf("queue is paused: %w", ErrInvalidState)
		}
		all, err := mu.Members()
		if err != nil {
			return err
		}
		for _, m := range orderedMembers(all) {
			if m.Status != model.MemberStatusWaiting {
				continue
			}
			now := time.Now().UTC()
			m.Status = model.MemberStatusServing
			m.ServedAt = &now
			if err := mu.UpdateMember(&m); err != nil {
				return err
			}
			called = &m
			return nil
		}
		return ErrEmptyQueue
	})
	if err != nil {
		return nil, err
	}
	e.broadcaster.Broadcast(ctx, queueID)
	return called, nil
}

// CompleteServing finishes the service of a serving member: it measures
// the elapsed service duration, writes the immutable served record feeding
// the estimator, removes the member and renumbers the remainder.  The
// recorded column is still called waiting_time for historical reasons.
func (e *Engine) CompleteServing(ctx context.Context, caller Caller, queueID, customerID uint64) (*model.ServedRecord, error) {
	var record *model.ServedRecord
	err := e.store.Mutate(ctx, queueID, func(mu Mutation) error {
		member, err := mu.MemberByCustomer(customerID)
		if err != nil {
			return err
		}
		if member.Status != model.MemberStatusServing || member.ServedAt == nil {
			return fmt.Errorf("customer %d is not being served: %w", customerID, ErrInvalidState)
		}
		record = &model.ServedRecord{
			QueueID:     queueID,
			CustomerID:  customerID,
			WaitingTime: time.Now().UTC().Sub(*member.ServedAt).Seconds(),
		}
		if err := mu.InsertServed(record); err != nil {
			return err
		}
		return removeMember(mu, member.ID)
	})
	if err != nil {
		return nil, err
	}
	e.broadcaster.Broadcast(ctx, queueID)
	return record, nil
}

// MarkLate parks a member in the latecomer side-queue.  The member row is
// kept with status late, its position is abandoned and the remaining
// sequence is renumbered so the contiguity invariant holds immediately.
// A queue without a provisioned side-queue silently skips the attachment.
// Marking an already late member is an idempotent no-op.
func (e *Engine) MarkLate(ctx context.Context, caller Caller, queueID, customerID uint64) error {
	var queueName string
	changed := false
	err := e.store.Mutate(ctx, queueID, func(mu Mutation) error {
		queueName = mu.Queue().Name
		member, err := mu.MemberByCustomer(customerID)
		if err != nil {
			return err
		}
		if member.Status == model.MemberStatusLate {
			return nil
		}
		member.Status = model.MemberStatusLate
		member.Position = 0
		member.ServedAt = nil
		if err := mu.UpdateMember(member); err != nil {
			return err
		}
		if err := renumber(mu); err != nil {
			return err
		}
		if lq, err := mu.LatecomerQueue(); err == nil {
			if err := mu.AttachLatecomer(lq.ID, customerID); err != nil {
				return err
			}
		} else if !IsNotFound(err) {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return err
	}
	if changed {
		e.notify(ctx, customerID, fmt.Sprintf("You have been marked as late in the queue %s", queueName))
	}
	e.broadcaster.Broadcast(ctx, queueID)
	return nil
}

// ReinsertCustomer pulls a late member out of the side-queue and puts them
// back into the sequence at targetPosition, shifting the members at and
// after the slot.  Only late members can be reinserted.
func (e *Engine) ReinsertCustomer(ctx context.Context, caller Caller, queueID, customerID uint64, targetPosition int) error {
	err := e.store.Mutate(ctx, queueID, func(mu Mutation) error {
		member, err := mu.MemberByCustomer(customerID)
		if err != nil {
			return err
		}
		if member.Status != model.MemberStatusLate {
			return fmt.Errorf("customer %d is not marked late: %w", customerID, ErrInvalidState)
		}
		if lq, err := mu.LatecomerQueue(); err == nil {
			if err := mu.DetachLatecomer(lq.ID, customerID); err != nil {
				return err
			}
		} else if !IsNotFound(err) {
			return err
		}
		// Re-enter the sequence at the tail, then move into place so the
		// shifting logic stays in one spot.
		all, err := mu.Members()
		if err != nil {
			return err
		}
		member.Status = model.MemberStatusWaiting
		member.Position = len(orderedMembers(all)) + 1
		if err := mu.UpdateMember(member); err != nil {
			return err
		}
		return moveMember(mu, member, targetPosition)
	})
	if err != nil {
		return err
	}
	e.broadcaster.Broadcast(ctx, queueID)
	return nil
}

// Members lists the queue's ordered waiting/serving members.
func (e *Engine) Members(ctx context.Context, queueID uint64) ([]model.MemberView, error) {
	if _, err := e.store.QueueByID(ctx, queueID); err != nil {
		return nil, err
	}
	return e.store.OrderedMembers(ctx, queueID)
}

// LateCustomers lists the members currently parked in the latecomer
// side-queue.
func (e *Engine) LateCustomers(ctx context.Context, queueID uint64) ([]model.MemberView, error) {
	if _, err := e.store.QueueByID(ctx, queueID); err != nil {
		return nil, err
	}
	return e.store.Latecomers(ctx, queueID)
}

// Activate turns the queue active from any state, lifting a pause if one
// was in effect.
func (e *Engine) Activate(ctx context.Context, caller Caller, queueID uint64) error {
	return e.transition(ctx, queueID, func(q *model.Queue) (bool, error) {
		return activateQueue(q), nil
	})
}

// Pause suspends an active queue so members see indefinite waits.
// Pausing an inactive queue is rejected; pausing twice is a no-op.
func (e *Engine) Pause(ctx context.Context, caller Caller, queueID uint64) error {
	return e.transition(ctx, queueID, pauseQueue)
}

// Resume lifts a pause.  Resuming a queue that is not paused is a no-op.
func (e *Engine) Resume(ctx context.Context, caller Caller, queueID uint64) error {
	return e.transition(ctx, queueID, func(q *model.Queue) (bool, error) {
		return resumeQueue(q), nil
	})
}

// Deactivate closes the queue for the day, clearing both lifecycle flags.
func (e *Engine) Deactivate(ctx context.Context, caller Caller, queueID uint64) error {
	return e.transition(ctx, queueID, func(q *model.Queue) (bool, error) {
		return deactivateQueue(q), nil
	})
}

// Status returns the staff-side aggregate view of the queue, computed the
// same way a broadcast would compute it.
func (e *Engine) Status(ctx context.Context, queueID uint64) (*StaffUpdate, error) {
	staff, _, err := e.broadcaster.Compose(ctx, queueID)
	return staff, err
}

// CustomerStatus returns the per-customer view with the live wait
// estimate.  The customer must currently hold a position in the queue.
func (e *Engine) CustomerStatus(ctx context.Context, queueID, customerID uint64) (*MemberUpdate, error) {
	_, updates, err := e.broadcaster.Compose(ctx, queueID)
	if err != nil {
		return nil, err
	}
	update, ok := updates[customerID]
	if !ok {
		return nil, fmt.Errorf("customer %d is not in queue %d: %w", customerID, queueID, ErrNotFound)
	}
	return &update, nil
}

// transition applies a state-machine step inside the per-queue lock and
// broadcasts the resulting state.
func (e *Engine) transition(ctx context.Context, queueID uint64, step func(*model.Queue) (bool, error)) error {
	err := e.store.Mutate(ctx, queueID, func(mu Mutation) error {
		q := mu.Queue()
		changed, err := step(q)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return mu.UpdateQueue(q)
	})
	if err != nil {
		return err
	}
	e.broadcaster.Broadcast(ctx, queueID)
	return nil
}

// ResetActiveQueues is the daily cutover entry point: every active queue
// is set back to inactive, one by one, independent of pause state.  It
// returns the number of queues reset.
func (e *Engine) ResetActiveQueues(ctx context.Context) (int, error) {
	ids, err := e.store.ActiveQueueIDs(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, id := range ids {
		err := e.store.Mutate(ctx, id, func(mu Mutation) error {
			q := mu.Queue()
			if !deactivateQueue(q) {
				return nil
			}
			return mu.UpdateQueue(q)
		})
		if err != nil {
			// Keep sweeping the remaining queues; one failure must not
			// leave the rest active overnight.
			log.Printf("reset: queue %d: %v", id, err)
			continue
		}
		count++
	}
	return count, nil
}

// notify sends a fire-and-forget message to a customer.  Failures are
// logged and dropped.
func (e *Engine) notify(ctx context.Context, customerID uint64, message string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, customerID, message); err != nil {
		log.Printf("notify customer %d: %v", customerID, err)
	}
}

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
