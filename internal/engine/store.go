package engine

import (
	"context"

	"github.com/iliyamo/walkin-queue/internal/model"
)

// Store is the persistence collaborator the engine runs against.  The SQL
// implementation lives in internal/store; tests provide an in-memory one.
// All reads are explicit, bounded queries; the engine never assumes lazy
// relationship traversal.
type Store interface {
	// QueueByID loads a queue row.  Returns ErrNotFound for unknown ids.
	QueueByID(ctx context.Context, queueID uint64) (*model.Queue, error)

	// QueueIDForMember resolves the queue a member row belongs to, so
	// member-addressed operations can take the right per-queue lock.
	QueueIDForMember(ctx context.Context, memberID uint64) (uint64, error)

	// OrderedMembers returns the queue's waiting and serving members joined
	// with customer names, ordered by ascending position.  Late members are
	// outside the ordered sequence and are not included.
	OrderedMembers(ctx context.Context, queueID uint64) ([]model.MemberView, error)

	// Latecomers returns the members currently parked in the queue's
	// latecomer side-queue.  Order is unspecified.
	Latecomers(ctx context.Context, queueID uint64) ([]model.MemberView, error)

	// RecentServed returns up to n served records for the queue, newest
	// first.  Used exclusively by the estimator.
	RecentServed(ctx context.Context, queueID uint64, n int) ([]model.ServedRecord, error)

	// ActiveQueueIDs lists the ids of every queue with is_active set,
	// regardless of pause state.  Used by the daily reset.
	ActiveQueueIDs(ctx context.Context) ([]uint64, error)

	// Mutate runs fn inside a transaction holding the per-queue lock.  All
	// positional reads and writes of one engine operation happen through
	// the Mutation so two operations on the same queue can never interleave;
	// operations on different queues proceed in parallel.  An error from fn
	// rolls the transaction back and is returned unchanged.
	Mutate(ctx context.Context, queueID uint64, fn func(m Mutation) error) error
}

// Mutation is the set of row primitives available inside a per-queue
// transaction.  The primitives are deliberately dumb: all ordering
// semantics (contiguity, shifting, renumbering) are implemented on top of
// them in this package so there is exactly one owner of the position
// invariant.
type Mutation interface {
	// Queue returns the locked queue row.  Flag changes made to it are
	// persisted with UpdateQueue.
	Queue() *model.Queue

	// Members returns every member row of the queue, late ones included,
	// ordered by ascending position then id.
	Members() ([]model.QueueMember, error)

	// MemberByCustomer finds the queue's member row for a customer.
	// Returns ErrNotFound when the customer is not in the queue.
	MemberByCustomer(customerID uint64) (*model.QueueMember, error)

	// InsertMember persists a new member row and fills in its id.
	InsertMember(m *model.QueueMember) error

	// UpdateMember writes back position, status, ticket and timestamps.
	UpdateMember(m *model.QueueMember) error

	// DeleteMember removes a member row entirely.
	DeleteMember(memberID uint64) error

	// UpdateQueue persists the queue's is_active/is_paused flags.
	UpdateQueue(q *model.Queue) error

	// LatecomerQueue returns the queue's latecomer side-queue, or
	// ErrNotFound when none was provisioned.
	LatecomerQueue() (*model.LatecomerQueue, error)

	// AttachLatecomer adds a customer to the side-queue.
	AttachLatecomer(latecomerQueueID, customerID uint64) error

	// DetachLatecomer removes a customer from the side-queue.  Removing an
	// absent customer is not an error.
	DetachLatecomer(latecomerQueueID, customerID uint64) error

	// InsertServed persists an immutable served record.
	InsertServed(rec *model.ServedRecord) error
}

// Notifier is the fire-and-forget notification sink.  Delivery is
// at-least-once at best; failures are non-fatal and must never roll back
// the mutation that triggered them.
type Notifier interface {
	Notify(ctx context.Context, customerID uint64, message string) error
}

// Publisher is the real-time transport used by the broadcaster.  Channels
// are "update.<customerID>" for members and "staff.queue.<queueID>" for
// staff observers.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// Caller is the already-authenticated identity an engine operation runs
// on behalf of.  Authorization happens upstream; the engine carries the
// caller only for audit logging and performs no role logic itself.
type Caller struct {
	UserID uint64
	Role   string
}
