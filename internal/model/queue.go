package model

import "time"

// Queue statuses for a member's row within a queue's ordered sequence.
// A member is created waiting, becomes serving when called, and may be
// parked as late outside the positional sequence.
const (
	MemberStatusWaiting = "waiting"
	MemberStatusServing = "serving"
	MemberStatusLate    = "late"
)

// Derived queue states reported to observers.  They are computed from the
// is_active/is_paused flags and the presence of a serving member; only the
// flags are stored.
const (
	QueueStateInactive    = "inactive"
	QueueStatePaused      = "paused"
	QueueStateReadyToCall = "ready_to_call"
	QueueStateActive      = "active"
)

// Queue represents a staffed walk-in queue belonging to a branch.  The
// is_active flag gates calling/serving; is_paused suspends wait estimates
// without tearing the queue down.  Queues are created inactive and reset to
// inactive by the daily scheduler.
//
// Fields:
//  ID            – primary key identifier.
//  BranchID      – branch this queue belongs to.
//  StaffID       – staff member operating the queue (nullable).
//  Name          – display name shown to customers.
//  IsActive      – whether calling/serving is currently permitted.
//  IsPaused      – whether the queue is paused (indefinite waits).
//  ScheduledDate – optional date the queue is planned for.
//  StartTime     – optional "HH:MM" opening time.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Queue struct {
	ID            uint64     // queues.id
	BranchID      uint64     // queues.branch_id
	StaffID       *uint64    // queues.staff_id (nullable)
	Name          string     // queues.name
	IsActive      bool       // queues.is_active
	IsPaused      bool       // queues.is_paused
	ScheduledDate *time.Time // queues.scheduled_date (nullable)
	StartTime     *string    // queues.start_time (nullable, "HH:MM")
	CreatedAt     time.Time  // queues.created_at
	UpdatedAt     time.Time  // queues.updated_at
}

// QueueMember is a customer's row inside a queue's ordered sequence.  The
// position is a 1-based contiguous rank unique within the queue and is
// assigned exclusively by the position store; no other component writes it.
// Late members keep their row but leave the ordered sequence.
//
// Fields:
//  ID           – primary key identifier.
//  QueueID      – queue this membership belongs to.
//  CustomerID   – the queued customer (users.id).
//  Position     – 1-based contiguous rank among waiting/serving members.
//  Status       – waiting, serving or late.
//  TicketNumber – "TICKET-<n>" derived from the position at insertion time.
//  JoinedAt     – when the customer entered the queue.
//  NotifiedAt   – when the customer was last notified (nullable).
//  ServedAt     – when the member transitioned to serving (nullable).
type QueueMember struct {
	ID           uint64     // queue_members.id
	QueueID      uint64     // queue_members.queue_id
	CustomerID   uint64     // queue_members.customer_id
	Position     int        // queue_members.position
	Status       string     // queue_members.status
	TicketNumber string     // queue_members.ticket_number
	JoinedAt     time.Time  // queue_members.joined_at
	NotifiedAt   *time.Time // queue_members.notified_at (nullable)
	ServedAt     *time.Time // queue_members.served_at (nullable)
}

// MemberView is a QueueMember joined with the customer's display name.  The
// broadcaster needs the name for the current/next customer summaries, so
// listing reads return this shape instead of the bare row.
type MemberView struct {
	QueueMember
	CustomerName string // users.name
}

// LatecomerQueue is the unordered holding area attached to a queue.  It is
// provisioned when the queue is created; a queue without one simply cannot
// hold latecomer entries.
type LatecomerQueue struct {
	ID        uint64    // latecomer_queues.id
	QueueID   uint64    // latecomer_queues.queue_id
	CreatedAt time.Time // latecomer_queues.created_at
}

// LatecomerEntry records membership in a latecomer side-queue.  Entries
// carry no position; they only mark that the customer was set aside and may
// be reinserted later.
type LatecomerEntry struct {
	ID               uint64    // latecomer_entries.id
	LatecomerQueueID uint64    // latecomer_entries.latecomer_queue_id
	CustomerID       uint64    // latecomer_entries.customer_id
	CreatedAt        time.Time // latecomer_entries.created_at
}

// ServedRecord is the immutable audit row written exactly once when a
// serving member is completed.  WaitingTime is the measured seconds between
// served_at and completion; the estimator averages these as a proxy for
// per-position wait.  The historical column name is kept even though the
// value is really a service duration.
type ServedRecord struct {
	ID          uint64    // served_records.id
	QueueID     uint64    // served_records.queue_id
	CustomerID  uint64    // served_records.customer_id
	WaitingTime float64   // served_records.waiting_time (seconds)
	CreatedAt   time.Time // served_records.created_at
}
