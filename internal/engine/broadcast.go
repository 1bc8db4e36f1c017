package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/walkin-queue/internal/model"
)

// CustomerSummary is the compact shape used for the current and next
// customer inside updates.
type CustomerSummary struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	TicketNumber string `json:"ticket_number"`
}

// MemberUpdate is the payload published on "update.<customerID>" after
// every mutation.  Position is 0 for the customer currently at the front
// (or being served); everyone else carries their rank among the remaining
// members.  EstimatedWaitingTime is -1 while the queue is paused.
type MemberUpdate struct {
	QueueID              uint64           `json:"queue_id"`
	QueueName            string           `json:"queue_name"`
	QueueState           string           `json:"queue_state"`
	IsPaused             bool             `json:"is_paused"`
	EstimatedWaitingTime float64          `json:"estimated_waiting_time"`
	AverageServiceTime   float64          `json:"average_service_time"`
	CurrentCustomer      *CustomerSummary `json:"current_customer"`
	Position             int              `json:"position"`
	CustomersAhead       int              `json:"customers_ahead"`
	TotalCustomers       int              `json:"total_customers"`
}

// StaffUpdate is the aggregate payload published on "staff.queue.<queueID>"
// so staff observers can see the whole queue at a glance.
type StaffUpdate struct {
	QueueID            uint64           `json:"queue_id"`
	QueueName          string           `json:"queue_name"`
	IsActive           bool             `json:"is_active"`
	IsPaused           bool             `json:"is_paused"`
	QueueState         string           `json:"queue_state"`
	CurrentCustomer    *CustomerSummary `json:"current_customer"`
	TotalMembers       int              `json:"total_members"`
	AverageServiceTime float64          `json:"average_service_time"`
	WaitingCount       int              `json:"waiting_count"`
	NextCustomer       *CustomerSummary `json:"next_customer"`
	Timestamp          time.Time        `json:"timestamp"`
}

// Broadcaster fans out per-customer and staff updates after a mutation.
// It only reads committed state: the caller releases the per-queue lock
// before broadcasting, so a slow transport never extends the lock.  Every
// failure in here is logged and swallowed; a notification problem must
// never undo or block the mutation that triggered it.
type Broadcaster struct {
	store     Store
	publisher Publisher
	estimator *Estimator
}

// NewBroadcaster wires a Broadcaster.  publisher may be nil, in which case
// broadcasting degrades to a logged no-op.
func NewBroadcaster(store Store, publisher Publisher, estimator *Estimator) *Broadcaster {
	return &Broadcaster{store: store, publisher: publisher, estimator: estimator}
}

// Broadcast loads the queue's committed state and emits one staff update
// plus one update per waiting/serving member.
func (b *Broadcaster) Broadcast(ctx context.Context, queueID uint64) {
	staff, updates, err := b.Compose(ctx, queueID)
	if err != nil {
		log.Printf("broadcast: compose queue %d: %v", queueID, err)
		return
	}
	b.publish(ctx, fmt.Sprintf("staff.queue.%d", queueID), staff)
	for customerID, update := range updates {
		b.publish(ctx, fmt.Sprintf("update.%d", customerID), update)
	}
}

// Compose builds the staff update and the per-customer updates for a
// queue's current committed state without publishing anything.  The HTTP
// status endpoints reuse it so polling clients see exactly what a
// subscriber would have received.
func (b *Broadcaster) Compose(ctx context.Context, queueID uint64) (*StaffUpdate, map[uint64]MemberUpdate, error) {
	queue, err := b.store.QueueByID(ctx, queueID)
	if err != nil {
		return nil, nil, err
	}
	members, err := b.store.OrderedMembers(ctx, queueID)
	if err != nil {
		return nil, nil, err
	}

	avg, err := b.estimator.AverageServiceTime(ctx, queueID, len(members))
	if err != nil {
		return nil, nil, err
	}

	// The current customer is the serving member, or the head of the
	// sequence when nobody is being served yet.
	var current *model.MemberView
	serving := false
	for i := range members {
		if members[i].Status == model.MemberStatusServing {
			current = &members[i]
			serving = true
			break
		}
	}
	if current == nil && len(members) > 0 {
		current = &members[0]
	}

	state := queueState(queue, serving)
	waiting := 0
	var next *model.MemberView
	for i := range members {
		if members[i].Status != model.MemberStatusWaiting {
			continue
		}
		waiting++
		if next == nil {
			next = &members[i]
		}
	}

	staff := &StaffUpdate{
		QueueID:            queue.ID,
		QueueName:          queue.Name,
		IsActive:           queue.IsActive,
		IsPaused:           queue.IsPaused,
		QueueState:         state,
		CurrentCustomer:    summary(current),
		TotalMembers:       len(members),
		AverageServiceTime: avg,
		WaitingCount:       waiting,
		NextCustomer:       summary(next),
		Timestamp:          time.Now().UTC(),
	}

	// Ranks: 0 for the current customer, then 1..n-1 over the remaining
	// members in position order.
	updates := make(map[uint64]MemberUpdate, len(members))
	rank := 0
	for i := range members {
		m := &members[i]
		pos := 0
		if current == nil || m.ID != current.ID {
			rank++
			pos = rank
		}
		updates[m.CustomerID] = MemberUpdate{
			QueueID:              queue.ID,
			QueueName:            queue.Name,
			QueueState:           state,
			IsPaused:             queue.IsPaused,
			EstimatedWaitingTime: estimateWait(queue, pos, avg, serving),
			AverageServiceTime:   avg,
			CurrentCustomer:      summary(current),
			Position:             pos,
			CustomersAhead:       pos,
			TotalCustomers:       len(members),
		}
	}
	return staff, updates, nil
}

// estimateWait computes a member's expected wait in seconds from its rank.
// While paused the wait is indefinite (-1).  When someone is being served,
// the half-service offset accounts for the service already in progress;
// otherwise only the front customer gets the half-service head start.
func estimateWait(q *model.Queue, rank int, avg float64, serving bool) float64 {
	if q.IsPaused {
		return -1
	}
	switch {
	case serving:
		if rank == 0 {
			return 0
		}
		return float64(rank-1)*avg + avg/2
	case rank == 0:
		return avg / 2
	default:
		return float64(rank) * avg
	}
}

func summary(m *model.MemberView) *CustomerSummary {
	if m == nil {
		return nil
	}
	return &CustomerSummary{
		ID:           m.CustomerID,
		Name:         m.CustomerName,
		TicketNumber: m.TicketNumber,
	}
}

func (b *Broadcaster) publish(ctx context.Context, channel string, payload any) {
	if b.publisher == nil {
		return
	}
	if err := b.publisher.Publish(ctx, channel, payload); err != nil {
		log.Printf("broadcast: publish %s: %v", channel, err)
	}
}
