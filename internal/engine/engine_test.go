package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/walkin-queue/internal/model"
)

func newTestEngine(t *testing.T) (*Engine, *memStore, *recordingNotifier, *recordingPublisher) {
	t.Helper()
	store := newMemStore()
	notifier := &recordingNotifier{}
	publisher := &recordingPublisher{}
	return New(store, notifier, publisher), store, notifier, publisher
}

func positions(t *testing.T, eng *Engine, queueID uint64) []int {
	t.Helper()
	members, err := eng.Members(context.Background(), queueID)
	require.NoError(t, err)
	out := make([]int, 0, len(members))
	for _, m := range members {
		out = append(out, m.Position)
	}
	return out
}

func customersInOrder(t *testing.T, eng *Engine, queueID uint64) []uint64 {
	t.Helper()
	members, err := eng.Members(context.Background(), queueID)
	require.NoError(t, err)
	out := make([]uint64, 0, len(members))
	for _, m := range members {
		out = append(out, m.CustomerID)
	}
	return out
}

var staff = Caller{UserID: 99, Role: "staff"}

func TestAddCustomerAssignsContiguousPositionsAndTickets(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	qid := store.addQueue("Counter A", true, false, true)

	for i, name := range []string{"Ada", "Ben", "Cleo"} {
		cid := store.addCustomer(name)
		member, err := eng.AddCustomer(context.Background(), staff, qid, cid)
		require.NoError(t, err)
		assert.Equal(t, i+1, member.Position)
		assert.Equal(t, model.MemberStatusWaiting, member.Status)
	}

	members, err := eng.Members(context.Background(), qid)
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, []int{1, 2, 3}, positions(t, eng, qid))
	assert.Equal(t, "TICKET-1", members[0].TicketNumber)
	assert.Equal(t, "TICKET-3", members[2].TicketNumber)
}

func TestAddCustomerRejectsDuplicates(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	qid := store.addQueue("Counter A", true, false, true)
	cid := store.addCustomer("Ada")

	_, err := eng.AddCustomer(context.Background(), staff, qid, cid)
	require.NoError(t, err)

	_, err = eng.AddCustomer(context.Background(), staff, qid, cid)
	require.ErrorIs(t, err, ErrDuplicateMember)
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, []int{1}, positions(t, eng, qid))
}

func TestRemoveCustomerClosesTheGap(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	qid := store.addQueue("Counter A", true, false, true)
	ada := store.addCustomer("Ada")
	ben := store.addCustomer("Ben")
	cleo := store.addCustomer("Cleo")
	for _, cid := range []uint64{ada, ben, cleo} {
		_, err := eng.AddCustomer(context.Background(), staff, qid, cid)
		require.NoError(t, err)
	}

	require.NoError(t, eng.RemoveCustomer(context.Background(), staff, qid, ben))

	assert.Equal(t, []int{1, 2}, positions(t, eng, qid))
	assert.Equal(t, []uint64{ada, cleo}, customersInOrder(t, eng, qid))
}

func TestRemoveUnknownCustomer(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	qid := store.addQueue("Counter A", true, false, true)

	err := eng.RemoveCustomer(context.Background(), staff, qid, 12345)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMoveShiftsDisplacedMembers(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	qid := store.addQueue("Counter A", true, false, true)
	ids := make([]uint64, 0, 5)
	memberIDs := make(map[uint64]uint64)
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		cid := store.addCustomer(name)
		member, err := eng.AddCustomer(context.Background(), staff, qid, cid)
		require.NoError(t, err)
		ids = append(ids, cid)
		memberIDs[cid] = member.ID
	}

	// Move the member at position 4 up to position 2: the members at 2
	// and 3 shift down one slot, everyone else stays.
	require.NoError(t, eng.Move(context.Background(), staff, memberIDs[ids[3]], 2))

	assert.Equal(t, []uint64{ids[0], ids[3], ids[1], ids[2], ids[4]}, customersInOrder(t, eng, qid))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, positions(t, eng, qid))
}

func TestMoveRejectsOutOfRangeTargets(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	qid := store.addQueue("Counter A", true, false, true)
	cid := store.addCustomer("Ada")
	member, err := eng.AddCustomer(context.Background(), staff, qid, cid)
	require.NoError(t, err)

	require.ErrorIs(t, eng.Move(context.Background(), staff, member.ID, 0), ErrInvalidArgument)
	require.ErrorIs(t, eng.Move(context.Background(), staff, member.ID, 2), ErrInvalidArgument)
	assert.Equal(t, []int{1}, positions(t, eng, qid))
}

func TestCallNextRequiresActiveUnpausedQueue(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	inactive := store.addQueue("Closed", false, false, true)
	_, err := eng.CallNext(context.Background(), staff, inactive)
	require.ErrorIs(t, err, ErrInvalidState)

	paused := store.addQueue("Paused", true, true, true)
	_, err = eng.CallNext(context.Background(), staff, paused)
	require.ErrorIs(t, err, ErrInvalidState)

	empty := store.addQueue("Empty", true, false, true)
	_, err = eng.CallNext(context.Background(), staff, empty)
	require.ErrorIs(t, err, ErrEmptyQueue)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCallNextPromotesTheHead(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	qid := store.addQueue("Counter A", true, false, true)
	ada := store.addCustomer("Ada")
	ben := store.addCustomer("Ben")
	for _, cid := range []uint64{ada, ben} {
		_, err := eng.AddCustomer(context.Background(), staff, qid, cid)
		require.NoError(t, err)
	}

	called, err := eng.CallNext(context.Background(), staff, qid)
	require.NoError(t, err)
	assert.Equal(t, ada, called.CustomerID)
	assert.Equal(t, model.MemberStatusServing, called.Status)
	require.NotNil(t, called.ServedAt)

	// The serving member keeps position 1; the next call promotes Ben.
	called2, err := eng.CallNext(context.Background(), staff, qid)
	require.NoError(t, err)
	assert.Equal(t, ben, called2.CustomerID)
}

func TestCompleteServingRecordsAndRemoves(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	qid := store.addQueue("Counter A", true, false, true)
	ada := store.addCustomer("Ada")
	ben := store.addCustomer("Ben")
	for _, cid := range []uint64{ada, ben} {
		_, err := eng.AddCustomer(context.Background(), staff, qid, cid)
		require.NoError(t, err)
	}

	// Completing before anyone is called is an invalid state.
	_, err := eng.CompleteServing(context.Background(), staff, qid, ada)
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = eng.CallNext(context.Background(), staff, qid)
	require.NoError(t, err)

	record, err := eng.CompleteServing(context.Background(), staff, qid, ada)
	require.NoError(t, err)
	assert.Equal(t, ada, record.CustomerID)
	assert.GreaterOrEqual(t, record.WaitingTime, 0.0)

	// Ada is gone, Ben moved up to position 1.
	assert.Equal(t, []uint64{ben}, customersInOrder(t, eng, qid))
	assert.Equal(t, []int{1}, positions(t, eng, qid))

	served, err := store.RecentServed(context.Background(), qid, 10)
	require.NoError(t, err)
	require.Len(t, served, 1)
}

func TestMarkLateRenumbersImmediately(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	qid := store.addQueue("Counter A", true, false, true)
	ada := store.addCustomer("Ada")
	ben := store.addCustomer("Ben")
	cleo := store.addCustomer("Cleo")
	for _, cid := range []uint64{ada, ben, cleo} {
		_, err := eng.AddCustomer(context.Background(), staff, qid, cid)
		require.NoError(t, err)
	}

	require.NoError(t, eng.MarkLate(context.Background(), staff, qid, ben))

	// Ben leaves the sequence and the rest closes up.
	assert.Equal(t, []uint64{ada, cleo}, customersInOrder(t, eng, qid))
	assert.Equal(t, []int{1, 2}, positions(t, eng, qid))

	late, err := eng.LateCustomers(context.Background(), qid)
	require.NoError(t, err)
	require.Len(t, late, 1)
	assert.Equal(t, ben, late[0].CustomerID)
	assert.Equal(t, 0, late[0].Position)

	// Idempotent: marking again changes nothing.
	require.NoError(t, eng.MarkLate(context.Background(), staff, qid, ben))
	late, err = eng.LateCustomers(context.Background(), qid)
	require.NoError(t, err)
	assert.Len(t, late, 1)
}

func TestMoveLateMemberIsRejected(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	qid := store.addQueue("Counter A", true, false, true)
	ada := store.addCustomer("Ada")
	ben := store.addCustomer("Ben")
	var benMember uint64
	for _, cid := range []uint64{ada, ben} {
		member, err := eng.AddCustomer(context.Background(), staff, qid, cid)
		require.NoError(t, err)
		if cid == ben {
			benMember = member.ID
		}
	}
	require.NoError(t, eng.MarkLate(context.Background(), staff, qid, ben))

	require.ErrorIs(t, eng.Move(context.Background(), staff, benMember, 1), ErrInvalidState)
}

func TestMarkLateWithoutSideQueueStillParks(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	qid := store.addQueue("No side", true, false, false)
	ada := store.addCustomer("Ada")
	ben := store.addCustomer("Ben")
	for _, cid := range []uint64{ada, ben} {
		_, err := eng.AddCustomer(context.Background(), staff, qid, cid)
		require.NoError(t, err)
	}

	// Without a provisioned side-queue the attachment silently skips but
	// the member still leaves the ordered sequence.
	require.NoError(t, eng.MarkLate(context.Background(), staff, qid, ada))
	assert.Equal(t, []uint64{ben}, customersInOrder(t, eng, qid))

	late, err := eng.LateCustomers(context.Background(), qid)
	require.NoError(t, err)
	assert.Empty(t, late)
}

func TestReinsertPlacesLatecomerAtTarget(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	qid := store.addQueue("Counter A", true, false, true)
	ada := store.addCustomer("Ada")
	ben := store.addCustomer("Ben")
	cleo := store.addCustomer("Cleo")
	for _, cid := range []uint64{ada, ben, cleo} {
		_, err := eng.AddCustomer(context.Background(), staff, qid, cid)
		require.NoError(t, err)
	}
	require.NoError(t, eng.MarkLate(context.Background(), staff, qid, ada))

	require.NoError(t, eng.ReinsertCustomer(context.Background(), staff, qid, ada, 2))

	assert.Equal(t, []uint64{ben, ada, cleo}, customersInOrder(t, eng, qid))
	assert.Equal(t, []int{1, 2, 3}, positions(t, eng, qid))

	late, err := eng.LateCustomers(context.Background(), qid)
	require.NoError(t, err)
	assert.Empty(t, late)
}

func TestReinsertRequiresLateStatus(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	qid := store.addQueue("Counter A", true, false, true)
	ada := store.addCustomer("Ada")
	_, err := eng.AddCustomer(context.Background(), staff, qid, ada)
	require.NoError(t, err)

	require.ErrorIs(t, eng.ReinsertCustomer(context.Background(), staff, qid, ada, 1), ErrInvalidState)
}

func TestLifecycleTransitions(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	qid := store.addQueue("Counter A", false, false, true)

	// Pausing an inactive queue is illegal.
	require.ErrorIs(t, eng.Pause(context.Background(), staff, qid), ErrInvalidState)

	require.NoError(t, eng.Activate(context.Background(), staff, qid))
	require.NoError(t, eng.Pause(context.Background(), staff, qid))
	// Pausing twice and resuming twice are idempotent no-ops.
	require.NoError(t, eng.Pause(context.Background(), staff, qid))
	require.NoError(t, eng.Resume(context.Background(), staff, qid))
	require.NoError(t, eng.Resume(context.Background(), staff, qid))

	q, err := store.QueueByID(context.Background(), qid)
	require.NoError(t, err)
	assert.True(t, q.IsActive)
	assert.False(t, q.IsPaused)

	require.NoError(t, eng.Deactivate(context.Background(), staff, qid))
	q, err = store.QueueByID(context.Background(), qid)
	require.NoError(t, err)
	assert.False(t, q.IsActive)
}

func TestActivateLiftsPause(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	qid := store.addQueue("Counter A", true, true, true)

	require.NoError(t, eng.Activate(context.Background(), staff, qid))

	q, err := store.QueueByID(context.Background(), qid)
	require.NoError(t, err)
	assert.True(t, q.IsActive)
	assert.False(t, q.IsPaused)
}

func TestResetActiveQueues(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	a := store.addQueue("A", true, false, true)
	b := store.addQueue("B", true, true, true)
	c := store.addQueue("C", false, false, true)

	count, err := eng.ResetActiveQueues(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	for _, id := range []uint64{a, b, c} {
		q, err := store.QueueByID(context.Background(), id)
		require.NoError(t, err)
		assert.False(t, q.IsActive, "queue %d", id)
		assert.False(t, q.IsPaused, "queue %d", id)
	}
}

func TestNotificationsCarryTicketAndQueueName(t *testing.T) {
	eng, store, notifier, _ := newTestEngine(t)
	qid := store.addQueue("Counter A", true, false, true)
	ada := store.addCustomer("Ada")

	_, err := eng.AddCustomer(context.Background(), staff, qid, ada)
	require.NoError(t, err)
	require.NoError(t, eng.MarkLate(context.Background(), staff, qid, ada))

	require.Len(t, notifier.messages, 2)
	assert.Contains(t, notifier.messages[0], "added to the queue Counter A with ticket number TICKET-1")
	assert.Contains(t, notifier.messages[1], "marked as late in the queue Counter A")
}

func TestMutationsBroadcastToStaffAndMembers(t *testing.T) {
	eng, store, _, publisher := newTestEngine(t)
	qid := store.addQueue("Counter A", true, false, true)
	ada := store.addCustomer("Ada")

	_, err := eng.AddCustomer(context.Background(), staff, qid, ada)
	require.NoError(t, err)

	require.Len(t, publisher.channels, 2)
	assert.Contains(t, publisher.channels, "staff.queue.1")
	assert.Contains(t, publisher.channels, "update."+itoa(ada))
}

func TestFailedMutationLeavesNoTrace(t *testing.T) {
	eng, store, _, publisher := newTestEngine(t)
	qid := store.addQueue("Counter A", true, false, true)
	ada := store.addCustomer("Ada")
	_, err := eng.AddCustomer(context.Background(), staff, qid, ada)
	require.NoError(t, err)
	published := len(publisher.channels)

	// Duplicate add fails; the sequence and the broker stay untouched.
	_, err = eng.AddCustomer(context.Background(), staff, qid, ada)
	require.Error(t, err)
	assert.Equal(t, []int{1}, positions(t, eng, qid))
	assert.Len(t, publisher.channels, published)
}

func itoa(v uint64) string {
	return fmt.Sprint(v)
}
