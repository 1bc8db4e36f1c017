package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/walkin-queue/internal/model"
)

func TestMoveMemberDownShiftsUp(t *testing.T) {
	store := newMemStore()
	qid := store.addQueue("Counter A", true, false, true)
	customers := make([]uint64, 5)
	for i := range customers {
		customers[i] = store.addCustomer("c")
	}

	var moved *model.QueueMember
	err := store.Mutate(context.Background(), qid, func(mu Mutation) error {
		for _, cid := range customers {
			m, err := appendMember(mu, cid, time.Now().UTC())
			if err != nil {
				return err
			}
			if cid == customers[1] {
				moved = m
			}
		}
		// Position 2 moves down to 4: members at 3 and 4 pull up one.
		return moveMember(mu, moved, 4)
	})
	require.NoError(t, err)

	members, err := store.OrderedMembers(context.Background(), qid)
	require.NoError(t, err)
	got := make([]uint64, 0, len(members))
	for _, m := range members {
		got = append(got, m.CustomerID)
	}
	assert.Equal(t, []uint64{customers[0], customers[2], customers[3], customers[1], customers[4]}, got)
	for i, m := range members {
		assert.Equal(t, i+1, m.Position)
	}
}

func TestMoveToSamePositionIsNoOp(t *testing.T) {
	store := newMemStore()
	qid := store.addQueue("Counter A", true, false, true)
	cid := store.addCustomer("c")

	err := store.Mutate(context.Background(), qid, func(mu Mutation) error {
		m, err := appendMember(mu, cid, time.Now().UTC())
		if err != nil {
			return err
		}
		return moveMember(mu, m, 1)
	})
	require.NoError(t, err)
}

func TestRenumberSkipsLateMembers(t *testing.T) {
	store := newMemStore()
	qid := store.addQueue("Counter A", true, false, true)
	a := store.addCustomer("a")
	b := store.addCustomer("b")
	c := store.addCustomer("c")

	err := store.Mutate(context.Background(), qid, func(mu Mutation) error {
		for _, cid := range []uint64{a, b, c} {
			if _, err := appendMember(mu, cid, time.Now().UTC()); err != nil {
				return err
			}
		}
		// Park the middle member outside the sequence, then renumber.
		m, err := mu.MemberByCustomer(b)
		if err != nil {
			return err
		}
		m.Status = model.MemberStatusLate
		m.Position = 0
		if err := mu.UpdateMember(m); err != nil {
			return err
		}
		return renumber(mu)
	})
	require.NoError(t, err)

	members, err := store.OrderedMembers(context.Background(), qid)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, []uint64{a, c}, []uint64{members[0].CustomerID, members[1].CustomerID})
	assert.Equal(t, 1, members[0].Position)
	assert.Equal(t, 2, members[1].Position)
}

func TestAppendAfterRemovalReusesTailPosition(t *testing.T) {
	store := newMemStore()
	qid := store.addQueue("Counter A", true, false, true)
	a := store.addCustomer("a")
	b := store.addCustomer("b")
	c := store.addCustomer("c")

	err := store.Mutate(context.Background(), qid, func(mu Mutation) error {
		for _, cid := range []uint64{a, b} {
			if _, err := appendMember(mu, cid, time.Now().UTC()); err != nil {
				return err
			}
		}
		m, err := mu.MemberByCustomer(b)
		if err != nil {
			return err
		}
		if err := removeMember(mu, m.ID); err != nil {
			return err
		}
		added, err := appendMember(mu, c, time.Now().UTC())
		if err != nil {
			return err
		}
		// The freed tail slot is reused, ticket included.
		assert.Equal(t, 2, added.Position)
		assert.Equal(t, "TICKET-2", added.TicketNumber)
		return nil
	})
	require.NoError(t, err)
}
