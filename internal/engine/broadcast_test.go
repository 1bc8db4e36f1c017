package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/walkin-queue/internal/model"
)

func composeFor(t *testing.T, store *memStore, queueID uint64) (*StaffUpdate, map[uint64]MemberUpdate) {
	t.Helper()
	b := NewBroadcaster(store, &recordingPublisher{}, NewEstimator(store))
	staff, updates, err := b.Compose(context.Background(), queueID)
	require.NoError(t, err)
	return staff, updates
}

func TestComposeRanksWithNobodyServing(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	qid := store.addQueue("Counter A", true, false, true)
	ada := store.addCustomer("Ada")
	ben := store.addCustomer("Ben")
	cleo := store.addCustomer("Cleo")
	for _, cid := range []uint64{ada, ben, cleo} {
		_, err := eng.AddCustomer(context.Background(), staff, qid, cid)
		require.NoError(t, err)
	}

	st, updates := composeFor(t, store, qid)

	// No history: the default 300s average applies.
	assert.Equal(t, 300.0, st.AverageServiceTime)
	assert.Equal(t, model.QueueStateReadyToCall, st.QueueState)
	require.NotNil(t, st.CurrentCustomer)
	assert.Equal(t, ada, st.CurrentCustomer.ID)
	assert.Equal(t, "Ada", st.CurrentCustomer.Name)
	assert.Equal(t, 3, st.TotalMembers)
	assert.Equal(t, 3, st.WaitingCount)

	// Head of the queue: rank 0, half a service away.
	require.Contains(t, updates, ada)
	assert.Equal(t, 0, updates[ada].Position)
	assert.Equal(t, 150.0, updates[ada].EstimatedWaitingTime)

	// Everyone else waits rank x average.
	assert.Equal(t, 1, updates[ben].Position)
	assert.Equal(t, 300.0, updates[ben].EstimatedWaitingTime)
	assert.Equal(t, 2, updates[cleo].Position)
	assert.Equal(t, 600.0, updates[cleo].EstimatedWaitingTime)
}

func TestComposeRanksWithServingMember(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	qid := store.addQueue("Counter A", true, false, true)
	ada := store.addCustomer("Ada")
	ben := store.addCustomer("Ben")
	cleo := store.addCustomer("Cleo")
	for _, cid := range []uint64{ada, ben, cleo} {
		_, err := eng.AddCustomer(context.Background(), staff, qid, cid)
		require.NoError(t, err)
	}
	_, err := eng.CallNext(context.Background(), staff, qid)
	require.NoError(t, err)

	st, updates := composeFor(t, store, qid)

	assert.Equal(t, model.QueueStateActive, st.QueueState)
	require.NotNil(t, st.CurrentCustomer)
	assert.Equal(t, ada, st.CurrentCustomer.ID)
	require.NotNil(t, st.NextCustomer)
	assert.Equal(t, ben, st.NextCustomer.ID)
	assert.Equal(t, 2, st.WaitingCount)

	// Being served right now: no wait at all.
	assert.Equal(t, 0.0, updates[ada].EstimatedWaitingTime)
	// Next in line: the service in progress is half done on average.
	assert.Equal(t, 150.0, updates[ben].EstimatedWaitingTime)
	// One full service behind that.
	assert.Equal(t, 450.0, updates[cleo].EstimatedWaitingTime)
}

func TestComposePausedEstimatesAreIndefinite(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	qid := store.addQueue("Counter A", true, false, true)
	ada := store.addCustomer("Ada")
	ben := store.addCustomer("Ben")
	for _, cid := range []uint64{ada, ben} {
		_, err := eng.AddCustomer(context.Background(), staff, qid, cid)
		require.NoError(t, err)
	}
	require.NoError(t, eng.Pause(context.Background(), staff, qid))

	st, updates := composeFor(t, store, qid)

	assert.Equal(t, model.QueueStatePaused, st.QueueState)
	assert.True(t, st.IsPaused)
	for cid, u := range updates {
		assert.Equal(t, -1.0, u.EstimatedWaitingTime, "customer %d", cid)
	}
}

func TestComposeEmptyQueue(t *testing.T) {
	store := newMemStore()
	qid := store.addQueue("Counter A", true, false, true)

	st, updates := composeFor(t, store, qid)

	assert.Nil(t, st.CurrentCustomer)
	assert.Nil(t, st.NextCustomer)
	assert.Zero(t, st.TotalMembers)
	assert.Empty(t, updates)
}

func TestComposeUnknownQueue(t *testing.T) {
	store := newMemStore()
	b := NewBroadcaster(store, nil, NewEstimator(store))
	_, _, err := b.Compose(context.Background(), 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBroadcastSurvivesPublisherFailure(t *testing.T) {
	store := newMemStore()
	notifier := &recordingNotifier{}
	publisher := &recordingPublisher{fail: true}
	eng := New(store, notifier, publisher)
	qid := store.addQueue("Counter A", true, false, true)
	ada := store.addCustomer("Ada")

	// The mutation must succeed even though every publish fails.
	member, err := eng.AddCustomer(context.Background(), staff, qid, ada)
	require.NoError(t, err)
	assert.Equal(t, 1, member.Position)
}

func TestBroadcastWithNilPublisher(t *testing.T) {
	store := newMemStore()
	eng := New(store, nil, nil)
	qid := store.addQueue("Counter A", true, false, true)
	ada := store.addCustomer("Ada")

	_, err := eng.AddCustomer(context.Background(), staff, qid, ada)
	require.NoError(t, err)
}

func TestEstimateWaitFreshHistoryReflectsImmediately(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	qid := store.addQueue("Counter A", true, false, true)
	ada := store.addCustomer("Ada")
	ben := store.addCustomer("Ben")
	for _, cid := range []uint64{ada, ben} {
		_, err := eng.AddCustomer(context.Background(), staff, qid, cid)
		require.NoError(t, err)
	}
	// Seed one completed service of 120s; queue length 2 samples 1 record.
	seedServed(store, qid, 120)

	_, updates := composeFor(t, store, qid)
	assert.Equal(t, 60.0, updates[ada].EstimatedWaitingTime)
	assert.Equal(t, 120.0, updates[ben].EstimatedWaitingTime)
}
