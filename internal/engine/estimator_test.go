package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/walkin-queue/internal/model"
)

func seedServed(store *memStore, queueID uint64, durations ...float64) {
	for _, d := range durations {
		store.served[queueID] = append(store.served[queueID], model.ServedRecord{
			QueueID:     queueID,
			WaitingTime: d,
		})
	}
}

func TestAverageDefaultsWithoutHistory(t *testing.T) {
	store := newMemStore()
	qid := store.addQueue("Counter A", true, false, true)
	est := NewEstimator(store)

	avg, err := est.AverageServiceTime(context.Background(), qid, 4)
	require.NoError(t, err)
	assert.Equal(t, 300.0, avg)
}

func TestAverageUsesNewestWindow(t *testing.T) {
	store := newMemStore()
	qid := store.addQueue("Counter A", true, false, true)
	// Oldest first; the estimator must only see the newest records.
	seedServed(store, qid, 1000, 1000, 120, 180, 240)
	est := NewEstimator(store)

	// Queue length 5 -> window max(1, round(2.5)) = 3 newest records.
	avg, err := est.AverageServiceTime(context.Background(), qid, 5)
	require.NoError(t, err)
	assert.InDelta(t, 180.0, avg, 0.001)
}

func TestAverageWindowNeverBelowOne(t *testing.T) {
	store := newMemStore()
	qid := store.addQueue("Counter A", true, false, true)
	seedServed(store, qid, 100, 200)
	est := NewEstimator(store)

	// An empty queue still samples the single newest record.
	avg, err := est.AverageServiceTime(context.Background(), qid, 0)
	require.NoError(t, err)
	assert.InDelta(t, 200.0, avg, 0.001)
}

func TestAverageFloorsFastCompletions(t *testing.T) {
	store := newMemStore()
	qid := store.addQueue("Counter A", true, false, true)
	seedServed(store, qid, 2, 3, 1)
	est := NewEstimator(store)

	avg, err := est.AverageServiceTime(context.Background(), qid, 6)
	require.NoError(t, err)
	assert.Equal(t, 30.0, avg)
}

func TestAverageShrinksWithShortQueues(t *testing.T) {
	store := newMemStore()
	qid := store.addQueue("Counter A", true, false, true)
	seedServed(store, qid, 600, 60)
	est := NewEstimator(store)

	// Queue length 2 -> window of 1: only the newest record counts.
	avg, err := est.AverageServiceTime(context.Background(), qid, 2)
	require.NoError(t, err)
	assert.InDelta(t, 60.0, avg, 0.001)
}
