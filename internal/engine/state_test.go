package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/walkin-queue/internal/model"
)

func TestQueueStateDerivation(t *testing.T) {
	cases := []struct {
		name    string
		active  bool
		paused  bool
		serving bool
		want    string
	}{
		{"inactive", false, false, false, model.QueueStateInactive},
		{"paused wins over active", true, true, true, model.QueueStatePaused},
		{"active nobody serving", true, false, false, model.QueueStateReadyToCall},
		{"active serving", true, false, true, model.QueueStateActive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := &model.Queue{IsActive: tc.active, IsPaused: tc.paused}
			assert.Equal(t, tc.want, queueState(q, tc.serving))
		})
	}
}

func TestActivateFromAnyState(t *testing.T) {
	q := &model.Queue{}
	assert.True(t, activateQueue(q))
	assert.True(t, q.IsActive)

	// Already active and unpaused: nothing to do.
	assert.False(t, activateQueue(q))

	q.IsPaused = true
	assert.True(t, activateQueue(q))
	assert.False(t, q.IsPaused)
}

func TestPauseRules(t *testing.T) {
	q := &model.Queue{}
	_, err := pauseQueue(q)
	require.ErrorIs(t, err, ErrInvalidState)

	q.IsActive = true
	changed, err := pauseQueue(q)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, q.IsPaused)

	changed, err = pauseQueue(q)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestResumeOnlyWhenPaused(t *testing.T) {
	q := &model.Queue{IsActive: true}
	assert.False(t, resumeQueue(q))

	q.IsPaused = true
	assert.True(t, resumeQueue(q))
	assert.False(t, q.IsPaused)
}

func TestDeactivateClearsBothFlags(t *testing.T) {
	q := &model.Queue{IsActive: true, IsPaused: true}
	assert.True(t, deactivateQueue(q))
	assert.False(t, q.IsActive)
	assert.False(t, q.IsPaused)

	assert.False(t, deactivateQueue(q))
}
