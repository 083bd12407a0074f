package job

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStateTransitions(t *testing.T) {
	t.Parallel()

	s := NewState()
	require.Equal(t, StatusIdle, s.Snapshot().Status)

	_, err := s.TogglePause()
	require.ErrorIs(t, err, ErrNoActiveRun)
	require.ErrorIs(t, s.RequestStop(), ErrNoActiveRun)

	now := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.begin("run-1", now))
	require.ErrorIs(t, s.begin("run-2", now), ErrRunActive)

	status, err := s.TogglePause()
	require.NoError(t, err)
	require.Equal(t, StatusPaused, status)
	require.Equal(t, msgPaused, s.Snapshot().Message)
	require.ErrorIs(t, s.begin("run-2", now), ErrRunActive)

	status, err = s.TogglePause()
	require.NoError(t, err)
	require.Equal(t, StatusRunning, status)

	require.NoError(t, s.RequestStop())
	require.Equal(t, StatusStopped, s.Snapshot().Status)
	// The run goroutine has not finished yet.
	require.ErrorIs(t, s.begin("run-2", now), ErrRunActive)

	snap := s.finish(StatusStopped, Summary{Success: true, Message: "done"}, now.Add(time.Minute))
	require.Equal(t, "done", snap.Message)
	require.NotNil(t, snap.FinishedAt)
	require.ErrorIs(t, s.begin("run-2", now), ErrRunActive)
	s.release()
	require.NoError(t, s.begin("run-2", now))
	require.Equal(t, "run-2", s.Snapshot().RunID)
	require.Equal(t, "done", s.Snapshot().Result.Message, "previous result stays visible")
}

func TestStateSnapshotIsCopy(t *testing.T) {
	t.Parallel()

	s := NewState()
	require.NoError(t, s.begin("run", time.Now()))
	s.finish(StatusCompleted, Summary{Processed: 3}, time.Now())
	s.release()

	snap := s.Snapshot()
	snap.Result.Processed = 99
	require.Equal(t, 3, s.Snapshot().Result.Processed)
}

func TestCheckpointBlocksWhilePaused(t *testing.T) {
	t.Parallel()

	s := NewState()
	require.NoError(t, s.begin("run", time.Now()))
	require.True(t, s.checkpoint())

	_, err := s.TogglePause()
	require.NoError(t, err)

	result := make(chan bool, 1)
	go func() { result <- s.checkpoint() }()

	require.Never(t, func() bool { return len(result) > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	_, err = s.TogglePause()
	require.NoError(t, err)
	require.True(t, <-result)

	_, err = s.TogglePause()
	require.NoError(t, err)
	go func() { result <- s.checkpoint() }()
	require.NoError(t, s.RequestStop())
	require.False(t, <-result)
}

func TestWaitReturnsWhenIdle(t *testing.T) {
	t.Parallel()

	s := NewState()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.Equal(t, StatusIdle, s.Wait(ctx).Status)
}
