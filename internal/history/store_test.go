package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/lox/blackjackbots/internal/statistics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate())
	return s
}

func TestSaveAndGetRun(t *testing.T) {
	s := openStore(t)

	run := &Run{Command: "train", Player: "agent", Method: "td", Seed: 42}
	require.NoError(t, s.SaveRun(run))
	require.NotEmpty(t, run.ID)
	assert.Equal(t, StatusRunning, run.Status)

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, "train", got.Command)
	assert.Equal(t, int64(42), got.Seed)
	assert.Equal(t, StatusRunning, got.Status)
	assert.True(t, got.FinishedAt.IsZero())
	assert.WithinDuration(t, run.CreatedAt, got.CreatedAt, time.Millisecond)
}

func TestUpdateRun(t *testing.T) {
	s := openStore(t)
	run := &Run{Command: "benchmark", Player: "basic", Seed: 1}
	require.NoError(t, s.SaveRun(run))

	stats := &statistics.Statistics{}
	stats.Add(statistics.RoundResult{Reward: 1, Stands: 1})
	stats.Add(statistics.RoundResult{Reward: -1, Hits: 1})
	stats.Add(statistics.RoundResult{Reward: 1, Hits: 1, Stands: 1})
	run.Record(stats)
	run.Status = StatusCompleted
	run.FinishedAt = time.Now()
	require.NoError(t, s.UpdateRun(run))

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Rounds)
	assert.Equal(t, 2, got.Wins)
	assert.Equal(t, 1, got.Losses)
	assert.Equal(t, 2, got.Hits)
	assert.InDelta(t, 1.0/3.0, got.MeanReward, 1e-9)
	assert.InDelta(t, 200.0/3.0, got.WinRate(), 1e-9)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.False(t, got.FinishedAt.IsZero())
}

func TestUpdateUnknownRun(t *testing.T) {
	s := openStore(t)
	err := s.UpdateRun(&Run{ID: "nope"})
	assert.True(t, errors.Is(err, ErrRunNotFound))

	_, err = s.GetRun("nope")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestListRunsNewestFirst(t *testing.T) {
	s := openStore(t)
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, cmd := range []string{"train", "benchmark", "evaluate"} {
		require.NoError(t, s.SaveRun(&Run{
			Command:   cmd,
			Player:    "agent",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	runs, err := s.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "evaluate", runs[0].Command)
	assert.Equal(t, "benchmark", runs[1].Command)

	all, err := s.ListRuns(0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMigrateIsIdempotentOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	require.NoError(t, s.SaveRun(&Run{Command: "play", Player: "human"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate())
	runs, err := s.ListRuns(10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
