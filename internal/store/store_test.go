package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cxd309/minimetro/internal/network"
	"github.com/cxd309/minimetro/internal/store"
	"github.com/cxd309/minimetro/internal/tracker"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	id, err := s.BeginRun(ctx, "two-stop", 1<<63+5)
	require.NoError(t, err)

	samples := []store.Sample{
		{Tick: 0, Time: 0},
		{Tick: 60, Time: 1, Counters: tracker.Counters{TotalPassengers: 4, PassengersArrived: 1, PassengersLost: 1}, Waiting: 1, Onboard: 1},
	}
	require.NoError(t, s.RecordSamples(ctx, id, samples))
	require.NoError(t, s.RecordSamples(ctx, id, nil))

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, "two-stop", runs[0].SimulationID)
	assert.Equal(t, uint64(1<<63+5), runs[0].Seed)
	assert.Nil(t, runs[0].FinishedAt)

	require.NoError(t, s.FinishRun(ctx, id))
	runs, err = s.Runs(ctx)
	require.NoError(t, err)
	require.NotNil(t, runs[0].FinishedAt)
	assert.False(t, runs[0].FinishedAt.Before(runs[0].StartedAt))

	got, err := s.Samples(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, samples, got)
}

func TestRecordSamplesReplacesTick(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	id, err := s.BeginRun(ctx, "replace", 1)
	require.NoError(t, err)

	require.NoError(t, s.RecordSamples(ctx, id, []store.Sample{{Tick: 10, Waiting: 1}}))
	require.NoError(t, s.RecordSamples(ctx, id, []store.Sample{{Tick: 10, Waiting: 7}}))

	got, err := s.Samples(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].Waiting)
}

func TestFinishUnknownRun(t *testing.T) {
	s := openStore(t)
	err := s.FinishRun(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrRunNotFound)
}

func TestSamplesRequireRun(t *testing.T) {
	s := openStore(t)
	err := s.RecordSamples(context.Background(), uuid.New(), []store.Sample{{Tick: 1}})
	assert.Error(t, err, "foreign key to runs")
}

func TestSampleOf(t *testing.T) {
	snap := network.Snapshot{
		Time:     2.5,
		Counters: tracker.Counters{TotalPassengers: 3, PassengersLost: 1},
		Waiting:  2,
	}
	assert.Equal(t, store.Sample{
		Tick:     150,
		Time:     2.5,
		Counters: tracker.Counters{TotalPassengers: 3, PassengersLost: 1},
		Waiting:  2,
	}, store.SampleOf(150, snap))
}
