package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marine-obs/plet-harvester/internal/plet"
	"github.com/marine-obs/plet-harvester/internal/store"
)

func TestRunLifecycle(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	run := store.Run{ID: "run-1", StartedAt: time.Now().UTC()}

	require.NoError(t, s.CreateRun(ctx, run))
	require.Error(t, s.CreateRun(ctx, run), "duplicate run IDs are rejected")

	outcome := plet.HarvestOutcome{
		Task: plet.HarvestTask{DatasetName: "ds", RegionID: "1", OutputName: "out.csv"},
		Kind: plet.OutcomeSuccess,
		Path: "/tmp/out.csv",
	}
	require.NoError(t, s.RecordOutcome(ctx, "run-1", outcome))
	require.Error(t, s.RecordOutcome(ctx, "missing", outcome))

	got := s.Outcomes("run-1")
	require.Len(t, got, 1)
	assert.Equal(t, "out.csv", got[0].Task.OutputName)

	report := plet.BatchReport{Succeeded: []string{"out.csv"}}
	require.NoError(t, s.FinishRun(ctx, "run-1", time.Now(), report))
	require.Error(t, s.FinishRun(ctx, "missing", time.Now(), report))

	final, ok := s.Report("run-1")
	require.True(t, ok)
	assert.Equal(t, report, final)

	_, ok = s.Report("missing")
	assert.False(t, ok)
}

func TestOutcomesReturnsCopy(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateRun(ctx, store.Run{ID: "run-1"}))
	require.NoError(t, s.RecordOutcome(ctx, "run-1", plet.HarvestOutcome{Kind: plet.OutcomeCached}))

	got := s.Outcomes("run-1")
	got[0].Kind = plet.OutcomeFailed

	assert.Equal(t, plet.OutcomeCached, s.Outcomes("run-1")[0].Kind)
}
