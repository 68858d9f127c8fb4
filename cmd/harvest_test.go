package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marine-obs/plet-harvester/internal/config"
	"github.com/marine-obs/plet-harvester/internal/plet"
	"github.com/marine-obs/plet-harvester/internal/store"
	"github.com/marine-obs/plet-harvester/internal/store/memory"
)

func TestBuildRecorderDefaultsToMemory(t *testing.T) {
	t.Parallel()

	recorder, closeRecorder, err := buildRecorder(context.Background(), config.Config{}, zap.NewNop())
	require.NoError(t, err)
	defer closeRecorder()

	ms, ok := recorder.(*memory.Store)
	require.True(t, ok, "without db.dsn the run history lands in memory")

	// The full run lifecycle works against the default recorder.
	ctx := context.Background()
	require.NoError(t, ms.CreateRun(ctx, store.Run{ID: "run-1", StartedAt: time.Now().UTC()}))
	require.NoError(t, ms.RecordOutcome(ctx, "run-1", plet.HarvestOutcome{Kind: plet.OutcomeSuccess}))
	require.NoError(t, ms.FinishRun(ctx, "run-1", time.Now(), plet.BatchReport{Succeeded: []string{"a.csv"}}))

	report, ok := ms.Report("run-1")
	require.True(t, ok)
	require.Equal(t, []string{"a.csv"}, report.Succeeded)
}

func TestBuildRecorderRejectsBadDSN(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}
	cfg.DB.DSN = "://not-a-dsn"
	_, _, err := buildRecorder(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
}
