// Package store defines run-history persistence for harvest batches.
// The store is observability only: the on-disk output files remain the
// system's cache and source of truth.
package store

import (
	"context"
	"time"

	"github.com/marine-obs/plet-harvester/internal/plet"
)

// Run is the metadata persisted for each batch invocation.
type Run struct {
	ID        string
	StartedAt time.Time
	StartDate time.Time
	EndDate   time.Time
	OutDir    string
	Overwrite bool
}

// RunStore persists runs and their per-task outcomes.
type RunStore interface {
	CreateRun(ctx context.Context, run Run) error
	RecordOutcome(ctx context.Context, runID string, outcome plet.HarvestOutcome) error
	FinishRun(ctx context.Context, runID string, finishedAt time.Time, report plet.BatchReport) error
	Close()
}
