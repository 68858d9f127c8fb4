// Package memory provides an in-memory RunStore, used when no database
// is configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/marine-obs/plet-harvester/internal/plet"
	"github.com/marine-obs/plet-harvester/internal/store"
)

// Store keeps runs and outcomes in memory.
type Store struct {
	mu       sync.Mutex
	runs     map[string]store.Run
	outcomes map[string][]plet.HarvestOutcome
	finished map[string]plet.BatchReport
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		runs:     make(map[string]store.Run),
		outcomes: make(map[string][]plet.HarvestOutcome),
		finished: make(map[string]plet.BatchReport),
	}
}

// CreateRun registers a run.
func (s *Store) CreateRun(_ context.Context, run store.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; ok {
		return fmt.Errorf("run %s already exists", run.ID)
	}
	s.runs[run.ID] = run
	return nil
}

// RecordOutcome appends an outcome to the run.
func (s *Store) RecordOutcome(_ context.Context, runID string, outcome plet.HarvestOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[runID]; !ok {
		return fmt.Errorf("unknown run %s", runID)
	}
	s.outcomes[runID] = append(s.outcomes[runID], outcome)
	return nil
}

// FinishRun stores the final report for the run.
func (s *Store) FinishRun(_ context.Context, runID string, _ time.Time, report plet.BatchReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[runID]; !ok {
		return fmt.Errorf("unknown run %s", runID)
	}
	s.finished[runID] = report
	return nil
}

// Close is a no-op.
func (s *Store) Close() {}

// Outcomes returns the recorded outcomes for a run.
func (s *Store) Outcomes(runID string) []plet.HarvestOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]plet.HarvestOutcome, len(s.outcomes[runID]))
	copy(out, s.outcomes[runID])
	return out
}

// Report returns the final report for a finished run.
func (s *Store) Report(runID string) (plet.BatchReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.finished[runID]
	return r, ok
}
