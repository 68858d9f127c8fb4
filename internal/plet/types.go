// Package plet implements the harvesting core for the DASSH PLET
// abundance query service: query construction, the retrying fetch
// client, filesystem-safe naming, CSV normalization and the batch
// orchestrator.
package plet

import (
	"context"
	"time"
)

// DateFormat is the ISO date layout the PLET endpoint expects.
const DateFormat = "2006-01-02"

// Query captures one spatio-temporal request against the PLET endpoint.
type Query struct {
	StartDate   time.Time
	EndDate     time.Time
	WKT         string
	DatasetName string
}

// HarvestTask is one unit of work: a (dataset, region, window)
// combination plus its precomputed output name. Immutable once built.
type HarvestTask struct {
	DatasetName string
	RegionID    string
	WKT         string
	StartDate   time.Time
	EndDate     time.Time
	OutputName  string
}

// Query builds the fetch query for the task.
func (t HarvestTask) Query() Query {
	return Query{
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		WKT:         t.WKT,
		DatasetName: t.DatasetName,
	}
}

// OutcomeKind tags the terminal state of a HarvestTask.
type OutcomeKind string

// Outcome kinds recorded in the batch report.
const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeCached  OutcomeKind = "cached"
	OutcomeFailed  OutcomeKind = "failed"
)

// HarvestOutcome is the result of exactly one HarvestTask.
type HarvestOutcome struct {
	Task     HarvestTask
	Kind     OutcomeKind
	Path     string
	Err      error
	Duration time.Duration
}

// BatchReport aggregates per-task outcomes for one run. The lists hold
// task output names in submission order.
type BatchReport struct {
	Succeeded []string
	Failed    []string
	Cached    []string
}

// Total returns the number of tasks the report covers.
func (r BatchReport) Total() int {
	return len(r.Succeeded) + len(r.Failed) + len(r.Cached)
}

// RetryConfig bounds the fetch client's retry loop.
type RetryConfig struct {
	// Retries is the maximum number of network attempts (>= 1).
	Retries int
	// Backoff is the base wait before the second attempt; it doubles
	// after every further failure.
	Backoff time.Duration
	// Timeout bounds each individual attempt.
	Timeout time.Duration
}

// Fetcher executes one validated query against the remote service.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) ([]byte, error)
}

// Sink persists a harvested payload under a deterministic name.
type Sink interface {
	// Path maps an output name to the absolute destination path.
	Path(name string) string
	// Write normalizes and persists the payload, returning the path.
	Write(ctx context.Context, name string, payload []byte) (string, error)
}

// Clock abstracts wall-clock reads and backoff sleeps so tests never
// block on real time.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}
