// Package postgres provides a Postgres-backed RunStore.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marine-obs/plet-harvester/internal/plet"
	"github.com/marine-obs/plet-harvester/internal/store"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool and table names.
type Config struct {
	DSN             string
	RunsTable       string
	OutcomeTable    string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// Store writes run history rows into Postgres.
//
// Expected schema:
//
//	CREATE TABLE harvest_runs (
//	    id UUID PRIMARY KEY,
//	    started_at TIMESTAMPTZ NOT NULL,
//	    start_date DATE NOT NULL,
//	    end_date DATE NOT NULL,
//	    out_dir TEXT NOT NULL,
//	    overwrite BOOLEAN NOT NULL,
//	    finished_at TIMESTAMPTZ,
//	    succeeded INT,
//	    failed INT,
//	    cached INT
//	);
//
//	CREATE TABLE harvest_outcomes (
//	    run_id UUID NOT NULL REFERENCES harvest_runs (id),
//	    dataset_name TEXT NOT NULL,
//	    region_id TEXT,
//	    output_name TEXT NOT NULL,
//	    outcome TEXT NOT NULL,
//	    path TEXT,
//	    error_text TEXT,
//	    duration_ms BIGINT
//	);
type Store struct {
	pool         execCloser
	runsTable    string
	outcomeTable string
}

// New creates a Postgres-backed Store using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return NewWithPool(pool, cfg.RunsTable, cfg.OutcomeTable)
}

// NewWithPool constructs a Store from an existing pool (primarily for
// testing).
func NewWithPool(pool execCloser, runsTable, outcomeTable string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if runsTable == "" {
		runsTable = "harvest_runs"
	}
	if outcomeTable == "" {
		outcomeTable = "harvest_outcomes"
	}
	if !validTableName.MatchString(runsTable) {
		return nil, fmt.Errorf("invalid table name %q", runsTable)
	}
	if !validTableName.MatchString(outcomeTable) {
		return nil, fmt.Errorf("invalid table name %q", outcomeTable)
	}
	return &Store{pool: pool, runsTable: runsTable, outcomeTable: outcomeTable}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// CreateRun inserts a run row.
func (s *Store) CreateRun(ctx context.Context, run store.Run) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, started_at, start_date, end_date, out_dir, overwrite)
VALUES ($1,$2,$3,$4,$5,$6)`, s.runsTable)

	if _, err := s.pool.Exec(ctx, query,
		run.ID,
		run.StartedAt,
		run.StartDate,
		run.EndDate,
		run.OutDir,
		run.Overwrite,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordOutcome inserts one outcome row for the run.
func (s *Store) RecordOutcome(ctx context.Context, runID string, outcome plet.HarvestOutcome) error {
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	errText := ""
	if outcome.Err != nil {
		errText = outcome.Err.Error()
	}
	query := fmt.Sprintf(`
INSERT INTO %s (run_id, dataset_name, region_id, output_name, outcome, path, error_text, duration_ms)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`, s.outcomeTable)

	if _, err := s.pool.Exec(ctx, query,
		runID,
		outcome.Task.DatasetName,
		outcome.Task.RegionID,
		outcome.Task.OutputName,
		string(outcome.Kind),
		outcome.Path,
		errText,
		outcome.Duration.Milliseconds(),
	); err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// FinishRun records the batch totals and finish time.
func (s *Store) FinishRun(ctx context.Context, runID string, finishedAt time.Time, report plet.BatchReport) error {
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	query := fmt.Sprintf(`
UPDATE %s SET finished_at = $2, succeeded = $3, failed = $4, cached = $5
WHERE id = $1`, s.runsTable)

	if _, err := s.pool.Exec(ctx, query,
		runID,
		finishedAt,
		len(report.Succeeded),
		len(report.Failed),
		len(report.Cached),
	); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}
