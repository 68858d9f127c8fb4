package plet

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// RegionSource supplies region identifiers and their query geometry.
type RegionSource interface {
	IDs() []string
	WKT(id string, simplify bool) (string, error)
}

// RunRecorder persists per-task outcomes for a run. Recording is
// observability only; failures are logged, never surfaced to tasks.
type RunRecorder interface {
	RecordOutcome(ctx context.Context, runID string, outcome HarvestOutcome) error
}

// Publisher pushes outcome events to a topic (Pub/Sub or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Harvester drives a batch of harvest tasks to completion, tolerating
// per-task failure. Tasks run strictly in submission order.
type Harvester struct {
	fetcher   Fetcher
	sink      Sink
	clock     Clock
	recorder  RunRecorder
	publisher Publisher
	topic     string
	logger    *zap.Logger
}

// NewHarvester builds a Harvester. recorder and publisher may be nil.
func NewHarvester(
	fetcher Fetcher,
	sink Sink,
	clock Clock,
	recorder RunRecorder,
	publisher Publisher,
	topic string,
	logger *zap.Logger,
) (*Harvester, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if sink == nil {
		return nil, fmt.Errorf("sink is required")
	}
	if clock == nil {
		return nil, fmt.Errorf("clock is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harvester{
		fetcher:   fetcher,
		sink:      sink,
		clock:     clock,
		recorder:  recorder,
		publisher: publisher,
		topic:     topic,
		logger:    logger,
	}, nil
}

// PlanAssessment builds the dataset x region cross product of harvest
// tasks for one date window. Region geometry is resolved (and
// simplified) once per region and reused across datasets. A geometry
// failure aborts planning: without a region polygon there is nothing
// to iterate over.
func PlanAssessment(regions RegionSource, datasets []string, start, end time.Time) ([]HarvestTask, error) {
	ids := regions.IDs()
	wkts := make(map[string]string, len(ids))
	for _, id := range ids {
		w, err := regions.WKT(id, true)
		if err != nil {
			return nil, fmt.Errorf("resolve geometry for region %s: %w", id, err)
		}
		wkts[id] = w
	}

	tasks := make([]HarvestTask, 0, len(datasets)*len(ids))
	for _, dataset := range datasets {
		for _, id := range ids {
			tasks = append(tasks, HarvestTask{
				DatasetName: dataset,
				RegionID:    id,
				WKT:         wkts[id],
				StartDate:   start,
				EndDate:     end,
				OutputName:  OutputName(dataset, id, start, end),
			})
		}
	}
	return tasks, nil
}

// PlanWindow builds one task per dataset over a single fixed geometry,
// for harvests that do not cross-reference named regions.
func PlanWindow(datasets []string, regionID, wktText string, start, end time.Time) []HarvestTask {
	tasks := make([]HarvestTask, 0, len(datasets))
	for _, dataset := range datasets {
		tasks = append(tasks, HarvestTask{
			DatasetName: dataset,
			RegionID:    regionID,
			WKT:         wktText,
			StartDate:   start,
			EndDate:     end,
			OutputName:  OutputName(dataset, regionID, start, end),
		})
	}
	return tasks
}

// RunBatch processes tasks in order. When overwrite is false, a task
// whose output file already exists is recorded as cached without any
// network call. Individual task failures are logged and recorded; they
// never abort the batch.
func (h *Harvester) RunBatch(ctx context.Context, runID string, tasks []HarvestTask, overwrite bool) BatchReport {
	report := BatchReport{}
	h.logger.Info("starting batch",
		zap.String("run_id", runID),
		zap.Int("tasks", len(tasks)),
		zap.Bool("overwrite", overwrite),
	)

	for i, task := range tasks {
		outcome := h.runTask(ctx, task, overwrite)
		switch outcome.Kind {
		case OutcomeSuccess:
			TotalHarvested.Inc()
			report.Succeeded = append(report.Succeeded, task.OutputName)
			h.logger.Info("task succeeded",
				zap.Int("task", i+1),
				zap.Int("of", len(tasks)),
				zap.String("dataset", task.DatasetName),
				zap.String("region", task.RegionID),
				zap.Duration("duration", outcome.Duration),
				zap.String("path", outcome.Path),
			)
		case OutcomeCached:
			TotalCacheHits.Inc()
			report.Cached = append(report.Cached, task.OutputName)
			h.logger.Info("task cached",
				zap.Int("task", i+1),
				zap.Int("of", len(tasks)),
				zap.String("dataset", task.DatasetName),
				zap.String("region", task.RegionID),
				zap.String("path", outcome.Path),
			)
		case OutcomeFailed:
			TotalTaskFailures.Inc()
			report.Failed = append(report.Failed, task.OutputName)
			h.logger.Error("task failed",
				zap.Int("task", i+1),
				zap.Int("of", len(tasks)),
				zap.String("dataset", task.DatasetName),
				zap.String("region", task.RegionID),
				zap.Error(outcome.Err),
			)
		}
		h.record(ctx, runID, outcome)
		h.publish(ctx, runID, outcome)
	}

	h.logger.Info("batch finished",
		zap.String("run_id", runID),
		zap.Int("succeeded", len(report.Succeeded)),
		zap.Int("failed", len(report.Failed)),
		zap.Int("cached", len(report.Cached)),
	)
	return report
}

func (h *Harvester) runTask(ctx context.Context, task HarvestTask, overwrite bool) HarvestOutcome {
	started := h.clock.Now()
	path := h.sink.Path(task.OutputName)

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return HarvestOutcome{Task: task, Kind: OutcomeCached, Path: path}
		}
	}

	payload, err := h.fetcher.Fetch(ctx, task.Query())
	if err != nil {
		return HarvestOutcome{
			Task:     task,
			Kind:     OutcomeFailed,
			Err:      fmt.Errorf("fetch %s: %w", task.DatasetName, err),
			Duration: h.clock.Now().Sub(started),
		}
	}

	written, err := h.sink.Write(ctx, task.OutputName, payload)
	if err != nil {
		return HarvestOutcome{
			Task:     task,
			Kind:     OutcomeFailed,
			Err:      fmt.Errorf("persist %s: %w", task.OutputName, err),
			Duration: h.clock.Now().Sub(started),
		}
	}

	return HarvestOutcome{
		Task:     task,
		Kind:     OutcomeSuccess,
		Path:     written,
		Duration: h.clock.Now().Sub(started),
	}
}

func (h *Harvester) record(ctx context.Context, runID string, outcome HarvestOutcome) {
	if h.recorder == nil {
		return
	}
	if err := h.recorder.RecordOutcome(ctx, runID, outcome); err != nil {
		h.logger.Warn("record outcome failed",
			zap.String("run_id", runID),
			zap.String("output", outcome.Task.OutputName),
			zap.Error(err),
		)
	}
}

func (h *Harvester) publish(ctx context.Context, runID string, outcome HarvestOutcome) {
	if h.publisher == nil || h.topic == "" {
		return
	}
	payload := map[string]any{
		"run_id":    runID,
		"dataset":   outcome.Task.DatasetName,
		"region":    outcome.Task.RegionID,
		"outcome":   string(outcome.Kind),
		"path":      outcome.Path,
		"timestamp": h.clock.Now().Format(time.RFC3339),
	}
	if outcome.Err != nil {
		payload["error"] = outcome.Err.Error()
	}
	if _, err := h.publisher.Publish(ctx, h.topic, payload); err != nil {
		h.logger.Warn("publish outcome failed",
			zap.String("run_id", runID),
			zap.String("output", outcome.Task.OutputName),
			zap.Error(err),
		)
	}
}
