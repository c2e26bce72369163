package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/idhash"
	"token-demand-lab/internal/metrics"
	"token-demand-lab/internal/observability"
	"token-demand-lab/internal/storage"
)

// Runner executes simulations and persists their runs.
type Runner struct {
	runStore    storage.RunStore
	seriesStore storage.SeriesStore
	logger      logrus.FieldLogger
	now         func() time.Time
}

// RunnerOptions contains configuration for creating a Runner.
// Both stores are optional; a nil store skips that persistence step.
type RunnerOptions struct {
	RunStore    storage.RunStore
	SeriesStore storage.SeriesStore
	Logger      logrus.FieldLogger
	Clock       func() time.Time
}

// NewRunner creates a simulation runner.
func NewRunner(opts RunnerOptions) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Runner{
		runStore:    opts.RunStore,
		seriesStore: opts.SeriesStore,
		logger:      logger,
		now:         now,
	}
}

// RunRequest identifies one simulation inside an optional sweep batch.
type RunRequest struct {
	BatchID string
	Label   string
	Model   domain.ModelTag
	Params  domain.SimulationParameters
}

// RunOutput is the outcome of a Runner call.
type RunOutput struct {
	Run    *domain.RunRecord
	Result *domain.SimulationResult

	// AlreadyStored is true when an identical run was found in storage.
	AlreadyStored bool
}

// Run executes a standalone simulation for tag with params.
func (r *Runner) Run(ctx context.Context, tag domain.ModelTag, params domain.SimulationParameters) (*RunOutput, error) {
	return r.Execute(ctx, RunRequest{Model: tag, Params: params})
}

// Execute runs a request.
// Steps:
//  1. Simulate the selected model
//  2. Summarize the result
//  3. Derive the deterministic run_id
//  4. Persist run then series, treating duplicates as already stored
func (r *Runner) Execute(ctx context.Context, req RunRequest) (*RunOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 1. Simulate
	start := time.Now()
	result, err := Simulate(req.Model, req.Params)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		observability.RecordSimulation(req.Model.String(), "error", elapsed)
		observability.RecordSimulationError(req.Model.String(), errorKind(err))
		return nil, err
	}
	observability.RecordSimulation(req.Model.String(), "success", elapsed)
	if result.Surge != nil {
		observability.RecordSurgeEvents(len(result.Surge.SurgeDays))
	}

	// 2. Summarize
	summary := metrics.Summarize(result)

	// 3. Run id
	paramsHash, err := idhash.ComputeParamsHash(req.Params)
	if err != nil {
		return nil, fmt.Errorf("hash params: %w", err)
	}
	runID := idhash.ComputeRunID(req.BatchID, req.Model, paramsHash, req.Label)

	run := &domain.RunRecord{
		RunID:     runID,
		BatchID:   req.BatchID,
		Label:     req.Label,
		Model:     req.Model,
		Params:    req.Params.Clone(),
		Summary:   summary,
		CreatedAt: r.now().UnixMilli(),
	}

	// 4. Persist
	stored, err := r.persist(ctx, run, result)
	if err != nil {
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"run_id":       runID,
		"batch_id":     req.BatchID,
		"model":        req.Model,
		"total_demand": summary.TotalDemand,
		"deduplicated": stored,
	}).Debug("simulation complete")

	return &RunOutput{Run: run, Result: result, AlreadyStored: stored}, nil
}

// persist writes the run and its series. Returns true if both were
// already present. A stored run without series (an earlier series write
// failed) gets its series written now.
func (r *Runner) persist(ctx context.Context, run *domain.RunRecord, result *domain.SimulationResult) (bool, error) {
	if r.runStore == nil && r.seriesStore == nil {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	runExisted := false
	if r.runStore != nil {
		if err := r.runStore.Insert(ctx, run); err != nil {
			// Skip duplicate key errors (already simulated)
			if !errors.Is(err, storage.ErrDuplicateKey) {
				return false, fmt.Errorf("store run %s: %w", run.RunID, err)
			}
			runExisted = true
		}
	}

	seriesExisted := true
	if r.seriesStore != nil {
		written, err := r.writeSeries(ctx, run.RunID, result, runExisted)
		if err != nil {
			return false, err
		}
		seriesExisted = !written
	}

	stored := runExisted && seriesExisted
	if r.runStore == nil {
		stored = seriesExisted
	}
	observability.RecordRunPersisted(stored)
	return stored, nil
}

// writeSeries inserts the series of runID. When the run was already stored
// it first checks for existing points. Returns true if points were written.
func (r *Runner) writeSeries(ctx context.Context, runID string, result *domain.SimulationResult, runExisted bool) (bool, error) {
	if runExisted {
		existing, err := r.seriesStore.GetByRunID(ctx, runID)
		if err != nil {
			return false, fmt.Errorf("load series %s: %w", runID, err)
		}
		if len(existing) > 0 {
			return false, nil
		}
		r.logger.WithField("run_id", runID).Warn("stored run has no series, writing it")
	}

	points := domain.SeriesPointsFromResult(runID, result)
	if err := r.seriesStore.InsertBulk(ctx, points); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return false, nil
		}
		return false, fmt.Errorf("store series %s: %w", runID, err)
	}
	return len(points) > 0, nil
}

// errorKind maps a simulation error to a metrics label.
func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrDomain):
		return "domain"
	case errors.Is(err, domain.ErrDivisionDegenerate):
		return "division_degenerate"
	case errors.Is(err, domain.ErrUnknownModel):
		return "unknown_model"
	case errors.Is(err, domain.ErrMissingParams):
		return "missing_params"
	default:
		return "other"
	}
}
