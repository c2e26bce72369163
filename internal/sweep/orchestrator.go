// Package sweep runs parameter sweeps over the simulation runner.
// It coordinates: plan validation → concurrent simulation → batch aggregation
package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/metrics"
	"token-demand-lab/internal/observability"
	"token-demand-lab/internal/simulation"
)

// DefaultConcurrency bounds parallel variations when Options leave it unset.
const DefaultConcurrency = 4

// Orchestrator executes sweep plans as batches.
type Orchestrator struct {
	runner      *simulation.Runner
	concurrency int
	logger      logrus.FieldLogger
	newBatchID  func() string
	verbose     bool
}

// Options for creating Orchestrator.
type Options struct {
	Runner      *simulation.Runner // required
	Concurrency int                // <= 0 uses DefaultConcurrency
	Logger      logrus.FieldLogger
	BatchID     func() string // defaults to uuid.NewString
	Verbose     bool
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	newBatchID := opts.BatchID
	if newBatchID == nil {
		newBatchID = uuid.NewString
	}
	return &Orchestrator{
		runner:      opts.Runner,
		concurrency: concurrency,
		logger:      logger,
		newBatchID:  newBatchID,
		verbose:     opts.Verbose,
	}
}

// VariationResult is the outcome of one variation. Exactly one of
// Output and Err is set.
type VariationResult struct {
	Variation Variation
	Output    *simulation.RunOutput
	Err       error
}

// RunResult contains results from a sweep, in plan order.
type RunResult struct {
	BatchID   string
	PlanName  string
	Results   []VariationResult
	Succeeded int
	Failed    int
	Errors    []string
	Aggregate *domain.BatchAggregate // nil when every variation failed
}

// Run executes the plan.
// Phases:
//  1. Validate plan
//  2. Simulate each variation (bounded concurrency)
//  3. Aggregate successful runs
//
// Variation failures are collected, not returned. Only an invalid plan or
// a cancelled context fails the sweep.
func (o *Orchestrator) Run(ctx context.Context, plan Plan) (*RunResult, error) {
	start := time.Now()

	// Phase 1: Validate
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	batchID := o.newBatchID()
	o.log(batchID, "Phase 1: Plan %q with %d variations", plan.Name, len(plan.Variations))

	// Phase 2: Simulate
	o.log(batchID, "Phase 2: Running simulations (concurrency=%d)...", o.concurrency)
	results, err := o.runVariations(ctx, batchID, plan.Variations)
	if err != nil {
		observability.RecordSweep("cancelled", len(plan.Variations), time.Since(start).Seconds(), 0)
		return nil, fmt.Errorf("phase 2 (simulate) failed: %w", err)
	}

	result := &RunResult{
		BatchID:  batchID,
		PlanName: plan.Name,
		Results:  results,
	}
	var runs []*domain.RunRecord
	for _, r := range results {
		if r.Err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("variation %s (%s): %v", r.Variation.Label, r.Variation.Model, r.Err))
			continue
		}
		result.Succeeded++
		runs = append(runs, r.Output.Run)
	}
	o.log(batchID, "  Completed %d variations (%d errors)", result.Succeeded, result.Failed)

	// Phase 3: Aggregate
	if len(runs) > 0 {
		o.log(batchID, "Phase 3: Computing batch aggregate...")
		result.Aggregate = metrics.AggregateRuns(batchID, runs)
	} else {
		o.log(batchID, "Phase 3: Skipping aggregate (no successful runs)")
	}

	status := "success"
	if result.Failed > 0 {
		status = "partial"
	}
	observability.RecordSweep(status, len(plan.Variations), time.Since(start).Seconds(), time.Now().Unix())

	o.logger.WithFields(logrus.Fields{
		"batch_id":  batchID,
		"plan":      plan.Name,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	}).Info("sweep completed")

	return result, nil
}

// runVariations fans out over the runner. Results keep plan order because
// each goroutine writes only its own slot.
func (o *Orchestrator) runVariations(ctx context.Context, batchID string, variations []Variation) ([]VariationResult, error) {
	results := make([]VariationResult, len(variations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i, v := range variations {
		i, v := i, v
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := o.runner.Execute(gctx, simulation.RunRequest{
				BatchID: batchID,
				Label:   v.Label,
				Model:   v.Model,
				Params:  v.Params,
			})
			results[i] = VariationResult{Variation: v, Output: out, Err: err}
			if err != nil {
				o.logger.WithFields(logrus.Fields{
					"batch_id": batchID,
					"label":    v.Label,
					"model":    v.Model,
				}).WithError(err).Warn("variation failed")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (o *Orchestrator) log(batchID, format string, args ...interface{}) {
	if o.verbose {
		o.logger.WithField("batch_id", batchID).Infof("[sweep] "+format, args...)
	}
}
