package domain

// RunRecord represents a persisted simulation run.
// Corresponds to the simulation_runs table.
type RunRecord struct {
	RunID     string               `json:"run_id"`     // deterministic hash of batch, model, parameters and label
	BatchID   string               `json:"batch_id"`   // sweep batch, empty for single runs
	Label     string               `json:"label"`      // variation label within a batch
	Model     ModelTag             `json:"model"`      // simulator variant
	Params    SimulationParameters `json:"parameters"` // full input bundle
	Summary   Summary              `json:"summary"`    // headline metrics
	CreatedAt int64                `json:"created_at"` // Unix ms
}

// SeriesPoint is one persisted period of a run.
// Corresponds to the simulation_series table.
type SeriesPoint struct {
	RunID       string  `json:"run_id"`
	Period      int     `json:"period"`
	Supply      float64 `json:"supply"`
	Volume      float64 `json:"volume"`
	DemandValue float64 `json:"demand_value"`
}

// Record converts the point back to a result record.
func (p *SeriesPoint) Record() Record {
	return Record{
		Period:      p.Period,
		Supply:      p.Supply,
		Volume:      p.Volume,
		DemandValue: p.DemandValue,
	}
}

// SeriesPointsFromResult flattens a result into persistable points.
func SeriesPointsFromResult(runID string, r *SimulationResult) []*SeriesPoint {
	points := make([]*SeriesPoint, 0, len(r.Records))
	for _, rec := range r.Records {
		points = append(points, &SeriesPoint{
			RunID:       runID,
			Period:      rec.Period,
			Supply:      rec.Supply,
			Volume:      rec.Volume,
			DemandValue: rec.DemandValue,
		})
	}
	return points
}

// BatchAggregate summarises total demand across the runs of a sweep batch.
type BatchAggregate struct {
	BatchID string `json:"batch_id"`
	Runs    int    `json:"runs"`

	TotalDemandMean   float64 `json:"total_demand_mean"`
	TotalDemandMin    float64 `json:"total_demand_min"`
	TotalDemandMax    float64 `json:"total_demand_max"`
	TotalDemandP10    float64 `json:"total_demand_p10"`
	TotalDemandP50    float64 `json:"total_demand_p50"`
	TotalDemandP90    float64 `json:"total_demand_p90"`
	TotalDemandStddev float64 `json:"total_demand_stddev"`

	BestRunID   string           `json:"best_run_id"` // highest total demand
	BestLabel   string           `json:"best_label"`
	WorstRunID  string           `json:"worst_run_id"` // lowest total demand
	WorstLabel  string           `json:"worst_label"`
	RunsByModel map[ModelTag]int `json:"runs_by_model"`
}
