package domain

// Record is one period of a simulation result.
// Fields not produced by a driver are left at zero.
type Record struct {
	Period      int     `json:"period"` // 1-based, contiguous
	Supply      float64 `json:"supply"`
	Volume      float64 `json:"volume"`
	DemandValue float64 `json:"demand_value"`
}

// StakingRecord is one period of the fee-discount staking sub-model.
type StakingRecord struct {
	Period          int     `json:"period"`
	StakingVolume   float64 `json:"staking_volume"`
	TokenPrice      float64 `json:"token_price"`
	DemandGenerated float64 `json:"demand_generated"`
}

// SurgeDetail exposes the intermediate daily arrays of a fee-holiday run.
type SurgeDetail struct {
	SurgeDays  []int     `json:"surge_days"` // 0-based start days, ascending
	Day1Volume float64   `json:"day1_volume"`
	Baseline   []float64 `json:"baseline"`
	Excess     []float64 `json:"excess"`
	Tokens     []float64 `json:"tokens"`
	DemandUSD  []float64 `json:"demand_usd"`
}

// SimulationResult is the uniform series returned by every driver.
// len(Records) == horizon.
type SimulationResult struct {
	Model       ModelTag        `json:"model"`
	Records     []Record        `json:"records"`
	TotalDemand float64         `json:"total_demand"`
	NewVolume   *float64        `json:"new_volume,omitempty"` // fee discount steady state
	Staking     []StakingRecord `json:"staking,omitempty"`
	Surge       *SurgeDetail    `json:"surge,omitempty"`
}

// FinalRecord returns the last record, or a zero Record for an empty result.
func (r *SimulationResult) FinalRecord() Record {
	if r == nil || len(r.Records) == 0 {
		return Record{}
	}
	return r.Records[len(r.Records)-1]
}

// Summary holds headline metrics derived from a SimulationResult.
type Summary struct {
	Model       ModelTag `json:"model"`
	Horizon     int      `json:"horizon"`
	FinalSupply float64  `json:"final_supply"`
	TotalDemand float64  `json:"total_demand"`
	PeakDemand  float64  `json:"peak_demand"`
	MeanDemand  float64  `json:"mean_demand"`
	DemandStdev float64  `json:"demand_stddev"`
	DemandP10   float64  `json:"demand_p10"`
	DemandP50   float64  `json:"demand_p50"`
	DemandP90   float64  `json:"demand_p90"`
	FinalVolume float64  `json:"final_volume"`
	TotalVolume float64  `json:"total_volume"`
}
