package burn

import (
	"math"

	"token-demand-lab/internal/domain"
)

// RevenueAt returns protocol revenue for period t.
//
// Target mode follows target * (1 - exp(-growth * t)), so R_0 is 0 regardless
// of InitialRevenue. Otherwise revenue compounds from InitialRevenue.
func RevenueAt(revenue domain.RevenueParams, t int) float64 {
	if revenue.UseTargetRevenue && revenue.TargetRevenue != nil {
		return *revenue.TargetRevenue * (1 - math.Exp(-revenue.RevenueGrowthRate*float64(t)))
	}
	return revenue.InitialRevenue * math.Pow(1+revenue.RevenueGrowthRate, float64(t))
}

// RevenuePath returns R_t for t = 0..horizon-1.
// The compounding path is built step by step, R_t = R_{t-1} * (1+growth).
func RevenuePath(revenue domain.RevenueParams, horizon int) []float64 {
	if horizon <= 0 {
		return nil
	}
	path := make([]float64, horizon)
	if revenue.UseTargetRevenue && revenue.TargetRevenue != nil {
		for t := range path {
			path[t] = RevenueAt(revenue, t)
		}
		return path
	}

	path[0] = revenue.InitialRevenue
	for t := 1; t < horizon; t++ {
		path[t] = path[t-1] * (1 + revenue.RevenueGrowthRate)
	}
	return path
}
