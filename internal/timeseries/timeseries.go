// Package timeseries provides the shared numeric helpers used by every
// demand-driver simulator: rate conversion, discounting and clamping.
package timeseries

import (
	"fmt"
	"math"

	"token-demand-lab/internal/domain"
)

// DaysPerMonth is the fixed month length used for daily rate conversion.
const DaysPerMonth = 30

// MonthlyToDailyRate converts a compounding monthly rate to its daily equivalent:
// (1+monthly)^(1/30) - 1. Defined for monthlyRate > -1.
func MonthlyToDailyRate(monthlyRate float64) (float64, error) {
	if math.IsNaN(monthlyRate) || monthlyRate <= -1 {
		return 0, fmt.Errorf("%w: monthly rate must be > -1, got %v", domain.ErrDomain, monthlyRate)
	}
	return math.Pow(1+monthlyRate, 1.0/DaysPerMonth) - 1, nil
}

// PresentValue discounts raw by discountFactor^period.
// discountFactor must be in (0,1] and period >= 0.
func PresentValue(raw, discountFactor float64, period int) (float64, error) {
	if !(discountFactor > 0 && discountFactor <= 1) {
		return 0, fmt.Errorf("%w: discount factor must be in (0,1], got %v", domain.ErrDomain, discountFactor)
	}
	if period < 0 {
		return 0, fmt.Errorf("%w: period must be >= 0, got %d", domain.ErrDomain, period)
	}
	if period == 0 {
		return raw, nil
	}
	return raw * math.Pow(discountFactor, float64(period)), nil
}

// ClampNonNegative returns max(x, 0).
func ClampNonNegative(x float64) float64 {
	if x < 0 {
		return 0
	}
	return x
}

// Sum returns the sum of values.
func Sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values) / float64(len(values))
}

// LinearRamp returns start + (end-start)*(t/n) for t = 1..n.
// The first element is therefore one step above start, not start itself.
func LinearRamp(start, end float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		t := float64(i + 1)
		out[i] = start + (end-start)*(t/float64(n))
	}
	return out
}
