package feeholiday

import (
	"fmt"
	"math/rand"
	"sort"

	"token-demand-lab/internal/domain"
)

// DayPicker chooses k distinct day indices from [0, n).
type DayPicker interface {
	Pick(k, n int) ([]int, error)
}

// SeededPicker draws days uniformly without replacement from a seeded source.
// The same seed always yields the same days.
type SeededPicker struct {
	Seed int64
}

// NewSeededPicker creates a new SeededPicker.
func NewSeededPicker(seed int64) *SeededPicker {
	return &SeededPicker{Seed: seed}
}

// Pick returns k distinct days from [0, n).
func (p *SeededPicker) Pick(k, n int) ([]int, error) {
	if err := checkPickBounds(k, n); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(p.Seed))
	days := rng.Perm(n)[:k]
	return days, nil
}

// FixedPicker returns a pre-supplied list of days, bypassing randomness.
type FixedPicker struct {
	Days []int
}

// NewFixedPicker creates a new FixedPicker. The slice is copied.
func NewFixedPicker(days []int) *FixedPicker {
	cp := make([]int, len(days))
	copy(cp, days)
	return &FixedPicker{Days: cp}
}

// Pick validates the fixed days against k and n and returns a copy.
func (p *FixedPicker) Pick(k, n int) ([]int, error) {
	if err := checkPickBounds(k, n); err != nil {
		return nil, err
	}
	return checkDays(p.Days, k, n)
}

// checkDays verifies that days holds exactly k distinct entries in [0, n)
// and returns a copy.
func checkDays(days []int, k, n int) ([]int, error) {
	if len(days) != k {
		return nil, fmt.Errorf("%w: expected %d surge days, got %d", domain.ErrDomain, k, len(days))
	}

	seen := make(map[int]struct{}, len(days))
	out := make([]int, 0, len(days))
	for _, d := range days {
		if d < 0 || d >= n {
			return nil, fmt.Errorf("%w: surge day %d outside [0,%d)", domain.ErrDomain, d, n)
		}
		if _, dup := seen[d]; dup {
			return nil, fmt.Errorf("%w: duplicate surge day %d", domain.ErrDomain, d)
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out, nil
}

func checkPickBounds(k, n int) error {
	if k < 0 {
		return fmt.Errorf("%w: surge count must be >= 0, got %d", domain.ErrDomain, k)
	}
	if k > n {
		return fmt.Errorf("%w: cannot pick %d distinct days from %d", domain.ErrDomain, k, n)
	}
	return nil
}

// sortedDays returns an ascending copy of days.
func sortedDays(days []int) []int {
	out := make([]int, len(days))
	copy(out, days)
	sort.Ints(out)
	return out
}

// Ensure pickers implement DayPicker
var (
	_ DayPicker = (*SeededPicker)(nil)
	_ DayPicker = (*FixedPicker)(nil)
)
