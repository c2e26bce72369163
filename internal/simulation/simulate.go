// Package simulation dispatches parameter bundles to the demand drivers
// and persists the resulting runs.
package simulation

import (
	"fmt"

	"token-demand-lab/internal/burn"
	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/feediscount"
	"token-demand-lab/internal/feeholiday"
)

// Option configures a single Simulate call.
type Option func(*options)

type options struct {
	picker feeholiday.DayPicker
}

// WithDayPicker replaces the fee-holiday surge-day source.
// Ignored by every other model.
func WithDayPicker(p feeholiday.DayPicker) Option {
	return func(o *options) {
		o.picker = p
	}
}

// Simulate runs the driver selected by tag over params.
// Returns ErrUnknownModel for tags outside the closed set and
// ErrMissingParams when the matching parameter block is nil.
func Simulate(tag domain.ModelTag, params domain.SimulationParameters, opts ...Option) (*domain.SimulationResult, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if !tag.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownModel, tag)
	}

	switch {
	case tag.IsBurn():
		m, err := burn.FromParams(tag, params)
		if err != nil {
			return nil, err
		}
		return m.Simulate(params.Common, params.Revenue)

	case tag == domain.ModelFeeDiscount:
		if params.FeeDiscount == nil {
			return nil, fmt.Errorf("%w: %s requires fee_discount parameters", domain.ErrMissingParams, tag)
		}
		return feediscount.Simulate(params.Common, *params.FeeDiscount)

	case tag == domain.ModelFeeHoliday:
		if params.FeeHoliday == nil {
			return nil, fmt.Errorf("%w: %s requires fee_holiday parameters", domain.ErrMissingParams, tag)
		}
		return feeholiday.New(o.picker).Simulate(params.Common, params.Revenue, *params.FeeHoliday)
	}

	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownModel, tag)
}

// SimulateNamed resolves a model id or display name and runs it.
func SimulateNamed(name string, params domain.SimulationParameters, opts ...Option) (*domain.SimulationResult, error) {
	tag, err := domain.ParseModelTag(name)
	if err != nil {
		return nil, err
	}
	return Simulate(tag, params, opts...)
}
