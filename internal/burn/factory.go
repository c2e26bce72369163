package burn

import (
	"fmt"

	"token-demand-lab/internal/domain"
)

// FromParams creates a burn Model for the tag from the matching parameter block.
// Returns ErrUnknownModel for non-burn tags and ErrMissingParams when the
// block is absent.
func FromParams(tag domain.ModelTag, params domain.SimulationParameters) (Model, error) {
	switch tag {
	case domain.ModelBuybackBurn:
		if params.Buyback == nil {
			return nil, fmt.Errorf("%w: %s requires buyback parameters", domain.ErrMissingParams, tag)
		}
		return NewBuybackBurn(*params.Buyback), nil
	case domain.ModelExponentialDecay:
		if params.Exponential == nil {
			return nil, fmt.Errorf("%w: %s requires exponential parameters", domain.ErrMissingParams, tag)
		}
		return NewExponentialDecay(*params.Exponential), nil
	case domain.ModelLogarithmicBurn:
		if params.Logarithmic == nil {
			return nil, fmt.Errorf("%w: %s requires logarithmic parameters", domain.ErrMissingParams, tag)
		}
		return NewLogarithmicBurn(*params.Logarithmic), nil
	case domain.ModelScheduleBurn:
		if params.Schedule == nil {
			return nil, fmt.Errorf("%w: %s requires schedule parameters", domain.ErrMissingParams, tag)
		}
		return NewScheduleBurn(*params.Schedule), nil
	default:
		return nil, fmt.Errorf("%w: %q is not a burn model", domain.ErrUnknownModel, tag)
	}
}
