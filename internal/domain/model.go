package domain

import (
	"fmt"
	"strings"
)

// ModelTag identifies a demand-driver simulator variant.
type ModelTag string

const (
	ModelBuybackBurn      ModelTag = "buyback_burn"
	ModelExponentialDecay ModelTag = "exponential_decay"
	ModelLogarithmicBurn  ModelTag = "logarithmic_burn"
	ModelScheduleBurn     ModelTag = "schedule_burn"
	ModelFeeDiscount      ModelTag = "fee_discount"
	ModelFeeHoliday       ModelTag = "fee_holiday"
)

// displayNames maps each tag to the label shown by presentation layers.
var displayNames = map[ModelTag]string{
	ModelBuybackBurn:      "Buyback + Burn Model",
	ModelExponentialDecay: "Exponential Decay",
	ModelLogarithmicBurn:  "Logarithmic Burn",
	ModelScheduleBurn:     "Schedule-Based Burn",
	ModelFeeDiscount:      "Fee Discount",
	ModelFeeHoliday:       "Fee Holiday",
}

// AllModels returns every known tag in a stable order.
func AllModels() []ModelTag {
	return []ModelTag{
		ModelBuybackBurn,
		ModelExponentialDecay,
		ModelLogarithmicBurn,
		ModelScheduleBurn,
		ModelFeeDiscount,
		ModelFeeHoliday,
	}
}

// String returns the string representation of ModelTag.
func (m ModelTag) String() string {
	return string(m)
}

// DisplayName returns the human-readable label, or the raw tag if unknown.
func (m ModelTag) DisplayName() string {
	if name, ok := displayNames[m]; ok {
		return name
	}
	return string(m)
}

// IsValid checks if the tag is one of the known models.
func (m ModelTag) IsValid() bool {
	_, ok := displayNames[m]
	return ok
}

// IsBurn reports whether the tag selects one of the four supply/burn variants.
func (m ModelTag) IsBurn() bool {
	switch m {
	case ModelBuybackBurn, ModelExponentialDecay, ModelLogarithmicBurn, ModelScheduleBurn:
		return true
	default:
		return false
	}
}

// ParseModelTag accepts a tag id ("exponential_decay") or a display name
// ("Exponential Decay"), case-insensitively.
func ParseModelTag(s string) (ModelTag, error) {
	needle := strings.TrimSpace(s)
	for tag, name := range displayNames {
		if strings.EqualFold(needle, string(tag)) || strings.EqualFold(needle, name) {
			return tag, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, s)
}
