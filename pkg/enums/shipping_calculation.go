package enums

import "fmt"

// ShippingCalculation selects how a shipping method prices an order. The set
// is closed: calculators switch over it exhaustively instead of falling
// through a default branch.
type ShippingCalculation string

const (
	ShippingCalculationFlatRate      ShippingCalculation = "flat_rate"
	ShippingCalculationFreeThreshold ShippingCalculation = "free_threshold"
	ShippingCalculationWeightBased   ShippingCalculation = "weight_based"
	ShippingCalculationPriceTier     ShippingCalculation = "price_tier"
)

var validShippingCalculations = []ShippingCalculation{
	ShippingCalculationFlatRate,
	ShippingCalculationFreeThreshold,
	ShippingCalculationWeightBased,
	ShippingCalculationPriceTier,
}

// String implements fmt.Stringer.
func (s ShippingCalculation) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShippingCalculation.
func (s ShippingCalculation) IsValid() bool {
	for _, candidate := range validShippingCalculations {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShippingCalculation converts raw input into a ShippingCalculation.
func ParseShippingCalculation(value string) (ShippingCalculation, error) {
	for _, candidate := range validShippingCalculations {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping calculation %q", value)
}
