package enums

import "fmt"

// DiscountScope selects which entities a discount applies to.
type DiscountScope string

const (
	DiscountScopeStoreWide  DiscountScope = "store_wide"
	DiscountScopeCollection DiscountScope = "collection"
	DiscountScopeProduct    DiscountScope = "product"
	DiscountScopeVariant    DiscountScope = "variant"
	DiscountScopeCode       DiscountScope = "code"
)

var validDiscountScopes = []DiscountScope{
	DiscountScopeStoreWide,
	DiscountScopeCollection,
	DiscountScopeProduct,
	DiscountScopeVariant,
	DiscountScopeCode,
}

// String implements fmt.Stringer.
func (d DiscountScope) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DiscountScope.
func (d DiscountScope) IsValid() bool {
	for _, candidate := range validDiscountScopes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDiscountScope converts raw input into a DiscountScope.
func ParseDiscountScope(value string) (DiscountScope, error) {
	for _, candidate := range validDiscountScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount scope %q", value)
}
