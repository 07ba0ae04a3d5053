package enums

import "fmt"

// JurisdictionType ranks tax authority records. Resolution picks exactly one:
// state-level matches win over country-level fallbacks.
type JurisdictionType string

const (
	JurisdictionTypeCountry JurisdictionType = "country"
	JurisdictionTypeState   JurisdictionType = "state"
	JurisdictionTypeCounty  JurisdictionType = "county"
	JurisdictionTypeCity    JurisdictionType = "city"
)

var validJurisdictionTypes = []JurisdictionType{
	JurisdictionTypeCountry,
	JurisdictionTypeState,
	JurisdictionTypeCounty,
	JurisdictionTypeCity,
}

// String implements fmt.Stringer.
func (j JurisdictionType) String() string {
	return string(j)
}

// IsValid reports whether the value is a known JurisdictionType.
func (j JurisdictionType) IsValid() bool {
	for _, candidate := range validJurisdictionTypes {
		if candidate == j {
			return true
		}
	}
	return false
}

// ParseJurisdictionType converts raw input into a JurisdictionType.
func ParseJurisdictionType(value string) (JurisdictionType, error) {
	for _, candidate := range validJurisdictionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid jurisdiction type %q", value)
}
