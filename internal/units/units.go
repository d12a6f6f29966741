// Package units provides shared constants and validation for length units
// and the lat/lon approximation used on geographic regions.
package units

// Unit constants
const (
	M  = "m"
	KM = "km"
)

// MetersPerDegree approximates the length of one degree of arc on the
// Earth's surface. It is applied to both east-west and north-south
// resolutions of a lat/lon region.
const MetersPerDegree = 111320.0

// ValidUnits contains all valid length unit values
var ValidUnits = []string{M, KM}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "m, km"
}

// ToMeters converts a length in the given units to meters.
func ToMeters(v float64, unit string) float64 {
	switch unit {
	case KM:
		return v * 1000
	case M:
		return v
	default:
		return v // default to meters if unknown unit
	}
}

// FromMeters converts a length in meters to the given units.
func FromMeters(v float64, unit string) float64 {
	if unit == KM {
		return v / 1000
	}
	return v
}

// DegreesToMeters converts an angular resolution to an approximate ground
// distance using MetersPerDegree.
func DegreesToMeters(deg float64) float64 {
	return deg * MetersPerDegree
}
