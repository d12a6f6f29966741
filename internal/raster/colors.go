package raster

import "fmt"

// Color ramps understood by the workspace and the plotters.
const (
	RampRainbow = "rainbow"
	RampGrey    = "grey"
	RampHeat    = "heat"
)

// ValidRamps lists every accepted colour ramp name.
var ValidRamps = []string{RampRainbow, RampGrey, RampHeat}

// ValidateRamp checks a colour ramp name.
func ValidateRamp(name string) error {
	for _, r := range ValidRamps {
		if name == r {
			return nil
		}
	}
	return fmt.Errorf("unknown color ramp %q (want one of %v)", name, ValidRamps)
}
