// Package flexure drives a 2-D flexure computation against a raster
// workspace. It reads the load and elastic-thickness layers in the active
// region, solves on the one-cell interior of that region, writes the
// deflection back on the interior lattice and resamples it onto the
// thickness layer's own lattice.
package flexure

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/banshee-data/flexure/internal/gflex"
	"github.com/banshee-data/flexure/internal/raster"
	"github.com/banshee-data/flexure/internal/workspace"
)

var (
	// ErrConfig reports missing or malformed parameters.
	ErrConfig = errors.New("invalid parameters")
	// ErrPrecondition reports a workspace state the driver cannot run in.
	ErrPrecondition = errors.New("precondition failed")
)

// LatLonMessage is the diagnostic for geographic regions run without the
// lat/lon approximation.
const LatLonMessage = "Need projected coordinates, or the '-l' flag to approximate."

// InterpSuffix is appended to the output name for the resampled layer.
const InterpSuffix = "_interp"

// Params collects everything one driver run needs. Names follow the
// command-line keys.
type Params struct {
	Method           string  `json:"method"`
	Load             string  `json:"q"`
	ElasticThickness string  `json:"te"`
	Output           string  `json:"output"`
	RhoFill          float64 `json:"rho_fill"`

	North string `json:"n"`
	South string `json:"s"`
	West  string `json:"w"`
	East  string `json:"e"`

	// LatLon approximates metric spacing on geographic regions.
	LatLon bool `json:"latlon"`

	YoungsModulus float64 `json:"youngs_modulus"`
	PoissonsRatio float64 `json:"poissons_ratio"`
	MantleDensity float64 `json:"rho_m"`
	GravAccel     float64 `json:"g"`

	Solver        string  `json:"solver"`
	PlateSolution string  `json:"plate_solution"`
	Tolerance     float64 `json:"tolerance,omitempty"`
	InterpMethod  string  `json:"interp"`
	ColorRamp     string  `json:"colors"`
}

// DefaultParams returns parameters with every optional value at its default.
func DefaultParams() Params {
	m := gflex.DefaultMaterial()
	return Params{
		RhoFill:       m.InfillDensity,
		North:         string(gflex.BCNoOutsideLoads),
		South:         string(gflex.BCNoOutsideLoads),
		West:          string(gflex.BCNoOutsideLoads),
		East:          string(gflex.BCNoOutsideLoads),
		YoungsModulus: m.YoungsModulus,
		PoissonsRatio: m.PoissonsRatio,
		MantleDensity: m.MantleDensity,
		GravAccel:     m.GravAccel,
		InterpMethod:  string(raster.Lanczos),
		ColorRamp:     raster.RampRainbow,
	}
}

// Thickness is an elastic thickness given either as a number of kilometres
// or as the name of a raster layer holding kilometres. Exactly one of the
// two is set.
type Thickness struct {
	Raster string
	Km     float64
}

// IsRaster reports whether the thickness refers to a raster layer.
func (t Thickness) IsRaster() bool { return t.Raster != "" }

func (t Thickness) String() string {
	if t.IsRaster() {
		return "raster " + t.Raster
	}
	return strconv.FormatFloat(t.Km, 'g', -1, 64) + " km"
}

// ParseThickness reads s as a finite non-negative number if it parses as
// one, and otherwise as a layer name.
func ParseThickness(s string) (Thickness, error) {
	if s == "" {
		return Thickness{}, fmt.Errorf("%w: te is required", ErrConfig)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return Thickness{}, fmt.Errorf("%w: elastic thickness %q must be a finite non-negative number", ErrConfig, s)
		}
		return Thickness{Km: v}, nil
	}
	if !workspace.ValidLayerName(s) {
		return Thickness{}, fmt.Errorf("%w: elastic thickness %q is neither a number nor a raster name", ErrConfig, s)
	}
	return Thickness{Raster: s}, nil
}

// plan is Params normalised into solver types.
type plan struct {
	method        gflex.Method
	solver        gflex.Solver
	plateSolution gflex.PlateSolution
	material      gflex.Material
	te            Thickness
	bcN, bcS      gflex.BoundaryCondition
	bcW, bcE      gflex.BoundaryCondition
	interp        raster.Method
	ramp          string
}

// withDefaults fills zero material constants and output options.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	for _, f := range []struct{ v, def *float64 }{
		{&p.YoungsModulus, &d.YoungsModulus},
		{&p.PoissonsRatio, &d.PoissonsRatio},
		{&p.MantleDensity, &d.MantleDensity},
		{&p.GravAccel, &d.GravAccel},
	} {
		if *f.v == 0 {
			*f.v = *f.def
		}
	}
	if p.InterpMethod == "" {
		p.InterpMethod = d.InterpMethod
	}
	if p.ColorRamp == "" {
		p.ColorRamp = d.ColorRamp
	}
	return p
}

// normalize validates p and resolves the method label into a method, solver
// and plate-solution triple. It does no I/O.
func (p Params) normalize() (plan, error) {
	p = p.withDefaults()
	var (
		pl  plan
		err error
	)
	for _, req := range []struct{ key, val string }{{"method", p.Method}, {"q", p.Load}, {"output", p.Output}} {
		if req.val == "" {
			return plan{}, fmt.Errorf("%w: %s is required", ErrConfig, req.key)
		}
	}
	for _, name := range []string{p.Load, p.Output, p.Output + InterpSuffix} {
		if !workspace.ValidLayerName(name) {
			return plan{}, fmt.Errorf("%w: %q is not a valid raster name", ErrConfig, name)
		}
	}
	if pl.te, err = ParseThickness(p.ElasticThickness); err != nil {
		return plan{}, err
	}

	switch gflex.Method(p.Method) {
	case gflex.MethodFD:
		pl.method = gflex.MethodFD
		if pl.solver, err = gflex.ParseSolver(p.Solver); err != nil {
			return plan{}, fmt.Errorf("%w: %w", ErrConfig, err)
		}
		if pl.plateSolution, err = gflex.ParsePlateSolution(p.PlateSolution); err != nil {
			return plan{}, fmt.Errorf("%w: %w", ErrConfig, err)
		}
	case gflex.MethodSAS:
		pl.method = gflex.MethodSAS
	default:
		return plan{}, fmt.Errorf("%w: unknown method %q (want FD or SAS)", ErrConfig, p.Method)
	}

	bcs := []struct {
		key string
		in  string
		out *gflex.BoundaryCondition
	}{{"n", p.North, &pl.bcN}, {"s", p.South, &pl.bcS}, {"w", p.West, &pl.bcW}, {"e", p.East, &pl.bcE}}
	for _, bc := range bcs {
		if *bc.out, err = gflex.ParseBoundaryCondition(bc.in); err != nil {
			return plan{}, fmt.Errorf("%w: %s: %w", ErrConfig, bc.key, err)
		}
		if pl.method == gflex.MethodSAS && *bc.out != gflex.BCNoOutsideLoads {
			return plan{}, fmt.Errorf("%w: SAS supports only NoOutsideLoads edges, got %s=%s", ErrConfig, bc.key, *bc.out)
		}
	}
	if (pl.bcW == gflex.BCPeriodic) != (pl.bcE == gflex.BCPeriodic) || (pl.bcN == gflex.BCPeriodic) != (pl.bcS == gflex.BCPeriodic) {
		return plan{}, fmt.Errorf("%w: Periodic must be set on both opposite edges", ErrConfig)
	}

	pl.material = gflex.Material{
		YoungsModulus: p.YoungsModulus,
		PoissonsRatio: p.PoissonsRatio,
		MantleDensity: p.MantleDensity,
		InfillDensity: p.RhoFill,
		GravAccel:     p.GravAccel,
	}
	if err := pl.material.Validate(); err != nil {
		return plan{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if !(p.Tolerance >= 0) {
		return plan{}, fmt.Errorf("%w: tolerance must be non-negative, got %g", ErrConfig, p.Tolerance)
	}

	if pl.interp, err = raster.ParseMethod(p.InterpMethod); err != nil {
		return plan{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	pl.ramp = p.ColorRamp
	if err := raster.ValidateRamp(pl.ramp); err != nil {
		return plan{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return pl, nil
}
