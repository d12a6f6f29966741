// Package gflex is the flexural-isostasy solver facade: typed plate
// configurations with an Initialize/Run/Finalize lifecycle, a deflection
// accessor, and optional plot/file output.
//
// Two methods are available. FD assembles a finite-difference plate operator
// with ghost-node boundary conditions and solves it directly (LU) or
// iteratively (BiCGSTAB). SAS superposes analytical solutions for an
// infinite, uniform plate under point (2-D) or line (1-D) loads.
//
// Deflections are in metres and negative downward.
package gflex

import (
	"errors"
	"fmt"
)

// ErrConfig is returned for invalid or inconsistent plate configurations.
var ErrConfig = errors.New("invalid solver configuration")

// ErrLifecycle is returned when lifecycle methods are called out of order.
var ErrLifecycle = errors.New("solver lifecycle violation")

// Method selects the solution method.
type Method string

const (
	MethodFD  Method = "FD"
	MethodSAS Method = "SAS"
)

// Solver selects the linear solver used by the FD method.
type Solver string

const (
	SolverDirect    Solver = "direct"
	SolverIterative Solver = "iterative"
)

// PlateSolution selects the FD form of the plate equation.
type PlateSolution string

const (
	// VWC1994 keeps the Poisson-ratio terms coupling rigidity gradients to
	// plate curvature.
	VWC1994 PlateSolution = "vWC1994"
	// G2009 uses the reduced form div(D grad(lap w)).
	G2009 PlateSolution = "G2009"
)

// BoundaryCondition is applied independently on each plate edge.
type BoundaryCondition string

const (
	BC0Displacement0Slope BoundaryCondition = "0Displacement0Slope"
	BC0Moment0Shear       BoundaryCondition = "0Moment0Shear"
	BC0Slope0Shear        BoundaryCondition = "0Slope0Shear"
	BCMirror              BoundaryCondition = "Mirror"
	BCPeriodic            BoundaryCondition = "Periodic"
	BCNoOutsideLoads      BoundaryCondition = "NoOutsideLoads"
)

// ParseBoundaryCondition accepts the canonical names and the Dirichlet0
// alias for 0Displacement0Slope. An empty string means NoOutsideLoads.
func ParseBoundaryCondition(s string) (BoundaryCondition, error) {
	switch s {
	case "", string(BCNoOutsideLoads):
		return BCNoOutsideLoads, nil
	case "Dirichlet0", string(BC0Displacement0Slope):
		return BC0Displacement0Slope, nil
	case string(BC0Moment0Shear), string(BC0Slope0Shear), string(BCMirror), string(BCPeriodic):
		return BoundaryCondition(s), nil
	}
	return "", fmt.Errorf("%w: unknown boundary condition %q", ErrConfig, s)
}

// ParseMethod validates a method name.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodFD, MethodSAS:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown method %q (want FD or SAS)", ErrConfig, s)
}

// ParseSolver validates a linear solver name. Empty means direct.
func ParseSolver(s string) (Solver, error) {
	switch sv := Solver(s); sv {
	case "":
		return SolverDirect, nil
	case SolverDirect, SolverIterative:
		return sv, nil
	}
	return "", fmt.Errorf("%w: unknown solver %q (want direct or iterative)", ErrConfig, s)
}

// ParsePlateSolution validates a plate-solution name. Empty means vWC1994.
func ParsePlateSolution(s string) (PlateSolution, error) {
	switch ps := PlateSolution(s); ps {
	case "":
		return VWC1994, nil
	case VWC1994, G2009:
		return ps, nil
	}
	return "", fmt.Errorf("%w: unknown plate solution %q (want vWC1994 or G2009)", ErrConfig, s)
}

// Material holds the elastic and density constants of the plate system.
type Material struct {
	YoungsModulus float64 // Pa
	PoissonsRatio float64
	MantleDensity float64 // kg/m^3
	InfillDensity float64 // kg/m^3
	GravAccel     float64 // m/s^2
}

// DefaultMaterial returns the standard continental-lithosphere constants.
func DefaultMaterial() Material {
	return Material{
		YoungsModulus: 65e9,
		PoissonsRatio: 0.25,
		MantleDensity: 3300,
		InfillDensity: 0,
		GravAccel:     9.8,
	}
}

// Validate checks physical ranges.
func (m Material) Validate() error {
	if !(m.YoungsModulus > 0) {
		return fmt.Errorf("%w: Young's modulus must be positive, got %g", ErrConfig, m.YoungsModulus)
	}
	if !(m.PoissonsRatio >= 0 && m.PoissonsRatio < 0.5) {
		return fmt.Errorf("%w: Poisson's ratio must be in [0, 0.5), got %g", ErrConfig, m.PoissonsRatio)
	}
	if !(m.GravAccel > 0) {
		return fmt.Errorf("%w: gravitational acceleration must be positive, got %g", ErrConfig, m.GravAccel)
	}
	if m.InfillDensity < 0 {
		return fmt.Errorf("%w: infill density must be non-negative, got %g", ErrConfig, m.InfillDensity)
	}
	if !(m.MantleDensity > m.InfillDensity) {
		return fmt.Errorf("%w: mantle density %g must exceed infill density %g", ErrConfig, m.MantleDensity, m.InfillDensity)
	}
	return nil
}

// DRho is the density contrast between mantle and infill.
func (m Material) DRho() float64 { return m.MantleDensity - m.InfillDensity }

// Rigidity returns the flexural rigidity for elastic thickness te in metres.
func (m Material) Rigidity(te float64) float64 {
	return m.YoungsModulus * te * te * te / (12 * (1 - m.PoissonsRatio*m.PoissonsRatio))
}

// Output options shared by both plate dimensions.
type Output struct {
	// PlotChoice is "", "w", "q" or "combo". Empty disables plotting.
	PlotChoice string
	// PlotFile is the PNG path written when PlotChoice is set.
	PlotFile string
	// WOutFile, when set, receives the deflections as plain text.
	WOutFile string
}

func (o Output) validate() error {
	switch o.PlotChoice {
	case "", "w", "q", "combo":
	default:
		return fmt.Errorf("%w: unknown plot choice %q (want w, q or combo)", ErrConfig, o.PlotChoice)
	}
	if o.PlotChoice != "" && o.PlotFile == "" {
		return fmt.Errorf("%w: plot %q requested without a plot file", ErrConfig, o.PlotChoice)
	}
	return nil
}

const defaultTolerance = 1e-10

func checkMethodBCs(method Method, bcs ...BoundaryCondition) error {
	if method != MethodSAS {
		return nil
	}
	for _, bc := range bcs {
		if bc != BCNoOutsideLoads {
			return fmt.Errorf("%w: SAS supports only %s boundaries, got %s", ErrConfig, BCNoOutsideLoads, bc)
		}
	}
	return nil
}

func checkPeriodicPair(axis string, a, b BoundaryCondition) error {
	if (a == BCPeriodic) != (b == BCPeriodic) {
		return fmt.Errorf("%w: %s boundaries must both be Periodic or neither", ErrConfig, axis)
	}
	return nil
}
