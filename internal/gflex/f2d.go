package gflex

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/flexure/internal/fsutil"
	"github.com/banshee-data/flexure/internal/monitoring"
)

type state int

const (
	stateConfigured state = iota
	stateInitialized
	stateRun
	stateFinalized
)

func (s state) String() string {
	switch s {
	case stateConfigured:
		return "configured"
	case stateInitialized:
		return "initialized"
	case stateRun:
		return "run"
	case stateFinalized:
		return "finalized"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s state) expect(want state, op string) error {
	if s != want {
		return fmt.Errorf("%w: %s called in state %s, want %s", ErrLifecycle, op, s, want)
	}
	return nil
}

// Config2D configures a 2-D plate. Loads defines the working grid. TeGrid,
// when set, matches Loads or is one cell larger on every edge; otherwise the
// scalar Te applies everywhere.
type Config2D struct {
	Material
	Method        Method
	Solver        Solver
	PlateSolution PlateSolution
	Tolerance     float64

	Dx, Dy float64 // m
	Te     float64 // m
	TeGrid *mat.Dense
	Loads  *mat.Dense // Pa

	BCNorth, BCSouth, BCWest, BCEast BoundaryCondition

	Output
	FS fsutil.FileSystem
}

// F2D is a 2-D flexure problem.
type F2D struct {
	cfg   Config2D
	state state
	plate *plate
	d     float64 // uniform rigidity, for SAS
	w     *mat.Dense
}

// NewF2D validates cfg and returns a configured solver.
func NewF2D(cfg Config2D) (*F2D, error) {
	if err := cfg.Material.Validate(); err != nil {
		return nil, err
	}
	if _, err := ParseMethod(string(cfg.Method)); err != nil {
		return nil, err
	}
	var err error
	if cfg.Solver, err = ParseSolver(string(cfg.Solver)); err != nil {
		return nil, err
	}
	if cfg.PlateSolution, err = ParsePlateSolution(string(cfg.PlateSolution)); err != nil {
		return nil, err
	}
	for _, bc := range []*BoundaryCondition{&cfg.BCNorth, &cfg.BCSouth, &cfg.BCWest, &cfg.BCEast} {
		if *bc, err = ParseBoundaryCondition(string(*bc)); err != nil {
			return nil, err
		}
	}
	if err := checkMethodBCs(cfg.Method, cfg.BCNorth, cfg.BCSouth, cfg.BCWest, cfg.BCEast); err != nil {
		return nil, err
	}
	if err := checkPeriodicPair("west/east", cfg.BCWest, cfg.BCEast); err != nil {
		return nil, err
	}
	if err := checkPeriodicPair("north/south", cfg.BCNorth, cfg.BCSouth); err != nil {
		return nil, err
	}
	if !(cfg.Dx > 0) || !(cfg.Dy > 0) {
		return nil, fmt.Errorf("%w: grid spacing must be positive, got dx=%g dy=%g", ErrConfig, cfg.Dx, cfg.Dy)
	}
	if cfg.Loads == nil {
		return nil, fmt.Errorf("%w: no loads", ErrConfig)
	}
	ny, nx := cfg.Loads.Dims()
	if cfg.TeGrid != nil {
		ty, tx := cfg.TeGrid.Dims()
		if !(ty == ny && tx == nx) && !(ty == ny+2 && tx == nx+2) {
			return nil, fmt.Errorf("%w: elastic thickness grid %dx%d does not fit %dx%d loads", ErrConfig, ty, tx, ny, nx)
		}
		if mat.Min(cfg.TeGrid) < 0 {
			return nil, fmt.Errorf("%w: negative elastic thickness", ErrConfig)
		}
	} else if !(cfg.Te >= 0) {
		return nil, fmt.Errorf("%w: elastic thickness must be non-negative, got %g", ErrConfig, cfg.Te)
	}
	if err := cfg.Output.validate(); err != nil {
		return nil, err
	}
	if cfg.Tolerance == 0 {
		cfg.Tolerance = defaultTolerance
	}
	if cfg.FS == nil {
		cfg.FS = fsutil.OSFileSystem{}
	}
	return &F2D{cfg: cfg}, nil
}

// Initialize derives rigidity and checks method-specific requirements.
func (f *F2D) Initialize() error {
	if err := f.state.expect(stateConfigured, "Initialize"); err != nil {
		return err
	}
	cfg := f.cfg
	ny, nx := cfg.Loads.Dims()

	te := f.thickness(ny, nx)
	if cfg.Method == MethodSAS {
		for _, v := range te {
			if math.Abs(v-te[0]) > 1e-9*math.Max(1, te[0]) {
				return fmt.Errorf("%w: SAS requires uniform elastic thickness", ErrConfig)
			}
		}
		f.d = cfg.Rigidity(te[0])
		f.state = stateInitialized
		monitoring.Debugf("F2D initialized: SAS, %dx%d, D=%.4g", ny, nx, f.d)
		return nil
	}

	padded := len(te) == (ny+2)*(nx+2)
	rig := make([]float64, len(te))
	for i, v := range te {
		rig[i] = cfg.Rigidity(v)
	}
	if !padded {
		rig = padRigidity(rig, ny, nx, true, cfg.BCWest == BCPeriodic, cfg.BCNorth == BCPeriodic)
	}
	f.plate = &plate{
		nx:      nx,
		ny:      ny,
		dx:      cfg.Dx,
		dy:      cfg.Dy,
		twoD:    true,
		nu:      cfg.PoissonsRatio,
		drhog:   cfg.DRho() * cfg.GravAccel,
		variant: cfg.PlateSolution,
		west:    cfg.BCWest,
		east:    cfg.BCEast,
		north:   cfg.BCNorth,
		south:   cfg.BCSouth,
		rig:     rig,
	}
	f.state = stateInitialized
	monitoring.Debugf("F2D initialized: FD/%s/%s, %dx%d", cfg.Solver, cfg.PlateSolution, ny, nx)
	return nil
}

// thickness returns Te as a flat slice: (ny+2)*(nx+2) values when a padded
// grid was supplied, ny*nx otherwise.
func (f *F2D) thickness(ny, nx int) []float64 {
	if f.cfg.TeGrid == nil {
		te := make([]float64, ny*nx)
		for i := range te {
			te[i] = f.cfg.Te
		}
		return te
	}
	r, c := f.cfg.TeGrid.Dims()
	te := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		te = append(te, mat.Row(nil, i, f.cfg.TeGrid)...)
	}
	return te
}

// Run computes deflections.
func (f *F2D) Run() error {
	if err := f.state.expect(stateInitialized, "Run"); err != nil {
		return err
	}
	cfg := f.cfg
	ny, nx := cfg.Loads.Dims()
	loads := make([]float64, 0, ny*nx)
	for i := 0; i < ny; i++ {
		loads = append(loads, mat.Row(nil, i, cfg.Loads)...)
	}

	var w []float64
	var err error
	if cfg.Method == MethodSAS {
		w = superpose2D(loads, ny, nx, cfg.Dx, cfg.Dy, f.d, cfg.DRho()*cfg.GravAccel)
	} else {
		w, err = solveFD(f.plate, loads, cfg.Solver, cfg.Tolerance)
		if err != nil {
			return err
		}
	}
	f.w = mat.NewDense(ny, nx, w)
	f.state = stateRun
	return nil
}

// Finalize releases solver working state. Deflections become readable.
func (f *F2D) Finalize() error {
	if err := f.state.expect(stateRun, "Finalize"); err != nil {
		return err
	}
	f.plate = nil
	f.state = stateFinalized
	return nil
}

// Deflection returns the deflection grid, shaped like the loads.
func (f *F2D) Deflection() (*mat.Dense, error) {
	if err := f.state.expect(stateFinalized, "Deflection"); err != nil {
		return nil, err
	}
	return f.w, nil
}

// solveFD assembles the plate operator and solves for loads (Pa).
func solveFD(p *plate, loads []float64, solver Solver, tol float64) ([]float64, error) {
	a, err := p.assemble()
	if err != nil {
		return nil, err
	}
	b := make([]float64, len(loads))
	for i, q := range loads {
		b[i] = -q
	}
	if solver == SolverDirect && a.n > maxDirectUnknowns {
		monitoring.Logf("gflex: %d unknowns exceeds the direct solver limit of %d, solving iteratively", a.n, maxDirectUnknowns)
		solver = SolverIterative
	}
	if solver == SolverIterative {
		return solveIterative(a, b, tol)
	}
	return solveDirect(a, b)
}
