package gflex

import (
	"fmt"

	"github.com/banshee-data/flexure/internal/fsutil"
	"github.com/banshee-data/flexure/internal/monitoring"
)

// Config1D configures a 1-D (line-load, infinite-strip) plate. Loads defines
// the working grid. TeArray, when set, has len(Loads) or len(Loads)+2
// values; otherwise the scalar Te applies everywhere.
type Config1D struct {
	Material
	Method    Method
	Solver    Solver
	Tolerance float64

	Dx      float64 // m
	Te      float64 // m
	TeArray []float64
	Loads   []float64 // Pa

	BCWest, BCEast BoundaryCondition

	Output
	FS fsutil.FileSystem
}

// F1D is a 1-D flexure problem.
type F1D struct {
	cfg   Config1D
	state state
	plate *plate
	d     float64
	w     []float64
}

// NewF1D validates cfg and returns a configured solver.
func NewF1D(cfg Config1D) (*F1D, error) {
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
	if cfg.BCWest, err = ParseBoundaryCondition(string(cfg.BCWest)); err != nil {
		return nil, err
	}
	if cfg.BCEast, err = ParseBoundaryCondition(string(cfg.BCEast)); err != nil {
		return nil, err
	}
	if err := checkMethodBCs(cfg.Method, cfg.BCWest, cfg.BCEast); err != nil {
		return nil, err
	}
	if err := checkPeriodicPair("west/east", cfg.BCWest, cfg.BCEast); err != nil {
		return nil, err
	}
	if !(cfg.Dx > 0) {
		return nil, fmt.Errorf("%w: grid spacing must be positive, got %g", ErrConfig, cfg.Dx)
	}
	n := len(cfg.Loads)
	if n == 0 {
		return nil, fmt.Errorf("%w: no loads", ErrConfig)
	}
	if cfg.TeArray != nil {
		if len(cfg.TeArray) != n && len(cfg.TeArray) != n+2 {
			return nil, fmt.Errorf("%w: %d elastic thickness values do not fit %d loads", ErrConfig, len(cfg.TeArray), n)
		}
		for i, v := range cfg.TeArray {
			if !(v >= 0) {
				return nil, fmt.Errorf("%w: elastic thickness %g at %d must be non-negative", ErrConfig, v, i)
			}
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
	return &F1D{cfg: cfg}, nil
}

// Initialize derives rigidity and checks method-specific requirements.
func (f *F1D) Initialize() error {
	if err := f.state.expect(stateConfigured, "Initialize"); err != nil {
		return err
	}
	cfg := f.cfg
	n := len(cfg.Loads)
	te := cfg.TeArray
	if te == nil {
		te = make([]float64, n)
		for i := range te {
			te[i] = cfg.Te
		}
	}

	if cfg.Method == MethodSAS {
		for _, v := range te {
			if v != te[0] {
				return fmt.Errorf("%w: SAS requires uniform elastic thickness", ErrConfig)
			}
		}
		f.d = cfg.Rigidity(te[0])
		f.state = stateInitialized
		return nil
	}

	rig := make([]float64, len(te))
	for i, v := range te {
		rig[i] = cfg.Rigidity(v)
	}
	if len(rig) == n {
		rig = padRigidity(rig, 1, n, false, cfg.BCWest == BCPeriodic, false)
	}
	f.plate = &plate{
		nx:    n,
		ny:    1,
		dx:    cfg.Dx,
		dy:    cfg.Dx,
		nu:    cfg.PoissonsRatio,
		drhog: cfg.DRho() * cfg.GravAccel,
		west:  cfg.BCWest,
		east:  cfg.BCEast,
		rig:   rig,
	}
	f.state = stateInitialized
	monitoring.Debugf("F1D initialized: FD/%s, %d nodes", cfg.Solver, n)
	return nil
}

// Run computes deflections.
func (f *F1D) Run() error {
	if err := f.state.expect(stateInitialized, "Run"); err != nil {
		return err
	}
	cfg := f.cfg
	if cfg.Method == MethodSAS {
		f.w = superpose1D(cfg.Loads, cfg.Dx, f.d, cfg.DRho()*cfg.GravAccel)
	} else {
		w, err := solveFD(f.plate, cfg.Loads, cfg.Solver, cfg.Tolerance)
		if err != nil {
			return err
		}
		f.w = w
	}
	f.state = stateRun
	return nil
}

// Finalize releases solver working state. Deflections become readable.
func (f *F1D) Finalize() error {
	if err := f.state.expect(stateRun, "Finalize"); err != nil {
		return err
	}
	f.plate = nil
	f.state = stateFinalized
	return nil
}

// Deflection returns the deflections, one per load cell.
func (f *F1D) Deflection() ([]float64, error) {
	if err := f.state.expect(stateFinalized, "Deflection"); err != nil {
		return nil, err
	}
	return f.w, nil
}
