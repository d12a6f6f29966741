package flexure

import (
	"context"
	"fmt"

	"github.com/banshee-data/flexure/internal/gflex"
	"github.com/banshee-data/flexure/internal/monitoring"
	"github.com/banshee-data/flexure/internal/raster"
	"github.com/banshee-data/flexure/internal/region"
	"github.com/banshee-data/flexure/internal/units"
)

// Store is the part of a workspace the driver reads from and writes to.
type Store interface {
	Region(ctx context.Context) (region.Region, error)
	WithRegion(ctx context.Context, r region.Region, fn func(ctx context.Context) error) error
	ReadRaster(ctx context.Context, name string, reg region.Region) (*raster.Grid, error)
	WriteRaster(ctx context.Context, name string, reg region.Region, g *raster.Grid) error
	RasterRegion(ctx context.Context, name string) (region.Region, error)
	SetColors(ctx context.Context, name, ramp string) error
	Resample(ctx context.Context, in, out string, target region.Region, m raster.Method) error
}

// Result summarises a completed run.
type Result struct {
	Output       string        `json:"output"`
	Interp       string        `json:"interp"`
	OutputRegion region.Region `json:"output_region"`
	InterpRegion region.Region `json:"interp_region"`
	Min          float64       `json:"min"`
	Max          float64       `json:"max"`
}

// Run computes the flexural response to the load layer p.Load and writes it
// as p.Output on the interior of the active region, then as
// p.Output+InterpSuffix on the thickness layer's lattice. The active region
// is the same after Run returns as before, whatever the outcome.
func Run(ctx context.Context, ws Store, p Params) (Result, error) {
	pl, err := p.normalize()
	if err != nil {
		return Result{}, err
	}

	active, err := ws.Region(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("active region: %w", err)
	}
	dx, dy, err := spacing(active, p.LatLon)
	if err != nil {
		return Result{}, err
	}
	monitoring.Debugf("method %s solver %s, te %s, dx=%g m dy=%g m", pl.method, pl.solver, pl.te, dx, dy)

	interior, err := region.NewInterior(active, 1)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	q, err := ws.ReadRaster(ctx, p.Load, interior.Outer)
	if err != nil {
		return Result{}, fmt.Errorf("read load %s: %w", p.Load, err)
	}
	// The thickness grid keeps its edge ring as rigidity padding.
	qIn, err := q.Interior(interior.Margin)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	cfg := gflex.Config2D{
		Material:      pl.material,
		Method:        pl.method,
		Solver:        pl.solver,
		PlateSolution: pl.plateSolution,
		Tolerance:     p.Tolerance,
		Dx:            dx,
		Dy:            dy,
		Loads:         qIn.Dense(),
		BCNorth:       pl.bcN,
		BCSouth:       pl.bcS,
		BCWest:        pl.bcW,
		BCEast:        pl.bcE,
	}
	var target region.Region
	if pl.te.IsRaster() {
		te, err := ws.ReadRaster(ctx, pl.te.Raster, active)
		if err != nil {
			return Result{}, fmt.Errorf("read elastic thickness %s: %w", pl.te.Raster, err)
		}
		cfg.TeGrid = te.Scale(units.ToMeters(1, units.KM)).Dense()
		if target, err = ws.RasterRegion(ctx, pl.te.Raster); err != nil {
			return Result{}, err
		}
	} else {
		cfg.Te = units.ToMeters(pl.te.Km, units.KM)
		if target, err = ws.RasterRegion(ctx, p.Load); err != nil {
			return Result{}, err
		}
	}

	w, err := runSolver(cfg)
	if err != nil {
		return Result{}, err
	}
	rows, cols := interior.Dims()
	monitoring.Debugf("solved %dx%d interior grid", rows, cols)

	res := Result{
		Output:       p.Output,
		Interp:       p.Output + InterpSuffix,
		OutputRegion: interior.Inner,
		InterpRegion: target,
	}
	st := w.Summary()
	res.Min, res.Max = st.Min, st.Max

	err = ws.WithRegion(ctx, interior.Inner, func(ctx context.Context) error {
		if err := ws.WriteRaster(ctx, p.Output, interior.Inner, w); err != nil {
			return err
		}
		return ws.SetColors(ctx, p.Output, pl.ramp)
	})
	if err != nil {
		return Result{}, fmt.Errorf("write %s: %w", p.Output, err)
	}

	err = ws.WithRegion(ctx, target, func(ctx context.Context) error {
		if err := ws.Resample(ctx, p.Output, res.Interp, target, pl.interp); err != nil {
			return err
		}
		return ws.SetColors(ctx, res.Interp, pl.ramp)
	})
	if err != nil {
		return Result{}, fmt.Errorf("resample %s: %w", p.Output, err)
	}

	monitoring.Logf("flexure: wrote %s (%dx%d) and %s (%dx%d), deflection %.4g..%.4g m",
		res.Output, res.OutputRegion.Rows, res.OutputRegion.Cols,
		res.Interp, target.Rows, target.Cols, res.Min, res.Max)
	return res, nil
}

// spacing returns the grid spacing in metres. Geographic regions need
// approx, which scales degrees by units.MetersPerDegree on both axes.
func spacing(r region.Region, approx bool) (dx, dy float64, err error) {
	if !r.IsLatLon() {
		return r.EWRes, r.NSRes, nil
	}
	if !approx {
		return 0, 0, fmt.Errorf("%w: %s", ErrPrecondition, LatLonMessage)
	}
	return units.DegreesToMeters(r.EWRes), units.DegreesToMeters(r.NSRes), nil
}

// runSolver is replaced in tests to inspect the solver configuration.
var runSolver = solve

func solve(cfg gflex.Config2D) (*raster.Grid, error) {
	f, err := gflex.NewF2D(cfg)
	if err != nil {
		return nil, fmt.Errorf("configure solver: %w", err)
	}
	steps := []struct {
		name string
		fn   func() error
	}{{"initialize", f.Initialize}, {"run", f.Run}, {"finalize", f.Finalize}}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			return nil, fmt.Errorf("solver %s: %w", s.name, err)
		}
	}
	w, err := f.Deflection()
	if err != nil {
		return nil, err
	}
	return raster.FromDense(w), nil
}
