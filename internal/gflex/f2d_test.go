package gflex

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/flexure/internal/fsutil"
	"github.com/banshee-data/flexure/internal/testutil"
)

// centralLoad returns an n x n load grid with 1 MPa on the centred
// width x width block.
func centralLoad(n, width int) *mat.Dense {
	q := mat.NewDense(n, n, nil)
	lo := (n - width) / 2
	for i := lo; i < lo+width; i++ {
		for j := lo; j < lo+width; j++ {
			q.Set(i, j, 1e6)
		}
	}
	return q
}

func run2D(t *testing.T, cfg Config2D) *mat.Dense {
	t.Helper()
	f, err := NewF2D(cfg)
	require.NoError(t, err)
	require.NoError(t, f.Initialize())
	require.NoError(t, f.Run())
	require.NoError(t, f.Finalize())
	w, err := f.Deflection()
	require.NoError(t, err)
	return w
}

func TestF2D_UniformLoadVariableThickness(t *testing.T) {
	const ny, nx = 6, 8
	te := mat.NewDense(ny+2, nx+2, nil)
	for i := 0; i < ny+2; i++ {
		for j := 0; j < nx+2; j++ {
			te.Set(i, j, 3000+float64((i*7+j*3)%5)*2000)
		}
	}
	loads := mat.NewDense(ny, nx, nil)
	for i := 0; i < ny; i++ {
		for j := 0; j < nx; j++ {
			loads.Set(i, j, 1.5e6)
		}
	}
	m := DefaultMaterial()
	m.InfillDensity = 1000
	want := -1.5e6 / (m.DRho() * m.GravAccel)

	for _, solver := range []Solver{SolverDirect, SolverIterative} {
		cfg := Config2D{
			Material: m,
			Method:   MethodFD,
			Solver:   solver,
			Dx:       4000,
			Dy:       6000,
			TeGrid:   te,
			Loads:    loads,
		}
		w := run2D(t, cfg)
		r, c := w.Dims()
		require.Equal(t, ny, r)
		require.Equal(t, nx, c)
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				assert.InDelta(t, want, w.At(i, j), 1e-7*math.Abs(want), "%s (%d,%d)", solver, i, j)
			}
		}
	}
}

func TestF2D_FDCloseToSASInTheInterior(t *testing.T) {
	base := Config2D{
		Material: DefaultMaterial(),
		Dx:       5000,
		Dy:       5000,
		Te:       5000,
		Loads:    centralLoad(21, 5),
	}
	fd := base
	fd.Method = MethodFD
	sas := base
	sas.Method = MethodSAS

	wf, ws := run2D(t, fd), run2D(t, sas)
	a, b := wf.At(10, 10), ws.At(10, 10)
	assert.Less(t, b, 0.0)
	assert.Less(t, math.Abs(a-b)/math.Abs(b), 0.05, "FD %g vs SAS %g", a, b)
	assert.InDelta(t, ws.At(10, 3), ws.At(3, 10), 1e-12, "SAS is radially symmetric")
}

func TestF2D_DirectAndIterativeAgree(t *testing.T) {
	te := mat.NewDense(21, 21, nil)
	for i := 0; i < 21; i++ {
		for j := 0; j < 21; j++ {
			te.Set(i, j, 5000+500*float64((i+j)%5))
		}
	}
	base := Config2D{
		Material:      DefaultMaterial(),
		Method:        MethodFD,
		PlateSolution: VWC1994,
		Dx:            5000,
		Dy:            5000,
		TeGrid:        te,
		Loads:         centralLoad(21, 5),
		BCNorth:       BCMirror,
		BCSouth:       BCNoOutsideLoads,
		BCWest:        BCNoOutsideLoads,
		BCEast:        BC0Displacement0Slope,
	}
	iter := base
	iter.Solver = SolverIterative
	iter.Tolerance = 1e-12

	wd, wi := run2D(t, base), run2D(t, iter)
	assert.True(t, mat.EqualApprox(wd, wi, 1e-6), "direct and iterative solutions differ")
	assert.Less(t, mat.Min(wd), 0.0)
}

func TestF2D_G2009DiffersOnlyWithRigidityGradients(t *testing.T) {
	base := Config2D{
		Material: DefaultMaterial(),
		Method:   MethodFD,
		Dx:       5000,
		Dy:       5000,
		Te:       8000,
		Loads:    centralLoad(11, 3),
	}
	g := base
	g.PlateSolution = G2009
	assert.True(t, mat.EqualApprox(run2D(t, base), run2D(t, g), 1e-9), "uniform rigidity: variants coincide")

	te := mat.NewDense(11, 11, nil)
	for i := 0; i < 11; i++ {
		for j := 0; j < 11; j++ {
			te.Set(i, j, 2000+1500*float64(j))
		}
	}
	base.TeGrid, g.TeGrid = te, te
	assert.False(t, mat.EqualApprox(run2D(t, base), run2D(t, g), 1e-6), "rigidity gradient: variants differ")
}

func TestF2D_ConfigErrors(t *testing.T) {
	valid := func() Config2D {
		return Config2D{
			Material: DefaultMaterial(),
			Method:   MethodFD,
			Dx:       1000,
			Dy:       1000,
			Te:       10000,
			Loads:    centralLoad(5, 1),
		}
	}
	tests := []struct {
		name   string
		mutate func(*Config2D)
	}{
		{"no loads", func(c *Config2D) { c.Loads = nil }},
		{"zero dy", func(c *Config2D) { c.Dy = 0 }},
		{"nan dx", func(c *Config2D) { c.Dx = math.NaN() }},
		{"bad plate solution", func(c *Config2D) { c.PlateSolution = "K1990" }},
		{"bad north", func(c *Config2D) { c.BCNorth = "Open" }},
		{"half periodic", func(c *Config2D) { c.BCNorth = BCPeriodic }},
		{"te grid off by one", func(c *Config2D) { c.TeGrid = mat.NewDense(6, 6, nil) }},
		{"negative te grid", func(c *Config2D) {
			te := mat.NewDense(5, 5, nil)
			te.Set(2, 2, -1)
			c.TeGrid = te
		}},
		{"negative scalar te", func(c *Config2D) { c.Te = -1 }},
		{"sas mirror", func(c *Config2D) {
			c.Method = MethodSAS
			c.BCSouth = BCMirror
		}},
		{"bad plot", func(c *Config2D) {
			c.PlotChoice = "x"
			c.PlotFile = "a.png"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			_, err := NewF2D(cfg)
			assert.ErrorIs(t, err, ErrConfig)
		})
	}

	cfg := valid()
	cfg.TeGrid = mat.NewDense(7, 7, nil)
	_, err := NewF2D(cfg)
	assert.NoError(t, err, "padded thickness grid is accepted")
}

func TestF2D_SASNeedsUniformThickness(t *testing.T) {
	te := mat.NewDense(5, 5, nil)
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			te.Set(i, j, 10000)
		}
	}
	te.Set(0, 0, 12000)
	f, err := NewF2D(Config2D{
		Material: DefaultMaterial(),
		Method:   MethodSAS,
		Dx:       1000,
		Dy:       1000,
		TeGrid:   te,
		Loads:    centralLoad(5, 1),
	})
	require.NoError(t, err)
	assert.ErrorIs(t, f.Initialize(), ErrConfig)
}

func TestF2D_TooSmallForFD(t *testing.T) {
	f, err := NewF2D(Config2D{
		Material: DefaultMaterial(),
		Method:   MethodFD,
		Dx:       1000,
		Dy:       1000,
		Te:       1000,
		Loads:    mat.NewDense(2, 5, nil),
	})
	require.NoError(t, err)
	require.NoError(t, f.Initialize())
	assert.ErrorIs(t, f.Run(), ErrConfig)
	assert.ErrorIs(t, f.Finalize(), ErrLifecycle, "a failed run does not advance the lifecycle")
}

func TestF2D_DirectFallsBackToIterativeWhenLarge(t *testing.T) {
	logs := testutil.CaptureLogs(t)

	const n = 68 // 4624 unknowns
	loads := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			loads.Set(i, j, 1e6)
		}
	}
	w := run2D(t, Config2D{
		Material: DefaultMaterial(),
		Method:   MethodFD,
		Solver:   SolverDirect,
		Dx:       10000,
		Dy:       10000,
		Te:       5000,
		Loads:    loads,
	})

	want := -1e6 / (3300 * 9.8)
	assert.InDelta(t, want, mat.Min(w), 1e-3*math.Abs(want))
	assert.InDelta(t, want, mat.Max(w), 1e-3*math.Abs(want))
	require.NotEmpty(t, *logs)
	assert.Contains(t, strings.Join(*logs, "\n"), "4624 unknowns exceeds the direct solver limit of 4096, solving iteratively")
}

func TestSolveDirectRejectsLargeSystems(t *testing.T) {
	_, err := solveDirect(&csr{n: maxDirectUnknowns + 1}, nil)
	require.ErrorIs(t, err, ErrConfig)
}

func TestF2D_ZeroLoadIsFlat(t *testing.T) {
	w := run2D(t, Config2D{
		Material: DefaultMaterial(),
		Method:   MethodFD,
		Solver:   SolverIterative,
		Dx:       1000,
		Dy:       1000,
		Te:       1000,
		Loads:    mat.NewDense(80, 80, nil),
	})
	assert.Equal(t, 0.0, mat.Max(w))
	assert.Equal(t, 0.0, mat.Min(w))
}

func TestF2D_Output(t *testing.T) {
	mem := fsutil.NewMemFS()
	cfg := Config2D{
		Material: DefaultMaterial(),
		Method:   MethodSAS,
		Dx:       5000,
		Dy:       5000,
		Te:       5000,
		Loads:    centralLoad(9, 3),
		Output:   Output{PlotChoice: "combo", PlotFile: "maps/w.png", WOutFile: "maps/w.txt"},
		FS:       mem,
	}
	f, err := NewF2D(cfg)
	require.NoError(t, err)
	require.NoError(t, f.Initialize())
	require.NoError(t, f.Run())
	require.NoError(t, f.Finalize())
	require.NoError(t, f.Output())

	assert.Equal(t, []string{"maps/w.png", "maps/w.txt"}, mem.Files())
	png, _ := mem.ReadFile("maps/w.png")
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	text, _ := mem.ReadFile("maps/w.txt")
	rows := strings.Split(strings.TrimSpace(string(text)), "\n")
	require.Len(t, rows, 9)
	assert.Len(t, strings.Fields(rows[4]), 9)
}
