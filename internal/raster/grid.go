// Package raster holds dense 2-D numeric grids aligned to a region, and the
// transforms applied to them between the workspace and the solver: interior
// trimming, resampling, and the ASCII grid and blob codecs.
package raster

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

// ErrShape is returned when a grid does not have the dimensions an operation
// requires.
var ErrShape = errors.New("grid shape mismatch")

// Grid is a dense row-major raster. Row 0 is the northern edge and column 0
// the western edge.
type Grid struct {
	Rows int
	Cols int
	Data []float64
}

// New allocates a zero grid.
func New(rows, cols int) *Grid {
	return &Grid{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// Filled allocates a grid with every cell set to v.
func Filled(rows, cols int, v float64) *Grid {
	g := New(rows, cols)
	for i := range g.Data {
		g.Data[i] = v
	}
	return g
}

// FromDense copies a gonum matrix into a grid.
func FromDense(m mat.Matrix) *Grid {
	r, c := m.Dims()
	g := New(r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			g.Data[i*c+j] = m.At(i, j)
		}
	}
	return g
}

// Dense returns a gonum view sharing the grid's backing slice.
func (g *Grid) Dense() *mat.Dense {
	return mat.NewDense(g.Rows, g.Cols, g.Data)
}

// At returns the value at (row, col).
func (g *Grid) At(row, col int) float64 { return g.Data[row*g.Cols+col] }

// Set stores v at (row, col).
func (g *Grid) Set(row, col int, v float64) { g.Data[row*g.Cols+col] = v }

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	out := &Grid{Rows: g.Rows, Cols: g.Cols, Data: make([]float64, len(g.Data))}
	copy(out.Data, g.Data)
	return out
}

// Validate checks the backing slice length and that every value is finite.
func (g *Grid) Validate() error {
	if g == nil {
		return fmt.Errorf("%w: nil grid", ErrShape)
	}
	if g.Rows <= 0 || g.Cols <= 0 || len(g.Data) != g.Rows*g.Cols {
		return fmt.Errorf("%w: %dx%d grid with %d values", ErrShape, g.Rows, g.Cols, len(g.Data))
	}
	for i, v := range g.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite value %g at row %d col %d", v, i/g.Cols, i%g.Cols)
		}
	}
	return nil
}

// Interior returns a copy of the grid with margin cells removed from every
// edge. It is the grid counterpart of region.Region.Shrink.
func (g *Grid) Interior(margin int) (*Grid, error) {
	if margin < 0 {
		return nil, fmt.Errorf("%w: negative margin %d", ErrShape, margin)
	}
	rows, cols := g.Rows-2*margin, g.Cols-2*margin
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d grid has no interior at margin %d", ErrShape, g.Rows, g.Cols, margin)
	}
	out := New(rows, cols)
	for i := 0; i < rows; i++ {
		copy(out.Data[i*cols:(i+1)*cols], g.Data[(i+margin)*g.Cols+margin:(i+margin)*g.Cols+margin+cols])
	}
	return out, nil
}

// Scale multiplies every cell by k in place and returns g.
func (g *Grid) Scale(k float64) *Grid {
	floats.Scale(k, g.Data)
	return g
}

// Stats summarises a grid.
type Stats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Summary returns min, max and mean over all cells.
func (g *Grid) Summary() Stats {
	if len(g.Data) == 0 {
		return Stats{}
	}
	return Stats{
		Min:  floats.Min(g.Data),
		Max:  floats.Max(g.Data),
		Mean: floats.Sum(g.Data) / float64(len(g.Data)),
	}
}

// IsUniform reports whether every cell equals the first within relative
// tolerance tol.
func (g *Grid) IsUniform(tol float64) bool {
	if len(g.Data) == 0 {
		return true
	}
	ref := g.Data[0]
	for _, v := range g.Data[1:] {
		if !scalar.EqualWithinAbsOrRel(v, ref, tol, tol) {
			return false
		}
	}
	return true
}
