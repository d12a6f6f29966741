// Package region models a geographic processing region: bounds, cell
// resolution, row/column counts and the coordinate system.
//
// A Region is a plain value. Operations that change a region return a new
// value instead of mutating shared state, so a caller can always keep the
// original around and put it back.
package region

import (
	"errors"
	"fmt"
	"math"
)

// Projection codes, following the GIS convention where 3 is lat/lon.
const (
	ProjXY  = 0
	ProjUTM = 1
	ProjLL  = 3
)

// relTol is the relative tolerance used when checking that resolution times
// cell count reconstructs the bounds.
const relTol = 1e-9

// ErrInvalid is returned for regions whose bounds, resolution and counts do
// not agree.
var ErrInvalid = errors.New("invalid region")

// Region is the extent and lattice of a raster computation.
type Region struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
	NSRes float64 `json:"nsres"`
	EWRes float64 `json:"ewres"`
	Rows  int     `json:"rows"`
	Cols  int     `json:"cols"`
	Proj  int     `json:"proj"`
}

// FromBounds builds a region from its bounds and a cell count. Resolutions
// are derived so that the invariant holds exactly by construction.
func FromBounds(north, south, east, west float64, rows, cols, proj int) (Region, error) {
	r := Region{North: north, South: south, East: east, West: west, Rows: rows, Cols: cols, Proj: proj}
	if rows <= 0 || cols <= 0 {
		return Region{}, fmt.Errorf("%w: rows=%d cols=%d must be positive", ErrInvalid, rows, cols)
	}
	r.NSRes = (north - south) / float64(rows)
	r.EWRes = (east - west) / float64(cols)
	return r, r.Validate()
}

// FromResolution builds a region from its bounds and resolutions, rounding
// the cell counts to the nearest whole cell and snapping the resolutions so
// the lattice covers the bounds exactly.
func FromResolution(north, south, east, west, nsres, ewres float64, proj int) (Region, error) {
	if nsres <= 0 || ewres <= 0 {
		return Region{}, fmt.Errorf("%w: resolution must be positive, got nsres=%g ewres=%g", ErrInvalid, nsres, ewres)
	}
	rows := int(math.Round((north - south) / nsres))
	cols := int(math.Round((east - west) / ewres))
	return FromBounds(north, south, east, west, rows, cols, proj)
}

// Validate checks bounds, resolution and cell counts against each other.
func (r Region) Validate() error {
	if r.Rows <= 0 || r.Cols <= 0 {
		return fmt.Errorf("%w: rows=%d cols=%d must be positive", ErrInvalid, r.Rows, r.Cols)
	}
	if !(r.North > r.South) || !(r.East > r.West) {
		return fmt.Errorf("%w: bounds n=%g s=%g e=%g w=%g are not ordered", ErrInvalid, r.North, r.South, r.East, r.West)
	}
	if !(r.NSRes > 0) || !(r.EWRes > 0) {
		return fmt.Errorf("%w: resolution must be positive, got nsres=%g ewres=%g", ErrInvalid, r.NSRes, r.EWRes)
	}
	if !approxEqual(float64(r.Rows)*r.NSRes, r.North-r.South) {
		return fmt.Errorf("%w: %d rows x %g does not span n-s extent %g", ErrInvalid, r.Rows, r.NSRes, r.North-r.South)
	}
	if !approxEqual(float64(r.Cols)*r.EWRes, r.East-r.West) {
		return fmt.Errorf("%w: %d cols x %g does not span e-w extent %g", ErrInvalid, r.Cols, r.EWRes, r.East-r.West)
	}
	switch r.Proj {
	case ProjXY, ProjUTM, ProjLL:
	default:
		return fmt.Errorf("%w: unknown projection code %d", ErrInvalid, r.Proj)
	}
	return nil
}

// IsLatLon reports whether the region is in geographic coordinates.
func (r Region) IsLatLon() bool { return r.Proj == ProjLL }

// Cells returns the number of cells in the region.
func (r Region) Cells() int { return r.Rows * r.Cols }

// Matches reports whether two regions describe the same lattice.
func (r Region) Matches(o Region) bool {
	return r.Rows == o.Rows && r.Cols == o.Cols && r.Proj == o.Proj &&
		approxEqual(r.North, o.North) && approxEqual(r.South, o.South) &&
		approxEqual(r.East, o.East) && approxEqual(r.West, o.West)
}

// CellCenter returns the easting and northing of the centre of cell (row, col).
func (r Region) CellCenter(row, col int) (x, y float64) {
	x = r.West + (float64(col)+0.5)*r.EWRes
	y = r.North - (float64(row)+0.5)*r.NSRes
	return x, y
}

// Fractional returns the fractional (col, row) lattice position of a point,
// where integer values fall on cell centres.
func (r Region) Fractional(x, y float64) (col, row float64) {
	col = (x-r.West)/r.EWRes - 0.5
	row = (r.North-y)/r.NSRes - 0.5
	return col, row
}

func (r Region) String() string {
	return fmt.Sprintf("n=%g s=%g e=%g w=%g nsres=%g ewres=%g rows=%d cols=%d proj=%d",
		r.North, r.South, r.East, r.West, r.NSRes, r.EWRes, r.Rows, r.Cols, r.Proj)
}

func approxEqual(a, b float64) bool {
	scale := math.Max(math.Abs(a), math.Abs(b))
	if scale < 1 {
		scale = 1
	}
	return math.Abs(a-b) <= relTol*scale
}
