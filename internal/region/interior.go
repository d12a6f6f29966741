package region

import "fmt"

// Shrink returns the region pulled in by margin cells on every edge. The
// resolution is unchanged and each axis loses 2*margin cells.
func (r Region) Shrink(margin int) (Region, error) {
	if margin < 0 {
		return Region{}, fmt.Errorf("%w: negative margin %d", ErrInvalid, margin)
	}
	if r.Rows <= 2*margin || r.Cols <= 2*margin {
		return Region{}, fmt.Errorf("%w: %dx%d region has no interior at margin %d", ErrInvalid, r.Rows, r.Cols, margin)
	}
	m := float64(margin)
	out := r
	out.North = r.North - m*r.NSRes
	out.South = r.South + m*r.NSRes
	out.East = r.East - m*r.EWRes
	out.West = r.West + m*r.EWRes
	out.Rows = r.Rows - 2*margin
	out.Cols = r.Cols - 2*margin
	return out, nil
}

// Expand is the inverse of Shrink: it pushes every edge out by margin cells
// of the axis' own resolution.
func (r Region) Expand(margin int) (Region, error) {
	if margin < 0 {
		return Region{}, fmt.Errorf("%w: negative margin %d", ErrInvalid, margin)
	}
	m := float64(margin)
	out := r
	out.North = r.North + m*r.NSRes
	out.South = r.South - m*r.NSRes
	out.East = r.East + m*r.EWRes
	out.West = r.West - m*r.EWRes
	out.Rows = r.Rows + 2*margin
	out.Cols = r.Cols + 2*margin
	return out, nil
}

// Interior pairs a region with its interior at a fixed margin. Outer is kept
// verbatim so going back out never depends on floating-point arithmetic.
type Interior struct {
	Outer  Region
	Inner  Region
	Margin int
}

// NewInterior validates outer and computes its interior at margin.
func NewInterior(outer Region, margin int) (Interior, error) {
	if err := outer.Validate(); err != nil {
		return Interior{}, err
	}
	inner, err := outer.Shrink(margin)
	if err != nil {
		return Interior{}, err
	}
	back, err := inner.Expand(margin)
	if err != nil {
		return Interior{}, err
	}
	if !back.Matches(outer) {
		return Interior{}, fmt.Errorf("%w: interior at margin %d does not expand back to the region", ErrInvalid, margin)
	}
	return Interior{Outer: outer, Inner: inner, Margin: margin}, nil
}

// Dims returns the inner lattice size.
func (in Interior) Dims() (rows, cols int) { return in.Inner.Rows, in.Inner.Cols }
