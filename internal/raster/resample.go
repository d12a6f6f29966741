package raster

import (
	"fmt"
	"math"

	"github.com/banshee-data/flexure/internal/region"
)

// Method selects a resampling kernel.
type Method string

const (
	Nearest  Method = "nearest"
	Bilinear Method = "bilinear"
	Lanczos  Method = "lanczos"
)

// lanczosA is the Lanczos window half-width in cells.
const lanczosA = 2

// integralTol is how close a lattice coordinate must be to a whole number to
// be treated as landing exactly on a source cell centre.
const integralTol = 1e-9

// ParseMethod validates a resampling method name.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case Nearest, Bilinear, Lanczos:
		return m, nil
	}
	return "", fmt.Errorf("unknown interpolation method %q (want nearest, bilinear or lanczos)", s)
}

// Resample maps src, laid out on from, onto the lattice of to. Sample
// positions outside the source extent are clamped to the nearest edge cell,
// so the result is always finite when src is.
func Resample(src *Grid, from, to region.Region, m Method) (*Grid, error) {
	if src.Rows != from.Rows || src.Cols != from.Cols {
		return nil, fmt.Errorf("%w: %dx%d grid on %dx%d region", ErrShape, src.Rows, src.Cols, from.Rows, from.Cols)
	}
	if _, err := ParseMethod(string(m)); err != nil {
		return nil, err
	}
	out := New(to.Rows, to.Cols)
	for i := 0; i < to.Rows; i++ {
		for j := 0; j < to.Cols; j++ {
			x, y := to.CellCenter(i, j)
			col, row := from.Fractional(x, y)
			var v float64
			switch m {
			case Nearest:
				v = src.At(clamp(int(math.Round(row)), src.Rows), clamp(int(math.Round(col)), src.Cols))
			case Bilinear:
				v = bilinear(src, col, row)
			case Lanczos:
				v = lanczos(src, col, row)
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

func bilinear(src *Grid, col, row float64) float64 {
	c0, r0 := math.Floor(col), math.Floor(row)
	fc, fr := col-c0, row-r0
	ci, ri := int(c0), int(r0)
	v00 := src.At(clamp(ri, src.Rows), clamp(ci, src.Cols))
	v01 := src.At(clamp(ri, src.Rows), clamp(ci+1, src.Cols))
	v10 := src.At(clamp(ri+1, src.Rows), clamp(ci, src.Cols))
	v11 := src.At(clamp(ri+1, src.Rows), clamp(ci+1, src.Cols))
	top := v00*(1-fc) + v01*fc
	bottom := v10*(1-fc) + v11*fc
	return top*(1-fr) + bottom*fr
}

func lanczos(src *Grid, col, row float64) float64 {
	cols, cw := lanczosTaps(col, src.Cols)
	rows, rw := lanczosTaps(row, src.Rows)
	var sum, norm float64
	for a, ri := range rows {
		for b, ci := range cols {
			w := rw[a] * cw[b]
			sum += w * src.At(ri, ci)
			norm += w
		}
	}
	if norm == 0 {
		return src.At(clamp(int(math.Round(row)), src.Rows), clamp(int(math.Round(col)), src.Cols))
	}
	return sum / norm
}

// lanczosTaps returns clamped source indices and kernel weights along one
// axis for fractional position u.
func lanczosTaps(u float64, n int) ([]int, []float64) {
	if r := math.Round(u); math.Abs(u-r) < integralTol {
		return []int{clamp(int(r), n)}, []float64{1}
	}
	base := int(math.Floor(u))
	idx := make([]int, 0, 2*lanczosA)
	w := make([]float64, 0, 2*lanczosA)
	for k := base - lanczosA + 1; k <= base+lanczosA; k++ {
		idx = append(idx, clamp(k, n))
		w = append(w, lanczosKernel(u-float64(k)))
	}
	return idx, w
}

func lanczosKernel(x float64) float64 {
	if x == 0 {
		return 1
	}
	if math.Abs(x) >= lanczosA {
		return 0
	}
	px := math.Pi * x
	return lanczosA * math.Sin(px) * math.Sin(px/lanczosA) / (px * px)
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
