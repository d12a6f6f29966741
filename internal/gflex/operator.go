package gflex

import (
	"fmt"
	"sort"
)

// combo is a sparse linear combination of unknowns, keyed by unknown index.
type combo map[int]float64

func (c combo) add(o combo, k float64) {
	if k == 0 {
		return
	}
	for i, v := range o {
		c[i] += k * v
	}
}

// term is one in-range node referenced by a ghost node.
type term struct {
	idx int
	k   float64
}

// ghost expresses the value at out-of-range index idx on an axis of n nodes
// as a combination of in-range nodes, according to the edge condition. Only
// the two ghost layers on each side are ever requested.
func ghost(bc BoundaryCondition, n, idx int) []term {
	d, b, s := edgeOffset(n, idx)
	switch bc {
	case BC0Displacement0Slope:
		return nil
	case BC0Moment0Shear, BCNoOutsideLoads:
		// w''=0 and w'''=0 at the boundary node.
		if d == 1 {
			return []term{{b, 2}, {b + s, -1}}
		}
		return []term{{b, 4}, {b + s, -4}, {b + 2*s, 1}}
	case BC0Slope0Shear:
		// w'=0 and w'''=0: reflection about the boundary node.
		return []term{{b + d*s, 1}}
	case BCMirror:
		// Reflection about the outer face of the boundary cell.
		return []term{{b + (d-1)*s, 1}}
	case BCPeriodic:
		if idx < 0 {
			return []term{{n + idx, 1}}
		}
		return []term{{idx - n, 1}}
	}
	return nil
}

// edgeOffset locates an out-of-range index: d is its distance outside, b the
// boundary node and s the inward step.
func edgeOffset(n, idx int) (d, b, s int) {
	if idx < 0 {
		return -idx, 0, 1
	}
	return idx - (n - 1), n - 1, -1
}

func isFree(bc BoundaryCondition) bool {
	return bc == BC0Moment0Shear || bc == BCNoOutsideLoads
}

// plate describes one FD plate problem on an ny x nx lattice. A 1-D plate
// has ny == 1 and twoD == false; y derivatives are then dropped.
type plate struct {
	nx, ny  int
	dx, dy  float64
	twoD    bool
	nu      float64
	drhog   float64
	variant PlateSolution
	west    BoundaryCondition
	east    BoundaryCondition
	north   BoundaryCondition
	south   BoundaryCondition
	// rig holds flexural rigidity on the lattice padded by one node per
	// edge: (ny+2) x (nx+2) in 2-D, 1 x (nx+2) in 1-D.
	rig []float64
}

func (p *plate) unknowns() int { return p.nx * p.ny }

func (p *plate) rigAt(i, j int) float64 {
	if !p.twoD {
		return p.rig[j+1]
	}
	return p.rig[(i+1)*(p.nx+2)+j+1]
}

// w returns the expression for the deflection at lattice node (i, j),
// resolving ghost nodes through the boundary conditions.
func (p *plate) w(i, j int) combo {
	if j < 0 || j >= p.nx {
		bc := p.east
		if j < 0 {
			bc = p.west
		}
		if p.twoD && isFree(bc) && i >= 1 && i <= p.ny-2 {
			return p.freeGhost(i, j, true)
		}
		out := combo{}
		for _, t := range ghost(bc, p.nx, j) {
			out.add(p.w(i, t.idx), t.k)
		}
		return out
	}
	if p.twoD && (i < 0 || i >= p.ny) {
		bc := p.south
		if i < 0 {
			bc = p.north
		}
		if isFree(bc) && j >= 1 && j <= p.nx-2 {
			return p.freeGhost(i, j, false)
		}
		out := combo{}
		for _, t := range ghost(bc, p.ny, i) {
			out.add(p.w(t.idx, j), t.k)
		}
		return out
	}
	return combo{i*p.nx + j: 1}
}

// freeGhost resolves a ghost node beyond a free edge of a 2-D plate from the
// plate's free-edge conditions: zero bending moment w_nn + nu*w_tt = 0 gives
// the first ghost layer and zero effective shear w_nnn + (2-nu)*w_ntt = 0 the
// second. xEdge selects a west or east edge. Nodes whose tangential neighbours
// are themselves ghosts (plate corners) fall back to the 1-D conditions.
func (p *plate) freeGhost(i, j int, xEdge bool) combo {
	at := func(a, t int) combo { return p.w(a, t) }
	idx, n, tang, h, k := i, p.ny, j, p.dy, p.dx
	if xEdge {
		at = func(a, t int) combo { return p.w(t, a) }
		idx, n, tang, h, k = j, p.nx, i, p.dx, p.dy
	}
	d, b, s := edgeOffset(n, idx)
	r := h * h / (k * k)
	wtt := func(a int) combo {
		c := combo{}
		c.add(at(a, tang+1), 1)
		c.add(at(a, tang), -2)
		c.add(at(a, tang-1), 1)
		return c
	}

	c := combo{}
	if d == 1 {
		c.add(at(b, tang), 2)
		c.add(at(b+s, tang), -1)
		c.add(wtt(b), -p.nu*r)
		return c
	}
	c.add(at(b+2*s, tang), 1)
	c.add(at(b+s, tang), -2)
	c.add(at(b-s, tang), 2)
	c.add(wtt(b+s), (2-p.nu)*r)
	c.add(wtt(b-s), -(2-p.nu)*r)
	return c
}

func (p *plate) wxx(i, j int) combo {
	c := combo{}
	k := 1 / (p.dx * p.dx)
	c.add(p.w(i, j+1), k)
	c.add(p.w(i, j), -2*k)
	c.add(p.w(i, j-1), k)
	return c
}

func (p *plate) wyy(i, j int) combo {
	c := combo{}
	k := 1 / (p.dy * p.dy)
	c.add(p.w(i+1, j), k)
	c.add(p.w(i, j), -2*k)
	c.add(p.w(i-1, j), k)
	return c
}

func (p *plate) wxy(i, j int) combo {
	c := combo{}
	k := 1 / (4 * p.dx * p.dy)
	c.add(p.w(i+1, j+1), k)
	c.add(p.w(i-1, j+1), -k)
	c.add(p.w(i+1, j-1), -k)
	c.add(p.w(i-1, j-1), k)
	return c
}

func (p *plate) lap(i, j int) combo {
	c := p.wxx(i, j)
	if p.twoD {
		c.add(p.wyy(i, j), 1)
	}
	return c
}

// row assembles the plate equation at node (i, j):
//
//	lap(D lap w) - (1-nu)(Dxx wyy - 2 Dxy wxy + Dyy wxx) + drho g w
//
// The bracketed term is dropped in 1-D and for G2009.
func (p *plate) row(i, j int) combo {
	r := combo{}
	kx := 1 / (p.dx * p.dx)
	r.add(p.lap(i, j+1), kx*p.rigAt(i, j+1))
	r.add(p.lap(i, j-1), kx*p.rigAt(i, j-1))
	center := -2 * kx
	if p.twoD {
		ky := 1 / (p.dy * p.dy)
		r.add(p.lap(i+1, j), ky*p.rigAt(i+1, j))
		r.add(p.lap(i-1, j), ky*p.rigAt(i-1, j))
		center -= 2 * ky
	}
	r.add(p.lap(i, j), center*p.rigAt(i, j))

	if p.twoD && p.variant == VWC1994 {
		dxx := (p.rigAt(i, j+1) - 2*p.rigAt(i, j) + p.rigAt(i, j-1)) / (p.dx * p.dx)
		dyy := (p.rigAt(i+1, j) - 2*p.rigAt(i, j) + p.rigAt(i-1, j)) / (p.dy * p.dy)
		dxy := (p.rigAt(i+1, j+1) - p.rigAt(i-1, j+1) - p.rigAt(i+1, j-1) + p.rigAt(i-1, j-1)) / (4 * p.dx * p.dy)
		c := 1 - p.nu
		r.add(p.wyy(i, j), -c*dxx)
		r.add(p.wxy(i, j), 2*c*dxy)
		r.add(p.wxx(i, j), -c*dyy)
	}

	r[i*p.nx+j] += p.drhog
	return r
}

// csr is a compressed sparse row matrix.
type csr struct {
	n      int
	rowPtr []int
	cols   []int
	vals   []float64
}

func (a *csr) mulVec(dst, x []float64) {
	for i := 0; i < a.n; i++ {
		var s float64
		for k := a.rowPtr[i]; k < a.rowPtr[i+1]; k++ {
			s += a.vals[k] * x[a.cols[k]]
		}
		dst[i] = s
	}
}

func (a *csr) diag() []float64 {
	d := make([]float64, a.n)
	for i := 0; i < a.n; i++ {
		for k := a.rowPtr[i]; k < a.rowPtr[i+1]; k++ {
			if a.cols[k] == i {
				d[i] = a.vals[k]
			}
		}
	}
	return d
}

// assemble builds the plate operator as a CSR matrix.
func (p *plate) assemble() (*csr, error) {
	if p.nx < 3 || (p.twoD && p.ny < 3) {
		return nil, fmt.Errorf("%w: FD needs at least 3 nodes per axis, got %dx%d", ErrConfig, p.ny, p.nx)
	}
	n := p.unknowns()
	a := &csr{n: n, rowPtr: make([]int, n+1)}
	for i := 0; i < p.ny; i++ {
		for j := 0; j < p.nx; j++ {
			r := p.row(i, j)
			idx := make([]int, 0, len(r))
			for c, v := range r {
				if v != 0 {
					idx = append(idx, c)
				}
			}
			sort.Ints(idx)
			for _, c := range idx {
				a.cols = append(a.cols, c)
				a.vals = append(a.vals, r[c])
			}
			a.rowPtr[i*p.nx+j+1] = len(a.cols)
		}
	}
	return a, nil
}

// padRigidity expands an ny x nx rigidity field by one node per edge,
// wrapping across periodic axes and replicating edge values elsewhere.
func padRigidity(d []float64, ny, nx int, twoD, periodicX, periodicY bool) []float64 {
	px := nx + 2
	if !twoD {
		out := make([]float64, px)
		copy(out[1:], d)
		out[0], out[px-1] = d[0], d[nx-1]
		if periodicX {
			out[0], out[px-1] = d[nx-1], d[0]
		}
		return out
	}
	py := ny + 2
	out := make([]float64, py*px)
	for i := -1; i <= ny; i++ {
		si := wrapOrClamp(i, ny, periodicY)
		for j := -1; j <= nx; j++ {
			sj := wrapOrClamp(j, nx, periodicX)
			out[(i+1)*px+j+1] = d[si*nx+sj]
		}
	}
	return out
}

func wrapOrClamp(i, n int, wrap bool) int {
	switch {
	case i < 0 && wrap:
		return n + i
	case i >= n && wrap:
		return i - n
	case i < 0:
		return 0
	case i >= n:
		return n - 1
	}
	return i
}
