package gflex

import "math"

const eulerGamma = 0.57721566490153286061

// keiSeriesLimit is where kei switches from its power series to the
// leading asymptotic term.
const keiSeriesLimit = 12.0

// kei is the Kelvin function kei of order zero.
func kei(x float64) float64 {
	x = math.Abs(x)
	if x == 0 {
		return -math.Pi / 4
	}
	if x > keiSeriesLimit {
		return -math.Sqrt(math.Pi/(2*x)) * math.Exp(-x/math.Sqrt2) * math.Sin(x/math.Sqrt2+math.Pi/8)
	}
	z := x * x / 4
	z2 := z * z

	// ber = sum (-1)^k z^(2k) / ((2k)!)^2
	// bei = sum (-1)^k z^(2k+1) / ((2k+1)!)^2
	// tail = sum (-1)^k psi(2k+2) z^(2k+1) / ((2k+1)!)^2, psi(2k+2) = H(2k+1) - gamma
	ber, bei, tail := 0.0, 0.0, 0.0
	u, v := 1.0, z
	harmonic := 1.0 // H(1)
	sign := 1.0
	for k := 0; k < 60; k++ {
		ber += sign * u
		bei += sign * v
		tail += sign * (harmonic - eulerGamma) * v
		if math.Abs(v) < 1e-18*math.Abs(bei) && math.Abs(u) < 1e-18*math.Abs(ber) {
			break
		}
		fk := float64(2*k + 1)
		u *= z2 / ((fk * (fk + 1)) * (fk * (fk + 1)))
		v *= z2 / (((fk + 1) * (fk + 2)) * ((fk + 1) * (fk + 2)))
		harmonic += 1/(fk+1) + 1/(fk+2)
		sign = -sign
	}
	return -math.Log(x/2)*bei - math.Pi/4*ber + tail
}

// superpose1D sums line-load solutions on an infinite beam. loads are
// stresses (Pa) on cells of width dx; d is the uniform rigidity.
func superpose1D(loads []float64, dx, d, drhog float64) []float64 {
	n := len(loads)
	w := make([]float64, n)
	if d == 0 {
		for i, q := range loads {
			w[i] = -q / drhog
		}
		return w
	}
	alpha := math.Pow(4*d/drhog, 0.25)
	coeff := alpha * alpha * alpha / (8 * d)
	for j, q := range loads {
		if q == 0 {
			continue
		}
		force := q * dx
		for i := 0; i < n; i++ {
			r := math.Abs(float64(i-j)) * dx / alpha
			w[i] -= force * coeff * math.Exp(-r) * (math.Cos(r) + math.Sin(r))
		}
	}
	return w
}

// superpose2D sums point-load solutions on an infinite plate. loads is
// row-major ny x nx.
func superpose2D(loads []float64, ny, nx int, dx, dy, d, drhog float64) []float64 {
	w := make([]float64, len(loads))
	if d == 0 {
		for i, q := range loads {
			w[i] = -q / drhog
		}
		return w
	}
	alpha := math.Pow(d/drhog, 0.25)
	coeff := alpha * alpha / (2 * math.Pi * d)
	for jy := 0; jy < ny; jy++ {
		for jx := 0; jx < nx; jx++ {
			q := loads[jy*nx+jx]
			if q == 0 {
				continue
			}
			force := q * dx * dy
			for iy := 0; iy < ny; iy++ {
				ddy := float64(iy-jy) * dy
				for ix := 0; ix < nx; ix++ {
					ddx := float64(ix-jx) * dx
					r := math.Hypot(ddx, ddy) / alpha
					w[iy*nx+ix] += force * coeff * kei(r)
				}
			}
		}
	}
	return w
}
