package gflex

import (
	"math"
	"testing"
)

func TestKei(t *testing.T) {
	tests := []struct {
		x, want float64
	}{
		{0, -math.Pi / 4},
		{0.5, -0.6715816951},
		{1, -0.4949946365},
		{2, -0.2024000678},
		{5, 0.0111875865},
	}
	for _, tt := range tests {
		if got := kei(tt.x); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("kei(%g) = %.10f, want %.10f", tt.x, got, tt.want)
		}
	}
	if kei(-1) != kei(1) {
		t.Error("kei should be even")
	}
}

func TestKei_ContinuousAtSeriesLimit(t *testing.T) {
	below := kei(keiSeriesLimit)
	above := kei(keiSeriesLimit + 1e-9)
	if math.Abs(below-above) > 2e-6 {
		t.Errorf("kei jumps at %g: %g vs %g", keiSeriesLimit, below, above)
	}
	if math.Abs(kei(30)) > 1e-8 {
		t.Errorf("kei(30) = %g, want ~0", kei(30))
	}
}

func TestSuperpose1D_WideLoadIsIsostatic(t *testing.T) {
	m := DefaultMaterial()
	drhog := m.DRho() * m.GravAccel
	loads := make([]float64, 200)
	for i := range loads {
		loads[i] = 1e6
	}
	w := superpose1D(loads, 5000, m.Rigidity(5000), drhog)
	want := -1e6 / drhog
	if got := w[100]; math.Abs(got-want) > 1e-3*math.Abs(want) {
		t.Errorf("centre deflection = %g, want %g", got, want)
	}
}

func TestSuperpose2D_WideLoadIsIsostatic(t *testing.T) {
	m := DefaultMaterial()
	drhog := m.DRho() * m.GravAccel
	const n = 40
	loads := make([]float64, n*n)
	for i := range loads {
		loads[i] = 1e6
	}
	w := superpose2D(loads, n, n, 5000, 5000, m.Rigidity(5000), drhog)
	want := -1e6 / drhog
	if got := w[20*n+20]; math.Abs(got-want) > 0.01*math.Abs(want) {
		t.Errorf("centre deflection = %g, want %g within 1%%", got, want)
	}
}

func TestSuperpose_ZeroRigidityIsLocal(t *testing.T) {
	drhog := 3300 * 9.8
	loads := []float64{0, 2e6, 0}
	w1 := superpose1D(loads, 1000, 0, drhog)
	w2 := superpose2D(loads, 1, 3, 1000, 1000, 0, drhog)
	for i := range loads {
		want := -loads[i] / drhog
		if w1[i] != want || w2[i] != want {
			t.Errorf("cell %d: got %g / %g, want %g", i, w1[i], w2[i], want)
		}
	}
}
