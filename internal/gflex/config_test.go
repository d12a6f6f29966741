package gflex

import (
	"errors"
	"math"
	"testing"
)

func TestParseBoundaryCondition(t *testing.T) {
	tests := []struct {
		in      string
		want    BoundaryCondition
		wantErr bool
	}{
		{"", BCNoOutsideLoads, false},
		{"NoOutsideLoads", BCNoOutsideLoads, false},
		{"Dirichlet0", BC0Displacement0Slope, false},
		{"0Displacement0Slope", BC0Displacement0Slope, false},
		{"0Moment0Shear", BC0Moment0Shear, false},
		{"0Slope0Shear", BC0Slope0Shear, false},
		{"Mirror", BCMirror, false},
		{"Periodic", BCPeriodic, false},
		{"mirror", "", true},
		{"Free", "", true},
	}
	for _, tt := range tests {
		got, err := ParseBoundaryCondition(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrConfig) {
				t.Errorf("ParseBoundaryCondition(%q) error = %v, want ErrConfig", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseBoundaryCondition(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseBoundaryCondition(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseMethodSolverPlateSolution(t *testing.T) {
	if m, err := ParseMethod("SAS"); err != nil || m != MethodSAS {
		t.Errorf("ParseMethod(SAS) = %q, %v", m, err)
	}
	if _, err := ParseMethod(""); !errors.Is(err, ErrConfig) {
		t.Errorf("ParseMethod(\"\") error = %v, want ErrConfig", err)
	}
	if _, err := ParseMethod("SAS_NG"); !errors.Is(err, ErrConfig) {
		t.Errorf("ParseMethod(SAS_NG) error = %v, want ErrConfig", err)
	}

	if s, err := ParseSolver(""); err != nil || s != SolverDirect {
		t.Errorf("ParseSolver(\"\") = %q, %v; want direct", s, err)
	}
	if s, err := ParseSolver("iterative"); err != nil || s != SolverIterative {
		t.Errorf("ParseSolver(iterative) = %q, %v", s, err)
	}
	if _, err := ParseSolver("lu"); !errors.Is(err, ErrConfig) {
		t.Errorf("ParseSolver(lu) error = %v, want ErrConfig", err)
	}

	if ps, err := ParsePlateSolution(""); err != nil || ps != VWC1994 {
		t.Errorf("ParsePlateSolution(\"\") = %q, %v; want vWC1994", ps, err)
	}
	if ps, err := ParsePlateSolution("G2009"); err != nil || ps != G2009 {
		t.Errorf("ParsePlateSolution(G2009) = %q, %v", ps, err)
	}
	if _, err := ParsePlateSolution("vwc1994"); !errors.Is(err, ErrConfig) {
		t.Errorf("ParsePlateSolution(vwc1994) error = %v, want ErrConfig", err)
	}
}

func TestMaterial(t *testing.T) {
	m := DefaultMaterial()
	if err := m.Validate(); err != nil {
		t.Fatalf("default material invalid: %v", err)
	}
	if got := m.DRho(); got != 3300 {
		t.Errorf("DRho = %v, want 3300", got)
	}
	// E Te^3 / (12 (1 - nu^2)) = 65e9 * 1.25e11 / 11.25
	want := 65e9 * 1.25e11 / 11.25
	if got := m.Rigidity(5000); math.Abs(got-want) > 1e-9*want {
		t.Errorf("Rigidity(5000) = %g, want %g", got, want)
	}
	if got := m.Rigidity(0); got != 0 {
		t.Errorf("Rigidity(0) = %g, want 0", got)
	}

	bad := []func(*Material){
		func(m *Material) { m.YoungsModulus = 0 },
		func(m *Material) { m.PoissonsRatio = 0.5 },
		func(m *Material) { m.PoissonsRatio = -0.1 },
		func(m *Material) { m.GravAccel = math.NaN() },
		func(m *Material) { m.InfillDensity = -1 },
		func(m *Material) { m.InfillDensity = 3300 },
	}
	for i, mutate := range bad {
		mm := DefaultMaterial()
		mutate(&mm)
		if err := mm.Validate(); !errors.Is(err, ErrConfig) {
			t.Errorf("case %d: Validate() = %v, want ErrConfig", i, err)
		}
	}
}

func TestOutputValidate(t *testing.T) {
	ok := []Output{
		{},
		{WOutFile: "w.txt"},
		{PlotChoice: "combo", PlotFile: "p.png"},
	}
	for _, o := range ok {
		if err := o.validate(); err != nil {
			t.Errorf("%+v: unexpected error %v", o, err)
		}
	}
	bad := []Output{
		{PlotChoice: "both", PlotFile: "p.png"},
		{PlotChoice: "w"},
	}
	for _, o := range bad {
		if err := o.validate(); !errors.Is(err, ErrConfig) {
			t.Errorf("%+v: error = %v, want ErrConfig", o, err)
		}
	}
}

func TestCheckMethodBCs(t *testing.T) {
	if err := checkMethodBCs(MethodFD, BCMirror, BCPeriodic); err != nil {
		t.Errorf("FD accepts any boundary: %v", err)
	}
	if err := checkMethodBCs(MethodSAS, BCNoOutsideLoads, BCNoOutsideLoads); err != nil {
		t.Errorf("SAS with NoOutsideLoads: %v", err)
	}
	if err := checkMethodBCs(MethodSAS, BCNoOutsideLoads, BCMirror); !errors.Is(err, ErrConfig) {
		t.Errorf("SAS with Mirror: error = %v, want ErrConfig", err)
	}
}

func TestCheckPeriodicPair(t *testing.T) {
	if err := checkPeriodicPair("west/east", BCPeriodic, BCPeriodic); err != nil {
		t.Error(err)
	}
	if err := checkPeriodicPair("west/east", BCMirror, BC0Moment0Shear); err != nil {
		t.Error(err)
	}
	if err := checkPeriodicPair("west/east", BCPeriodic, BCMirror); !errors.Is(err, ErrConfig) {
		t.Errorf("error = %v, want ErrConfig", err)
	}
}
