package region

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testRegion(t *testing.T) Region {
	t.Helper()
	r, err := FromBounds(1000, 0, 1000, 0, 10, 10, ProjXY)
	if err != nil {
		t.Fatalf("FromBounds: %v", err)
	}
	return r
}

func TestFromBounds(t *testing.T) {
	r := testRegion(t)
	if r.NSRes != 100 || r.EWRes != 100 {
		t.Fatalf("resolution = %g,%g, want 100,100", r.NSRes, r.EWRes)
	}
	if r.Cells() != 100 {
		t.Fatalf("Cells() = %d, want 100", r.Cells())
	}
}

func TestFromResolution(t *testing.T) {
	r, err := FromResolution(45, 44, 11, 10, 0.25, 0.5, ProjLL)
	if err != nil {
		t.Fatalf("FromResolution: %v", err)
	}
	if r.Rows != 4 || r.Cols != 2 {
		t.Fatalf("dims = %dx%d, want 4x2", r.Rows, r.Cols)
	}
	if !r.IsLatLon() {
		t.Fatal("expected lat/lon region")
	}
}

func TestValidate(t *testing.T) {
	good := testRegion(t)
	tests := []struct {
		name   string
		mutate func(*Region)
	}{
		{"zero rows", func(r *Region) { r.Rows = 0 }},
		{"inverted bounds", func(r *Region) { r.North, r.South = r.South, r.North }},
		{"negative res", func(r *Region) { r.NSRes = -100 }},
		{"rows disagree", func(r *Region) { r.Rows = 11 }},
		{"cols disagree", func(r *Region) { r.EWRes = 99 }},
		{"unknown proj", func(r *Region) { r.Proj = 7 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := good
			tt.mutate(&r)
			if err := r.Validate(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestShrinkByOneCell(t *testing.T) {
	r := testRegion(t)
	in, err := r.Shrink(1)
	if err != nil {
		t.Fatalf("Shrink: %v", err)
	}
	want := Region{North: 900, South: 100, East: 900, West: 100, NSRes: 100, EWRes: 100, Rows: 8, Cols: 8}
	if diff := cmp.Diff(want, in); diff != "" {
		t.Fatalf("Shrink(1) mismatch (-want +got):\n%s", diff)
	}
	if err := in.Validate(); err != nil {
		t.Fatalf("shrunk region invalid: %v", err)
	}
}

func TestShrinkTooSmall(t *testing.T) {
	r, err := FromBounds(2, 0, 2, 0, 2, 2, ProjXY)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Shrink(1); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Shrink on 2x2 = %v, want ErrInvalid", err)
	}
}

func TestShrinkExpandRoundTrip(t *testing.T) {
	regions := []Region{
		testRegion(t),
		{North: 4_650_000, South: 4_600_000, East: 520_000, West: 480_000, NSRes: 250, EWRes: 500, Rows: 200, Cols: 80, Proj: ProjUTM},
		{North: 46, South: 44, East: 12, West: 10, NSRes: 0.125, EWRes: 0.0625, Rows: 16, Cols: 32, Proj: ProjLL},
	}
	for _, r := range regions {
		for margin := 0; margin <= 3; margin++ {
			in, err := r.Shrink(margin)
			if err != nil {
				t.Fatalf("Shrink(%d): %v", margin, err)
			}
			out, err := in.Expand(margin)
			if err != nil {
				t.Fatalf("Expand(%d): %v", margin, err)
			}
			if diff := cmp.Diff(r, out); diff != "" {
				t.Fatalf("round trip at margin %d (-want +got):\n%s", margin, diff)
			}
		}
	}
}

func TestInteriorKeepsOuterVerbatim(t *testing.T) {
	// Bounds that do not survive subtract-then-add exactly.
	r := Region{North: 0.3, South: 0, East: 0.7, West: 0, NSRes: 0.1, EWRes: 0.1, Rows: 3, Cols: 7, Proj: ProjXY}
	in, err := NewInterior(r, 1)
	if err != nil {
		t.Fatalf("NewInterior: %v", err)
	}
	if in.Outer != r {
		t.Fatalf("Outer = %v, want %v", in.Outer, r)
	}
	rows, cols := in.Dims()
	if rows != 1 || cols != 5 {
		t.Fatalf("Dims() = %dx%d, want 1x5", rows, cols)
	}
	back, err := in.Inner.Expand(in.Margin)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if !back.Matches(in.Outer) {
		t.Fatalf("Inner.Expand(%d) = %v, want a match for %v", in.Margin, back, in.Outer)
	}
}

func TestCellCenterFractional(t *testing.T) {
	r := testRegion(t)
	x, y := r.CellCenter(0, 0)
	if x != 50 || y != 950 {
		t.Fatalf("CellCenter(0,0) = %g,%g, want 50,950", x, y)
	}
	col, row := r.Fractional(x, y)
	if col != 0 || row != 0 {
		t.Fatalf("Fractional = %g,%g, want 0,0", col, row)
	}
}

func TestMatches(t *testing.T) {
	r := testRegion(t)
	in, _ := r.Shrink(1)
	if !r.Matches(r) {
		t.Fatal("region should match itself")
	}
	if r.Matches(in) {
		t.Fatal("region should not match its interior")
	}
}
