package testutil

import (
	"testing"

	"github.com/banshee-data/flexure/internal/monitoring"
	"github.com/banshee-data/flexure/internal/region"
)

func TestAssertNoError(t *testing.T) {
	AssertNoError(t, nil)
}

func TestRegion(t *testing.T) {
	r := Region(t, 100, 0, 50, 0, 10, 5, region.ProjUTM)
	if r.NSRes != 10 || r.EWRes != 10 {
		t.Errorf("resolution = %g,%g, want 10,10", r.NSRes, r.EWRes)
	}
}

func TestGridFunc(t *testing.T) {
	g := GridFunc(2, 3, func(i, j int) float64 { return float64(10*i + j) })
	if g.At(1, 2) != 12 || g.At(0, 1) != 1 {
		t.Errorf("GridFunc data = %v", g.Data)
	}
}

func TestCaptureLogs(t *testing.T) {
	var lines *[]string
	t.Run("capture", func(t *testing.T) {
		lines = CaptureLogs(t)
		monitoring.Logf("step %d", 3)
	})
	if len(*lines) != 1 || (*lines)[0] != "step 3" {
		t.Errorf("captured %q, want [step 3]", *lines)
	}
	// The logger is restored when the subtest ends.
	monitoring.Logf("after")
	if len(*lines) != 1 {
		t.Errorf("logger not restored, captured %q", *lines)
	}
}
