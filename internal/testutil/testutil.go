// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"fmt"
	"testing"

	"github.com/banshee-data/flexure/internal/monitoring"
	"github.com/banshee-data/flexure/internal/raster"
	"github.com/banshee-data/flexure/internal/region"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Region builds a validated region from bounds and cell counts.
func Region(t testing.TB, north, south, east, west float64, rows, cols, proj int) region.Region {
	t.Helper()
	r, err := region.FromBounds(north, south, east, west, rows, cols, proj)
	if err != nil {
		t.Fatalf("region: %v", err)
	}
	return r
}

// GridFunc returns a rows x cols grid whose cell (i, j) holds f(i, j).
func GridFunc(rows, cols int, f func(i, j int) float64) *raster.Grid {
	g := raster.New(rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			g.Set(i, j, f(i, j))
		}
	}
	return g
}

// CaptureLogs routes monitoring output into the returned slice until the
// test ends.
func CaptureLogs(t testing.TB) *[]string {
	t.Helper()
	var lines []string
	original := monitoring.Logf
	monitoring.SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() { monitoring.Logf = original })
	return &lines
}
