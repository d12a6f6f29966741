package raster

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/banshee-data/flexure/internal/region"
)

func newGolden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestWriteASCIISquare(t *testing.T) {
	reg, err := region.FromBounds(1020, 1000, 530, 500, 2, 3, region.ProjXY)
	if err != nil {
		t.Fatal(err)
	}
	g := &Grid{Rows: 2, Cols: 3, Data: []float64{1, 2.5, -3, 4, 5, 0.125}}
	var buf bytes.Buffer
	if err := WriteASCII(&buf, g, reg); err != nil {
		t.Fatalf("WriteASCII: %v", err)
	}
	newGolden(t).Assert(t, "ascii_square", buf.Bytes())
}

func TestWriteASCIIRectangularCells(t *testing.T) {
	reg, err := region.FromBounds(20, 0, 40, 0, 2, 2, region.ProjXY)
	if err != nil {
		t.Fatal(err)
	}
	g := &Grid{Rows: 2, Cols: 2, Data: []float64{1, 2, 3, 4}}
	var buf bytes.Buffer
	if err := WriteASCII(&buf, g, reg); err != nil {
		t.Fatalf("WriteASCII: %v", err)
	}
	newGolden(t).Assert(t, "ascii_rect", buf.Bytes())
}

func TestReadASCII(t *testing.T) {
	in := `NCOLS 3
NROWS 2
XLLCORNER 500
YLLCORNER 1000
CELLSIZE 10
NODATA_value -9999
1 2.5 -3
4 5 0.125
`
	g, reg, err := ReadASCII(strings.NewReader(in), region.ProjUTM)
	if err != nil {
		t.Fatalf("ReadASCII: %v", err)
	}
	if reg.North != 1020 || reg.East != 530 || reg.Rows != 2 || reg.Cols != 3 || reg.Proj != region.ProjUTM {
		t.Fatalf("region = %v", reg)
	}
	if g.At(1, 2) != 0.125 || g.At(0, 1) != 2.5 {
		t.Fatalf("data = %v", g.Data)
	}
}

func TestReadASCIICellCentreOrigin(t *testing.T) {
	in := "ncols 2\nnrows 2\nxllcenter 505\nyllcenter 1005\ncellsize 10\n1 2\n3 4\n"
	g, reg, err := ReadASCII(strings.NewReader(in), region.ProjXY)
	if err != nil {
		t.Fatalf("ReadASCII: %v", err)
	}
	if reg.West != 500 || reg.South != 1000 || reg.East != 520 || reg.North != 1020 {
		t.Fatalf("region = %v, want 500..520 x 1000..1020", reg)
	}
	if g.At(1, 0) != 3 {
		t.Fatalf("data = %v", g.Data)
	}
}

func TestReadASCIIErrors(t *testing.T) {
	tests := map[string]string{
		"missing dims":   "xllcorner 0\nyllcorner 0\ncellsize 1\n1\n",
		"short data":     "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2 3\n",
		"long data":      "ncols 1\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2\n",
		"nodata cell":    "ncols 1\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\nnodata_value -1\n-1\n",
		"bad header":     "ncols x\n",
		"missing corner": "ncols 1\nnrows 1\ncellsize 1\n1\n",
		"huge grid":      "ncols 1000000000\nnrows 1000000000\nxllcorner 0\nyllcorner 0\ncellsize 1\n1\n",
		"too many cells": "ncols 65536\nnrows 65536\nxllcorner 0\nyllcorner 0\ncellsize 1\n1\n",
		"fractional":     "ncols 1.5\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n1\n",
		"zero rows":      "ncols 1\nnrows 0\nxllcorner 0\nyllcorner 0\ncellsize 1\n",
		"negative cols":  "ncols -2\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n1\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if _, _, err := ReadASCII(strings.NewReader(in), region.ProjXY); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestWriteASCIIShapeMismatch(t *testing.T) {
	reg, _ := region.FromBounds(20, 0, 40, 0, 2, 2, region.ProjXY)
	var buf bytes.Buffer
	if err := WriteASCII(&buf, New(3, 3), reg); err == nil {
		t.Fatal("expected shape error")
	}
}
