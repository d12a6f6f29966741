package raster

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/flexure/internal/region"
)

// maxASCIICells bounds the grid size ReadASCII will allocate.
const maxASCIICells = 1 << 26

// ReadASCII parses an ESRI ASCII grid. Both the square "cellsize" header and
// the "dx"/"dy" variant are accepted, with the origin given as the lower-left
// corner (xllcorner/yllcorner) or lower-left cell centre (xllcenter/yllcenter).
// Cells equal to NODATA_value are
// rejected, since grids carry no missing-value policy.
func ReadASCII(r io.Reader, proj int) (*Grid, region.Region, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	sc.Split(bufio.ScanWords)

	header := map[string]float64{}
	var pending string
	for sc.Scan() {
		key := strings.ToLower(sc.Text())
		if _, err := strconv.ParseFloat(key, 64); err == nil {
			pending = sc.Text()
			break
		}
		if !sc.Scan() {
			return nil, region.Region{}, fmt.Errorf("ascii grid: header %q has no value", key)
		}
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, region.Region{}, fmt.Errorf("ascii grid: header %q: %w", key, err)
		}
		header[key] = v
	}
	if err := sc.Err(); err != nil {
		return nil, region.Region{}, fmt.Errorf("ascii grid: %w", err)
	}

	_, okc := header["ncols"]
	_, okr := header["nrows"]
	if !okc || !okr {
		return nil, region.Region{}, fmt.Errorf("ascii grid: missing ncols/nrows header")
	}
	rows, err := headerCount(header, "nrows")
	if err != nil {
		return nil, region.Region{}, err
	}
	cols, err := headerCount(header, "ncols")
	if err != nil {
		return nil, region.Region{}, err
	}
	if rows > maxASCIICells/cols {
		return nil, region.Region{}, fmt.Errorf("ascii grid: %d x %d cells exceeds the limit of %d", rows, cols, maxASCIICells)
	}
	dx, dy := header["cellsize"], header["cellsize"]
	if v, ok := header["dx"]; ok {
		dx = v
	}
	if v, ok := header["dy"]; ok {
		dy = v
	}
	west, okx := lowerLeft(header, "x", dx)
	south, oky := lowerLeft(header, "y", dy)
	if !okx || !oky {
		return nil, region.Region{}, fmt.Errorf("ascii grid: missing xllcorner/yllcorner header")
	}
	reg := region.Region{
		North: south + float64(rows)*dy,
		South: south,
		East:  west + float64(cols)*dx,
		West:  west,
		NSRes: dy,
		EWRes: dx,
		Rows:  rows,
		Cols:  cols,
		Proj:  proj,
	}
	if err := reg.Validate(); err != nil {
		return nil, region.Region{}, fmt.Errorf("ascii grid: %w", err)
	}
	nodata, hasNodata := header["nodata_value"]

	g := New(rows, cols)
	n := 0
	parse := func(tok string) error {
		if n >= len(g.Data) {
			return fmt.Errorf("ascii grid: more than %d values", len(g.Data))
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return fmt.Errorf("ascii grid: value %d: %w", n, err)
		}
		if hasNodata && v == nodata {
			return fmt.Errorf("ascii grid: no-data cell at row %d col %d", n/cols, n%cols)
		}
		g.Data[n] = v
		n++
		return nil
	}
	if pending != "" {
		if err := parse(pending); err != nil {
			return nil, region.Region{}, err
		}
	}
	for sc.Scan() {
		if err := parse(sc.Text()); err != nil {
			return nil, region.Region{}, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, region.Region{}, fmt.Errorf("ascii grid: %w", err)
	}
	if n != len(g.Data) {
		return nil, region.Region{}, fmt.Errorf("ascii grid: got %d values, want %d", n, len(g.Data))
	}
	return g, reg, nil
}

// headerCount reads a row or column count, which must be a positive whole
// number no larger than maxASCIICells.
func headerCount(header map[string]float64, key string) (int, error) {
	v := header[key]
	if !(v >= 1) || v > maxASCIICells || v != math.Trunc(v) {
		return 0, fmt.Errorf("ascii grid: %s %v is not a whole number between 1 and %d", key, v, maxASCIICells)
	}
	return int(v), nil
}

// lowerLeft returns the lower-left edge on axis ("x" or "y") from either the
// corner or the cell-centre header.
func lowerLeft(header map[string]float64, axis string, res float64) (float64, bool) {
	if v, ok := header[axis+"llcorner"]; ok {
		return v, true
	}
	if v, ok := header[axis+"llcenter"]; ok {
		return v - res/2, true
	}
	return 0, false
}

// WriteASCII writes g laid out on reg as an ESRI ASCII grid.
func WriteASCII(w io.Writer, g *Grid, reg region.Region) error {
	if g.Rows != reg.Rows || g.Cols != reg.Cols {
		return fmt.Errorf("%w: %dx%d grid on %dx%d region", ErrShape, g.Rows, g.Cols, reg.Rows, reg.Cols)
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols %d\n", g.Cols)
	fmt.Fprintf(bw, "nrows %d\n", g.Rows)
	fmt.Fprintf(bw, "xllcorner %s\n", formatFloat(reg.West))
	fmt.Fprintf(bw, "yllcorner %s\n", formatFloat(reg.South))
	if reg.NSRes == reg.EWRes {
		fmt.Fprintf(bw, "cellsize %s\n", formatFloat(reg.EWRes))
	} else {
		fmt.Fprintf(bw, "dx %s\n", formatFloat(reg.EWRes))
		fmt.Fprintf(bw, "dy %s\n", formatFloat(reg.NSRes))
	}
	for i := 0; i < g.Rows; i++ {
		for j := 0; j < g.Cols; j++ {
			if j > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(formatFloat(g.At(i, j)))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
