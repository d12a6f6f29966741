// Package plot renders deflection and load fields: PNG line profiles and heat
// maps through gonum/plot, and interactive HTML heat maps through go-echarts.
package plot

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/flexure/internal/raster"
	"github.com/banshee-data/flexure/internal/region"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("plot: no data")

const (
	panelWidth  = 8 * vg.Inch
	panelHeight = 4 * vg.Inch
	paletteSize = 256
)

// Series is one 1-D profile panel.
type Series struct {
	Title  string
	YLabel string
	Values []float64
}

// WriteProfile draws each series as a stacked panel against distance (km)
// for cells spaced dx metres apart, and writes a PNG to w.
func WriteProfile(w io.Writer, dx float64, series ...Series) error {
	if len(series) == 0 {
		return ErrNoData
	}
	plots := make([][]*gplot.Plot, len(series))
	for i, s := range series {
		if len(s.Values) == 0 {
			return fmt.Errorf("%w: series %q is empty", ErrNoData, s.Title)
		}
		pts := make(plotter.XYs, len(s.Values))
		for j, v := range s.Values {
			pts[j] = plotter.XY{X: float64(j) * dx / 1000, Y: v}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("profile %q: %w", s.Title, err)
		}
		line.Width = vg.Points(1.5)
		line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}

		p := gplot.New()
		p.Title.Text = s.Title
		p.X.Label.Text = "Distance (km)"
		p.Y.Label.Text = s.YLabel
		p.Add(plotter.NewGrid(), line)
		plots[i] = []*gplot.Plot{p}
	}
	return writePNG(w, plots)
}

// Field is a 2-D grid to draw as a heat map. A zero Region draws the grid
// against cell indices.
type Field struct {
	Title  string
	Grid   *raster.Grid
	Region region.Region
	Ramp   string
}

// WriteHeatmap draws the fields side by side and writes a PNG to w.
func WriteHeatmap(w io.Writer, fields ...Field) error {
	if len(fields) == 0 {
		return ErrNoData
	}
	row := make([]*gplot.Plot, len(fields))
	for i, f := range fields {
		if f.Grid == nil || len(f.Grid.Data) == 0 {
			return fmt.Errorf("%w: field %q is empty", ErrNoData, f.Title)
		}
		pal, err := Palette(f.Ramp)
		if err != nil {
			return err
		}
		xyz := newGridXYZ(f.Grid, f.Region)
		hm := plotter.NewHeatMap(xyz, pal)
		if hm.Min == hm.Max {
			hm.Max = hm.Min + 1
		}

		p := gplot.New()
		p.Title.Text = f.Title
		if xyz.georef {
			p.X.Label.Text = "Easting"
			p.Y.Label.Text = "Northing"
		} else {
			p.X.Label.Text = "Column"
			p.Y.Label.Text = "Row (south up)"
		}
		p.Add(hm)
		row[i] = p
	}
	return writePNGSized(w, [][]*gplot.Plot{row}, panelHeight+panelHeight/2)
}

func writePNG(w io.Writer, plots [][]*gplot.Plot) error {
	return writePNGSized(w, plots, panelHeight)
}

func writePNGSized(w io.Writer, plots [][]*gplot.Plot, tileHeight vg.Length) error {
	rows, cols := len(plots), len(plots[0])
	img := vgimg.New(panelWidth*vg.Length(cols), tileHeight*vg.Length(rows))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := gplot.Align(plots, tiles, dc)
	for i := range plots {
		for j, p := range plots[i] {
			p.Draw(canvases[i][j])
		}
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Palette returns the gonum palette for a colour ramp name.
func Palette(ramp string) (palette.Palette, error) {
	switch ramp {
	case "", raster.RampRainbow:
		// Blue (low, most negative deflection) through red (high).
		return palette.Rainbow(paletteSize, palette.Blue, palette.Red, 1, 1, 1), nil
	case raster.RampHeat:
		return palette.Heat(paletteSize, 1), nil
	case raster.RampGrey:
		return grey(paletteSize), nil
	}
	return nil, raster.ValidateRamp(ramp)
}

type greyPalette []color.Color

func (p greyPalette) Colors() []color.Color { return p }

func grey(n int) greyPalette {
	p := make(greyPalette, n)
	for i := range p {
		v := uint8(i * 255 / (n - 1))
		p[i] = color.Gray{Y: v}
	}
	return p
}

// gridXYZ adapts a raster grid to plotter.GridXYZ. Plot rows run south to
// north, so r indexes grid rows from the bottom.
type gridXYZ struct {
	g      *raster.Grid
	reg    region.Region
	georef bool
	stats  raster.Stats
}

func newGridXYZ(g *raster.Grid, reg region.Region) *gridXYZ {
	return &gridXYZ{
		g:      g,
		reg:    reg,
		georef: reg.Rows == g.Rows && reg.Cols == g.Cols && reg.Rows > 0,
		stats:  g.Summary(),
	}
}

func (x *gridXYZ) Dims() (c, r int) { return x.g.Cols, x.g.Rows }
func (x *gridXYZ) Z(c, r int) float64 { return x.g.At(x.g.Rows-1-r, c) }
func (x *gridXYZ) Min() float64 { return x.stats.Min }
func (x *gridXYZ) Max() float64 { return x.stats.Max }

func (x *gridXYZ) X(c int) float64 {
	if !x.georef {
		return float64(c)
	}
	return x.reg.West + (float64(c)+0.5)*x.reg.EWRes
}

func (x *gridXYZ) Y(r int) float64 {
	if !x.georef {
		return float64(r)
	}
	return x.reg.South + (float64(r)+0.5)*x.reg.NSRes
}
