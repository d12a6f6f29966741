package plot

import (
	"fmt"
	"image/color"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// htmlRampStops is the number of colour stops handed to the echarts visual map.
const htmlRampStops = 10

// WriteHeatmapHTML renders f as a standalone go-echarts heat map page.
func WriteHeatmapHTML(w io.Writer, f Field) error {
	if f.Grid == nil || len(f.Grid.Data) == 0 {
		return fmt.Errorf("%w: field %q is empty", ErrNoData, f.Title)
	}
	pal, err := Palette(f.Ramp)
	if err != nil {
		return err
	}
	xyz := newGridXYZ(f.Grid, f.Region)
	cols, rows := xyz.Dims()

	xLabels := make([]string, cols)
	for c := range xLabels {
		xLabels[c] = strconv.FormatFloat(xyz.X(c), 'f', -1, 64)
	}
	yLabels := make([]string, rows)
	for r := range yLabels {
		yLabels[r] = strconv.FormatFloat(xyz.Y(r), 'f', -1, 64)
	}
	data := make([]opts.HeatMapData, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			data = append(data, opts.HeatMapData{Value: [3]interface{}{c, r, xyz.Z(c, r)}})
		}
	}

	lo, hi := xyz.Min(), xyz.Max()
	if lo == hi {
		hi = lo + 1
	}
	xName, yName := "Column", "Row"
	if xyz.georef {
		xName, yName = "Easting", "Northing"
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: f.Title, Width: "900px", Height: "800px"}),
		charts.WithTitleOpts(opts.Title{Title: f.Title, Subtitle: fmt.Sprintf("%dx%d min=%.4g max=%.4g", rows, cols, lo, hi)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: xLabels, Name: xName, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: yLabels, Name: yName, NameLocation: "middle", NameGap: 40}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			InRange:    &opts.VisualMapInRange{Color: hexStops(pal.Colors(), htmlRampStops)},
		}),
	)
	hm.SetXAxis(xLabels).AddSeries(f.Title, data)

	if err := hm.Render(w); err != nil {
		return fmt.Errorf("render heatmap html: %w", err)
	}
	return nil
}

// hexStops samples n evenly spaced colours from cs as #rrggbb strings.
func hexStops(cs []color.Color, n int) []string {
	if len(cs) < n {
		n = len(cs)
	}
	out := make([]string, n)
	for i := range out {
		idx := 0
		if n > 1 {
			idx = i * (len(cs) - 1) / (n - 1)
		}
		r, g, b, _ := cs[idx].RGBA()
		out[i] = fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
	}
	return out
}
