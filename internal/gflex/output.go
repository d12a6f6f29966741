package gflex

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/flexure/internal/fsutil"
	"github.com/banshee-data/flexure/internal/monitoring"
	"github.com/banshee-data/flexure/internal/plot"
	"github.com/banshee-data/flexure/internal/raster"
)

// Output writes the configured plot and deflection file. It does nothing when
// neither is configured.
func (f *F1D) Output() error {
	if err := f.state.expect(stateFinalized, "Output"); err != nil {
		return err
	}
	cfg := f.cfg
	if cfg.PlotChoice != "" {
		var series []plot.Series
		if cfg.PlotChoice == "w" || cfg.PlotChoice == "combo" {
			series = append(series, plot.Series{Title: "Deflection", YLabel: "w (m)", Values: f.w})
		}
		if cfg.PlotChoice == "q" || cfg.PlotChoice == "combo" {
			series = append(series, plot.Series{Title: "Load", YLabel: "q (Pa)", Values: cfg.Loads})
		}
		err := fsutil.WriteWith(cfg.FS, cfg.PlotFile, func(w io.Writer) error {
			return plot.WriteProfile(w, cfg.Dx, series...)
		})
		if err != nil {
			return fmt.Errorf("plot: %w", err)
		}
		monitoring.Logf("wrote %s plot to %s", cfg.PlotChoice, cfg.PlotFile)
	}
	if cfg.WOutFile != "" {
		err := fsutil.WriteWith(cfg.FS, cfg.WOutFile, func(w io.Writer) error {
			return writeColumn(w, f.w)
		})
		if err != nil {
			return fmt.Errorf("deflection output: %w", err)
		}
		monitoring.Logf("wrote %d deflections to %s", len(f.w), cfg.WOutFile)
	}
	return nil
}

// Output writes the configured heat map and deflection file. It does nothing
// when neither is configured.
func (f *F2D) Output() error {
	if err := f.state.expect(stateFinalized, "Output"); err != nil {
		return err
	}
	cfg := f.cfg
	if cfg.PlotChoice != "" {
		var fields []plot.Field
		if cfg.PlotChoice == "w" || cfg.PlotChoice == "combo" {
			fields = append(fields, plot.Field{Title: "Deflection (m)", Grid: raster.FromDense(f.w), Ramp: raster.RampRainbow})
		}
		if cfg.PlotChoice == "q" || cfg.PlotChoice == "combo" {
			fields = append(fields, plot.Field{Title: "Load (Pa)", Grid: raster.FromDense(cfg.Loads), Ramp: raster.RampHeat})
		}
		err := fsutil.WriteWith(cfg.FS, cfg.PlotFile, func(w io.Writer) error {
			return plot.WriteHeatmap(w, fields...)
		})
		if err != nil {
			return fmt.Errorf("plot: %w", err)
		}
		monitoring.Logf("wrote %s plot to %s", cfg.PlotChoice, cfg.PlotFile)
	}
	if cfg.WOutFile != "" {
		err := fsutil.WriteWith(cfg.FS, cfg.WOutFile, func(w io.Writer) error {
			return writeMatrix(w, f.w)
		})
		if err != nil {
			return fmt.Errorf("deflection output: %w", err)
		}
		monitoring.Logf("wrote deflection grid to %s", cfg.WOutFile)
	}
	return nil
}

func writeColumn(w io.Writer, vs []float64) error {
	bw := bufio.NewWriter(w)
	for _, v := range vs {
		bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// writeMatrix writes one whitespace-separated line per grid row, north first.
func writeMatrix(w io.Writer, m mat.Matrix) error {
	bw := bufio.NewWriter(w)
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if j > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(strconv.FormatFloat(m.At(i, j), 'g', -1, 64))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
