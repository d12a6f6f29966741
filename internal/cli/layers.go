package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/banshee-data/flexure/internal/fsutil"
	"github.com/banshee-data/flexure/internal/plot"
	"github.com/banshee-data/flexure/internal/raster"
	"github.com/banshee-data/flexure/internal/region"
	"github.com/banshee-data/flexure/internal/workspace"
)

// layerView summarises one raster layer.
type layerView workspace.LayerInfo

func (v layerView) String() string {
	return fmt.Sprintf("%s: %s\nmin=%g max=%g colors=%s updated=%s",
		v.Name, v.Region, v.Min, v.Max, v.Colors, v.UpdatedAt)
}

// layerList prints layers as an aligned table.
type layerList []workspace.LayerInfo

func (l layerList) String() string {
	if len(l) == 0 {
		return "no raster layers"
	}
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tROWS\tCOLS\tMIN\tMAX\tCOLORS")
	for _, li := range l {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%g\t%g\t%s\n", li.Name, li.Region.Rows, li.Region.Cols, li.Min, li.Max, li.Colors)
	}
	tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}

// message is a plain confirmation.
type message struct {
	Message string `json:"message"`
}

func (m message) String() string { return m.Message }

// NewImportCommand creates the command that imports an ASCII grid.
func NewImportCommand(root *RootOptions) *cobra.Command {
	var proj string
	var setRegion bool
	cmd := &cobra.Command{
		Use:   "import FILE NAME",
		Short: "Import an ESRI ASCII grid as a raster layer",
		Long: `Import an ESRI ASCII grid (.asc) as the raster layer NAME on the lattice
described by its header. The active region is set to the layer's region when
--set-region is given or no region has been set yet.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, name := args[0], args[1]
			code, err := parseProj(proj)
			if err != nil {
				return WrapExitError(ExitUsage, "invalid projection", err)
			}
			g, reg, err := readASCIIFile(root, file, code)
			if err != nil {
				return err
			}
			return root.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				if err := ws.WriteRaster(ctx, name, reg, g); err != nil {
					return classify("failed to import "+file, err)
				}
				_, err := ws.Region(ctx)
				if setRegion || errors.Is(err, workspace.ErrNotFound) {
					if err := ws.SetRegion(ctx, reg); err != nil {
						return classify("failed to set region", err)
					}
					root.formatter(cmd).VerboseLog("active region set from %s", name)
				} else if err != nil {
					return WrapExitError(ExitFailure, "failed to read region", err)
				}
				return root.formatter(cmd).Success(message{fmt.Sprintf("imported %s as %s (%d x %d)", file, name, reg.Rows, reg.Cols)})
			})
		},
	}
	cmd.Flags().StringVar(&proj, "proj", "xy", "coordinate system of the grid: xy, utm, ll or a numeric code")
	cmd.Flags().BoolVar(&setRegion, "set-region", false, "make the grid's region the active region")
	return cmd
}

func readASCIIFile(root *RootOptions, file string, proj int) (*raster.Grid, region.Region, error) {
	f, err := root.fs().Open(file)
	if err != nil {
		return nil, region.Region{}, WrapExitError(ExitFailure, "failed to open "+file, err)
	}
	defer f.Close()
	g, reg, err := raster.ReadASCII(f, proj)
	if err != nil {
		return nil, region.Region{}, WrapExitError(ExitUsage, "failed to parse "+file, err)
	}
	return g, reg, nil
}

// NewExportCommand creates the command that writes a layer to a file.
func NewExportCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export NAME FILE",
		Short: "Export a raster layer as .asc, .png or .html",
		Long: `Export the raster layer NAME on its own lattice. The file extension picks the
format: .asc writes an ESRI ASCII grid, .png renders a heatmap and .html
writes an interactive heatmap page. Images use the layer's colour ramp.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, file := args[0], args[1]
			var write func(w io.Writer, g *raster.Grid, reg region.Region, ramp string) error
			switch strings.ToLower(filepath.Ext(file)) {
			case ".asc":
				write = func(w io.Writer, g *raster.Grid, reg region.Region, _ string) error {
					return raster.WriteASCII(w, g, reg)
				}
			case ".png":
				write = func(w io.Writer, g *raster.Grid, reg region.Region, ramp string) error {
					return plot.WriteHeatmap(w, plot.Field{Title: name, Grid: g, Region: reg, Ramp: ramp})
				}
			case ".html":
				write = func(w io.Writer, g *raster.Grid, reg region.Region, ramp string) error {
					return plot.WriteHeatmapHTML(w, plot.Field{Title: name, Grid: g, Region: reg, Ramp: ramp})
				}
			default:
				return NewExitError(ExitUsage, fmt.Sprintf("unsupported export format %q (want .asc, .png or .html)", filepath.Ext(file)))
			}

			return root.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				g, reg, err := ws.LoadRaster(ctx, name)
				if err != nil {
					return classify("failed to read "+name, err)
				}
				ramp, err := ws.Colors(ctx, name)
				if err != nil {
					return classify("failed to read colours of "+name, err)
				}
				err = fsutil.WriteWith(root.fs(), file, func(w io.Writer) error { return write(w, g, reg, ramp) })
				if err != nil {
					return WrapExitError(ExitFailure, "failed to export "+name, err)
				}
				return root.formatter(cmd).Success(message{fmt.Sprintf("exported %s to %s", name, file)})
			})
		},
	}
	return cmd
}

// NewListCommand creates the command that lists raster layers.
func NewListCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list [NAME]",
		Aliases:       []string{"ls"},
		Short:         "List raster layers, or describe one",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				layers, err := ws.ListRasters(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to list rasters", err)
				}
				if len(args) == 0 {
					if layers == nil {
						layers = []workspace.LayerInfo{}
					}
					return root.formatter(cmd).Success(layerList(layers))
				}
				for _, li := range layers {
					if li.Name == args[0] {
						return root.formatter(cmd).Success(layerView(li))
					}
				}
				return WrapExitError(ExitFailure, "failed to describe "+args[0], workspace.ErrNotFound)
			})
		},
	}
}

// NewRemoveCommand creates the command that deletes raster layers.
func NewRemoveCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "remove NAME...",
		Aliases:       []string{"rm"},
		Short:         "Remove raster layers",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				for _, name := range args {
					if err := ws.RemoveRaster(ctx, name); err != nil {
						return classify("failed to remove "+name, err)
					}
				}
				return root.formatter(cmd).Success(message{"removed " + strings.Join(args, ", ")})
			})
		},
	}
}

// NewColorsCommand creates the command that shows or sets a layer's colour
// ramp.
func NewColorsCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "colors NAME [RAMP]",
		Short: "Show or set the colour ramp of a raster layer",
		Long: fmt.Sprintf(`Show the colour ramp attached to NAME, or attach RAMP to it.
Available ramps: %s.`, strings.Join(raster.ValidRamps, ", ")),
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			return root.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				if len(args) == 2 {
					if err := raster.ValidateRamp(args[1]); err != nil {
						return WrapExitError(ExitUsage, "invalid colour ramp", err)
					}
					if err := ws.SetColors(ctx, name, args[1]); err != nil {
						return classify("failed to set colours of "+name, err)
					}
				}
				ramp, err := ws.Colors(ctx, name)
				if err != nil {
					return classify("failed to read colours of "+name, err)
				}
				return root.formatter(cmd).Success(message{fmt.Sprintf("%s: %s", name, ramp)})
			})
		},
	}
}

// NewResampleCommand creates the command that resamples a layer onto the
// active region.
func NewResampleCommand(root *RootOptions) *cobra.Command {
	var method string
	cmd := &cobra.Command{
		Use:           "resample IN OUT",
		Short:         "Resample a raster layer onto the active region",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := raster.ParseMethod(method)
			if err != nil {
				return WrapExitError(ExitUsage, "invalid resampling method", err)
			}
			return root.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				target, err := ws.Region(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to read region", err)
				}
				if err := ws.Resample(ctx, args[0], args[1], target, m); err != nil {
					return classify("failed to resample "+args[0], err)
				}
				return root.formatter(cmd).Success(message{fmt.Sprintf("resampled %s into %s (%s)", args[0], args[1], m)})
			})
		},
	}
	cmd.Flags().StringVar(&method, "method", string(raster.Lanczos), "resampling method: nearest, bilinear or lanczos")
	return cmd
}
