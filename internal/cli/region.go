package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/banshee-data/flexure/internal/region"
	"github.com/banshee-data/flexure/internal/workspace"
)

// regionView prints a region one setting per line.
type regionView struct {
	region.Region
}

func (v regionView) String() string {
	num := func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
	var b strings.Builder
	fmt.Fprintf(&b, "proj:  %s\n", projName(v.Proj))
	fmt.Fprintf(&b, "north: %s\n", num(v.North))
	fmt.Fprintf(&b, "south: %s\n", num(v.South))
	fmt.Fprintf(&b, "west:  %s\n", num(v.West))
	fmt.Fprintf(&b, "east:  %s\n", num(v.East))
	fmt.Fprintf(&b, "nsres: %s\n", num(v.NSRes))
	fmt.Fprintf(&b, "ewres: %s\n", num(v.EWRes))
	fmt.Fprintf(&b, "rows:  %d\n", v.Rows)
	fmt.Fprintf(&b, "cols:  %d", v.Cols)
	return b.String()
}

var projNames = map[string]int{"xy": region.ProjXY, "utm": region.ProjUTM, "ll": region.ProjLL}

func projName(code int) string {
	for name, c := range projNames {
		if c == code {
			return name
		}
	}
	return strconv.Itoa(code)
}

// parseProj accepts a projection name or its numeric code.
func parseProj(s string) (int, error) {
	if code, ok := projNames[strings.ToLower(s)]; ok {
		return code, nil
	}
	code, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: unknown projection %q (want xy, utm, ll or a code)", region.ErrInvalid, s)
	}
	return code, nil
}

// NewRegionCommand creates the command that shows and sets the active region.
func NewRegionCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "region",
		Short:         "Show the active region",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				r, err := ws.Region(ctx)
				if errors.Is(err, workspace.ErrNotFound) {
					return NewExitError(ExitFailure, "no active region; set one with 'flexure region set'")
				}
				if err != nil {
					return WrapExitError(ExitFailure, "failed to read region", err)
				}
				return root.formatter(cmd).Success(regionView{r})
			})
		},
	}
	cmd.AddCommand(newRegionSetCommand(root))
	return cmd
}

type regionSetOptions struct {
	raster                   string
	north, south, east, west float64
	rows, cols               int
	res, nsres, ewres        float64
	proj                     string
}

func newRegionSetCommand(root *RootOptions) *cobra.Command {
	opts := &regionSetOptions{}
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the active region",
		Long: `Set the active region. Settings not given keep their current values, or are
copied from --raster when it is given. Changing rows or cols keeps the bounds
and derives the resolution; otherwise the resolution is kept (or taken from
--res, --nsres, --ewres) and the cell counts are derived.`,
		Example: `  flexure region set --raster load
  flexure region set --north 5001000 --south 5000000 --west 400000 --east 401000 --rows 10 --cols 10 --proj utm`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				r, err := opts.resolve(ctx, cmd, ws)
				if err != nil {
					return err
				}
				if err := ws.SetRegion(ctx, r); err != nil {
					return classify("failed to set region", err)
				}
				return root.formatter(cmd).Success(regionView{r})
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.raster, "raster", "", "start from this raster layer's region")
	f.Float64Var(&opts.north, "north", 0, "northern edge")
	f.Float64Var(&opts.south, "south", 0, "southern edge")
	f.Float64Var(&opts.east, "east", 0, "eastern edge")
	f.Float64Var(&opts.west, "west", 0, "western edge")
	f.IntVar(&opts.rows, "rows", 0, "number of rows")
	f.IntVar(&opts.cols, "cols", 0, "number of columns")
	f.Float64Var(&opts.res, "res", 0, "resolution in both directions")
	f.Float64Var(&opts.nsres, "nsres", 0, "north-south resolution")
	f.Float64Var(&opts.ewres, "ewres", 0, "east-west resolution")
	f.StringVar(&opts.proj, "proj", "", "coordinate system: xy, utm, ll or a numeric code")
	return cmd
}

// resolve builds the requested region from the current one and the changed
// flags.
func (o *regionSetOptions) resolve(ctx context.Context, cmd *cobra.Command, ws *workspace.Workspace) (region.Region, error) {
	changed := cmd.Flags().Changed

	var base region.Region
	var err error
	if o.raster != "" {
		base, err = ws.RasterRegion(ctx, o.raster)
		if err != nil {
			return base, classify("failed to read raster region", err)
		}
	} else {
		base, err = ws.Region(ctx)
		if err != nil && !errors.Is(err, workspace.ErrNotFound) {
			return base, WrapExitError(ExitFailure, "failed to read region", err)
		}
	}

	n, s, e, w := base.North, base.South, base.East, base.West
	if changed("north") {
		n = o.north
	}
	if changed("south") {
		s = o.south
	}
	if changed("east") {
		e = o.east
	}
	if changed("west") {
		w = o.west
	}
	proj := base.Proj
	if changed("proj") {
		if proj, err = parseProj(o.proj); err != nil {
			return base, WrapExitError(ExitUsage, "invalid projection", err)
		}
	}

	var r region.Region
	switch {
	case changed("rows") || changed("cols"):
		rows, cols := base.Rows, base.Cols
		if changed("rows") {
			rows = o.rows
		}
		if changed("cols") {
			cols = o.cols
		}
		r, err = region.FromBounds(n, s, e, w, rows, cols, proj)
	default:
		nsres, ewres := base.NSRes, base.EWRes
		if changed("res") {
			nsres, ewres = o.res, o.res
		}
		if changed("nsres") {
			nsres = o.nsres
		}
		if changed("ewres") {
			ewres = o.ewres
		}
		r, err = region.FromResolution(n, s, e, w, nsres, ewres, proj)
	}
	if err != nil {
		return r, WrapExitError(ExitUsage, "invalid region", err)
	}
	return r, nil
}
