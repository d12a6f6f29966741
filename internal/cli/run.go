package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/banshee-data/flexure/internal/flexure"
	"github.com/banshee-data/flexure/internal/monitoring"
	"github.com/banshee-data/flexure/internal/timeutil"
	"github.com/banshee-data/flexure/internal/workspace"
)

// paramKeys lists the run parameters that can be given as --key flags or as
// key=value arguments, with their help text.
var paramKeys = []struct {
	key, usage string
}{
	{"method", "solution method: FD (finite difference) or SAS (superposition of analytic solutions)"},
	{"q", "load raster, Pa"},
	{"te", "elastic thickness: km, or a raster of km"},
	{"output", "output deflection raster, m"},
	{"rho_fill", "density of material that fills the flexural depressions, kg/m^3"},
	{"n", "northern boundary condition"},
	{"s", "southern boundary condition"},
	{"w", "western boundary condition"},
	{"e", "eastern boundary condition"},
	{"youngs_modulus", "Young's modulus, Pa"},
	{"poissons_ratio", "Poisson's ratio"},
	{"rho_m", "mantle density, kg/m^3"},
	{"g", "gravitational acceleration, m/s^2"},
	{"solver", "FD linear solver: direct or iterative"},
	{"plate_solution", "FD plate solution: vWC1994 or G2009"},
	{"tolerance", "iterative solver convergence tolerance"},
	{"interp", "resampling method for the interpolated output: nearest, bilinear or lanczos"},
	{"colors", "colour ramp for both outputs"},
}

// runSummary is the payload printed after a successful run.
type runSummary struct {
	RunID string `json:"run_id"`
	flexure.Result
}

func (s runSummary) String() string {
	return fmt.Sprintf("run %s\n%s: %s\n%s: %s\ndeflection min=%g m max=%g m",
		s.RunID, s.Output, s.OutputRegion, s.Interp, s.InterpRegion, s.Min, s.Max)
}

// NewRunCommand creates the command that computes flexure in the active
// region.
func NewRunCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [key=value ...]",
		Short: "Compute the flexural response to a load raster",
		Long: `Compute the flexural isostatic response of an elastic plate to the load raster
q in the current region.

The solution is written to the output raster on the region shrunk by one cell
on every side, and resampled into output_interp on the elastic thickness
raster's own region (or the load raster's, for a scalar thickness). The active
region is restored afterwards.

Parameters come from defaults, then the --config file, then flags, then
key=value arguments, with later sources winning. Boundary conditions are one
of Dirichlet0, 0Displacement0Slope, 0Moment0Shear, 0Slope0Shear, Mirror,
Periodic, NoOutsideLoads.

The direct FD solver factorises a dense matrix and handles up to 4096 interior
cells (64 x 64); larger plates are solved with the iterative solver instead.`,
		Example: `  flexure run method=FD q=load te=30 output=defl rho_fill=0
  flexure run --method SAS --q load --te te_km --output defl -l`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := root.runParams(cmd, args)
			if err != nil {
				return err
			}
			return root.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				summary, err := runAndRecord(ctx, ws, params)
				if err != nil {
					return err
				}
				return root.formatter(cmd).Success(summary)
			})
		},
	}

	d := flexure.DefaultParams()
	defaults := map[string]string{
		"rho_fill":       strconv.FormatFloat(d.RhoFill, 'g', -1, 64),
		"n":              d.North,
		"s":              d.South,
		"w":              d.West,
		"e":              d.East,
		"youngs_modulus": strconv.FormatFloat(d.YoungsModulus, 'g', -1, 64),
		"poissons_ratio": strconv.FormatFloat(d.PoissonsRatio, 'g', -1, 64),
		"rho_m":          strconv.FormatFloat(d.MantleDensity, 'g', -1, 64),
		"g":              strconv.FormatFloat(d.GravAccel, 'g', -1, 64),
		"interp":         d.InterpMethod,
		"colors":         d.ColorRamp,
	}
	for _, k := range paramKeys {
		cmd.Flags().String(k.key, defaults[k.key], k.usage)
	}
	cmd.Flags().BoolP("latlon", "l", false, "allow lat/lon regions, approximating metres from degrees")
	cmd.Flags().String("north", "", "alias of --n")
	cmd.Flags().String("south", "", "alias of --s")
	cmd.Flags().String("west", "", "alias of --w")
	cmd.Flags().String("east", "", "alias of --e")
	return cmd
}

// runParams merges defaults, the config file, changed flags and key=value
// arguments in that order.
func (o *RootOptions) runParams(cmd *cobra.Command, args []string) (flexure.Params, error) {
	p := flexure.DefaultParams()
	if o.config != nil {
		o.config.Apply(&p)
	}

	var flagErr error
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if flagErr != nil {
			return
		}
		if cmd.LocalFlags().Lookup(f.Name) == nil {
			return
		}
		flagErr = setParam(&p, f.Name, f.Value.String())
	})
	if flagErr != nil {
		return p, WrapExitError(ExitUsage, "invalid flag", flagErr)
	}

	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return p, NewExitError(ExitUsage, fmt.Sprintf("argument %q is not key=value", arg))
		}
		if err := setParam(&p, key, value); err != nil {
			return p, WrapExitError(ExitUsage, "invalid argument", err)
		}
	}
	return p, nil
}

// setParam assigns one named parameter from its textual value.
func setParam(p *flexure.Params, key, value string) error {
	str := map[string]*string{
		"method":         &p.Method,
		"q":              &p.Load,
		"te":             &p.ElasticThickness,
		"output":         &p.Output,
		"n":              &p.North,
		"north":          &p.North,
		"s":              &p.South,
		"south":          &p.South,
		"w":              &p.West,
		"west":           &p.West,
		"e":              &p.East,
		"east":           &p.East,
		"solver":         &p.Solver,
		"plate_solution": &p.PlateSolution,
		"interp":         &p.InterpMethod,
		"colors":         &p.ColorRamp,
	}
	num := map[string]*float64{
		"rho_fill":       &p.RhoFill,
		"youngs_modulus": &p.YoungsModulus,
		"poissons_ratio": &p.PoissonsRatio,
		"rho_m":          &p.MantleDensity,
		"g":              &p.GravAccel,
		"tolerance":      &p.Tolerance,
	}
	if dst, ok := str[key]; ok {
		*dst = value
		return nil
	}
	if dst, ok := num[key]; ok {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s: %q is not a number", key, value)
		}
		*dst = v
		return nil
	}
	if key == "latlon" || key == "l" {
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %q is not a boolean", key, value)
		}
		p.LatLon = v
		return nil
	}
	return fmt.Errorf("unknown parameter %q", key)
}

var clock timeutil.Clock = timeutil.RealClock{}

// runAndRecord runs the driver and records the attempt in the run ledger.
func runAndRecord(ctx context.Context, ws *workspace.Workspace, p flexure.Params) (runSummary, error) {
	id, err := ws.StartRun(ctx, p)
	if err != nil {
		return runSummary{}, WrapExitError(ExitFailure, "failed to record run", err)
	}
	start := clock.Now()
	res, runErr := flexure.Run(ctx, ws, p)
	monitoring.Debugf("run %s finished in %s", id, clock.Since(start))
	if err := ws.FinishRun(ctx, id, runErr); err != nil && runErr == nil {
		return runSummary{}, WrapExitError(ExitFailure, "failed to record run", err)
	}
	if runErr != nil {
		return runSummary{}, classify("flexure run "+id+" failed", runErr)
	}
	return runSummary{RunID: id, Result: res}, nil
}
