// Package cli implements the flexure command line: the flexure driver
// itself plus the workspace commands that manage its region, layers and run
// ledger.
package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/flexure/internal/config"
	"github.com/banshee-data/flexure/internal/fsutil"
	"github.com/banshee-data/flexure/internal/monitoring"
	"github.com/banshee-data/flexure/internal/workspace"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	Workspace  string
	ConfigPath string

	// FS is used for import and export files. Nil means the OS filesystem.
	FS fsutil.FileSystem

	config *config.RunConfig
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the flexure CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

// Execute runs the CLI with os.Args and returns the process exit code.
// Errors are reported on stderr, or on stdout as JSON with --format json.
func Execute() int {
	return execute(os.Args[1:], os.Stdout, os.Stderr)
}

func execute(args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}
	f := &OutputFormatter{Format: opts.Format, Writer: stdout, ErrWriter: stderr}
	if !isValidFormat(f.Format) {
		f.Format = "text"
	}
	f.Error(err)
	return GetExitCode(err)
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flexure",
		Short: "Elastic-plate flexure over a raster workspace",
		Long: `flexure computes the flexural isostatic response of an elastic plate to a
load raster and writes the deflection back into a raster workspace.

The workspace is a SQLite database holding the active region, raster layers
and a ledger of runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitUsage, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			opts.config = config.EmptyRunConfig()
			if opts.ConfigPath != "" {
				cfg, err := config.Load(opts.ConfigPath)
				if err != nil {
					return WrapExitError(ExitUsage, "failed to load config", err)
				}
				opts.config = cfg
			}
			if !cmd.Flags().Changed("workspace") {
				opts.Workspace = opts.config.GetWorkspace()
			}
			monitoring.SetLogger(log.New(cmd.ErrOrStderr(), "", 0).Printf)
			monitoring.SetVerbose(opts.Verbose || opts.config.GetVerbose())
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitUsage, "invalid flags", err)
	})

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Workspace, "workspace", "d", config.DefaultWorkspace, "path to the workspace database")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "run configuration file (.json, .yaml or .toml)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewRegionCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewColorsCommand(opts))
	cmd.AddCommand(NewResampleCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func (o *RootOptions) fs() fsutil.FileSystem {
	if o.FS == nil {
		return fsutil.OSFileSystem{}
	}
	return o.FS
}

// withWorkspace opens the configured workspace for the duration of fn.
func (o *RootOptions) withWorkspace(cmd *cobra.Command, fn func(ctx context.Context, ws *workspace.Workspace) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ws, err := workspace.Open(ctx, o.Workspace)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to open workspace", err)
	}
	defer ws.Close()
	return fn(ctx, ws)
}
