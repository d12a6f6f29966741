package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/banshee-data/flexure/internal/version"
	"github.com/banshee-data/flexure/internal/workspace"
)

// runList prints ledger entries newest first.
type runList []workspace.Run

func (l runList) String() string {
	if len(l) == 0 {
		return "no runs recorded"
	}
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSTATUS\tSTARTED\tERROR")
	for _, r := range l {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Status, r.StartedAt, r.Error)
	}
	tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}

// runView prints one ledger entry with its parameters.
type runView workspace.Run

func (r runView) String() string {
	s := fmt.Sprintf("run:      %s\nstatus:   %s\nstarted:  %s\nfinished: %s\nparams:   %s",
		r.ID, r.Status, r.StartedAt, r.FinishedAt, r.Params)
	if r.Error != "" {
		s += "\nerror:    " + r.Error
	}
	return s
}

// NewRunsCommand creates the command that shows the run ledger.
func NewRunsCommand(root *RootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:           "runs [RUN_ID]",
		Short:         "List recorded flexure runs, or show one",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				if len(args) == 1 {
					r, err := ws.GetRun(ctx, args[0])
					if err != nil {
						return WrapExitError(ExitFailure, "failed to read run "+args[0], err)
					}
					return root.formatter(cmd).Success(runView(r))
				}
				runs, err := ws.ListRuns(ctx, limit)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to list runs", err)
				}
				if runs == nil {
					runs = []workspace.Run{}
				}
				return root.formatter(cmd).Success(runList(runs))
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to list (0 for all)")
	return cmd
}

// migrationStatus reports the schema version.
type migrationStatus struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

func (s migrationStatus) String() string {
	if s.Dirty {
		return fmt.Sprintf("schema version %d (dirty)", s.Version)
	}
	return fmt.Sprintf("schema version %d", s.Version)
}

// NewMigrateCommand creates the command that manages the workspace schema.
func NewMigrateCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the workspace schema",
		Long: `Manage the workspace schema. Opening a workspace applies pending migrations,
so these commands are only needed to inspect, roll back or repair it.`,
	}

	step := func(use, short string, args cobra.PositionalArgs, fn func(ws *workspace.Workspace, args []string) error) *cobra.Command {
		return &cobra.Command{
			Use:           use,
			Short:         short,
			Args:          args,
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return root.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
					if err := fn(ws, args); err != nil {
						return err
					}
					v, dirty, err := ws.MigrateVersion()
					if err != nil {
						return WrapExitError(ExitFailure, "failed to read schema version", err)
					}
					return root.formatter(cmd).Success(migrationStatus{Version: v, Dirty: dirty})
				})
			},
		}
	}

	cmd.AddCommand(step("up", "Apply all pending migrations", cobra.NoArgs,
		func(ws *workspace.Workspace, _ []string) error {
			if err := ws.MigrateUp(); err != nil {
				return WrapExitError(ExitFailure, "migrate up failed", err)
			}
			return nil
		}))
	cmd.AddCommand(step("down", "Roll back the most recent migration", cobra.NoArgs,
		func(ws *workspace.Workspace, _ []string) error {
			if err := ws.MigrateDown(); err != nil {
				return WrapExitError(ExitFailure, "migrate down failed", err)
			}
			return nil
		}))
	cmd.AddCommand(step("version", "Show the schema version", cobra.NoArgs,
		func(*workspace.Workspace, []string) error { return nil }))
	cmd.AddCommand(step("force VERSION", "Mark the schema as VERSION without running migrations", cobra.ExactArgs(1),
		func(ws *workspace.Workspace, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return WrapExitError(ExitUsage, "invalid version", err)
			}
			if err := ws.MigrateForce(v); err != nil {
				return WrapExitError(ExitFailure, "migrate force failed", err)
			}
			return nil
		}))
	return cmd
}

// NewVersionCommand creates the command that prints build information.
func NewVersionCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Print version information",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.formatter(cmd).Success(version.Get())
		},
	}
}
