package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atlaslabs/atlasflow/internal/engine"
)

// NewFlowCommand creates the flow command group.
func NewFlowCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Manage orchestration flows",
	}

	cmd.AddCommand(newFlowCreateCommand(opts))
	cmd.AddCommand(newFlowListCommand(opts))
	cmd.AddCommand(newFlowShowCommand(opts))
	cmd.AddCommand(newFlowExecuteCommand(opts))
	cmd.AddCommand(newFlowCancelCommand(opts))
	cmd.AddCommand(newFlowDeleteCommand(opts))

	return cmd
}

func newFlowCreateCommand(opts *RootOptions) *cobra.Command {
	var scope scopeFlags
	var artifacts []string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new flow in pending state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(ctx context.Context, eng *engine.Engine, out *Formatter) error {
				sc, err := scope.resolve(ctx, eng)
				if err != nil {
					return out.Fail(err)
				}
				f, err := eng.CreateFlow(ctx, sc, args[0], artifacts)
				if err != nil {
					return out.Fail(err)
				}
				return out.Success(newFlowView(f))
			})
		},
	}

	scope.register(cmd)
	cmd.Flags().StringSliceVar(&artifacts, "artifact", nil, "artifact id to link (repeatable)")

	return cmd
}

func newFlowListCommand(opts *RootOptions) *cobra.Command {
	var scope scopeFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List flows owned by the caller's wallet scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(ctx context.Context, eng *engine.Engine, out *Formatter) error {
				sc, err := scope.resolve(ctx, eng)
				if err != nil {
					return out.Fail(err)
				}
				flows, err := eng.ListFlows(ctx, sc)
				if err != nil {
					return out.Fail(err)
				}
				views := make([]flowView, len(flows))
				for i, f := range flows {
					views[i] = newFlowView(f)
				}
				if opts.Format == "json" {
					return out.Success(views)
				}
				lines := make([]string, len(views))
				for i, v := range views {
					lines[i] = v.String()
				}
				return out.Success(strings.Join(lines, "\n"))
			})
		},
	}

	scope.register(cmd)

	return cmd
}

func newFlowShowCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <flow-id>",
		Short: "Show a flow and its ordered steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(ctx context.Context, eng *engine.Engine, out *Formatter) error {
				detail, err := eng.GetFlow(ctx, args[0])
				if err != nil {
					return out.Fail(err)
				}
				return out.Success(newFlowDetailView(detail))
			})
		},
	}

	return cmd
}

func newFlowExecuteCommand(opts *RootOptions) *cobra.Command {
	var scope scopeFlags

	cmd := &cobra.Command{
		Use:   "execute <flow-id>",
		Short: "Execute a pending flow's steps in order",
		Long: "Transitions the flow to running, walks its steps in order, writes one\n" +
			"receipt per artifact-targeting step, and marks the flow completed.\n" +
			"A step failure leaves the flow in the failed state.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(ctx context.Context, eng *engine.Engine, out *Formatter) error {
				sc, err := scope.resolve(ctx, eng)
				if err != nil {
					return out.Fail(err)
				}
				res, err := eng.Execute(ctx, args[0], sc)
				if err != nil {
					return out.Fail(err)
				}
				return out.Success(newExecutionView(res))
			})
		},
	}

	scope.register(cmd)

	return cmd
}

func newFlowCancelCommand(opts *RootOptions) *cobra.Command {
	var scope scopeFlags

	cmd := &cobra.Command{
		Use:   "cancel <flow-id>",
		Short: "Cancel a pending flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(ctx context.Context, eng *engine.Engine, out *Formatter) error {
				sc, err := scope.resolve(ctx, eng)
				if err != nil {
					return out.Fail(err)
				}
				f, err := eng.CancelFlow(ctx, args[0], sc)
				if err != nil {
					return out.Fail(err)
				}
				return out.Success(newFlowView(f))
			})
		},
	}

	scope.register(cmd)

	return cmd
}

func newFlowDeleteCommand(opts *RootOptions) *cobra.Command {
	var scope scopeFlags

	cmd := &cobra.Command{
		Use:   "delete <flow-id>",
		Short: "Delete a flow and its steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(ctx context.Context, eng *engine.Engine, out *Formatter) error {
				sc, err := scope.resolve(ctx, eng)
				if err != nil {
					return out.Fail(err)
				}
				if err := eng.DeleteFlow(ctx, args[0], sc); err != nil {
					return out.Fail(err)
				}
				return out.Success("deleted " + args[0])
			})
		},
	}

	scope.register(cmd)

	return cmd
}
