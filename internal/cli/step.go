package cli

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/atlaslabs/atlasflow/internal/engine"
)

// NewStepCommand creates the step command group.
func NewStepCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Manage flow steps",
	}

	cmd.AddCommand(newStepAddCommand(opts))

	return cmd
}

func newStepAddCommand(opts *RootOptions) *cobra.Command {
	var (
		source  string
		target  string
		adapter string
		payload string
	)

	cmd := &cobra.Command{
		Use:   "add <flow-id>",
		Short: "Append a step to a flow",
		Long: "Appends a step with the next contiguous order. Steps without a target\n" +
			"artifact are recorded but produce no receipt at execution time.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(ctx context.Context, eng *engine.Engine, out *Formatter) error {
				params := engine.StepParams{
					SourceArtifactID: source,
					TargetArtifactID: target,
					AdapterID:        adapter,
				}
				if payload != "" {
					params.Payload = json.RawMessage(payload)
				}
				st, err := eng.AddStep(ctx, args[0], params)
				if err != nil {
					return out.Fail(err)
				}
				return out.Success(newStepView(st))
			})
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "source artifact id")
	cmd.Flags().StringVar(&target, "target", "", "target artifact id")
	cmd.Flags().StringVar(&adapter, "adapter", "", "adapter id handling this step")
	cmd.Flags().StringVar(&payload, "payload", "", "step payload as a JSON document")

	return cmd
}
