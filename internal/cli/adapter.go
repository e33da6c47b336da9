package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/atlaslabs/atlasflow/internal/engine"
	"github.com/atlaslabs/atlasflow/internal/flow"
)

// NewAdapterCommand creates the adapter command group.
func NewAdapterCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adapter",
		Short: "Manage the adapter registry",
	}

	cmd.AddCommand(newAdapterRegisterCommand(opts))
	cmd.AddCommand(newAdapterListCommand(opts))
	cmd.AddCommand(newAdapterShowCommand(opts))
	cmd.AddCommand(newAdapterActivateCommand(opts))
	cmd.AddCommand(newAdapterDeactivateCommand(opts))

	return cmd
}

// adapterManifest is the YAML shape accepted by adapter register --file.
type adapterManifest struct {
	AdapterID    string         `yaml:"adapterId"`
	Name         string         `yaml:"name"`
	Version      string         `yaml:"version"`
	Description  string         `yaml:"description"`
	InputSchema  string         `yaml:"inputSchema"`
	OutputSchema string         `yaml:"outputSchema"`
	Config       map[string]any `yaml:"config"`
}

func (m adapterManifest) params() (engine.RegisterAdapterParams, error) {
	params := engine.RegisterAdapterParams{
		AdapterID:    m.AdapterID,
		Name:         m.Name,
		Version:      m.Version,
		Description:  m.Description,
		InputSchema:  m.InputSchema,
		OutputSchema: m.OutputSchema,
	}
	if m.Config != nil {
		raw, err := json.Marshal(m.Config)
		if err != nil {
			return engine.RegisterAdapterParams{}, fmt.Errorf("encode config: %w", err)
		}
		params.Config = raw
	}
	return params, nil
}

func newAdapterRegisterCommand(opts *RootOptions) *cobra.Command {
	var (
		file        string
		name        string
		version     string
		description string
	)

	cmd := &cobra.Command{
		Use:   "register [adapter-id]",
		Short: "Register or update an adapter",
		Long: "Registers adapter metadata by id, either from a YAML manifest (--file)\n" +
			"or from flags. Re-registering an existing id overwrites its metadata\n" +
			"but preserves its status.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(ctx context.Context, eng *engine.Engine, out *Formatter) error {
				var params engine.RegisterAdapterParams

				if file != "" {
					data, err := os.ReadFile(file)
					if err != nil {
						return &ExitError{Code: ExitCommandError, Message: "read manifest", Err: err}
					}
					var manifest adapterManifest
					if err := yaml.Unmarshal(data, &manifest); err != nil {
						return &ExitError{Code: ExitCommandError, Message: "parse manifest", Err: err}
					}
					params, err = manifest.params()
					if err != nil {
						return &ExitError{Code: ExitCommandError, Message: "invalid manifest", Err: err}
					}
					if len(args) == 1 {
						params.AdapterID = args[0]
					}
				} else {
					if len(args) != 1 {
						return &ExitError{Code: ExitCommandError, Message: "adapter id argument is required without --file"}
					}
					params = engine.RegisterAdapterParams{
						AdapterID:   args[0],
						Name:        name,
						Version:     version,
						Description: description,
					}
				}

				a, err := eng.RegisterAdapter(ctx, params)
				if err != nil {
					return out.Fail(err)
				}
				return out.Success(newAdapterView(a))
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML manifest describing the adapter")
	cmd.Flags().StringVar(&name, "name", "", "adapter display name")
	cmd.Flags().StringVar(&version, "version", "", "adapter version")
	cmd.Flags().StringVar(&description, "description", "", "adapter description")

	return cmd
}

func newAdapterListCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active adapters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(ctx context.Context, eng *engine.Engine, out *Formatter) error {
				adapters, err := eng.ListAdapters(ctx)
				if err != nil {
					return out.Fail(err)
				}
				views := make([]adapterView, len(adapters))
				for i, a := range adapters {
					views[i] = newAdapterView(a)
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

	return cmd
}

func newAdapterShowCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <adapter-id>",
		Short: "Show an adapter's registry entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(ctx context.Context, eng *engine.Engine, out *Formatter) error {
				a, err := eng.GetAdapter(ctx, args[0])
				if err != nil {
					return out.Fail(err)
				}
				return out.Success(newAdapterView(a))
			})
		},
	}

	return cmd
}

func newAdapterActivateCommand(opts *RootOptions) *cobra.Command {
	return newAdapterStatusCommand(opts, "activate", flow.AdapterActive)
}

func newAdapterDeactivateCommand(opts *RootOptions) *cobra.Command {
	return newAdapterStatusCommand(opts, "deactivate", flow.AdapterInactive)
}

func newAdapterStatusCommand(opts *RootOptions, verb string, status flow.AdapterStatus) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <adapter-id>",
		Short: strings.ToUpper(verb[:1]) + verb[1:] + " an adapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(ctx context.Context, eng *engine.Engine, out *Formatter) error {
				a, err := eng.SetAdapterStatus(ctx, args[0], status)
				if err != nil {
					return out.Fail(err)
				}
				return out.Success(newAdapterView(a))
			})
		},
	}
}
