package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atlaslabs/atlasflow/internal/engine"
	"github.com/atlaslabs/atlasflow/internal/flow"
	"github.com/atlaslabs/atlasflow/internal/store"
)

// withEngine opens the store, builds an engine, runs fn, and closes the store.
// Command lifecycles own the database handle; nothing holds it globally.
func withEngine(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, eng *engine.Engine, out *Formatter) error) error {
	s, err := store.Open(opts.DBPath)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("open database %s", opts.DBPath), Err: err}
	}
	defer s.Close()

	out := &Formatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	return fn(cmd.Context(), engine.New(s), out)
}

// scopeFlags carry the caller identity for wallet-scoped commands.
type scopeFlags struct {
	Wallet  string
	Session string
	Profile string
}

// register adds the scope flags to a command and marks the required ones.
func (sf *scopeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sf.Wallet, "wallet", "", "wallet address of the caller")
	cmd.Flags().StringVar(&sf.Session, "session", "", "session id of the caller")
	cmd.Flags().StringVar(&sf.Profile, "profile", "", "optional profile id")
	_ = cmd.MarkFlagRequired("wallet")
	_ = cmd.MarkFlagRequired("session")
}

// resolve turns the flags into a durable wallet scope.
func (sf *scopeFlags) resolve(ctx context.Context, eng *engine.Engine) (flow.WalletScope, error) {
	return eng.ResolveScope(ctx, sf.Wallet, sf.Session, sf.Profile)
}
