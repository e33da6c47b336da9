package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atlaslabs/atlasflow/internal/engine"
)

// NewLedgerCommand creates the ledger command group.
func NewLedgerCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and audit the receipt ledger",
	}

	cmd.AddCommand(newLedgerListCommand(opts))
	cmd.AddCommand(newLedgerVerifyCommand(opts))

	return cmd
}

func newLedgerListCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <artifact-id>",
		Short: "List an artifact's receipts in chain order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(ctx context.Context, eng *engine.Engine, out *Formatter) error {
				receipts, err := eng.ArtifactReceipts(ctx, args[0])
				if err != nil {
					return out.Fail(err)
				}
				views := make([]receiptView, len(receipts))
				for i, r := range receipts {
					views[i] = newReceiptView(r)
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

// auditView reports the verification outcome for one artifact chain.
type auditView struct {
	ArtifactID string `json:"artifactId"`
	Receipts   int    `json:"receipts"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
}

func newAuditView(a engine.ArtifactAudit) auditView {
	v := auditView{ArtifactID: a.ArtifactID, Receipts: a.Receipts, OK: a.Err == nil}
	if a.Err != nil {
		v.Error = a.Err.Error()
	}
	return v
}

func (v auditView) String() string {
	if v.OK {
		return fmt.Sprintf("%-36s  %4d receipts  ok", v.ArtifactID, v.Receipts)
	}
	return fmt.Sprintf("%-36s  %4d receipts  BROKEN: %s", v.ArtifactID, v.Receipts, v.Error)
}

func newLedgerVerifyCommand(opts *RootOptions) *cobra.Command {
	var artifact string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify receipt chain integrity",
		Long: "Recomputes every digest and checks hash linkage for one artifact\n" +
			"(--artifact) or for every chain in the ledger. Exits non-zero when any\n" +
			"chain is broken.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(ctx context.Context, eng *engine.Engine, out *Formatter) error {
				var audits []engine.ArtifactAudit

				if artifact != "" {
					n, verr := eng.VerifyArtifact(ctx, artifact)
					if engine.IsStorage(verr) {
						return out.Fail(verr)
					}
					audits = []engine.ArtifactAudit{{ArtifactID: artifact, Receipts: n, Err: verr}}
				} else {
					var err error
					audits, err = eng.VerifyAllArtifacts(ctx)
					if err != nil {
						return out.Fail(err)
					}
				}

				views := make([]auditView, len(audits))
				broken := 0
				for i, a := range audits {
					views[i] = newAuditView(a)
					if a.Err != nil {
						broken++
					}
				}

				if opts.Format == "json" {
					if err := out.Success(views); err != nil {
						return err
					}
				} else {
					lines := make([]string, len(views))
					for i, v := range views {
						lines[i] = v.String()
					}
					if err := out.Success(strings.Join(lines, "\n")); err != nil {
						return err
					}
				}

				if broken > 0 {
					return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d broken chain(s)", broken)}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&artifact, "artifact", "", "verify only this artifact's chain")

	return cmd
}
