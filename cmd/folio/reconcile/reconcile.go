// Package reconcilecmder provides the reconcile command, which repairs pages
// left without chunks by a failed write.
package reconcilecmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/folio/cmd/folio/services"
	"github.com/papercomputeco/folio/pkg/cliui"
	"github.com/papercomputeco/folio/pkg/config"
	"github.com/papercomputeco/folio/pkg/ingest"
)

// Reconciler repairs a wiki.
type Reconciler interface {
	Reconcile(ctx context.Context, wikiID string) (*ingest.ReconcileReport, error)
}

type reconcileCommander struct {
	wikiID string

	cfg       *config.Config
	configDir string
	out       io.Writer
	logger    *slog.Logger
}

const reconcileLongDesc string = `Repair pages that have no chunks.

A page whose chunks could not be stored after its text was saved is left
without chunks and never shows up in searches. Reconcile finds such pages in a
wiki and re-chunks and re-embeds their stored text. It works directly on the
configured stores; the API server does not need to be running.

Example:
  folio reconcile --wiki 3f1c...`

const reconcileShortDesc string = "Repair pages without chunks"

var reconcileFlags = services.StoreFlags

func NewReconcileCmd() *cobra.Command {
	cmder := &reconcileCommander{}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: reconcileShortDesc,
		Long:  reconcileLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, err = services.LoadConfig(cmd, reconcileFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.logger = services.NewLogger(cmd)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.wikiID, "wiki", "w", "", "Wiki to reconcile")
	_ = cmd.MarkFlagRequired("wiki")
	services.AddFlags(cmd, reconcileFlags)

	return cmd
}

func (c *reconcileCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	svc, err := services.Open(ctx, c.cfg, c.configDir, c.logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	ingester, err := svc.Ingester()
	if err != nil {
		return err
	}

	return Run(ctx, ingester, c.out, c.wikiID)
}

// Run reconciles a wiki and prints the report. It fails when any page could
// not be repaired.
func Run(ctx context.Context, r Reconciler, out io.Writer, wikiID string) error {
	var report *ingest.ReconcileReport
	err := cliui.Step(out, "Reconciling wiki "+wikiID, func() error {
		var err error
		report, err = r.Reconcile(ctx, wikiID)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "  %s %d  %s %d  %s %d\n",
		cliui.KeyStyle.Render("checked"), report.Checked,
		cliui.KeyStyle.Render("repaired"), len(report.Repaired),
		cliui.KeyStyle.Render("failed"), len(report.Failed),
	)
	for _, id := range report.Repaired {
		fmt.Fprintf(out, "  %s %s\n", cliui.SuccessMark, id)
	}

	failed := make([]string, 0, len(report.Failed))
	for id := range report.Failed {
		failed = append(failed, id)
	}
	sort.Strings(failed)
	for _, id := range failed {
		fmt.Fprintf(out, "  %s %s %s\n", cliui.FailMark, id, cliui.DimStyle.Render(report.Failed[id].Error()))
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d pages could not be repaired", len(failed))
	}
	return nil
}
