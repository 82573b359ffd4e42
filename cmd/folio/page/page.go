// Package pagecmder provides commands for reading wiki pages through the
// folio API.
package pagecmder

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/folio/cmd/folio/services"
	"github.com/papercomputeco/folio/pkg/cliui"
	"github.com/papercomputeco/folio/pkg/storage"
)

// PageReader is the part of the API client the page commands use.
type PageReader interface {
	GetPage(ctx context.Context, wikiID, pageID string) (*storage.Document, error)
	ListPages(ctx context.Context, wikiID string) ([]*storage.Document, error)
}

const pageLongDesc string = `Read the pages of a wiki.

Pages are fetched from a running folio API server as the configured caller.`

func NewPageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "page",
		Short: "Read wiki pages",
		Long:  pageLongDesc,
	}

	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func newShowCmd() *cobra.Command {
	var (
		wikiID string
		raw    bool
	)

	cmd := &cobra.Command{
		Use:   "show <page-id>",
		Short: "Show a page rendered as markdown",
		Long: `Show a page, rendering its text as markdown.

Example:
  folio page show --wiki 3f1c... 5e2a...
  folio page show --wiki 3f1c... --raw 5e2a... > page.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := services.NewClient(cmd)
			if err != nil {
				return err
			}
			return Show(cmd.Context(), c, cmd.OutOrStdout(), wikiID, args[0], raw)
		},
	}

	cmd.Flags().StringVarP(&wikiID, "wiki", "w", "", "Wiki the page belongs to")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the page text without rendering")
	_ = cmd.MarkFlagRequired("wiki")
	services.AddFlags(cmd, services.ClientFlags)

	return cmd
}

func newListCmd() *cobra.Command {
	var wikiID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the pages of a wiki",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := services.NewClient(cmd)
			if err != nil {
				return err
			}
			return List(cmd.Context(), c, cmd.OutOrStdout(), wikiID)
		},
	}

	cmd.Flags().StringVarP(&wikiID, "wiki", "w", "", "Wiki to list")
	_ = cmd.MarkFlagRequired("wiki")
	services.AddFlags(cmd, services.ClientFlags)

	return cmd
}

// Show writes one page to out.
func Show(ctx context.Context, r PageReader, out io.Writer, wikiID, pageID string, raw bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	page, err := r.GetPage(ctx, wikiID, pageID)
	if err != nil {
		return err
	}

	if raw {
		_, err := fmt.Fprintln(out, page.Text)
		return err
	}

	rendered, err := cliui.RenderMarkdown("# " + page.Title + "\n\n" + page.Text)
	if err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	fmt.Fprint(out, rendered)
	if len(page.Tags) > 0 {
		fmt.Fprintf(out, "  %s %s\n", cliui.KeyStyle.Render("tags:"), cliui.DimStyle.Render(strings.Join(page.Tags, ", ")))
	}
	return nil
}

// List writes one line per page to out.
func List(ctx context.Context, r PageReader, out io.Writer, wikiID string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	pages, err := r.ListPages(ctx, wikiID)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		fmt.Fprintln(out, "No pages.")
		return nil
	}

	for _, p := range pages {
		fmt.Fprintf(out, "  %s  %s  %s\n",
			cliui.DimStyle.Render(p.ID),
			cliui.TitleStyle.Render(p.Title),
			cliui.ScoreStyle.Render(p.UpdatedAt.Format("2006-01-02 15:04")),
		)
	}
	return nil
}
