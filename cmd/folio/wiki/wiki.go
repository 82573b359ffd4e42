// Package wikicmder provides commands for managing wikis through the folio
// API.
package wikicmder

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/folio/cmd/folio/services"
	"github.com/papercomputeco/folio/pkg/cliui"
	"github.com/papercomputeco/folio/pkg/storage"
)

// WikiCreator is the part of the API client the wiki commands use.
type WikiCreator interface {
	CreateWiki(ctx context.Context, title string) (*storage.Wiki, error)
}

func NewWikiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wiki",
		Short: "Manage wikis",
	}

	cmd.AddCommand(newCreateCmd())

	return cmd
}

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a wiki",
		Long: `Create a wiki whose first member is the configured caller, and print
its ID.

Example:
  folio wiki create "Platform runbooks" --caller alice`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := services.NewClient(cmd)
			if err != nil {
				return err
			}
			return Create(cmd.Context(), c, cmd.OutOrStdout(), args[0])
		},
	}

	services.AddFlags(cmd, services.ClientFlags)

	return cmd
}

// Create creates a wiki and prints its ID.
func Create(ctx context.Context, c WikiCreator, out io.Writer, title string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	wiki, err := c.CreateWiki(ctx, title)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s %s\n", cliui.SuccessMark, cliui.TitleStyle.Render(wiki.Title), wiki.ID)
	return nil
}
