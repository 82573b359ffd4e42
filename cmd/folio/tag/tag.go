// Package tagcmder provides commands for managing tags through the folio API.
package tagcmder

import (
	"context"
	"fmt"
	"io"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/folio/cmd/folio/services"
	"github.com/papercomputeco/folio/pkg/cliui"
	"github.com/papercomputeco/folio/pkg/storage"
)

// TagClient is the part of the API client the tag commands use.
type TagClient interface {
	CreateTag(ctx context.Context, name string, color *storage.Color) (*storage.Tag, error)
	ListTags(ctx context.Context) ([]*storage.Tag, error)
}

func NewTagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags",
		Long: `Manage the tags used to label pages and pre-filter searches.

Tags are shared by every wiki on the server.`,
	}

	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func newCreateCmd() *cobra.Command {
	var fg, bg string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a tag",
		Long: `Create a tag and print its ID.

Example:
  folio tag create ops
  folio tag create urgent --fg "#fff" --bg crimson`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := services.NewClient(cmd)
			if err != nil {
				return err
			}

			var color *storage.Color
			if fg != "" || bg != "" {
				color = &storage.Color{FG: fg, BG: bg}
			}
			return Create(cmd.Context(), c, cmd.OutOrStdout(), args[0], color)
		},
	}

	cmd.Flags().StringVar(&fg, "fg", "", "Foreground color")
	cmd.Flags().StringVar(&bg, "bg", "", "Background color")
	services.AddFlags(cmd, services.ClientFlags)

	return cmd
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := services.NewClient(cmd)
			if err != nil {
				return err
			}
			return List(cmd.Context(), c, cmd.OutOrStdout())
		},
	}

	services.AddFlags(cmd, services.ClientFlags)

	return cmd
}

// Create creates a tag and prints its ID.
func Create(ctx context.Context, c TagClient, out io.Writer, name string, color *storage.Color) error {
	if ctx == nil {
		ctx = context.Background()
	}

	tag, err := c.CreateTag(ctx, name, color)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s %s\n", cliui.SuccessMark, badge(tag), cliui.DimStyle.Render(tag.ID))
	return nil
}

// List prints every tag.
func List(ctx context.Context, c TagClient, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	tags, err := c.ListTags(ctx)
	if err != nil {
		return err
	}
	if len(tags) == 0 {
		fmt.Fprintln(out, "No tags.")
		return nil
	}
	for _, t := range tags {
		fmt.Fprintf(out, "  %s  %s\n", badge(t), cliui.DimStyle.Render(t.ID))
	}
	return nil
}

// badge renders the tag name in its own colors. Named CSS colors other than
// hex codes are not understood by the terminal and render uncolored.
func badge(t *storage.Tag) string {
	style := lipgloss.NewStyle().Padding(0, 1)
	if isHex(t.Color.FG) {
		style = style.Foreground(lipgloss.Color(t.Color.FG))
	}
	if isHex(t.Color.BG) {
		style = style.Background(lipgloss.Color(t.Color.BG))
	}
	return style.Render(t.Name)
}

func isHex(s string) bool {
	return len(s) > 1 && s[0] == '#'
}
