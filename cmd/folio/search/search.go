// Package searchcmder provides the search command for semantic search over a
// wiki.
package searchcmder

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	apisearch "github.com/papercomputeco/folio/api/search"
	"github.com/papercomputeco/folio/cmd/folio/client"
	"github.com/papercomputeco/folio/cmd/folio/services"
	"github.com/papercomputeco/folio/pkg/cliui"
	"github.com/papercomputeco/folio/pkg/utils"
)

type searchCommander struct {
	query  string
	wikiID string
	tags   string
	enrich bool
	limit  int
	quiet  bool

	apiTarget string
	caller    string
	out       io.Writer
}

const searchLongDesc string = `Search a wiki via the folio API.

Returns the page chunks closest in meaning to the query. Requires a running
folio API server ("folio serve") and a caller that is a member of the wiki.

--tags restricts the search to pages carrying any of the given tag IDs.
--enrich rewrites the query with the configured language model before
embedding it.

Use --quiet to output only page IDs, one per line, for piping into other
commands such as "folio page".

Example:
  folio search --wiki 3f1c... "how do we roll back a deploy"
  folio search --wiki 3f1c... --tags 9a0b... --limit 3 "on-call rota"
  folio page --wiki 3f1c... $(folio search --wiki 3f1c... --quiet --limit 1 "rollback")`

const searchShortDesc string = "Search a wiki"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := services.LoadConfig(cmd, services.ClientFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.apiTarget = cfg.Client.APITarget
			cmder.caller = cfg.Client.Caller
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.wikiID, "wiki", "w", "", "Wiki to search")
	cmd.Flags().StringVarP(&cmder.tags, "tags", "t", "", "Comma separated tag IDs to pre-filter pages")
	cmd.Flags().BoolVarP(&cmder.enrich, "enrich", "e", false, "Rewrite the query before searching")
	cmd.Flags().IntVarP(&cmder.limit, "limit", "k", 0, "Number of results to return (server default when 0)")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only page IDs, one per line")
	_ = cmd.MarkFlagRequired("wiki")
	services.AddFlags(cmd, services.ClientFlags)

	return cmd
}

func (c *searchCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	api, err := client.New(c.apiTarget, c.caller, nil)
	if err != nil {
		return err
	}

	results, err := api.Search(ctx, c.wikiID, c.query, client.SearchOptions{
		Tags:   apisearch.ParseTags(c.tags),
		Enrich: c.enrich,
		Limit:  c.limit,
	})
	if err != nil {
		return err
	}

	PrintResults(c.out, c.query, results, c.quiet)
	return nil
}

// PrintResults renders search results. In quiet mode only the distinct page
// IDs are written, in rank order.
func PrintResults(out io.Writer, query string, results []apisearch.SearchResult, quiet bool) {
	if len(results) == 0 {
		if !quiet {
			fmt.Fprintln(out, "No results found.")
		}
		return
	}

	if quiet {
		seen := map[string]bool{}
		for _, r := range results {
			if seen[r.DocumentID] {
				continue
			}
			seen[r.DocumentID] = true
			fmt.Fprintln(out, r.DocumentID)
		}
		return
	}

	fmt.Fprintf(out, "\n%s %s\n\n",
		cliui.HeaderStyle.Render("Search Results for:"),
		cliui.TitleStyle.Render(fmt.Sprintf("%q", query)),
	)

	for i, r := range results {
		fmt.Fprintf(out, "  %s  %s  %s\n",
			cliui.RankStyle.Render(fmt.Sprintf("#%d", i+1)),
			cliui.ScoreStyle.Render(fmt.Sprintf("score: %.4f", r.Score)),
			cliui.TitleStyle.Render(r.Title),
		)

		preview := utils.Preview(r.Text, 80)
		fmt.Fprintf(out, "  %s\n", cliui.TextStyle.Render(preview))
		fmt.Fprintf(out, "  %s\n\n", cliui.DimStyle.Render(r.DocumentID+"  "+r.ChunkID))
	}
}
