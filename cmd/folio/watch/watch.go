// Package watchcmder provides the watch command, which keeps a wiki in sync
// with a directory of page files.
package watchcmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	apisearch "github.com/papercomputeco/folio/api/search"
	"github.com/papercomputeco/folio/cmd/folio/services"
	"github.com/papercomputeco/folio/pkg/cliui"
	"github.com/papercomputeco/folio/pkg/config"
)

type watchCommander struct {
	dir            string
	wikiID         string
	tags           string
	workers        uint
	debounce       time.Duration
	ingestExisting bool

	cfg       *config.Config
	configDir string
	out       io.Writer
	logger    *slog.Logger
}

const watchLongDesc string = `Watch a directory and mirror its page files into a wiki.

New .md, .markdown and .txt files become pages, edits replace the page text
and its chunks, and deleting a file deletes its page. Subdirectories are not
watched.

On start, files whose derived title matches exactly one existing page of the
wiki are tracked as that page. With --ingest-existing the remaining files are
ingested as new pages right away; otherwise they are picked up on their next
change.

Example:
  folio watch --wiki 3f1c... ./notes
  folio watch --wiki 3f1c... --ingest-existing --debounce 2s ./docs`

const watchShortDesc string = "Mirror a directory into a wiki"

var watchFlags = services.StoreFlags

func NewWatchCmd() *cobra.Command {
	cmder := &watchCommander{}

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: watchShortDesc,
		Long:  watchLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, err = services.LoadConfig(cmd, watchFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.logger = services.NewLogger(cmd)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.dir = args[0]
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.wikiID, "wiki", "w", "", "Wiki to mirror the directory into")
	cmd.Flags().StringVarP(&cmder.tags, "tags", "t", "", "Comma separated tag IDs applied to new pages")
	cmd.Flags().UintVar(&cmder.workers, "workers", 2, "Number of files ingested concurrently")
	cmd.Flags().DurationVar(&cmder.debounce, "debounce", DefaultDebounce, "Quiet period before a changed file is ingested")
	cmd.Flags().BoolVar(&cmder.ingestExisting, "ingest-existing", false, "Ingest files that match no existing page on start")
	_ = cmd.MarkFlagRequired("wiki")
	services.AddFlags(cmd, watchFlags)

	return cmd
}

func (c *watchCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := services.Open(ctx, c.cfg, c.configDir, c.logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	if _, err := svc.Store.GetWiki(ctx, c.wikiID); err != nil {
		return err
	}

	docs, err := svc.Store.ListDocuments(ctx, c.wikiID)
	if err != nil {
		return err
	}
	titles := map[string][]string{}
	for _, d := range docs {
		titles[d.Title] = append(titles[d.Title], d.ID)
	}

	known, unmatched, err := MatchExisting(c.dir, titles)
	if err != nil {
		return err
	}

	ingester, err := svc.Ingester()
	if err != nil {
		return err
	}

	w, err := NewWatcher(&WatcherConfig{
		Dir:      c.dir,
		WikiID:   c.wikiID,
		Tags:     apisearch.ParseTags(c.tags),
		Ingester: ingester,
		Known:    known,
		Workers:  c.workers,
		Debounce: c.debounce,
		Out:      c.out,
		Logger:   c.logger,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "%s %s %s\n",
		cliui.HeaderStyle.Render("Watching"),
		c.dir,
		cliui.DimStyle.Render(fmt.Sprintf("(%d tracked, %d untracked)", len(known), len(unmatched))),
	)

	return w.Run(ctx, func() {
		if !c.ingestExisting {
			return
		}
		for _, path := range unmatched {
			w.schedule(path)
		}
	})
}
