// Package ingestcmder provides the ingest command for bulk loading files into
// a wiki.
package ingestcmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	apisearch "github.com/papercomputeco/folio/api/search"
	"github.com/papercomputeco/folio/cmd/folio/services"
	"github.com/papercomputeco/folio/pkg/cliui"
	"github.com/papercomputeco/folio/pkg/config"
	"github.com/papercomputeco/folio/pkg/ingest"
	"github.com/papercomputeco/folio/pkg/ingest/worker"
)

type ingestCommander struct {
	wikiID  string
	tags    string
	workers uint
	paths   []string

	cfg       *config.Config
	configDir string
	out       io.Writer
	logger    *slog.Logger
}

const ingestLongDesc string = `Ingest files as pages of a wiki.

Each file becomes one page titled after its file name. Directories are walked
for .md, .markdown and .txt files. Pages are chunked, embedded and stored
directly in the configured stores by a pool of workers; the API server does
not need to be running.

A file whose chunks could not be stored is reported as a partial ingest and is
repaired by "folio reconcile".

Example:
  folio ingest --wiki 3f1c... docs/
  folio ingest --wiki 3f1c... --tags 9a0b...,77de... notes/deploy.md notes/rollback.md`

const ingestShortDesc string = "Ingest files into a wiki"

var ingestFlags = services.StoreFlags

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest <path>...",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, err = services.LoadConfig(cmd, ingestFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.logger = services.NewLogger(cmd)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.paths = args
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.wikiID, "wiki", "w", "", "Wiki to add the pages to")
	cmd.Flags().StringVarP(&cmder.tags, "tags", "t", "", "Comma separated tag IDs applied to every page")
	cmd.Flags().UintVar(&cmder.workers, "workers", 3, "Number of files ingested concurrently")
	_ = cmd.MarkFlagRequired("wiki")
	services.AddFlags(cmd, ingestFlags)

	return cmd
}

func (c *ingestCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	files, err := CollectFiles(c.paths)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(c.out, cliui.DimStyle.Render("No page files found."))
		return nil
	}

	svc, err := services.Open(ctx, c.cfg, c.configDir, c.logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	if _, err := svc.Store.GetWiki(ctx, c.wikiID); err != nil {
		return err
	}

	ingester, err := svc.Ingester()
	if err != nil {
		return err
	}

	failed, err := IngestFiles(ctx, ingester, files, c.wikiID, apisearch.ParseTags(c.tags), c.workers, c.out, c.logger)
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to ingest", failed, len(files))
	}
	return nil
}

// IngestFiles ingests every file through a worker pool, printing one line per
// file to out, and returns the number of failures.
func IngestFiles(ctx context.Context, ingester worker.Ingestor, files []string, wikiID string, tags []string, workers uint, out io.Writer, logger *slog.Logger) (int, error) {
	var (
		mu     sync.Mutex
		failed int
	)

	pool, err := worker.NewPool(ctx, &worker.Config{
		Ingester:   ingester,
		NumWorkers: workers,
		Logger:     logger,
		OnDone: func(o worker.Outcome) {
			mu.Lock()
			defer mu.Unlock()
			PrintOutcome(out, o)
			if o.Err != nil {
				failed++
			}
		},
	})
	if err != nil {
		return 0, err
	}

	for _, path := range files {
		job, err := JobForFile(path, wikiID, tags)
		if err != nil {
			mu.Lock()
			PrintOutcome(out, worker.Outcome{Job: worker.Job{Source: path}, Err: err})
			failed++
			mu.Unlock()
			continue
		}
		if err := pool.Submit(ctx, job); err != nil {
			pool.Close()
			return failed, err
		}
	}
	pool.Close()

	return failed, nil
}

// PrintOutcome writes a single status line for a processed file.
func PrintOutcome(out io.Writer, o worker.Outcome) {
	if o.Err != nil {
		fmt.Fprintf(out, "  %s %s %s\n", cliui.FailMark, o.Job.Source, cliui.DimStyle.Render(o.Err.Error()))
		return
	}

	detail := fmt.Sprintf("%s, %d chunks", o.Result.Document.ID, o.Result.ChunkCount)
	if n := len(o.Result.FailedWindows); n > 0 {
		detail += fmt.Sprintf(", %d windows dropped", n)
	}
	fmt.Fprintf(out, "  %s %s %s\n", cliui.SuccessMark, o.Job.Source, cliui.DimStyle.Render("("+detail+")"))
}

// JobForFile reads path into a new-page job.
func JobForFile(path, wikiID string, tags []string) (worker.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return worker.Job{}, fmt.Errorf("reading %s: %w", path, err)
	}

	return worker.Job{
		Source: path,
		Request: ingest.Request{
			WikiID: wikiID,
			Title:  TitleFromPath(path),
			Text:   string(data),
			Tags:   tags,
		},
	}, nil
}

// TitleFromPath turns "docs/deploy-guide.md" into "deploy guide".
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.Join(strings.FieldsFunc(base, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	}), " ")
}

// IsPageFile reports whether path has a page file extension.
func IsPageFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".txt":
		return true
	}
	return false
}

// CollectFiles expands directories into the page files they contain, in
// lexical order. Files named explicitly are kept regardless of extension.
func CollectFiles(paths []string) ([]string, error) {
	files := []string{}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if IsPageFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", p, err)
		}
	}
	return files, nil
}
