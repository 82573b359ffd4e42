// Package foliocmder is the root folio command.
package foliocmder

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/folio/cmd/folio/auth"
	configcmder "github.com/papercomputeco/folio/cmd/folio/config"
	ingestcmder "github.com/papercomputeco/folio/cmd/folio/ingest"
	pagecmder "github.com/papercomputeco/folio/cmd/folio/page"
	reconcilecmder "github.com/papercomputeco/folio/cmd/folio/reconcile"
	searchcmder "github.com/papercomputeco/folio/cmd/folio/search"
	servecmder "github.com/papercomputeco/folio/cmd/folio/serve"
	tagcmder "github.com/papercomputeco/folio/cmd/folio/tag"
	watchcmder "github.com/papercomputeco/folio/cmd/folio/watch"
	wikicmder "github.com/papercomputeco/folio/cmd/folio/wiki"
	versioncmder "github.com/papercomputeco/folio/cmd/version"
)

const folioLongDesc string = `Folio is semantic search for your team wikis.

Pages are split into overlapping sentence windows, embedded and stored next
to the page text, so searches return the passages closest in meaning to the
query.

Run services using:
  folio serve          Run the API server
  folio ingest         Load files into a wiki
  folio watch          Keep a directory mirrored into a wiki
  folio search         Search a wiki through the API`

const folioShortDesc string = "Folio - semantic wiki search"

func NewFolioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "folio",
		Short:         folioShortDesc,
		Long:          folioLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(*cobra.Command, []string) {
			_ = godotenv.Load()
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .folio/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(watchcmder.NewWatchCmd())
	cmd.AddCommand(reconcilecmder.NewReconcileCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(pagecmder.NewPageCmd())
	cmd.AddCommand(wikicmder.NewWikiCmd())
	cmd.AddCommand(tagcmder.NewTagCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
