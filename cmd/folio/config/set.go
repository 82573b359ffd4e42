package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/folio/pkg/cliui"
)

const setLongDesc string = `Set a configuration value.

Writes one dotted key to config.toml. The whole file is validated before it
is written: numbers must parse, chunking.sentence_overlap must be at most 64
and retrieval.candidate_pool_size must not be smaller than
retrieval.result_limit. Run "folio config list" to see every key.

Examples:
  folio config set storage.postgres_dsn postgres://localhost/folio
  folio config set storage.provider postgres
  folio config set embedding.dimensions 768`

const setShortDesc string = "Set a configuration value"

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "set <key> <value>",
		Short:             setShortDesc,
		Long:              setLongDesc,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeKey,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if err := checkKey(key); err != nil {
				return err
			}

			cfger, err := openConfiger(cmd)
			if err != nil {
				return err
			}
			if err := cfger.SetConfigValue(key, value); err != nil {
				return err
			}

			shown := value
			if isSecret(key) {
				shown = mask(value)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s Set %s = %s\n\n",
				cliui.SuccessMark, cliui.KeyStyle.Render(key), cliui.ValueStyle.Render(shown))
			return nil
		},
	}
}
