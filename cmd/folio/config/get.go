package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"
)

const getLongDesc string = `Get a configuration value.

Reads one dotted key from config.toml. Secrets such as vector_store.api_key
and storage.postgres_dsn are masked.

Examples:
  folio config get storage.provider
  folio config get embedding.model`

const getShortDesc string = "Get a configuration value"

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "get <key>",
		Short:             getShortDesc,
		Long:              getLongDesc,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeKey,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := checkKey(key); err != nil {
				return err
			}

			cfger, err := openConfiger(cmd)
			if err != nil {
				return err
			}
			value, err := cfger.GetConfigValue(key)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printValue(out, key, value, len(key))
			fmt.Fprintln(out)
			return nil
		},
	}
}
