package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/folio/pkg/config"
)

const listLongDesc string = `List all configuration values.

Prints every key known to config.toml with its stored value, aligned by key.
Secret values are masked and keys that are not set are marked.

Examples:
  folio config list`

const listShortDesc string = "List all configuration values"

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfger, err := openConfiger(cmd)
			if err != nil {
				return err
			}

			keys := config.ValidConfigKeys()
			width := 0
			for _, k := range keys {
				width = max(width, len(k))
			}

			out := cmd.OutOrStdout()
			for _, key := range keys {
				value, err := cfger.GetConfigValue(key)
				if err != nil {
					return err
				}
				printValue(out, key, value, width)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}
