// Package configcmder provides the config command for managing persistent
// folio configuration stored in the .folio/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/folio/pkg/cliui"
	"github.com/papercomputeco/folio/pkg/config"
)

const configLongDesc string = `Manage persistent folio configuration.

Configuration is stored as config.toml in the .folio/ directory and provides
default values for command flags. CLI flags and FOLIO_* environment variables
take precedence over config file values.

Keys use dotted notation matching the TOML section structure, for example:
  storage.provider, storage.sqlite_path, api.listen, client.caller,
  vector_store.provider, embedding.model, embedding.dimensions,
  chunking.tokens_per_window, chunking.sentence_overlap,
  retrieval.result_limit, rewrite.provider, events.provider

Use subcommands to get, set, or list configuration values:
  folio config set <key> <value>    Set a configuration value
  folio config get <key>            Get a configuration value
  folio config list                 List all configuration values
  folio config preset <name>        Write a provider preset

Examples:
  folio config set embedding.model nomic-embed-text
  folio config set chunking.sentence_overlap 0
  folio config get storage.provider
  folio config preset ollama`

const configShortDesc string = "Manage persistent folio configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newPresetCmd())

	return cmd
}

// openConfiger resolves the config file for cmd and prints where it lives.
func openConfiger(cmd *cobra.Command) (*config.Configer, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	out := cmd.OutOrStdout()
	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(out, "\n  %s %s\n\n", cliui.KeyStyle.Render("Config file:"), cliui.DimStyle.Render(target))
	} else {
		fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
	}
	return cfger, nil
}

func checkKey(key string) error {
	if config.IsValidConfigKey(key) {
		return nil
	}
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s", key, strings.Join(config.ValidConfigKeys(), ", "))
}

// completeKey completes the first positional argument with config keys.
func completeKey(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printValue(out io.Writer, key, value string, width int) {
	shown := cliui.DimStyle.Render("<not set>")
	switch {
	case value == "":
	case isSecret(key):
		shown = cliui.ValueStyle.Render(mask(value))
	default:
		shown = cliui.ValueStyle.Render(value)
	}
	fmt.Fprintf(out, "  %s  %s\n", cliui.KeyStyle.Render(fmt.Sprintf("%-*s", width, key)), shown)
}

func isSecret(key string) bool {
	return strings.HasSuffix(key, "api_key") || strings.HasSuffix(key, "postgres_dsn")
}

// mask keeps the first four characters of a secret.
func mask(value string) string {
	if len(value) <= 4 {
		return "****"
	}
	return value[:4] + "****"
}
